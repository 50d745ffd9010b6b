package wav

import (
	"fmt"
	"io"
	"os"
)

// ReadContainer reads the header and the declared data payload of a WAV file.
// Bytes past the declared payload are ignored. If the file ends early the
// returned payload holds whatever was available.
func ReadContainer(path string) (*Header, []byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	header, err := ReadHeader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	// DataSize comes from the file; only allocate what is actually there.
	payload, err := io.ReadAll(io.LimitReader(file, int64(header.DataSize)))
	if err != nil {
		return nil, nil, fmt.Errorf("error reading audio data: %w", err)
	}
	return header, payload, nil
}

// Encode writes a freshly built header followed by payload to w.
func Encode(w io.Writer, channels, sampleRate, bitsPerSample int, payload []byte) error {
	header, err := BuildHeader(channels, sampleRate, bitsPerSample, len(payload))
	if err != nil {
		return err
	}
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("error writing WAV header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("error writing audio data: %w", err)
	}
	return nil
}

// WriteContainer writes a WAV file at path. The header is built before the
// file is created so an invalid layout leaves nothing on disk.
func WriteContainer(path string, channels, sampleRate, bitsPerSample int, payload []byte) error {
	if _, err := BuildHeader(channels, sampleRate, bitsPerSample, len(payload)); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}

	if err := Encode(file, channels, sampleRate, bitsPerSample, payload); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}
