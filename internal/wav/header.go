package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ReadHeader consumes exactly HeaderSize bytes from r and decodes them.
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrInvalidHeaderLength
		}
		return nil, fmt.Errorf("error reading WAV header: %w", err)
	}
	return DecodeHeader(buf)
}

// DecodeHeader decodes the first HeaderSize bytes of b. Channel count and
// bit depth are left for the caller to validate.
func DecodeHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, ErrInvalidHeaderLength
	}

	var raw WAVHeader
	if err := binary.Read(bytes.NewReader(b[:HeaderSize]), binary.LittleEndian, &raw); err != nil {
		return nil, fmt.Errorf("error decoding WAV header: %w", err)
	}

	for _, tag := range []struct {
		name      string
		got, want [4]byte
	}{
		{"riff", raw.RiffID, riffTag},
		{"wave", raw.WaveID, waveTag},
		{"fmt", raw.FmtID, fmtTag},
		{"data", raw.DataID, dataTag},
	} {
		if tag.got != tag.want {
			return nil, fmt.Errorf("%w: %s chunk is %q, want %q", ErrInvalidHeaderTag, tag.name, tag.got[:], tag.want[:])
		}
	}

	h := &Header{
		Channels:      raw.NumChannels,
		SampleRate:    raw.SampleRate,
		BitsPerSample: raw.BitsPerSample,
		DataSize:      raw.DataSize,
		FmtSize:       raw.FmtSize,
		AudioFormat:   raw.AudioFormat,
		ByteRate:      raw.ByteRate,
		BlockAlign:    raw.BlockAlign,
	}
	copy(h.Raw[:], b[:HeaderSize])
	return h, nil
}

// BuildHeader serializes a PCM header for the given layout and payload size.
func BuildHeader(channels, sampleRate, bitsPerSample, dataSize int) ([]byte, error) {
	if err := checkField("channels", int64(channels), math.MaxUint16); err != nil {
		return nil, err
	}
	if err := checkField("sample rate", int64(sampleRate), math.MaxUint32); err != nil {
		return nil, err
	}
	if err := checkField("bits per sample", int64(bitsPerSample), math.MaxUint16); err != nil {
		return nil, err
	}
	if err := checkField("data size", int64(dataSize), math.MaxUint32-36); err != nil {
		return nil, err
	}

	byteRate := int64(sampleRate) * int64(channels) * int64(bitsPerSample) / 8
	if err := checkField("byte rate", byteRate, math.MaxUint32); err != nil {
		return nil, err
	}
	blockAlign := int64(channels) * int64(bitsPerSample) / 8
	if err := checkField("block align", blockAlign, math.MaxUint16); err != nil {
		return nil, err
	}

	header := WAVHeader{
		RiffID:        riffTag,
		FileSize:      uint32(36 + dataSize),
		WaveID:        waveTag,
		FmtID:         fmtTag,
		FmtSize:       16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(byteRate),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: uint16(bitsPerSample),
		DataID:        dataTag,
		DataSize:      uint32(dataSize),
	}

	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	if err := binary.Write(&buf, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("error writing WAV header: %w", err)
	}
	return buf.Bytes(), nil
}

func checkField(name string, v, max int64) error {
	if v < 0 || v > max {
		return fmt.Errorf("%w: %s %d not in [0, %d]", ErrFieldOverflow, name, v, max)
	}
	return nil
}
