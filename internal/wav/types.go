package wav

import "errors"

// HeaderSize is the length of the canonical PCM WAV header.
const HeaderSize = 44

var (
	// ErrInvalidHeaderLength is returned when fewer than HeaderSize bytes are available.
	ErrInvalidHeaderLength = errors.New("wav: header shorter than 44 bytes")
	// ErrInvalidHeaderTag is returned when one of the RIFF/WAVE/fmt /data tags does not match.
	ErrInvalidHeaderTag = errors.New("wav: invalid header tag")
	// ErrFieldOverflow is returned by BuildHeader when a value does not fit its field.
	ErrFieldOverflow = errors.New("wav: value overflows header field")
)

var (
	riffTag = [4]byte{'R', 'I', 'F', 'F'}
	waveTag = [4]byte{'W', 'A', 'V', 'E'}
	fmtTag  = [4]byte{'f', 'm', 't', ' '}
	dataTag = [4]byte{'d', 'a', 't', 'a'}
)

// WAVHeader represents the on-disk structure of a WAV file header
type WAVHeader struct {
	// RIFF header
	RiffID   [4]byte // "RIFF"
	FileSize uint32  // 36 + DataSize
	WaveID   [4]byte // "WAVE"

	// fmt sub-chunk
	FmtID         [4]byte // "fmt "
	FmtSize       uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16  // 1 for mono, 2 for stereo
	SampleRate    uint32  // e.g., 44100
	ByteRate      uint32  // SampleRate * NumChannels * BitsPerSample/8
	BlockAlign    uint16  // NumChannels * BitsPerSample/8
	BitsPerSample uint16  // 16 or 32

	// data sub-chunk
	DataID   [4]byte // "data"
	DataSize uint32  // payload length in bytes
}

// Header is the decoded view of a WAV header.
type Header struct {
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	DataSize      uint32

	// Informational fields, not validated.
	FmtSize     uint32
	AudioFormat uint16
	ByteRate    uint32
	BlockAlign  uint16

	// Raw is a copy of the 44 header bytes as read.
	Raw [HeaderSize]byte
}
