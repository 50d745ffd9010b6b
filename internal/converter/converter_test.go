package converter

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mattetti/wav-stereo/internal/stereo"
	"github.com/mattetti/wav-stereo/internal/wav"
)

func pcm16(samples ...int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func writeWAV(t *testing.T, path string, channels, rate, bits int, payload []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, wav.WriteContainer(path, channels, rate, bits, payload))
	return path
}

func TestDownmixFile(t *testing.T) {
	dir := t.TempDir()
	in := writeWAV(t, filepath.Join(dir, "in.wav"), 2, 44100, 16, pcm16(100, 50, -100, 50))
	out := filepath.Join(dir, "mid.wav")

	c := NewConverter(Options{})
	require.NoError(t, c.Downmix(in, out, stereo.MidSum))

	h, payload, err := wav.ReadContainer(out)
	require.NoError(t, err)
	require.Equal(t, uint16(1), h.Channels)
	require.Equal(t, uint32(44100), h.SampleRate)
	require.Equal(t, uint16(16), h.BitsPerSample)
	require.Equal(t, pcm16(75, -25), payload)
}

func TestDownmixRejectsMonoWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeWAV(t, filepath.Join(dir, "mono.wav"), 1, 44100, 16, pcm16(1, 2))
	out := filepath.Join(dir, "out.wav")

	err := NewConverter(Options{}).Downmix(in, out, stereo.Left)
	require.ErrorIs(t, err, stereo.ErrUnsupportedFormat)
	require.NoFileExists(t, out)
}

func TestMergeFiles(t *testing.T) {
	dir := t.TempDir()
	left := writeWAV(t, filepath.Join(dir, "l.wav"), 1, 22050, 16, pcm16(1, 2, 3))
	right := writeWAV(t, filepath.Join(dir, "r.wav"), 1, 22050, 16, pcm16(4, 5, 6))
	out := filepath.Join(dir, "st.wav")

	require.NoError(t, NewConverter(Options{}).Merge(left, right, out))

	h, payload, err := wav.ReadContainer(out)
	require.NoError(t, err)
	require.Equal(t, uint16(2), h.Channels)
	require.Equal(t, uint32(22050), h.SampleRate)
	require.Equal(t, uint16(4), h.BlockAlign)
	require.Equal(t, pcm16(1, 4, 2, 5, 3, 6), payload)
}

func TestMergeMismatchedWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	left := writeWAV(t, filepath.Join(dir, "l.wav"), 1, 22050, 16, pcm16(1, 2, 3))
	right := writeWAV(t, filepath.Join(dir, "r.wav"), 1, 44100, 16, pcm16(4, 5, 6))
	out := filepath.Join(dir, "st.wav")

	err := NewConverter(Options{}).Merge(left, right, out)
	require.ErrorIs(t, err, stereo.ErrMismatchedInputs)
	require.NoFileExists(t, out)
}

func TestEncodeDecodeFiles(t *testing.T) {
	dir := t.TempDir()
	samples := pcm16(1000, -2000, 32767, 32767, -32768, -32768, 0, 0)
	in := writeWAV(t, filepath.Join(dir, "in.wav"), 2, 48000, 16, samples)
	coded := filepath.Join(dir, "coded.wav")
	decoded := filepath.Join(dir, "decoded.wav")

	c := NewConverter(Options{Workers: 2, ChunkFrames: 1})
	require.NoError(t, c.Encode(in, coded))

	h, _, err := wav.ReadContainer(coded)
	require.NoError(t, err)
	require.Equal(t, uint16(1), h.Channels)
	require.Equal(t, uint16(32), h.BitsPerSample)
	require.Equal(t, uint32(16), h.DataSize)

	require.NoError(t, c.Decode(coded, decoded))
	h, payload, err := wav.ReadContainer(decoded)
	require.NoError(t, err)
	require.Equal(t, uint16(2), h.Channels)
	require.Equal(t, uint32(48000), h.SampleRate)
	require.Equal(t, samples, payload)
}

func TestDecodeEmptyPayload(t *testing.T) {
	dir := t.TempDir()
	in := writeWAV(t, filepath.Join(dir, "empty.wav"), 1, 48000, 32, nil)
	out := filepath.Join(dir, "out.wav")

	err := NewConverter(Options{}).Decode(in, out)
	require.ErrorIs(t, err, stereo.ErrEmptyPayload)
	require.NoFileExists(t, out)
}

func TestReadBadHeader(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.wav")
	require.NoError(t, os.WriteFile(in, []byte("RIFX0000WAVE"), 0644))

	err := NewConverter(Options{}).Encode(in, filepath.Join(dir, "out.wav"))
	require.ErrorIs(t, err, wav.ErrInvalidHeaderLength)
}

func TestNoWrite(t *testing.T) {
	dir := t.TempDir()
	in := writeWAV(t, filepath.Join(dir, "in.wav"), 2, 44100, 16, pcm16(1, 2))
	out := filepath.Join(dir, "out.wav")

	require.NoError(t, NewConverter(Options{NoWrite: true}).Encode(in, out))
	require.NoFileExists(t, out)
}

func TestConvertFileNaming(t *testing.T) {
	dir := t.TempDir()
	in := writeWAV(t, filepath.Join(dir, "song.wav"), 2, 44100, 16, pcm16(1, 2))

	tests := []struct {
		opts Options
		want string
	}{
		{Options{Mode: ModeDownmix, Channel: stereo.Right}, "song_right.wav"},
		{Options{Mode: ModeDownmix, Channel: stereo.MidDiff}, "song_side.wav"},
		{Options{Mode: ModeEncode}, "song_ms.wav"},
	}
	for _, tt := range tests {
		out, err := NewConverter(tt.opts).ConvertFile(in, dir)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, tt.want), out)
		require.FileExists(t, out)
	}

	_, err := NewConverter(Options{Mode: ModeMerge}).ConvertFile(in, dir)
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestProcessDirectory(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")

	writeWAV(t, filepath.Join(in, "a.wav"), 2, 44100, 16, pcm16(2, 4))
	writeWAV(t, filepath.Join(in, "sub", "b.WAV"), 2, 44100, 16, pcm16(6, 8, 10, 12))
	writeWAV(t, filepath.Join(in, "sub", "mono.wav"), 1, 44100, 16, pcm16(1))
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("skip"), 0644))

	c := NewConverter(Options{Mode: ModeDownmix, Channel: stereo.MidSum, ErrorSave: true, Workers: 3})
	summary, err := c.ProcessDirectory(in, out)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Total)
	require.Equal(t, 2, summary.Converted)
	require.Equal(t, 1, summary.Failed)

	_, payload, err := wav.ReadContainer(filepath.Join(out, "a_mid.wav"))
	require.NoError(t, err)
	require.Equal(t, pcm16(3), payload)

	_, payload, err = wav.ReadContainer(filepath.Join(out, "sub", "b_mid.wav"))
	require.NoError(t, err)
	require.Equal(t, pcm16(7, 11), payload)

	require.FileExists(t, filepath.Join(out, "sub", "errors", "mono.wav"))
	require.NoFileExists(t, filepath.Join(out, "sub", "mono_mid.wav"))
}

func TestProcessDirectorySkipsOutputTree(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "converted")
	writeWAV(t, filepath.Join(root, "a.wav"), 2, 44100, 16, pcm16(2, 4))
	writeWAV(t, filepath.Join(out, "a_ms.wav"), 1, 44100, 32, make([]byte, 4))

	summary, err := NewConverter(Options{Mode: ModeEncode}).ProcessDirectory(root, out)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Total)
	require.Equal(t, 1, summary.Converted)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"downmix": ModeDownmix, "mono": ModeDownmix,
		"merge": ModeMerge, "STEREO": ModeMerge,
		"encode": ModeEncode, "cod": ModeEncode,
		"decode": ModeDecode, "dec": ModeDecode,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
		require.NotEmpty(t, got.String())
	}

	_, err := ParseMode("reverse")
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestProcessDirectoryInPlace(t *testing.T) {
	root := t.TempDir()
	writeWAV(t, filepath.Join(root, "a.wav"), 2, 44100, 16, pcm16(2, 4))
	writeWAV(t, filepath.Join(root, "sub", "b.wav"), 2, 44100, 16, pcm16(6, 8))
	writeWAV(t, filepath.Join(root, "mono.wav"), 1, 44100, 16, pcm16(1))

	c := NewConverter(Options{Mode: ModeEncode, ErrorSave: true, Workers: 2})
	summary, err := c.ProcessDirectory(root, root)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Total)
	require.Equal(t, 2, summary.Converted)
	require.Equal(t, 1, summary.Failed)
	require.FileExists(t, filepath.Join(root, "a_ms.wav"))
	require.FileExists(t, filepath.Join(root, "sub", "b_ms.wav"))
	require.FileExists(t, filepath.Join(root, "errors", "mono.wav"))

	// A second run ignores its own results and the saved error copies.
	summary, err = c.ProcessDirectory(root, root)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Total)
	require.Equal(t, 2, summary.Converted)
	require.NoFileExists(t, filepath.Join(root, "a_ms_ms.wav"))
}
