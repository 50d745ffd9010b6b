package stereo

import (
	"encoding/binary"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkFrames is the number of frames handed to one worker.
const DefaultChunkFrames = 1 << 16

// Transformer runs the per-frame transforms, splitting large payloads into
// contiguous frame ranges processed concurrently. Every range writes a
// disjoint part of the output, so the result matches sequential processing.
type Transformer struct {
	// Workers bounds concurrent ranges. Values below 2 run sequentially.
	Workers int
	// ChunkFrames is the range size; payloads not larger than it run inline.
	ChunkFrames int
}

// Default is used by the package-level functions.
var Default = Transformer{Workers: runtime.NumCPU(), ChunkFrames: DefaultChunkFrames}

func (t Transformer) each(frames int, fn func(lo, hi int)) {
	chunk := t.ChunkFrames
	if chunk <= 0 {
		chunk = DefaultChunkFrames
	}
	if t.Workers < 2 || frames <= chunk {
		fn(0, frames)
		return
	}

	var g errgroup.Group
	g.SetLimit(t.Workers)
	for lo := 0; lo < frames; lo += chunk {
		lo, hi := lo, min(lo+chunk, frames)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	// Range workers cannot fail; Wait only joins them.
	_ = g.Wait()
}

// Downmix reduces a 2-channel 16-bit payload to one channel picked by sel.
// Trailing bytes that do not form a whole frame are ignored.
func (t Transformer) Downmix(payload []byte, f Format, sel Selector) ([]byte, error) {
	if err := f.require(2, 16); err != nil {
		return nil, err
	}

	var pick func(l, r int32) int32
	switch sel {
	case Left:
		pick = func(l, _ int32) int32 { return l }
	case Right:
		pick = func(_, r int32) int32 { return r }
	case MidSum:
		pick = func(l, r int32) int32 { return floorHalf(l + r) }
	case MidDiff:
		pick = func(l, r int32) int32 { return floorHalf(l - r) }
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSelector, int(sel))
	}

	frames := len(payload) / 4
	out := make([]byte, frames*2)
	t.each(frames, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			l := int32(int16(binary.LittleEndian.Uint16(payload[i*4:])))
			r := int32(int16(binary.LittleEndian.Uint16(payload[i*4+2:])))
			binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(pick(l, r))))
		}
	})
	return out, nil
}

// Merge interleaves two mono 16-bit payloads into one stereo payload. Both
// inputs must share sample rate and byte length.
func (t Transformer) Merge(left, right []byte, lf, rf Format) ([]byte, error) {
	for _, side := range []struct {
		name string
		f    Format
	}{{"left", lf}, {"right", rf}} {
		if side.f.Channels != 1 || side.f.BitsPerSample != 16 {
			return nil, fmt.Errorf("%w: %s input is %s, want mono 16 bit", ErrMismatchedInputs, side.name, side.f)
		}
	}
	if lf.SampleRate != rf.SampleRate {
		return nil, fmt.Errorf("%w: sample rates %d and %d differ", ErrMismatchedInputs, lf.SampleRate, rf.SampleRate)
	}
	if len(left) != len(right) {
		return nil, fmt.Errorf("%w: payload sizes %d and %d differ", ErrMismatchedInputs, len(left), len(right))
	}

	samples := len(left) / 2
	out := make([]byte, samples*4)
	t.each(samples, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			copy(out[i*4:i*4+2], left[i*2:i*2+2])
			copy(out[i*4+2:i*4+4], right[i*2:i*2+2])
		}
	})
	return out, nil
}

// MidSideEncode packs each stereo frame into one 32-bit word: the semi-sum
// in the high 16 bits and the semi-difference in the low 16 bits.
func (t Transformer) MidSideEncode(payload []byte, f Format) ([]byte, error) {
	if err := f.require(2, 16); err != nil {
		return nil, err
	}

	frames := len(payload) / 4
	out := make([]byte, frames*4)
	t.each(frames, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			l := int32(int16(binary.LittleEndian.Uint16(payload[i*4:])))
			r := int32(int16(binary.LittleEndian.Uint16(payload[i*4+2:])))
			mid := floorHalf(l + r)
			side := floorHalf(l - r)
			word := uint32(uint16(mid))<<16 | uint32(side)&0xFFFF
			binary.LittleEndian.PutUint32(out[i*4:], word)
		}
	})
	return out, nil
}

// MidSideDecode expands 32-bit mid/side words back to 16-bit stereo frames.
// Reconstructed samples are clamped to the int16 range. Both the mid and the
// side field are read as signed 16-bit values so encoded negative mids decode
// back to negative samples.
func (t Transformer) MidSideDecode(payload []byte, f Format) ([]byte, error) {
	if err := f.require(1, 32); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}

	frames := len(payload) / 4
	out := make([]byte, frames*4)
	t.each(frames, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			word := binary.LittleEndian.Uint32(payload[i*4:])
			mid := toSigned16(word >> 16)
			side := toSigned16(word)
			binary.LittleEndian.PutUint16(out[i*4:], uint16(clamp16(mid+side)))
			binary.LittleEndian.PutUint16(out[i*4+2:], uint16(clamp16(mid-side)))
		}
	})
	return out, nil
}

// Downmix calls Default.Downmix.
func Downmix(payload []byte, f Format, sel Selector) ([]byte, error) {
	return Default.Downmix(payload, f, sel)
}

// Merge calls Default.Merge.
func Merge(left, right []byte, lf, rf Format) ([]byte, error) {
	return Default.Merge(left, right, lf, rf)
}

// MidSideEncode calls Default.MidSideEncode.
func MidSideEncode(payload []byte, f Format) ([]byte, error) {
	return Default.MidSideEncode(payload, f)
}

// MidSideDecode calls Default.MidSideDecode.
func MidSideDecode(payload []byte, f Format) ([]byte, error) {
	return Default.MidSideDecode(payload, f)
}
