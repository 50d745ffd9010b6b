// Package stereo implements the sample-level transforms between mono, stereo
// and mid/side coded PCM payloads.
package stereo

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned when a payload has the wrong channel count or bit depth.
	ErrUnsupportedFormat = errors.New("stereo: unsupported format")
	// ErrMismatchedInputs is returned by Merge when the two mono inputs differ.
	ErrMismatchedInputs = errors.New("stereo: mismatched inputs")
	// ErrEmptyPayload is returned by MidSideDecode for a zero-length payload.
	ErrEmptyPayload = errors.New("stereo: empty payload")
	// ErrUnknownSelector is returned for a Selector outside the four known modes.
	ErrUnknownSelector = errors.New("stereo: unknown channel selector")
)

// Format describes the layout of a sample payload.
type Format struct {
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

func (f Format) String() string {
	return fmt.Sprintf("%d ch / %d Hz / %d bit", f.Channels, f.SampleRate, f.BitsPerSample)
}

func (f Format) require(channels, bits uint16) error {
	if f.Channels != channels || f.BitsPerSample != bits {
		return fmt.Errorf("%w: got %d channel(s) at %d bit, want %d channel(s) at %d bit",
			ErrUnsupportedFormat, f.Channels, f.BitsPerSample, channels, bits)
	}
	return nil
}

// Selector picks what a down-mix keeps from each stereo frame.
type Selector int

const (
	Left Selector = iota
	Right
	MidSum  // floor((left+right)/2)
	MidDiff // floor((left-right)/2)
)

var selectorNames = [...]string{"left", "right", "mid", "side"}

func (s Selector) String() string {
	if s < Left || s > MidDiff {
		return fmt.Sprintf("Selector(%d)", int(s))
	}
	return selectorNames[s]
}

// ParseSelector accepts a selector name (left, right, mid, side) or its
// numeric code 0-3.
func ParseSelector(v string) (Selector, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "0", "left", "l":
		return Left, nil
	case "1", "right", "r":
		return Right, nil
	case "2", "mid", "sum", "midsum":
		return MidSum, nil
	case "3", "side", "diff", "middiff":
		return MidDiff, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSelector, v)
}

// floorHalf divides by two rounding toward negative infinity.
func floorHalf(v int32) int32 {
	q := v / 2
	if v%2 != 0 && v < 0 {
		q--
	}
	return q
}

// toSigned16 reinterprets the low 16 bits of v as a two's-complement value.
func toSigned16(v uint32) int32 {
	v &= 0xFFFF
	if v >= 0x8000 {
		return int32(v) - 0x10000
	}
	return int32(v)
}

func clamp16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
