// ABOUTME: Audio type definitions
// ABOUTME: Defines the PCM sample format and sample conversion helpers
package audio

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes a PCM stream: sample rate, channel count and bit depth.
// A zero field means "unspecified" when a Format is used as an override.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// String renders the format as "rate:bits:channels", the notation used in
// configuration files. Unspecified fields render as "*".
func (f Format) String() string {
	return fmt.Sprintf("%s:%s:%s", field(f.SampleRate), field(f.BitDepth), field(f.Channels))
}

func field(v int) string {
	if v == 0 {
		return "*"
	}
	return strconv.Itoa(v)
}

// BytesPerSample returns the packed size of one sample.
func (f Format) BytesPerSample() int {
	return (f.BitDepth + 7) / 8
}

// FrameSize returns the size in bytes of one frame (one sample per channel).
func (f Format) FrameSize() int {
	return f.BytesPerSample() * f.Channels
}

// Validate checks that the format can be played.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels <= 0 || f.Channels > 32 {
		return fmt.Errorf("invalid channel count: %d", f.Channels)
	}
	switch f.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth: %d (supported: 16, 24, 32)", f.BitDepth)
	}
	return nil
}

// Override returns f with every non-zero field of o applied on top.
func (f Format) Override(o Format) Format {
	if o.SampleRate != 0 {
		f.SampleRate = o.SampleRate
	}
	if o.Channels != 0 {
		f.Channels = o.Channels
	}
	if o.BitDepth != 0 {
		f.BitDepth = o.BitDepth
	}
	return f
}

// ParseFormat parses "rate:bits:channels". Any field may be "*" to leave it
// unspecified.
func ParseFormat(s string) (Format, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Format{}, fmt.Errorf("invalid audio format %q (want rate:bits:channels)", s)
	}

	values := make([]int, 3)
	for i, p := range parts {
		if p == "*" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil || v <= 0 {
			return Format{}, fmt.Errorf("invalid audio format %q: bad field %q", s, p)
		}
		values[i] = v
	}

	f := Format{SampleRate: values[0], BitDepth: values[1], Channels: values[2]}
	if f.BitDepth != 0 && f.BitDepth != 16 && f.BitDepth != 24 && f.BitDepth != 32 {
		return Format{}, fmt.Errorf("invalid audio format %q: unsupported bit depth %d", s, f.BitDepth)
	}
	return f, nil
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit range to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// ClampTo24Bit limits a value to the 24-bit sample range.
func ClampTo24Bit(v int64) int32 {
	if v > Max24Bit {
		return Max24Bit
	}
	if v < Min24Bit {
		return Min24Bit
	}
	return int32(v)
}
