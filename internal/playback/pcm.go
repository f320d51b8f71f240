// ABOUTME: PCM encoding and channel mapping helpers
// ABOUTME: Converts 24-bit range samples to little-endian bytes at a given depth
package playback

import (
	"encoding/binary"

	"github.com/Sendspin/sendspin-pulse/pkg/audio"
)

// EncodePCM encodes samples (24-bit range) as little-endian PCM at bitDepth.
// Unknown depths encode as 16-bit.
func EncodePCM(samples []int32, bitDepth int) []byte {
	switch bitDepth {
	case 24:
		out := make([]byte, len(samples)*3)
		for i, s := range samples {
			b := audio.SampleTo24Bit(s)
			copy(out[i*3:], b[:])
		}
		return out
	case 32:
		out := make([]byte, len(samples)*4)
		for i, s := range samples {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(s<<8))
		}
		return out
	default:
		out := make([]byte, len(samples)*2)
		for i, s := range samples {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(audio.SampleToInt16(s)))
		}
		return out
	}
}

// RemapChannels converts interleaved samples between channel counts. Mono
// output averages all inputs; otherwise output channel c takes input channel
// c modulo the input count.
func RemapChannels(samples []int32, from, to int) []int32 {
	if from == to || from <= 0 || to <= 0 {
		return samples
	}

	frames := len(samples) / from
	out := make([]int32, frames*to)
	for f := 0; f < frames; f++ {
		in := samples[f*from : (f+1)*from]
		if to == 1 {
			var sum int64
			for _, s := range in {
				sum += int64(s)
			}
			out[f] = int32(sum / int64(from))
			continue
		}
		for c := 0; c < to; c++ {
			out[f*to+c] = in[c%from]
		}
	}
	return out
}
