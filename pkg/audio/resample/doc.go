// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts streamed audio between sample rates
// Package resample provides audio sample rate conversion.
//
// A Resampler is stateful: feed consecutive chunks of one stream through the
// same instance and the interpolation continues across chunk boundaries.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	out := make([]int32, r.OutputSamplesNeeded(len(in)))
//	n := r.Resample(in, out)
package resample
