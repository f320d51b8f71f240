// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines the PCM Format type and sample conversion functions
// Package audio provides the PCM types shared by outputs, sources and the
// playback driver.
//
// Samples travel through the driver as int32 values in 24-bit range and are
// packed to the negotiated bit depth right before they reach an output.
//
// Example:
//
//	format, err := audio.ParseFormat("48000:16:2")
//	frame := format.FrameSize() // 4 bytes
//
//	// Convert a 16-bit sample to 24-bit range
//	sample24 := audio.SampleFromInt16(sample16)
package audio
