//go:build !pulsesimple

// ABOUTME: Default PulseAudio connection library selection
// ABOUTME: Uses the pure-Go native protocol client unless built with -tags pulsesimple
package output

func defaultPulseDialer() PulseDialer {
	return NativePulseDialer{}
}
