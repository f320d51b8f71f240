// ABOUTME: Audio output plugin package
// ABOUTME: Provides the Output/Plugin contract and the pulse, oto, wav and malgo plugins
// Package output provides the audio output plugins of the player.
//
// A Plugin is selected by the "type" key of an audio_output block and
// creates one Output per block. The host drives every Output as
// Open -> (Play | Cancel)* -> Close, repeatedly, then Finish.
//
// Plugins:
//   - pulse: streams to a PulseAudio server, reconnecting at most once per
//     ConnAttemptInterval after a failure
//   - oto: plays on the local sound card
//   - wav: records to the file named by the "path" parameter
//   - malgo: plays through miniaudio (built with -tags malgo)
//
// Example:
//
//	out, desc, err := output.New(&output.Block{Type: "pulse", Name: "Living room",
//		Params: map[string]string{"sink": "alsa_output.usb"}}, audio.Format{})
//	format := audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 24}
//	err = out.Open(&format) // format.BitDepth is now 16
//	err = out.Play(pcm)
//	out.Close()
//	out.Finish()
package output
