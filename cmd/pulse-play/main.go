// ABOUTME: Entry point for pulse-play
// ABOUTME: Plays a file or test tone through a configured audio output plugin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sendspin/sendspin-pulse/internal/config"
	"github.com/Sendspin/sendspin-pulse/internal/discovery"
	"github.com/Sendspin/sendspin-pulse/internal/playback"
	"github.com/Sendspin/sendspin-pulse/internal/sinks"
	"github.com/Sendspin/sendspin-pulse/internal/source"
	"github.com/Sendspin/sendspin-pulse/internal/ui"
	"github.com/Sendspin/sendspin-pulse/internal/version"
	"github.com/Sendspin/sendspin-pulse/pkg/audio"
	"github.com/Sendspin/sendspin-pulse/pkg/audio/output"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	configPath  = flag.String("config", "", "YAML config file with audio_outputs")
	outputName  = flag.String("output", "", "Name of the audio output to use (default: first)")
	server      = flag.String("server", "", "PulseAudio server (default: PULSE_SERVER or local)")
	sink        = flag.String("sink", "", "PulseAudio sink name")
	discover    = flag.Bool("discover", false, "Find a PulseAudio server via mDNS when none is set")
	probe       = flag.Bool("probe", false, "Probe every output plugin's default device and exit")
	listPlugins = flag.Bool("list-plugins", false, "List output plugins and exit")
	listSinks   = flag.Bool("list-sinks", false, "List PulseAudio sinks (needs module-dbus-protocol) and exit")
	format      = flag.String("format", "", "Force audio format rate:bits:channels (\"*\" keeps a field)")
	toneSeconds = flag.Float64("tone-seconds", 0, "Test tone length when no file is given (0 = endless)")
	debug       = flag.Bool("debug", false, "Enable debug logging")
	logFile     = flag.String("log-file", "", "Log file path (default: from config or pulse-play.log)")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

const discoveryTimeout = 10 * time.Second

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [audio file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *listPlugins {
		for _, p := range output.Plugins() {
			fmt.Println(p.Name())
		}
		return
	}

	if *listSinks {
		os.Exit(printSinks())
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	output.SetLogger(output.NewStdLogger(*debug || cfg.Debug))

	if *probe {
		os.Exit(runProbe())
	}

	useTUI := !*noTUI

	// Set up logging
	path := cfg.LogFile
	if *logFile != "" {
		path = *logFile
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	if err := run(cfg, useTUI); err != nil {
		log.Printf("Error: %v", err)
		if useTUI {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// loadConfig reads the config file, or builds a single pulse output from flags
func loadConfig() (*config.Config, error) {
	if *configPath == "" {
		return config.Default(*server, *sink), nil
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return nil, err
	}

	// flags override the selected block
	if *server != "" || *sink != "" {
		block, err := cfg.Output(*outputName)
		if err != nil {
			return nil, err
		}
		if *server != "" {
			block.Params["server"] = *server
		}
		if *sink != "" {
			block.Params["sink"] = *sink
		}
	}
	return cfg, nil
}

// runProbe tests the default device of every plugin and reports the first
// usable one. Returns the exit code.
func runProbe() int {
	for _, p := range output.Plugins() {
		if err := p.TestDefaultDevice(); err != nil {
			fmt.Printf("%-8s unavailable: %v\n", p.Name(), err)
		} else {
			fmt.Printf("%-8s ok\n", p.Name())
		}
	}

	p, err := output.ProbeDefault()
	if err != nil {
		fmt.Printf("No usable output: %v\n", err)
		return 1
	}
	fmt.Printf("Default output: %s\n", p.Name())
	return 0
}

// printSinks lists the sinks of the local server. Returns the exit code.
func printSinks() int {
	list, err := sinks.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot list sinks: %v\n", err)
		return 1
	}
	for _, s := range list {
		marker := " "
		if s.Default {
			marker = "*"
		}
		fmt.Printf("%s %-40s %s\n", marker, s.Name, s.Description)
	}
	return 0
}

func run(cfg *config.Config, useTUI bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	block, err := cfg.Output(*outputName)
	if err != nil {
		return err
	}

	if *discover && block.Type == output.PulsePluginName && block.Params["server"] == "" {
		log.Printf("Starting server discovery...")
		lookupCtx, cancel := context.WithTimeout(ctx, discoveryTimeout)
		found, err := discovery.Lookup(lookupCtx, discovery.Config{})
		cancel()
		if err != nil {
			return err
		}
		block.Params["server"] = found.PulseServer()
		log.Printf("Discovered server %s at %s", found.Name, found.PulseServer())
	}

	forced, err := block.AudioFormat()
	if err != nil {
		return err
	}
	if *format != "" {
		flagFormat, err := audio.ParseFormat(*format)
		if err != nil {
			return err
		}
		forced = forced.Override(flagFormat)
	}

	out, desc, err := output.New(block.Block(), forced)
	if err != nil {
		return err
	}
	defer out.Finish()

	src, err := openSource(flag.Arg(0))
	if err != nil {
		return err
	}
	defer src.Close()

	log.Printf("Starting %s: output \"%s\" (%s), playing %s",
		version.String(), desc.Name(), desc.PluginName(), src.Title())

	var tuiProg *tea.Program
	if useTUI {
		var volumeCtrl *ui.VolumeControl
		if setter, ok := out.(volumeSetter); ok {
			volumeCtrl = ui.NewVolumeControl()
			go handleVolumeControl(ctx, setter, volumeCtrl)
		}

		tuiProg, err = ui.Run(ui.Info{
			Output: desc.Name(),
			Server: block.Params["server"],
			Title:  src.Title(),
		}, volumeCtrl)
		if err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}

		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()

		// quitting the TUI stops playback
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			cancel()
		}()
	}

	driver := &playback.Driver{
		Output:     out,
		Descriptor: desc,
		Source:     src,
		Forced:     forced,
		OnStatus: func(st playback.Status) {
			if tuiProg != nil {
				tuiProg.Send(ui.StatusMsg{Status: st})
			}
			if st.Err != nil && !st.Connected {
				log.Printf("Output \"%s\" not playing: %v", st.Output, st.Err)
			}
		},
	}

	err = driver.Run(ctx)
	if tuiProg != nil {
		tuiProg.Quit()
	}
	if errors.Is(err, context.Canceled) {
		log.Printf("Playback stopped")
		return nil
	}
	return err
}

func openSource(path string) (source.Source, error) {
	if path == "" && *toneSeconds > 0 {
		return source.NewTone(source.DefaultSampleRate, source.DefaultChannels, *toneSeconds), nil
	}
	return source.Open(path)
}

// volumeSetter is implemented by outputs with software volume
type volumeSetter interface {
	SetVolume(volume int)
}

// handleVolumeControl processes volume changes from TUI
func handleVolumeControl(ctx context.Context, out volumeSetter, volumeCtrl *ui.VolumeControl) {
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			log.Printf("Volume change: %d%%", vol)
			out.SetVolume(vol)
		case <-ctx.Done():
			return
		}
	}
}
