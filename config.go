package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zeozeozeo/modpcm/pkg/mod"
)

type config struct {
	path        string
	output      string
	sampleRate  int
	channels    int
	instruments int
	standard    mod.Standard
	noUI        bool
	dir         string
}

// loadConfig reads the environment first and lets flags override it.
func loadConfig(args []string, getenv func(string) string, stderr io.Writer) (*config, error) {
	cfg := &config{
		sampleRate: mod.DefaultSampleRate,
		standard:   mod.NTSC,
		dir:        "./modfiles",
	}

	if v := getenv("MODPCM_SAMPLE_RATE"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("MODPCM_SAMPLE_RATE: %w", err)
		}
		cfg.sampleRate = rate
	}
	if v := getenv("MODPCM_STANDARD"); v != "" {
		cfg.standard = mod.Standard(strings.ToUpper(v))
	}
	if v := getenv("MODPCM_DIR"); v != "" {
		cfg.dir = v
	}

	fs := flag.NewFlagSet("modpcm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: modpcm [flags] [file.mod]\n\n")
		fs.PrintDefaults()
	}

	standard := string(cfg.standard)
	fs.StringVar(&cfg.output, "o", "", "write the rendering to this WAV file instead of playing it")
	fs.IntVar(&cfg.sampleRate, "rate", cfg.sampleRate, "output sample rate in Hz")
	fs.IntVar(&cfg.channels, "channels", 0, "channel count (0 detects it from the format tag)")
	fs.IntVar(&cfg.instruments, "instruments", 0, "instrument count (0 detects it)")
	fs.StringVar(&standard, "standard", standard, "Paula clock: PAL or NTSC")
	fs.BoolVar(&cfg.noUI, "no-ui", false, "play without the terminal UI")
	fs.StringVar(&cfg.dir, "dir", cfg.dir, "start directory of the file browser")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.standard = mod.Standard(strings.ToUpper(standard))
	if cfg.standard != mod.PAL && cfg.standard != mod.NTSC {
		return nil, fmt.Errorf("unknown standard %q", standard)
	}
	if cfg.sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", cfg.sampleRate)
	}
	if cfg.channels < 0 || cfg.instruments < 0 {
		return nil, fmt.Errorf("channel and instrument counts must not be negative")
	}

	if fs.NArg() > 1 {
		return nil, fmt.Errorf("expected at most one module file, got %d", fs.NArg())
	}
	cfg.path = fs.Arg(0)
	if cfg.path == "" && (cfg.noUI || cfg.output != "") {
		return nil, fmt.Errorf("a module file is required with -o or -no-ui")
	}
	return cfg, nil
}

// parseModule detects the layout and lets explicit counts override it.
func parseModule(data []byte, cfg *config) (*mod.Song, error) {
	format := mod.DetectFormat(data)
	channels, instruments := format.NumChannels, format.NumSamples
	if cfg.channels > 0 {
		channels = cfg.channels
	}
	if cfg.instruments > 0 {
		instruments = cfg.instruments
	}
	return mod.Parse(data, channels, instruments)
}
