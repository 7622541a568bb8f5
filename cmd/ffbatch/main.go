package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/wapuda/ffbatch/internal/batch"
	"github.com/wapuda/ffbatch/internal/config"
	"github.com/wapuda/ffbatch/internal/encode"
	"github.com/wapuda/ffbatch/internal/logx"
	"github.com/wapuda/ffbatch/internal/probe"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitNoInput = 127
)

// version is stamped by the release build via -ldflags.
var version = "dev"

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(fs.Output(), `ffbatch converts every video in a directory through ffmpeg, one file at a
time, with a live progress bar.

Usage:
  ffbatch [-src|--src-dir <dir>] [-dst|--dst-dir <dir>]
          [-args|--ffmpeg-args <string>] [-ext|--ffmpeg-file-ext <ext>]

Missing values are prompted for interactively. Inputs: *.mp4 *.mkv *.avi
*.mov. Outputs are written as <stem>%s.<ext>, via a .partial file that is
renamed only after ffmpeg exits cleanly.

Flags:
`, batch.OutputSuffix)
		fs.PrintDefaults()
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	logger := logx.Setup(logx.FromEnv("ffbatch"))

	cfg := config.FromEnv()
	fs := flag.NewFlagSet("ffbatch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = usage(fs)
	config.RegisterFlags(fs, &cfg)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument %q\n", fs.Arg(0))
		fs.Usage()
		return exitFailure
	}
	if err := config.PromptMissing(os.Stdin, os.Stderr, &cfg); err != nil {
		log.Error().Err(err).Msg("reading input")
		return exitFailure
	}

	// Both external commands must be present before any job starts.
	for _, bin := range []string{cfg.FFmpegBin, cfg.FFprobeBin} {
		if _, err := exec.LookPath(bin); err != nil {
			log.Error().Str("bin", bin).Msg("required command not found in PATH")
			return exitFailure
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := batch.New(
		cfg,
		probe.New(cfg.FFprobeBin),
		encode.New(cfg.FFmpegBin, cfg.PollInterval, os.Stdout, logger),
		logger,
	)
	log.Debug().
		Str("run", runner.RunID()).
		Str("version", version).
		Str("go", runtime.Version()).
		Str("src", cfg.SrcDir).
		Str("dst", cfg.DstDir).
		Msg("build info")

	// Per-job encoder failures are logged inside the runner and do not
	// change the overall exit code; only run-fatal conditions do.
	_, err := runner.Run(ctx)
	switch {
	case errors.Is(err, encode.ErrNoInput):
		log.Error().Err(err).Msg("aborting")
		return exitNoInput
	case errors.Is(err, context.Canceled):
		log.Error().Msg("interrupted")
		return exitFailure
	case err != nil:
		log.Error().Err(err).Msg("aborting")
		return exitFailure
	}
	return exitOK
}
