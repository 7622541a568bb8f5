package encode

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wapuda/ffbatch/internal/logx"
)

// Launcher builds ffmpeg command lines and starts them without blocking.
type Launcher struct {
	bin    string
	logger zerolog.Logger
}

func NewLauncher(bin string, logger zerolog.Logger) *Launcher {
	return &Launcher{bin: bin, logger: logger}
}

// HWAccelAvailable asks ffmpeg once per run whether any hardware acceleration
// method is compiled in and usable.
func (l *Launcher) HWAccelAvailable(ctx context.Context) bool {
	out, err := exec.CommandContext(ctx, l.bin, "-hide_banner", "-hwaccels").Output()
	if err != nil {
		return false
	}
	sc := bufio.NewScanner(strings.NewReader(string(out)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		return true
	}
	return false
}

// Start spawns ffmpeg for job and returns immediately. The returned LineWriter
// is draining stderr into the log; its last line is kept for error reporting.
func (l *Launcher) Start(ctx context.Context, job Job) (*exec.Cmd, *logx.LineWriter, error) {
	if strings.TrimSpace(job.Source) == "" {
		return nil, nil, ErrNoInput
	}

	cmd := exec.CommandContext(ctx, l.bin, buildArgs(job)...)
	lw := logx.NewLineWriter(l.logger, map[string]string{"proc": "ffmpeg", "job": job.ID}, zerolog.DebugLevel)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	go lw.Pipe(stderr)

	l.logger.Debug().Int("pid", cmd.Process.Pid).Strs("args", cmd.Args).Msg("ffmpeg started")
	return cmd, lw, nil
}

// buildArgs assembles the fixed argument shape: quiet logging, progress into
// the status channel, overwrite, optional hwaccel, input, user args verbatim,
// forced container, partial output path.
func buildArgs(job Job) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-progress", job.StatusPath,
		"-y",
	}
	if job.HWAccel {
		args = append(args, "-hwaccel", "auto")
	}
	args = append(args, "-i", job.Source)
	args = append(args, strings.Fields(job.ExtraArgs)...)
	args = append(args, "-f", job.OutputExt, job.PartialPath)
	return args
}
