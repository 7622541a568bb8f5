package encode

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/wapuda/ffbatch/internal/logx"
)

// Encoder runs one job end to end: launch ffmpeg, poll the status channel on
// a fixed tick, drive the bar, and collect the exit status.
type Encoder struct {
	launcher *Launcher
	interval time.Duration
	out      io.Writer
	logger   zerolog.Logger
}

func New(bin string, interval time.Duration, out io.Writer, logger zerolog.Logger) *Encoder {
	return &Encoder{
		launcher: NewLauncher(bin, logger),
		interval: interval,
		out:      out,
		logger:   logger,
	}
}

// HWAccelAvailable reports whether ffmpeg offers hardware acceleration.
// Queried once per run by the batch.
func (e *Encoder) HWAccelAvailable(ctx context.Context) bool {
	return e.launcher.HWAccelAvailable(ctx)
}

// Encode blocks until the job's ffmpeg process exits. A cancelled context
// kills the process; that surfaces as ctx.Err(). Any non-zero exit is
// returned with ffmpeg's last stderr line attached.
func (e *Encoder) Encode(ctx context.Context, job Job) error {
	cmd, stderr, err := e.launcher.Start(ctx, job)
	if err != nil {
		return err
	}

	// The waiter goroutine is the only other concurrency in the program: it
	// turns process exit into a channel receive the poll loop selects on.
	// It drains stderr to EOF first; cmd.Wait closes the pipe, so waiting
	// while the LineWriter still reads would drop ffmpeg's final lines.
	exited := make(chan error, 1)
	go func() {
		stderr.Wait()
		exited <- cmd.Wait()
	}()

	return e.monitor(ctx, job, exited, stderr)
}

// monitor drives the bar from the status channel until the process exit
// lands on exited. The cursor is restored on every way out.
func (e *Encoder) monitor(ctx context.Context, job Job, exited <-chan error, stderr *logx.LineWriter) error {
	bar := NewBar(e.out, job.Label())
	bar.Start()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case err := <-exited:
			if ctx.Err() != nil {
				bar.Restore()
				fmt.Fprintln(e.out)
				return ctx.Err()
			}
			if err != nil {
				bar.Restore()
				fmt.Fprintln(e.out)
				if last := stderr.LastLine(); last != "" {
					return fmt.Errorf("ffmpeg failed: %w: %s", err, last)
				}
				return fmt.Errorf("ffmpeg failed: %w", err)
			}
			bar.Finish()
			return nil
		case <-ticker.C:
			if s, ok := ReadLatest(job.StatusPath); ok {
				bar.Update(Percent(s.Frame, job.TotalFrames), s.Bitrate)
			}
		}
	}
}
