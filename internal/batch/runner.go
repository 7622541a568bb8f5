// Package batch drives the sequential conversion run: enumerate candidates,
// probe, encode with live progress, finalize outputs.
package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/wapuda/ffbatch/internal/config"
	"github.com/wapuda/ffbatch/internal/encode"
	"github.com/wapuda/ffbatch/internal/logx"
	"github.com/wapuda/ffbatch/internal/probe"
)

// InputExts is the fixed set of container types picked up from the source
// directory.
var InputExts = []string{"mp4", "mkv", "avi", "mov"}

// OutputSuffix is appended to the stem of every converted file.
const OutputSuffix = "_NEW"

// ErrNoInputFiles means the source directory holds nothing convertible.
var ErrNoInputFiles = errors.New("no matching input files")

var errZeroFrames = errors.New("cannot compute total frames")

var rateOverride = regexp.MustCompile(`(?:^|\s)-r\s+(\d+)(?:\s|$)`)

// Prober yields per-file metadata before encoding.
type Prober interface {
	Probe(ctx context.Context, path string) (probe.MediaInfo, error)
}

// Encoder converts exactly one file, blocking until its process exits.
type Encoder interface {
	HWAccelAvailable(ctx context.Context) bool
	Encode(ctx context.Context, job encode.Job) error
}

// Summary is the run's final accounting.
type Summary struct {
	Converted int
	Skipped   int
	Failed    int
}

type Runner struct {
	cfg    config.Config
	prober Prober
	enc    Encoder
	logger zerolog.Logger
	runID  string
}

func New(cfg config.Config, prober Prober, enc Encoder, logger zerolog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		prober: prober,
		enc:    enc,
		logger: logger,
		runID:  newULID(),
	}
}

// RunID is the ulid stamped on this run's log lines.
func (r *Runner) RunID() string {
	return r.runID
}

func newULID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Run processes every candidate file sequentially. Job-level failures are
// logged and counted but do not stop the batch; probe failures, an empty
// input path, and cancellation abort the whole run.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	st, err := os.Stat(r.cfg.SrcDir)
	if err != nil || !st.IsDir() {
		return sum, fmt.Errorf("source directory %q does not exist", r.cfg.SrcDir)
	}
	if err := os.MkdirAll(r.cfg.DstDir, 0o755); err != nil {
		return sum, fmt.Errorf("destination directory: %w", err)
	}
	if err := os.MkdirAll(r.cfg.TmpDir, 0o700); err != nil {
		return sum, fmt.Errorf("temp directory: %w", err)
	}

	candidates, err := r.collect()
	if err != nil {
		return sum, err
	}
	if len(candidates) == 0 {
		return sum, fmt.Errorf("%w under %s", ErrNoInputFiles, r.cfg.SrcDir)
	}

	hw := r.enc.HWAccelAvailable(ctx)
	logger := r.logger.With().Str("run", r.runID).Logger()
	logger.Info().Int("files", len(candidates)).Bool("hwaccel", hw).Msg("starting batch")

	// One status channel per run, owned exclusively by the current job and
	// truncated before each launch. Removed on every termination path.
	statusPath := filepath.Join(r.cfg.TmpDir, fmt.Sprintf("ffbatch-%d.progress", os.Getpid()))
	defer os.Remove(statusPath)

	for _, src := range candidates {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		final := r.finalPath(src)
		if _, err := os.Stat(final); err == nil {
			logger.Warn().Str("src", src).Str("output", final).Msg("output exists, skipping")
			sum.Skipped++
			continue
		}

		err := r.runJob(ctx, logger, src, final, hw, statusPath)
		switch {
		case err == nil:
			sum.Converted++
		case errors.Is(err, probe.ErrUnusableMedia),
			errors.Is(err, encode.ErrNoInput),
			errors.Is(err, context.Canceled):
			return sum, err
		default:
			// A failed encode leaves its .partial behind and the batch moves on.
			logger.Error().Err(err).Str("src", src).Msg("conversion failed")
			sum.Failed++
		}
	}

	logger.Info().
		Int("converted", sum.Converted).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Msg("batch finished")
	return sum, nil
}

func (r *Runner) runJob(ctx context.Context, logger zerolog.Logger, src, final string, hw bool, statusPath string) error {
	jobID := newULID()
	log := logx.WithJob(logger, jobID, src)
	start := time.Now()

	info, err := r.prober.Probe(ctx, src)
	if err != nil {
		// Unusable metadata aborts the whole batch; see Run.
		return err
	}

	fps := info.FPS
	if o, ok := FrameRateOverride(r.cfg.FFmpegArgs); ok {
		fps = o
	}
	total := info.FramesAt(fps)
	if total <= 0 {
		return fmt.Errorf("%w for %s: fps=%d duration=%ds", errZeroFrames, src, fps, info.Duration)
	}

	if err := resetStatusFile(statusPath); err != nil {
		return err
	}
	defer os.Remove(statusPath)

	job := encode.Job{
		ID:          jobID,
		Source:      src,
		FinalPath:   final,
		PartialPath: final + ".partial",
		ExtraArgs:   r.cfg.FFmpegArgs,
		OutputExt:   r.cfg.OutputExt,
		HWAccel:     hw,
		TotalFrames: total,
		StatusPath:  statusPath,
	}

	log.Info().
		Str("resolution", info.Resolution).
		Str("vcodec", info.VideoCodec).
		Str("acodec", info.AudioCodec).
		Int("duration_s", info.Duration).
		Int("fps", fps).
		Int("total_frames", total).
		Msg("converting")

	if err := r.enc.Encode(ctx, job); err != nil {
		return err
	}
	if err := os.Rename(job.PartialPath, job.FinalPath); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}

	size := int64(0)
	if fi, err := os.Stat(job.FinalPath); err == nil {
		size = fi.Size()
	}
	log.Info().
		Dur("took", time.Since(start)).
		Int64("bytes", size).
		Str("output", job.FinalPath).
		Msg("converted")
	return nil
}

// collect globs the source directory once per supported extension, in a
// stable order.
func (r *Runner) collect() ([]string, error) {
	var out []string
	for _, ext := range InputExts {
		matches, err := filepath.Glob(filepath.Join(r.cfg.SrcDir, "*."+ext))
		if err != nil {
			return nil, fmt.Errorf("glob *.%s: %w", ext, err)
		}
		out = append(out, matches...)
	}
	return out, nil
}

func (r *Runner) finalPath(src string) string {
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(r.cfg.DstDir, stem+OutputSuffix+"."+r.cfg.OutputExt)
}

// resetStatusFile truncates or creates the status channel with restrictive
// permissions so nothing leaks between jobs.
func resetStatusFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("status channel: %w", err)
	}
	return f.Close()
}

// FrameRateOverride extracts an explicit "-r N" from the user's ffmpeg
// arguments; it takes precedence over the probed source frame rate when
// computing the total frame target.
func FrameRateOverride(args string) (int, bool) {
	m := rateOverride.FindStringSubmatch(args)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
