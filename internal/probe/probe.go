// Package probe wraps ffprobe and turns its line-oriented key=value output
// into a typed MediaInfo record.
package probe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// ErrUnusableMedia marks a file whose duration or frame rate cannot be
// determined. The batch treats this as fatal.
var ErrUnusableMedia = errors.New("unusable media")

// MediaInfo is the per-file probe result. Fields other than Duration and FPS
// are best effort: a zero value means ffprobe did not report them.
type MediaInfo struct {
	Duration        int    // seconds
	FPS             int    // frames per second, rounded
	Resolution      string // "1920x1080"
	BitrateKbps     int
	VideoCodec      string
	AudioCodec      string
	AudioChannels   int
	AudioSampleRate int
	Format          string
}

// TotalFrames is the expected frame count at the source frame rate.
func (m MediaInfo) TotalFrames() int {
	return m.FPS * m.Duration
}

// FramesAt recomputes the expected frame count for an overridden frame rate.
func (m MediaInfo) FramesAt(fps int) int {
	return fps * m.Duration
}

type Prober struct {
	bin string
}

func New(bin string) *Prober {
	return &Prober{bin: bin}
}

// Probe runs ffprobe against path and parses its output.
func (p *Prober) Probe(ctx context.Context, path string) (MediaInfo, error) {
	cmd := exec.CommandContext(ctx, p.bin,
		"-v", "error",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		// A failed probe leaves duration and fps undeterminable, which is
		// the same unrecoverable condition as their absence.
		var ee *exec.ExitError
		if errors.As(err, &ee) && len(ee.Stderr) > 0 {
			return MediaInfo{}, fmt.Errorf("%w: ffprobe %s: %s", ErrUnusableMedia, path, strings.TrimSpace(string(ee.Stderr)))
		}
		return MediaInfo{}, fmt.Errorf("%w: ffprobe %s: %v", ErrUnusableMedia, path, err)
	}
	return parse(string(out))
}

// parse walks the sectioned key=value output. Stream sections are buffered and
// committed when their closing marker arrives, because codec_type shows up in
// the middle of a section, not at its start. The first video and first audio
// stream win; ffprobe lists them in container order.
func parse(out string) (MediaInfo, error) {
	var (
		info        MediaInfo
		section     map[string]string
		durationSet bool
		fpsSet      bool
	)

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "[STREAM]" || line == "[FORMAT]":
			section = make(map[string]string)
		case line == "[/STREAM]":
			switch section["codec_type"] {
			case "video":
				if info.VideoCodec == "" {
					info.VideoCodec = section["codec_name"]
					if w, h := section["width"], section["height"]; w != "" && h != "" {
						info.Resolution = w + "x" + h
					}
					if fps, ok := parseRate(section["r_frame_rate"]); ok {
						info.FPS = fps
						fpsSet = true
					}
				}
			case "audio":
				if info.AudioCodec == "" {
					info.AudioCodec = section["codec_name"]
					info.AudioChannels = atoi(section["channels"])
					info.AudioSampleRate = atoi(section["sample_rate"])
				}
			}
			section = nil
		case line == "[/FORMAT]":
			if d, ok := parseSeconds(section["duration"]); ok {
				info.Duration = d
				durationSet = true
			}
			info.Format = section["format_name"]
			info.BitrateKbps = atoi(section["bit_rate"]) / 1000
			section = nil
		default:
			if section == nil {
				continue
			}
			k, v, ok := strings.Cut(line, "=")
			if ok {
				section[k] = v
			}
		}
	}

	if !durationSet || !fpsSet {
		missing := []string{}
		if !durationSet {
			missing = append(missing, "duration")
		}
		if !fpsSet {
			missing = append(missing, "frame rate")
		}
		return MediaInfo{}, fmt.Errorf("%w: missing %s", ErrUnusableMedia, strings.Join(missing, ", "))
	}
	return info, nil
}

// parseRate handles ffprobe's fractional rates ("30000/1001") and plain
// numbers, rounding to whole fps.
func parseRate(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		if d == 0 {
			return 0, true
		}
		return int(math.Round(n / d)), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(math.Round(f)), true
}

func parseSeconds(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
