package config

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Defaults stated in the interactive prompts.
const (
	DefaultSrcDir = "."
	DefaultArgs   = "-c:v libx264 -crf 23 -c:a copy"
	DefaultExt    = "mp4"
)

type Config struct {
	SrcDir     string
	DstDir     string
	FFmpegArgs string
	OutputExt  string

	PollInterval time.Duration
	TmpDir       string
	FFmpegBin    string
	FFprobeBin   string
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

// FromEnv builds the runtime knobs that are never prompted for.
// The four user-facing values stay empty here; flags and prompts fill them.
func FromEnv() Config {
	return Config{
		SrcDir:       os.Getenv("FFBATCH_SRC_DIR"),
		DstDir:       os.Getenv("FFBATCH_DST_DIR"),
		FFmpegArgs:   os.Getenv("FFBATCH_ARGS"),
		OutputExt:    os.Getenv("FFBATCH_EXT"),
		PollInterval: mustDuration("FFBATCH_POLL_INTERVAL", 300*time.Millisecond),
		TmpDir:       getenv("FFBATCH_TMP_DIR", filepath.Join(os.TempDir(), "ffbatch")),
		FFmpegBin:    getenv("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:   getenv("FFPROBE_BIN", "ffprobe"),
	}
}

// RegisterFlags binds the short and long spellings onto the same fields, so
// -src and --src-dir are interchangeable. Flag values override env values.
func RegisterFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.SrcDir, "src", c.SrcDir, "source directory with input videos")
	fs.StringVar(&c.SrcDir, "src-dir", c.SrcDir, "source directory with input videos")
	fs.StringVar(&c.DstDir, "dst", c.DstDir, "destination directory for converted videos")
	fs.StringVar(&c.DstDir, "dst-dir", c.DstDir, "destination directory for converted videos")
	fs.StringVar(&c.FFmpegArgs, "args", c.FFmpegArgs, "ffmpeg arguments applied to every file")
	fs.StringVar(&c.FFmpegArgs, "ffmpeg-args", c.FFmpegArgs, "ffmpeg arguments applied to every file")
	fs.StringVar(&c.OutputExt, "ext", c.OutputExt, "output container extension")
	fs.StringVar(&c.OutputExt, "ffmpeg-file-ext", c.OutputExt, "output container extension")
}

// PromptMissing asks for any value still unset after env + flags, offering the
// stated default when the user just hits enter.
func PromptMissing(r io.Reader, w io.Writer, c *Config) error {
	br := bufio.NewReader(r)
	var err error
	if c.SrcDir == "" {
		c.SrcDir, err = ask(br, w, "Source directory", DefaultSrcDir)
		if err != nil {
			return err
		}
	}
	if c.DstDir == "" {
		c.DstDir, err = ask(br, w, "Destination directory", c.SrcDir)
		if err != nil {
			return err
		}
	}
	if c.FFmpegArgs == "" {
		c.FFmpegArgs, err = ask(br, w, "ffmpeg arguments", DefaultArgs)
		if err != nil {
			return err
		}
	}
	if c.OutputExt == "" {
		c.OutputExt, err = ask(br, w, "Output extension", DefaultExt)
		if err != nil {
			return err
		}
	}
	c.OutputExt = strings.ToLower(strings.TrimPrefix(c.OutputExt, "."))
	return nil
}

func ask(br *bufio.Reader, w io.Writer, label, def string) (string, error) {
	fmt.Fprintf(w, "%s [%s]: ", label, def)
	line, err := br.ReadString('\n')
	if err != nil && line == "" {
		// EOF on stdin: take the default rather than failing the run.
		return def, nil
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}
