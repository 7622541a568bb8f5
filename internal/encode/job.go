// Package encode launches ffmpeg for a single job and follows its progress
// through the status channel file until the process exits.
package encode

import (
	"errors"
	"path/filepath"
)

// ErrNoInput is the "no input file or URL" condition; the CLI maps it to
// exit code 127.
var ErrNoInput = errors.New("no input file or URL")

// Job carries everything one encoder invocation needs. It is built per file
// by the batch runner and owns exactly one external process while it runs.
type Job struct {
	ID          string // run-scoped ulid, logging only
	Source      string
	PartialPath string
	FinalPath   string
	ExtraArgs   string // user-supplied ffmpeg arguments, spliced verbatim
	OutputExt   string // forced container format
	HWAccel     bool
	TotalFrames int
	StatusPath  string
}

// Label is the short name shown next to the progress bar.
func (j Job) Label() string {
	return filepath.Base(j.Source)
}
