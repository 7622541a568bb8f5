package logx

import (
	"bufio"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// LineWriter turns stream output into per-line zerolog events at a given level.
// It remembers the last line it saw so a failed subprocess can be reported with
// its final complaint instead of just an exit code.
type LineWriter struct {
	logger zerolog.Logger
	level  zerolog.Level
	done   chan struct{}

	mu   sync.Mutex
	last string
}

func NewLineWriter(base zerolog.Logger, fields map[string]string, level zerolog.Level) *LineWriter {
	w := base.With()
	for k, v := range fields {
		w = w.Str(k, v)
	}
	return &LineWriter{logger: w.Logger(), level: level, done: make(chan struct{})}
}

// Pipe drains r to EOF. Call it once per LineWriter.
func (lw *LineWriter) Pipe(r io.Reader) {
	defer close(lw.done)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		lw.mu.Lock()
		lw.last = line
		lw.mu.Unlock()
		switch lw.level {
		case zerolog.DebugLevel:
			lw.logger.Debug().Msg(line)
		case zerolog.ErrorLevel:
			lw.logger.Error().Msg(line)
		default:
			lw.logger.Info().Msg(line)
		}
	}
}

// Wait blocks until Pipe has read its stream to EOF. A subprocess pipe must
// be drained this way before os/exec's Wait, which closes it.
func (lw *LineWriter) Wait() {
	<-lw.done
}

// LastLine returns the most recent line piped through, or "".
func (lw *LineWriter) LastLine() string {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.last
}
