package encode

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// BarWidth is the character width of the bar's filled region.
const BarWidth = 40

const (
	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
)

// Percent converts a frame count into a clamped percentage. A non-positive
// total never reaches the renderer in practice (the batch fails such jobs
// first), but the division is still guarded.
func Percent(frame, total int) int {
	if total <= 0 {
		return 0
	}
	p := frame * 100 / total
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Bar renders a fixed-width progress bar in place on a single terminal line.
// Reported progress is monotonic: a sample below the high-water mark keeps
// the previous percentage.
type Bar struct {
	out     io.Writer
	label   string
	percent int
	filler  *color.Color
}

func NewBar(out io.Writer, label string) *Bar {
	return &Bar{
		out:    out,
		label:  label,
		filler: color.New(color.FgGreen),
	}
}

// Start hides the cursor for the duration of the job.
func (b *Bar) Start() {
	fmt.Fprint(b.out, hideCursor)
	b.redraw("")
}

// Update advances the bar. Percent below the current mark is ignored.
func (b *Bar) Update(percent int, bitrate string) {
	if percent > b.percent {
		b.percent = percent
	}
	b.redraw(bitrate)
}

// Finish pins the bar at 100%, terminates the line, and restores the cursor.
func (b *Bar) Finish() {
	b.percent = 100
	b.redraw("")
	fmt.Fprint(b.out, "\n")
	b.Restore()
}

// Restore re-shows the cursor without touching the bar. Called on every
// termination path, including interrupt.
func (b *Bar) Restore() {
	fmt.Fprint(b.out, showCursor)
}

func (b *Bar) redraw(bitrate string) {
	fmt.Fprint(b.out, "\r", renderLine(b.label, b.percent, bitrate, BarWidth, b.filler))
}

// renderLine is the pure formatting step, split out for tests.
func renderLine(label string, percent int, bitrate string, width int, filler *color.Color) string {
	filled := width * percent / 100
	bar := filler.Sprint(strings.Repeat("#", filled)) + strings.Repeat("-", width-filled)
	line := fmt.Sprintf("%s [%s] %3d%%", label, bar, percent)
	if bitrate != "" {
		line += " " + bitrate
	}
	// Pad so a shrinking tail (e.g. bitrate disappearing) leaves no residue.
	return line + "   "
}
