package encode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/matryer/is"
)

func TestPercentClamps(t *testing.T) {
	is := is.New(t)
	is.Equal(Percent(0, 300), 0)
	is.Equal(Percent(150, 300), 50)
	is.Equal(Percent(300, 300), 100)
	is.Equal(Percent(999, 300), 100) // reported frames past the target
	is.Equal(Percent(10, 0), 0)     // guarded division
	is.Equal(Percent(10, -1), 0)
}

func TestRenderLineWidth(t *testing.T) {
	is := is.New(t)
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	filler := color.New(color.FgGreen)
	for _, pct := range []int{0, 37, 100} {
		line := renderLine("a.mp4", pct, "", BarWidth, filler)
		lo := strings.Index(line, "[")
		hi := strings.Index(line, "]")
		is.Equal(hi-lo-1, BarWidth) // bar interior is fixed width
	}
}

func TestRenderLineFill(t *testing.T) {
	is := is.New(t)
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	filler := color.New(color.FgGreen)
	line := renderLine("a.mp4", 50, "900.0kbits/s", BarWidth, filler)
	is.Equal(strings.Count(line, "#"), 20)
	is.Equal(strings.Count(line, "-"), 20)
	is.True(strings.Contains(line, " 50%"))
	is.True(strings.Contains(line, "900.0kbits/s"))
}

func TestBarIsMonotonic(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	b := NewBar(&buf, "a.mp4")
	b.Update(40, "")
	b.Update(10, "") // stale sample must not move the bar backwards
	is.Equal(b.percent, 40)
	b.Update(70, "")
	is.Equal(b.percent, 70)
}

func TestBarFinishPinsHundred(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	b := NewBar(&buf, "a.mp4")
	b.Update(83, "")
	b.Finish()
	is.Equal(b.percent, 100)
	out := buf.String()
	is.True(strings.Contains(out, "100%"))
	is.True(strings.HasSuffix(out, showCursor)) // cursor restored
}
