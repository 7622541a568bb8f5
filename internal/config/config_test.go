package config

import (
	"bytes"
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestRegisterFlagsShortAndLongSpellings(t *testing.T) {
	is := is.New(t)
	c := Config{}
	fs := flag.NewFlagSet("ffbatch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	RegisterFlags(fs, &c)

	err := fs.Parse([]string{"-src", "/in", "--dst-dir", "/out", "--ffmpeg-args", "-r 30", "-ext", "mkv"})
	is.NoErr(err)
	is.Equal(c.SrcDir, "/in")
	is.Equal(c.DstDir, "/out")
	is.Equal(c.FFmpegArgs, "-r 30")
	is.Equal(c.OutputExt, "mkv")
}

func TestRegisterFlagsUnknownFlag(t *testing.T) {
	is := is.New(t)
	c := Config{}
	fs := flag.NewFlagSet("ffbatch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	RegisterFlags(fs, &c)

	err := fs.Parse([]string{"--bogus"})
	is.True(err != nil)
}

func TestPromptMissingUsesDefaults(t *testing.T) {
	is := is.New(t)
	c := Config{}
	in := strings.NewReader("\n\n\n\n")
	var out bytes.Buffer

	err := PromptMissing(in, &out, &c)
	is.NoErr(err)
	is.Equal(c.SrcDir, DefaultSrcDir)
	is.Equal(c.DstDir, DefaultSrcDir) // dst defaults to the resolved src
	is.Equal(c.FFmpegArgs, DefaultArgs)
	is.Equal(c.OutputExt, DefaultExt)

	prompts := out.String()
	is.True(strings.Contains(prompts, "["+DefaultSrcDir+"]"))
	is.True(strings.Contains(prompts, "["+DefaultArgs+"]"))
}

func TestPromptMissingReadsValues(t *testing.T) {
	is := is.New(t)
	c := Config{}
	in := strings.NewReader("/videos\n/converted\n-c:v libx265 -crf 28\n.MKV\n")
	var out bytes.Buffer

	err := PromptMissing(in, &out, &c)
	is.NoErr(err)
	is.Equal(c.SrcDir, "/videos")
	is.Equal(c.DstDir, "/converted")
	is.Equal(c.FFmpegArgs, "-c:v libx265 -crf 28")
	is.Equal(c.OutputExt, "mkv") // normalized: no dot, lowercase
}

func TestPromptMissingSkipsSetValues(t *testing.T) {
	is := is.New(t)
	c := Config{SrcDir: "/a", DstDir: "/b", FFmpegArgs: "-c copy", OutputExt: "mov"}
	in := strings.NewReader("")
	var out bytes.Buffer

	err := PromptMissing(in, &out, &c)
	is.NoErr(err)
	is.Equal(out.Len(), 0) // nothing asked
	is.Equal(c.OutputExt, "mov")
}

func TestPromptMissingEOFTakesDefault(t *testing.T) {
	is := is.New(t)
	c := Config{SrcDir: "/a", DstDir: "/b", FFmpegArgs: "-c copy"}
	in := strings.NewReader("") // stdin closed before the ext prompt
	var out bytes.Buffer

	err := PromptMissing(in, &out, &c)
	is.NoErr(err)
	is.Equal(c.OutputExt, DefaultExt)
}
