package probe

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

const sampleOutput = `[STREAM]
index=0
codec_name=h264
codec_type=video
width=1920
height=1080
r_frame_rate=30000/1001
[/STREAM]
[STREAM]
index=1
codec_name=aac
codec_type=audio
sample_rate=48000
channels=2
[/STREAM]
[FORMAT]
filename=a.mp4
format_name=mov,mp4,m4a,3gp,3g2,mj2
duration=10.500000
bit_rate=1200000
[/FORMAT]
`

func TestParseFullOutput(t *testing.T) {
	is := is.New(t)
	info, err := parse(sampleOutput)
	is.NoErr(err)
	is.Equal(info.Duration, 10)
	is.Equal(info.FPS, 30) // 30000/1001 rounds to 30
	is.Equal(info.Resolution, "1920x1080")
	is.Equal(info.VideoCodec, "h264")
	is.Equal(info.AudioCodec, "aac")
	is.Equal(info.AudioChannels, 2)
	is.Equal(info.AudioSampleRate, 48000)
	is.Equal(info.BitrateKbps, 1200)
	is.Equal(info.Format, "mov,mp4,m4a,3gp,3g2,mj2")
	is.Equal(info.TotalFrames(), 300)
	is.Equal(info.FramesAt(60), 600)
}

func TestParseFirstVideoStreamWins(t *testing.T) {
	is := is.New(t)
	out := `[STREAM]
codec_name=h264
codec_type=video
width=1280
height=720
r_frame_rate=25/1
[/STREAM]
[STREAM]
codec_name=mjpeg
codec_type=video
width=640
height=360
r_frame_rate=90000/1
[/STREAM]
[FORMAT]
duration=8.0
[/FORMAT]
`
	info, err := parse(out)
	is.NoErr(err)
	is.Equal(info.FPS, 25)
	is.Equal(info.Resolution, "1280x720")
}

func TestParseToleratesMissingAudio(t *testing.T) {
	is := is.New(t)
	out := `[STREAM]
codec_name=vp9
codec_type=video
r_frame_rate=24/1
[/STREAM]
[FORMAT]
duration=60.2
[/FORMAT]
`
	info, err := parse(out)
	is.NoErr(err)
	is.Equal(info.AudioCodec, "")
	is.Equal(info.AudioChannels, 0)
	is.Equal(info.Resolution, "") // width/height absent, not an error
	is.Equal(info.Duration, 60)
	is.Equal(info.FPS, 24)
}

func TestParseMissingDurationIsUnusable(t *testing.T) {
	is := is.New(t)
	out := `[STREAM]
codec_name=h264
codec_type=video
r_frame_rate=30/1
[/STREAM]
[FORMAT]
duration=N/A
[/FORMAT]
`
	_, err := parse(out)
	is.True(errors.Is(err, ErrUnusableMedia))
}

func TestParseMissingFrameRateIsUnusable(t *testing.T) {
	is := is.New(t)
	out := `[STREAM]
codec_name=h264
codec_type=video
[/STREAM]
[FORMAT]
duration=5.0
[/FORMAT]
`
	_, err := parse(out)
	is.True(errors.Is(err, ErrUnusableMedia))
}

func TestParseZeroValuesArePresent(t *testing.T) {
	// Zero duration or a 0/0 frame rate parses fine; rejecting the
	// resulting zero frame target is the batch runner's call.
	is := is.New(t)
	out := `[STREAM]
codec_name=h264
codec_type=video
r_frame_rate=0/0
[/STREAM]
[FORMAT]
duration=0.0
[/FORMAT]
`
	info, err := parse(out)
	is.NoErr(err)
	is.Equal(info.FPS, 0)
	is.Equal(info.Duration, 0)
	is.Equal(info.TotalFrames(), 0)
}

func TestParseRate(t *testing.T) {
	is := is.New(t)
	for _, tc := range []struct {
		in  string
		fps int
		ok  bool
	}{
		{"30000/1001", 30, true},
		{"25/1", 25, true},
		{"23.976", 24, true},
		{"0/0", 0, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	} {
		fps, ok := parseRate(tc.in)
		is.Equal(ok, tc.ok) // input: tc.in
		is.Equal(fps, tc.fps)
	}
}
