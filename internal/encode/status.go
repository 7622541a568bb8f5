package encode

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// Sample is the latest progress observation from the status channel.
type Sample struct {
	Frame   int
	Bitrate string
}

// ReadLatest re-reads the whole status file and returns the last reported
// frame and bitrate. ffmpeg appends a fresh key=value block every interval,
// so the file grows for the lifetime of the job; the last occurrence wins.
// ok is false until the first frame= line lands.
func ReadLatest(path string) (Sample, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Sample{}, false
	}
	defer f.Close()

	var (
		s     Sample
		found bool
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		k, v, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch k {
		case "frame":
			if n, err := strconv.Atoi(v); err == nil {
				s.Frame = n
				found = true
			}
		case "bitrate":
			s.Bitrate = v
		}
	}
	return s, found
}
