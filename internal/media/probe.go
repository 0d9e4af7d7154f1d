package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Prober reports the container duration of an audio file using ffprobe,
// without decoding the audio into memory.
type Prober struct {
	ffprobePath string
	cmd         commandRunner
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithProberCommandRunner sets the command runner (for tests).
func WithProberCommandRunner(r commandRunner) ProberOption {
	return func(p *Prober) {
		p.cmd = r
	}
}

// NewProber creates a Prober. ffprobePath defaults to "ffprobe".
func NewProber(ffprobePath string, opts ...ProberOption) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	p := &Prober{
		ffprobePath: ffprobePath,
		cmd:         osCommandRunner{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Duration returns the total duration of the file at path in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	output, err := p.cmd.CombinedOutput(ctx, p.ffprobePath, args)
	if err != nil {
		return 0, fmt.Errorf("%w: %v: %s", ErrProbe, err, strings.TrimSpace(string(output)))
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable ffprobe output %q", ErrProbe, strings.TrimSpace(string(output)))
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("%w: non-positive duration %v", ErrProbe, seconds)
	}
	return seconds, nil
}
