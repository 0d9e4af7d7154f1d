package media

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records each invocation and delegates to fn.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fn    func(name string, args []string) ([]byte, error)
}

func (f *fakeRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fn(name, args)
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestProberDuration(t *testing.T) {
	runner := &fakeRunner{fn: func(name string, args []string) ([]byte, error) {
		return []byte("250.106667\n"), nil
	}}
	p := NewProber("ffprobe", WithProberCommandRunner(runner))

	seconds, err := p.Duration(context.Background(), "/media/ep.mp3")
	require.NoError(t, err)
	assert.InDelta(t, 250.106667, seconds, 1e-9)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{
		"ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"/media/ep.mp3",
	}, runner.calls[0])
}

func TestProberCommandFailure(t *testing.T) {
	runner := &fakeRunner{fn: func(name string, args []string) ([]byte, error) {
		return []byte("ep.mp3: No such file or directory"), errors.New("exit status 1")
	}}
	p := NewProber("", WithProberCommandRunner(runner))

	_, err := p.Duration(context.Background(), "/media/ep.mp3")
	assert.ErrorIs(t, err, ErrProbe)
	assert.Contains(t, err.Error(), "No such file or directory")
}

func TestProberUnparseableOutput(t *testing.T) {
	runner := &fakeRunner{fn: func(name string, args []string) ([]byte, error) {
		return []byte("N/A\n"), nil
	}}
	p := NewProber("", WithProberCommandRunner(runner))

	_, err := p.Duration(context.Background(), "/media/ep.mp3")
	assert.ErrorIs(t, err, ErrProbe)
}

func TestProberZeroDuration(t *testing.T) {
	runner := &fakeRunner{fn: func(name string, args []string) ([]byte, error) {
		return []byte("0.000000\n"), nil
	}}
	p := NewProber("", WithProberCommandRunner(runner))

	_, err := p.Duration(context.Background(), "/media/ep.mp3")
	assert.ErrorIs(t, err, ErrProbe)
}
