package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglandconnor/podcite/internal/storage"
)

func TestNumChunks(t *testing.T) {
	tests := []struct {
		seconds float64
		want    int
	}{
		{0.001, 1},
		{1, 1},
		{119.999, 1},
		{120, 1},
		{120.001, 2},
		{240, 2},
		{250.106667, 3},
		{359.5, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NumChunks(tt.seconds), "duration %v", tt.seconds)
	}
}

// probeThenSplit fakes both binaries: ffprobe invocations return duration,
// ffmpeg invocations write the requested output file.
func probeThenSplit(duration string) *fakeRunner {
	return &fakeRunner{fn: func(name string, args []string) ([]byte, error) {
		if name == "ffprobe" {
			return []byte(duration + "\n"), nil
		}
		out := args[len(args)-1]
		return nil, os.WriteFile(out, []byte("audio"), 0644)
	}}
}

func newTestSegmenter(runner *fakeRunner) *Segmenter {
	prober := NewProber("ffprobe", WithProberCommandRunner(runner))
	return NewSegmenter("ffmpeg", prober, 2, WithSegmenterCommandRunner(runner))
}

func TestSegmenterPrepare(t *testing.T) {
	chunksDir := t.TempDir()
	runner := probeThenSplit("250.106667")
	s := newTestSegmenter(runner)

	meta, err := s.Prepare(context.Background(), "/media/ep.mp3", chunksDir)
	require.NoError(t, err)
	assert.Equal(t, 3, meta.TotalChunks)
	assert.Equal(t, 120.0, meta.ChunkDurationSeconds)
	assert.InDelta(t, 250.106667, meta.TotalDurationSeconds, 1e-9)
	assert.Equal(t, 120000, meta.ChunkDurationMS)
	assert.False(t, meta.CreatedAt.IsZero())

	for i := 0; i < 3; i++ {
		assert.FileExists(t, filepath.Join(chunksDir, storage.ChunkFileName(i)))
	}

	// One probe plus one extraction per chunk, each seeking to its offset.
	starts := map[string]bool{}
	for _, call := range runner.calls {
		if call[0] != "ffmpeg" {
			continue
		}
		for j, arg := range call {
			if arg == "-ss" {
				starts[call[j+1]] = true
			}
		}
		assert.Contains(t, call, "-ac")
		assert.Contains(t, call, "64k")
	}
	assert.Equal(t, map[string]bool{"0": true, "120": true, "240": true}, starts)
}

func TestSegmenterPrepareExtractionFailure(t *testing.T) {
	chunksDir := t.TempDir()
	runner := &fakeRunner{}
	runner.fn = func(name string, args []string) ([]byte, error) {
		if name == "ffprobe" {
			return []byte("250\n"), nil
		}
		out := args[len(args)-1]
		if strings.HasSuffix(out, "chunk_001.mp3") {
			return []byte("Invalid data found when processing input"), errors.New("exit status 1")
		}
		return nil, os.WriteFile(out, []byte("audio"), 0644)
	}
	s := newTestSegmenter(runner)

	_, err := s.Prepare(context.Background(), "/media/ep.mp3", chunksDir)
	assert.ErrorIs(t, err, ErrSegmentation)

	// No partial chunk set survives a failed batch.
	entries, readErr := os.ReadDir(chunksDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestSegmenterPrepareProbeFailure(t *testing.T) {
	runner := &fakeRunner{fn: func(name string, args []string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}}
	s := newTestSegmenter(runner)

	_, err := s.Prepare(context.Background(), "/media/ep.mp3", t.TempDir())
	assert.ErrorIs(t, err, ErrProbe)
	assert.Equal(t, 1, runner.callCount())
}

func TestSegmenterPrepareTooLong(t *testing.T) {
	// Just over the 999-chunk naming ceiling.
	runner := probeThenSplit("120000")
	s := newTestSegmenter(runner)

	_, err := s.Prepare(context.Background(), "/media/ep.mp3", t.TempDir())
	assert.ErrorIs(t, err, ErrTooManyChunks)
}
