package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raglandconnor/podcite/internal/storage"
)

const (
	// ChunkSeconds is the fixed chunk length. Every timestamp offset in the
	// pipeline is derived from it, so it never varies per asset.
	ChunkSeconds = 120

	// ChunkMS is ChunkSeconds in milliseconds.
	ChunkMS = ChunkSeconds * 1000

	// maxChunks is the largest index the chunk_%03d naming scheme can hold.
	// At 2 minutes per chunk that is roughly 33 hours of audio.
	maxChunks = 999
)

// NumChunks computes how many fixed-length chunks cover durationSeconds.
// Matches ceil(duration_ms / chunk_ms) with millisecond truncation of the
// probed duration.
func NumChunks(durationSeconds float64) int {
	totalMS := int64(durationSeconds * 1000)
	return int((totalMS + ChunkMS - 1) / ChunkMS)
}

// Segmenter splits an asset into independent chunk files by running one
// ffmpeg extraction per chunk, bounded by a worker limit.
type Segmenter struct {
	ffmpegPath string
	prober     *Prober
	workers    int
	cmd        commandRunner
}

// SegmenterOption configures a Segmenter.
type SegmenterOption func(*Segmenter)

// WithSegmenterCommandRunner sets the command runner (for tests).
func WithSegmenterCommandRunner(r commandRunner) SegmenterOption {
	return func(s *Segmenter) {
		s.cmd = r
	}
}

// NewSegmenter creates a Segmenter. ffmpegPath defaults to "ffmpeg";
// workers <= 0 means one worker per CPU.
func NewSegmenter(ffmpegPath string, prober *Prober, workers int, opts ...SegmenterOption) *Segmenter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	s := &Segmenter{
		ffmpegPath: ffmpegPath,
		prober:     prober,
		workers:    workers,
		cmd:        osCommandRunner{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare probes assetPath, extracts every chunk into chunksDir in parallel
// and returns the segmentation descriptor. All-or-nothing: if any single
// extraction fails, already-written chunk files are removed and an error is
// returned, so a descriptor is never written over a partial chunk set.
func (s *Segmenter) Prepare(ctx context.Context, assetPath, chunksDir string) (*storage.ChunkMetadata, error) {
	totalSeconds, err := s.prober.Duration(ctx, assetPath)
	if err != nil {
		return nil, err
	}

	numChunks := NumChunks(totalSeconds)
	if numChunks < 1 {
		return nil, fmt.Errorf("%w: empty audio stream in %s", ErrSegmentation, assetPath)
	}
	if numChunks > maxChunks {
		return nil, fmt.Errorf("%w: %d chunks needed, max %d", ErrTooManyChunks, numChunks, maxChunks)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := 0; i < numChunks; i++ {
		i := i
		g.Go(func() error {
			return s.extractChunk(gctx, assetPath, filepath.Join(chunksDir, storage.ChunkFileName(i)), i)
		})
	}

	if err := g.Wait(); err != nil {
		s.removePartialChunks(chunksDir, numChunks)
		return nil, err
	}

	return &storage.ChunkMetadata{
		TotalChunks:          numChunks,
		ChunkDurationSeconds: ChunkSeconds,
		TotalDurationSeconds: totalSeconds,
		ChunkDurationMS:      ChunkMS,
		CreatedAt:            time.Now().UTC(),
	}, nil
}

// extractChunk writes one down-mixed, reduced-bitrate chunk file. The final
// chunk may request more duration than remains; ffmpeg truncates at
// end-of-stream, which is expected.
func (s *Segmenter) extractChunk(ctx context.Context, assetPath, chunkPath string, index int) error {
	start := float64(index) * ChunkSeconds
	args := []string{
		"-y", "-v", "error",
		"-ss", strconv.FormatFloat(start, 'f', -1, 64),
		"-t", strconv.Itoa(ChunkSeconds),
		"-i", assetPath,
		"-ac", "1",
		"-b:a", "64k",
		"-map", "0:a",
		chunkPath,
	}

	output, err := s.cmd.CombinedOutput(ctx, s.ffmpegPath, args)
	if err != nil {
		return fmt.Errorf("%w: chunk %d: %v: %s",
			ErrSegmentation, index, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// removePartialChunks deletes whatever chunk files a failed batch produced.
func (s *Segmenter) removePartialChunks(chunksDir string, numChunks int) {
	for i := 0; i < numChunks; i++ {
		_ = os.Remove(filepath.Join(chunksDir, storage.ChunkFileName(i)))
	}
}
