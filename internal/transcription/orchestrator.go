package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/raglandconnor/podcite/internal/storage"
	"github.com/raglandconnor/podcite/internal/types"
)

// Orchestrator coordinates the transcription pipeline for one store: it
// ensures chunks exist, iterates requested chunks in order, invokes the
// transcription client per chunk and rewrites chunk-relative timestamps to
// episode-absolute time. Results are delivered over a channel so the HTTP
// layer can stream them and cancel early.
type Orchestrator struct {
	store     *storage.MediaStore
	cache     *storage.MetaCache
	segmenter storage.ChunkPreparer
	client    ChunkTranscriber
	log       zerolog.Logger
}

// NewOrchestrator wires the pipeline's collaborators together.
func NewOrchestrator(
	store *storage.MediaStore,
	cache *storage.MetaCache,
	segmenter storage.ChunkPreparer,
	client ChunkTranscriber,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		cache:     cache,
		segmenter: segmenter,
		client:    client,
		log:       log,
	}
}

// Info returns the segmentation descriptor for an asset, segmenting it first
// when needed. An asset that was never downloaded yields ErrAssetNotFound
// without touching the probe or the segmenter.
func (o *Orchestrator) Info(ctx context.Context, filename string) (*types.AudioInfo, error) {
	meta, err := o.cache.Read(filename)
	if err != nil {
		if !errors.Is(err, storage.ErrMetadataNotFound) {
			return nil, err
		}
		if !o.store.AssetExists(filename) {
			return nil, fmt.Errorf("%w: %s", storage.ErrAssetNotFound, filename)
		}
		meta, err = o.cache.GetOrCreate(ctx, filename, o.segmenter)
		if err != nil {
			return nil, err
		}
	}

	total, chunkSec, totalSec := meta.Info()
	return &types.AudioInfo{
		TotalChunks:          total,
		ChunkDurationSeconds: chunkSec,
		TotalDurationSeconds: totalSec,
	}, nil
}

// TranscribeRange transcribes chunks [startChunk, endChunk] of an asset and
// emits one event per chunk in ascending index order, terminated by a
// completion sentinel or a terminal failure event. The returned channel is
// closed when the producer finishes; cancelling ctx stops it promptly.
func (o *Orchestrator) TranscribeRange(ctx context.Context, filename string, startChunk, endChunk int) <-chan types.Event {
	events := make(chan types.Event)

	go func() {
		defer close(events)

		meta, err := o.cache.GetOrCreate(ctx, filename, o.segmenter)
		if err != nil {
			o.log.Error().Err(err).Str("filename", filename).Msg("chunk preparation failed")
			o.emit(ctx, events, types.StreamFailed{Error: fmt.Sprintf("failed to prepare audio chunks: %v", err)})
			return
		}

		if startChunk < 0 || endChunk >= meta.TotalChunks || startChunk > endChunk {
			o.emit(ctx, events, types.StreamFailed{
				Error: fmt.Sprintf("%v: %d-%d (total: %d)", ErrInvalidRange, startChunk, endChunk, meta.TotalChunks),
			})
			return
		}

		for i := startChunk; i <= endChunk; i++ {
			if !o.transcribeChunk(ctx, events, meta, o.store.ChunkPath(filename, i), i) {
				return
			}
		}

		o.emit(ctx, events, types.Completed())
	}()

	return events
}

// TranscribeAll transcribes every chunk of an asset without consulting the
// chunk cache: the asset is re-split into a scratch directory on every call
// and the scratch files are removed afterwards. Only sensible for small
// files; range requests should use TranscribeRange.
func (o *Orchestrator) TranscribeAll(ctx context.Context, filename string) <-chan types.Event {
	events := make(chan types.Event)

	go func() {
		defer close(events)

		if !o.store.AssetExists(filename) {
			o.emit(ctx, events, types.StreamFailed{Error: fmt.Sprintf("audio file not found: %s", filename)})
			return
		}

		workDir := filepath.Join(o.store.WorkDir(), uuid.New().String())
		if err := os.MkdirAll(workDir, 0755); err != nil {
			o.emit(ctx, events, types.StreamFailed{Error: fmt.Sprintf("failed to create work directory: %v", err)})
			return
		}
		defer os.RemoveAll(workDir)

		meta, err := o.segmenter.Prepare(ctx, o.store.AssetPath(filename), workDir)
		if err != nil {
			o.log.Error().Err(err).Str("filename", filename).Msg("whole-file split failed")
			o.emit(ctx, events, types.StreamFailed{Error: fmt.Sprintf("failed to split audio: %v", err)})
			return
		}

		for i := 0; i < meta.TotalChunks; i++ {
			if !o.transcribeChunk(ctx, events, meta, filepath.Join(workDir, storage.ChunkFileName(i)), i) {
				return
			}
		}

		o.emit(ctx, events, types.Completed())
	}()

	return events
}

// transcribeChunk handles one chunk: missing files and service errors become
// per-chunk failure events, successes get their timestamps offset by
// index * chunk duration. Returns false when the consumer has gone away.
func (o *Orchestrator) transcribeChunk(ctx context.Context, events chan<- types.Event, meta *storage.ChunkMetadata, chunkPath string, index int) bool {
	if _, err := os.Stat(chunkPath); err != nil {
		o.log.Warn().Str("chunk", chunkPath).Msg("chunk file missing, skipping")
		return o.emit(ctx, events, types.ChunkFailed{
			ChunkIndex:  index + 1,
			TotalChunks: meta.TotalChunks,
			Error:       fmt.Sprintf("%v: %s", ErrChunkMissing, chunkPath),
		})
	}

	result, err := o.client.TranscribeFile(ctx, chunkPath)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		o.log.Warn().Err(err).Int("chunk", index).Msg("chunk transcription failed")
		return o.emit(ctx, events, types.ChunkFailed{
			ChunkIndex:  index + 1,
			TotalChunks: meta.TotalChunks,
			Error:       fmt.Sprintf("failed to transcribe chunk %d: %v", index+1, err),
		})
	}

	offset := float64(index) * meta.ChunkDurationSeconds
	segments := make([]types.Segment, len(result.Segments))
	for j, seg := range result.Segments {
		segments[j] = types.Segment{
			Start: seg.Start + offset,
			End:   seg.End + offset,
			Text:  seg.Text,
		}
	}

	return o.emit(ctx, events, types.ChunkTranscribed{
		ChunkIndex:  index + 1,
		TotalChunks: meta.TotalChunks,
		Text:        result.Text,
		Segments:    segments,
	})
}

// emit delivers one event unless the consumer cancelled. Returns false once
// ctx is done so producers stop doing work nobody will read.
func (o *Orchestrator) emit(ctx context.Context, events chan<- types.Event, ev types.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
