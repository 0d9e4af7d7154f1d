package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingPreparer fakes segmentation: it writes n chunk files into
// chunksDir and counts invocations.
type countingPreparer struct {
	mu    sync.Mutex
	calls int
	meta  ChunkMetadata
	err   error
}

func (p *countingPreparer) Prepare(ctx context.Context, assetPath, chunksDir string) (*ChunkMetadata, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	for i := 0; i < p.meta.TotalChunks; i++ {
		if err := os.WriteFile(filepath.Join(chunksDir, ChunkFileName(i)), []byte("audio"), 0644); err != nil {
			return nil, err
		}
	}
	meta := p.meta
	return &meta, nil
}

func (p *countingPreparer) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func testMeta(totalChunks int, totalSeconds float64) ChunkMetadata {
	return ChunkMetadata{
		TotalChunks:          totalChunks,
		ChunkDurationSeconds: 120,
		TotalDurationSeconds: totalSeconds,
		ChunkDurationMS:      120000,
		CreatedAt:            time.Now().UTC(),
	}
}

func TestMetaCacheReadWriteRoundtrip(t *testing.T) {
	store := newTestStore(t)
	cache := NewMetaCache(store)

	meta := testMeta(3, 250)
	require.NoError(t, cache.Write("ep.mp3", &meta))

	got, err := cache.Read("ep.mp3")
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalChunks)
	assert.Equal(t, 120.0, got.ChunkDurationSeconds)
	assert.Equal(t, 250.0, got.TotalDurationSeconds)
	assert.Equal(t, 120000, got.ChunkDurationMS)
}

func TestMetaCacheReadMissing(t *testing.T) {
	store := newTestStore(t)
	cache := NewMetaCache(store)

	_, err := cache.Read("ghost.mp3")
	assert.ErrorIs(t, err, ErrMetadataNotFound)
}

func TestGetOrCreateSegmentsOnce(t *testing.T) {
	store := newTestStore(t)
	cache := NewMetaCache(store)
	require.NoError(t, os.WriteFile(store.AssetPath("ep.mp3"), []byte("x"), 0644))

	prep := &countingPreparer{meta: testMeta(2, 130)}

	first, err := cache.GetOrCreate(context.Background(), "ep.mp3", prep)
	require.NoError(t, err)
	assert.Equal(t, 1, prep.callCount())

	// Second call hits the cache; the preparer must not run again.
	second, err := cache.GetOrCreate(context.Background(), "ep.mp3", prep)
	require.NoError(t, err)
	assert.Equal(t, 1, prep.callCount())
	assert.Equal(t, first.TotalChunks, second.TotalChunks)
	assert.Equal(t, first.TotalDurationSeconds, second.TotalDurationSeconds)
}

func TestGetOrCreateRepairsMissingChunks(t *testing.T) {
	store := newTestStore(t)
	cache := NewMetaCache(store)
	require.NoError(t, os.WriteFile(store.AssetPath("ep.mp3"), []byte("x"), 0644))

	prep := &countingPreparer{meta: testMeta(2, 130)}
	_, err := cache.GetOrCreate(context.Background(), "ep.mp3", prep)
	require.NoError(t, err)

	// Wipe the chunk directory but keep metadata: the next call re-segments.
	require.NoError(t, os.RemoveAll(store.ChunksDir("ep.mp3")))

	_, err = cache.GetOrCreate(context.Background(), "ep.mp3", prep)
	require.NoError(t, err)
	assert.Equal(t, 2, prep.callCount())
	assert.FileExists(t, store.ChunkPath("ep.mp3", 0))
}

func TestGetOrCreateMissingAsset(t *testing.T) {
	store := newTestStore(t)
	cache := NewMetaCache(store)

	prep := &countingPreparer{meta: testMeta(1, 60)}
	_, err := cache.GetOrCreate(context.Background(), "never-downloaded.mp3", prep)
	assert.ErrorIs(t, err, ErrAssetNotFound)
	assert.Equal(t, 0, prep.callCount())
}

func TestGetOrCreateDoesNotWriteMetadataOnFailure(t *testing.T) {
	store := newTestStore(t)
	cache := NewMetaCache(store)
	require.NoError(t, os.WriteFile(store.AssetPath("ep.mp3"), []byte("x"), 0644))

	prep := &countingPreparer{err: os.ErrPermission}
	_, err := cache.GetOrCreate(context.Background(), "ep.mp3", prep)
	require.Error(t, err)

	_, err = cache.Read("ep.mp3")
	assert.ErrorIs(t, err, ErrMetadataNotFound)
}
