package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/singleflight"
)

// ChunkMetadata is the persisted segmentation descriptor for one asset.
type ChunkMetadata struct {
	TotalChunks          int       `json:"total_chunks"`
	ChunkDurationSeconds float64   `json:"chunk_duration_seconds"`
	TotalDurationSeconds float64   `json:"total_duration_seconds"`
	ChunkDurationMS      int       `json:"chunk_duration_ms"`
	CreatedAt            time.Time `json:"created_at"`
}

// Info returns the subset of the descriptor exposed by /info.
func (m *ChunkMetadata) Info() (totalChunks int, chunkSeconds, totalSeconds float64) {
	return m.TotalChunks, m.ChunkDurationSeconds, m.TotalDurationSeconds
}

// ChunkPreparer splits an asset into chunk files under chunksDir and
// returns the resulting descriptor. Implementations must either produce
// every chunk file or fail without leaving partial output behind.
type ChunkPreparer interface {
	Prepare(ctx context.Context, assetPath, chunksDir string) (*ChunkMetadata, error)
}

// MetaCache reads and writes per-asset chunk metadata and repairs missing
// segmentations on demand.
type MetaCache struct {
	store *MediaStore
	group singleflight.Group
}

// NewMetaCache creates a metadata cache over the given store.
func NewMetaCache(store *MediaStore) *MetaCache {
	return &MetaCache{store: store}
}

// Read loads an asset's descriptor. Returns ErrMetadataNotFound when no
// descriptor file exists.
func (c *MetaCache) Read(filename string) (*ChunkMetadata, error) {
	data, err := os.ReadFile(c.store.MetadataPath(filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMetadataNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read chunk metadata: %w", err)
	}

	var meta ChunkMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse chunk metadata: %w", err)
	}
	return &meta, nil
}

// Write persists an asset's descriptor. Callers must only write after every
// chunk extraction succeeded; the descriptor is the contract that the chunk
// files exist.
func (c *MetaCache) Write(filename string, meta *ChunkMetadata) error {
	if err := os.MkdirAll(c.store.AssetDir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create asset directory: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chunk metadata: %w", err)
	}
	if err := os.WriteFile(c.store.MetadataPath(filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write chunk metadata: %w", err)
	}
	return nil
}

// GetOrCreate returns the asset's descriptor, segmenting the asset first if
// the descriptor or the chunk directory is missing. Concurrent calls for the
// same filename are collapsed into a single segmentation.
func (c *MetaCache) GetOrCreate(ctx context.Context, filename string, preparer ChunkPreparer) (*ChunkMetadata, error) {
	v, err, _ := c.group.Do(filename, func() (interface{}, error) {
		meta, err := c.Read(filename)
		if err == nil {
			if _, statErr := os.Stat(c.store.ChunksDir(filename)); statErr == nil {
				return meta, nil
			}
			// Descriptor present but chunks gone: fall through and repair.
		}

		if !c.store.AssetExists(filename) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, filename)
		}

		chunksDir := c.store.ChunksDir(filename)
		if err := os.MkdirAll(chunksDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create chunks directory: %w", err)
		}

		meta, err = preparer.Prepare(ctx, c.store.AssetPath(filename), chunksDir)
		if err != nil {
			return nil, err
		}
		if err := c.Write(filename, meta); err != nil {
			return nil, err
		}
		return meta, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ChunkMetadata), nil
}
