package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MediaStore owns the on-disk layout for downloaded audio and its chunks:
//
//	media/name.ext                  original download
//	media/name/metadata.json        segmentation descriptor
//	media/name/chunks/chunk_000.mp3 chunk files
//	media/tmp/                      scratch area for whole-file transcription
type MediaStore struct {
	dir string
}

// NewMediaStore creates the media directory tree rooted at dir.
func NewMediaStore(dir string) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "tmp"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &MediaStore{dir: dir}, nil
}

// Dir returns the media root directory.
func (s *MediaStore) Dir() string {
	return s.dir
}

// WorkDir returns the scratch directory for transient chunk splits.
func (s *MediaStore) WorkDir() string {
	return filepath.Join(s.dir, "tmp")
}

// AssetPath returns the location of an original download.
func (s *MediaStore) AssetPath(filename string) string {
	return filepath.Join(s.dir, filename)
}

// AssetExists reports whether the original download is on disk.
func (s *MediaStore) AssetExists(filename string) bool {
	info, err := os.Stat(s.AssetPath(filename))
	return err == nil && !info.IsDir()
}

// AssetDir returns the per-asset directory holding metadata and chunks.
func (s *MediaStore) AssetDir(filename string) string {
	return filepath.Join(s.dir, stem(filename))
}

// ChunksDir returns the directory holding an asset's chunk files.
func (s *MediaStore) ChunksDir(filename string) string {
	return filepath.Join(s.AssetDir(filename), "chunks")
}

// MetadataPath returns the location of an asset's segmentation descriptor.
func (s *MediaStore) MetadataPath(filename string) string {
	return filepath.Join(s.AssetDir(filename), "metadata.json")
}

// ChunkFileName returns the storage name for chunk index i (0-based,
// zero-padded to 3 digits).
func ChunkFileName(i int) string {
	return fmt.Sprintf("chunk_%03d.mp3", i)
}

// ChunkPath returns the location of one chunk file.
func (s *MediaStore) ChunkPath(filename string, i int) string {
	return filepath.Join(s.ChunksDir(filename), ChunkFileName(i))
}

// ReservePath resolves naming collisions for a new download: if filename is
// taken, _1, _2, ... is appended before the extension until a free name is
// found. Returns the full path and the final filename.
//
// The existence check and the eventual write are not atomic; two concurrent
// downloads of distinct URLs that sanitize to the same name can race. Source
// URLs rarely collide within a short window, so the race is tolerated rather
// than locked away.
func (s *MediaStore) ReservePath(filename string) (string, string) {
	candidate := filename
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)

	for counter := 1; ; counter++ {
		path := filepath.Join(s.dir, candidate)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", name, counter, ext)
	}
}

// stem strips the extension from a filename, mirroring how the chunk
// directory is derived from the asset name.
func stem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
