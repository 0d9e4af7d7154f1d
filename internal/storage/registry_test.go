package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(filepath.Join(t.TempDir(), "episodes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestRegistrySaveAndGet(t *testing.T) {
	reg := newTestRegistry(t)

	rec := EpisodeRecord{
		ID:           "a1b2c3",
		Filename:     "episode-42.mp3",
		PodcastTitle: "Go Time",
		EpisodeTitle: "Episode 42",
		AudioURL:     "https://cdn.example.com/audio/episode-42.mp3",
		RSSURL:       "https://example.com/feed.xml",
		SizeBytes:    1048576,
		DownloadedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, reg.SaveEpisode(rec))

	got, err := reg.GetEpisode("episode-42.mp3")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.PodcastTitle, got.PodcastTitle)
	assert.Equal(t, rec.EpisodeTitle, got.EpisodeTitle)
	assert.Equal(t, rec.AudioURL, got.AudioURL)
	assert.Equal(t, rec.SizeBytes, got.SizeBytes)
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.GetEpisode("nope.mp3")
	assert.Error(t, err)
}

func TestRegistryListOrdersByRecency(t *testing.T) {
	reg := newTestRegistry(t)

	base := time.Now().UTC().Truncate(time.Second)
	for i, name := range []string{"old.mp3", "mid.mp3", "new.mp3"} {
		require.NoError(t, reg.SaveEpisode(EpisodeRecord{
			ID:           name,
			Filename:     name,
			PodcastTitle: "Show",
			EpisodeTitle: name,
			AudioURL:     "https://example.com/" + name,
			RSSURL:       "https://example.com/feed.xml",
			SizeBytes:    int64(i),
			DownloadedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	records, err := reg.ListEpisodes(2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "new.mp3", records[0].Filename)
	assert.Equal(t, "mid.mp3", records[1].Filename)
}

func TestRegistryRejectsDuplicateFilename(t *testing.T) {
	reg := newTestRegistry(t)

	rec := EpisodeRecord{
		ID: "one", Filename: "dup.mp3", PodcastTitle: "Show", EpisodeTitle: "Ep",
		AudioURL: "u", RSSURL: "r", SizeBytes: 1, DownloadedAt: time.Now().UTC(),
	}
	require.NoError(t, reg.SaveEpisode(rec))

	rec.ID = "two"
	assert.Error(t, reg.SaveEpisode(rec))
}
