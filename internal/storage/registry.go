package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// EpisodeRecord is one downloaded episode as tracked in the registry.
type EpisodeRecord struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	PodcastTitle string    `json:"podcast_title"`
	EpisodeTitle string    `json:"episode_title"`
	AudioURL     string    `json:"audio_url"`
	RSSURL       string    `json:"rss_url"`
	SizeBytes    int64     `json:"size_bytes"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Registry tracks downloaded episodes in SQLite.
type Registry struct {
	db *sql.DB
}

// NewRegistry opens (and if needed initializes) the episode database.
func NewRegistry(dbPath string) (*Registry, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS episodes (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL UNIQUE,
		podcast_title TEXT NOT NULL,
		episode_title TEXT NOT NULL,
		audio_url TEXT NOT NULL,
		rss_url TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		downloaded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_episodes_downloaded_at ON episodes(downloaded_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create episodes table: %w", err)
	}

	return &Registry{db: db}, nil
}

// SaveEpisode records a completed download.
func (r *Registry) SaveEpisode(rec EpisodeRecord) error {
	query := `
	INSERT INTO episodes (id, filename, podcast_title, episode_title, audio_url, rss_url, size_bytes, downloaded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, rec.ID, rec.Filename, rec.PodcastTitle, rec.EpisodeTitle,
		rec.AudioURL, rec.RSSURL, rec.SizeBytes, rec.DownloadedAt)
	if err != nil {
		return fmt.Errorf("failed to save episode: %w", err)
	}
	return nil
}

// GetEpisode retrieves a registry row by stored filename.
func (r *Registry) GetEpisode(filename string) (*EpisodeRecord, error) {
	query := `
	SELECT id, filename, podcast_title, episode_title, audio_url, rss_url, size_bytes, downloaded_at
	FROM episodes WHERE filename = ?
	`

	var rec EpisodeRecord
	err := r.db.QueryRow(query, filename).Scan(
		&rec.ID, &rec.Filename, &rec.PodcastTitle, &rec.EpisodeTitle,
		&rec.AudioURL, &rec.RSSURL, &rec.SizeBytes, &rec.DownloadedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	return &rec, nil
}

// ListEpisodes returns the most recently downloaded episodes.
func (r *Registry) ListEpisodes(limit int) ([]EpisodeRecord, error) {
	query := `
	SELECT id, filename, podcast_title, episode_title, audio_url, rss_url, size_bytes, downloaded_at
	FROM episodes ORDER BY downloaded_at DESC LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var records []EpisodeRecord
	for rows.Next() {
		var rec EpisodeRecord
		if err := rows.Scan(
			&rec.ID, &rec.Filename, &rec.PodcastTitle, &rec.EpisodeTitle,
			&rec.AudioURL, &rec.RSSURL, &rec.SizeBytes, &rec.DownloadedAt); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}
