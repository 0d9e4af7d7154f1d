package podcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/raglandconnor/podcite/internal/storage"
)

// DownloadResult reports how an episode's audio download went. Failures are
// carried in the payload rather than aborting the feed response, so callers
// still get the episode metadata.
type DownloadResult struct {
	Status      string `json:"status"`
	FilePath    string `json:"file_path,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	Error       string `json:"error,omitempty"`
}

// FeedResponse is the full payload of an episode acquisition.
type FeedResponse struct {
	Podcast             *Info          `json:"podcast"`
	Episode             *Episode       `json:"episode"`
	TotalEpisodesInFeed int            `json:"total_episodes_in_feed"`
	AudioDownload       DownloadResult `json:"audio_download"`
}

// Service resolves RSS URLs into downloaded, pre-chunked audio assets.
type Service struct {
	feeds    *FeedParser
	client   *http.Client
	store    *storage.MediaStore
	cache    *storage.MetaCache
	preparer storage.ChunkPreparer
	registry *storage.Registry
	log      zerolog.Logger
}

// NewService creates a podcast acquisition service. registry may be nil, in
// which case downloads are not recorded. downloadTimeout bounds each audio
// fetch; zero means 30 seconds.
func NewService(
	store *storage.MediaStore,
	cache *storage.MetaCache,
	preparer storage.ChunkPreparer,
	registry *storage.Registry,
	downloadTimeout time.Duration,
	log zerolog.Logger,
) *Service {
	if downloadTimeout <= 0 {
		downloadTimeout = 30 * time.Second
	}
	return &Service{
		feeds:    NewFeedParser(),
		client:   &http.Client{Timeout: downloadTimeout},
		store:    store,
		cache:    cache,
		preparer: preparer,
		registry: registry,
		log:      log,
	}
}

// FetchEpisode parses the feed, downloads the selected episode's audio into
// the media store and eagerly prepares its chunks. Download failures are
// reported inside the response; feed failures are returned as errors.
func (s *Service) FetchEpisode(ctx context.Context, rssURL string, episodeIndex int) (*FeedResponse, error) {
	info, episode, total, err := s.feeds.Fetch(ctx, rssURL, episodeIndex)
	if err != nil {
		return nil, err
	}

	download := s.downloadAudio(ctx, episode.AudioURL)
	if download.Status == "success" {
		s.record(info, episode, rssURL, download)
	}

	return &FeedResponse{
		Podcast:             info,
		Episode:             episode,
		TotalEpisodesInFeed: total,
		AudioDownload:       download,
	}, nil
}

// downloadAudio fetches audioURL into the store and triggers chunk
// preparation. Never returns an error; problems land in the result payload.
func (s *Service) downloadAudio(ctx context.Context, audioURL string) DownloadResult {
	if audioURL == "" {
		return DownloadResult{Status: "error", Error: "no audio URL found in RSS feed"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return DownloadResult{Status: "error", Error: err.Error()}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return DownloadResult{Status: "error", Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return DownloadResult{Status: "error", Error: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !isAudioContentType(contentType) {
		return DownloadResult{Status: "error", Error: fmt.Sprintf("invalid content type: %s", contentType)}
	}

	// Duplicate downloads get a disambiguated name, never an overwrite.
	path, filename := s.store.ReservePath(storage.SafeFilename(audioURL))

	size, err := writeFile(path, resp.Body)
	if err != nil {
		return DownloadResult{Status: "error", Error: err.Error()}
	}

	// Pre-chunk eagerly so the first transcription request is fast. A failure
	// here is not fatal: /info and /chunks self-heal by re-segmenting.
	s.log.Info().Str("filename", filename).Msg("preparing audio chunks")
	if _, err := s.cache.GetOrCreate(ctx, filename, s.preparer); err != nil {
		s.log.Warn().Err(err).Str("filename", filename).Msg("eager chunk preparation failed")
	}

	return DownloadResult{
		Status:      "success",
		FilePath:    path,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   size,
	}
}

// record stores the download in the episode registry, best effort.
func (s *Service) record(info *Info, episode *Episode, rssURL string, download DownloadResult) {
	if s.registry == nil {
		return
	}
	err := s.registry.SaveEpisode(storage.EpisodeRecord{
		ID:           uuid.New().String(),
		Filename:     download.Filename,
		PodcastTitle: info.Title,
		EpisodeTitle: episode.Title,
		AudioURL:     episode.AudioURL,
		RSSURL:       rssURL,
		SizeBytes:    download.SizeBytes,
		DownloadedAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("filename", download.Filename).Msg("failed to record episode")
	}
}

// IsNotFound reports whether err should map to a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEpisodeNotFound)
}

func isAudioContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "audio/") ||
		strings.Contains(contentType, "mp3") ||
		strings.Contains(contentType, "mpeg") ||
		strings.Contains(contentType, "octet-stream")
}

func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	return size, nil
}
