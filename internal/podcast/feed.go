package podcast

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// ErrFeedParse indicates the RSS feed is invalid or unreachable.
var ErrFeedParse = errors.New("invalid RSS feed URL or format")

// ErrEpisodeNotFound indicates the requested episode index is out of range.
var ErrEpisodeNotFound = errors.New("episode not found")

// Info describes the podcast a feed belongs to.
type Info struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	RSSURL      string `json:"rss_url"`
}

// Episode describes one entry of a feed.
type Episode struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	AudioURL      string `json:"audio_url"`
	PublishedDate string `json:"published_date"`
	Duration      string `json:"duration"`
	EpisodeIndex  int    `json:"episode_index"`
}

// FeedParser resolves an RSS URL into podcast and episode descriptors.
type FeedParser struct {
	parser *gofeed.Parser
}

// NewFeedParser creates a FeedParser.
func NewFeedParser() *FeedParser {
	return &FeedParser{parser: gofeed.NewParser()}
}

// Fetch parses the feed at url and extracts the episode at episodeIndex.
// Returns the podcast info, the episode and the total number of entries.
func (f *FeedParser) Fetch(ctx context.Context, url string, episodeIndex int) (*Info, *Episode, int, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrFeedParse, err)
	}
	if len(feed.Items) == 0 {
		return nil, nil, 0, fmt.Errorf("%w: feed has no entries", ErrFeedParse)
	}
	if episodeIndex < 0 || episodeIndex >= len(feed.Items) {
		return nil, nil, 0, fmt.Errorf("%w: episode %d not found, feed has %d episodes",
			ErrEpisodeNotFound, episodeIndex, len(feed.Items))
	}

	info := extractInfo(feed, url)
	episode := extractEpisode(feed.Items[episodeIndex], episodeIndex)
	return info, episode, len(feed.Items), nil
}

func extractInfo(feed *gofeed.Feed, rssURL string) *Info {
	info := &Info{
		Title:       feed.Title,
		Description: feed.Description,
		RSSURL:      rssURL,
	}
	if info.Title == "" {
		info.Title = "Unknown Podcast"
	}
	if feed.Image != nil {
		info.ImageURL = feed.Image.URL
	}
	return info
}

func extractEpisode(item *gofeed.Item, index int) *Episode {
	episode := &Episode{
		Title:         item.Title,
		Description:   item.Description,
		PublishedDate: item.Published,
		EpisodeIndex:  index,
	}
	if episode.Title == "" {
		episode.Title = "Unknown Episode"
	}
	if item.ITunesExt != nil {
		episode.Duration = item.ITunesExt.Duration
	}

	// The audio URL comes from the first audio enclosure.
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "audio/") {
			episode.AudioURL = enc.URL
			break
		}
	}
	return episode
}
