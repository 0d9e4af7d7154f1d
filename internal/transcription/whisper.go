package transcription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/raglandconnor/podcite/internal/types"
)

// Default retry configuration for transient API failures.
const (
	defaultMaxRetries     = 3
	defaultBaseDelay      = 1 * time.Second
	defaultMaxDelay       = 15 * time.Second
	defaultRequestTimeout = 2 * time.Minute
)

// ChunkTranscriber converts one chunk's audio file into text plus timed
// segments. Timestamps in the result are chunk-relative.
type ChunkTranscriber interface {
	TranscribeFile(ctx context.Context, audioPath string) (*types.TranscriptionResult, error)
}

// audioAPI is the slice of the OpenAI client this package uses.
// *openai.Client implements it; tests inject fakes.
type audioAPI interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

var (
	_ ChunkTranscriber = (*WhisperClient)(nil)
	_ audioAPI         = (*openai.Client)(nil)
)

// WhisperClient transcribes audio through the OpenAI Whisper API, requesting
// segment-level timestamps. Transient failures (rate limits, 5xx, timeouts)
// are retried with exponential backoff.
type WhisperClient struct {
	api        audioAPI
	model      string
	timeout    time.Duration
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// WhisperOption configures a WhisperClient.
type WhisperOption func(*WhisperClient)

// WithRequestTimeout bounds each individual API call.
func WithRequestTimeout(d time.Duration) WhisperOption {
	return func(w *WhisperClient) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithMaxRetries sets the retry attempt limit.
func WithMaxRetries(n int) WhisperOption {
	return func(w *WhisperClient) {
		if n >= 0 {
			w.maxRetries = n
		}
	}
}

// WithRetryDelays sets base and max backoff delays.
func WithRetryDelays(base, max time.Duration) WhisperOption {
	return func(w *WhisperClient) {
		if base > 0 {
			w.baseDelay = base
		}
		if max > 0 {
			w.maxDelay = max
		}
	}
}

// newWhisperClient wires an injectable API; exposed for tests.
func newWhisperClient(api audioAPI, model string, opts ...WhisperOption) *WhisperClient {
	if model == "" {
		model = openai.Whisper1
	}
	w := &WhisperClient{
		api:        api,
		model:      model,
		timeout:    defaultRequestTimeout,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewWhisperClient creates a WhisperClient over an OpenAI client.
// model defaults to whisper-1.
func NewWhisperClient(client *openai.Client, model string, opts ...WhisperOption) *WhisperClient {
	return newWhisperClient(client, model, opts...)
}

// TranscribeFile sends the chunk file to the transcription API and returns
// text plus chunk-relative timed segments.
func (w *WhisperClient) TranscribeFile(ctx context.Context, audioPath string) (*types.TranscriptionResult, error) {
	req := openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
		},
	}

	resp, err := w.createWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrService, err)
	}

	segments := make([]types.Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		segments[i] = types.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
	}

	return &types.TranscriptionResult{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Duration: resp.Duration,
		Segments: segments,
	}, nil
}

// createWithRetry issues the API call with exponential backoff on
// retryable errors. Each attempt gets its own timeout.
func (w *WhisperClient) createWithRetry(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	var lastErr error
	delay := w.baseDelay

	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return openai.AudioResponse{}, ctx.Err()
			case <-timer.C:
			}
			delay = min(delay*2, w.maxDelay)
		}

		callCtx, cancel := context.WithTimeout(ctx, w.timeout)
		resp, err := w.api.CreateTranscription(callCtx, req)
		cancel()
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return openai.AudioResponse{}, ctx.Err()
		}
		if !isRetryable(err) {
			return openai.AudioResponse{}, err
		}
	}

	return openai.AudioResponse{}, fmt.Errorf("max retries (%d) exceeded: %w", w.maxRetries, lastErr)
}

// isRetryable reports whether an API error is transient.
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusRequestTimeout,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	// A per-call timeout surfaces as deadline exceeded; worth one more try.
	return errors.Is(err, context.DeadlineExceeded)
}
