package types

// Segment represents one timed span of transcribed text. Start and End are
// seconds relative to whatever audio was sent to the transcription service;
// the orchestrator rewrites them to episode-absolute time before emitting.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscriptionResult is the output of transcribing one audio file.
type TranscriptionResult struct {
	Text     string
	Language string
	Duration float64
	Segments []Segment
}

// AudioInfo describes how an asset was segmented, as exposed by /info.
type AudioInfo struct {
	TotalChunks          int     `json:"total_chunks"`
	ChunkDurationSeconds float64 `json:"chunk_duration_seconds"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
}

// Event is one unit streamed to a transcription consumer. Exactly one of
// the concrete types below is sent per stream message.
type Event interface {
	event()
}

// ChunkTranscribed reports a successfully transcribed chunk.
// ChunkIndex is 1-based on the wire; segment times are episode-absolute.
type ChunkTranscribed struct {
	ChunkIndex  int       `json:"chunk_index"`
	TotalChunks int       `json:"total_chunks"`
	Text        string    `json:"text"`
	Segments    []Segment `json:"segments"`
}

// ChunkFailed reports a single chunk that could not be transcribed.
// The stream continues with later chunks.
type ChunkFailed struct {
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	Error       string `json:"error"`
}

// StreamFailed is a terminal event: nothing was or will be streamed after it.
type StreamFailed struct {
	Error string `json:"error"`
}

// StreamCompleted is the final sentinel of a successful stream.
type StreamCompleted struct {
	Status string `json:"status"`
}

// Completed returns the stream-termination sentinel.
func Completed() StreamCompleted {
	return StreamCompleted{Status: "completed"}
}

func (ChunkTranscribed) event() {}
func (ChunkFailed) event()      {}
func (StreamFailed) event()     {}
func (StreamCompleted) event()  {}
