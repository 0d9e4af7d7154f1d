package transcription

import "errors"

// ErrInvalidRange indicates caller-supplied chunk bounds are out of range.
// Terminal for the whole request; reported before any chunk is streamed.
var ErrInvalidRange = errors.New("invalid chunk range")

// ErrChunkMissing indicates an expected chunk file is absent despite valid
// metadata. Reported per chunk; the stream continues.
var ErrChunkMissing = errors.New("chunk file not found")

// ErrService indicates the transcription service failed for one chunk.
var ErrService = errors.New("transcription service error")
