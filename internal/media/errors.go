package media

import "errors"

// ErrProbe indicates the duration of an audio file could not be determined.
// Fatal to any segmentation attempt.
var ErrProbe = errors.New("audio duration probe failed")

// ErrSegmentation indicates chunk extraction failed. Partial chunk sets are
// never left behind.
var ErrSegmentation = errors.New("audio segmentation failed")

// ErrTooManyChunks indicates the asset would need more chunks than the
// 3-digit chunk naming scheme can represent.
var ErrTooManyChunks = errors.New("audio exceeds maximum representable chunks")
