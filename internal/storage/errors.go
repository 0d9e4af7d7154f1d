package storage

import "errors"

// ErrAssetNotFound indicates the original audio file was never downloaded.
var ErrAssetNotFound = errors.New("audio file not found")

// ErrMetadataNotFound indicates no chunk metadata exists for an asset.
var ErrMetadataNotFound = errors.New("chunk metadata not found")
