package storage

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// audioExtensions are the recognized audio file extensions, lowercase.
var audioExtensions = []string{".mp3", ".m4a", ".wav", ".aac"}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SafeFilename derives a filesystem-safe filename from a source URL.
// The URL path's basename is used when present; otherwise a name is built
// from host+path. Characters outside [A-Za-z0-9_.-] become underscores and
// a .mp3 extension is appended when no recognized audio extension exists.
// Always returns a non-empty string.
func SafeFilename(rawURL string) string {
	base := ""
	if u, err := url.Parse(rawURL); err == nil {
		base = path.Base(u.Path)
		if base == "/" || base == "." {
			base = ""
		}
		if base == "" {
			base = unsafeChars.ReplaceAllString(u.Host+u.Path, "_") + ".mp3"
		}
	} else {
		base = unsafeChars.ReplaceAllString(rawURL, "_") + ".mp3"
	}

	name := unsafeChars.ReplaceAllString(base, "_")
	if !HasAudioExtension(name) {
		name += ".mp3"
	}
	return name
}

// SanitizeBaseName replaces unsafe characters in a user-supplied filename
// without touching its extension. Used for direct uploads, where the bytes
// already match whatever extension the client gave us.
func SanitizeBaseName(name string) string {
	cleaned := unsafeChars.ReplaceAllString(path.Base(name), "_")
	if cleaned == "" || cleaned == "." {
		cleaned = "upload"
	}
	return cleaned
}

// HasAudioExtension reports whether name ends in a recognized audio extension.
func HasAudioExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range audioExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// IsSupportedUpload reports whether an uploaded filename carries an audio
// extension the pipeline can ingest.
func IsSupportedUpload(filename string) bool {
	ext := strings.ToLower(path.Ext(filename))
	supported := []string{".mp3", ".m4a", ".wav", ".aac", ".ogg", ".flac", ".webm"}
	for _, s := range supported {
		if ext == s {
			return true
		}
	}
	return false
}
