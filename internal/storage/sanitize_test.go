package storage

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "plain mp3 basename",
			url:  "https://example.com/audio/episode1.mp3",
			want: "episode1.mp3",
		},
		{
			name: "basename with query string",
			url:  "https://cdn.example.com/ep.mp3?token=abc&x=1",
			want: "ep.mp3",
		},
		{
			name: "unsafe characters replaced",
			url:  "https://example.com/my episode (final).mp3",
			want: "my_episode__final_.mp3",
		},
		{
			name: "no extension gets mp3 appended",
			url:  "https://example.com/stream/episode42",
			want: "episode42.mp3",
		},
		{
			name: "m4a extension preserved",
			url:  "https://example.com/show.m4a",
			want: "show.m4a",
		},
		{
			name: "empty path derives from host",
			url:  "https://example.com/?id=4",
			want: "example.com_.mp3",
		},
		{
			name: "bare host",
			url:  "https://example.com",
			want: "example.com.mp3",
		},
		{
			name: "unicode path replaced",
			url:  "https://example.com/épisode-un.mp3",
			want: "_pisode-un.mp3",
		},
		{
			name: "empty input",
			url:  "",
			want: ".mp3",
		},
	}

	allowed := regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeFilename(tt.url)
			assert.Equal(t, tt.want, got)
			require.NotEmpty(t, got)
			assert.True(t, allowed.MatchString(got), "filename %q contains unsafe characters", got)
			assert.True(t, HasAudioExtension(got))
		})
	}
}

func TestSanitizeBaseName(t *testing.T) {
	assert.Equal(t, "my_file.ogg", SanitizeBaseName("my file.ogg"))
	assert.Equal(t, "evil.mp3", SanitizeBaseName("../../evil.mp3"))
	assert.Equal(t, "upload", SanitizeBaseName(""))
}

func TestIsSupportedUpload(t *testing.T) {
	assert.True(t, IsSupportedUpload("a.mp3"))
	assert.True(t, IsSupportedUpload("a.OGG"))
	assert.True(t, IsSupportedUpload("a.webm"))
	assert.False(t, IsSupportedUpload("a.txt"))
	assert.False(t, IsSupportedUpload("archive.zip"))
}
