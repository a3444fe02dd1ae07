package mediagate_test

import (
	"testing"

	"github.com/sagarc03/mediagate"
	"github.com/stretchr/testify/assert"
)

func TestImageContentType(t *testing.T) {
	tests := []struct {
		key  string
		want string
		ok   bool
	}{
		{key: "avatar.png", want: "image/png", ok: true},
		{key: "photos/cat.JPG", want: "image/jpg", ok: true},
		{key: "a.jpeg", want: "image/jpeg", ok: true},
		{key: "spinner.gif", want: "image/gif", ok: true},
		{key: "hero.webp", want: "image/webp", ok: true},
		{key: "vector.svg", ok: false},
		{key: "notes.txt", ok: false},
		{key: "png", ok: false},
		{key: "archive.png.zip", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := mediagate.ImageContentType(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveContentType(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		video  bool
		stored string
		want   string
	}{
		{name: "video route always mp4", key: "clip.webm", video: true, stored: "video/webm", want: "video/mp4"},
		{name: "image extension beats stored", key: "a.png", stored: "application/octet-stream", want: "image/png"},
		{name: "stored type used otherwise", key: "doc.pdf", stored: "application/pdf", want: "application/pdf"},
		{name: "fallback", key: "blob", want: "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mediagate.ResolveContentType(tt.key, tt.video, tt.stored))
		})
	}
}
