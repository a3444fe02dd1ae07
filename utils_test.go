package mediagate_test

import (
	"testing"
	"unicode/utf8"

	"github.com/sagarc03/mediagate"
)

func TestIsValidKey(t *testing.T) {
	invalidUTF8 := string([]byte{'c', 'l', 0xff, 'p'})

	tt := []struct {
		Name string
		Key  string
		Want bool
	}{
		{Name: "empty key", Key: "", Want: false},
		{Name: "root", Key: "/", Want: false},
		{Name: "dot", Key: ".", Want: false},
		{Name: "leading slash", Key: "/clip.mp4", Want: false},
		{Name: "trailing slash", Key: "videos/", Want: false},

		{Name: "parent segment", Key: "../secret", Want: false},
		{Name: "parent in middle", Key: "a/../b.png", Want: false},
		{Name: "double dots in name", Key: "avatar..png", Want: false},
		{Name: "dot segment", Key: "a/./b.png", Want: false},
		{Name: "trailing dot segment", Key: "a/.", Want: false},
		{Name: "empty segment", Key: "a//b.png", Want: false},

		{Name: "space", Key: "my avatar.png", Want: false},
		{Name: "tab", Key: "my\tavatar.png", Want: false},
		{Name: "backslash", Key: `a\b.png`, Want: false},
		{Name: "hash", Key: "a#b.png", Want: false},
		{Name: "question mark", Key: "a?b.png", Want: false},
		{Name: "tilde", Key: "~a.png", Want: false},
		{Name: "NUL", Key: "a\x00.png", Want: false},
		{Name: "DEL", Key: "a\x7f.png", Want: false},
		{Name: "invalid utf8", Key: invalidUTF8, Want: false},

		{Name: "plain image", Key: "avatar.png", Want: true},
		{Name: "nested video", Key: "videos/2024/clip.mp4", Want: true},
		{Name: "hidden file", Key: ".thumbs/avatar.png", Want: true},
		{Name: "dashes and underscores", Key: "user_1/profile-pic.webp", Want: true},
		{Name: "percent literal", Key: "a/%2e/b.gif", Want: true},
		{Name: "unicode", Key: "фото/画像.jpg", Want: true},
	}

	if utf8.ValidString(invalidUTF8) {
		t.Fatalf("test setup error: invalidUTF8 is unexpectedly valid")
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			got := mediagate.IsValidKey(tc.Key)
			if got != tc.Want {
				t.Errorf("IsValidKey(%q) = %v, want %v", tc.Key, got, tc.Want)
			}
		})
	}
}
