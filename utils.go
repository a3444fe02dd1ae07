package mediagate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// forbiddenKeyChars have meaning in URLs or shells and are rejected anywhere
// in a key.
const forbiddenKeyChars = `\?#~`

// IsValidKey reports whether key can address an object. Keys double as
// filesystem paths and S3 object names, so a key must be relative valid UTF-8
// made of non-empty segments, none of which is "." and none containing "..".
// Whitespace, control characters and the characters \ ? # ~ are rejected.
func IsValidKey(key string) bool {
	if key == "" || !utf8.ValidString(key) {
		return false
	}
	if strings.ContainsAny(key, forbiddenKeyChars) {
		return false
	}

	for seg := range strings.SplitSeq(key, "/") {
		if !validSegment(seg) {
			return false
		}
	}
	return true
}

func validSegment(seg string) bool {
	if seg == "" || seg == "." || strings.Contains(seg, "..") {
		return false
	}
	for _, r := range seg {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
