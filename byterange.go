package mediagate

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteRange is an inclusive window [Start, End] of an object of Total bytes.
type ByteRange struct {
	Start int64
	End   int64
	Total int64
}

// Length returns the number of bytes covered by the range.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange formats the range as a Content-Range header value.
func (r ByteRange) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Total)
}

// UnsatisfiedContentRange formats the Content-Range value sent with a 416 response.
func UnsatisfiedContentRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// NegotiateRange resolves a Range header against an object of the given size.
//
// A nil range with a nil error means the whole object should be served. That is
// the result for an absent header, a unit other than bytes, and any range-spec
// that does not parse. Multiple ranges are coalesced to the first one. An end
// past the object is clamped to the last byte. A range that starts at or beyond
// the end of the object, or any range over an empty object, yields
// ErrRangeNotSatisfiable.
func NegotiateRange(header string, size int64) (*ByteRange, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, nil
	}

	unit, spec, ok := strings.Cut(header, "=")
	if !ok || !strings.EqualFold(strings.TrimSpace(unit), "bytes") {
		return nil, nil
	}

	spec, _, _ = strings.Cut(spec, ",")
	first, last, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return nil, nil
	}
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)

	if first == "" {
		return suffixRange(last, size)
	}

	start, err := parseOffset(first)
	if err != nil {
		return nil, nil
	}

	end := size - 1
	if last != "" {
		end, err = parseOffset(last)
		if err != nil || end < start {
			return nil, nil
		}
	}

	if size == 0 || start >= size {
		return nil, fmt.Errorf("negotiate range %q of %d bytes: %w", header, size, ErrRangeNotSatisfiable)
	}

	if end >= size {
		end = size - 1
	}

	return &ByteRange{Start: start, End: end, Total: size}, nil
}

// suffixRange handles bytes=-N, the last N bytes of the object.
func suffixRange(last string, size int64) (*ByteRange, error) {
	if last == "" {
		return nil, nil
	}

	n, err := parseOffset(last)
	if err != nil {
		return nil, nil
	}

	if n == 0 || size == 0 {
		return nil, fmt.Errorf("negotiate range suffix %d of %d bytes: %w", n, size, ErrRangeNotSatisfiable)
	}

	n = min(n, size)

	return &ByteRange{Start: size - n, End: size - 1, Total: size}, nil
}

func parseOffset(s string) (int64, error) {
	// ParseInt accepts a leading sign; range offsets are plain digits.
	if s == "" || s[0] < '0' || s[0] > '9' {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(s, 10, 64)
}
