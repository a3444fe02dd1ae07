package mediagate_test

import (
	"strconv"
	"testing"

	"github.com/sagarc03/mediagate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiateRange(t *testing.T) {
	tests := []struct {
		name   string
		header string
		size   int64
		want   *mediagate.ByteRange
	}{
		{name: "no header", header: "", size: 100, want: nil},
		{name: "closed range", header: "bytes=0-9", size: 100, want: &mediagate.ByteRange{Start: 0, End: 9, Total: 100}},
		{name: "middle of clip", header: "bytes=500-999", size: 1_000_000, want: &mediagate.ByteRange{Start: 500, End: 999, Total: 1_000_000}},
		{name: "open ended", header: "bytes=90-", size: 100, want: &mediagate.ByteRange{Start: 90, End: 99, Total: 100}},
		{name: "end clamped to size", header: "bytes=50-5000", size: 100, want: &mediagate.ByteRange{Start: 50, End: 99, Total: 100}},
		{name: "single last byte", header: "bytes=99-99", size: 100, want: &mediagate.ByteRange{Start: 99, End: 99, Total: 100}},
		{name: "suffix", header: "bytes=-10", size: 100, want: &mediagate.ByteRange{Start: 90, End: 99, Total: 100}},
		{name: "suffix longer than object", header: "bytes=-500", size: 100, want: &mediagate.ByteRange{Start: 0, End: 99, Total: 100}},
		{name: "multi range uses first", header: "bytes=0-1,5-9", size: 100, want: &mediagate.ByteRange{Start: 0, End: 1, Total: 100}},
		{name: "whitespace tolerated", header: " bytes = 1 - 2 ", size: 100, want: &mediagate.ByteRange{Start: 1, End: 2, Total: 100}},
		{name: "unit is case insensitive", header: "Bytes=1-2", size: 100, want: &mediagate.ByteRange{Start: 1, End: 2, Total: 100}},
		{name: "other unit ignored", header: "items=0-1", size: 100, want: nil},
		{name: "missing equals", header: "bytes 0-1", size: 100, want: nil},
		{name: "missing dash", header: "bytes=10", size: 100, want: nil},
		{name: "bare dash", header: "bytes=-", size: 100, want: nil},
		{name: "non numeric start", header: "bytes=abc-10", size: 100, want: nil},
		{name: "non numeric end", header: "bytes=0-xyz", size: 100, want: nil},
		{name: "signed start", header: "bytes=+5-10", size: 100, want: nil},
		{name: "end before start", header: "bytes=10-5", size: 100, want: nil},
		{name: "overflow", header: "bytes=99999999999999999999-", size: 100, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mediagate.NegotiateRange(tt.header, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNegotiateRange_NotSatisfiable(t *testing.T) {
	tests := []struct {
		name   string
		header string
		size   int64
	}{
		{name: "start at size", header: "bytes=100-", size: 100},
		{name: "start past size", header: "bytes=200-300", size: 100},
		{name: "empty object", header: "bytes=0-", size: 0},
		{name: "zero suffix", header: "bytes=-0", size: 100},
		{name: "suffix of empty object", header: "bytes=-5", size: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mediagate.NegotiateRange(tt.header, tt.size)
			assert.ErrorIs(t, err, mediagate.ErrRangeNotSatisfiable)
			assert.Nil(t, got)
		})
	}
}

func TestByteRange_Headers(t *testing.T) {
	r := mediagate.ByteRange{Start: 500, End: 999, Total: 1_000_000}

	assert.Equal(t, int64(500), r.Length())
	assert.Equal(t, "bytes 500-999/1000000", r.ContentRange())
	assert.Equal(t, "bytes */100", mediagate.UnsatisfiedContentRange(100))
}

func TestNegotiateRange_WindowInsideObject(t *testing.T) {
	const size = 1000
	for start := int64(0); start < size; start += 97 {
		for _, end := range []int64{start, start + 13, size - 1, size + 50} {
			got, err := mediagate.NegotiateRange(rangeHeader(start, end), size)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.GreaterOrEqual(t, got.Start, int64(0))
			assert.LessOrEqual(t, got.Start, got.End)
			assert.Less(t, got.End, int64(size))
			assert.Equal(t, got.End-got.Start+1, got.Length())
		}
	}
}

func rangeHeader(start, end int64) string {
	return "bytes=" + strconv.FormatInt(start, 10) + "-" + strconv.FormatInt(end, 10)
}
