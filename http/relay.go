package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sagarc03/mediagate"
)

type relayOptions struct {
	contentType  string
	cacheControl string
	ranges       bool
}

func (h *Handler) serveObject(w http.ResponseWriter, r *http.Request, key string, video bool) {
	obj, content, err := h.service.Get(r.Context(), key)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	opts := relayOptions{
		contentType:  mediagate.ResolveContentType(key, video, obj.ContentType),
		cacheControl: "no-cache",
		ranges:       video || h.config.MediaRanges,
	}
	if _, image := mediagate.ImageContentType(key); video || image {
		opts.cacheControl = fmt.Sprintf("public, max-age=%d", h.config.CacheMaxAge)
	}

	relay(w, r, obj, content, opts)
}

// relay writes obj to w. When ranges are enabled and the request carries a
// satisfiable Range header, only that window is sent: the reader is seeked to
// the start and exactly Length bytes are copied.
func relay(w http.ResponseWriter, r *http.Request, obj mediagate.MetaData, content io.ReadSeeker, opts relayOptions) {
	etag := `"` + obj.Etag + `"`
	size := obj.FileSizeBytes

	header := w.Header()
	header.Set("ETag", etag)
	header.Set("Cache-Control", opts.cacheControl)
	if !obj.UpdatedAt.IsZero() {
		header.Set("Last-Modified", obj.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	if opts.ranges {
		header.Set("Accept-Ranges", "bytes")
	}

	if etagMatches(r.Header.Get("If-None-Match"), obj.Etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	var window *mediagate.ByteRange
	if opts.ranges && rangeApplies(r.Header.Get("If-Range"), etag) {
		br, err := mediagate.NegotiateRange(r.Header.Get("Range"), size)
		if err != nil {
			header.Set("Content-Range", mediagate.UnsatisfiedContentRange(size))
			HandleError(w, fmt.Errorf("relay %s: %w", obj.Key, err))
			return
		}
		window = br
	}

	status, length := http.StatusOK, size
	if window != nil {
		if _, err := content.Seek(window.Start, io.SeekStart); err != nil {
			HandleError(w, fmt.Errorf("relay %s: %w", obj.Key, &mediagate.UpstreamError{Op: "seek object", Err: err}))
			return
		}
		status, length = http.StatusPartialContent, window.Length()
		header.Set("Content-Range", window.ContentRange())
	}

	header.Set("Content-Type", opts.contentType)
	header.Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return
	}

	// Headers are gone; a short body against Content-Length makes the server drop the connection.
	if n, err := io.CopyN(w, content, length); err != nil {
		level := slog.LevelWarn
		if r.Context().Err() != nil || errors.Is(err, io.ErrClosedPipe) {
			level = slog.LevelDebug
		}
		slog.Log(r.Context(), level, "relay interrupted", "key", obj.Key, "sent", n, "expected", length, "error", err)
	}
}

// etagMatches reports whether an If-None-Match header value matches etag.
// Weak comparison is used, as required for If-None-Match.
func etagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" || etag == "" {
		return false
	}
	if header == "*" {
		return true
	}

	for candidate := range strings.SplitSeq(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if strings.Trim(candidate, `"`) == etag {
			return true
		}
	}
	return false
}

// rangeApplies evaluates If-Range. Only the entity-tag form is supported; a
// date or a stale tag means the full object is sent.
func rangeApplies(ifRange, etag string) bool {
	ifRange = strings.TrimSpace(ifRange)
	return ifRange == "" || ifRange == etag
}
