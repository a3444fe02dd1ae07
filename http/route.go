package http

import (
	"net/http"
	"strings"
)

// RouteKind tags the handler an API request is dispatched to.
type RouteKind int

const (
	RouteUnknown RouteKind = iota
	RouteVideoStream
	RouteMediaRead
	RouteMediaWrite
	RouteMethodNotAllowed
)

func (k RouteKind) String() string {
	switch k {
	case RouteVideoStream:
		return "video_stream"
	case RouteMediaRead:
		return "media_read"
	case RouteMediaWrite:
		return "media_write"
	case RouteMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "unknown"
	}
}

// Route is the result of classifying a request.
type Route struct {
	Kind RouteKind
	Key  string
}

const (
	videoPrefix = "/video/"
	mediaPrefix = "/media/"

	// mediaAllow is the Allow header sent with 405 responses on the media route.
	mediaAllow = "GET, POST"
)

// Classify maps a method and a path relative to the API prefix to a route.
// The video route accepts every method with GET semantics. The media route
// accepts GET and POST only. Classify does no I/O.
func Classify(method, path string) Route {
	if key, ok := strings.CutPrefix(path, videoPrefix); ok {
		return Route{Kind: RouteVideoStream, Key: key}
	}

	if key, ok := strings.CutPrefix(path, mediaPrefix); ok {
		switch method {
		case http.MethodGet:
			return Route{Kind: RouteMediaRead, Key: key}
		case http.MethodPost:
			return Route{Kind: RouteMediaWrite, Key: key}
		default:
			return Route{Kind: RouteMethodNotAllowed, Key: key}
		}
	}

	return Route{Kind: RouteUnknown}
}
