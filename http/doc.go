// Package http provides the HTTP surface of the mediagate media gateway.
//
// The API is mounted under a configurable prefix (default /api):
//
//   - /video/{key}: streams an object as video/mp4 for any method, with byte
//     range support and a long cache lifetime
//   - /media/{key}: GET serves an object, POST stores one from a multipart
//     form; other methods get 405
//   - /users and /todos: JSON record routes, mounted when a Records
//     implementation is supplied
//
// Requests under /video and /media are dispatched by Classify, a pure function
// of method and path. Paths outside the prefix get an HTML 404 page, unknown
// API paths a JSON error.
//
// # Uploads
//
// Uploads require an Authorization: Bearer token accepted by the configured
// TokenVerifier. The form is read part by part: a filename field sent before
// the file part lets the file stream directly into storage, otherwise the
// file is spooled to a temporary file until the form is complete.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    APIPrefix:   "/api",
//	    UploadAuth:  mediagate.NewSharedSecret(secret),
//	    CacheMaxAge: 31536000,
//	}
//	handler := http.NewHandler(&handlerCfg, service, records)
//	server := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
//
// Errors are written as {"error": code, "message": text}; see HandleError for
// the status mapping.
package http
