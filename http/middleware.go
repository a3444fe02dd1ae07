package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// TokenVerifier checks the value of an Authorization header.
// mediagate.SharedSecret implements it.
type TokenVerifier interface {
	Verify(authorization string) error
}

// TokenIdentifier is implemented by verifiers that can name the credential a
// request presented, such as keybackend.Keyring.
type TokenIdentifier interface {
	Identify(authorization string) (string, error)
}

type tokenNameKey struct{}

// TokenName returns the credential name BearerAuth stored in ctx, if any.
func TokenName(ctx context.Context) string {
	name, _ := ctx.Value(tokenNameKey{}).(string)
	return name
}

func checkToken(r *http.Request, verifier TokenVerifier) (*http.Request, error) {
	header := r.Header.Get("Authorization")

	id, ok := verifier.(TokenIdentifier)
	if !ok {
		return r, verifier.Verify(header)
	}

	name, err := id.Identify(header)
	if err != nil {
		return r, err
	}
	return r.WithContext(context.WithValue(r.Context(), tokenNameKey{}, name)), nil
}

// BearerAuth creates middleware that rejects requests whose Authorization
// header fails verification. A nil verifier rejects every request. The request
// body is never read before the check passes.
func BearerAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				HandleError(w, errUploadsDisabled)
				return
			}

			r, err := checkToken(r, verifier)
			if err != nil {
				HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger emits one record per exchange once the handler returns.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			logger.LogAttrs(r.Context(), level, "request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
