package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sagarc03/mediagate"
)

// DefaultAPIPrefix is where the API is mounted when no prefix is configured.
const DefaultAPIPrefix = "/api"

type Service interface {
	Get(ctx context.Context, key string) (mediagate.MetaData, io.ReadSeekCloser, error)
	Create(ctx context.Context, obj mediagate.CreateObject, content io.Reader) (mediagate.MetaData, error)
}

type Records interface {
	CreateUser(ctx context.Context, u mediagate.NewUser) (mediagate.User, error)
	ListUsers(ctx context.Context) ([]mediagate.User, error)
	CreateTodo(ctx context.Context, t mediagate.NewTodo) (mediagate.Todo, error)
	ListTodos(ctx context.Context, userID int64) ([]mediagate.Todo, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	APIPrefix     string        // Mount point of the API (default: /api)
	UploadAuth    TokenVerifier // Checks upload bearer tokens; nil rejects every upload
	CacheMaxAge   int           // max-age in seconds for video and image responses
	MediaRanges   bool          // Honour Range headers on the media route
	MaxUploadSize int64         // Upload body cap in bytes; 0 disables the cap
	SpoolDir      string        // Directory for spooled upload parts (default: os.TempDir)
	CORS          CORSConfig
	Logger        *slog.Logger // Request log destination (default: slog.Default)
}

// Handler provides the HTTP surface of the gateway.
type Handler struct {
	config  HandlerConfig
	service Service
	records Records
	upload  http.Handler
}

// NewHandler creates a new Handler. records may be nil, in which case the
// record routes are not mounted.
func NewHandler(config *HandlerConfig, service Service, records Records) *Handler {
	h := &Handler{
		config:  *config,
		service: service,
		records: records,
	}

	h.config.APIPrefix = normalizePrefix(h.config.APIPrefix)
	h.config.CacheMaxAge = max(0, h.config.CacheMaxAge)
	if h.config.Logger == nil {
		h.config.Logger = slog.Default()
	}

	h.upload = BearerAuth(h.config.UploadAuth)(http.HandlerFunc(h.handleUpload))

	return h
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return DefaultAPIPrefix
	}
	return "/" + prefix
}

// Router returns an http.Handler serving the API under the configured prefix.
// Requests to /video and /media are dispatched through Classify, so methods
// chi does not know about still reach the video route. Everything outside the
// prefix gets the HTML not-found page.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.config.Logger))
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(h.handlePageNotFound)
	r.MethodNotAllowed(h.dispatch)

	r.Route(h.config.APIPrefix, func(r chi.Router) {
		r.NotFound(h.handleAPINotFound)
		r.MethodNotAllowed(h.dispatch)

		r.HandleFunc(videoPrefix+"*", h.dispatch)
		r.HandleFunc(mediaPrefix+"*", h.dispatch)

		if h.records != nil {
			r.Get("/users", h.handleListUsers)
			r.Post("/users", h.handleCreateUser)
			r.Get("/todos", h.handleListTodos)
			r.Post("/todos", h.handleCreateTodo)
		}
	})

	return r
}

// apiPath returns the request path relative to the API prefix.
func (h *Handler) apiPath(p string) (string, bool) {
	if p == h.config.APIPrefix {
		return "/", true
	}
	rel, ok := strings.CutPrefix(p, h.config.APIPrefix)
	if !ok || !strings.HasPrefix(rel, "/") {
		return "", false
	}
	return rel, true
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	rel, ok := h.apiPath(r.URL.Path)
	if !ok {
		h.handlePageNotFound(w, r)
		return
	}

	route := Classify(r.Method, rel)
	switch route.Kind {
	case RouteVideoStream:
		h.serveObject(w, r, route.Key, true)
	case RouteMediaRead:
		h.serveObject(w, r, route.Key, false)
	case RouteMediaWrite:
		h.upload.ServeHTTP(w, r)
	case RouteMethodNotAllowed:
		w.Header().Set("Allow", mediaAllow)
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method "+r.Method+" is not allowed")
	default:
		h.handleAPINotFound(w, r)
	}
}

func (h *Handler) handleAPINotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "Route not found")
}

func (h *Handler) handlePageNotFound(w http.ResponseWriter, _ *http.Request) {
	writeDefaultNotFound(w)
}
