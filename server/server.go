package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/lguibr/bombgrid/game"
	"github.com/lguibr/bombgrid/utils"
)

// Server is the network side of the game: it turns websocket frames into
// queued actions and exposes read-only state over HTTP.
type Server struct {
	cfg       utils.Config
	queue     *game.ActionQueue
	snapshots *game.Snapshots
	logger    *slog.Logger
	newID     func() string
}

// New returns a Server feeding queue and reading snapshots.
func New(cfg utils.Config, queue *game.ActionQueue, snapshots *game.Snapshots, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		queue:     queue,
		snapshots: snapshots,
		logger:    logger.With("component", "server"),
		newID:     uuid.NewString,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.HandleHealth)
	r.Get("/state", s.HandleGetState)
	r.Get("/state.txt", s.HandleGetStateText)
	r.Handle("/subscribe", s.SubscribeHandler())

	return r
}

// requestLogger logs one line per request except websocket upgrades, which
// log their own session lifecycle.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// originAllowed reports whether a websocket handshake from origin may
// proceed. "*" admits every origin, including none.
func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || (origin != "" && strings.EqualFold(allowed, origin)) {
			return true
		}
	}
	return false
}
