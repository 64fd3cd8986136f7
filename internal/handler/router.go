package handler

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/tradingpit/tradingpit/internal/game"
	"github.com/tradingpit/tradingpit/internal/ws"
)

// NewRouter creates a chi router with all routes registered, request
// logging, and CORS. Sessions are created lazily on first websocket
// connection; the REST surface only reads published snapshots.
func NewRouter(registry *game.Registry, corsOrigin string, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(requestLogging(logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{corsOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}).Handler)

	sessionH := NewSessionHandler(registry)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Read-only session views.
	r.Get("/sessions/{session_id}", sessionH.GetSession)
	r.Get("/sessions/{session_id}/book/{symbol}", sessionH.GetBook)
	r.Get("/sessions/{session_id}/trades/{symbol}", sessionH.GetTrades)
	r.Get("/sessions/{session_id}/history/{symbol}", sessionH.GetHistory)

	// Game channel.
	r.Get("/ws/{session_id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "session_id")
		session, err := registry.GetOrCreate(id)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		ws.Serve(session, logger, w, r)
	})

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Hijack passes through to the underlying writer so websocket upgrades work
// behind the logging middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}
