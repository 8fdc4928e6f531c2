package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"debatearena/internal/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const metricsContentType = "text/plain; version=0.0.4; charset=utf-8"

func (s *Server) requestObservabilityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(wrapped, r)

		status := wrapped.Status()
		if status == 0 {
			status = http.StatusOK
		}
		latency := time.Since(startedAt)
		route := routePatternFromRequest(r)

		s.metrics.ObserveHTTPRequest(route, r.Method, status, latency)

		s.logger.Info("http_request", observability.Fields{
			"request_id": requestIDFromRequest(r),
			"route":      route,
			"method":     strings.ToUpper(strings.TrimSpace(r.Method)),
			"status":     status,
			"latency_ms": latency.Milliseconds(),
		})
	})
}

func (s *Server) recoverJSONMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("panic_recovered", observability.Fields{
					"request_id": requestIDFromRequest(r),
					"route":      routePatternFromRequest(r),
					"method":     strings.ToUpper(strings.TrimSpace(r.Method)),
					"status":     http.StatusInternalServerError,
					"panic":      fmt.Sprint(rec),
					"stack":      string(debug.Stack()),
				})
				writeInternalError(w, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleReadyz fails while the topic store cannot be read.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.checkReady(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", metricsContentType)
	_, _ = w.Write([]byte(s.metrics.Render()))
}

func (s *Server) checkReady(ctx context.Context) error {
	if s.debate == nil {
		return fmt.Errorf("debate service is not configured")
	}
	if s.topics == nil {
		return fmt.Errorf("topic store is not configured")
	}
	if _, err := s.listTopics(ctx); err != nil {
		return fmt.Errorf("topic store unavailable: %w", err)
	}
	return nil
}

func routePatternFromRequest(r *http.Request) string {
	if r == nil {
		return "unknown"
	}
	ctx := chi.RouteContext(r.Context())
	if ctx == nil {
		return "unmatched"
	}
	pattern := strings.TrimSpace(ctx.RoutePattern())
	if pattern == "" {
		return "unmatched"
	}
	return pattern
}

func requestIDFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(middleware.GetReqID(r.Context()))
}
