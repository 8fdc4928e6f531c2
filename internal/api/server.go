package api

import (
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"debatearena/internal/config"
	"debatearena/internal/debate"
	"debatearena/internal/events"
	"debatearena/internal/observability"
	"debatearena/internal/topics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	cfg          config.Config
	debate       *debate.Service
	topics       topics.Store
	events       *events.Recorder
	logger       *observability.Logger
	metrics      *observability.APIMetrics
	modelLimiter *ipRateLimiter
	writeLimiter *ipRateLimiter
	now          func() time.Time
}

// Deps are the collaborators a Server needs. Debate and Topics are required;
// the rest default to no-ops.
type Deps struct {
	Debate  *debate.Service
	Topics  topics.Store
	Events  *events.Recorder
	Logger  *observability.Logger
	Metrics *observability.APIMetrics
}

type ipRateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]rateLimitBucket
}

type rateLimitBucket struct {
	count       int
	windowStart time.Time
}

func New(cfg config.Config, deps Deps) *Server {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NewAPIMetrics()
	}
	return &Server{
		cfg:          cfg,
		debate:       deps.Debate,
		topics:       deps.Topics,
		events:       deps.Events,
		logger:       deps.Logger,
		metrics:      metrics,
		modelLimiter: newIPRateLimiter(cfg.RateLimitPerMinute, time.Minute),
		writeLimiter: newIPRateLimiter(cfg.RateLimitPerMinute, time.Minute),
		now:          time.Now,
	}
}

func newIPRateLimiter(limit int, window time.Duration) *ipRateLimiter {
	return &ipRateLimiter{
		limit:   limit,
		window:  window,
		buckets: map[string]rateLimitBucket{},
	}
}

// allow reports whether key may make another request in the current window.
// A non-positive limit disables limiting.
func (rl *ipRateLimiter) allow(key string, now time.Time) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, exists := rl.buckets[key]
	if !exists || now.Sub(bucket.windowStart) >= rl.window {
		rl.buckets[key] = rateLimitBucket{
			count:       1,
			windowStart: now,
		}
		rl.gc(now)
		return true
	}

	if bucket.count >= rl.limit {
		return false
	}
	bucket.count++
	rl.buckets[key] = bucket
	return true
}

func (rl *ipRateLimiter) gc(now time.Time) {
	for key, bucket := range rl.buckets {
		if now.Sub(bucket.windowStart) >= rl.window*2 {
			delete(rl.buckets, key)
		}
	}
}

func (s *Server) rateLimitMiddleware(limiter *ipRateLimiter, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(requestClientIP(r), s.now()) {
				s.writeRateLimitResponse(w, r, "", message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if strings.TrimSpace(r.RemoteAddr) != "" {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return "unknown"
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestObservabilityMiddleware)
	r.Use(s.recoverJSONMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(s.maxBodyBytesMiddleware(s.cfg.RequestBodyMaxBytes))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.securityHeadersMiddleware)
		r.Use(s.requestContextTimeoutMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimitMiddleware(s.modelLimiter, "Too many requests, slow down"))
			r.Post("/ai-response", s.handleAIResponse)
			r.Post("/score-response", s.handleScoreResponse)
			r.Post("/introduction", s.handleIntroduction)
		})

		r.Get("/custom-topics", s.handleListTopics)
		r.With(s.rateLimitMiddleware(s.writeLimiter, "Too many topics saved, try again later")).
			Post("/save-topic", s.handleSaveTopic)
		r.With(s.rateLimitMiddleware(s.writeLimiter, "Too many room tokens requested")).
			Post("/livekit-token", s.handleRoomToken)

		r.Get("/models", s.handleModels)
		r.Get("/characters", s.handleCharacters)
		r.Get("/health", s.handleHealth)
	})

	if dir := strings.TrimSpace(s.cfg.StaticDir); dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			r.Handle("/*", staticHandler(dir))
		} else {
			s.logger.Warn("static_dir_unavailable", observability.Fields{"static_dir": dir, "error": err})
		}
	}

	return r
}

func staticHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
