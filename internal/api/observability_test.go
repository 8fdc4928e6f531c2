package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"debatearena/internal/debate"
	"debatearena/internal/observability"
	"debatearena/internal/topics"
)

func TestMetricsEndpointIncludesHTTPRequestsTotal(t *testing.T) {
	ts := newTestServer(t, testConfig(), &stubLLM{}, nil)

	healthRecorder, _ := ts.do(t, http.MethodGet, "/healthz", nil)
	if healthRecorder.Code != http.StatusOK {
		t.Fatalf("expected /healthz 200, got %d", healthRecorder.Code)
	}

	metricsReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRecorder := httptest.NewRecorder()
	ts.router.ServeHTTP(metricsRecorder, metricsReq)
	if metricsRecorder.Code != http.StatusOK {
		t.Fatalf("expected /metrics 200, got %d", metricsRecorder.Code)
	}

	body := metricsRecorder.Body.String()
	if !strings.Contains(body, `http_requests_total{method="GET",route="/healthz",status="200"} 1`) {
		t.Fatalf("expected metrics output to include the healthz request, got: %s", body)
	}
}

func TestFallbackIsCountedInMetrics(t *testing.T) {
	metrics := observability.NewAPIMetrics()
	service := debate.NewService(debate.Options{LLM: nil, Metrics: metrics})
	server := New(testConfig(), Deps{
		Debate:  service,
		Topics:  topics.NewFileStore(t.TempDir() + "/topics.json"),
		Metrics: metrics,
	})
	router := server.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/ai-response",
		strings.NewReader(`{"userMessage":"Cats are independent","topic":"Cats are better than dogs"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if !strings.Contains(metrics.Render(), `debate_fallbacks_total{tier="local"} 1`) {
		t.Fatalf("expected local fallback to be counted:\n%s", metrics.Render())
	}
}

func TestRequestsAreLoggedWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLoggerTo("api-test", &buf)
	server := New(testConfig(), Deps{
		Debate: debate.NewService(debate.Options{}),
		Topics: topics.NewFileStore(t.TempDir() + "/topics.json"),
		Logger: logger,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	out := buf.String()
	if !strings.Contains(out, `"msg":"http_request"`) || !strings.Contains(out, `"request_id":"req-42"`) {
		t.Fatalf("expected http_request log with request id, got %s", out)
	}
	if !strings.Contains(out, `"route":"/api/models"`) {
		t.Fatalf("expected route pattern in log, got %s", out)
	}
}

func TestRecoverMiddlewareWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	server := New(testConfig(), Deps{Logger: observability.NewLoggerTo("api-test", &buf)})

	handler := server.recoverJSONMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "panic_recovered") {
		t.Fatalf("expected panic to be logged, got %s", buf.String())
	}
}
