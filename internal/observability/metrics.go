package observability

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var defaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Model calls run much longer than plain handlers.
var llmDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30}

type histogram struct {
	buckets []float64
	counts  []uint64
	count   uint64
	sum     float64
}

func newHistogram(buckets []float64) *histogram {
	copyBuckets := make([]float64, len(buckets))
	copy(copyBuckets, buckets)
	return &histogram{
		buckets: copyBuckets,
		counts:  make([]uint64, len(copyBuckets)),
	}
}

func (h *histogram) observe(value float64) {
	if h == nil {
		return
	}
	if value < 0 {
		value = 0
	}
	for idx, bucket := range h.buckets {
		if value <= bucket {
			h.counts[idx]++
			break
		}
	}
	h.count++
	h.sum += value
}

type apiRequestKey struct {
	route  string
	method string
	status string
}

type apiDurationKey struct {
	route  string
	method string
}

type llmRequestKey struct {
	operation string
	outcome   string
}

type APIMetrics struct {
	mu            sync.RWMutex
	httpRequests  map[apiRequestKey]uint64
	httpDurations map[apiDurationKey]*histogram
	llmRequests   map[llmRequestKey]uint64
	llmDurations  map[string]*histogram
	fallbacks     map[string]uint64
	rateLimited   map[string]uint64
	topicStoreOps *histogram
}

func NewAPIMetrics() *APIMetrics {
	return &APIMetrics{
		httpRequests:  map[apiRequestKey]uint64{},
		httpDurations: map[apiDurationKey]*histogram{},
		llmRequests:   map[llmRequestKey]uint64{},
		llmDurations:  map[string]*histogram{},
		fallbacks:     map[string]uint64{},
		rateLimited:   map[string]uint64{},
		topicStoreOps: newHistogram(defaultDurationBuckets),
	}
}

func (m *APIMetrics) ObserveHTTPRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := apiRequestKey{
		route:  normalizeMetricValue(route, "unknown"),
		method: normalizeMetricValue(strings.ToUpper(strings.TrimSpace(method)), "UNKNOWN"),
		status: normalizeMetricValue(strconv.Itoa(status), "0"),
	}
	durationKey := apiDurationKey{route: key.route, method: key.method}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.httpRequests[key]++
	h, exists := m.httpDurations[durationKey]
	if !exists {
		h = newHistogram(defaultDurationBuckets)
		m.httpDurations[durationKey] = h
	}
	h.observe(duration.Seconds())
}

// ObserveLLMRequest records one model call. outcome is "ok" or "error".
func (m *APIMetrics) ObserveLLMRequest(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	key := llmRequestKey{
		operation: normalizeMetricValue(operation, "unknown"),
		outcome:   normalizeMetricValue(outcome, "unknown"),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.llmRequests[key]++
	h, exists := m.llmDurations[key.operation]
	if !exists {
		h = newHistogram(llmDurationBuckets)
		m.llmDurations[key.operation] = h
	}
	h.observe(duration.Seconds())
}

func (m *APIMetrics) IncFallback(tier string) {
	if m == nil {
		return
	}
	clean := normalizeMetricValue(tier, "unknown")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[clean]++
}

func (m *APIMetrics) IncRateLimited(endpoint string) {
	if m == nil {
		return
	}
	clean := normalizeMetricValue(endpoint, "unknown")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimited[clean]++
}

func (m *APIMetrics) ObserveTopicStore(duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topicStoreOps.observe(duration.Seconds())
}

func (m *APIMetrics) Render() string {
	if m == nil {
		return ""
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var sb strings.Builder

	sb.WriteString("# HELP http_requests_total Total HTTP requests handled by API.\n")
	sb.WriteString("# TYPE http_requests_total counter\n")
	httpRequestKeys := make([]apiRequestKey, 0, len(m.httpRequests))
	for key := range m.httpRequests {
		httpRequestKeys = append(httpRequestKeys, key)
	}
	sort.Slice(httpRequestKeys, func(i, j int) bool {
		if httpRequestKeys[i].route != httpRequestKeys[j].route {
			return httpRequestKeys[i].route < httpRequestKeys[j].route
		}
		if httpRequestKeys[i].method != httpRequestKeys[j].method {
			return httpRequestKeys[i].method < httpRequestKeys[j].method
		}
		return httpRequestKeys[i].status < httpRequestKeys[j].status
	})
	for _, key := range httpRequestKeys {
		labels := map[string]string{
			"route":  key.route,
			"method": key.method,
			"status": key.status,
		}
		writeSample(&sb, "http_requests_total", labels, strconv.FormatUint(m.httpRequests[key], 10))
	}

	sb.WriteString("# HELP http_request_duration_seconds HTTP request latency in seconds.\n")
	sb.WriteString("# TYPE http_request_duration_seconds histogram\n")
	httpDurationKeys := make([]apiDurationKey, 0, len(m.httpDurations))
	for key := range m.httpDurations {
		httpDurationKeys = append(httpDurationKeys, key)
	}
	sort.Slice(httpDurationKeys, func(i, j int) bool {
		if httpDurationKeys[i].route != httpDurationKeys[j].route {
			return httpDurationKeys[i].route < httpDurationKeys[j].route
		}
		return httpDurationKeys[i].method < httpDurationKeys[j].method
	})
	for _, key := range httpDurationKeys {
		labels := map[string]string{
			"route":  key.route,
			"method": key.method,
		}
		renderHistogramSeries(&sb, "http_request_duration_seconds", labels, m.httpDurations[key])
	}

	sb.WriteString("# HELP llm_requests_total Model calls by operation and outcome.\n")
	sb.WriteString("# TYPE llm_requests_total counter\n")
	llmKeys := make([]llmRequestKey, 0, len(m.llmRequests))
	for key := range m.llmRequests {
		llmKeys = append(llmKeys, key)
	}
	sort.Slice(llmKeys, func(i, j int) bool {
		if llmKeys[i].operation != llmKeys[j].operation {
			return llmKeys[i].operation < llmKeys[j].operation
		}
		return llmKeys[i].outcome < llmKeys[j].outcome
	})
	for _, key := range llmKeys {
		labels := map[string]string{"operation": key.operation, "outcome": key.outcome}
		writeSample(&sb, "llm_requests_total", labels, strconv.FormatUint(m.llmRequests[key], 10))
	}

	sb.WriteString("# HELP llm_request_duration_seconds Model call latency in seconds.\n")
	sb.WriteString("# TYPE llm_request_duration_seconds histogram\n")
	for _, operation := range sortedKeys(m.llmDurations) {
		renderHistogramSeries(&sb, "llm_request_duration_seconds", map[string]string{"operation": operation}, m.llmDurations[operation])
	}

	sb.WriteString("# HELP debate_fallbacks_total Debate replies served by a fallback tier.\n")
	sb.WriteString("# TYPE debate_fallbacks_total counter\n")
	for _, tier := range sortedKeys(m.fallbacks) {
		writeSample(&sb, "debate_fallbacks_total", map[string]string{"tier": tier}, strconv.FormatUint(m.fallbacks[tier], 10))
	}

	sb.WriteString("# HELP rate_limited_total Requests rejected by the per-IP limiter.\n")
	sb.WriteString("# TYPE rate_limited_total counter\n")
	for _, endpoint := range sortedKeys(m.rateLimited) {
		writeSample(&sb, "rate_limited_total", map[string]string{"endpoint": endpoint}, strconv.FormatUint(m.rateLimited[endpoint], 10))
	}

	sb.WriteString("# HELP topic_store_duration_seconds Topic store operation latency in seconds.\n")
	sb.WriteString("# TYPE topic_store_duration_seconds histogram\n")
	renderHistogramSeries(&sb, "topic_store_duration_seconds", map[string]string{}, m.topicStoreOps)

	return sb.String()
}

func writeSample(sb *strings.Builder, metricName string, labels map[string]string, value string) {
	sb.WriteString(metricName)
	sb.WriteString(formatLabels(labels))
	sb.WriteString(" ")
	sb.WriteString(value)
	sb.WriteString("\n")
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func renderHistogramSeries(sb *strings.Builder, metricName string, labels map[string]string, h *histogram) {
	if sb == nil || h == nil {
		return
	}

	cumulative := uint64(0)
	for idx, bucket := range h.buckets {
		cumulative += h.counts[idx]
		withLE := cloneLabels(labels)
		withLE["le"] = strconv.FormatFloat(bucket, 'g', -1, 64)
		writeSample(sb, metricName+"_bucket", withLE, strconv.FormatUint(cumulative, 10))
	}

	withInf := cloneLabels(labels)
	withInf["le"] = "+Inf"
	writeSample(sb, metricName+"_bucket", withInf, strconv.FormatUint(h.count, 10))
	writeSample(sb, metricName+"_sum", labels, strconv.FormatFloat(h.sum, 'g', -1, 64))
	writeSample(sb, metricName+"_count", labels, strconv.FormatUint(h.count, 10))
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+`="`+escapeLabelValue(labels[key])+`"`)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func cloneLabels(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels))
	for key, value := range labels {
		out[key] = value
	}
	return out
}

func escapeLabelValue(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "\n", `\n`, `"`, `\"`)
	return replacer.Replace(value)
}

func normalizeMetricValue(value, fallback string) string {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return fallback
	}
	return clean
}
