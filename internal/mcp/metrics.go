package mcp

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector tracks the counters and gauges exposed on metrics_port
// in Prometheus text format. Hand-rolled rather than a client library,
// since nothing in this server's dependency tree touches a metrics client
// and the exposition format is a handful of text lines.
type MetricsCollector struct {
	startTime time.Time

	searchTotal     *metricsCounter
	searchDuration  *metricsHistogram
	indexTotal      *metricsCounter
	indexDuration   *metricsHistogram
	toolErrorsTotal *metricsCounter

	symbolsTotal    *metricsGauge
	chunksTotal     *metricsGauge
	embeddingsTotal *metricsGauge
}

type metricsCounter struct {
	name   string
	help   string
	labels []string
	values sync.Map // label key -> *uint64
}

type metricsGauge struct {
	name   string
	help   string
	values sync.Map // "" -> *float64, single unlabeled value
}

type metricsHistogram struct {
	name    string
	help    string
	labels  []string
	buckets []float64
	values  sync.Map // label key -> *histogramValue
}

type histogramValue struct {
	mu      sync.Mutex
	sum     float64
	count   uint64
	buckets []uint64
}

// NewMetricsCollector wires up the fixed set of counters/gauges this server
// reports. Labels are kept narrow (tool name, mode) since the exposition
// endpoint is scraped locally, not fanned out across a cluster.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startTime: time.Now(),
		searchTotal: &metricsCounter{
			name: "codeintel_search_total", help: "Total number of search_code invocations",
			labels: []string{"mode"},
		},
		searchDuration: &metricsHistogram{
			name: "codeintel_search_duration_seconds", help: "search_code latency in seconds",
			labels:  []string{"mode"},
			buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		indexTotal: &metricsCounter{
			name: "codeintel_index_runs_total", help: "Total number of index_codebase runs",
		},
		indexDuration: &metricsHistogram{
			name: "codeintel_index_duration_seconds", help: "Full index run latency in seconds",
			buckets: []float64{0.5, 1, 5, 10, 30, 60, 300},
		},
		toolErrorsTotal: &metricsCounter{
			name: "codeintel_tool_errors_total", help: "Total number of index_codebase and search_code calls that failed in indexing or search",
			labels: []string{"tool"},
		},
		symbolsTotal:    &metricsGauge{name: "codeintel_symbols_total", help: "Indexed symbols in the active project"},
		chunksTotal:     &metricsGauge{name: "codeintel_chunks_total", help: "Indexed chunks in the active project"},
		embeddingsTotal: &metricsGauge{name: "codeintel_embeddings_total", help: "Stored embeddings in the active project"},
	}
}

func (m *MetricsCollector) RecordSearch(mode string, d time.Duration) {
	m.searchTotal.inc(mode)
	m.searchDuration.observe(d.Seconds(), mode)
}

func (m *MetricsCollector) RecordIndexRun(d time.Duration) {
	m.indexTotal.inc()
	m.indexDuration.observe(d.Seconds())
}

func (m *MetricsCollector) RecordToolError(tool string) {
	m.toolErrorsTotal.inc(tool)
}

func (m *MetricsCollector) SetProjectCounts(symbols, chunks, embeddings int64) {
	m.symbolsTotal.set(float64(symbols))
	m.chunksTotal.set(float64(chunks))
	m.embeddingsTotal.set(float64(embeddings))
}

// WritePrometheus renders the current values in Prometheus text exposition
// format (version 0.0.4).
func (m *MetricsCollector) WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	fmt.Fprintf(w, "# HELP codeintel_uptime_seconds Time since the server started\n")
	fmt.Fprintf(w, "# TYPE codeintel_uptime_seconds counter\n")
	fmt.Fprintf(w, "codeintel_uptime_seconds %.3f\n\n", time.Since(m.startTime).Seconds())

	m.searchTotal.write(w)
	m.indexTotal.write(w)
	m.toolErrorsTotal.write(w)
	m.searchDuration.write(w)
	m.indexDuration.write(w)
	m.symbolsTotal.write(w)
	m.chunksTotal.write(w)
	m.embeddingsTotal.write(w)
}

func (c *metricsCounter) inc(labelValues ...string) {
	key := labelsKey(c.labels, labelValues)
	val, _ := c.values.LoadOrStore(key, new(uint64))
	atomic.AddUint64(val.(*uint64), 1)
}

func (c *metricsCounter) write(w http.ResponseWriter) {
	fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help)
	fmt.Fprintf(w, "# TYPE %s counter\n", c.name)
	keys := sortedKeys(&c.values)
	for _, key := range keys {
		val, _ := c.values.Load(key)
		fmt.Fprintf(w, "%s%s %d\n", c.name, key, atomic.LoadUint64(val.(*uint64)))
	}
	fmt.Fprintln(w)
}

func (g *metricsGauge) set(v float64) {
	ptr := new(float64)
	*ptr = v
	g.values.Store("", ptr)
}

func (g *metricsGauge) write(w http.ResponseWriter) {
	fmt.Fprintf(w, "# HELP %s %s\n", g.name, g.help)
	fmt.Fprintf(w, "# TYPE %s gauge\n", g.name)
	if val, ok := g.values.Load(""); ok {
		fmt.Fprintf(w, "%s %.6f\n", g.name, *val.(*float64))
	}
	fmt.Fprintln(w)
}

func (h *metricsHistogram) observe(value float64, labelValues ...string) {
	key := labelsKey(h.labels, labelValues)
	val, _ := h.values.LoadOrStore(key, &histogramValue{buckets: make([]uint64, len(h.buckets)+1)})
	hv := val.(*histogramValue)

	hv.mu.Lock()
	defer hv.mu.Unlock()
	hv.sum += value
	hv.count++
	idx := len(h.buckets)
	for i, bound := range h.buckets {
		if value <= bound {
			idx = i
			break
		}
	}
	hv.buckets[idx]++
}

func (h *metricsHistogram) write(w http.ResponseWriter) {
	fmt.Fprintf(w, "# HELP %s %s\n", h.name, h.help)
	fmt.Fprintf(w, "# TYPE %s histogram\n", h.name)
	keys := sortedKeys(&h.values)
	for _, key := range keys {
		val, _ := h.values.Load(key)
		hv := val.(*histogramValue)
		hv.mu.Lock()
		cumulative := uint64(0)
		for i, bound := range h.buckets {
			cumulative += hv.buckets[i]
			fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(key, fmt.Sprintf("%.3f", bound)), cumulative)
		}
		cumulative += hv.buckets[len(h.buckets)]
		fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(key, "+Inf"), cumulative)
		fmt.Fprintf(w, "%s_sum%s %.6f\n", h.name, key, hv.sum)
		fmt.Fprintf(w, "%s_count%s %d\n", h.name, key, hv.count)
		hv.mu.Unlock()
	}
	fmt.Fprintln(w)
}

func withLe(key, bound string) string {
	if key == "" {
		return fmt.Sprintf("{le=\"%s\"}", bound)
	}
	return key[:len(key)-1] + fmt.Sprintf(",le=\"%s\"}", bound)
}

func labelsKey(labels, values []string) string {
	if len(labels) == 0 || len(values) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(labels))
	for i, label := range labels {
		if i < len(values) {
			pairs = append(pairs, fmt.Sprintf("%s=%q", label, values[i]))
		}
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

func sortedKeys(m *sync.Map) []string {
	var keys []string
	m.Range(func(key, _ interface{}) bool {
		keys = append(keys, key.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

// startMetricsServer launches the /metrics listener in the background when
// metrics_enabled is set. It returns a shutdown func that the caller should
// defer to close the listener on server exit.
func (s *Server) startMetricsServer() func(context.Context) error {
	if !s.cfg.MetricsEnabled || s.cfg.MetricsPort <= 0 {
		return func(context.Context) error { return nil }
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.metrics.WritePrometheus(w)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.cfg.MetricsPort),
		Handler: mux,
	}
	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv.Shutdown
}
