package metrics

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrLabelCountMismatch is returned when the number of label values doesn't
// match the metric's declared labels.
var ErrLabelCountMismatch = errors.New("label count mismatch")

// ErrDuplicateMetric is raised when registering a metric under a name that is
// already taken.
var ErrDuplicateMetric = errors.New("duplicate metric name")

// atomicFloat64 stores float64 bits in a uint64 for atomic access.
type atomicFloat64 struct {
	bits uint64
}

func (a *atomicFloat64) Load() float64 {
	return math.Float64frombits(atomic.LoadUint64(&a.bits))
}

func (a *atomicFloat64) Store(val float64) {
	atomic.StoreUint64(&a.bits, math.Float64bits(val))
}

func (a *atomicFloat64) Add(delta float64) {
	for {
		old := atomic.LoadUint64(&a.bits)
		next := math.Float64frombits(old) + delta
		if atomic.CompareAndSwapUint64(&a.bits, old, math.Float64bits(next)) {
			return
		}
	}
}

// MetricType is the Prometheus metric type.
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeGauge   MetricType = "gauge"
)

// Metric is implemented by all metric kinds in the registry.
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	Collect() []Sample
}

// Sample is one exposition line: a value under a label combination.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

type labeledValue struct {
	labels map[string]string
	value  atomicFloat64
}

// vecMap holds per-label-combination values shared by Counter and Gauge.
type vecMap struct {
	labelNames []string
	mu         sync.RWMutex
	values     map[string]*labeledValue
}

func newVecMap(labelNames []string) vecMap {
	return vecMap{labelNames: labelNames, values: make(map[string]*labeledValue)}
}

func (m *vecMap) get(name string, values []string) (*labeledValue, error) {
	if len(values) != len(m.labelNames) {
		return nil, fmt.Errorf("%w: %s expected %d labels, got %d",
			ErrLabelCountMismatch, name, len(m.labelNames), len(values))
	}
	key := strings.Join(values, "\x00")
	m.mu.RLock()
	lv, ok := m.values[key]
	m.mu.RUnlock()
	if ok {
		return lv, nil
	}

	labels := make(map[string]string, len(m.labelNames))
	for i, n := range m.labelNames {
		labels[n] = values[i]
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if lv, ok = m.values[key]; !ok {
		lv = &labeledValue{labels: labels}
		m.values[key] = lv
	}
	return lv, nil
}

func (m *vecMap) collect(name string) []Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	samples := make([]Sample, 0, len(m.values))
	for _, lv := range m.values {
		samples = append(samples, Sample{Name: name, Labels: lv.labels, Value: lv.value.Load()})
	}
	return samples
}

// Counter is a monotonically increasing metric.
type Counter struct {
	name string
	help string
	vec  vecMap
}

func (c *Counter) Name() string     { return c.name }
func (c *Counter) Help() string     { return c.help }
func (c *Counter) Type() MetricType { return MetricTypeCounter }

// Inc increments the unlabeled counter by 1.
func (c *Counter) Inc() {
	c.IncWith()
}

// IncWith increments the counter for the given label values. Mismatched label
// counts are a programming error and are dropped.
func (c *Counter) IncWith(labelValues ...string) {
	lv, err := c.vec.get(c.name, labelValues)
	if err != nil {
		return
	}
	lv.value.Add(1)
}

// Collect returns all samples.
func (c *Counter) Collect() []Sample {
	return c.vec.collect(c.name)
}

// Gauge is a metric that can go up and down.
type Gauge struct {
	name string
	help string
	vec  vecMap
}

func (g *Gauge) Name() string     { return g.name }
func (g *Gauge) Help() string     { return g.help }
func (g *Gauge) Type() MetricType { return MetricTypeGauge }

// Set sets the unlabeled gauge.
func (g *Gauge) Set(v float64) {
	g.SetWith(v)
}

// SetWith sets the gauge for the given label values.
func (g *Gauge) SetWith(v float64, labelValues ...string) {
	lv, err := g.vec.get(g.name, labelValues)
	if err != nil {
		return
	}
	lv.value.Store(v)
}

// Add adjusts the unlabeled gauge by delta.
func (g *Gauge) Add(delta float64) {
	lv, err := g.vec.get(g.name, nil)
	if err != nil {
		return
	}
	lv.value.Add(delta)
}

// Collect returns all samples.
func (g *Gauge) Collect() []Sample {
	return g.vec.collect(g.name)
}

// Registry holds registered metrics and serves them in Prometheus text
// format.
type Registry struct {
	mu      sync.RWMutex
	names   map[string]struct{}
	metrics []Metric
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// NewCounter creates and registers a counter.
func (r *Registry) NewCounter(name, help string, labels ...string) *Counter {
	c := &Counter{name: name, help: help, vec: newVecMap(labels)}
	r.register(c)
	return c
}

// NewGauge creates and registers a gauge.
func (r *Registry) NewGauge(name, help string, labels ...string) *Gauge {
	g := &Gauge{name: name, help: help, vec: newVecMap(labels)}
	r.register(g)
	return g
}

// register panics on duplicate names: duplicates would produce invalid
// Prometheus output.
func (r *Registry) register(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[m.Name()]; exists {
		panic(fmt.Sprintf("%s: %s", ErrDuplicateMetric, m.Name()))
	}
	r.names[m.Name()] = struct{}{}
	r.metrics = append(r.metrics, m)
}

// Handler serves the registry in Prometheus text exposition format 0.0.4.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		r.mu.RLock()
		metrics := make([]Metric, len(r.metrics))
		copy(metrics, r.metrics)
		r.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		for _, m := range metrics {
			writeMetric(w, m)
		}
	})
}

func writeMetric(w http.ResponseWriter, m Metric) {
	samples := m.Collect()
	if len(samples) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "# HELP %s %s\n", m.Name(), escape(m.Help(), false))
	_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", m.Name(), m.Type())
	sort.Slice(samples, func(i, j int) bool {
		return labelString(samples[i].Labels) < labelString(samples[j].Labels)
	})
	for _, s := range samples {
		if len(s.Labels) == 0 {
			_, _ = fmt.Fprintf(w, "%s %s\n", s.Name, formatFloat(s.Value))
		} else {
			_, _ = fmt.Fprintf(w, "%s{%s} %s\n", s.Name, labelString(s.Labels), formatFloat(s.Value))
		}
	}
}

// labelString renders labels as key="value",... with sorted keys for
// deterministic output.
func labelString(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf(`%s="%s"`, k, escape(labels[k], true))
	}
	return strings.Join(parts, ",")
}

func escape(s string, label bool) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	if label {
		s = strings.ReplaceAll(s, `"`, `\"`)
	}
	return s
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%g", v)
	}
}
