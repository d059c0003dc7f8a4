package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kobweb-dev/kobgen/pkg/diag"
	"github.com/kobweb-dev/kobgen/pkg/registry"
	"github.com/kobweb-dev/kobgen/pkg/scan"
)

// MetricsConfig configures pipeline metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "kobgen").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for stage durations.
	Buckets []float64

	// Registry receives the metrics. When nil they are created but not
	// registered anywhere.
	Registry prometheus.Registerer
}

// MetricsOption configures pipeline metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the stage duration buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registerer.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics records what one or more pipeline runs did.
//
// Metrics collected:
//   - kobgen_files_scanned_total: source files parsed and scanned
//   - kobgen_candidates_total: candidates found, by kind
//   - kobgen_diagnostics_total: diagnostics reported, by severity
//   - kobgen_stage_duration_seconds: time spent per stage
//   - kobgen_registry_entries: entries in the last own and merged registry, by section
//   - kobgen_dependency_registries: registries loaded from artifacts in the last run
//   - kobgen_files_written_total: output files rewritten because their content changed
type Metrics struct {
	filesScanned    prometheus.Counter
	candidates      *prometheus.CounterVec
	diagnostics     *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	registryEntries *prometheus.GaugeVec
	dependencies    prometheus.Gauge
	filesWritten    prometheus.Counter
}

// NewMetrics creates pipeline metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "kobgen",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
	}
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		filesScanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "files_scanned_total",
			Help:        "Kotlin source files parsed and scanned",
			ConstLabels: config.ConstLabels,
		}),
		candidates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "candidates_total",
			Help:        "Annotated declarations found, by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
		diagnostics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "diagnostics_total",
			Help:        "Diagnostics reported, by severity",
			ConstLabels: config.ConstLabels,
		}, []string{"severity"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "stage_duration_seconds",
			Help:        "Time spent in each pipeline stage",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"stage"}),
		registryEntries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "registry_entries",
			Help:        "Entries in the last produced registry, by registry and section",
			ConstLabels: config.ConstLabels,
		}, []string{"registry", "section"}),
		dependencies: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "dependency_registries",
			Help:        "Registries loaded from dependency artifacts in the last run",
			ConstLabels: config.ConstLabels,
		}),
		filesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "files_written_total",
			Help:        "Output files written because their content changed",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// The record methods accept a nil receiver so a Processor without metrics
// needs no checks.

func (m *Metrics) recordScan(res scan.Result) {
	if m == nil {
		return
	}
	m.filesScanned.Inc()
	for _, c := range res.Candidates {
		m.candidates.WithLabelValues(candidateKind(c)).Inc()
	}
}

func (m *Metrics) recordDiagnostics(list diag.List) {
	if m == nil {
		return
	}
	for _, d := range list {
		m.diagnostics.WithLabelValues(d.Severity.String()).Inc()
	}
}

func (m *Metrics) observeStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) recordRegistry(name string, reg *registry.Registry) {
	if m == nil {
		return
	}
	for section, n := range reg.Counts() {
		m.registryEntries.WithLabelValues(name, section).Set(float64(n))
	}
}

func (m *Metrics) recordDependencies(n int) {
	if m == nil {
		return
	}
	m.dependencies.Set(float64(n))
}

func (m *Metrics) recordWrite() {
	if m == nil {
		return
	}
	m.filesWritten.Inc()
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

func candidateKind(c scan.Candidate) string {
	switch c := c.(type) {
	case scan.PageCandidate:
		return "page"
	case scan.APICandidate:
		return "api"
	case scan.APIStreamCandidate:
		return "apiStream"
	case scan.InitHookCandidate:
		switch c.Kind {
		case scan.InitSilk:
			return "initSilk"
		case scan.InitAPI:
			return "initApi"
		}
		return "initKobweb"
	case scan.StyleCandidate:
		switch c.Kind {
		case scan.Variant:
			return "variant"
		case scan.Keyframes:
			return "keyframes"
		}
		return "style"
	case scan.PackageMappingCandidate:
		return "packageMapping"
	}
	return "unknown"
}
