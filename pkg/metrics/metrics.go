package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var HistogramBuckets = []float64{
	// --- Fast responses (0 - 500ms) ---
	25, 50, 75, 100, 150, 200, 300, 400, 500,

	// --- Medium responses around 700ms (500ms - 2s) ---
	750, 1000, 1250, 1500, 1750, 2000,

	// --- Slow responses (2s - 15s) ---
	2500, 3000, 4000, 5000, 7500, 10000, 15000,

	// --- Extended range: covers 60000ms+ (15s - 75s) ---
	20000,  // 20s
	30000,  // 30s
	45000,  // 45s
	60000,  // 60s
	75000,  // 75s
	90000,  // 90s
	120000, // 120s
}

// Metric is a definition for the name, description, type, ID, and
// prometheus.Collector type (i.e. CounterVec, Summary, etc) of each metric
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric associates prometheus.Collector based on Metric.Type
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "counter":
		metric = prometheus.NewCounter(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "gauge_vec":
		metric = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "gauge":
		metric = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "histogram":
		metric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
				Buckets:   HistogramBuckets,
			},
		)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "summary":
		metric = prometheus.NewSummary(
			prometheus.SummaryOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	}
	return metric
}

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "process latency in milliseconds",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

var membershipsWritten = &Metric{
	ID:          "memWritten",
	Name:        "memberships_written_total",
	Description: "Membership writes, partitioned by operation and outcome.",
	Type:        "counter_vec",
	Args:        []string{"op", "outcome"},
}

var checkIns = &Metric{
	ID:          "checkIns",
	Name:        "checkins_total",
	Description: "Successful member check-ins.",
	Type:        "counter",
}

var webhookEvents = &Metric{
	ID:          "whEvents",
	Name:        "webhook_events_total",
	Description: "Payment provider webhook deliveries, partitioned by event type and result.",
	Type:        "counter_vec",
	Args:        []string{"event_type", "result"},
}

// Business holds the domain counters. A nil *Business records nothing.
type Business struct {
	bpDur    *prometheus.HistogramVec
	written  *prometheus.CounterVec
	checkIns prometheus.Counter
	webhooks *prometheus.CounterVec
}

// NewBusiness builds the domain collectors under subsystem and registers them on reg.
func NewBusiness(reg prometheus.Registerer, subsystem string) (*Business, error) {
	defs := []*Metric{MetricsBusinessProcess, membershipsWritten, checkIns, webhookEvents}
	collectors := make(map[string]prometheus.Collector, len(defs))
	for _, d := range defs {
		c := NewMetric(d, subsystem)
		if err := reg.Register(c); err != nil {
			return nil, err
		}
		collectors[d.ID] = c
	}
	return &Business{
		bpDur:    collectors[MetricsBusinessProcess.ID].(*prometheus.HistogramVec),
		written:  collectors[membershipsWritten.ID].(*prometheus.CounterVec),
		checkIns: collectors[checkIns.ID].(prometheus.Counter),
		webhooks: collectors[webhookEvents.ID].(*prometheus.CounterVec),
	}, nil
}

func (b *Business) MembershipWritten(op, outcome string) {
	if b == nil {
		return
	}
	b.written.WithLabelValues(op, outcome).Inc()
}

func (b *Business) CheckedIn() {
	if b == nil {
		return
	}
	b.checkIns.Inc()
}

func (b *Business) WebhookEvent(eventType, result string) {
	if b == nil {
		return
	}
	b.webhooks.WithLabelValues(eventType, result).Inc()
}

// ObserveSince records the latency of a business process started at start.
func (b *Business) ObserveSince(kind, subkind string, start time.Time) {
	if b == nil {
		return
	}
	b.bpDur.WithLabelValues(kind, subkind).Observe(MillisecondsSince(start))
}

const (
	RefererKey = "X-Referer"
)

// Subsystem prefixes every domain metric name.
const Subsystem = "clubhouse"

func newDefaultBusiness() (*Business, error) {
	return NewBusiness(prometheus.DefaultRegisterer, Subsystem)
}

var Module = fx.Options(
	fx.Provide(newDefaultBusiness),
)
