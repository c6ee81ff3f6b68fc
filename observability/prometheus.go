package observability

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// CollectorRegisterer is implemented by factories that can also expose
// custom collectors.
type CollectorRegisterer interface {
	RegisterCollector(c prometheus.Collector) error
}

var (
	_ MetricFactory       = (*PrometheusFactory)(nil)
	_ CollectorRegisterer = (*PrometheusFactory)(nil)
)

// amountBuckets spans 1 to 10^18 base units.
var amountBuckets = prometheus.ExponentialBuckets(1, 10, 19)

// PrometheusFactory is a MetricFactory backed by a Prometheus registerer.
// Dotted metric names become underscore separated. Asking twice for the
// same name returns the already registered metric.
type PrometheusFactory struct {
	reg prometheus.Registerer
}

// NewPrometheusFactory creates a factory registering into reg. A nil reg
// means prometheus.DefaultRegisterer.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusFactory{reg: reg}
}

// Counter implements MetricFactory.
func (f *PrometheusFactory) Counter(name string) Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricName(name),
		Help: "Total " + strings.ReplaceAll(name, ".", " ") + ".",
	})
	if existing := f.register(c); existing != nil {
		if ec, ok := existing.(prometheus.Counter); ok {
			return ec
		}
	}
	return c
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    metricName(name),
		Help:    "Distribution of " + strings.ReplaceAll(name, ".", " ") + ".",
		Buckets: amountBuckets,
	})
	if existing := f.register(h); existing != nil {
		if eh, ok := existing.(prometheus.Histogram); ok {
			return eh
		}
	}
	return h
}

// RegisterCollector implements CollectorRegisterer. An equal collector
// registered earlier, e.g. by a ledger that was restarted, is replaced.
func (f *PrometheusFactory) RegisterCollector(c prometheus.Collector) error {
	err := f.reg.Register(c)
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return err
	}
	f.reg.Unregister(are.ExistingCollector)
	return f.reg.Register(c)
}

// register returns the previously registered collector on a name clash.
// Other registration errors leave c unregistered and still usable.
func (f *PrometheusFactory) register(c prometheus.Collector) prometheus.Collector {
	err := f.reg.Register(c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return are.ExistingCollector
	}
	return nil
}

func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
