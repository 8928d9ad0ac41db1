// Package prometheus reports live form activity as Prometheus metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zoobzio/formz"
)

// Provider implements formz.MetricsProvider.
type Provider struct {
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	received    prometheus.Counter
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var _ formz.MetricsProvider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*options)

type options struct {
	namespace string
	labels    prometheus.Labels
}

// WithNamespace sets the metric namespace. The default is "formz".
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithConstLabels attaches labels to every metric, such as the form name
// when several live forms share a registry.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(o *options) {
		o.labels = labels
	}
}

var states = []formz.State{formz.StateLoading, formz.StateHealthy, formz.StateDegraded, formz.StateEmpty}

// New creates a Provider and registers its collectors with reg.
func New(reg prometheus.Registerer, opts ...Option) (*Provider, error) {
	o := &options{namespace: "formz"}
	for _, opt := range opts {
		opt(o)
	}

	p := &Provider{
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   o.namespace,
			Name:        "live_state",
			Help:        "1 for the current live form state, 0 otherwise.",
			ConstLabels: o.labels,
		}, []string{"state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Name:        "live_state_transitions_total",
			Help:        "Live form state transitions.",
			ConstLabels: o.labels,
		}, []string{"from", "to"}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Name:        "live_documents_received_total",
			Help:        "Input documents received from the watcher.",
			ConstLabels: o.labels,
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Name:        "live_documents_rejected_total",
			Help:        "Input documents rejected, by failing stage.",
			ConstLabels: o.labels,
		}, []string{"stage"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   o.namespace,
			Name:        "live_process_duration_seconds",
			Help:        "Time spent processing an input document.",
			ConstLabels: o.labels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{p.state, p.transitions, p.received, p.failures, p.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	p.setState(formz.StateLoading)
	return p, nil
}

func (p *Provider) setState(current formz.State) {
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1
		}
		p.state.WithLabelValues(s.String()).Set(v)
	}
}

// OnStateChange records the transition and updates the state gauge.
func (p *Provider) OnStateChange(from, to formz.State) {
	p.transitions.WithLabelValues(from.String(), to.String()).Inc()
	p.setState(to)
}

// OnProcessSuccess observes the processing time of an applied document.
func (p *Provider) OnProcessSuccess(d time.Duration) {
	p.duration.WithLabelValues("applied").Observe(d.Seconds())
}

// OnProcessFailure counts the rejection by stage and observes its duration.
func (p *Provider) OnProcessFailure(stage string, d time.Duration) {
	p.failures.WithLabelValues(stage).Inc()
	p.duration.WithLabelValues("rejected").Observe(d.Seconds())
}

// OnChangeReceived counts a raw document from the watcher.
func (p *Provider) OnChangeReceived() {
	p.received.Inc()
}
