package botkit

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the bot's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	updates       *prometheus.CounterVec
	handlerErrors prometheus.Counter
	apiRequests   *prometheus.CounterVec
	apiDuration   *prometheus.HistogramVec
	queueDelay    prometheus.Histogram
	gatherer      prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "botkit_updates_total",
			Help: "Updates received, by kind.",
		}, []string{"kind"}),
		handlerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "botkit_handler_errors_total",
			Help: "Errors returned by update handlers.",
		}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "botkit_api_requests_total",
			Help: "Bot API calls, by method and outcome.",
		}, []string{"method", "outcome"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "botkit_api_request_duration_seconds",
			Help:    "Bot API call latency including retries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		queueDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "botkit_queue_delay_seconds",
			Help:    "Time jobs spend waiting in a delay queue.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.updates, m.handlerErrors, m.apiRequests, m.apiDuration, m.queueDelay} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m, nil
}

// requestOutcome classifies the result of an API call.
func requestOutcome(err error) string {
	var apiErr *Error
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTooManyRequests):
		return "flood_wait"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.Is(err, ErrNetwork):
		return "network_error"
	}
	return "error"
}

func (m *Metrics) observeRequest(method string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, requestOutcome(err)).Inc()
	m.apiDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) observeUpdate(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.updates.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeHandlerError() {
	if m == nil {
		return
	}
	m.handlerErrors.Inc()
}

func (m *Metrics) observeQueueDelay(d time.Duration) {
	if m == nil {
		return
	}
	m.queueDelay.Observe(d.Seconds())
}
