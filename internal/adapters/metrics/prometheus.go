// Package metrics implements the engine's counter hooks on Prometheus and
// exposes them at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Prometheus struct {
	connections prometheus.Counter
	active      prometheus.Gauge
	messages    prometheus.Counter
	requests    prometheus.Counter
	errors      prometheus.Counter
}

func New() *Prometheus {
	return &Prometheus{
		connections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parley_connections_total",
			Help: "WebSocket connections accepted since start.",
		}),
		active: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "parley_connections_active",
			Help: "Currently open WebSocket connections.",
		}),
		messages: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parley_messages_total",
			Help: "Chat messages routed (room and private).",
		}),
		requests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parley_http_requests_total",
			Help: "HTTP requests served.",
		}),
		errors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "parley_http_errors_total",
			Help: "HTTP responses with status >= 400.",
		}),
	}
}

func (p *Prometheus) ConnectionOpened() {
	p.connections.Inc()
	p.active.Inc()
}

func (p *Prometheus) ConnectionClosed() { p.active.Dec() }
func (p *Prometheus) MessageProcessed() { p.messages.Inc() }
func (p *Prometheus) RequestServed()    { p.requests.Inc() }
func (p *Prometheus) ErrorTracked()     { p.errors.Inc() }

// Handler exposes the default registry at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
