// Package metrics exposes prometheus collectors fed from engine events.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rokso/pf-auctions/core/events"
	"github.com/rokso/pf-auctions/native/auction"
)

// Collector tracks auction lifecycle activity. It implements events.Emitter
// so it can be fanned out next to the RPC event ring.
type Collector struct {
	created     prometheus.Counter
	won         prometheus.Counter
	stopped     prometheus.Counter
	collections prometheus.Counter
	open        prometheus.Gauge
}

var (
	collectorOnce sync.Once
	collector     *Collector
)

// Engine returns the lazily-initialised engine metrics registry.
func Engine() *Collector {
	collectorOnce.Do(func() {
		collector = &Collector{
			created: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "dpa",
				Subsystem: "engine",
				Name:      "auctions_created_total",
				Help:      "Count of auctions accepted by the registry.",
			}),
			won: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "dpa",
				Subsystem: "engine",
				Name:      "auctions_won_total",
				Help:      "Count of auctions settled by a bid.",
			}),
			stopped: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "dpa",
				Subsystem: "engine",
				Name:      "auctions_stopped_total",
				Help:      "Count of auctions cancelled by their payee.",
			}),
			collections: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "dpa",
				Subsystem: "engine",
				Name:      "collections_created_total",
				Help:      "Count of collections registered.",
			}),
			open: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "dpa",
				Subsystem: "engine",
				Name:      "auctions_open",
				Help:      "Auctions currently open and biddable.",
			}),
		}
		prometheus.MustRegister(
			collector.created,
			collector.won,
			collector.stopped,
			collector.collections,
			collector.open,
		)
	})
	return collector
}

// Emit implements the events.Emitter interface.
func (c *Collector) Emit(evt events.Event) {
	if c == nil || evt == nil {
		return
	}
	switch evt.EventType() {
	case auction.EventTypeAuctionCreated:
		c.created.Inc()
		c.open.Inc()
	case auction.EventTypeAuctionWon:
		c.won.Inc()
		c.open.Dec()
	case auction.EventTypeAuctionStopped:
		c.stopped.Inc()
		c.open.Dec()
	case auction.EventTypeCollectionCreated:
		c.collections.Inc()
	}
}
