package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "garagesync"

// Drop reasons reported by FrameDropped.
const (
	ReasonMalformed   = "malformed"
	ReasonUnknownType = "unknown_type"
)

// Collector is a prometheus.Collector for the live collection feeds.
type Collector struct {
	eventsApplied  *prometheus.CounterVec
	framesDropped  *prometheus.CounterVec
	resets         *prometheus.CounterVec
	fallbackFetch  *prometheus.CounterVec
	collectionSize *prometheus.GaugeVec
	connected      *prometheus.GaugeVec
}

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		eventsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "events_applied_total",
				Help:      "Events applied to a live collection.",
			}, []string{"collection", "kind"},
		),
		framesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "frames_dropped_total",
				Help:      "Channel frames that could not be decoded.",
			}, []string{"collection", "reason"},
		),
		resets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "resets_total",
				Help:      "Times a live collection was cleared after a disconnect.",
			}, []string{"collection"},
		),
		fallbackFetch: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "fallback_fetches_total",
				Help:      "REST snapshot fetches, by result.",
			}, []string{"collection", "result"},
		),
		collectionSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "collection_size",
				Help:      "Entities currently held in a live collection.",
			}, []string{"collection"},
		),
		connected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "channel_connected",
				Help:      "1 while the collection's event channel is connected.",
			}, []string{"collection"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.eventsApplied.Describe(ch)
	c.framesDropped.Describe(ch)
	c.resets.Describe(ch)
	c.fallbackFetch.Describe(ch)
	c.collectionSize.Describe(ch)
	c.connected.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.eventsApplied.Collect(ch)
	c.framesDropped.Collect(ch)
	c.resets.Collect(ch)
	c.fallbackFetch.Collect(ch)
	c.collectionSize.Collect(ch)
	c.connected.Collect(ch)
}

func (c *Collector) EventApplied(collection, kind string) {
	c.eventsApplied.WithLabelValues(collection, kind).Inc()
}

func (c *Collector) FrameDropped(collection, reason string) {
	c.framesDropped.WithLabelValues(collection, reason).Inc()
}

func (c *Collector) Reset(collection string) {
	c.resets.WithLabelValues(collection).Inc()
}

func (c *Collector) FallbackFetch(collection string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.fallbackFetch.WithLabelValues(collection, result).Inc()
}

func (c *Collector) SetSize(collection string, size int) {
	c.collectionSize.WithLabelValues(collection).Set(float64(size))
}

func (c *Collector) SetConnected(collection string, connected bool) {
	v := 0.0
	if connected {
		v = 1
	}
	c.connected.WithLabelValues(collection).Set(v)
}

// NewRegistry returns a registry carrying the Go and process collectors plus c.
func NewRegistry(c *Collector) (*prometheus.Registry, error) {
	r := prometheus.NewRegistry()
	if err := r.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := r.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	if err := r.Register(c); err != nil {
		return nil, err
	}
	return r, nil
}
