// Package metrics exposes the control cycle's status snapshots as
// Prometheus metrics, grounded in the teacher's pull-based
// internal/collector/collector.go: a Collector subscribes to the same
// publisher the control socket uses and renders the latest snapshot on
// every Prometheus scrape, purely observationally (it never
// participates in the on/off decision).
package metrics

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/thermod-go/thermod/internal/status"
	"github.com/thermod-go/thermod/pkg/pubsub"
)

var (
	currentTemperature = prometheus.NewDesc(
		prometheus.BuildFQName("thermod", "", "current_temperature_celsius"),
		"Current measured temperature",
		nil, nil,
	)
	targetTemperature = prometheus.NewDesc(
		prometheus.BuildFQName("thermod", "", "target_temperature_celsius"),
		"Target temperature resolved from the timetable",
		nil, nil,
	)
	actuatorStatus = prometheus.NewDesc(
		prometheus.BuildFQName("thermod", "", "actuator_status"),
		"Actuator status, 1 if on",
		nil, nil,
	)
	cycleErrorsTotal = prometheus.NewDesc(
		prometheus.BuildFQName("thermod", "", "cycle_errors_total"),
		"Number of control cycle steps that ended in an error status",
		nil, nil,
	)
)

// Collector is a prometheus.Collector fed by the same
// pubsub.Publisher[status.ThermodStatus] the control socket's monitor
// endpoint subscribes to.
type Collector struct {
	Publisher *pubsub.Publisher[status.ThermodStatus]
	Logger    *slog.Logger

	lock       sync.RWMutex
	last       status.ThermodStatus
	haveAny    bool
	errorCount float64
}

// Run subscribes to the publisher and keeps the latest snapshot (and a
// running error count) available for the next Collect.
func (c *Collector) Run(ctx context.Context) error {
	c.Logger.Debug("started")
	defer c.Logger.Debug("stopped")

	ch := c.Publisher.Subscribe()
	defer c.Publisher.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case st := <-ch:
			c.lock.Lock()
			c.last = st
			c.haveAny = true
			if st.Error != "" {
				c.errorCount++
			}
			c.lock.Unlock()
		}
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- currentTemperature
	ch <- targetTemperature
	ch <- actuatorStatus
	ch <- cycleErrorsTotal
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if !c.haveAny {
		return
	}
	ch <- prometheus.MustNewConstMetric(currentTemperature, prometheus.GaugeValue, c.last.Current)
	ch <- prometheus.MustNewConstMetric(targetTemperature, prometheus.GaugeValue, clampInfinity(c.last.Target))
	ch <- prometheus.MustNewConstMetric(actuatorStatus, prometheus.GaugeValue, float64(c.last.ActuatorStatus()))
	ch <- prometheus.MustNewConstMetric(cycleErrorsTotal, prometheus.CounterValue, c.errorCount)
}

// clampInfinity substitutes the sentinel target temperatures with a
// value Prometheus can render sensibly, since the exposition format
// has no idiomatic "off" gauge reading. The sign is kept so dashboards
// can still distinguish a heating-off from a cooling-off target.
func clampInfinity(v float64) float64 {
	switch {
	case v > 1e6:
		return 1e6
	case v < -1e6:
		return -1e6
	default:
		return v
	}
}
