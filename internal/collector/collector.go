// Package collector implements the Prometheus collector interface over the
// latest device snapshots held by the poll service. Scrapes never hit the
// vendor cloud; the poll loop owns all upstream traffic.
package collector

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/victor987/hitemp/internal/registry"
	"github.com/victor987/hitemp/internal/service"
	"github.com/victor987/hitemp/internal/types"
)

// Metric label names.
const (
	labelDevice = "device"
	labelName   = "name"
	labelProbe  = "probe"
	labelPreset = "preset"
	labelCode   = "code"
	labelBit    = "bit"
)

// HeaterCollector implements prometheus.Collector for HiTemp water heaters.
type HeaterCollector struct {
	svc     *service.Service
	logger  *slog.Logger
	metrics *MetricSet
}

// NewHeaterCollector creates a collector reading from the poll service.
func NewHeaterCollector(svc *service.Service, logger *slog.Logger) *HeaterCollector {
	return &HeaterCollector{
		svc:     svc,
		logger:  logger,
		metrics: newMetricSet(),
	}
}

// Describe implements prometheus.Collector.
func (c *HeaterCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.metrics.probeTemp
	ch <- c.metrics.currentTemp
	ch <- c.metrics.targetTemp

	ch <- c.metrics.power
	ch <- c.metrics.mode
	ch <- c.metrics.stateBit
	ch <- c.metrics.parameter

	ch <- c.metrics.online
	ch <- c.metrics.wifiSignal
	ch <- c.metrics.snapshotAge
	ch <- c.metrics.copEstimate
	ch <- c.metrics.minControlOn

	ch <- c.metrics.polls
	ch <- c.metrics.pollErrors
	ch <- c.metrics.writes
	ch <- c.metrics.writeErrors
	ch <- c.metrics.pollDuration
	ch <- c.metrics.lastPoll
}

// Collect implements prometheus.Collector.
func (c *HeaterCollector) Collect(ch chan<- prometheus.Metric) {
	for _, snap := range c.svc.Snapshots() {
		c.collectDevice(ch, snap)
	}

	stats := c.svc.Stats()
	ch <- prometheus.MustNewConstMetric(c.metrics.polls, prometheus.CounterValue, float64(stats.Polls))
	ch <- prometheus.MustNewConstMetric(c.metrics.pollErrors, prometheus.CounterValue, float64(stats.PollErrors))
	ch <- prometheus.MustNewConstMetric(c.metrics.writes, prometheus.CounterValue, float64(stats.Writes))
	ch <- prometheus.MustNewConstMetric(c.metrics.writeErrors, prometheus.CounterValue, float64(stats.WriteErrors))
	ch <- prometheus.MustNewConstMetric(c.metrics.pollDuration, prometheus.GaugeValue, stats.PollDuration.Seconds())
	if !stats.LastPoll.IsZero() {
		ch <- prometheus.MustNewConstMetric(c.metrics.lastPoll, prometheus.GaugeValue, float64(stats.LastPoll.Unix()))
	}
}

func (c *HeaterCollector) collectDevice(ch chan<- prometheus.Metric, snap *types.Snapshot) {
	labels := []string{snap.Device.DeviceCode, snap.Device.DisplayName()}

	onlineValue := 0.0
	if snap.Device.Online() {
		onlineValue = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.metrics.online, prometheus.GaugeValue, onlineValue, labels...)

	if snap.Device.SignalStrength != nil {
		ch <- prometheus.MustNewConstMetric(c.metrics.wifiSignal, prometheus.GaugeValue, float64(*snap.Device.SignalStrength), labels...)
	}
	if !snap.Taken.IsZero() {
		ch <- prometheus.MustNewConstMetric(c.metrics.snapshotAge, prometheus.GaugeValue, time.Since(snap.Taken).Seconds(), labels...)
	}
	if snap.COP != nil {
		ch <- prometheus.MustNewConstMetric(c.metrics.copEstimate, prometheus.GaugeValue, *snap.COP, labels...)
	}

	minOn := 0.0
	if _, enabled := c.svc.MinimumControlTarget(snap.Device.DeviceCode); enabled {
		minOn = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.metrics.minControlOn, prometheus.GaugeValue, minOn, labels...)

	c.emitTemperatures(ch, labels, snap)
	c.emitState(ch, labels, snap)
	c.emitParameters(ch, labels, snap)
}

func (c *HeaterCollector) emitTemperatures(ch chan<- prometheus.Metric, labels []string, snap *types.Snapshot) {
	for code, reading := range snap.Readings {
		if !strings.HasPrefix(code, "T") || reading.Kind == registry.Bitmask {
			continue
		}
		def, ok := registry.Lookup(code)
		if !ok || def.Unit != "°C" {
			continue
		}
		labelsWithProbe := append(labels, code)
		ch <- prometheus.MustNewConstMetric(c.metrics.probeTemp, prometheus.GaugeValue, reading.Number, labelsWithProbe...)
	}

	if current, ok := service.CurrentTemperature(snap); ok {
		ch <- prometheus.MustNewConstMetric(c.metrics.currentTemp, prometheus.GaugeValue, current, labels...)
	}
	if target, ok := snap.Number("R01"); ok {
		ch <- prometheus.MustNewConstMetric(c.metrics.targetTemp, prometheus.GaugeValue, target, labels...)
	}
}

func (c *HeaterCollector) emitState(ch chan<- prometheus.Metric, labels []string, snap *types.Snapshot) {
	if power, ok := snap.Readings["Power"]; ok && power.Kind != registry.Bitmask {
		ch <- prometheus.MustNewConstMetric(c.metrics.power, prometheus.GaugeValue, power.Number, labels...)
	}

	// Mode one-hot across the known presets.
	if mode, ok := snap.Number("mode_real"); ok {
		current, _ := service.PresetName(mode)
		for _, preset := range service.Presets() {
			value := 0.0
			if preset == current {
				value = 1.0
			}
			labelsWithPreset := append(labels, preset)
			ch <- prometheus.MustNewConstMetric(c.metrics.mode, prometheus.GaugeValue, value, labelsWithPreset...)
		}
	}

	for code, reading := range snap.Readings {
		if reading.Kind != registry.Bitmask {
			continue
		}
		for i, set := range reading.Flags {
			value := 0.0
			if set {
				value = 1.0
			}
			labelsWithBit := append(labels, code, fmt.Sprint(i))
			ch <- prometheus.MustNewConstMetric(c.metrics.stateBit, prometheus.GaugeValue, value, labelsWithBit...)
		}
	}
}

func (c *HeaterCollector) emitParameters(ch chan<- prometheus.Metric, labels []string, snap *types.Snapshot) {
	for code, reading := range snap.Readings {
		if reading.Kind == registry.Bitmask {
			continue
		}
		labelsWithCode := append(labels, code)
		ch <- prometheus.MustNewConstMetric(c.metrics.parameter, prometheus.GaugeValue, reading.Number, labelsWithCode...)
	}
}
