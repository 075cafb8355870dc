package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricSet holds all Prometheus metric descriptors for the exporter.
type MetricSet struct {
	// Temperature metrics
	probeTemp   *prometheus.Desc
	currentTemp *prometheus.Desc
	targetTemp  *prometheus.Desc

	// State metrics
	power     *prometheus.Desc
	mode      *prometheus.Desc
	stateBit  *prometheus.Desc
	parameter *prometheus.Desc

	// Device metrics
	online       *prometheus.Desc
	wifiSignal   *prometheus.Desc
	snapshotAge  *prometheus.Desc
	copEstimate  *prometheus.Desc
	minControlOn *prometheus.Desc

	// Poll loop metrics
	polls        *prometheus.Desc
	pollErrors   *prometheus.Desc
	writes       *prometheus.Desc
	writeErrors  *prometheus.Desc
	pollDuration *prometheus.Desc
	lastPoll     *prometheus.Desc
}

// newMetricSet creates all metric descriptors.
func newMetricSet() *MetricSet {
	labels := []string{labelDevice, labelName}
	labelsWithProbe := append(labels, labelProbe)
	labelsWithPreset := append(labels, labelPreset)
	labelsWithBit := append(labels, labelCode, labelBit)
	labelsWithCode := append(labels, labelCode)

	return &MetricSet{
		// Temperature metrics
		probeTemp: prometheus.NewDesc(
			"hitemp_temperature_celsius",
			"Temperature probe reading (°C)",
			labelsWithProbe, nil,
		),
		currentTemp: prometheus.NewDesc(
			"hitemp_water_temperature_celsius",
			"Effective water temperature, average of the tank probes (°C)",
			labels, nil,
		),
		targetTemp: prometheus.NewDesc(
			"hitemp_target_temperature_celsius",
			"Configured target water temperature (°C)",
			labels, nil,
		),

		// State metrics
		power: prometheus.NewDesc(
			"hitemp_power_on",
			"Heater power switch (0/1)",
			labels, nil,
		),
		mode: prometheus.NewDesc(
			"hitemp_operating_mode",
			"Operating mode one-hot (1 for current preset, 0 for others)",
			labelsWithPreset, nil,
		),
		stateBit: prometheus.NewDesc(
			"hitemp_state_bit",
			"Individual bit of a state register (0/1)",
			labelsWithBit, nil,
		),
		parameter: prometheus.NewDesc(
			"hitemp_parameter_value",
			"Raw numeric parameter value",
			labelsWithCode, nil,
		),

		// Device metrics
		online: prometheus.NewDesc(
			"hitemp_online",
			"Online (1) / Offline (0)",
			labels, nil,
		),
		wifiSignal: prometheus.NewDesc(
			"hitemp_wifi_signal_dbm",
			"WiFi signal strength reported by the device (dBm)",
			labels, nil,
		),
		snapshotAge: prometheus.NewDesc(
			"hitemp_snapshot_age_seconds",
			"Age of the latest snapshot for this device",
			labels, nil,
		),
		copEstimate: prometheus.NewDesc(
			"hitemp_cop_estimate",
			"Estimated coefficient of performance from the external energy meter",
			labels, nil,
		),
		minControlOn: prometheus.NewDesc(
			"hitemp_minimum_control_enabled",
			"Minimum tank temperature steering loop enabled (0/1)",
			labels, nil,
		),

		// Poll loop metrics
		polls: prometheus.NewDesc(
			"hitemp_polls_total",
			"Total number of poll cycles",
			nil, nil,
		),
		pollErrors: prometheus.NewDesc(
			"hitemp_poll_errors_total",
			"Total number of failed poll cycles or device reads",
			nil, nil,
		),
		writes: prometheus.NewDesc(
			"hitemp_writes_total",
			"Total number of parameter writes",
			nil, nil,
		),
		writeErrors: prometheus.NewDesc(
			"hitemp_write_errors_total",
			"Total number of failed parameter writes",
			nil, nil,
		),
		pollDuration: prometheus.NewDesc(
			"hitemp_poll_duration_seconds",
			"Duration of the most recent poll cycle",
			nil, nil,
		),
		lastPoll: prometheus.NewDesc(
			"hitemp_last_poll_timestamp_seconds",
			"Unix timestamp of the last completed poll cycle",
			nil, nil,
		),
	}
}
