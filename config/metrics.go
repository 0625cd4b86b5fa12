package config

import "strings"

// MetricsConfig controls StatsD emission. Metrics are off unless an
// address is set; every other knob has a sensible default.
type MetricsConfig struct {
	// StatsdAddr is the UDP host:port of a StatsD-compatible sink.
	// Empty disables metrics entirely.
	StatsdAddr string `env:"STATSD_ADDR"`

	// Prefix is prepended to every metric name.
	Prefix string `env:"PREFIX" envDefault:"webui_auth"`
}

// Enabled reports whether an endpoint is configured.
func (c MetricsConfig) Enabled() bool {
	return strings.TrimSpace(c.StatsdAddr) != ""
}

// Sanitize normalizes whitespace in the configured values.
func (c *MetricsConfig) Sanitize() {
	c.StatsdAddr = strings.TrimSpace(c.StatsdAddr)
	c.Prefix = strings.TrimSpace(c.Prefix)
}
