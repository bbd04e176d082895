package config

import "time"

const (
	DefaultHost      = "127.0.0.1"
	DefaultPort      = 8080
	DefaultQueueSize = 64
	DefaultDebounce  = 200 * time.Millisecond
	DefaultNATSURL   = "nats://127.0.0.1:4222"
	DefaultSubject   = "tn.pages"
	DefaultMetrics   = "/metrics"
)

func applyDefaults(c *Config) {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	c.LogFormat = NormalizeLogFormat(string(c.LogFormat))
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Daemon.QueueSize == 0 {
		c.Daemon.QueueSize = DefaultQueueSize
	}
	if c.Daemon.Debounce == 0 {
		c.Daemon.Debounce = DefaultDebounce
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetrics
	}
	if c.NATS.URL == "" {
		c.NATS.URL = DefaultNATSURL
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = DefaultSubject
	}
}
