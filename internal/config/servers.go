package config

import "time"

// Servers holds listen addresses. An empty address turns the server off,
// except for the probe.
type Servers struct {
	ProbeAddr       string        `env:"PROBE_ADDR" envDefault:":10000" validate:"required"`
	MetricsAddr     string        `env:"METRICS_ADDR" envDefault:":9090"`
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}
