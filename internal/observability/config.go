package observability

import (
	"strings"

	"github.com/smallbiznis/taskflow/internal/config"
)

// Config is the observability slice of the application configuration.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "taskflow"
	}
	ratio := cfg.Observability.OtelSamplingRatio
	if ratio < 0 || ratio > 1 {
		ratio = 0.1
	}
	return Config{
		ServiceName:          serviceName,
		Environment:          cfg.Environment,
		Version:              cfg.AppVersion,
		LogLevel:             cfg.Observability.LogLevel,
		LogFormat:            cfg.Observability.LogFormat,
		OtelEnabled:          cfg.Observability.OtelEnabled,
		OtelExporterEndpoint: cfg.Observability.OtelEndpoint,
		OtelExporterProtocol: cfg.Observability.OtelProtocol,
		OtelSamplingRatio:    ratio,
	}
}

// Debug reports whether verbose request diagnostics should be logged.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
