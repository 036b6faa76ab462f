package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for:
//   - Unknown evaluator modes, store drivers and audit sinks
//   - Settings a selected mode, driver or sink requires
//   - Non-positive timeouts and pool sizes
func Validate(cfg *ServerConfig) error {
	var errs []string

	switch cfg.Evaluator.Mode {
	case EvaluatorNone, EvaluatorLocal:
	case EvaluatorHTTP:
		if cfg.Evaluator.URL == "" {
			errs = append(errs, "evaluator: url is required in http mode")
		}
	default:
		errs = append(errs, fmt.Sprintf("evaluator: unknown mode %q", cfg.Evaluator.Mode))
	}

	switch cfg.Store.Driver {
	case DriverFile:
		if cfg.Store.Path == "" {
			errs = append(errs, "store: path is required for the file driver")
		}
	case DriverMySQL:
		if cfg.Store.DSN == "" {
			errs = append(errs, "store: dsn is required for the mysql driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store: unknown driver %q", cfg.Store.Driver))
	}

	seen := make(map[string]bool)
	for i, s := range cfg.Audit.Sinks {
		if seen[s] {
			errs = append(errs, fmt.Sprintf("audit.sinks[%d]: duplicate sink %q", i, s))
			continue
		}
		seen[s] = true
		switch s {
		case SinkLog:
		case SinkMySQL:
			if cfg.Audit.DSN == "" && cfg.Store.DSN == "" {
				errs = append(errs, "audit: dsn is required for the mysql sink")
			}
		case SinkMQTT:
			if cfg.Audit.MQTT.Broker == "" {
				errs = append(errs, "audit.mqtt: broker is required for the mqtt sink")
			}
		default:
			errs = append(errs, fmt.Sprintf("audit.sinks[%d]: unknown sink %q", i, s))
		}
	}

	positive := []struct {
		name string
		v    int
	}{
		{"engine.request_timeout_ms", cfg.Engine.RequestTimeoutMs},
		{"engine.audit_workers", cfg.Engine.AuditWorkers},
		{"engine.audit_queue_depth", cfg.Engine.AuditQueueDepth},
		{"engine.audit_timeout_ms", cfg.Engine.AuditTimeoutMs},
		{"connectors.http_timeout_ms", cfg.Connectors.HTTPTimeoutMs},
		{"connectors.smtp_timeout_ms", cfg.Connectors.SMTPTimeoutMs},
	}
	for _, p := range positive {
		if p.v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got %d", p.name, p.v))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// AuditDSN returns the DSN of the mysql audit sink. It defaults to the store's.
func (c *ServerConfig) AuditDSN() string {
	if c.Audit.DSN != "" {
		return c.Audit.DSN
	}
	return c.Store.DSN
}
