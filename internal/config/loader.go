package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ACTIONSERVER_"

// Load reads the YAML file at path, applies environment overrides and fills
// defaults. An empty path yields the defaults. Variables from envFile are
// loaded first when the file exists; variables already set take precedence.
func Load(path, envFile string) (*ServerConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env %s: %w", envFile, err)
		}
	}
	var cfg ServerConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *ServerConfig) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"ADDR", &cfg.Server.Addr},
		{"EVALUATOR_MODE", &cfg.Evaluator.Mode},
		{"EVALUATOR_URL", &cfg.Evaluator.URL},
		{"STORE_DRIVER", &cfg.Store.Driver},
		{"STORE_PATH", &cfg.Store.Path},
		{"STORE_DSN", &cfg.Store.DSN},
		{"AUDIT_DSN", &cfg.Audit.DSN},
		{"MQTT_BROKER", &cfg.Audit.MQTT.Broker},
		{"MQTT_CLIENT_ID", &cfg.Audit.MQTT.ClientID},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(EnvPrefix + o.key); ok {
			*o.dst = v
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "AUDIT_SINKS"); ok {
		cfg.Audit.Sinks = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Audit.Sinks = append(cfg.Audit.Sinks, s)
			}
		}
	}
}

func applyDefaults(cfg *ServerConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5055"
	}
	if cfg.Server.ReadTimeoutMs == 0 {
		cfg.Server.ReadTimeoutMs = 10000
	}
	if cfg.Server.WriteTimeoutMs == 0 {
		cfg.Server.WriteTimeoutMs = 60000
	}
	if cfg.Server.IdleTimeoutMs == 0 {
		cfg.Server.IdleTimeoutMs = 60000
	}
	if cfg.Engine.RequestTimeoutMs == 0 {
		cfg.Engine.RequestTimeoutMs = 30000
	}
	if cfg.Engine.AuditWorkers == 0 {
		cfg.Engine.AuditWorkers = 4
	}
	if cfg.Engine.AuditQueueDepth == 0 {
		cfg.Engine.AuditQueueDepth = 1000
	}
	if cfg.Engine.AuditTimeoutMs == 0 {
		cfg.Engine.AuditTimeoutMs = 5000
	}
	if cfg.Evaluator.Mode == "" {
		cfg.Evaluator.Mode = EvaluatorNone
		if cfg.Evaluator.URL != "" {
			cfg.Evaluator.Mode = EvaluatorHTTP
		}
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverFile
	}
	if cfg.Store.Driver == DriverFile && cfg.Store.Path == "" {
		cfg.Store.Path = "configs/actions.yaml"
	}
	if len(cfg.Audit.Sinks) == 0 {
		cfg.Audit.Sinks = []string{SinkLog}
	}
	if cfg.Audit.MQTT.ClientID == "" {
		cfg.Audit.MQTT.ClientID = "actionserver"
	}
	if cfg.Audit.MQTT.TopicPrefix == "" {
		cfg.Audit.MQTT.TopicPrefix = "actionserver/audit"
	}
	if cfg.Connectors.HTTPTimeoutMs == 0 {
		cfg.Connectors.HTTPTimeoutMs = 10000
	}
	if cfg.Connectors.SMTPTimeoutMs == 0 {
		cfg.Connectors.SMTPTimeoutMs = 15000
	}
}
