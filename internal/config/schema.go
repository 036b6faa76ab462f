package config

// ServerConfig is the top-level YAML structure.
type ServerConfig struct {
	Server     ServerConf     `yaml:"server"`
	Engine     EngineConf     `yaml:"engine"`
	Evaluator  EvaluatorConf  `yaml:"evaluator"`
	Store      StoreConf      `yaml:"store"`
	Audit      AuditConf      `yaml:"audit"`
	Connectors ConnectorsConf `yaml:"connectors"`
}

// ServerConf configures the webhook listener.
type ServerConf struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
	IdleTimeoutMs  int    `yaml:"idle_timeout_ms"`
}

// EngineConf holds dispatch and audit concurrency settings.
type EngineConf struct {
	RequestTimeoutMs int `yaml:"request_timeout_ms"`
	AuditWorkers     int `yaml:"audit_workers"`
	AuditQueueDepth  int `yaml:"audit_queue_depth"`
	AuditTimeoutMs   int `yaml:"audit_timeout_ms"`
}

// Script evaluator modes.
const (
	EvaluatorNone  = "none"
	EvaluatorHTTP  = "http"
	EvaluatorLocal = "local"
)

// EvaluatorConf selects how script-mode expressions are evaluated.
type EvaluatorConf struct {
	Mode string `yaml:"mode"`
	URL  string `yaml:"url"`
}

// Store drivers.
const (
	DriverFile  = "file"
	DriverMySQL = "mysql"
)

// StoreConf selects where action configuration is read from.
type StoreConf struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
	Watch  bool   `yaml:"watch"`
}

// Audit sinks.
const (
	SinkLog   = "log"
	SinkMySQL = "mysql"
	SinkMQTT  = "mqtt"
)

// AuditConf lists the sinks every record is written to.
type AuditConf struct {
	Sinks []string `yaml:"sinks"`
	DSN   string   `yaml:"dsn"`
	MQTT  MQTTConf `yaml:"mqtt"`
}

// MQTTConf configures the MQTT audit sink.
type MQTTConf struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// ConnectorsConf bounds calls to third-party services.
type ConnectorsConf struct {
	HTTPTimeoutMs int `yaml:"http_timeout_ms"`
	SMTPTimeoutMs int `yaml:"smtp_timeout_ms"`
}
