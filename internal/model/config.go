package model

import "time"

// Config is the complete service configuration. It is built once at
// process start (defaults, config file, NOCAP_* environment, flags) and
// passed by reference into each component.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Oracle    OracleConfig    `yaml:"oracle" mapstructure:"oracle"`
	Archive   ArchiveConfig   `yaml:"archive" mapstructure:"archive"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Broadcast BroadcastConfig `yaml:"broadcast" mapstructure:"broadcast"`
	Aether    AetherConfig    `yaml:"aether" mapstructure:"aether"`
	Workers   WorkerConfig    `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// StoreConfig configures the claim store backend
type StoreConfig struct {
	// Backend: "rest" (PostgREST-compatible endpoint) or "memory"
	Backend string `yaml:"backend" mapstructure:"backend"`

	// BaseURL of the REST data store, e.g. https://xyz.supabase.co
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// APIKey is sent as both apikey and Bearer headers
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// Table holding claim rows
	Table string `yaml:"table" mapstructure:"table"`

	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// OracleConfig configures the language-model dependency
type OracleConfig struct {
	// Provider: "ollama", "openai", "anthropic"
	Provider string `yaml:"provider" mapstructure:"provider"`

	// Model name (provider-specific)
	Model string `yaml:"model" mapstructure:"model"`

	// APIKey for openai/anthropic
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// BaseURL for custom endpoints (e.g. Ollama)
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ArchiveConfig configures the content-addressed archive (pinning service)
type ArchiveConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// NotifyConfig configures the webhook notification sink
type NotifyConfig struct {
	WebhookURL string        `yaml:"webhook_url" mapstructure:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// BroadcastConfig configures the durable broadcast log
type BroadcastConfig struct {
	LogPath string `yaml:"log_path" mapstructure:"log_path"`
}

// AetherConfig configures the simulated asset pipeline
type AetherConfig struct {
	// OrchestratorWebhookURL is the direct workflow webhook (preferred)
	OrchestratorWebhookURL string `yaml:"orchestrator_webhook_url" mapstructure:"orchestrator_webhook_url"`

	// OrchestratorAPIKey and WorkspaceID drive the workspace-API fallback
	OrchestratorAPIKey string `yaml:"orchestrator_api_key" mapstructure:"orchestrator_api_key"`
	WorkspaceID        string `yaml:"workspace_id" mapstructure:"workspace_id"`
	OrchestratorAPIURL string `yaml:"orchestrator_api_url" mapstructure:"orchestrator_api_url"`

	// Gateways tried round-robin when retrieving uploaded content
	Gateways []string `yaml:"gateways" mapstructure:"gateways"`

	// RetrievalDelays is the inter-attempt backoff sequence. The last
	// value repeats if there are more attempts than delays.
	RetrievalDelays   []time.Duration `yaml:"retrieval_delays" mapstructure:"retrieval_delays"`
	RetrievalAttempts int             `yaml:"retrieval_attempts" mapstructure:"retrieval_attempts"`

	// ContentBudget caps how many characters of retrieved content are
	// forwarded to the Oracle.
	ContentBudget int `yaml:"content_budget" mapstructure:"content_budget"`

	// GatewayRate limits requests per second per gateway host
	GatewayRate  float64 `yaml:"gateway_rate" mapstructure:"gateway_rate"`
	GatewayBurst int     `yaml:"gateway_burst" mapstructure:"gateway_burst"`
}

// WorkerConfig configures the transition dispatcher
type WorkerConfig struct {
	// Workers consuming the transition queue
	Count int `yaml:"count" mapstructure:"count"`

	// QueueSize bounds how many pending transitions can be queued
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  32 << 20,
		},
		Store: StoreConfig{
			Backend: "memory",
			Table:   "claims",
			Timeout: 15 * time.Second,
		},
		Oracle: OracleConfig{
			Provider:  "ollama",
			Model:     "llama3:latest",
			BaseURL:   "http://localhost:11434",
			Timeout:   60 * time.Second,
			MaxTokens: 1000,
		},
		Archive: ArchiveConfig{
			BaseURL: "https://node.lighthouse.storage",
			Timeout: 60 * time.Second,
		},
		Notify: NotifyConfig{
			Timeout: 10 * time.Second,
		},
		Broadcast: BroadcastConfig{
			LogPath: "broadcast.log",
		},
		Aether: AetherConfig{
			OrchestratorAPIURL: "https://api.openserv.ai",
			Gateways: []string{
				"https://gateway.lighthouse.storage/ipfs/",
				"https://ipfs.io/ipfs/",
				"https://dweb.link/ipfs/",
			},
			RetrievalDelays: []time.Duration{
				1 * time.Second,
				4 * time.Second,
				8 * time.Second,
				12 * time.Second,
			},
			RetrievalAttempts: 5,
			ContentBudget:     4000,
			GatewayRate:       1.0,
			GatewayBurst:      2,
		},
		Workers: WorkerConfig{
			Count:     4,
			QueueSize: 64,
		},
	}
}
