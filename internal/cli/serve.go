package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nocap-ai/nocap/internal/aether"
	"github.com/nocap-ai/nocap/internal/archive"
	"github.com/nocap-ai/nocap/internal/broadcastlog"
	"github.com/nocap-ai/nocap/internal/gateway"
	"github.com/nocap-ai/nocap/internal/lifecycle"
	"github.com/nocap-ai/nocap/internal/model"
	"github.com/nocap-ai/nocap/internal/notify"
	"github.com/nocap-ai/nocap/internal/oracle"
	"github.com/nocap-ai/nocap/internal/server"
	"github.com/nocap-ai/nocap/internal/store"
	"github.com/nocap-ai/nocap/internal/worker"
)

var (
	serveAddr     string
	storeBackend  string
	oracleBackend string
	oracleModel   string
	logPath       string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the claim verification service",
	Long: `Serve starts the HTTP API, the transition worker pool, and all
external adapters (claim store, oracle, archive, notification sink).

Example:
  nocap serve
  nocap serve --addr :9000 --oracle ollama --model llama3:latest
  NOCAP_STORE_BACKEND=rest SUPABASE_URL=... nocap serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8080)")
	serveCmd.Flags().StringVar(&storeBackend, "store", "", "claim store backend (rest, memory)")
	serveCmd.Flags().StringVar(&oracleBackend, "oracle", "", "oracle provider (ollama, openai, anthropic)")
	serveCmd.Flags().StringVar(&oracleModel, "model", "", "oracle model name")
	serveCmd.Flags().StringVar(&logPath, "broadcast-log", "", "broadcast log path (default broadcast.log)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	claimStore, err := store.New(&cfg.Store)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	analyzer, err := oracle.NewAnalyzer(oracle.ConfigFromModel(cfg.Oracle))
	if err != nil {
		return fmt.Errorf("create analyzer: %w", err)
	}

	uploader := archive.NewClient(&cfg.Archive)
	notifier := notify.NewDiscordNotifier(&cfg.Notify)
	broadcastLog := broadcastlog.NewFileLog(cfg.Broadcast.LogPath)

	dispatcher := worker.NewDispatcher(cfg.Workers.Count, cfg.Workers.QueueSize, logger)
	dispatcher.Start()
	defer dispatcher.Shutdown()

	engine := lifecycle.NewEngine(claimStore, analyzer, uploader, notifier, broadcastLog, dispatcher, logger)
	gw := gateway.New(claimStore, engine, dispatcher, logger)
	pipeline := aether.NewPipeline(uploader, analyzer.Provider(), &cfg.Aether, logger)

	srv := server.New(&cfg.Server, server.Deps{
		Gateway:        gw,
		Engine:         engine,
		Aether:         pipeline,
		Logger:         logger,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting nocap",
		zap.String("store", cfg.Store.Backend),
		zap.String("oracle", cfg.Oracle.Provider),
		zap.String("model", cfg.Oracle.Model))

	return srv.Run(ctx)
}

// loadConfig builds the configuration once: defaults, then config file
// and NOCAP_* environment through viper, then flags, then well-known
// secret environment variables.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Flags win over file and environment
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if storeBackend != "" {
		cfg.Store.Backend = storeBackend
	}
	if oracleBackend != "" {
		cfg.Oracle.Provider = oracleBackend
	}
	if oracleModel != "" {
		cfg.Oracle.Model = oracleModel
	}
	if logPath != "" {
		cfg.Broadcast.LogPath = logPath
	}

	// Secrets come from the conventional environment variables
	if v := os.Getenv("SUPABASE_URL"); v != "" && cfg.Store.BaseURL == "" {
		cfg.Store.BaseURL = v
	}
	if v := os.Getenv("SUPABASE_SERVICE_ROLE_KEY"); v != "" && cfg.Store.APIKey == "" {
		cfg.Store.APIKey = v
	}
	if v := os.Getenv("LIGHTHOUSE_API_KEY"); v != "" && cfg.Archive.APIKey == "" {
		cfg.Archive.APIKey = v
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" && cfg.Notify.WebhookURL == "" {
		cfg.Notify.WebhookURL = v
	}
	if v := os.Getenv("OPENSERV_WEBHOOK_URL"); v != "" && cfg.Aether.OrchestratorWebhookURL == "" {
		cfg.Aether.OrchestratorWebhookURL = v
	}
	if v := os.Getenv("OPENSERV_API_KEY"); v != "" && cfg.Aether.OrchestratorAPIKey == "" {
		cfg.Aether.OrchestratorAPIKey = v
	}
	if v := os.Getenv("OPENSERV_WORKSPACE_ID"); v != "" && cfg.Aether.WorkspaceID == "" {
		cfg.Aether.WorkspaceID = v
	}

	switch strings.ToLower(cfg.Oracle.Provider) {
	case "openai":
		if cfg.Oracle.APIKey == "" {
			cfg.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.Oracle.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if cfg.Oracle.APIKey == "" {
			cfg.Oracle.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.Oracle.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama", "":
		if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
			cfg.Oracle.BaseURL = v
		}
	}

	return cfg, nil
}

// newLogger builds the process logger
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
