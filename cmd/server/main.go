package main

import (
	"fmt"
	"os"

	"recordadmin/internal/admin"
	"recordadmin/internal/catalog"
	"recordadmin/internal/config"
	"recordadmin/internal/database"
	"recordadmin/internal/handlers"
	"recordadmin/internal/metrics"
	"recordadmin/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recordadmin",
		Short:         "Generic admin for editing database records",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the admin HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create demo records and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return seed()
		},
	})
	return root
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.AppEnv != "production" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.LogLevel != "" {
		lvl, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return zcfg.Build()
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func seed() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	return database.Seed(db, log)
}

func serve() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	if cfg.SeedDemo {
		if err := database.Seed(db, log); err != nil {
			return err
		}
	}

	registry, err := catalog.Build(db, cfg.Admin)
	if err != nil {
		return err
	}

	opts := []admin.EditorOption{admin.WithLogger(log.Named("admin"))}
	var history handlers.HistoryReader
	if cfg.AuditEnabled {
		sink := database.NewHistorySink(db)
		opts = append(opts, admin.WithAuditor(sink))
		history = sink
	}
	editor := admin.NewEditor(db, registry, opts...)

	m := metrics.New()
	h := handlers.New(editor, history, m, log.Named("http"))

	r, err := server.NewRouter(cfg, server.Deps{Handler: h, Metrics: m, Logger: log})
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Info("starting server", zap.String("addr", addr), zap.Int("models", len(registry.All())))
	if err := r.Run(addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
