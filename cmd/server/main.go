package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RichardoC/aipro/internal/api"
	"github.com/RichardoC/aipro/internal/config"
	"github.com/RichardoC/aipro/internal/db"
	"github.com/RichardoC/aipro/internal/history"
	"github.com/RichardoC/aipro/internal/llm"
	"github.com/RichardoC/aipro/internal/metrics"
	"github.com/RichardoC/aipro/internal/render"
	"github.com/RichardoC/aipro/internal/session"
	"github.com/RichardoC/aipro/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type turnStore interface {
	session.Store
	Close() error
}

var (
	configPath string
	v          = config.New()
)

var rootCmd = &cobra.Command{
	Use:          "aipro",
	Short:        "AI writing, translation and coding assistant",
	Long:         "aipro serves a web assistant for content writing, translation, code generation, code explanation and chat on top of a hosted language model.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web assistant (the default)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("model", "", "model name")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("addr", "", "listen address")
	rootCmd.PersistentFlags().String("store", "", "chat history store (memory or sqlite)")

	// Flag defaults are empty so the config defaults show through.
	_ = v.BindPFlag("model.name", rootCmd.PersistentFlags().Lookup("model"))
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("server.addr", rootCmd.PersistentFlags().Lookup("addr"))
	_ = v.BindPFlag("store.driver", rootCmd.PersistentFlags().Lookup("store"))

	rootCmd.AddCommand(serveCmd, askCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app holds what both the server and the one-shot commands need.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client *llm.Client
	tasks  *task.Service
}

func setup(ctx context.Context, reg prometheus.Registerer) (*app, error) {
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	client, err := llm.New(cfg.LLM(), logger)
	if err != nil {
		return nil, err
	}

	if cfg.Model.VerifyOnStart {
		vctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		err := client.Verify(vctx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("model credential check failed: %w", err)
		}
		logger.Info("Model credential verified", zap.String("model", client.Model()))
	}

	tokens, err := llm.NewTokenCounter("")
	if err != nil {
		logger.Warn("Token counting disabled", zap.Error(err))
	}

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	tasks := task.NewService(client, task.Options{
		ChatWindow: cfg.Chat.Window,
		Tokens:     tokens,
		Metrics:    m,
		Logger:     logger,
	})

	return &app{cfg: cfg, logger: logger, client: client, tasks: tasks}, nil
}

func serve(ctx context.Context) error {
	a, err := setup(ctx, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	logger := a.logger
	defer logger.Sync()

	store, err := openStore(a.cfg)
	if err != nil {
		logger.Error("Failed to open history store",
			zap.Error(err),
			zap.String("driver", a.cfg.Store.Driver),
			zap.String("dsn", a.cfg.Store.DSN))
		return err
	}

	sessions := session.NewManager(store, a.cfg.Session.TTL, logger)
	go sessions.Run(ctx, a.cfg.Session.SweepInterval)

	mux := http.NewServeMux()
	api.NewHandler(a.tasks, sessions, render.New(), logger).Register(mux)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", http.FileServer(http.Dir(a.cfg.Server.StaticDir)))

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("addr", srv.Addr),
			zap.String("model", a.client.Model()),
			zap.String("store", a.cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
			return multierr.Append(err, store.Close())
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("timeout", a.cfg.Server.ShutdownTimeout))
	sctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	err = multierr.Combine(srv.Shutdown(sctx), store.Close())
	if err != nil {
		logger.Error("Unclean shutdown", zap.Error(err))
	}
	return err
}

func openStore(cfg *config.Config) (turnStore, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return db.New(cfg.Store.DSN)
	default:
		return history.NewMemoryStore(), nil
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
