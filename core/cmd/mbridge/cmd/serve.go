package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/common/messaging"
	natsclient "github.com/telhawk-systems/mediabridge/common/messaging/nats"
	"github.com/telhawk-systems/mediabridge/core/internal/consumer"
	"github.com/telhawk-systems/mediabridge/core/internal/dlq"
	"github.com/telhawk-systems/mediabridge/core/internal/handlers"
	"github.com/telhawk-systems/mediabridge/core/internal/ratelimit"
	"github.com/telhawk-systems/mediabridge/core/internal/server"
	"github.com/telhawk-systems/mediabridge/core/internal/service"
	"github.com/telhawk-systems/mediabridge/core/internal/sink"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the translation service",
	Long: `Consume events from NATS (and POST /api/v1/events), translate them and
publish the resulting backend calls to mediabridge.calls.<method>.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger().With(logging.Service("mediabridge"))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker, err := connectBroker(logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := broker.Drain(); err != nil {
			logger.Warn("Failed to drain broker", logging.Error(err))
		}
	}()

	processor, err := service.NewFromConfig(cfg, sink.NewPublisher(broker, logger), nil, logger)
	if err != nil {
		return err
	}

	var limiter ratelimit.Limiter = ratelimit.NoOp{}
	if cfg.Redis.Enabled {
		rl, err := ratelimit.NewRedisLimiter(ctx, cfg.Redis.URL, cfg.Redis.RateLimitEvents, cfg.Redis.RateWindow())
		if err != nil {
			return fmt.Errorf("init rate limiter: %w", err)
		}
		defer rl.Close()
		limiter = rl
		logger.Info("Rate limiting enabled",
			"limit", cfg.Redis.RateLimitEvents, "window", cfg.Redis.RateWindow().String())
	}

	var deadLetter consumer.DeadLetter
	if cfg.DLQ.Enabled {
		q, err := dlq.NewQueue(cfg.DLQ.Path, logger)
		if err != nil {
			return err
		}
		deadLetter = q
		logger.Info("Dead-letter queue enabled", "path", cfg.DLQ.Path)
	}

	if cfg.NATS.Enabled {
		h := consumer.NewHandler(broker, processor, consumer.Options{
			Subject:    cfg.NATS.InboundSubject,
			Queue:      cfg.NATS.QueueGroup,
			Limiter:    limiter,
			DeadLetter: deadLetter,
			Logger:     logger,
		})
		if err := h.Start(ctx); err != nil {
			return err
		}
		defer h.Stop()
	}

	if !cfg.Server.Enabled {
		logger.Info("HTTP server disabled")
		<-ctx.Done()
		return nil
	}

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.NewRouter(handlers.NewProcessorHandler(processor).WithBroker(broker), server.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Logger:         logger,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mediabridge listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", logging.Error(err))
	}
	return nil
}

// connectBroker dials NATS, or returns an in-process broker when NATS is
// disabled so calls are still encoded and metered.
func connectBroker(logger *logging.Logger) (messaging.Client, error) {
	if !cfg.NATS.Enabled {
		logger.Warn("NATS disabled; backend calls are not forwarded")
		return messaging.NewMemoryClient(func(subject string, err error) {
			logger.Warn("In-process handler failed", logging.Subject(subject), logging.Error(err))
		}), nil
	}

	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Name = cfg.NATS.Name
	natsCfg.MaxReconnects = cfg.NATS.MaxReconnects
	natsCfg.ReconnectWait = cfg.NATS.ReconnectWait()
	natsCfg.Token = cfg.NATS.Token

	client, err := natsclient.NewClient(natsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return client, nil
}
