package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/isoflow/internal/api/ws"
	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/notify"
	"github.com/gosuda/isoflow/internal/server"
	redisstore "github.com/gosuda/isoflow/internal/store/redis"
)

func (c *cli) serveCmd() *cobra.Command {
	var inMemory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the live change stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context(), inMemory)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "memory", false, "use an in-memory store instead of PostgreSQL")
	return cmd
}

func (c *cli) serve(ctx context.Context, inMemory bool) error {
	cfg := c.cfg

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, inMemory)
	if err != nil {
		return err
	}
	defer closeStore()

	// Change events travel over Redis when enabled so every replica's
	// WebSocket clients see them; otherwise they stay in this process.
	var (
		publisher notify.Publisher
		events    ws.EventSource
	)
	if cfg.Redis.Enabled {
		pubsub, redisErr := redisstore.New(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if redisErr != nil {
			return redisErr
		}
		defer pubsub.Close()
		publisher, events = pubsub, pubsub
	} else {
		broker := ws.NewBroker()
		publisher, events = broker, broker
	}

	var poster notify.Poster
	if cfg.Slack.BotToken != "" && cfg.Slack.Channel != "" {
		poster = notify.NewSlackClient(cfg.Slack.BotToken, cfg.Slack.Channel)
		log.Info().Str("channel", cfg.Slack.Channel).Msg("isoflow: Slack notifications enabled")
	}
	notifier := notify.New(publisher, poster, redisstore.OrgChannel,
		audit.ResponsibilityUpdated, audit.TaskRecurringCreated)

	svc := buildServices(cfg, store, notifier)
	hub := ws.NewHub(events, server.OriginHosts(cfg.Server.CORSOrigins))
	srv := server.New(ctx, cfg, store.Users(), svc, hub)

	go func() {
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("isoflow: server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("isoflow: shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("isoflow: stopped")
	return nil
}
