package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	v1 "github.com/gosuda/isoflow/internal/api/v1"
	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/config"
	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/service"
	"github.com/gosuda/isoflow/internal/store/memory"
	"github.com/gosuda/isoflow/internal/store/postgres"
	"github.com/gosuda/isoflow/internal/suggest"
)

// cli carries state shared by subcommands once the root has loaded config.
type cli struct {
	cfg *config.Config
	out io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		log.Error().Err(err).Msg("isoflow: command failed")
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:           "isoflow",
		Short:         "ISO 9001 / ISO 27001 compliance workflow server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging(cfg.Log, os.Stderr)
			c.cfg = cfg
			return nil
		},
	}
	root.SetOut(out)

	root.AddCommand(c.serveCmd())
	root.AddCommand(c.migrateCmd())
	root.AddCommand(c.seedClausesCmd())
	root.AddCommand(c.tokenCmd())
	root.AddCommand(c.reportCmd())
	return root
}

// setupLogging configures the global logger from cfg.
func setupLogging(cfg config.LogConfig, w io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	}
}

// openStore connects to PostgreSQL, or returns an empty in-memory store
// when inMemory is set. close releases the store.
func openStore(ctx context.Context, cfg *config.Config, inMemory bool) (store domain.Store, closeFn func(), err error) {
	if inMemory {
		log.Warn().Msg("isoflow: using the in-memory store; data is lost on exit")
		return memory.New(), func() {}, nil
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return nil, nil, fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}
	pg, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

// buildServices wires every exposed operation against store.
func buildServices(cfg *config.Config, store domain.Store, notifier service.Notifier) v1.Services {
	deps := service.Deps{Store: store, Recorder: audit.NewRecorder(), Notifier: notifier}

	var oracle service.Oracle
	if cfg.OpenAI.APIKey != "" {
		o, err := suggest.New(suggest.Config{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.Model,
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
		if err != nil {
			log.Warn().Err(err).Msg("isoflow: clause suggestions disabled")
		} else {
			oracle = o
		}
	} else {
		log.Info().Msg("isoflow: no OpenAI key configured; clause suggestions disabled")
	}

	return v1.Services{
		Tasks:          service.NewTasks(deps, cfg.Recurrence.MaxOccurrences),
		Events:         service.NewEvents(deps),
		Directory:      service.NewDirectory(deps),
		Artefacts:      service.NewArtefacts(deps),
		Suggestions:    service.NewSuggestions(deps, oracle, cfg.Suggestions.Threshold),
		Catalog:        service.NewCatalog(deps),
		Responsibility: service.NewResponsibility(deps),
	}
}

// operatorID is the stable audit actor of CLI maintenance commands.
var operatorID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("isoflow:cli-operator")) //nolint:gochecknoglobals // derived constant

// operator is the principal CLI maintenance commands act as.
func operator() *domain.Principal {
	return &domain.Principal{ID: operatorID, Role: domain.RoleSuperAdmin, IsActive: true}
}
