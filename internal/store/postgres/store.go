// Package postgres implements domain.Store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/isoflow/internal/domain"
)

// dbtx is the query surface shared by *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	repos
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{pool: pool, repos: repos{db: pool}}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Pool exposes the underlying pool for migrations.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// WithinTx commits only when fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres.WithinTx: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, repos{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres.WithinTx: commit: %w", err)
	}
	return nil
}

// repos binds every repository to one query surface.
type repos struct {
	db dbtx
}

func (r repos) Organizations() domain.OrganizationRepository { return &OrganizationRepo{db: r.db} }
func (r repos) Users() domain.UserRepository                 { return &UserRepo{db: r.db} }
func (r repos) Agents() domain.AIAgentRepository             { return &AgentRepo{db: r.db} }
func (r repos) Clauses() domain.ClauseRepository             { return &ClauseRepo{db: r.db} }
func (r repos) Artefacts() domain.ArtefactRepository         { return &ArtefactRepo{db: r.db} }
func (r repos) Mappings() domain.MappingRepository           { return &MappingRepo{db: r.db} }
func (r repos) Tasks() domain.TaskRepository                 { return &TaskRepo{db: r.db} }
func (r repos) Events() domain.EventRepository               { return &EventRepo{db: r.db} }
func (r repos) Suggestions() domain.SuggestionRepository     { return &SuggestionRepo{db: r.db} }
func (r repos) Audit() domain.AuditRepository                { return &AuditRepo{db: r.db} }

// notFound maps a missing row to domain.ErrNotFound under op.
func notFound(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// affected turns a zero-row write into domain.ErrNotFound.
func affected(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

// inserted is used with ON CONFLICT DO NOTHING so a duplicate never aborts
// the surrounding transaction.
func inserted(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return nil
}

var (
	_ domain.Store        = (*Store)(nil)
	_ domain.Repositories = repos{}
)
