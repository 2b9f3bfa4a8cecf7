// Package memory is an in-process domain.Store for development and tests.
// Transactions run against a copy of the state that replaces the original
// only when the callback succeeds.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/domain"
)

// FailFunc returns a non-nil error to make the named operation fail, e.g.
// "tasks.Create" or "audit.Record".
type FailFunc func(op string) error

type Store struct {
	mu   sync.Mutex
	st   *state
	fail FailFunc
}

func New() *Store {
	return &Store{st: newState()}
}

// SetFailFunc installs a fault injector; nil removes it.
func (s *Store) SetFailFunc(f FailFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = f
}

type state struct {
	orgs        map[uuid.UUID]domain.Organization
	users       map[uuid.UUID]domain.User
	agents      map[uuid.UUID]domain.AIAgent
	clauses     map[uuid.UUID]domain.Clause
	artefacts   map[uuid.UUID]domain.Artefact
	mappings    map[[2]uuid.UUID]domain.ArtefactClauseMapping
	tasks       map[uuid.UUID]domain.Task
	events      map[uuid.UUID]domain.Event
	suggestions map[uuid.UUID]domain.Suggestion
	audit       []domain.AuditEntry
}

func newState() *state {
	return &state{
		orgs:        map[uuid.UUID]domain.Organization{},
		users:       map[uuid.UUID]domain.User{},
		agents:      map[uuid.UUID]domain.AIAgent{},
		clauses:     map[uuid.UUID]domain.Clause{},
		artefacts:   map[uuid.UUID]domain.Artefact{},
		mappings:    map[[2]uuid.UUID]domain.ArtefactClauseMapping{},
		tasks:       map[uuid.UUID]domain.Task{},
		events:      map[uuid.UUID]domain.Event{},
		suggestions: map[uuid.UUID]domain.Suggestion{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (st *state) clone() *state {
	return &state{
		orgs:        cloneMap(st.orgs),
		users:       cloneMap(st.users),
		agents:      cloneMap(st.agents),
		clauses:     cloneMap(st.clauses),
		artefacts:   cloneMap(st.artefacts),
		mappings:    cloneMap(st.mappings),
		tasks:       cloneMap(st.tasks),
		events:      cloneMap(st.events),
		suggestions: cloneMap(st.suggestions),
		audit:       append([]domain.AuditEntry(nil), st.audit...),
	}
}

// repos binds repository accessors to either the live state (tx == nil) or
// a transaction copy.
type repos struct {
	s  *Store
	tx *state
}

func (r repos) with(op string, fn func(st *state) error) error {
	if r.tx != nil {
		if err := r.s.check(op); err != nil {
			return err
		}
		return fn(r.tx)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check(op); err != nil {
		return err
	}
	return fn(r.s.st)
}

func (s *Store) check(op string) error {
	if s.fail == nil {
		return nil
	}
	return s.fail(op)
}

func (s *Store) live() repos { return repos{s: s} }

func (s *Store) Organizations() domain.OrganizationRepository { return orgRepo{s.live()} }
func (s *Store) Users() domain.UserRepository                 { return userRepo{s.live()} }
func (s *Store) Agents() domain.AIAgentRepository             { return agentRepo{s.live()} }
func (s *Store) Clauses() domain.ClauseRepository             { return clauseRepo{s.live()} }
func (s *Store) Artefacts() domain.ArtefactRepository         { return artefactRepo{s.live()} }
func (s *Store) Mappings() domain.MappingRepository           { return mappingRepo{s.live()} }
func (s *Store) Tasks() domain.TaskRepository                 { return taskRepo{s.live()} }
func (s *Store) Events() domain.EventRepository               { return eventRepo{s.live()} }
func (s *Store) Suggestions() domain.SuggestionRepository     { return suggestionRepo{s.live()} }
func (s *Store) Audit() domain.AuditRepository                { return auditRepo{s.live()} }

// WithinTx serializes transactions. fn must use tx for every store access.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, txRepos{repos{s: s, tx: work}}); err != nil {
		return err
	}
	s.st = work
	return nil
}

type txRepos struct{ r repos }

func (t txRepos) Organizations() domain.OrganizationRepository { return orgRepo{t.r} }
func (t txRepos) Users() domain.UserRepository                 { return userRepo{t.r} }
func (t txRepos) Agents() domain.AIAgentRepository             { return agentRepo{t.r} }
func (t txRepos) Clauses() domain.ClauseRepository             { return clauseRepo{t.r} }
func (t txRepos) Artefacts() domain.ArtefactRepository         { return artefactRepo{t.r} }
func (t txRepos) Mappings() domain.MappingRepository           { return mappingRepo{t.r} }
func (t txRepos) Tasks() domain.TaskRepository                 { return taskRepo{t.r} }
func (t txRepos) Events() domain.EventRepository               { return eventRepo{t.r} }
func (t txRepos) Suggestions() domain.SuggestionRepository     { return suggestionRepo{t.r} }
func (t txRepos) Audit() domain.AuditRepository                { return auditRepo{t.r} }

// inOrg reports whether a row owned by owner is visible to orgID.
func inOrg(orgID, owner uuid.UUID) bool {
	return orgID == uuid.Nil || orgID == owner
}

var (
	_ domain.Store        = (*Store)(nil)
	_ domain.Repositories = txRepos{}
)
