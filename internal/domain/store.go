package domain

import "context"

// Repositories groups the repository accessors of one store or transaction.
type Repositories interface {
	Organizations() OrganizationRepository
	Users() UserRepository
	Agents() AIAgentRepository
	Clauses() ClauseRepository
	Artefacts() ArtefactRepository
	Mappings() MappingRepository
	Tasks() TaskRepository
	Events() EventRepository
	Suggestions() SuggestionRepository
	Audit() AuditRepository
}

// Store is the external persistent store. WithinTx runs fn against
// repositories bound to one transaction: fn returning an error rolls back
// every write made through tx, including audit entries.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}
