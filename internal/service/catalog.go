package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/authz"
	"github.com/gosuda/isoflow/internal/catalog"
	"github.com/gosuda/isoflow/internal/domain"
)

type Catalog struct {
	core
}

func NewCatalog(d Deps) *Catalog {
	return &Catalog{core: newCore(d)}
}

type SeedResult struct {
	Standard domain.Standard `json:"standard"`
	Inserted int             `json:"inserted"`
	Skipped  int             `json:"skipped"`
}

// Seed inserts the built-in clauses of std, or of every standard when std is
// nil, that the organization does not have yet. Running it twice inserts
// nothing the second time.
func (s *Catalog) Seed(ctx context.Context, p *domain.Principal, org *uuid.UUID, std *domain.Standard) ([]SeedResult, error) {
	orgID, err := authz.TargetOrg(p, authz.AdminRoles, org)
	if err != nil {
		return nil, err
	}
	standards := domain.ValidStandards
	if std != nil {
		if !std.Valid() {
			return nil, domain.Validationf("clause.standard", "unknown standard %q", *std)
		}
		standards = []domain.Standard{*std}
	}
	if _, err := s.store.Organizations().GetByID(ctx, orgID); err != nil {
		return nil, lookup("catalogService.Seed", "organization", orgID, err)
	}

	out := make([]SeedResult, 0, len(standards))
	for _, standard := range standards {
		res, err := s.seed(ctx, p, orgID, standard)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *Catalog) seed(ctx context.Context, p *domain.Principal, orgID uuid.UUID, std domain.Standard) (SeedResult, error) {
	entries, err := catalog.Entries(std)
	if err != nil {
		return SeedResult{}, err
	}
	existing, err := s.store.Clauses().List(ctx, orgID, domain.ClauseFilter{Standard: &std})
	if err != nil {
		return SeedResult{}, domain.Upstream("catalogService.Seed", err)
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c.ClauseNumber] = true
	}

	now := s.clock()
	res := SeedResult{Standard: std}
	fresh := make([]*domain.Clause, 0, len(entries))
	for _, e := range entries {
		if have[e.Number] {
			res.Skipped++
			continue
		}
		fresh = append(fresh, &domain.Clause{
			ID:             uuid.New(),
			OrganizationID: orgID,
			Standard:       std,
			ClauseNumber:   e.Number,
			Title:          e.Title,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	res.Inserted = len(fresh)
	if res.Inserted == 0 {
		return res, nil
	}

	err = s.mutate(ctx, "catalogService.Seed", p, audit.Entry{
		OrganizationID: orgID,
		Action:         audit.ClauseSeeded,
		EntityType:     audit.EntityOrganization,
		EntityID:       orgID,
		Details:        audit.Seed{Standard: std, Inserted: res.Inserted, Skipped: res.Skipped},
	}, func(ctx context.Context, tx domain.Repositories) error {
		for _, c := range fresh {
			if err := tx.Clauses().Create(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	return res, nil
}
