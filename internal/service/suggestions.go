package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/authz"
	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/suggest"
)

// Oracle ranks clause labels for a document.
// *suggest.Oracle satisfies this interface.
type Oracle interface {
	Classify(ctx context.Context, text string, candidates []suggest.Candidate) ([]domain.Classification, error)
}

type Suggestions struct {
	core
	artefacts *Artefacts
	oracle    Oracle
	threshold float64
}

// NewSuggestions auto-applies suggestions at or above threshold when a call
// does not name its own. A nil oracle makes Suggest fail with upstream_failure.
func NewSuggestions(d Deps, oracle Oracle, threshold float64) *Suggestions {
	c := newCore(d)
	return &Suggestions{core: c, artefacts: &Artefacts{core: c}, oracle: oracle, threshold: threshold}
}

// ClauseLabel is the label the oracle uses for c.
func ClauseLabel(c *domain.Clause) string {
	return string(c.Standard) + " " + c.ClauseNumber
}

// SuggestResult lists every persisted suggestion and the mappings created
// from those that were auto-applied.
type SuggestResult struct {
	Suggestions []*domain.Suggestion            `json:"suggestions"`
	Applied     []*domain.ArtefactClauseMapping `json:"applied"`
}

// Suggest asks the oracle which clauses artefactID provides evidence for.
// Every answer is stored; answers naming a known clause with a confidence at
// or above the threshold are mapped immediately.
func (s *Suggestions) Suggest(ctx context.Context, p *domain.Principal, artefactID uuid.UUID, threshold *float64) (*SuggestResult, error) {
	limit := s.threshold
	if threshold != nil {
		limit = *threshold
	}
	if limit < 0 || limit > 1 {
		return nil, domain.Validationf("suggestion.threshold", "threshold must be within [0,1], got %v", limit)
	}
	a, err := s.artefacts.Get(ctx, p, artefactID)
	if err != nil {
		return nil, err
	}
	if s.oracle == nil {
		return nil, domain.Upstream("suggestionService.Suggest", errors.New("suggestion oracle is not configured"))
	}

	clauses, err := s.store.Clauses().List(ctx, a.OrganizationID, domain.ClauseFilter{})
	if err != nil {
		return nil, domain.Upstream("suggestionService.Suggest", err)
	}
	byLabel := make(map[string]*domain.Clause, len(clauses))
	candidates := make([]suggest.Candidate, 0, len(clauses))
	for _, c := range clauses {
		byLabel[ClauseLabel(c)] = c
		candidates = append(candidates, suggest.Candidate{Label: ClauseLabel(c), Title: c.Title})
	}
	existing, err := s.store.Mappings().ListByArtefact(ctx, a.ID)
	if err != nil {
		return nil, domain.Upstream("suggestionService.Suggest", err)
	}
	mapped := make(map[uuid.UUID]bool, len(existing))
	for _, m := range existing {
		mapped[m.ClauseID] = true
	}

	answers, err := s.oracle.Classify(ctx, a.Title+"\n\n"+a.Content, candidates)
	if err != nil {
		log.Warn().Err(err).Str("artefact_id", a.ID.String()).Msg("suggestionService.Suggest: oracle failed")
		return nil, domain.Upstream("suggestionService.Suggest", err)
	}

	now := s.clock()
	res := &SuggestResult{
		Suggestions: make([]*domain.Suggestion, 0, len(answers)),
		Applied:     make([]*domain.ArtefactClauseMapping, 0),
	}
	var entries []audit.Entry
	for _, ans := range answers {
		sg := &domain.Suggestion{
			ID:             uuid.New(),
			OrganizationID: a.OrganizationID,
			ArtefactID:     a.ID,
			Label:          ans.Label,
			Confidence:     ans.Confidence,
			Rationale:      ans.Rationale,
			Status:         domain.SuggestionPending,
			CreatedAt:      now,
		}
		if c, ok := byLabel[ans.Label]; ok {
			sg.ClauseID = &c.ID
			if ans.Confidence >= limit {
				sg.Status = domain.SuggestionApplied
				if !mapped[c.ID] {
					mapped[c.ID] = true
					conf := ans.Confidence
					m := &domain.ArtefactClauseMapping{
						ArtefactID: a.ID,
						ClauseID:   c.ID,
						Source:     domain.MappingAI,
						Confidence: &conf,
						CreatedAt:  now,
					}
					res.Applied = append(res.Applied, m)
					entries = append(entries, mappingEntry(a, m))
				}
			}
		}
		res.Suggestions = append(res.Suggestions, sg)
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		for _, sg := range res.Suggestions {
			if err := tx.Suggestions().Create(ctx, sg); err != nil {
				return domain.Upstream("suggestionService.Suggest", err)
			}
		}
		for i, m := range res.Applied {
			if err := tx.Mappings().Create(ctx, m); err != nil {
				return domain.Upstream("suggestionService.Suggest", err)
			}
			if _, err := s.recorder.Record(ctx, tx.Audit(), p, entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.Upstream("suggestionService.Suggest", err)
	}
	for _, e := range entries {
		s.notify(ctx, p, e, nil)
	}
	return res, nil
}

func (s *Suggestions) List(ctx context.Context, p *domain.Principal, artefactID uuid.UUID) ([]*domain.Suggestion, error) {
	a, err := s.artefacts.Get(ctx, p, artefactID)
	if err != nil {
		return nil, err
	}
	out, err := s.store.Suggestions().ListByArtefact(ctx, a.OrganizationID, a.ID)
	if err != nil {
		return nil, domain.Upstream("suggestionService.List", err)
	}
	return out, nil
}

// Decide applies or rejects a pending suggestion. Applying maps the
// artefact to the suggested clause unless it is already mapped.
func (s *Suggestions) Decide(ctx context.Context, p *domain.Principal, id uuid.UUID, status domain.SuggestionStatus) (*domain.Suggestion, error) {
	if err := authz.Authorize(p, authz.AnyRole, nil); err != nil {
		return nil, err
	}
	if status != domain.SuggestionApplied && status != domain.SuggestionRejected {
		return nil, domain.Validationf("suggestion.status", "decision must be APPLIED or REJECTED, got %q", status)
	}
	sg, err := s.store.Suggestions().GetByID(ctx, uuid.Nil, id)
	if err != nil {
		return nil, lookup("suggestionService.Decide", "suggestion", id, err)
	}
	if err := authz.AuthorizeOrg(p, authz.AnyRole, sg.OrganizationID); err != nil {
		return nil, err
	}
	if sg.Status != domain.SuggestionPending {
		return nil, domain.Conflictf("suggestionService.Decide", "suggestion is already %s", sg.Status)
	}
	if status == domain.SuggestionApplied && sg.ClauseID == nil {
		return nil, domain.Conflictf("suggestionService.Decide", "label %q matches no clause", sg.Label)
	}

	var mapping *domain.ArtefactClauseMapping
	if status == domain.SuggestionApplied {
		existing, err := s.store.Mappings().ListByArtefact(ctx, sg.ArtefactID)
		if err != nil {
			return nil, domain.Upstream("suggestionService.Decide", err)
		}
		mapping = &domain.ArtefactClauseMapping{
			ArtefactID: sg.ArtefactID,
			ClauseID:   *sg.ClauseID,
			Source:     domain.MappingAI,
			Confidence: &sg.Confidence,
			CreatedAt:  s.clock(),
		}
		for _, m := range existing {
			if m.ClauseID == *sg.ClauseID {
				mapping = nil
				break
			}
		}
	}

	art := &domain.Artefact{ID: sg.ArtefactID, OrganizationID: sg.OrganizationID}
	err = s.mutate(ctx, "suggestionService.Decide", p, audit.Entry{
		OrganizationID: sg.OrganizationID,
		Action:         audit.SuggestionDecided,
		EntityType:     audit.EntitySuggestion,
		EntityID:       sg.ID,
		Details:        audit.StatusChange{From: string(sg.Status), To: string(status)},
	}, func(ctx context.Context, tx domain.Repositories) error {
		if err := tx.Suggestions().UpdateStatus(ctx, sg.OrganizationID, sg.ID, status); err != nil {
			return err
		}
		if mapping == nil {
			return nil
		}
		if err := tx.Mappings().Create(ctx, mapping); err != nil {
			return err
		}
		_, err := s.recorder.Record(ctx, tx.Audit(), p, mappingEntry(art, mapping))
		return err
	})
	if err != nil {
		return nil, err
	}
	sg.Status = status
	return sg, nil
}
