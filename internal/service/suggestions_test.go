package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/suggest"
)

type mockOracle struct {
	classifyFunc func(ctx context.Context, text string, candidates []suggest.Candidate) ([]domain.Classification, error)
}

func (m *mockOracle) Classify(ctx context.Context, text string, candidates []suggest.Candidate) ([]domain.Classification, error) {
	return m.classifyFunc(ctx, text, candidates)
}

func seedCatalog(t *testing.T, f *fixture, std domain.Standard) {
	t.Helper()

	_, err := NewCatalog(f.deps).Seed(context.Background(), f.admin, nil, &std)
	require.NoError(t, err)
}

func TestCatalog_SeedIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewCatalog(f.deps)
	ctx := context.Background()

	_, err := svc.Seed(ctx, f.user, nil, nil)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	first, err := svc.Seed(ctx, f.admin, nil, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, SeedResult{Standard: domain.StandardISO9001, Inserted: 28}, first[0])
	assert.Equal(t, SeedResult{Standard: domain.StandardISO27001, Inserted: 35}, first[1])

	second, err := svc.Seed(ctx, f.admin, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Standard: domain.StandardISO9001, Skipped: 28}, second[0])
	assert.Equal(t, SeedResult{Standard: domain.StandardISO27001, Skipped: 35}, second[1])

	assert.Equal(t, []string{audit.ClauseSeeded, audit.ClauseSeeded}, f.auditActions(t))

	clauses, err := NewArtefacts(f.deps).ListClauses(ctx, f.user, nil, nil)
	require.NoError(t, err)
	assert.Len(t, clauses, 63)

	other, err := NewArtefacts(f.deps).ListClauses(ctx, f.outsider, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, other)

	bogus := domain.Standard("ISO_14001")
	_, err = svc.Seed(ctx, f.admin, nil, &bogus)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestArtefacts_Lifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seedCatalog(t, f, domain.StandardISO9001)
	svc := NewArtefacts(f.deps)
	ctx := context.Background()

	_, err := svc.Create(ctx, f.user, nil, ArtefactDraft{Title: "Doc", Kind: "MEMO"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	a, err := svc.Create(ctx, f.user, nil, ArtefactDraft{Title: "Document control procedure", Kind: domain.ArtefactProcedure, Content: "..."})
	require.NoError(t, err)
	assert.Equal(t, domain.ArtefactDraft, a.Status)

	inReview, err := svc.UpdateStatus(ctx, f.user, a.ID, domain.ArtefactInReview)
	require.NoError(t, err)
	assert.Equal(t, domain.ArtefactInReview, inReview.Status)

	_, err = svc.UpdateStatus(ctx, f.user, a.ID, domain.ArtefactApproved)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	approved, err := svc.UpdateStatus(ctx, f.admin, a.ID, domain.ArtefactApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.ArtefactApproved, approved.Status)

	std := domain.StandardISO9001
	clauses, err := svc.ListClauses(ctx, f.user, nil, &std)
	require.NoError(t, err)
	require.NotEmpty(t, clauses)

	m, err := svc.MapClause(ctx, f.user, a.ID, clauses[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MappingManual, m.Source)

	_, err = svc.MapClause(ctx, f.user, a.ID, clauses[0].ID)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = svc.MapClause(ctx, f.user, a.ID, uuid.New())
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	mappings, err := svc.ListMappings(ctx, f.user, a.ID)
	require.NoError(t, err)
	assert.Len(t, mappings, 1)

	_, err = svc.Get(ctx, f.outsider, a.ID)
	assert.Equal(t, domain.KindOrganizationMismatch, domain.KindOf(err))
}

func TestSuggestions_AutoApply(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seedCatalog(t, f, domain.StandardISO9001)
	ctx := context.Background()

	a, err := NewArtefacts(f.deps).Create(ctx, f.user, nil, ArtefactDraft{Title: "Audit programme", Kind: domain.ArtefactRecord, Content: "Internal audit schedule"})
	require.NoError(t, err)

	var seen []suggest.Candidate
	oracle := &mockOracle{classifyFunc: func(_ context.Context, text string, candidates []suggest.Candidate) ([]domain.Classification, error) {
		seen = candidates
		assert.Contains(t, text, "Internal audit schedule")
		return []domain.Classification{
			{Label: "ISO_9001 9.2", Confidence: 0.93, Rationale: "audit schedule"},
			{Label: "ISO_9001 7.5", Confidence: 0.61, Rationale: "documented information"},
			{Label: "ISO_27001 9.2", Confidence: 0.9, Rationale: "not seeded"},
		}, nil
	}}
	svc := NewSuggestions(f.deps, oracle, domain.DefaultConfidenceThreshold)

	res, err := svc.Suggest(ctx, f.user, a.ID, nil)
	require.NoError(t, err)
	assert.Len(t, seen, 28)
	require.Len(t, res.Suggestions, 3)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, domain.MappingAI, res.Applied[0].Source)
	assert.InDelta(t, 0.93, *res.Applied[0].Confidence, 1e-9)

	assert.Equal(t, domain.SuggestionApplied, res.Suggestions[0].Status)
	assert.Equal(t, domain.SuggestionPending, res.Suggestions[1].Status)
	assert.NotNil(t, res.Suggestions[1].ClauseID)
	assert.Nil(t, res.Suggestions[2].ClauseID)

	stored, err := svc.List(ctx, f.user, a.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	assert.Equal(t, audit.ArtefactClauseMapped, f.auditActions(t)[0])

	lower := 0.5
	again, err := svc.Suggest(ctx, f.user, a.ID, &lower)
	require.NoError(t, err)
	assert.Len(t, again.Applied, 1, "9.2 is already mapped; only 7.5 is new")
}

func TestSuggestions_Decide(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seedCatalog(t, f, domain.StandardISO9001)
	ctx := context.Background()

	a, err := NewArtefacts(f.deps).Create(ctx, f.user, nil, ArtefactDraft{Title: "Quality policy", Kind: domain.ArtefactPolicy})
	require.NoError(t, err)
	oracle := &mockOracle{classifyFunc: func(context.Context, string, []suggest.Candidate) ([]domain.Classification, error) {
		return []domain.Classification{
			{Label: "ISO_9001 5.2", Confidence: 0.7},
			{Label: "ISO_9001 6.2", Confidence: 0.4},
			{Label: "made up", Confidence: 0.3},
		}, nil
	}}
	svc := NewSuggestions(f.deps, oracle, domain.DefaultConfidenceThreshold)

	res, err := svc.Suggest(ctx, f.user, a.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Applied)

	applied, err := svc.Decide(ctx, f.user, res.Suggestions[0].ID, domain.SuggestionApplied)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionApplied, applied.Status)

	_, err = svc.Decide(ctx, f.user, res.Suggestions[0].ID, domain.SuggestionRejected)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = svc.Decide(ctx, f.user, res.Suggestions[1].ID, domain.SuggestionPending)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.Decide(ctx, f.outsider, res.Suggestions[1].ID, domain.SuggestionRejected)
	assert.Equal(t, domain.KindOrganizationMismatch, domain.KindOf(err))

	rejected, err := svc.Decide(ctx, f.user, res.Suggestions[1].ID, domain.SuggestionRejected)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionRejected, rejected.Status)

	_, err = svc.Decide(ctx, f.user, res.Suggestions[2].ID, domain.SuggestionApplied)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	mappings, err := NewArtefacts(f.deps).ListMappings(ctx, f.user, a.ID)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, *res.Suggestions[0].ClauseID, mappings[0].ClauseID)
}

func TestSuggestions_Failures(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	a, err := NewArtefacts(f.deps).Create(ctx, f.user, nil, ArtefactDraft{Title: "x", Kind: domain.ArtefactOther})
	require.NoError(t, err)

	_, err = NewSuggestions(f.deps, nil, 0.8).Suggest(ctx, f.user, a.ID, nil)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))

	failing := &mockOracle{classifyFunc: func(context.Context, string, []suggest.Candidate) ([]domain.Classification, error) {
		return nil, errors.New("rate limited")
	}}
	_, err = NewSuggestions(f.deps, failing, 0.8).Suggest(ctx, f.user, a.ID, nil)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))

	bad := 1.5
	_, err = NewSuggestions(f.deps, failing, 0.8).Suggest(ctx, f.user, a.ID, &bad)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = NewSuggestions(f.deps, failing, 0.8).Suggest(ctx, f.user, uuid.New(), nil)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	assert.Equal(t, []string{audit.ArtefactCreated}, f.auditActions(t))
}
