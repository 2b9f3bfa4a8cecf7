package postgres

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/isoflow/internal/domain"
)

// collect scans every row with scan. The result is never nil.
func collect[T any](rows pgx.Rows, caller string, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	out := make([]*T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}
	return out, nil
}

// pageClause renders LIMIT/OFFSET against w's numbering; a zero limit is unbounded.
func pageClause(w *where, limit, offset int) string {
	var s string
	if limit > 0 {
		s += " LIMIT " + w.arg(limit)
	}
	if offset > 0 {
		s += " OFFSET " + w.arg(offset)
	}
	return s
}

// assigneeCols holds the three nullable assignee columns of clauses and artefacts.
type assigneeCols struct {
	typ     *string
	userID  *uuid.UUID
	agentID *uuid.UUID
}

func (c *assigneeCols) targets() []any {
	return []any{&c.typ, &c.userID, &c.agentID}
}

func (c *assigneeCols) assignee() *domain.Assignee {
	if c.typ == nil {
		return nil
	}
	return &domain.Assignee{Type: domain.AssigneeType(*c.typ), UserID: c.userID, AgentID: c.agentID}
}

// assigneeArgs flattens a possibly nil assignee into column values.
func assigneeArgs(a *domain.Assignee) (*string, *uuid.UUID, *uuid.UUID) {
	if a == nil {
		return nil, nil, nil
	}
	typ := string(a.Type)
	return &typ, a.UserID, a.AgentID
}
