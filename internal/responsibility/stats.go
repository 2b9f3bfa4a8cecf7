package responsibility

import "github.com/gosuda/isoflow/internal/domain"

type MatrixStats struct {
	TotalAssignments    int                         `json:"total_assignments"`
	Assigned            int                         `json:"assigned"`
	Unassigned          int                         `json:"unassigned"`
	UnassignedClauses   int                         `json:"unassigned_clauses"`
	UnassignedArtefacts int                         `json:"unassigned_artefacts"`
	ByStandard          map[domain.Standard]int     `json:"by_standard"`
	ByAssigneeType      map[domain.AssigneeType]int `json:"by_assignee_type"`
	ByRole              map[domain.Role]int         `json:"by_role"`
	ByAgentType         map[domain.AIAgentType]int  `json:"by_agent_type"`
}

// Summarize counts rows as produced by Resolve. ByStandard counts every
// clause row; ByRole and ByAgentType count rows whose assignee resolved.
func Summarize(rows []domain.ResponsibilityAssignment) MatrixStats {
	s := MatrixStats{
		TotalAssignments: len(rows),
		ByStandard:       make(map[domain.Standard]int),
		ByAssigneeType:   make(map[domain.AssigneeType]int),
		ByRole:           make(map[domain.Role]int),
		ByAgentType:      make(map[domain.AIAgentType]int),
	}
	for i := range rows {
		row := &rows[i]
		if row.EntityKind == domain.EntityClause {
			s.ByStandard[row.Standard]++
		}
		if !row.Assigned() {
			s.Unassigned++
			if row.EntityKind == domain.EntityClause {
				s.UnassignedClauses++
			} else {
				s.UnassignedArtefacts++
			}
			continue
		}
		s.Assigned++
		s.ByAssigneeType[*row.AssigneeType]++
		if row.User != nil {
			s.ByRole[row.User.Role]++
		}
		if row.Agent != nil {
			s.ByAgentType[row.Agent.Type]++
		}
	}
	return s
}
