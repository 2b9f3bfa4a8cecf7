package postgres

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// where accumulates AND-ed conditions with numbered placeholders. Each "?"
// in a condition becomes the next $n.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.Replace(cond, "?", w.placeholder(), 1))
}

// org narrows to one organization; uuid.Nil leaves every organization visible.
func (w *where) org(column string, orgID uuid.UUID) {
	if orgID != uuid.Nil {
		w.add(column+" = ?", orgID)
	}
}

// arg appends a bare argument and returns its placeholder, for LIMIT and OFFSET.
func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return w.placeholder()
}

func (w *where) placeholder() string {
	return "$" + strconv.Itoa(len(w.args))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
