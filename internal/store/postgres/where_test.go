package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWhere(t *testing.T) {
	t.Parallel()

	org := uuid.New()
	tests := []struct {
		name     string
		build    func(t *testing.T, w *where)
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "empty",
			build:   func(*testing.T, *where) {},
			wantSQL: "",
		},
		{
			name:    "nil org matches every organization",
			build:   func(_ *testing.T, w *where) { w.org("organization_id", uuid.Nil) },
			wantSQL: "",
		},
		{
			name: "org and filters",
			build: func(_ *testing.T, w *where) {
				w.org("organization_id", org)
				w.add("status = ?", "OPEN")
				w.add("severity >= ?", 4)
			},
			wantSQL:  " WHERE organization_id = $1 AND status = $2 AND severity >= $3",
			wantArgs: []any{org, "OPEN", 4},
		},
		{
			name: "paging placeholders continue numbering",
			build: func(t *testing.T, w *where) {
				w.add("entity_type = ?", "task")
				assert.Equal(t, "$2", w.arg(10))
				assert.Equal(t, "$3", w.arg(0))
			},
			wantSQL:  " WHERE entity_type = $1",
			wantArgs: []any{"task", 10, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var w where
			tt.build(t, &w)
			assert.Equal(t, tt.wantSQL, w.String())
			assert.Equal(t, tt.wantArgs, w.args)
		})
	}
}
