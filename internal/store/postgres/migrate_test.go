package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	t.Parallel()

	ms, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, ms)
	assert.Equal(t, 1, ms[0].Version)
	assert.Contains(t, ms[0].UpSQL, "CREATE TABLE audit_log")
	assert.Contains(t, ms[0].UpSQL, "CREATE TABLE artefact_clause_mappings")
}

func TestLoadMigrations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		files     fstest.MapFS
		wantNames []string
		wantErr   string
	}{
		{
			name: "sorted numerically",
			files: fstest.MapFS{
				"m/010_late.sql":  {Data: []byte("SELECT 10")},
				"m/002_mid.sql":   {Data: []byte("SELECT 2")},
				"m/001_first.sql": {Data: []byte("SELECT 1")},
			},
			wantNames: []string{"001_first.sql", "002_mid.sql", "010_late.sql"},
		},
		{
			name:    "bad filename",
			files:   fstest.MapFS{"m/init.sql": {Data: []byte("SELECT 1")}},
			wantErr: "invalid filename init.sql",
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"m/003_a.sql": {Data: []byte("SELECT 1")},
				"m/3_b.sql":   {Data: []byte("SELECT 2")},
			},
			wantErr: "version 3 used by",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ms, err := loadMigrations(tt.files, "m")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			names := make([]string, 0, len(ms))
			for _, m := range ms {
				names = append(names, m.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}
