package std

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, score REAL);
		INSERT INTO users (name, score) VALUES ('ann', 9.5), ('bob', 7.25), ('eve', 8.0);
	`)
	require.NoError(t, err)
	return path
}

func TestSQLQuery(t *testing.T) {
	tool, err := NewSQLQuery(newTestDB(t))
	require.NoError(t, err)

	res := invoke(t, tool, map[string]any{"query": "SELECT name, score FROM users ORDER BY score DESC;"})
	require.True(t, res.OK(), "%v", res.Err)

	out := res.Value.(map[string]any)
	assert.Equal(t, []string{"name", "score"}, out["columns"])
	assert.Equal(t, 3, out["row_count"])
	assert.Equal(t, []any{"ann", 9.5}, out["rows"].([][]any)[0])
	assert.Equal(t, false, out["truncated"])

	res = invoke(t, tool, map[string]any{"query": "SELECT id FROM users", "limit": 2})
	require.True(t, res.OK())
	out = res.Value.(map[string]any)
	assert.Equal(t, 2, out["row_count"])
	assert.Equal(t, true, out["truncated"])
}

func TestSQLQuery_ReadOnly(t *testing.T) {
	path := newTestDB(t)
	tool, err := NewSQLQuery(path)
	require.NoError(t, err)

	res := invoke(t, tool, map[string]any{"query": "DELETE FROM users"})
	require.False(t, res.OK())
	assert.Contains(t, res.Text(), "read-only")

	// Проходит проверку префикса, но база открыта только на чтение
	res = invoke(t, tool, map[string]any{"query": "WITH x AS (SELECT 1) INSERT INTO users (name) SELECT 'mallory' FROM x"})
	assert.False(t, res.OK())

	res = invoke(t, tool, map[string]any{"query": "SELECT count(*) FROM users"})
	require.True(t, res.OK())
	assert.Equal(t, []any{int64(3)}, res.Value.(map[string]any)["rows"].([][]any)[0])
}

func TestNewSQLQuery_EmptyPath(t *testing.T) {
	_, err := NewSQLQuery("")
	assert.ErrorIs(t, err, ErrUnavailable)
}
