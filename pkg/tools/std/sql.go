package std

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
)

// readOnlyStmtRe - допустимое начало запроса sql_query.
var readOnlyStmtRe = regexp.MustCompile(`(?i)^\s*(select|with|pragma|explain)\b`)

type sqlQueryArgs struct {
	Query string `json:"query" jsonschema:"description=Read-only SQL statement (SELECT/WITH/PRAGMA/EXPLAIN)"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum number of rows to return,default=100,minimum=1,maximum=1000"`
}

// NewSQLQuery - sql_query: read-only запросы к SQLite базе.
//
// База открывается в режиме mode=ro, так что даже пропущенный проверкой
// модифицирующий запрос завершится ошибкой драйвера.
func NewSQLQuery(path string) (tools.Tool, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path is empty", ErrUnavailable)
	}
	dsn := "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro&_query_only=1"

	return tools.NewFunc("sql_query",
		"Run a read-only SQL query against the configured SQLite database and return columns and rows.",
		func(ctx context.Context, args sqlQueryArgs) (any, error) {
			if !readOnlyStmtRe.MatchString(args.Query) {
				return nil, fmt.Errorf("only read-only statements are allowed (SELECT, WITH, PRAGMA, EXPLAIN)")
			}
			limit := args.Limit
			if limit <= 0 {
				limit = 100
			}
			return runQuery(ctx, dsn, trimStatement(args.Query), limit)
		})
}

func runQuery(ctx context.Context, dsn, query string, limit int) (map[string]any, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var (
		out       = make([][]any, 0)
		truncated bool
	)
	for rows.Next() {
		if len(out) >= limit {
			truncated = true
			break
		}
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	return map[string]any{
		"columns":   columns,
		"rows":      out,
		"row_count": len(out),
		"truncated": truncated,
	}, nil
}

// trimStatement убирает финальную ";" - некоторые модели её добавляют.
func trimStatement(q string) string {
	return strings.TrimSuffix(strings.TrimSpace(q), ";")
}
