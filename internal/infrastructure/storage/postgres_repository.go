package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"CEQAScanner/internal/domain"
	"CEQAScanner/internal/ports"
)

// ErrNoDatabase is returned when the repository has no connection.
var ErrNoDatabase = errors.New("storage: database is not configured")

// PostgresRepository upserts project rows into a Postgres table.
type PostgresRepository struct {
	db     *sql.DB
	table  string
	suffix string
}

var _ ports.RecordRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation against the given table.
func NewPostgresRepository(db *sql.DB, table string) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		table:  pq.QuoteIdentifier(table),
		suffix: conflictClause(),
	}
}

// Upsert inserts the row or fully replaces the stored row with the same source URL.
func (r *PostgresRepository) Upsert(ctx context.Context, row domain.ProjectRow) error {
	if r.db == nil {
		return ErrNoDatabase
	}

	query, args, err := r.upsertQuery(row)
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert project %s: %w", row.SourceURL(), err)
	}

	return nil
}

// EnsureSchema creates the projects table when it is missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return ErrNoDatabase
	}

	ddl := `CREATE TABLE IF NOT EXISTS ` + r.table + ` (
		source_url TEXT PRIMARY KEY,
		title TEXT,
		lead_agency TEXT,
		city TEXT,
		county TEXT,
		address TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		project_description TEXT,
		project_type TEXT,
		document_type TEXT,
		ceqa_status TEXT,
		display_status TEXT,
		date_posted DATE,
		comment_deadline DATE,
		document_urls TEXT[],
		is_relevant BOOLEAN,
		relevance_score DOUBLE PRECISION,
		matched_keywords TEXT[],
		scrape_date DATE
	)`

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	return nil
}

func (r *PostgresRepository) upsertQuery(row domain.ProjectRow) (string, []any, error) {
	values := make([]any, len(domain.Columns))
	for i, col := range domain.Columns {
		v := row[col]
		if list, ok := v.([]string); ok {
			v = pq.Array(list)
		}
		values[i] = v
	}

	return sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert(r.table).
		Columns(domain.Columns...).
		Values(values...).
		Suffix(r.suffix).
		ToSql()
}

func conflictClause() string {
	sets := make([]string, 0, len(domain.Columns)-1)
	for _, col := range domain.Columns {
		if col == domain.ConflictKey {
			continue
		}
		sets = append(sets, col+" = EXCLUDED."+col)
	}
	return "ON CONFLICT (" + domain.ConflictKey + ") DO UPDATE SET " + strings.Join(sets, ", ")
}
