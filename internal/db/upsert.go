package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Upsert describes a bulk insert-or-update against a single table. Every
// column not in Keys is overwritten on conflict.
type Upsert struct {
	Table   string
	Columns []string
	Keys    []string // columns of the unique constraint
}

// Run stages the rows in a session temp table via COPY and merges them into
// the target with one INSERT ... ON CONFLICT. Large translation batches land
// in a single round trip this way instead of one statement per row.
func (u Upsert) Run(ctx context.Context, pool Pool, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := u.validate(); err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx)

	staging := "staging_" + u.Table
	create := fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		quoteIdent(staging), quoteIdent(u.Table),
	)
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: stage %s", u.Table)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{staging}, u.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: copy into %s", staging)
	}

	tag, err := tx.Exec(ctx, u.mergeSQL(staging))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: merge %s", u.Table)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return tag.RowsAffected(), nil
}

func (u Upsert) validate() error {
	if u.Table == "" {
		return eris.New("db: upsert: no table")
	}
	if len(u.Columns) == 0 {
		return eris.New("db: upsert: no columns")
	}
	if len(u.Keys) == 0 {
		return eris.New("db: upsert: no conflict keys")
	}
	return nil
}

// mergeSQL builds the INSERT ... ON CONFLICT statement that moves staged rows
// into the target table.
func (u Upsert) mergeSQL(staging string) string {
	keySet := make(map[string]bool, len(u.Keys))
	for _, k := range u.Keys {
		keySet[k] = true
	}

	var sets []string
	for _, col := range u.Columns {
		if keySet[col] {
			continue
		}
		q := quoteIdent(col)
		sets = append(sets, q+" = EXCLUDED."+q)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO UPDATE SET %s",
		quoteIdent(u.Table),
		quoteIdents(u.Columns),
		quoteIdents(u.Columns),
		quoteIdent(staging),
		quoteIdents(u.Keys),
		strings.Join(sets, ", "),
	)
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func quoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
