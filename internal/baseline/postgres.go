package baseline

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Prepared statement names registered by the db package.
const (
	StmtRows   = "baseline_rows"
	StmtUpsert = "baseline_upsert"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Batcher is satisfied by *pgxpool.Pool and pgx.Tx.
type Batcher interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type row struct {
	League   string   `db:"league"`
	Season   string   `db:"season"`
	Position string   `db:"position"`
	Metric   string   `db:"metric"`
	Mean     *float64 `db:"mean"`
	Std      *float64 `db:"std"`
	N        int      `db:"n"`
}

func (r row) entry() Entry {
	return Entry{
		Population: Population{League: r.League, Season: r.Season, Position: r.Position},
		Metric:     r.Metric,
		Stats:      Stats{Mean: optional(r.Mean), Std: optional(r.Std), N: r.N},
	}
}

func tableFromRows(rows []row) *Table {
	entries := make([]Entry, len(rows))
	for i, r := range rows {
		entries[i] = r.entry()
	}
	return NewTable(entries)
}

// LoadPostgres reads the baselines table.
func LoadPostgres(ctx context.Context, q Querier) (*Table, error) {
	rows, err := q.Query(ctx, StmtRows)
	if err != nil {
		return nil, fmt.Errorf("query baselines: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, fmt.Errorf("scan baselines: %w", err)
	}
	return tableFromRows(collected), nil
}

// Import upserts every entry of t in one batch and returns the row count.
func Import(ctx context.Context, b Batcher, t *Table) (int, error) {
	entries := t.Entries()
	if len(entries) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		var mean, std *float64
		if v, ok := e.Mean.Get(); ok {
			mean = &v
		}
		if v, ok := e.Std.Get(); ok {
			std = &v
		}
		batch.Queue(StmtUpsert, e.League, e.Season, e.Position, e.Metric, mean, std, e.N)
	}

	br := b.SendBatch(ctx, batch)
	defer br.Close()

	for i, e := range entries {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("upsert baseline %s %s: %w", e.Population, e.Metric, err)
		}
	}
	return len(entries), nil
}
