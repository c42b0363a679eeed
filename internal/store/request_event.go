package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const requestTable = "request_events"

func (r *eventRepo) AppendRequest(ctx context.Context, data RequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(requestTable).
		Columns("sequence", "timestamp", "request_id", "method", "path", "status", "latency_ms", "error").
		Values(seqNum, time.Now().UTC().UnixMilli(), data.RequestID, data.Method, data.Path, data.Status, data.LatencyMs, data.Error).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("save request event: %w", err)
	}
	return nil
}

func (r *eventRepo) RequestStats(ctx context.Context) ([]RequestStat, error) {
	totals := entsql.Dialect(dialect.SQLite).
		Select(
			"path",
			entsql.As(entsql.Count("*"), "calls"),
			entsql.As(entsql.Avg("latency_ms"), "avg_latency"),
			entsql.As(entsql.Max("latency_ms"), "max_latency"),
		).
		From(entsql.Table(requestTable)).
		GroupBy("path")

	query, args := totals.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query request totals: %w", err)
	}
	byPath := map[string]*RequestStat{}
	for rows.Next() {
		var (
			st  RequestStat
			avg sql.NullFloat64
			max sql.NullInt64
		)
		if err := rows.Scan(&st.Path, &st.Calls, &avg, &max); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan request totals: %w", err)
		}
		st.AvgLatencyMs = int64(avg.Float64 + 0.5)
		st.MaxLatencyMs = max.Int64
		byPath[st.Path] = &st
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	failed := entsql.Dialect(dialect.SQLite).
		Select("path", entsql.As(entsql.Count("*"), "failures")).
		From(entsql.Table(requestTable)).
		Where(entsql.Or(entsql.EQ("status", 0), entsql.GTE("status", 400))).
		GroupBy("path")

	query, args = failed.Query()
	var frows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &frows); err != nil {
		return nil, fmt.Errorf("query request failures: %w", err)
	}
	defer frows.Close()
	for frows.Next() {
		var (
			path string
			n    int
		)
		if err := frows.Scan(&path, &n); err != nil {
			return nil, fmt.Errorf("scan request failures: %w", err)
		}
		if st, ok := byPath[path]; ok {
			st.Failures = n
		}
	}
	if err := frows.Err(); err != nil {
		return nil, err
	}

	out := make([]RequestStat, 0, len(byPath))
	for _, st := range byPath {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Calls != out[j].Calls {
			return out[i].Calls > out[j].Calls
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}
