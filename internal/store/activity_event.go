package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const activityTable = "activity_events"

func (r *eventRepo) AppendActivity(ctx context.Context, data ActivityEventData) error {
	detail := "{}"
	if len(data.Detail) > 0 {
		b, err := json.Marshal(data.Detail)
		if err != nil {
			return fmt.Errorf("marshal activity detail: %w", err)
		}
		detail = string(b)
	}

	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(activityTable).
		Columns("sequence", "timestamp", "session_id", "student_id", "course_id", "lesson_id", "kind", "detail").
		Values(seqNum, time.Now().UTC().UnixMilli(), data.SessionID, data.StudentID, data.CourseID, data.LessonID, string(data.Kind), detail).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("save activity event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryActivity(ctx context.Context, opts QueryOpts) ([]ActivityEvent, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("sequence", "timestamp", "session_id", "student_id", "course_id", "lesson_id", "kind", "detail").
		From(entsql.Table(activityTable)).
		OrderBy(entsql.Desc("sequence"))
	if opts.CourseID != "" {
		sel.Where(entsql.EQ("course_id", opts.CourseID))
	}
	if opts.SessionID != "" {
		sel.Where(entsql.EQ("session_id", opts.SessionID))
	}
	applyWindow(sel, opts)

	query, args := sel.Query()
	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []ActivityEvent
	for rows.Next() {
		var (
			e      ActivityEvent
			ts     int64
			kind   string
			detail string
		)
		if err := rows.Scan(&e.Sequence, &ts, &e.SessionID, &e.StudentID, &e.CourseID, &e.LessonID, &kind, &detail); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		e.Kind = ActivityKind(kind)
		if detail != "" && detail != "{}" {
			if err := json.Unmarshal([]byte(detail), &e.Detail); err != nil {
				return nil, fmt.Errorf("decode activity %d detail: %w", e.Sequence, err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// applyWindow adds the sequence/time/limit filters shared by event queries.
func applyWindow(sel *entsql.Selector, opts QueryOpts) {
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("timestamp", opts.From.UTC().UnixMilli()))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
}
