package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// Timestamps are stored as unix milliseconds (UTC).
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS activity_events (
		sequence   INTEGER PRIMARY KEY,
		timestamp  INTEGER NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		student_id TEXT NOT NULL DEFAULT '',
		course_id  TEXT NOT NULL DEFAULT '',
		lesson_id  TEXT NOT NULL DEFAULT '',
		kind       TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS activity_events_course ON activity_events (course_id)`,
	`CREATE INDEX IF NOT EXISTS activity_events_timestamp ON activity_events (timestamp)`,
	`CREATE INDEX IF NOT EXISTS activity_events_session ON activity_events (session_id)`,

	`CREATE TABLE IF NOT EXISTS request_events (
		sequence   INTEGER PRIMARY KEY,
		timestamp  INTEGER NOT NULL,
		request_id TEXT NOT NULL DEFAULT '',
		method     TEXT NOT NULL,
		path       TEXT NOT NULL,
		status     INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		error      TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS request_events_path ON request_events (path)`,

	`CREATE TABLE IF NOT EXISTS llm_request_events (
		sequence      INTEGER PRIMARY KEY,
		timestamp     INTEGER NOT NULL,
		provider      TEXT NOT NULL DEFAULT '',
		model         TEXT NOT NULL DEFAULT '',
		purpose       TEXT NOT NULL DEFAULT '',
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT ''
	)`,
}

func migrate(ctx context.Context, drv *entsql.Driver) error {
	for _, stmt := range ddl {
		var res sql.Result
		if err := drv.Exec(ctx, stmt, []any{}, &res); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
