package store

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int       // max results (0 = unlimited)
	After     int64     // sequence > After
	From      time.Time // timestamp >= From
	CourseID  string    // activity only
	SessionID string    // activity only
}

// ActivityKind names what a learner did.
type ActivityKind string

const (
	ActivityLessonCompleted   ActivityKind = "lesson_completed"
	ActivityLessonUncompleted ActivityKind = "lesson_uncompleted"
	ActivityLastWatched       ActivityKind = "last_watched"
	ActivityQuizSubmitted     ActivityKind = "quiz_submitted"
	ActivityReviewCreated     ActivityKind = "review_created"
	ActivityAccessChecked     ActivityKind = "access_checked"
	ActivityCertificateCheck  ActivityKind = "certificate_checked"
)

// ActivityEventData captures one learner action that the server accepted.
type ActivityEventData struct {
	SessionID string
	StudentID string
	CourseID  string
	LessonID  string
	Kind      ActivityKind
	Detail    map[string]any
}

// ActivityEvent is a stored ActivityEventData.
type ActivityEvent struct {
	Sequence  int64
	Timestamp time.Time
	ActivityEventData
}

// RequestEventData captures one API call.
type RequestEventData struct {
	RequestID string
	Method    string
	Path      string
	Status    int // 0 when no response was received
	LatencyMs int64
	Error     string
}

// RequestStat aggregates API calls for one path template.
type RequestStat struct {
	Path         string
	Calls        int
	Failures     int
	AvgLatencyMs int64
	MaxLatencyMs int64
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// LLMEvent is a stored LLMRequestEventData.
type LLMEvent struct {
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token usage for one purpose.
type LLMUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to the journal.
type EventRepo interface {
	AppendActivity(ctx context.Context, data ActivityEventData) error
	AppendRequest(ctx context.Context, data RequestEventData) error
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryActivity returns activity newest first.
	QueryActivity(ctx context.Context, opts QueryOpts) ([]ActivityEvent, error)
	// RequestStats aggregates request events per path, busiest first.
	RequestStats(ctx context.Context) ([]RequestStat, error)
	// QueryLLMEvents returns LLM events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
}

// eventRepo implements EventRepo with ent's SQL builder and the global
// sequence counter.
type eventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}
