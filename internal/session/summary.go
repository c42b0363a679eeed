package session

import (
	"context"

	"github.com/abhisek/lessonkit/internal/store"
)

// Summary counts what the learner did during a session.
type Summary struct {
	SessionID string
	Counts    map[store.ActivityKind]int
	Total     int
}

// Summarize reads the session's activity back from the journal. Without a
// journal the summary is empty.
func (s *Session) Summarize(ctx context.Context) (Summary, error) {
	sum := Summary{SessionID: s.ID, Counts: map[store.ActivityKind]int{}}
	if s.journal == nil {
		return sum, nil
	}
	events, err := s.journal.QueryActivity(ctx, store.QueryOpts{SessionID: s.ID})
	if err != nil {
		return sum, err
	}
	for _, e := range events {
		sum.Counts[e.Kind]++
		sum.Total++
	}
	return sum, nil
}
