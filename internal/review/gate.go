// Package review lets a learner review a course once the server says they
// may. Eligibility is the server's verdict and is passed through as is.
package review

import (
	"context"
	"fmt"

	"github.com/abhisek/lessonkit/internal/lms"
	"github.com/abhisek/lessonkit/internal/logger"
	"github.com/abhisek/lessonkit/internal/store"
)

// Backend is the part of the API the gate uses. *api.Client satisfies it.
type Backend interface {
	CanReview(ctx context.Context, courseID string) (lms.ReviewEligibility, error)
	CreateReview(ctx context.Context, courseID string, in lms.ReviewInput) (*lms.Review, error)
}

// Journal records learner activity.
type Journal interface {
	AppendActivity(ctx context.Context, data store.ActivityEventData) error
}

// Gate wraps review eligibility and creation.
type Gate struct {
	backend   Backend
	log       *logger.Logger
	journal   Journal
	studentID string
	sessionID string
}

// NewGate creates a Gate. log and journal may be nil.
func NewGate(backend Backend, log *logger.Logger, journal Journal, studentID, sessionID string) *Gate {
	if log == nil {
		log = logger.Nop()
	}
	return &Gate{backend: backend, log: log, journal: journal, studentID: studentID, sessionID: sessionID}
}

// CanReview returns the server's eligibility verdict.
func (g *Gate) CanReview(ctx context.Context, courseID string) (lms.ReviewEligibility, error) {
	if courseID == "" {
		return lms.ReviewEligibility{}, &lms.ValidationError{Field: "courseId", Reason: "required"}
	}
	e, err := g.backend.CanReview(ctx, courseID)
	if err != nil {
		return lms.ReviewEligibility{}, fmt.Errorf("review eligibility for course %s: %w", courseID, err)
	}
	return e, nil
}

// Create posts a review. The rating must be 1-5 and the comment at most
// 2000 characters; violations are reported before anything is sent.
func (g *Gate) Create(ctx context.Context, courseID string, in lms.ReviewInput) (*lms.Review, error) {
	if courseID == "" {
		return nil, &lms.ValidationError{Field: "courseId", Reason: "required"}
	}
	if err := lms.Validate(in); err != nil {
		return nil, err
	}

	r, err := g.backend.CreateReview(ctx, courseID, in)
	if err != nil {
		return nil, fmt.Errorf("create review for course %s: %w", courseID, err)
	}

	if g.journal != nil {
		jerr := g.journal.AppendActivity(context.WithoutCancel(ctx), store.ActivityEventData{
			SessionID: g.sessionID,
			StudentID: g.studentID,
			CourseID:  courseID,
			Kind:      store.ActivityReviewCreated,
			Detail:    map[string]any{"rating": in.Rating},
		})
		if jerr != nil {
			g.log.Warn("journal activity failed", "kind", store.ActivityReviewCreated, "error", jerr)
		}
	}
	return r, nil
}
