// Package enrollment decides whether a learner may open a course, from the
// course order's payment status and the enrollment record.
package enrollment

import (
	"context"
	"fmt"

	"github.com/abhisek/lessonkit/internal/lms"
	"github.com/abhisek/lessonkit/internal/logger"
	"github.com/abhisek/lessonkit/internal/store"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonEnrolled          Reason = "enrolled"
	ReasonEnrollmentPending Reason = "payment received, enrollment pending"
	ReasonAwaitingPayment   Reason = "awaiting payment"
	ReasonPaymentFailed     Reason = "payment failed"
	ReasonNoOrder           Reason = "no order for this course"
	ReasonUnknownStatus     Reason = "unknown payment status"
)

// Decision is the access verdict for one course.
type Decision struct {
	Granted bool
	Reason  Reason
	Order   *lms.Order
	// Enrollment is nil when the learner is not (yet) enrolled.
	Enrollment *lms.Enrollment
}

// Decide derives access. An enrollment grants access outright. A paid order
// grants access while its enrollment is still being created.
func Decide(order *lms.Order, enrollment *lms.Enrollment) Decision {
	d := Decision{Order: order, Enrollment: enrollment}
	switch {
	case enrollment != nil:
		d.Granted, d.Reason = true, ReasonEnrolled
	case order == nil:
		d.Reason = ReasonNoOrder
	case order.PaymentStatus == lms.PaymentPaid:
		d.Granted, d.Reason = true, ReasonEnrollmentPending
	case order.PaymentStatus == lms.PaymentPending:
		d.Reason = ReasonAwaitingPayment
	case order.PaymentStatus == lms.PaymentFailed:
		d.Reason = ReasonPaymentFailed
	default:
		d.Reason = ReasonUnknownStatus
	}
	return d
}

// Source fetches order and enrollment. *api.Client satisfies it.
type Source interface {
	GetOrder(ctx context.Context, courseID string) (*lms.Order, error)
	GetEnrollment(ctx context.Context, courseID string) (*lms.Enrollment, error)
}

// Journal records learner activity.
type Journal interface {
	AppendActivity(ctx context.Context, data store.ActivityEventData) error
}

// Gate checks course access against the server.
type Gate struct {
	src       Source
	log       *logger.Logger
	journal   Journal
	studentID string
	sessionID string
}

// NewGate creates a Gate. log and journal may be nil.
func NewGate(src Source, log *logger.Logger, journal Journal, studentID, sessionID string) *Gate {
	if log == nil {
		log = logger.Nop()
	}
	return &Gate{src: src, log: log, journal: journal, studentID: studentID, sessionID: sessionID}
}

// Check fetches the enrollment and, when needed, the order, then decides.
// A failed enrollment fetch does not fail the check when the order answers
// the question.
func (g *Gate) Check(ctx context.Context, courseID string) (Decision, error) {
	enrollment, enrErr := g.src.GetEnrollment(ctx, courseID)
	if enrErr != nil {
		g.log.Warn("enrollment lookup failed; deciding from order", "course_id", courseID, "error", enrErr)
		enrollment = nil
	}

	var d Decision
	if enrollment != nil {
		d = Decide(nil, enrollment)
	} else {
		order, err := g.src.GetOrder(ctx, courseID)
		if err != nil {
			if enrErr != nil {
				return Decision{}, fmt.Errorf("check access to course %s: %w", courseID, enrErr)
			}
			return Decision{}, fmt.Errorf("check access to course %s: %w", courseID, err)
		}
		if order != nil && !order.PaymentStatus.Valid() {
			g.log.Warn("order has unknown payment status", "order_id", order.ID, "status", order.PaymentStatus)
		}
		d = Decide(order, nil)
	}

	g.record(ctx, courseID, d)
	return d, nil
}

func (g *Gate) record(ctx context.Context, courseID string, d Decision) {
	if g.journal == nil {
		return
	}
	err := g.journal.AppendActivity(context.WithoutCancel(ctx), store.ActivityEventData{
		SessionID: g.sessionID,
		StudentID: g.studentID,
		CourseID:  courseID,
		Kind:      store.ActivityAccessChecked,
		Detail:    map[string]any{"granted": d.Granted, "reason": string(d.Reason)},
	})
	if err != nil {
		g.log.Warn("journal activity failed", "kind", store.ActivityAccessChecked, "error", err)
	}
}
