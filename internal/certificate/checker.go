package certificate

import (
	"context"

	"github.com/abhisek/lessonkit/internal/logger"
	"github.com/abhisek/lessonkit/internal/store"
)

// Journal records learner activity.
type Journal interface {
	AppendActivity(ctx context.Context, data store.ActivityEventData) error
}

// Checker gathers and evaluates certificate signals for one learner.
type Checker struct {
	src       Source
	log       *logger.Logger
	journal   Journal
	studentID string
	sessionID string
}

// NewChecker creates a Checker. log and journal may be nil.
func NewChecker(src Source, log *logger.Logger, journal Journal, studentID, sessionID string) *Checker {
	if log == nil {
		log = logger.Nop()
	}
	return &Checker{src: src, log: log, journal: journal, studentID: studentID, sessionID: sessionID}
}

// Check returns the certificate status for a course. On a fetch error the
// status is still returned (not ready) together with the error.
func (c *Checker) Check(ctx context.Context, courseID string) (Status, Signals, error) {
	sig, err := Gather(ctx, c.src, courseID)
	st := Evaluate(sig)
	if err != nil {
		c.log.Warn("certificate signals incomplete", "course_id", courseID, "error", err)
	}

	if c.journal != nil {
		unmet := make([]string, len(st.Unmet))
		for i, u := range st.Unmet {
			unmet[i] = string(u)
		}
		jerr := c.journal.AppendActivity(context.WithoutCancel(ctx), store.ActivityEventData{
			SessionID: c.sessionID,
			StudentID: c.studentID,
			CourseID:  courseID,
			Kind:      store.ActivityCertificateCheck,
			Detail:    map[string]any{"ready": st.Ready, "unmet": unmet},
		})
		if jerr != nil {
			c.log.Warn("journal activity failed", "kind", store.ActivityCertificateCheck, "error", jerr)
		}
	}
	return st, sig, err
}
