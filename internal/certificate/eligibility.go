// Package certificate decides whether a learner's course certificate can be
// downloaded. Issuance happens on the server; this package only reads.
package certificate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/lessonkit/internal/lms"
)

// IsReady reports whether the certificate can be offered: the course has
// ended, the enrollment is at 100% and a certificate record exists.
func IsReady(course *lms.Course, enrollmentProgress *int, cert *lms.Certificate) bool {
	return course != nil && course.IsEnded &&
		enrollmentProgress != nil && *enrollmentProgress == 100 &&
		cert != nil
}

// Signals are the three inputs to IsReady. A nil field is unknown.
type Signals struct {
	Course      *lms.Course
	Progress    *int
	Certificate *lms.Certificate
}

// Condition names one requirement for a downloadable certificate.
type Condition string

const (
	CondCourseEnded       Condition = "course has ended"
	CondLessonsCompleted  Condition = "all lessons completed"
	CondCertificateIssued Condition = "certificate issued"
)

// Status is the evaluated verdict.
type Status struct {
	Ready       bool
	Unmet       []Condition
	DownloadURL string
}

// Evaluate applies IsReady to s and lists the conditions that are not met.
func Evaluate(s Signals) Status {
	st := Status{Ready: IsReady(s.Course, s.Progress, s.Certificate)}
	if s.Course == nil || !s.Course.IsEnded {
		st.Unmet = append(st.Unmet, CondCourseEnded)
	}
	if s.Progress == nil || *s.Progress != 100 {
		st.Unmet = append(st.Unmet, CondLessonsCompleted)
	}
	if s.Certificate == nil {
		st.Unmet = append(st.Unmet, CondCertificateIssued)
	}
	if st.Ready {
		st.DownloadURL = s.Certificate.CertificateURL
	}
	return st
}

// Source fetches the signals. *api.Client satisfies it.
type Source interface {
	GetCourse(ctx context.Context, courseID string) (*lms.Course, error)
	GetEnrollment(ctx context.Context, courseID string) (*lms.Enrollment, error)
	MyCertificates(ctx context.Context) ([]lms.Certificate, error)
}

// Gather fetches course, enrollment and certificates concurrently. A signal
// that could not be fetched is left nil so Evaluate yields "not ready"; the
// first fetch error is returned alongside for reporting.
func Gather(ctx context.Context, src Source, courseID string) (Signals, error) {
	var (
		s Signals
		g errgroup.Group
	)

	g.Go(func() error {
		c, err := src.GetCourse(ctx, courseID)
		if err != nil {
			return fmt.Errorf("course: %w", err)
		}
		s.Course = c
		return nil
	})
	g.Go(func() error {
		e, err := src.GetEnrollment(ctx, courseID)
		if err != nil {
			return fmt.Errorf("enrollment: %w", err)
		}
		if e != nil {
			p := e.Progress
			s.Progress = &p
		}
		return nil
	})
	g.Go(func() error {
		certs, err := src.MyCertificates(ctx)
		if err != nil {
			return fmt.Errorf("certificates: %w", err)
		}
		s.Certificate = Find(certs, courseID)
		return nil
	})

	err := g.Wait()
	return s, err
}

// Find returns the certificate for courseID, or nil.
func Find(certs []lms.Certificate, courseID string) *lms.Certificate {
	for i := range certs {
		if certs[i].Course.ID == courseID {
			return &certs[i]
		}
	}
	return nil
}
