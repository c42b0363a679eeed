// Package session bundles the engine components for one learner into an
// explicit container with an Open/Close lifecycle.
//
// Operations should run under Context(). Close cancels that context, so
// in-flight requests abort, and resets component caches so late responses
// cannot repopulate them.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/lessonkit/internal/api"
	"github.com/abhisek/lessonkit/internal/certificate"
	"github.com/abhisek/lessonkit/internal/enrollment"
	"github.com/abhisek/lessonkit/internal/llm"
	"github.com/abhisek/lessonkit/internal/logger"
	"github.com/abhisek/lessonkit/internal/progress"
	"github.com/abhisek/lessonkit/internal/quiz"
	"github.com/abhisek/lessonkit/internal/review"
	"github.com/abhisek/lessonkit/internal/store"
	"github.com/abhisek/lessonkit/internal/tutor"
)

// Phase is the lifecycle phase of a Session.
type Phase int

const (
	PhaseOpen Phase = iota
	PhaseClosed
)

func (p Phase) String() string {
	if p == PhaseClosed {
		return "closed"
	}
	return "open"
}

// Deps are the shared collaborators a Session is built from.
type Deps struct {
	Client *api.Client
	// Journal may be nil when journaling is disabled.
	Journal           store.EventRepo
	Logger            *logger.Logger
	PassingPercentage float64
	// LLM enables tutor feedback. May be nil.
	LLM llm.Provider
}

// Session is one learner's working set.
type Session struct {
	ID        string
	StudentID string
	StartedAt time.Time

	Progress     *progress.Store
	Quiz         *quiz.Engine
	Certificates *certificate.Checker
	Access       *enrollment.Gate
	Reviews      *review.Gate
	// Tutor is nil when no LLM provider is configured.
	Tutor *tutor.Tutor

	journal store.EventRepo
	log     *logger.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	mu    sync.Mutex
	phase Phase
}

// Open creates a Session whose context derives from parent.
func Open(parent context.Context, deps Deps) (*Session, error) {
	if deps.Client == nil {
		return nil, fmt.Errorf("session: api client is required")
	}
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	id := uuid.NewString()
	student := deps.Client.StudentID()
	log = log.With("session_id", id)

	// Typed nil journals must stay untyped nil for the components.
	var (
		pj progress.Journal
		qj quiz.Journal
		cj certificate.Journal
		ej enrollment.Journal
		rj review.Journal
	)
	if deps.Journal != nil {
		pj, qj, cj, ej, rj = deps.Journal, deps.Journal, deps.Journal, deps.Journal, deps.Journal
	}

	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:        id,
		StudentID: student,
		StartedAt: time.Now(),
		Progress: progress.New(deps.Client, progress.Options{
			StudentID: student,
			SessionID: id,
			Logger:    log,
			Journal:   pj,
		}),
		Quiz: quiz.New(deps.Client, quiz.Options{
			StudentID:         student,
			SessionID:         id,
			PassingPercentage: deps.PassingPercentage,
			Logger:            log,
			Journal:           qj,
		}),
		Certificates: certificate.NewChecker(deps.Client, log, cj, student, id),
		Access:       enrollment.NewGate(deps.Client, log, ej, student, id),
		Reviews:      review.NewGate(deps.Client, log, rj, student, id),
		journal:      deps.Journal,
		log:          log,
		ctx:          ctx,
		cancel:       cancel,
	}
	if deps.LLM != nil {
		s.Tutor = tutor.New(deps.LLM, tutor.DefaultConfig())
	}
	log.Debug("session opened", "student_id", student)
	return s, nil
}

// Context is canceled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Phase reports the lifecycle phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Close tears the session down. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseClosed
	s.mu.Unlock()

	s.cancel()
	s.Progress.Reset()
	s.Quiz.Reset()
	s.log.Debug("session closed", "duration", time.Since(s.StartedAt).Round(time.Millisecond).String())
}
