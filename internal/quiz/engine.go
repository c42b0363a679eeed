// Package quiz runs a lesson's quiz: fetch the questions (never the answer
// key), submit once, and keep the graded result.
//
// A graded result is canonical. Once the engine has one for a lesson every
// later FetchResult or Submit returns that same object without contacting
// the server.
package quiz

import (
	"context"
	"fmt"
	"sync"

	"github.com/abhisek/lessonkit/internal/api"
	"github.com/abhisek/lessonkit/internal/flight"
	"github.com/abhisek/lessonkit/internal/lms"
	"github.com/abhisek/lessonkit/internal/logger"
	"github.com/abhisek/lessonkit/internal/store"
)

// State is where a lesson's quiz stands from the engine's point of view.
type State int

const (
	StateUnknown    State = iota // nothing fetched yet
	StateNoQuiz                  // lesson has no quiz
	StateUnanswered              // quiz loaded, no result
	StateGraded                  // result exists; terminal
)

func (s State) String() string {
	switch s {
	case StateNoQuiz:
		return "no-quiz"
	case StateUnanswered:
		return "unanswered"
	case StateGraded:
		return "graded"
	default:
		return "unknown"
	}
}

// Backend is the part of the API the engine talks to. *api.Client
// satisfies it.
type Backend interface {
	GetQuiz(ctx context.Context, lessonID string) (*lms.Quiz, error)
	SubmitQuiz(ctx context.Context, lessonID string, answers []lms.Answer) (*lms.QuizResult, error)
	GetQuizResult(ctx context.Context, lessonID string) (*lms.QuizResult, error)
}

// Journal records accepted learner activity.
type Journal interface {
	AppendActivity(ctx context.Context, data store.ActivityEventData) error
}

// Options configures an Engine.
type Options struct {
	StudentID string
	SessionID string
	// PassingPercentage labels results as passed. Zero means
	// lms.PassingPercentage.
	PassingPercentage float64
	Logger            *logger.Logger
	Journal           Journal
}

// Engine holds quiz state per lesson. It is safe for concurrent use.
type Engine struct {
	backend   Backend
	log       *logger.Logger
	journal   Journal
	studentID string
	sessionID string
	passing   float64

	flights flight.Group

	mu      sync.Mutex
	gen     uint64
	lessons map[string]*lesson
}

type lesson struct {
	loaded bool
	quiz   *lms.Quiz
	result *lms.QuizResult
}

// New creates an Engine.
func New(backend Backend, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	passing := opts.PassingPercentage
	if passing == 0 {
		passing = lms.PassingPercentage
	}
	return &Engine{
		backend:   backend,
		log:       log.With("component", "quiz"),
		journal:   opts.Journal,
		studentID: opts.StudentID,
		sessionID: opts.SessionID,
		passing:   passing,
		lessons:   make(map[string]*lesson),
	}
}

// PassingPercentage returns the threshold used by Passed.
func (e *Engine) PassingPercentage() float64 { return e.passing }

// Passed labels r against the engine's threshold.
func (e *Engine) Passed(r *lms.QuizResult) bool { return r.Passed(e.passing) }

// State reports the lesson's quiz state.
func (e *Engine) State(lessonID string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.lessons[lessonID]
	switch {
	case !ok:
		return StateUnknown
	case l.result != nil:
		return StateGraded
	case !l.loaded:
		return StateUnknown
	case l.quiz == nil:
		return StateNoQuiz
	default:
		return StateUnanswered
	}
}

func (e *Engine) lessonLocked(lessonID string) *lesson {
	l, ok := e.lessons[lessonID]
	if !ok {
		l = &lesson{}
		e.lessons[lessonID] = l
	}
	return l
}

func (e *Engine) generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

// FetchQuiz loads a lesson's quiz. A nil quiz with a nil error means the
// lesson has no quiz.
func (e *Engine) FetchQuiz(ctx context.Context, lessonID string) (*lms.Quiz, error) {
	if lessonID == "" {
		return nil, &lms.ValidationError{Field: "lessonId", Reason: "required"}
	}

	e.mu.Lock()
	if l, ok := e.lessons[lessonID]; ok && l.loaded {
		q := l.quiz
		e.mu.Unlock()
		return q, nil
	}
	gen := e.gen
	e.mu.Unlock()

	v, err := e.flights.Do(ctx, fmt.Sprintf("%d/quiz/%s", gen, lessonID), func(ctx context.Context) (any, error) {
		return e.backend.GetQuiz(ctx, lessonID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch quiz for lesson %s: %w", lessonID, err)
	}
	q := v.(*lms.Quiz)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen == gen {
		l := e.lessonLocked(lessonID)
		if !l.loaded {
			l.loaded, l.quiz = true, q
		}
		q = l.quiz
	}
	return q, nil
}

// FetchResult returns the lesson's graded result. A nil result with a nil
// error means the quiz has not been taken. Once a result is known the same
// object is returned on every call.
func (e *Engine) FetchResult(ctx context.Context, lessonID string) (*lms.QuizResult, error) {
	if lessonID == "" {
		return nil, &lms.ValidationError{Field: "lessonId", Reason: "required"}
	}
	if r := e.cachedResult(lessonID); r != nil {
		return r, nil
	}

	gen := e.generation()
	v, err := e.flights.Do(ctx, fmt.Sprintf("%d/result/%s", gen, lessonID), func(ctx context.Context) (any, error) {
		return e.backend.GetQuizResult(ctx, lessonID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch quiz result for lesson %s: %w", lessonID, err)
	}
	r := v.(*lms.QuizResult)
	if r == nil {
		return nil, nil
	}
	return e.keepResult(lessonID, gen, r), nil
}

// Submit grades answers for a lesson's quiz. The quiz must have been
// fetched, and answers must cover every question exactly once with one of
// its options; otherwise a *lms.ValidationError is returned and nothing is
// sent. A lesson that already has a result returns it unchanged.
func (e *Engine) Submit(ctx context.Context, lessonID string, answers []lms.Answer) (*lms.QuizResult, error) {
	if r := e.cachedResult(lessonID); r != nil {
		e.log.Debug("quiz already graded; returning original result", "lesson_id", lessonID)
		return r, nil
	}

	e.mu.Lock()
	var q *lms.Quiz
	loaded := false
	if l, ok := e.lessons[lessonID]; ok {
		q, loaded = l.quiz, l.loaded
	}
	gen := e.gen
	e.mu.Unlock()

	switch {
	case !loaded:
		return nil, &lms.ValidationError{Field: "lessonId", Reason: "quiz has not been fetched"}
	case q == nil:
		return nil, &lms.ValidationError{Field: "lessonId", Reason: "lesson has no quiz"}
	}
	if err := CheckAnswers(q, answers); err != nil {
		return nil, err
	}

	v, err := e.flights.Do(ctx, fmt.Sprintf("%d/submit/%s", gen, lessonID), func(ctx context.Context) (any, error) {
		r, err := e.backend.SubmitQuiz(ctx, lessonID, answers)
		if err == nil {
			r = e.keepResult(lessonID, gen, r)
			e.record(ctx, lessonID, r)
			return r, nil
		}
		if !api.IsConflict(err) {
			return nil, err
		}
		e.log.Info("quiz already submitted; fetching existing result", "lesson_id", lessonID)
		existing, ferr := e.backend.GetQuizResult(ctx, lessonID)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, fmt.Errorf("server reported a prior submission but has no result: %w", err)
		}
		return e.keepResult(lessonID, gen, existing), nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit quiz for lesson %s: %w", lessonID, err)
	}
	return v.(*lms.QuizResult), nil
}

func (e *Engine) cachedResult(lessonID string) *lms.QuizResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok := e.lessons[lessonID]; ok {
		return l.result
	}
	return nil
}

// keepResult caches r unless a result is already cached or a Reset
// happened since gen, and returns the canonical result.
func (e *Engine) keepResult(lessonID string, gen uint64, r *lms.QuizResult) *lms.QuizResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return r
	}
	l := e.lessonLocked(lessonID)
	if l.result == nil {
		l.result = r
	}
	return l.result
}

// Reset drops all cached quizzes and results. Requests in flight complete
// but their results are not cached.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.lessons = make(map[string]*lesson)
}

func (e *Engine) record(ctx context.Context, lessonID string, r *lms.QuizResult) {
	if e.journal == nil {
		return
	}
	err := e.journal.AppendActivity(context.WithoutCancel(ctx), store.ActivityEventData{
		SessionID: e.sessionID,
		StudentID: e.studentID,
		LessonID:  lessonID,
		Kind:      store.ActivityQuizSubmitted,
		Detail: map[string]any{
			"score":      r.Score,
			"total":      r.Total,
			"percentage": r.Percentage,
			"passed":     e.Passed(r),
		},
	})
	if err != nil {
		e.log.Warn("journal activity failed", "kind", store.ActivityQuizSubmitted, "error", err)
	}
}
