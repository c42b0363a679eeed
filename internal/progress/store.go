// Package progress tracks which lessons of a course the learner has
// completed and which lesson they watched last.
//
// Mutations for one (student, course) pair run one at a time and the
// resulting progress is recomputed from the committed completed set, so
// out-of-order responses cannot leave a stale percentage behind. A failed
// request leaves the cached state exactly as it was.
package progress

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/abhisek/lessonkit/internal/api"
	"github.com/abhisek/lessonkit/internal/flight"
	"github.com/abhisek/lessonkit/internal/lms"
	"github.com/abhisek/lessonkit/internal/logger"
	"github.com/abhisek/lessonkit/internal/store"
)

// Backend is the part of the API the store talks to. *api.Client
// satisfies it.
type Backend interface {
	GetProgress(ctx context.Context, courseID string) (*lms.CourseProgress, error)
	UpdateProgress(ctx context.Context, courseID, lessonID string, completed bool) (*api.ProgressUpdate, error)
	SetLastWatched(ctx context.Context, courseID, lessonID string) error
}

// Journal records accepted learner activity. store.EventRepo satisfies it.
type Journal interface {
	AppendActivity(ctx context.Context, data store.ActivityEventData) error
}

// Options configures a Store.
type Options struct {
	StudentID string
	SessionID string
	Logger    *logger.Logger
	Journal   Journal
}

// Store caches per-course progress for one learner.
type Store struct {
	backend   Backend
	log       *logger.Logger
	journal   Journal
	studentID string
	sessionID string

	flights flight.Group
	locks   keyedMutex

	mu    sync.Mutex
	gen   uint64
	cache map[string]entry
}

type entry struct {
	completed   []string
	lastWatched string
}

func (e entry) has(lessonID string) bool { return slices.Contains(e.completed, lessonID) }

func (e entry) with(lessonID string, completed bool) entry {
	next := entry{lastWatched: e.lastWatched}
	if completed {
		next.completed = append(slices.Clone(e.completed), lessonID)
		return next
	}
	next.completed = slices.DeleteFunc(slices.Clone(e.completed), func(id string) bool { return id == lessonID })
	return next
}

// New creates a Store.
func New(backend Backend, opts Options) *Store {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		backend:   backend,
		log:       log.With("component", "progress"),
		journal:   opts.Journal,
		studentID: opts.StudentID,
		sessionID: opts.SessionID,
		cache:     make(map[string]entry),
	}
}

func (s *Store) key(courseID string) string { return s.studentID + "/" + courseID }

func (s *Store) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// commit stores e unless a Reset happened since gen was read.
func (s *Store) commit(courseID string, gen uint64, e entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.cache[courseID] = e
	return true
}

func (s *Store) cached(courseID string) (entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[courseID]
	return e, ok
}

// Fetch loads the learner's progress on a course from the server and
// caches it. A course with no progress record yields an empty state.
// Concurrent fetches of the same course share one request.
func (s *Store) Fetch(ctx context.Context, courseID string) (lms.CourseProgress, error) {
	if courseID == "" {
		return lms.CourseProgress{}, &lms.ValidationError{Field: "courseId", Reason: "required"}
	}
	gen := s.generation()
	v, err := s.flights.Do(ctx, fmt.Sprintf("%d/%s", gen, s.key(courseID)), func(ctx context.Context) (any, error) {
		unlock, err := s.locks.lock(ctx, s.key(courseID))
		if err != nil {
			return nil, err
		}
		defer unlock()
		return s.load(ctx, courseID, gen)
	})
	if err != nil {
		return lms.CourseProgress{}, err
	}
	return snapshot(courseID, v.(entry)), nil
}

// load fetches and caches server state. Callers hold the course lock.
func (s *Store) load(ctx context.Context, courseID string, gen uint64) (entry, error) {
	p, err := s.backend.GetProgress(ctx, courseID)
	if err != nil {
		return entry{}, fmt.Errorf("fetch progress for course %s: %w", courseID, err)
	}
	var e entry
	if p != nil {
		e = entry{completed: slices.Clone(p.CompletedLessons), lastWatched: p.LastWatchedLesson}
	}
	if !s.commit(courseID, gen, e) {
		s.log.Debug("discarding progress fetched before reset", "course_id", courseID)
	}
	return e, nil
}

// Peek returns the cached progress for a course without contacting the
// server. Progress is not computed since the lesson count is unknown here.
func (s *Store) Peek(courseID string) (lms.CourseProgress, bool) {
	e, ok := s.cached(courseID)
	if !ok {
		return lms.CourseProgress{}, false
	}
	return snapshot(courseID, e), true
}

// Snapshot returns the learner's progress on course with the percentage
// computed from the course's lesson list. It uses cached state when present.
func (s *Store) Snapshot(ctx context.Context, course *lms.Course) (lms.CourseProgress, error) {
	if course == nil {
		return lms.CourseProgress{}, &lms.ValidationError{Field: "course", Reason: "required"}
	}
	e, ok := s.cached(course.ID)
	if !ok {
		p, err := s.Fetch(ctx, course.ID)
		if err != nil {
			return lms.CourseProgress{}, err
		}
		e = entry{completed: p.CompletedLessons, lastWatched: p.LastWatchedLesson}
	}
	return lms.CourseProgressFor(course, e.completed, e.lastWatched), nil
}

// SetLessonCompletion marks lessonID completed or not completed and returns
// the course's new progress percentage. Setting a lesson to the state it
// already has returns the current progress without contacting the server.
func (s *Store) SetLessonCompletion(ctx context.Context, course *lms.Course, lessonID string, completed bool) (int, error) {
	if err := validateLesson(course, lessonID); err != nil {
		return 0, err
	}

	unlock, err := s.locks.lock(ctx, s.key(course.ID))
	if err != nil {
		return 0, err
	}
	defer unlock()

	gen := s.generation()
	cur, ok := s.cached(course.ID)
	if !ok {
		if cur, err = s.load(ctx, course.ID, gen); err != nil {
			return 0, err
		}
	}
	before := lms.CourseProgressFor(course, cur.completed, cur.lastWatched).Progress

	if cur.has(lessonID) == completed {
		return before, nil
	}

	resp, err := s.backend.UpdateProgress(ctx, course.ID, lessonID, completed)
	if err != nil {
		return before, fmt.Errorf("update lesson %s: %w", lessonID, err)
	}

	next := cur.with(lessonID, completed)
	progress := lms.CourseProgressFor(course, next.completed, next.lastWatched).Progress
	if resp != nil && resp.Progress != progress {
		s.log.Warn("server progress disagrees with local count",
			"course_id", course.ID, "server", resp.Progress, "local", progress)
	}

	if !s.commit(course.ID, gen, next) {
		s.log.Debug("discarding completion accepted before reset", "course_id", course.ID, "lesson_id", lessonID)
		return progress, nil
	}

	kind := store.ActivityLessonCompleted
	if !completed {
		kind = store.ActivityLessonUncompleted
	}
	s.record(ctx, course.ID, lessonID, kind, map[string]any{"progress": progress})
	return progress, nil
}

// SetLastWatched records lessonID as the last lesson the learner opened.
func (s *Store) SetLastWatched(ctx context.Context, course *lms.Course, lessonID string) error {
	if err := validateLesson(course, lessonID); err != nil {
		return err
	}

	unlock, err := s.locks.lock(ctx, s.key(course.ID))
	if err != nil {
		return err
	}
	defer unlock()

	gen := s.generation()
	if err := s.backend.SetLastWatched(ctx, course.ID, lessonID); err != nil {
		return fmt.Errorf("set last watched lesson %s: %w", lessonID, err)
	}

	if cur, ok := s.cached(course.ID); ok {
		cur.lastWatched = lessonID
		s.commit(course.ID, gen, cur)
	}
	s.record(ctx, course.ID, lessonID, store.ActivityLastWatched, nil)
	return nil
}

// Reset drops all cached state. Requests already in flight complete but
// their results are not cached.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.cache = make(map[string]entry)
}

func (s *Store) record(ctx context.Context, courseID, lessonID string, kind store.ActivityKind, detail map[string]any) {
	if s.journal == nil {
		return
	}
	err := s.journal.AppendActivity(context.WithoutCancel(ctx), store.ActivityEventData{
		SessionID: s.sessionID,
		StudentID: s.studentID,
		CourseID:  courseID,
		LessonID:  lessonID,
		Kind:      kind,
		Detail:    detail,
	})
	if err != nil {
		s.log.Warn("journal activity failed", "kind", kind, "error", err)
	}
}

func validateLesson(course *lms.Course, lessonID string) error {
	if course == nil {
		return &lms.ValidationError{Field: "course", Reason: "required"}
	}
	if !course.HasLesson(lessonID) {
		return &lms.InvalidLessonError{CourseID: course.ID, LessonID: lessonID}
	}
	return nil
}

func snapshot(courseID string, e entry) lms.CourseProgress {
	return lms.CourseProgress{
		CourseID:          courseID,
		CompletedLessons:  slices.Clone(e.completed),
		LastWatchedLesson: e.lastWatched,
	}
}
