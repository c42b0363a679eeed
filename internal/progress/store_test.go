package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lessonkit/internal/api"
	"github.com/abhisek/lessonkit/internal/lms"
	"github.com/abhisek/lessonkit/internal/store"
)

// fakeBackend is an in-memory progress server.
type fakeBackend struct {
	mu          sync.Mutex
	completed   map[string][]string
	lastWatched map[string]string
	failNext    error

	gets    atomic.Int32
	updates atomic.Int32

	// getGate, when set, blocks GetProgress until closed.
	getGate chan struct{}
	getSeen chan struct{}
	// updateGate, when set, blocks UpdateProgress until closed.
	updateGate chan struct{}
	updateSeen chan struct{}

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{completed: map[string][]string{}, lastWatched: map[string]string{}}
}

func (f *fakeBackend) GetProgress(ctx context.Context, courseID string) (*lms.CourseProgress, error) {
	f.gets.Add(1)
	if f.getGate != nil {
		f.getSeen <- struct{}{}
		select {
		case <-f.getGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	done, ok := f.completed[courseID]
	if !ok {
		return nil, nil
	}
	return &lms.CourseProgress{CourseID: courseID, CompletedLessons: append([]string(nil), done...), LastWatchedLesson: f.lastWatched[courseID]}, nil
}

func (f *fakeBackend) UpdateProgress(ctx context.Context, courseID, lessonID string, completed bool) (*api.ProgressUpdate, error) {
	f.updates.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.updateGate != nil {
		f.updateSeen <- struct{}{}
		<-f.updateGate
	}
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext; err != nil {
		f.failNext = nil
		return nil, err
	}
	cur := f.completed[courseID]
	next := make([]string, 0, len(cur)+1)
	for _, id := range cur {
		if id != lessonID {
			next = append(next, id)
		}
	}
	if completed {
		next = append(next, lessonID)
	}
	f.completed[courseID] = next
	return &api.ProgressUpdate{Progress: -1, CompletedLessons: next}, nil
}

func (f *fakeBackend) SetLastWatched(ctx context.Context, courseID, lessonID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastWatched[courseID] = lessonID
	return nil
}

type fakeJournal struct {
	mu     sync.Mutex
	events []store.ActivityEventData
}

func (j *fakeJournal) AppendActivity(_ context.Context, d store.ActivityEventData) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, d)
	return nil
}

func course(n int) *lms.Course {
	c := &lms.Course{ID: "c1", Title: "Course"}
	for i := 1; i <= n; i++ {
		c.Lessons = append(c.Lessons, lms.LessonRef{ID: fmt.Sprintf("l%d", i)})
	}
	return c
}

func TestSetLessonCompletion_FourLessons(t *testing.T) {
	b := newFakeBackend()
	j := &fakeJournal{}
	s := New(b, Options{StudentID: "u1", SessionID: "s1", Journal: j})
	ctx := context.Background()
	c := course(4)

	p, err := s.SetLessonCompletion(ctx, c, "l1", true)
	require.NoError(t, err)
	assert.Equal(t, 25, p)
	p, err = s.SetLessonCompletion(ctx, c, "l2", true)
	require.NoError(t, err)
	assert.Equal(t, 50, p)
	p, err = s.SetLessonCompletion(ctx, c, "l3", true)
	require.NoError(t, err)
	assert.Equal(t, 75, p)

	snap, err := s.Snapshot(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"l1", "l2", "l3"}, snap.CompletedLessons)
	assert.Equal(t, 75, snap.Progress)

	require.Len(t, j.events, 3)
	assert.Equal(t, store.ActivityLessonCompleted, j.events[2].Kind)
	assert.Equal(t, 75, j.events[2].Detail["progress"])
	assert.Equal(t, "u1", j.events[2].StudentID)
}

func TestSetLessonCompletion_ToggleRestores(t *testing.T) {
	b := newFakeBackend()
	b.completed["c1"] = []string{"l1"}
	s := New(b, Options{})
	ctx := context.Background()
	c := course(3)

	orig, err := s.Snapshot(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 33, orig.Progress)

	p, err := s.SetLessonCompletion(ctx, c, "l2", true)
	require.NoError(t, err)
	assert.Equal(t, 67, p)

	p, err = s.SetLessonCompletion(ctx, c, "l2", false)
	require.NoError(t, err)
	assert.Equal(t, 33, p, "uncompleting regresses progress")

	p, err = s.SetLessonCompletion(ctx, c, "l2", true)
	require.NoError(t, err)
	assert.Equal(t, 67, p)
}

func TestSetLessonCompletion_InvalidLesson(t *testing.T) {
	b := newFakeBackend()
	s := New(b, Options{})

	_, err := s.SetLessonCompletion(context.Background(), course(2), "l9", true)
	var ile *lms.InvalidLessonError
	require.ErrorAs(t, err, &ile)
	assert.Equal(t, "l9", ile.LessonID)
	assert.True(t, lms.IsValidation(err))
	assert.Zero(t, b.gets.Load())
	assert.Zero(t, b.updates.Load())

	_, err = s.SetLessonCompletion(context.Background(), nil, "l1", true)
	assert.True(t, lms.IsValidation(err))
}

func TestSetLessonCompletion_NoOpIsIdempotent(t *testing.T) {
	b := newFakeBackend()
	b.completed["c1"] = []string{"l1"}
	s := New(b, Options{})
	ctx := context.Background()

	p, err := s.SetLessonCompletion(ctx, course(2), "l1", true)
	require.NoError(t, err)
	assert.Equal(t, 50, p)

	p, err = s.SetLessonCompletion(ctx, course(2), "l2", false)
	require.NoError(t, err)
	assert.Equal(t, 50, p)

	assert.Zero(t, b.updates.Load())
}

func TestSetLessonCompletion_FailureKeepsState(t *testing.T) {
	b := newFakeBackend()
	b.completed["c1"] = []string{"l1"}
	s := New(b, Options{})
	ctx := context.Background()
	c := course(4)

	_, err := s.Fetch(ctx, "c1")
	require.NoError(t, err)
	before, _ := s.Peek("c1")

	b.failNext = &api.RequestError{Method: "PATCH", Path: "/progress/update", Status: 500}
	p, err := s.SetLessonCompletion(ctx, c, "l2", true)
	require.Error(t, err)
	assert.Equal(t, 500, api.StatusOf(err))
	assert.Equal(t, 25, p, "failed toggle reports the unchanged progress")

	after, ok := s.Peek("c1")
	require.True(t, ok)
	assert.Equal(t, before, after)

	p, err = s.SetLessonCompletion(ctx, c, "l2", true)
	require.NoError(t, err)
	assert.Equal(t, 50, p)
}

func TestSetLessonCompletion_Serialized(t *testing.T) {
	b := newFakeBackend()
	s := New(b, Options{StudentID: "u1"})
	ctx := context.Background()
	c := course(4)

	var wg sync.WaitGroup
	results := make(chan int, 4)
	for i := 1; i <= 4; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			p, err := s.SetLessonCompletion(ctx, c, id, true)
			assert.NoError(t, err)
			results <- p
		}(fmt.Sprintf("l%d", i))
	}
	wg.Wait()
	close(results)

	seen := map[int]bool{}
	for p := range results {
		seen[p] = true
	}
	assert.Equal(t, map[int]bool{25: true, 50: true, 75: true, 100: true}, seen)
	assert.EqualValues(t, 1, b.maxInFlight.Load())

	snap, err := s.Snapshot(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 100, snap.Progress)
}

func TestSetLessonCompletion_AcrossCourseBoundary(t *testing.T) {
	b := newFakeBackend()
	b.completed["c1"] = []string{"l1", "other-course-lesson"}
	s := New(b, Options{})

	snap, err := s.Snapshot(context.Background(), course(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, snap.CompletedLessons)
	assert.Equal(t, 50, snap.Progress)
}

func TestReset_DiscardsInFlightResult(t *testing.T) {
	b := newFakeBackend()
	b.completed["c1"] = nil
	s := New(b, Options{})
	ctx := context.Background()
	c := course(2)

	_, err := s.Fetch(ctx, "c1")
	require.NoError(t, err)

	b.updateGate = make(chan struct{})
	b.updateSeen = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := s.SetLessonCompletion(ctx, c, "l1", true)
		done <- err
	}()

	<-b.updateSeen
	s.Reset()
	close(b.updateGate)
	require.NoError(t, <-done)

	_, ok := s.Peek("c1")
	assert.False(t, ok, "result from before Reset must not repopulate the cache")
}

func TestFetch_AbsentRecordIsEmpty(t *testing.T) {
	s := New(newFakeBackend(), Options{})

	p, err := s.Fetch(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, p.CompletedLessons)
	assert.Empty(t, p.LastWatchedLesson)
}

func TestFetch_BackendError(t *testing.T) {
	s := New(errBackend{}, Options{})

	_, err := s.Fetch(context.Background(), "c1")
	require.Error(t, err)
	_, ok := s.Peek("c1")
	assert.False(t, ok)
}

func TestFetch_Coalesced(t *testing.T) {
	b := newFakeBackend()
	b.completed["c1"] = []string{"l1"}
	b.getGate = make(chan struct{})
	b.getSeen = make(chan struct{}, 2)
	s := New(b, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	fetch := func() {
		defer wg.Done()
		p, err := s.Fetch(ctx, "c1")
		assert.NoError(t, err)
		assert.Equal(t, []string{"l1"}, p.CompletedLessons)
	}

	wg.Add(1)
	go fetch()
	<-b.getSeen
	wg.Add(1)
	go fetch()
	time.Sleep(50 * time.Millisecond)
	close(b.getGate)
	wg.Wait()

	assert.EqualValues(t, 1, b.gets.Load())
}

func TestFetch_SurvivesFirstCallerCancel(t *testing.T) {
	b := newFakeBackend()
	b.completed["c1"] = []string{"l1", "l2"}
	b.getGate = make(chan struct{})
	b.getSeen = make(chan struct{}, 2)
	s := New(b, Options{})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := s.Fetch(ctxA, "c1")
		errA <- err
	}()
	<-b.getSeen

	resB := make(chan lms.CourseProgress, 1)
	go func() {
		p, err := s.Fetch(context.Background(), "c1")
		assert.NoError(t, err)
		resB <- p
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)
	close(b.getGate)

	select {
	case p := <-resB:
		assert.Equal(t, []string{"l1", "l2"}, p.CompletedLessons)
	case <-time.After(5 * time.Second):
		t.Fatal("second caller never got progress")
	}
	assert.EqualValues(t, 1, b.gets.Load())
	_, ok := s.Peek("c1")
	assert.True(t, ok)
}

func TestSetLastWatched(t *testing.T) {
	b := newFakeBackend()
	j := &fakeJournal{}
	s := New(b, Options{Journal: j})
	ctx := context.Background()
	c := course(3)

	_, err := s.Fetch(ctx, "c1")
	require.NoError(t, err)

	require.NoError(t, s.SetLastWatched(ctx, c, "l2"))
	p, ok := s.Peek("c1")
	require.True(t, ok)
	assert.Equal(t, "l2", p.LastWatchedLesson)
	assert.Equal(t, "l2", b.lastWatched["c1"])
	require.Len(t, j.events, 1)
	assert.Equal(t, store.ActivityLastWatched, j.events[0].Kind)

	err = s.SetLastWatched(ctx, c, "nope")
	assert.True(t, lms.IsValidation(err))
}

func TestCanceledWhileWaitingForLock(t *testing.T) {
	b := newFakeBackend()
	b.completed["c1"] = nil
	b.updateGate = make(chan struct{})
	b.updateSeen = make(chan struct{}, 1)
	s := New(b, Options{})
	c := course(2)

	go func() { _, _ = s.SetLessonCompletion(context.Background(), c, "l1", true) }()
	<-b.updateSeen

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.SetLessonCompletion(ctx, c, "l2", true)
	assert.ErrorIs(t, err, context.Canceled)

	close(b.updateGate)
}

type errBackend struct{}

func (errBackend) GetProgress(context.Context, string) (*lms.CourseProgress, error) {
	return nil, errors.New("down")
}

func (errBackend) UpdateProgress(context.Context, string, string, bool) (*api.ProgressUpdate, error) {
	return nil, errors.New("down")
}

func (errBackend) SetLastWatched(context.Context, string, string) error { return errors.New("down") }
