package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lessonkit/internal/api"
	"github.com/abhisek/lessonkit/internal/llm"
	"github.com/abhisek/lessonkit/internal/lms"
	"github.com/abhisek/lessonkit/internal/quiz"
	"github.com/abhisek/lessonkit/internal/store"
)

func newServer(t *testing.T, h http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := api.New(api.Options{BaseURL: srv.URL, Token: "tok"})
	require.NoError(t, err)
	return c
}

func TestOpen_RequiresClient(t *testing.T) {
	_, err := Open(context.Background(), Deps{})
	assert.Error(t, err)
}

func TestTutorOnlyWithLLM(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {})

	s, err := Open(context.Background(), Deps{Client: client})
	require.NoError(t, err)
	defer s.Close()
	assert.Nil(t, s.Tutor)

	s2, err := Open(context.Background(), Deps{Client: client, LLM: llm.NewMock()})
	require.NoError(t, err)
	defer s2.Close()
	assert.NotNil(t, s2.Tutor)
	assert.NotEqual(t, s.ID, s2.ID)
}

func TestCloseCancelsAndResets(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"questions": []any{map[string]any{"id": "q1", "question": "?", "options": []string{"a"}}},
		})
	})

	s, err := Open(context.Background(), Deps{Client: client})
	require.NoError(t, err)
	assert.Equal(t, PhaseOpen, s.Phase())

	_, err = s.Quiz.FetchQuiz(s.Context(), "l1")
	require.NoError(t, err)
	assert.Equal(t, quiz.StateUnanswered, s.Quiz.State("l1"))

	s.Close()
	s.Close()

	assert.Equal(t, PhaseClosed, s.Phase())
	assert.ErrorIs(t, s.Context().Err(), context.Canceled)
	assert.Equal(t, quiz.StateUnknown, s.Quiz.State("l1"))
}

func TestCloseAbortsInFlightRequest(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	entered := make(chan struct{}, 1)
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	s, err := Open(context.Background(), Deps{Client: client})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := s.Progress.Fetch(s.Context(), "c1")
		done <- err
	}()
	<-entered
	s.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("request was not aborted by Close")
	}
}

func TestSummarize(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/progress/course/c1":
			w.WriteHeader(http.StatusNotFound)
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"progress": 50})
		}
	})

	db, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := Open(context.Background(), Deps{Client: client, Journal: db.EventRepo()})
	require.NoError(t, err)
	defer s.Close()

	course := &lms.Course{ID: "c1", Lessons: []lms.LessonRef{{ID: "l1"}, {ID: "l2"}}}
	p, err := s.Progress.SetLessonCompletion(s.Context(), course, "l1", true)
	require.NoError(t, err)
	assert.Equal(t, 50, p)

	sum, err := s.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Total)
	assert.Equal(t, 1, sum.Counts[store.ActivityLessonCompleted])
}

func TestSummarize_NoJournal(t *testing.T) {
	s, err := Open(context.Background(), Deps{Client: newServer(t, func(http.ResponseWriter, *http.Request) {})})
	require.NoError(t, err)
	defer s.Close()

	sum, err := s.Summarize(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Total)
}
