package certificate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lessonkit/internal/lms"
	"github.com/abhisek/lessonkit/internal/store"
)

func intp(v int) *int { return &v }

func TestIsReady_TruthTable(t *testing.T) {
	ended := &lms.Course{ID: "c1", IsEnded: true}
	running := &lms.Course{ID: "c1"}
	cert := &lms.Certificate{Course: lms.Ref{ID: "c1"}, CertificateURL: "https://cdn/c1.pdf"}

	tests := []struct {
		name     string
		course   *lms.Course
		progress *int
		cert     *lms.Certificate
		want     bool
	}{
		{"all met", ended, intp(100), cert, true},
		{"no certificate yet", ended, intp(100), nil, false},
		{"course running", running, intp(100), cert, false},
		{"progress 99", ended, intp(99), cert, false},
		{"progress unknown", ended, nil, cert, false},
		{"course unknown", nil, intp(100), cert, false},
		{"nothing known", nil, nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReady(tt.course, tt.progress, tt.cert))
		})
	}
}

func TestEvaluate(t *testing.T) {
	cert := &lms.Certificate{Course: lms.Ref{ID: "c1"}, CertificateURL: "https://cdn/c1.pdf"}

	st := Evaluate(Signals{Course: &lms.Course{IsEnded: true}, Progress: intp(100), Certificate: cert})
	assert.True(t, st.Ready)
	assert.Empty(t, st.Unmet)
	assert.Equal(t, "https://cdn/c1.pdf", st.DownloadURL)

	st = Evaluate(Signals{Course: &lms.Course{IsEnded: true}, Progress: intp(100)})
	assert.False(t, st.Ready)
	assert.Equal(t, []Condition{CondCertificateIssued}, st.Unmet)
	assert.Empty(t, st.DownloadURL)

	st = Evaluate(Signals{})
	assert.Equal(t, []Condition{CondCourseEnded, CondLessonsCompleted, CondCertificateIssued}, st.Unmet)
}

type fakeSource struct {
	course     *lms.Course
	enrollment *lms.Enrollment
	certs      []lms.Certificate
	courseErr  error
}

func (f fakeSource) GetCourse(context.Context, string) (*lms.Course, error) {
	return f.course, f.courseErr
}

func (f fakeSource) GetEnrollment(context.Context, string) (*lms.Enrollment, error) {
	return f.enrollment, nil
}

func (f fakeSource) MyCertificates(context.Context) ([]lms.Certificate, error) {
	return f.certs, nil
}

func TestGather(t *testing.T) {
	src := fakeSource{
		course:     &lms.Course{ID: "c1", IsEnded: true},
		enrollment: &lms.Enrollment{Progress: 100},
		certs: []lms.Certificate{
			{Course: lms.Ref{ID: "c0"}, CertificateURL: "https://cdn/c0.pdf"},
			{Course: lms.Ref{ID: "c1"}, CertificateURL: "https://cdn/c1.pdf"},
		},
	}

	sig, err := Gather(context.Background(), src, "c1")
	require.NoError(t, err)
	require.NotNil(t, sig.Progress)
	assert.Equal(t, 100, *sig.Progress)
	require.NotNil(t, sig.Certificate)
	assert.Equal(t, "https://cdn/c1.pdf", sig.Certificate.CertificateURL)
	assert.True(t, Evaluate(sig).Ready)
}

func TestGather_NotEnrolled(t *testing.T) {
	sig, err := Gather(context.Background(), fakeSource{course: &lms.Course{ID: "c1", IsEnded: true}}, "c1")
	require.NoError(t, err)
	assert.Nil(t, sig.Progress)
	assert.False(t, Evaluate(sig).Ready)
}

func TestGather_PartialFailureIsNotReady(t *testing.T) {
	src := fakeSource{
		courseErr:  errors.New("down"),
		enrollment: &lms.Enrollment{Progress: 100},
		certs:      []lms.Certificate{{Course: lms.Ref{ID: "c1"}}},
	}

	sig, err := Gather(context.Background(), src, "c1")
	require.Error(t, err)
	assert.Nil(t, sig.Course)
	assert.NotNil(t, sig.Certificate, "other signals are still gathered")
	assert.False(t, Evaluate(sig).Ready)
}

type fakeJournal struct{ events []store.ActivityEventData }

func (j *fakeJournal) AppendActivity(_ context.Context, d store.ActivityEventData) error {
	j.events = append(j.events, d)
	return nil
}

func TestChecker(t *testing.T) {
	j := &fakeJournal{}
	c := NewChecker(fakeSource{course: &lms.Course{ID: "c1"}}, nil, j, "u1", "s1")

	st, _, err := c.Check(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, st.Ready)

	require.Len(t, j.events, 1)
	assert.Equal(t, store.ActivityCertificateCheck, j.events[0].Kind)
	assert.Equal(t, false, j.events[0].Detail["ready"])
}
