package lms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	assert.Equal(t, 60.0, Percentage(3, 5))
	assert.Equal(t, 100.0, Percentage(4, 4))
	assert.Equal(t, 0.0, Percentage(0, 0))
}

func TestQuizResult_ThreeOfFiveNotPassing(t *testing.T) {
	r := &QuizResult{Score: 3, Total: 5}
	r.Normalize()

	assert.Equal(t, 60.0, r.Percentage)
	assert.False(t, r.Passed(PassingPercentage))
}

func TestQuizResult_PassedAtThreshold(t *testing.T) {
	r := &QuizResult{Score: 7, Total: 10, Percentage: 70}
	assert.True(t, r.Passed(PassingPercentage))
}

func TestQuizResult_NormalizeFromDetails(t *testing.T) {
	r := &QuizResult{Details: []AnswerDetail{
		{Question: "q1", IsCorrect: true},
		{Question: "q2", IsCorrect: false},
		{Question: "q3", IsCorrect: true},
		{Question: "q4", IsCorrect: true},
	}}
	r.Normalize()

	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 3, r.Score)
	assert.Equal(t, 75.0, r.Percentage)
	assert.Len(t, r.Incorrect(), 1)
	assert.Equal(t, "q2", r.Incorrect()[0].Question)
}

func TestQuizResult_NormalizeKeepsServerValues(t *testing.T) {
	r := &QuizResult{Score: 2, Total: 4, Percentage: 50, Details: []AnswerDetail{{IsCorrect: true}}}
	r.Normalize()

	assert.Equal(t, 2, r.Score)
	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 50.0, r.Percentage)
}

func TestQuiz_QuestionLookup(t *testing.T) {
	q := &Quiz{Questions: []Question{{ID: "a", Options: []string{"x", "y"}}}}

	got, ok := q.Question("a")
	assert.True(t, ok)
	assert.True(t, got.HasOption("y"))
	assert.False(t, got.HasOption("z"))

	_, ok = q.Question("missing")
	assert.False(t, ok)
}
