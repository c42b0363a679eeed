package api

import (
	"context"
	"net/http"

	"github.com/abhisek/lessonkit/internal/lms"
)

// Path templates. Parameters are filled and escaped by resty.
const (
	pathCourse         = "/courses/{courseId}"
	pathProgress       = "/progress/course/{courseId}"
	pathProgressUpdate = "/progress/update"
	pathLastWatched    = "/progress/last-watched"
	pathQuiz           = "/lessons/{lessonId}/quiz"
	pathQuizSubmit     = "/lessons/{lessonId}/quiz/submit"
	pathQuizResult     = "/lessons/{lessonId}/quiz/result"
	pathMyCertificates = "/certificates/my-certificates"
	pathEnrollment     = "/enrollments/course/{courseId}"
	pathOrder          = "/orders/course/{courseId}"
	pathCanReview      = "/reviews/course/{courseId}/can-review"
	pathReviews        = "/reviews/course/{courseId}"
)

func courseParam(id string) map[string]string { return map[string]string{"courseId": id} }
func lessonParam(id string) map[string]string { return map[string]string{"lessonId": id} }

// ProgressUpdate is the server's answer to a completion toggle.
type ProgressUpdate struct {
	Progress         int      `json:"progress"`
	CompletedLessons []string `json:"completedLessons,omitempty"`
}

// GetCourse fetches a course with its ordered lessons.
func (c *Client) GetCourse(ctx context.Context, courseID string) (*lms.Course, error) {
	course, err := get[lms.Course](ctx, c, pathCourse, courseParam(courseID))
	if err != nil {
		return nil, err
	}
	if course.ID == "" {
		course.ID = courseID
	}
	return course, nil
}

// GetProgress fetches the caller's progress on a course. nil means no
// progress has been recorded yet.
func (c *Client) GetProgress(ctx context.Context, courseID string) (*lms.CourseProgress, error) {
	p, err := getOptional[lms.CourseProgress](ctx, c, pathProgress, courseParam(courseID))
	if err != nil || p == nil {
		return nil, err
	}
	if p.CourseID == "" {
		p.CourseID = courseID
	}
	return p, nil
}

// UpdateProgress marks a lesson completed or not completed.
func (c *Client) UpdateProgress(ctx context.Context, courseID, lessonID string, completed bool) (*ProgressUpdate, error) {
	var out ProgressUpdate
	_, err := c.do(ctx, call{
		method: http.MethodPatch,
		path:   pathProgressUpdate,
		body: map[string]any{
			"courseId":  courseID,
			"lessonId":  lessonID,
			"completed": completed,
		},
		out: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetLastWatched records the lesson the learner last opened.
func (c *Client) SetLastWatched(ctx context.Context, courseID, lessonID string) error {
	_, err := c.do(ctx, call{
		method: http.MethodPatch,
		path:   pathLastWatched,
		body: map[string]string{
			"courseId": courseID,
			"lessonId": lessonID,
		},
	})
	return err
}

// GetQuiz fetches a lesson's quiz without its answer key. nil means the
// lesson has no quiz.
func (c *Client) GetQuiz(ctx context.Context, lessonID string) (*lms.Quiz, error) {
	q, err := getOptional[lms.Quiz](ctx, c, pathQuiz, lessonParam(lessonID))
	if err != nil || q == nil {
		return nil, err
	}
	if q.LessonID == "" {
		q.LessonID = lessonID
	}
	return q, nil
}

// SubmitQuiz submits answers for grading. The server accepts one
// submission per learner and lesson and answers 409 to a second one.
func (c *Client) SubmitQuiz(ctx context.Context, lessonID string, answers []lms.Answer) (*lms.QuizResult, error) {
	var out lms.QuizResult
	_, err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     pathQuizSubmit,
		params:   lessonParam(lessonID),
		body:     map[string]any{"answers": answers},
		out:      &out,
		required: true,
	})
	if err != nil {
		return nil, err
	}
	return finishResult(&out, lessonID), nil
}

// GetQuizResult fetches the graded result. nil means the quiz has not been
// taken.
func (c *Client) GetQuizResult(ctx context.Context, lessonID string) (*lms.QuizResult, error) {
	r, err := getOptional[lms.QuizResult](ctx, c, pathQuizResult, lessonParam(lessonID))
	if err != nil || r == nil {
		return nil, err
	}
	return finishResult(r, lessonID), nil
}

func finishResult(r *lms.QuizResult, lessonID string) *lms.QuizResult {
	if r.LessonID == "" {
		r.LessonID = lessonID
	}
	r.Normalize()
	return r
}

// MyCertificates lists the caller's issued certificates.
func (c *Client) MyCertificates(ctx context.Context) ([]lms.Certificate, error) {
	var certs []lms.Certificate
	_, err := c.do(ctx, call{method: http.MethodGet, path: pathMyCertificates, out: &certs})
	if err != nil {
		return nil, err
	}
	return certs, nil
}

// GetEnrollment fetches the caller's enrollment in a course. nil means not
// enrolled (yet).
func (c *Client) GetEnrollment(ctx context.Context, courseID string) (*lms.Enrollment, error) {
	return getOptional[lms.Enrollment](ctx, c, pathEnrollment, courseParam(courseID))
}

// GetOrder fetches the caller's latest order for a course. nil means no
// order exists.
func (c *Client) GetOrder(ctx context.Context, courseID string) (*lms.Order, error) {
	return getOptional[lms.Order](ctx, c, pathOrder, courseParam(courseID))
}

// CanReview asks the server whether the caller may review a course.
func (c *Client) CanReview(ctx context.Context, courseID string) (lms.ReviewEligibility, error) {
	e, err := get[lms.ReviewEligibility](ctx, c, pathCanReview, courseParam(courseID))
	if err != nil {
		return lms.ReviewEligibility{}, err
	}
	return *e, nil
}

// CreateReview posts a review.
func (c *Client) CreateReview(ctx context.Context, courseID string, in lms.ReviewInput) (*lms.Review, error) {
	var out lms.Review
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   pathReviews,
		params: courseParam(courseID),
		body:   in,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
