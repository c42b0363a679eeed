package lms

import (
	"encoding/json"
	"time"
)

// Course is the catalog entry a learner progresses through.
type Course struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Price         float64     `json:"price"`
	DiscountPrice float64     `json:"discountPrice,omitempty"`
	IsEnded       bool        `json:"isEnded"`
	Lessons       []LessonRef `json:"lessons"`
}

func (c *Course) UnmarshalJSON(b []byte) error {
	type alias Course
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.MongoID
	}
	return nil
}

// HasLesson reports whether lessonID belongs to the course.
func (c *Course) HasLesson(lessonID string) bool {
	for _, l := range c.Lessons {
		if l.ID == lessonID {
			return true
		}
	}
	return false
}

// LessonCount returns the number of lessons in the course.
func (c *Course) LessonCount() int {
	return len(c.Lessons)
}

// LessonRef is a lesson as listed on its course. The API sends either a bare
// id string or a populated lesson object.
type LessonRef struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	HasQuiz bool   `json:"hasQuiz,omitempty"`
}

func (l *LessonRef) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*l = LessonRef{ID: id}
		return nil
	}
	var aux struct {
		ID      string          `json:"id"`
		MongoID string          `json:"_id"`
		Title   string          `json:"title"`
		HasQuiz bool            `json:"hasQuiz"`
		Quiz    json.RawMessage `json:"quiz"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	l.ID = aux.ID
	if l.ID == "" {
		l.ID = aux.MongoID
	}
	l.Title = aux.Title
	l.HasQuiz = aux.HasQuiz || (len(aux.Quiz) > 0 && string(aux.Quiz) != "null")
	return nil
}

// Ref identifies a related document that may arrive populated or as a bare id.
type Ref struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*r = Ref{ID: id}
		return nil
	}
	var aux struct {
		ID      string `json:"id"`
		MongoID string `json:"_id"`
		Title   string `json:"title"`
		Name    string `json:"name"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.ID = aux.ID
	if r.ID == "" {
		r.ID = aux.MongoID
	}
	r.Title = aux.Title
	if r.Title == "" {
		r.Title = aux.Name
	}
	return nil
}

// Enrollment grants a student access to a course and carries its progress.
type Enrollment struct {
	ID                string   `json:"id"`
	Student           Ref      `json:"student"`
	Course            Ref      `json:"course"`
	Progress          int      `json:"progress"`
	CompletedLessons  []string `json:"completedLessons"`
	LastWatchedLesson string   `json:"lastWatchedLesson,omitempty"`
}

func (e *Enrollment) UnmarshalJSON(b []byte) error {
	type alias Enrollment
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = aux.MongoID
	}
	return nil
}

// CourseProgress is a learner's completion record for one course.
type CourseProgress struct {
	CourseID          string   `json:"courseId"`
	CompletedLessons  []string `json:"completedLessons"`
	LastWatchedLesson string   `json:"lastWatchedLesson,omitempty"`
	Progress          int      `json:"progress"`
}

// Question is a quiz question as served to students. It deliberately has no
// correct-answer field.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

func (q *Question) UnmarshalJSON(b []byte) error {
	var aux struct {
		ID      string   `json:"id"`
		MongoID string   `json:"_id"`
		Text    string   `json:"question"`
		Options []string `json:"options"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	q.ID = aux.ID
	if q.ID == "" {
		q.ID = aux.MongoID
	}
	q.Text = aux.Text
	q.Options = aux.Options
	return nil
}

// HasOption reports whether value is one of the question's options.
func (q Question) HasOption(value string) bool {
	for _, o := range q.Options {
		if o == value {
			return true
		}
	}
	return false
}

// Quiz is a lesson's quiz with the answer key withheld.
type Quiz struct {
	LessonID  string     `json:"lessonId"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// Question returns the question with the given id.
func (q *Quiz) Question(id string) (Question, bool) {
	for _, qq := range q.Questions {
		if qq.ID == id {
			return qq, true
		}
	}
	return Question{}, false
}

// Answer is one submitted answer.
type Answer struct {
	QuestionID string `json:"questionId" validate:"required"`
	Answer     string `json:"answer" validate:"required"`
}

// AnswerDetail is the per-question breakdown of a graded result.
type AnswerDetail struct {
	Question      string `json:"question"`
	YourAnswer    string `json:"yourAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
}

// QuizResult is the graded outcome of a student's single submission.
type QuizResult struct {
	LessonID    string         `json:"lessonId,omitempty"`
	Score       int            `json:"score"`
	Total       int            `json:"total"`
	Percentage  float64        `json:"percentage"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Details     []AnswerDetail `json:"details"`
}

// Certificate signals, by existing, that a course credential was issued.
type Certificate struct {
	ID             string    `json:"id,omitempty"`
	Course         Ref       `json:"course"`
	CertificateURL string    `json:"certificateUrl"`
	IssuedAt       time.Time `json:"issuedAt,omitempty"`
}

// Order is a purchase whose payment status gates enrollment.
type Order struct {
	ID            string        `json:"id"`
	Student       Ref           `json:"student"`
	Course        Ref           `json:"course"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}

func (o *Order) UnmarshalJSON(b []byte) error {
	type alias Order
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = aux.MongoID
	}
	return nil
}

// ReviewEligibility is the server's opaque verdict on whether the learner may
// review a course.
type ReviewEligibility struct {
	CanReview bool   `json:"canReview"`
	Reason    string `json:"reason"`
}

// ReviewInput is what a learner submits when reviewing a course.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

// Review is a stored course review.
type Review struct {
	ID        string    `json:"id"`
	Student   Ref       `json:"student"`
	Course    Ref       `json:"course"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (r *Review) UnmarshalJSON(b []byte) error {
	type alias Review
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = aux.MongoID
	}
	return nil
}
