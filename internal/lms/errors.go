package lms

import (
	"errors"
	"fmt"
)

// ValidationError is a client-side precondition failure. Operations that
// return it have not contacted the server.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// InvalidLessonError reports a lesson id that is not part of the course.
type InvalidLessonError struct {
	CourseID string
	LessonID string
}

func (e *InvalidLessonError) Error() string {
	return fmt.Sprintf("lesson %q does not belong to course %q", e.LessonID, e.CourseID)
}

// TransitionError reports a payment status change the order lifecycle forbids.
type TransitionError struct {
	OrderID string
	From    PaymentStatus
	To      PaymentStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: cannot move payment status from %q to %q", e.OrderID, e.From, e.To)
}

// IsValidation reports whether err is a client-side precondition failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	var le *InvalidLessonError
	return errors.As(err, &ve) || errors.As(err, &le)
}
