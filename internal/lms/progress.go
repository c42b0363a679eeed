package lms

import "math"

// ComputeProgress returns the completion percentage for completed of total
// lessons, rounded half away from zero. A course with no lessons is 0%.
func ComputeProgress(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// CourseProgressFor builds the progress record for a course from a completed
// set, dropping ids that are not lessons of the course and keeping course order.
func CourseProgressFor(course *Course, completed []string, lastWatched string) CourseProgress {
	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}
	ids := make([]string, 0, len(completed))
	for _, l := range course.Lessons {
		if done[l.ID] {
			ids = append(ids, l.ID)
		}
	}
	return CourseProgress{
		CourseID:          course.ID,
		CompletedLessons:  ids,
		LastWatchedLesson: lastWatched,
		Progress:          ComputeProgress(len(ids), course.LessonCount()),
	}
}

// IsCompleted reports whether lessonID is in the completed set.
func (p CourseProgress) IsCompleted(lessonID string) bool {
	for _, id := range p.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}
