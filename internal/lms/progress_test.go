package lms

import (
	"fmt"
	"math"
	"testing"
)

func courseWithLessons(n int) *Course {
	c := &Course{ID: "course-1"}
	for i := 1; i <= n; i++ {
		c.Lessons = append(c.Lessons, LessonRef{ID: fmt.Sprintf("l%d", i)})
	}
	return c
}

func TestComputeProgress_AllSubsets(t *testing.T) {
	for n := 1; n <= 13; n++ {
		for m := 0; m <= n; m++ {
			want := int(math.Round(float64(m) / float64(n) * 100))
			if got := ComputeProgress(m, n); got != want {
				t.Errorf("ComputeProgress(%d, %d) = %d, want %d", m, n, got, want)
			}
		}
	}
}

func TestComputeProgress_NoLessons(t *testing.T) {
	if got := ComputeProgress(0, 0); got != 0 {
		t.Errorf("ComputeProgress(0, 0) = %d, want 0", got)
	}
	if got := ComputeProgress(3, 0); got != 0 {
		t.Errorf("ComputeProgress(3, 0) = %d, want 0", got)
	}
}

func TestComputeProgress_RoundsHalfUp(t *testing.T) {
	// 1/8 = 12.5%
	if got := ComputeProgress(1, 8); got != 13 {
		t.Errorf("ComputeProgress(1, 8) = %d, want 13", got)
	}
	// 2/3 = 66.67%
	if got := ComputeProgress(2, 3); got != 67 {
		t.Errorf("ComputeProgress(2, 3) = %d, want 67", got)
	}
}

func TestCourseProgressFor_FourLessons(t *testing.T) {
	c := courseWithLessons(4)

	p := CourseProgressFor(c, []string{"l1", "l2"}, "l2")
	if p.Progress != 50 {
		t.Errorf("progress = %d, want 50", p.Progress)
	}

	p = CourseProgressFor(c, []string{"l1", "l2", "l3"}, "l3")
	if p.Progress != 75 {
		t.Errorf("progress = %d, want 75", p.Progress)
	}
}

func TestCourseProgressFor_DropsForeignLessons(t *testing.T) {
	c := courseWithLessons(2)

	p := CourseProgressFor(c, []string{"l2", "other", "l1", "l2"}, "")
	if len(p.CompletedLessons) != 2 {
		t.Fatalf("completed = %v, want 2 entries", p.CompletedLessons)
	}
	if p.CompletedLessons[0] != "l1" || p.CompletedLessons[1] != "l2" {
		t.Errorf("completed = %v, want course order [l1 l2]", p.CompletedLessons)
	}
	if p.Progress != 100 {
		t.Errorf("progress = %d, want 100", p.Progress)
	}
}

func TestCourseProgress_IsCompleted(t *testing.T) {
	p := CourseProgress{CompletedLessons: []string{"a", "b"}}
	if !p.IsCompleted("a") {
		t.Error("expected a to be completed")
	}
	if p.IsCompleted("c") {
		t.Error("expected c not to be completed")
	}
}
