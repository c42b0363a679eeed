package lms

// PassingPercentage is the conventional threshold used to label a quiz result
// as passing. It never gates retakes.
const PassingPercentage = 70.0

// Percentage returns correct/total as a percentage. Zero questions is 0%.
func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// Passed reports whether the result meets threshold (in percent).
func (r *QuizResult) Passed(threshold float64) bool {
	return r.Percentage >= threshold
}

// Normalize fills score, total and percentage from the per-question details
// when the server left them out.
func (r *QuizResult) Normalize() {
	if r.Total == 0 && len(r.Details) > 0 {
		r.Total = len(r.Details)
		if r.Score == 0 {
			for _, d := range r.Details {
				if d.IsCorrect {
					r.Score++
				}
			}
		}
	}
	if r.Percentage == 0 && r.Score > 0 {
		r.Percentage = Percentage(r.Score, r.Total)
	}
}

// Incorrect returns the details of the questions answered wrong.
func (r *QuizResult) Incorrect() []AnswerDetail {
	var out []AnswerDetail
	for _, d := range r.Details {
		if !d.IsCorrect {
			out = append(out, d)
		}
	}
	return out
}
