package service

import (
	"github.com/google/uuid"
	"github.com/stemsi/exstem-lms/internal/model"
)

// DefaultPartAPoints is awarded for a correct Part A answer when a question
// does not carry its own value.
const DefaultPartAPoints = 2

// ScorePartA scores every Part A question against the selected options. A
// question without a selection, or with a selection that is not one of its
// correct options, earns 0. The total is floored at 0. ScorePartA is pure.
func ScorePartA(questions []model.ExamQuestion, selected map[uuid.UUID]*uuid.UUID) ([]model.ExamAnswer, int) {
	answers := make([]model.ExamAnswer, 0, len(questions))
	total := 0

	for _, q := range questions {
		ans := model.ExamAnswer{
			QuestionID: q.ID,
			Part:       model.PartA,
		}

		if opt := selected[q.ID]; opt != nil {
			optID := *opt
			ans.SelectedOptionID = &optID
			for _, o := range q.Options {
				if o.ID == optID && o.IsCorrect {
					ans.IsCorrect = true
					break
				}
			}
		}

		if ans.IsCorrect {
			ans.Points = q.Points
		}
		total += ans.Points
		answers = append(answers, ans)
	}

	if total < 0 {
		total = 0
	}
	return answers, total
}

// Composite is the aggregate of an attempt once internal marks are known.
type Composite struct {
	Total      int
	Percentage float64
	IsPassed   bool
}

// ComputeComposite sums the three components and applies the exam's pass mark.
func ComputeComposite(exam *model.Exam, partA, partB, internal int) Composite {
	total := partA + partB + internal
	var pct float64
	if exam.TotalMarks > 0 {
		pct = float64(total) / float64(exam.TotalMarks) * 100
	}
	return Composite{
		Total:      total,
		Percentage: pct,
		IsPassed:   pct >= exam.PassingPercentage,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
