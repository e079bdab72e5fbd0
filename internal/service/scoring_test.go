package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-lms/internal/model"
	"github.com/stretchr/testify/require"
)

func objective(points int) (model.ExamQuestion, uuid.UUID, uuid.UUID) {
	q := model.ExamQuestion{ID: uuid.New(), Part: model.PartA, Points: points}
	right, wrong := uuid.New(), uuid.New()
	q.Options = []model.ExamQuestionOption{
		{ID: right, QuestionID: q.ID, IsCorrect: true},
		{ID: wrong, QuestionID: q.ID},
	}
	return q, right, wrong
}

func TestScorePartA(t *testing.T) {
	q1, right1, _ := objective(2)
	q2, _, wrong2 := objective(2)
	q3, _, _ := objective(2)
	foreign := uuid.New()
	q4, _, _ := objective(2)

	answers, score := ScorePartA(
		[]model.ExamQuestion{q1, q2, q3, q4},
		map[uuid.UUID]*uuid.UUID{
			q1.ID: &right1,
			q2.ID: &wrong2,
			q3.ID: nil,
			q4.ID: &foreign,
		},
	)

	require.Equal(t, 2, score)
	require.Len(t, answers, 4)

	require.True(t, answers[0].IsCorrect)
	require.Equal(t, 2, answers[0].Points)

	require.False(t, answers[1].IsCorrect)
	require.Equal(t, wrong2, *answers[1].SelectedOptionID)

	require.Nil(t, answers[2].SelectedOptionID, "unattempted question keeps a row")
	require.Zero(t, answers[2].Points)

	require.False(t, answers[3].IsCorrect, "option of another question never counts")
}

func TestScorePartAUsesQuestionPoints(t *testing.T) {
	q, right, _ := objective(5)
	_, score := ScorePartA([]model.ExamQuestion{q}, map[uuid.UUID]*uuid.UUID{q.ID: &right})
	require.Equal(t, 5, score)
}

func TestComputeComposite(t *testing.T) {
	exam := &model.Exam{TotalMarks: 10, PartAMarks: 4, PartBMarks: 4, InternalMarks: 2, PassingPercentage: 50}

	got := ComputeComposite(exam, 4, 3, 2)
	require.Equal(t, 9, got.Total)
	require.InDelta(t, 90.0, got.Percentage, 1e-9)
	require.True(t, got.IsPassed)
}

func TestComputeCompositePassMarkIsInclusive(t *testing.T) {
	exam := &model.Exam{TotalMarks: 10, PassingPercentage: 50}

	require.True(t, ComputeComposite(exam, 2, 2, 1).IsPassed)
	require.False(t, ComputeComposite(exam, 2, 2, 0).IsPassed)
}

func TestComputeCompositeZeroTotalMarks(t *testing.T) {
	got := ComputeComposite(&model.Exam{PassingPercentage: 50}, 0, 0, 0)
	require.Zero(t, got.Percentage)
	require.False(t, got.IsPassed)
}
