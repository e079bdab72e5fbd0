package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/clock"
	"github.com/stemsi/exstem-lms/internal/model"
)

// AchievementService awards achievements on publication and course completion.
type AchievementService struct {
	store AchievementStore
	clock clock.Clock
	log   zerolog.Logger
}

// NewAchievementService creates a new AchievementService.
func NewAchievementService(store AchievementStore, clk clock.Clock, log zerolog.Logger) *AchievementService {
	return &AchievementService{
		store: store,
		clock: clk,
		log:   log.With().Str("component", "achievement_service").Logger(),
	}
}

// Evaluate awards every achievement the inputs earn and returns the codes
// that were newly awarded. Awards are unique per (student, code, reference).
func (s *AchievementService) Evaluate(ctx context.Context, studentID int, courseID *uuid.UUID, attempt *model.ExamAttempt) ([]model.AchievementCode, error) {
	type award struct {
		code model.AchievementCode
		ref  uuid.UUID
	}
	var earned []award

	if courseID != nil {
		earned = append(earned, award{model.AchievementCourseCompleted, *courseID})
	}
	if attempt != nil && attempt.ResultPublished && attempt.IsPassed {
		earned = append(earned, award{model.AchievementExamPassed, attempt.ID})
		if attempt.Percentage >= 100 {
			earned = append(earned, award{model.AchievementPerfectScore, attempt.ID})
		}
		if attempt.IsReExam() {
			earned = append(earned, award{model.AchievementReExamPassed, attempt.ID})
		}
	}

	var awarded []model.AchievementCode
	for _, e := range earned {
		ok, err := s.store.Award(ctx, &model.StudentAchievement{
			StudentID:   studentID,
			Code:        e.code,
			ReferenceID: e.ref,
			AwardedAt:   s.clock.Now(),
		})
		if err != nil {
			return awarded, fmt.Errorf("award %s: %w", e.code, err)
		}
		if ok {
			awarded = append(awarded, e.code)
			s.log.Info().Int("student_id", studentID).Str("code", string(e.code)).Msg("Achievement awarded")
		}
	}
	return awarded, nil
}

// ListByStudent lists a student's achievements.
func (s *AchievementService) ListByStudent(ctx context.Context, studentID int) ([]model.StudentAchievement, error) {
	list, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	if list == nil {
		list = []model.StudentAchievement{}
	}
	return list, nil
}
