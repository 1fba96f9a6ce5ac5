package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/treytuscai/DevReady/internal/models"
)

// SubmissionStats summarises the submissions of one question.
type SubmissionStats struct {
	Total  int64
	Passed int64
}

// SubmissionRepository exposes persistence helpers for graded submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	StatsForQuestion(ctx context.Context, questionID uint) (SubmissionStats, error)
	PassedQuestionIDs(ctx context.Context, userID uint) ([]uint, error)
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit("Question").Create(submission).Error
}

func (r *submissionRepository) StatsForQuestion(ctx context.Context, questionID uint) (SubmissionStats, error) {
	var stats SubmissionStats
	base := r.db.WithContext(ctx).Model(&models.Submission{}).Where("question_id = ?", questionID)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return SubmissionStats{}, err
	}
	if err := base.Session(&gorm.Session{}).Where("result = ?", models.SubmissionPassed).Count(&stats.Passed).Error; err != nil {
		return SubmissionStats{}, err
	}
	return stats, nil
}

func (r *submissionRepository) PassedQuestionIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("user_id = ? AND result = ?", userID, models.SubmissionPassed).
		Distinct().
		Order("question_id ASC").
		Pluck("question_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
