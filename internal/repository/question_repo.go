package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/treytuscai/DevReady/internal/models"
)

// QuestionFilter narrows question listings.
type QuestionFilter struct {
	Tag string
}

// QuestionRepository exposes persistence operations for questions and their test cases.
type QuestionRepository interface {
	List(ctx context.Context, filter QuestionFilter) ([]models.Question, error)
	GetByID(ctx context.Context, id uint) (models.Question, error)
	UpsertBySlug(ctx context.Context, questions []models.Question) (int64, error)
}

// NewQuestionRepository constructs a question repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

type questionRepository struct {
	db *gorm.DB
}

func orderedTestCases(db *gorm.DB) *gorm.DB {
	return db.Order("test_cases.id ASC")
}

func (r *questionRepository) List(ctx context.Context, filter QuestionFilter) ([]models.Question, error) {
	db := r.db.WithContext(ctx).Model(&models.Question{}).
		Preload("TestCases", orderedTestCases).
		Preload("Tags")

	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		db = db.Where(
			"questions.id IN (?)",
			r.db.Table("question_tags").
				Select("question_tags.question_id").
				Joins("JOIN tags ON tags.id = question_tags.tag_id").
				Where("LOWER(tags.name) = ?", strings.ToLower(tag)),
		)
	}

	var questions []models.Question
	if err := db.Order("questions.id ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).
		Preload("TestCases", orderedTestCases).
		Preload("Tags").
		First(&question, id).Error
	if err != nil {
		return models.Question{}, err
	}
	return question, nil
}

// UpsertBySlug inserts or updates questions keyed by slug. Test cases and tags of an
// existing question are replaced by the given ones.
func (r *questionRepository) UpsertBySlug(ctx context.Context, questions []models.Question) (int64, error) {
	if len(questions) == 0 {
		return 0, nil
	}

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, incoming := range questions {
			tags, err := resolveTags(tx, incoming.Tags)
			if err != nil {
				return err
			}

			var existing models.Question
			err = tx.Where("slug = ?", incoming.Slug).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				question := incoming
				question.ID = 0
				question.Tags = tags
				for i := range question.TestCases {
					question.TestCases[i].ID = 0
				}
				if err := tx.Omit("Tags.*").Create(&question).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				existing.Title = incoming.Title
				existing.Description = incoming.Description
				existing.Difficulty = incoming.Difficulty
				existing.ExpectedMethod = incoming.ExpectedMethod
				existing.ParameterShape = incoming.ParameterShape
				existing.OrderInsensitive = incoming.OrderInsensitive
				existing.LinkedListInput = incoming.LinkedListInput
				if err := tx.Omit(clause.Associations).Save(&existing).Error; err != nil {
					return err
				}
				if err := tx.Where("question_id = ?", existing.ID).Delete(&models.TestCase{}).Error; err != nil {
					return err
				}
				for _, tc := range incoming.TestCases {
					tc.ID = 0
					tc.QuestionID = existing.ID
					if err := tx.Create(&tc).Error; err != nil {
						return err
					}
				}
				if err := tx.Model(&existing).Association("Tags").Replace(tags); err != nil {
					return err
				}
			}
			affected++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func resolveTags(tx *gorm.DB, tags []models.Tag) ([]models.Tag, error) {
	resolved := make([]models.Tag, 0, len(tags))
	for _, tag := range tags {
		name := strings.TrimSpace(tag.Name)
		if name == "" {
			continue
		}
		record := models.Tag{Name: name}
		if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&record).Error; err != nil {
			return nil, err
		}
		resolved = append(resolved, record)
	}
	return resolved, nil
}
