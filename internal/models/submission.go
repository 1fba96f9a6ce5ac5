package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission results.
const (
	SubmissionPassed = "Passed"
	SubmissionFailed = "Failed"
)

// Submission records a graded attempt at a question.
type Submission struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	QuestionID  uint           `gorm:"index;not null" json:"question_id"`
	Code        string         `gorm:"type:text;not null" json:"code"`
	Result      string         `gorm:"size:16;not null" json:"result"`
	Language    string         `gorm:"size:32;not null" json:"language"`
	PassedCount int            `gorm:"default:0" json:"passed_count"`
	TotalCount  int            `gorm:"default:0" json:"total_count"`
	Outcomes    datatypes.JSON `json:"outcomes,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Question    Question       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Passed reports whether every test case passed.
func (s Submission) Passed() bool {
	return s.Result == SubmissionPassed
}
