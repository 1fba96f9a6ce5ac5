package models

import (
	"strings"
	"time"
)

// Question difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Question is a practice problem solved by implementing ExpectedMethod.
type Question struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Slug             string     `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	Difficulty       string     `gorm:"size:16;not null;default:easy" json:"difficulty"`
	ExpectedMethod   string     `gorm:"size:128;not null" json:"expected_method"`
	ParameterShape   string     `gorm:"size:255" json:"parameter_shape,omitempty"`
	OrderInsensitive *bool      `json:"order_insensitive,omitempty"`
	LinkedListInput  *bool      `json:"linked_list_input,omitempty"`
	TestCases        []TestCase `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"test_cases,omitempty"`
	Tags             []Tag      `gorm:"many2many:question_tags" json:"tags,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ParameterNames returns the configured positional parameter order, if any.
func (q Question) ParameterNames() []string {
	if strings.TrimSpace(q.ParameterShape) == "" {
		return nil
	}

	parts := strings.Split(q.ParameterShape, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

// TagNames returns the names of the question's tags.
func (q Question) TagNames() []string {
	names := make([]string, 0, len(q.Tags))
	for _, tag := range q.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// SampleTestCases returns the test cases visible to users.
func (q Question) SampleTestCases() []TestCase {
	var samples []TestCase
	for _, tc := range q.TestCases {
		if tc.IsSample {
			samples = append(samples, tc)
		}
	}
	return samples
}

// DifficultyRank orders difficulties from easiest to hardest.
func DifficultyRank(difficulty string) int {
	switch strings.ToLower(difficulty) {
	case DifficultyEasy:
		return 0
	case DifficultyMedium:
		return 1
	case DifficultyHard:
		return 2
	default:
		return 3
	}
}

// TestCase is one input/expected-output pair of a question. Both sides hold JSON
// text or plain text.
type TestCase struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	QuestionID     uint   `gorm:"index;not null" json:"question_id"`
	InputData      string `gorm:"type:text;not null" json:"input_data"`
	ExpectedOutput string `gorm:"type:text;not null" json:"expected_output"`
	IsSample       bool   `gorm:"default:false" json:"is_sample"`
}

// Tag groups questions by topic.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;uniqueIndex;not null" json:"name"`
}
