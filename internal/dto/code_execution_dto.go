package dto

import "time"

// RunRequest is the payload of the run and submit routes.
type RunRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// TestOutcome reports the result of one test case. Input and Expected hold the
// original text, or "Hidden" for non-sample cases.
type TestOutcome struct {
	Passed   bool        `json:"passed"`
	Input    string      `json:"input"`
	Expected string      `json:"expected"`
	Output   interface{} `json:"output"`
	Stdout   []string    `json:"stdout"`
	Stderr   []string    `json:"stderr"`
}

// RunResponse aggregates the outcomes of a run or submission.
type RunResponse struct {
	Passed  bool          `json:"passed"`
	Results []TestOutcome `json:"results"`
}

// ErrorResponse is returned by the run and submit routes on failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SubmissionEvent is published after a submission is stored.
type SubmissionEvent struct {
	SubmissionID uint      `json:"submission_id"`
	UserID       uint      `json:"user_id"`
	QuestionID   uint      `json:"question_id"`
	Language     string    `json:"language"`
	Result       string    `json:"result"`
	PassedCount  int       `json:"passed_count"`
	TotalCount   int       `json:"total_count"`
	CreatedAt    time.Time `json:"created_at"`
}
