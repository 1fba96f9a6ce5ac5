package dto

// AssistantRequest is the payload of the hint and analysis routes.
type AssistantRequest struct {
	QuestionDescription string `json:"question_description" validate:"required"`
	Code                string `json:"code" validate:"required"`
}

// HintResponse carries a short hint for the user's current solution.
type HintResponse struct {
	Hint string `json:"hint"`
}
