package dto

import "time"

type CreatePromptRequest struct {
	Title  string `json:"title" validate:"required,max=200"`
	Prompt string `json:"prompt" validate:"required"`
}

type UpdatePromptRequest struct {
	Title  string `json:"-"`
	Prompt string `json:"prompt" validate:"required"`
}

type PromptResponse struct {
	Title     string    `json:"title"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ApplyPromptRequest struct {
	Selection string `json:"selection" validate:"required"`
}
