package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	SessionId string `json:"session_id"`
	Mode      string `json:"mode"`
}

type MessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Visible   bool      `json:"visible"`
	CreatedAt time.Time `json:"created_at"`
}

type StreamingResponse struct {
	HandleId uuid.UUID `json:"handle_id"`
	Content  string    `json:"content"`
}

type HistoryResponse struct {
	SessionId    string             `json:"session_id"`
	Mode         string             `json:"mode"`
	DocumentHash string             `json:"document_hash,omitempty"`
	Messages     []MessageResponse  `json:"messages"`
	Streaming    *StreamingResponse `json:"streaming,omitempty"`
}

type SendMessageRequest struct {
	Message     string   `json:"message" validate:"required"`
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int     `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
	Model       string   `json:"model,omitempty"`
}

type GenerationResponse struct {
	SessionId string    `json:"session_id"`
	HandleId  uuid.UUID `json:"handle_id"`
}

type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type SwitchModeRequest struct {
	Mode         string `json:"mode" validate:"required,oneof=plain_chat document_grounded"`
	DocumentHash string `json:"document_hash,omitempty" validate:"required_if=Mode document_grounded"`
}

type IndexNoteRequest struct {
	Name    string `json:"name" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type IndexNoteResponse struct {
	ContentHash string    `json:"content_hash"`
	SourceName  string    `json:"source_name"`
	Passages    int       `json:"passages"`
	InsertedAt  time.Time `json:"inserted_at"`
	Mode        string    `json:"mode"`
}

type ExportResponse struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

type TriggerRequest struct {
	Name      string `json:"name" validate:"required"`
	Selection string `json:"selection" validate:"required"`
	Param     string `json:"param,omitempty"`
}

type CommandResponse struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Visible     bool     `json:"visible"`
	NeedsParam  bool     `json:"needs_param"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type SweepRequest struct {
	TTLDays *int `json:"ttl_days,omitempty" validate:"omitempty,gte=0"`
}

type SweepResponse struct {
	Removed int `json:"removed"`
}
