package mapper

import (
	"ai-notecopilot/internal/dto"
	"ai-notecopilot/internal/entity"
	"ai-notecopilot/pkg/chat"
	"ai-notecopilot/pkg/rag/command"
)

type CopilotMapper struct{}

func NewCopilotMapper() *CopilotMapper {
	return &CopilotMapper{}
}

func (m *CopilotMapper) MessageToResponse(msg chat.Message) dto.MessageResponse {
	return dto.MessageResponse{
		Id:        msg.ID,
		Sender:    string(msg.Sender),
		Content:   msg.Content,
		Visible:   msg.Visible,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *CopilotMapper) MessagesToResponse(msgs []chat.Message) []dto.MessageResponse {
	out := make([]dto.MessageResponse, len(msgs))
	for i, msg := range msgs {
		out[i] = m.MessageToResponse(msg)
	}
	return out
}

func (m *CopilotMapper) BindingToResponse(b command.Binding) dto.CommandResponse {
	return dto.CommandResponse{
		Name:        b.Name,
		Kind:        string(b.Kind),
		Visible:     b.Visible,
		NeedsParam:  b.NeedsParam,
		Temperature: b.Temperature,
	}
}

func (m *CopilotMapper) PromptToResponse(p *entity.CustomPrompt) *dto.PromptResponse {
	if p == nil {
		return nil
	}
	return &dto.PromptResponse{
		Title:     p.Title,
		Prompt:    p.Prompt,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
