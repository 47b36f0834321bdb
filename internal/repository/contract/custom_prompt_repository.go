package contract

import (
	"context"
	"errors"

	"ai-notecopilot/internal/entity"
)

var (
	ErrPromptNotFound = errors.New("custom prompt not found")
	ErrPromptExists   = errors.New("custom prompt title already exists")
)

type CustomPromptRepository interface {
	// Create returns ErrPromptExists when the title is taken.
	Create(ctx context.Context, prompt *entity.CustomPrompt) error
	// FindByTitle returns ErrPromptNotFound when missing.
	FindByTitle(ctx context.Context, title string) (*entity.CustomPrompt, error)
	ListTitles(ctx context.Context) ([]string, error)
	Update(ctx context.Context, prompt *entity.CustomPrompt) error
	Delete(ctx context.Context, title string) error
}
