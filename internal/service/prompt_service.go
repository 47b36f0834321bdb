package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-notecopilot/internal/constant"
	"ai-notecopilot/internal/dto"
	"ai-notecopilot/internal/entity"
	"ai-notecopilot/internal/mapper"
	"ai-notecopilot/internal/pkg/logger"
	"ai-notecopilot/internal/repository/contract"
	"ai-notecopilot/pkg/errs"
	"ai-notecopilot/pkg/rag/command"
)

type IPromptService interface {
	Create(ctx context.Context, req *dto.CreatePromptRequest) (*dto.PromptResponse, error)
	Get(ctx context.Context, title string) (*dto.PromptResponse, error)
	ListTitles(ctx context.Context) ([]string, error)
	Update(ctx context.Context, req *dto.UpdatePromptRequest) (*dto.PromptResponse, error)
	Delete(ctx context.Context, title string) error
	Apply(ctx context.Context, title, sessionID string, req *dto.ApplyPromptRequest) error
}

type promptService struct {
	repo    contract.CustomPromptRepository
	copilot ICopilotService
	logger  logger.ILogger
	mapper  *mapper.CopilotMapper
}

func NewPromptService(repo contract.CustomPromptRepository, copilot ICopilotService, log logger.ILogger) IPromptService {
	return &promptService{
		repo:    repo,
		copilot: copilot,
		logger:  log,
		mapper:  mapper.NewCopilotMapper(),
	}
}

// translate keeps repository sentinels out of the HTTP layer.
func translate(title string, err error) error {
	switch {
	case errors.Is(err, contract.ErrPromptNotFound):
		return fmt.Errorf("custom prompt %q: %w", title, constant.ErrNotFound)
	case errors.Is(err, contract.ErrPromptExists):
		return fmt.Errorf("custom prompt %q: %w", title, constant.ErrConflict)
	}
	return err
}

func (s *promptService) Create(ctx context.Context, req *dto.CreatePromptRequest) (*dto.PromptResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errs.Input("CreatePrompt", "title is required")
	}

	p := &entity.CustomPrompt{Title: title, Prompt: req.Prompt}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, translate(title, err)
	}

	s.logger.Info("PromptService", "Custom prompt added", map[string]interface{}{"title": title})
	return s.mapper.PromptToResponse(p), nil
}

func (s *promptService) Get(ctx context.Context, title string) (*dto.PromptResponse, error) {
	p, err := s.repo.FindByTitle(ctx, title)
	if err != nil {
		return nil, translate(title, err)
	}
	return s.mapper.PromptToResponse(p), nil
}

func (s *promptService) ListTitles(ctx context.Context) ([]string, error) {
	titles, err := s.repo.ListTitles(ctx)
	if err != nil {
		return nil, err
	}
	if titles == nil {
		titles = []string{}
	}
	return titles, nil
}

func (s *promptService) Update(ctx context.Context, req *dto.UpdatePromptRequest) (*dto.PromptResponse, error) {
	p := &entity.CustomPrompt{Title: req.Title, Prompt: req.Prompt}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, translate(req.Title, err)
	}
	return s.Get(ctx, req.Title)
}

func (s *promptService) Delete(ctx context.Context, title string) error {
	if err := s.repo.Delete(ctx, title); err != nil {
		return translate(title, err)
	}
	s.logger.Info("PromptService", "Custom prompt deleted", map[string]interface{}{"title": title})
	return nil
}

// Apply runs the stored prompt on a selection through the session's command loop.
func (s *promptService) Apply(ctx context.Context, title, sessionID string, req *dto.ApplyPromptRequest) error {
	p, err := s.repo.FindByTitle(ctx, title)
	if err != nil {
		return translate(title, err)
	}
	return s.copilot.Trigger(ctx, sessionID, &dto.TriggerRequest{
		Name:      command.ApplyCustomPrompt,
		Selection: req.Selection,
		Param:     p.Prompt,
	})
}
