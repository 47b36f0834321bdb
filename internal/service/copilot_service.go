package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-notecopilot/internal/constant"
	"ai-notecopilot/internal/dto"
	"ai-notecopilot/internal/entity"
	"ai-notecopilot/internal/mapper"
	"ai-notecopilot/internal/pkg/logger"
	"ai-notecopilot/internal/repository/memory"
	"ai-notecopilot/pkg/chat"
	"ai-notecopilot/pkg/embedding"
	"ai-notecopilot/pkg/errs"
	"ai-notecopilot/pkg/llm"
	"ai-notecopilot/pkg/notetext"
	"ai-notecopilot/pkg/rag/cache"
	"ai-notecopilot/pkg/rag/command"
	"ai-notecopilot/pkg/rag/conversation"
	"ai-notecopilot/pkg/trigger"

	"github.com/google/uuid"
)

const copilotModule = "CopilotService"

type ICopilotService interface {
	OpenSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	Session(sessionID string) (*entity.CopilotSession, error)
	History(ctx context.Context, sessionID string) (*dto.HistoryResponse, error)
	SendMessage(ctx context.Context, sessionID string, req *dto.SendMessageRequest) (*dto.GenerationResponse, error)
	Cancel(ctx context.Context, sessionID string) (*dto.CancelResponse, error)
	SwitchMode(ctx context.Context, sessionID string, req *dto.SwitchModeRequest) error
	NewConversation(ctx context.Context, sessionID string) error
	IndexNote(ctx context.Context, sessionID string, req *dto.IndexNoteRequest) (*dto.IndexNoteResponse, error)
	Export(ctx context.Context, sessionID string) (*dto.ExportResponse, error)
	Trigger(ctx context.Context, sessionID string, req *dto.TriggerRequest) error
	Commands() []dto.CommandResponse
	ClearStore(ctx context.Context) error
	Sweep(ctx context.Context, ttl time.Duration) (int, error)
	Close()
}

// Broadcaster renders session events to connected clients. It is called while
// the session's log is locked and must not block.
type Broadcaster interface {
	SendToSession(sessionID, event string, payload interface{})
}

// RemoteTriggers supplies triggers published by other processes.
type RemoteTriggers interface {
	Source(sessionID string) command.Source
}

type CopilotServiceConfig struct {
	Conversation conversation.Config
	SaveFolder   string
}

type copilotService struct {
	cfg         CopilotServiceConfig
	cache       *cache.Cache
	provider    llm.LLMProvider
	embedder    embedding.EmbeddingProvider
	bus         *trigger.Bus
	remote      RemoteTriggers
	sessions    *memory.SessionRepository
	broadcaster Broadcaster
	logger      logger.ILogger
	promptLog   logger.ILogger
	mapper      *mapper.CopilotMapper
	now         func() time.Time
}

func NewCopilotService(
	cfg CopilotServiceConfig,
	documents *cache.Cache,
	provider llm.LLMProvider,
	embedder embedding.EmbeddingProvider,
	bus *trigger.Bus,
	remote RemoteTriggers,
	sessions *memory.SessionRepository,
	broadcaster Broadcaster,
	log logger.ILogger,
	promptLog logger.ILogger,
) ICopilotService {
	if cfg.Conversation.SystemPrompt == "" {
		cfg.Conversation.SystemPrompt = constant.DefaultSystemPrompt
	}
	if promptLog == nil {
		promptLog = logger.NewNopLogger()
	}
	return &copilotService{
		cfg:         cfg,
		cache:       documents,
		provider:    provider,
		embedder:    embedder,
		bus:         bus,
		remote:      remote,
		sessions:    sessions,
		broadcaster: broadcaster,
		logger:      log,
		promptLog:   promptLog,
		mapper:      mapper.NewCopilotMapper(),
		now:         time.Now,
	}
}

// subscribed hands an already open trigger channel to Dispatcher.Listen.
type subscribed <-chan command.Trigger

func (s subscribed) Subscribe(context.Context) (<-chan command.Trigger, error) {
	return s, nil
}

func (s *copilotService) OpenSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	id := uuid.NewString()
	log := chat.NewLog()

	notifier := conversation.NotifierFunc(func(n conversation.Notice) {
		s.broadcast(id, constant.WsEventNotice, n)
	})
	log.Subscribe(func(ev chat.Event) {
		s.broadcast(id, constant.WsEventLog, ev)
	})

	controller := conversation.New(log, s.provider, s.embedder, s.cache, s.cfg.Conversation, s.logger,
		conversation.WithNotifier(notifier),
		conversation.WithPromptLogger(s.promptLog),
	)
	session := &entity.CopilotSession{
		ID:         id,
		Log:        log,
		Controller: controller,
		Dispatcher: command.New(controller, s.logger, command.WithNotifier(notifier)),
		CreatedAt:  s.now(),
	}

	loops, stop := context.WithCancel(context.Background())
	session.SetStop(stop)

	// Subscribe before returning so a trigger posted right after creation is not lost
	local, err := s.bus.Source(id).Subscribe(loops)
	if err != nil {
		stop()
		return nil, errs.Store("OpenSession", err)
	}
	go s.listen(loops, session, subscribed(local), "local")

	if s.remote != nil {
		go s.listen(loops, session, s.remote.Source(id), "nats")
	}

	s.sessions.Save(session)
	s.logger.Info(copilotModule, "Session opened", map[string]interface{}{"session_id": id})

	return &dto.CreateSessionResponse{SessionId: id, Mode: string(controller.Mode().Kind)}, nil
}

func (s *copilotService) listen(ctx context.Context, session *entity.CopilotSession, src command.Source, origin string) {
	err := session.Dispatcher.Listen(ctx, src)
	if err != nil && ctx.Err() == nil {
		s.logger.Error(copilotModule, "Trigger loop stopped", map[string]interface{}{
			"session_id": session.ID,
			"origin":     origin,
			"error":      err.Error(),
		})
	}
}

func (s *copilotService) broadcast(sessionID, event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.SendToSession(sessionID, event, payload)
	}
}

func (s *copilotService) Session(sessionID string) (*entity.CopilotSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, constant.ErrNotFound)
	}
	return session, nil
}

func (s *copilotService) History(ctx context.Context, sessionID string) (*dto.HistoryResponse, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}

	mode := session.Controller.Mode()
	res := &dto.HistoryResponse{
		SessionId:    sessionID,
		Mode:         string(mode.Kind),
		DocumentHash: mode.DocumentHash,
		Messages:     s.mapper.MessagesToResponse(session.Log.Visible()),
	}
	if owner, content, ok := session.Log.Streaming(); ok {
		res.Streaming = &dto.StreamingResponse{HandleId: owner, Content: content}
	}
	return res, nil
}

func (s *copilotService) SendMessage(ctx context.Context, sessionID string, req *dto.SendMessageRequest) (*dto.GenerationResponse, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}

	var opts []conversation.Option
	if req.Temperature != nil {
		opts = append(opts, conversation.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens != nil {
		opts = append(opts, conversation.WithMaxTokens(*req.MaxTokens))
	}
	if req.Model != "" {
		opts = append(opts, conversation.WithModel(req.Model))
	}

	h, err := session.Controller.SubmitUserInput(ctx, req.Message, opts...)
	if err != nil {
		return nil, err
	}
	return &dto.GenerationResponse{SessionId: sessionID, HandleId: h.ID()}, nil
}

func (s *copilotService) Cancel(ctx context.Context, sessionID string) (*dto.CancelResponse, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.CancelResponse{Cancelled: session.Controller.CancelActiveGeneration()}, nil
}

func (s *copilotService) SwitchMode(ctx context.Context, sessionID string, req *dto.SwitchModeRequest) error {
	session, err := s.Session(sessionID)
	if err != nil {
		return err
	}

	mode := conversation.PlainChat()
	if req.Mode == string(conversation.ModeDocumentGrounded) {
		mode = conversation.Grounded(req.DocumentHash)
	}
	return session.Controller.SwitchMode(ctx, mode)
}

func (s *copilotService) NewConversation(ctx context.Context, sessionID string) error {
	session, err := s.Session(sessionID)
	if err != nil {
		return err
	}
	session.Controller.NewConversation()
	return nil
}

// IndexNote embeds the note (or reuses its record) and tells the user. A session
// already in grounded mode follows the new note.
func (s *copilotService) IndexNote(ctx context.Context, sessionID string, req *dto.IndexNoteRequest) (*dto.IndexNoteResponse, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}

	rec, err := s.cache.GetOrCreate(ctx, req.Name, notetext.Markdown(req.Content))
	if err != nil {
		return nil, err
	}

	grounded := session.Controller.Mode().IsGrounded()
	notice := fmt.Sprintf(constant.IndexNoteSwitchNotice, req.Name)
	if grounded {
		notice = fmt.Sprintf(constant.IndexNoteNotice, req.Name)
	}
	session.Log.Append(chat.NewMessage(chat.SenderAssistant, notice, true))

	if grounded {
		if err := session.Controller.SwitchMode(ctx, conversation.Grounded(rec.ContentHash)); err != nil {
			return nil, err
		}
	}

	return &dto.IndexNoteResponse{
		ContentHash: rec.ContentHash,
		SourceName:  rec.SourceName,
		Passages:    len(rec.Passages),
		InsertedAt:  rec.InsertedAt,
		Mode:        string(session.Controller.Mode().Kind),
	}, nil
}

// Export renders the whole log as a markdown note. Writing it into the vault
// is left to the caller.
func (s *copilotService) Export(ctx context.Context, sessionID string) (*dto.ExportResponse, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}

	msgs := session.Log.Messages()
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = fmt.Sprintf(constant.ExportLineFormat, m.Sender, m.Content)
	}

	folder := strings.TrimRight(s.cfg.SaveFolder, "/")
	return &dto.ExportResponse{
		FileName: fmt.Sprintf("%s/Chat-%s.md", folder, s.now().Format(constant.ExportFileTimeLayout)),
		Content:  strings.Join(lines, "\n\n"),
	}, nil
}

func (s *copilotService) Trigger(ctx context.Context, sessionID string, req *dto.TriggerRequest) error {
	if _, err := s.Session(sessionID); err != nil {
		return err
	}
	t := command.Trigger{Name: req.Name, Selection: req.Selection, Param: req.Param}
	if err := s.bus.Publish(sessionID, t); err != nil {
		return errs.Store("Trigger", err)
	}
	return nil
}

func (s *copilotService) Commands() []dto.CommandResponse {
	bindings := command.DefaultBindings()
	out := make([]dto.CommandResponse, len(bindings))
	for i, b := range bindings {
		if b.Kind == "" {
			b.Kind = command.KindGenerate
		}
		out[i] = s.mapper.BindingToResponse(b)
	}
	return out
}

func (s *copilotService) ClearStore(ctx context.Context) error {
	if err := s.cache.ClearAll(ctx); err != nil {
		return err
	}
	s.logger.Info(copilotModule, "Local vector store cleared", nil)
	return nil
}

func (s *copilotService) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	return s.cache.EvictOlderThan(ctx, ttl)
}

func (s *copilotService) Close() {
	s.sessions.Flush()
}
