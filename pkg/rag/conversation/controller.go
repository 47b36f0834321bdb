// Package conversation turns user messages into streamed model replies.
//
// A Controller owns one session's generation mode, model configuration and
// conversational memory. At most one GenerationHandle is active per Controller;
// starting another cancels the previous one before the new one claims the
// log's streaming slot.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ai-notecopilot/internal/pkg/logger"
	"ai-notecopilot/pkg/chat"
	"ai-notecopilot/pkg/embedding"
	"ai-notecopilot/pkg/errs"
	"ai-notecopilot/pkg/llm"
	"ai-notecopilot/pkg/rag/prompt"
	"ai-notecopilot/pkg/rag/retrieval"
	"ai-notecopilot/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const module = "ConversationController"

// Documents is the read side of the document cache.
type Documents interface {
	Lookup(ctx context.Context, hash string) (store.DocumentRecord, bool, error)
	Records(ctx context.Context, hashes ...string) ([]store.DocumentRecord, error)
}

// Notice is a user-facing report of a failed generation. It never enters the log.
type Notice struct {
	HandleID string   `json:"handle_id"`
	Kind     errs.Kind `json:"kind"`
	Message  string   `json:"message"`
}

type Notifier interface {
	Notify(n Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type Controller struct {
	log       *chat.Log
	provider  llm.LLMProvider
	embedder  embedding.EmbeddingProvider
	documents Documents
	notifier  Notifier
	logger    logger.ILogger
	promptLog logger.ILogger
	tracer    trace.Tracer

	mu     sync.Mutex
	cfg    Config
	mode   Mode
	active *GenerationHandle
	memory []llm.Message
}

type ControllerOption func(*Controller)

func WithNotifier(n Notifier) ControllerOption {
	return func(c *Controller) { c.notifier = n }
}

// WithPromptLogger records every full request sent to the model.
func WithPromptLogger(l logger.ILogger) ControllerOption {
	return func(c *Controller) { c.promptLog = l }
}

func WithTracer(t trace.Tracer) ControllerOption {
	return func(c *Controller) { c.tracer = t }
}

func New(
	log *chat.Log,
	provider llm.LLMProvider,
	embedder embedding.EmbeddingProvider,
	documents Documents,
	cfg Config,
	l logger.ILogger,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		log:       log,
		provider:  provider,
		embedder:  embedder,
		documents: documents,
		notifier:  NotifierFunc(func(Notice) {}),
		logger:    l,
		promptLog: logger.NewNopLogger(),
		tracer:    otel.Tracer("ai-notecopilot/conversation"),
		cfg:       cfg,
		mode:      PlainChat(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Log() *chat.Log { return c.log }

func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// SetConfig replaces the settings used by later calls; running generations keep theirs.
func (c *Controller) SetConfig(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

func (c *Controller) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Model = model
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Active returns the current generation, or nil.
func (c *Controller) Active() *GenerationHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.State() != StateRunning {
		return nil
	}
	return c.active
}

// SwitchMode never touches the log or memory. Grounding on a document whose
// record is not cached fails with CacheMiss.
func (c *Controller) SwitchMode(ctx context.Context, mode Mode) error {
	if mode.IsGrounded() {
		if mode.DocumentHash == "" {
			return errs.Input("SwitchMode", "grounded mode needs a document hash")
		}
		_, found, err := c.documents.Lookup(ctx, mode.DocumentHash)
		if err != nil {
			return err
		}
		if !found {
			return errs.CacheMiss("SwitchMode", mode.DocumentHash)
		}
	} else {
		mode = PlainChat()
	}

	c.mu.Lock()
	prev := c.mode
	c.mode = mode
	c.mu.Unlock()

	c.logger.Info(module, "Mode switched", map[string]interface{}{
		"from": prev.String(),
		"to":   mode.String(),
	})
	return nil
}

// SubmitUserInput appends text as a visible user message and sends it with the
// preceding turns as context.
func (c *Controller) SubmitUserInput(ctx context.Context, text string, opts ...Option) (*GenerationHandle, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errs.Input("SubmitUserInput", "message is empty")
	}

	// Reject bad overrides before the message reaches the log
	if err := validate("SubmitUserInput", c.Config().With(opts...)); err != nil {
		return nil, err
	}

	chatContext := c.log.Last(c.Config().ContextWindow())
	msg := chat.NewMessage(chat.SenderUser, text, true)
	c.log.Append(msg)

	return c.SendMessage(ctx, msg, chatContext, opts...)
}

// SendMessage starts a generation for msg. Validation and the streaming slot
// claim happen before it returns; the model call runs in the background.
// The generation is detached from ctx's cancellation; stop it through the handle.
func (c *Controller) SendMessage(ctx context.Context, msg chat.Message, chatContext []chat.Message, opts ...Option) (*GenerationHandle, error) {
	if strings.TrimSpace(msg.Content) == "" {
		return nil, errs.Input("SendMessage", "message is empty")
	}

	c.mu.Lock()
	cfg := c.cfg.With(opts...)
	if err := validate("SendMessage", cfg); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	if prev := c.active; prev != nil && prev.Cancel() {
		c.logger.Info(module, "Generation superseded", map[string]interface{}{
			"handle": prev.ID().String(),
		})
	}

	h := newHandle(context.WithoutCancel(ctx), c.log)
	c.log.BeginStream(h.id)
	c.active = h
	mode := c.mode
	memory := make([]llm.Message, len(c.memory))
	copy(memory, c.memory)
	c.mu.Unlock()

	contextCopy := make([]chat.Message, len(chatContext))
	copy(contextCopy, chatContext)

	go c.generate(h, msg, contextCopy, cfg, mode, memory)
	return h, nil
}

func validate(op string, cfg Config) error {
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return errs.Input(op, "temperature %.2f out of range [0, 2]", cfg.Temperature)
	}
	if cfg.MaxTokens < 0 {
		return errs.Input(op, "max tokens %d is negative", cfg.MaxTokens)
	}
	return nil
}

// CancelActiveGeneration reports whether a running generation was stopped.
func (c *Controller) CancelActiveGeneration() bool {
	c.mu.Lock()
	h := c.active
	c.active = nil
	c.mu.Unlock()

	if h == nil || !h.Cancel() {
		return false
	}
	c.logger.Info(module, "Generation cancelled", map[string]interface{}{"handle": h.ID().String()})
	return true
}

// CountTokens only touches the tokenizer.
func (c *Controller) CountTokens(text string) (int, error) {
	n, err := c.provider.CountTokens(text)
	if err != nil {
		return 0, errs.Provider("CountTokens", err)
	}
	return n, nil
}

// ResetMemory clears model-side memory; the log is untouched.
func (c *Controller) ResetMemory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memory = nil
}

// NewConversation cancels the active generation, then clears the log, the
// streaming slot and memory as one step.
func (c *Controller) NewConversation() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		c.active.Cancel()
		c.active = nil
	}
	c.log.Clear()
	c.memory = nil

	c.logger.Info(module, "New conversation", nil)
}

func (c *Controller) generate(h *GenerationHandle, msg chat.Message, chatContext []chat.Message, cfg Config, mode Mode, memory []llm.Message) {
	ctx, span := c.tracer.Start(h.ctx, "conversation.generate", trace.WithAttributes(
		attribute.String("handle.id", h.id.String()),
		attribute.String("mode", mode.String()),
		attribute.String("model", cfg.Model),
		attribute.Bool("stream", cfg.Stream),
	))
	defer span.End()

	var reference string
	if mode.IsGrounded() {
		var err error
		reference, err = c.ground(ctx, mode.DocumentHash, msg, chatContext, cfg.TopK)
		if err != nil {
			c.fail(span, h, err)
			return
		}
	}

	messages := prompt.NewContextualBuilder(cfg.SystemPrompt, reference, memory, msg.Content).Messages()
	c.promptLog.Debug("PromptTrace", "Model request", map[string]interface{}{
		"handle":   h.id.String(),
		"mode":     mode.String(),
		"messages": messages,
		"config":   cfg,
	})

	if h.cancelled() {
		return
	}

	var err error
	if cfg.Stream {
		err = c.stream(ctx, h, messages, cfg)
	} else {
		err = c.chat(ctx, h, messages, cfg)
	}
	if err != nil {
		c.fail(span, h, errs.Provider("generate", err))
		return
	}

	c.mu.Lock()
	reply, ok := h.commit()
	if ok {
		c.remember(cfg, msg.Content, reply.Content)
	}
	if c.active == h {
		c.active = nil
	}
	c.mu.Unlock()

	if ok {
		span.SetStatus(codes.Ok, "")
		c.logger.Info(module, "Generation committed", map[string]interface{}{
			"handle": h.id.String(),
			"chars":  len(reply.Content),
		})
	}
}

func (c *Controller) stream(ctx context.Context, h *GenerationHandle, messages []llm.Message, cfg Config) error {
	chunks, err := c.provider.StreamChat(ctx, messages, cfg.llmOptions()...)
	if err != nil {
		return err
	}

	for chunk := range chunks {
		if chunk.Err != nil {
			return chunk.Err
		}
		if chunk.Content != "" && !h.appendDelta(chunk.Content) {
			// Cancelled; the provider stops once its context is done
			return nil
		}
		if chunk.Done {
			return nil
		}
	}
	return nil
}

func (c *Controller) chat(ctx context.Context, h *GenerationHandle, messages []llm.Message, cfg Config) error {
	reply, err := c.provider.Chat(ctx, messages, cfg.llmOptions()...)
	if err != nil {
		return err
	}
	h.appendDelta(reply)
	return nil
}

// ground embeds the preceding turns plus msg as the query and formats the best
// passages of the grounded document.
func (c *Controller) ground(ctx context.Context, hash string, msg chat.Message, chatContext []chat.Message, topK int) (string, error) {
	records, err := c.documents.Records(ctx, hash)
	if err != nil {
		return "", err
	}

	resp, err := c.embedder.Generate(ctx, groundingQuery(chatContext, msg), embedding.TaskRetrievalQuery)
	if err != nil {
		return "", errs.Provider("ground", fmt.Errorf("embed query: %w", err))
	}

	passages := retrieval.New(records).Top(resp.Embedding.Values, topK)
	c.logger.Debug(module, "Grounding retrieved", map[string]interface{}{
		"document": hash,
		"passages": len(passages),
	})
	return retrieval.Format(passages), nil
}

func groundingQuery(chatContext []chat.Message, msg chat.Message) string {
	parts := make([]string, 0, len(chatContext)+1)
	for _, m := range chatContext {
		if m.ID == msg.ID {
			continue
		}
		parts = append(parts, m.Content)
	}
	parts = append(parts, msg.Content)
	return strings.Join(parts, "\n")
}

// remember must be called with c.mu held.
func (c *Controller) remember(cfg Config, userText, reply string) {
	c.memory = append(c.memory,
		llm.Message{Role: llm.RoleUser, Content: userText},
		llm.Message{Role: llm.RoleAssistant, Content: reply},
	)
	if window := cfg.ContextWindow(); len(c.memory) > window {
		c.memory = append([]llm.Message(nil), c.memory[len(c.memory)-window:]...)
	}
}

func (c *Controller) fail(span trace.Span, h *GenerationHandle, err error) {
	if !h.finish(StateFailed, err) {
		// Already cancelled; the error is just the stream unwinding
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	kind := errs.KindOf(err)
	c.logger.Error(module, "Generation failed", map[string]interface{}{
		"handle": h.id.String(),
		"kind":   string(kind),
		"error":  err,
	})
	c.notifier.Notify(Notice{
		HandleID: h.id.String(),
		Kind:     kind,
		Message:  noticeText(kind, err),
	})
}

func noticeText(kind errs.Kind, err error) string {
	switch kind {
	case errs.KindStore, errs.KindCacheMiss:
		return fmt.Sprintf("Could not ground the answer on the active note: %v", err)
	default:
		return fmt.Sprintf("The model request failed: %v", err)
	}
}
