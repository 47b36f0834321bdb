// Package command maps named selection commands onto conversation requests.
package command

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ai-notecopilot/internal/pkg/logger"
	"ai-notecopilot/pkg/chat"
	"ai-notecopilot/pkg/errs"
	"ai-notecopilot/pkg/rag/conversation"
)

const module = "CommandDispatcher"

type Kind string

const (
	KindGenerate    Kind = "generate"
	KindCountTokens Kind = "count_tokens"
)

// PromptBuilder turns a selection and an optional parameter into prompt text.
type PromptBuilder func(selection, param string) (string, error)

type Binding struct {
	Name  string
	Build PromptBuilder
	// Temperature overrides the model temperature for this command's call only
	Temperature *float64
	// Visible commands append their prompt to the log before dispatch
	Visible    bool
	NeedsParam bool
	Kind       Kind
}

// Conversation is what the dispatcher needs from a conversation controller.
type Conversation interface {
	Log() *chat.Log
	SendMessage(ctx context.Context, msg chat.Message, chatContext []chat.Message, opts ...conversation.Option) (*conversation.GenerationHandle, error)
	CountTokens(text string) (int, error)
}

type Dispatcher struct {
	conv     Conversation
	logger   logger.ILogger
	notifier conversation.Notifier

	mu       sync.RWMutex
	bindings map[string]Binding
	order    []string

	// dispatchMu keeps append-then-send atomic across concurrent triggers
	dispatchMu sync.Mutex
	last       *Trigger
}

type Option func(*Dispatcher)

// WithNotifier reports failed triggers coming from Listen.
func WithNotifier(n conversation.Notifier) Option {
	return func(d *Dispatcher) { d.notifier = n }
}

// New registers the default command table.
func New(conv Conversation, l logger.ILogger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		conv:     conv,
		logger:   l,
		notifier: conversation.NotifierFunc(func(conversation.Notice) {}),
		bindings: make(map[string]Binding),
	}
	for _, b := range DefaultBindings() {
		_ = d.Register(b)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds or replaces a binding.
func (d *Dispatcher) Register(b Binding) error {
	if b.Name == "" {
		return fmt.Errorf("binding name is empty")
	}
	if b.Kind == "" {
		b.Kind = KindGenerate
	}
	if b.Kind == KindGenerate && b.Build == nil {
		return fmt.Errorf("binding %s has no prompt builder", b.Name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.bindings[b.Name]; !exists {
		d.order = append(d.order, b.Name)
	}
	d.bindings[b.Name] = b
	return nil
}

// Bindings lists commands in registration order.
func (d *Dispatcher) Bindings() []Binding {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Binding, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.bindings[name])
	}
	return out
}

func (d *Dispatcher) binding(name string) (Binding, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.bindings[name]
	return b, ok
}

// Trigger runs one command. Generating commands return the handle of the
// started generation; token counting returns a nil handle.
func (d *Dispatcher) Trigger(ctx context.Context, t Trigger) (*conversation.GenerationHandle, error) {
	b, ok := d.binding(t.Name)
	if !ok {
		return nil, errs.Input("Trigger", "unknown command %q", t.Name)
	}
	if strings.TrimSpace(t.Selection) == "" {
		return nil, errs.Input(t.Name, "no text selected")
	}

	d.dispatchMu.Lock()
	defer d.dispatchMu.Unlock()

	if b.Kind == KindCountTokens {
		return nil, d.countTokens(t)
	}

	prompt, err := b.Build(t.Selection, t.Param)
	if err != nil {
		return nil, err
	}

	msg := chat.NewMessage(chat.SenderUser, prompt, b.Visible)
	if b.Visible {
		d.conv.Log().Append(msg)
	}

	var opts []conversation.Option
	if b.Temperature != nil {
		opts = append(opts, conversation.WithTemperature(*b.Temperature))
	}

	h, err := d.conv.SendMessage(ctx, msg, nil, opts...)
	if err != nil {
		return nil, err
	}

	last := t
	d.last = &last

	d.logger.Info(module, "Command dispatched", map[string]interface{}{
		"command": t.Name,
		"visible": b.Visible,
		"handle":  h.ID().String(),
	})
	return h, nil
}

// countTokens never touches the generation path.
func (d *Dispatcher) countTokens(t Trigger) error {
	tokens, err := d.conv.CountTokens(t.Selection)
	if err != nil {
		return err
	}
	words := len(strings.Split(t.Selection, " "))

	d.conv.Log().Append(chat.NewMessage(
		chat.SenderAssistant,
		fmt.Sprintf("The selected text contains %d words and %d tokens.", words, tokens),
		true,
	))
	return nil
}

// Retry dispatches the most recent generating trigger again.
func (d *Dispatcher) Retry(ctx context.Context) (*conversation.GenerationHandle, error) {
	d.dispatchMu.Lock()
	last := d.last
	d.dispatchMu.Unlock()

	if last == nil {
		return nil, errs.Input("Retry", "nothing to retry")
	}
	return d.Trigger(ctx, *last)
}

// Listen dispatches triggers from src one at a time until ctx ends or the
// source closes. Failed triggers are reported and do not stop the loop.
func (d *Dispatcher) Listen(ctx context.Context, src Source) error {
	triggers, err := src.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to trigger source: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-triggers:
			if !ok {
				return nil
			}
			if _, err := d.Trigger(ctx, t); err != nil {
				d.logger.Warn(module, "Command failed", map[string]interface{}{
					"command": t.Name,
					"error":   err.Error(),
				})
				d.notifier.Notify(conversation.Notice{
					Kind:    errs.KindOf(err),
					Message: err.Error(),
				})
			}
		}
	}
}
