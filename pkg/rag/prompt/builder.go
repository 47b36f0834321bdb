package prompt

import (
	"strings"

	"ai-notecopilot/pkg/llm"
)

// ContextualBuilder assembles the message list for one model request
type ContextualBuilder struct {
	systemPrompt string
	reference    string
	history      []llm.Message
	query        string
}

// NewContextualBuilder takes reference as an already formatted
// <reference_material> block, or "" for plain chat.
func NewContextualBuilder(systemPrompt, reference string, history []llm.Message, query string) *ContextualBuilder {
	return &ContextualBuilder{
		systemPrompt: systemPrompt,
		reference:    reference,
		history:      history,
		query:        query,
	}
}

// Messages yields system, memory, then the user turn.
func (b *ContextualBuilder) Messages() []llm.Message {
	msgs := make([]llm.Message, 0, len(b.history)+2)

	if system := b.buildSystem(); system != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system})
	}
	msgs = append(msgs, b.history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: b.query})
	return msgs
}

func (b *ContextualBuilder) buildSystem() string {
	var prompt strings.Builder

	if b.systemPrompt != "" {
		prompt.WriteString(b.systemPrompt)
		prompt.WriteString("\n\n")
	}

	if b.reference != "" {
		prompt.WriteString(b.reference)
		prompt.WriteString("\n\n")
		b.writeTask(&prompt)
		b.writeGuidelines(&prompt)
	}

	return strings.TrimSpace(prompt.String())
}

func (b *ContextualBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a knowledgeable assistant helping the user understand and extract information from their notes.\n")
	prompt.WriteString("Answer the user's next message using the reference material above.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *ContextualBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer strictly on the reference material provided\n")
	prompt.WriteString("2. Adapt your response style to match what the question requires\n")
	prompt.WriteString("3. Be complete - don't skip relevant information from the material\n")
	prompt.WriteString("4. If the material doesn't contain what's being asked, say so honestly\n")
	prompt.WriteString("</guidelines>")
}
