package constant

import "errors"

const (
	// DefaultSystemPrompt applies when COPILOT_SYSTEM_PROMPT is empty
	DefaultSystemPrompt = `You are Note Copilot, a helpful assistant working inside the user's notes.
Answer clearly and concisely. Use Markdown when it helps. When unsure, say so instead of guessing.`

	IndexNoteNotice       = "Reading [[%s]]..."
	IndexNoteSwitchNotice = "Reading [[%s]]...\n\nSwitch the mode to document_grounded to ask questions about it."

	ExportFileTimeLayout = "20060102_150405"
	ExportLineFormat     = "**%s**: %s"
)

// Websocket event names.
const (
	WsEventLog    = "log"
	WsEventNotice = "notice"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
