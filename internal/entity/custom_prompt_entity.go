package entity

import "time"

// CustomPrompt is a user-authored selection prompt, unique by title. "{}" in
// Prompt marks where the selection goes.
type CustomPrompt struct {
	Title     string
	Prompt    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
