package command

import "context"

// Trigger is one selection command fired by the editor.
type Trigger struct {
	Name      string `json:"name" validate:"required"`
	Selection string `json:"selection"`
	Param     string `json:"param,omitempty"`
}

// Source delivers triggers in the order they were fired. The channel is
// closed when the source stops or ctx ends.
type Source interface {
	Subscribe(ctx context.Context) (<-chan Trigger, error)
}

// ChannelSource adapts a plain channel; handy for tests and in-process callers.
type ChannelSource chan Trigger

func (c ChannelSource) Subscribe(context.Context) (<-chan Trigger, error) {
	return c, nil
}
