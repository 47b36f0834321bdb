package events

import (
	"fmt"
	"time"

	"ai-notecopilot/pkg/rag/command"
)

const TypeTriggerFired = "TRIGGER_FIRED"

func NewTriggerFired(sessionID string, t command.Trigger) BaseEvent {
	return BaseEvent{
		Type: TypeTriggerFired,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"name":       t.Name,
			"selection":  t.Selection,
			"param":      t.Param,
		},
		OccurredAt: time.Now(),
	}
}

// TriggerFrom reads a TRIGGER_FIRED event back.
func TriggerFrom(e Event) (string, command.Trigger, error) {
	if e.EventType() != TypeTriggerFired {
		return "", command.Trigger{}, fmt.Errorf("event %s is not a trigger", e.EventType())
	}
	data := e.Payload()
	str := func(key string) string {
		s, _ := data[key].(string)
		return s
	}

	t := command.Trigger{Name: str("name"), Selection: str("selection"), Param: str("param")}
	if t.Name == "" {
		return "", command.Trigger{}, fmt.Errorf("trigger event has no command name")
	}
	return str("session_id"), t, nil
}
