// Package hook defines the event envelope posted by in-process agent plugins
// and its validation rules.
package hook

import (
	"encoding/json"
	"fmt"
)

// EventType is the closed set of hook events the pipeline dispatches on.
type EventType string

const (
	SessionStart        EventType = "session.start"
	SessionEnd          EventType = "session.end"
	SessionError        EventType = "session.error"
	SessionNotification EventType = "session.notification"
	SessionIdle         EventType = "session.idle"
	ThinkingStart       EventType = "thinking.start"
	ThinkingStop        EventType = "thinking.stop"
	ToolActivity        EventType = "tool.activity"
	ToolFailure         EventType = "tool.failure"
	PermissionRequest   EventType = "permission.request"
	TaskCompleted       EventType = "task.completed"
	PromptSubmit        EventType = "prompt.submit"
	TeammateIdle        EventType = "teammate.idle"
)

// knownTypes gates dispatch. Validation accepts unknown type strings; the
// pipeline acks them as no-ops.
var knownTypes = map[EventType]bool{
	SessionStart:        true,
	SessionEnd:          true,
	SessionError:        true,
	SessionNotification: true,
	SessionIdle:         true,
	ThinkingStart:       true,
	ThinkingStop:        true,
	ToolActivity:        true,
	ToolFailure:         true,
	PermissionRequest:   true,
	TaskCompleted:       true,
	PromptSubmit:        true,
	TeammateIdle:        true,
}

// Known reports whether the pipeline has a handler for this event type.
func (t EventType) Known() bool { return knownTypes[t] }

// Envelope is one hook event as posted by an agent plugin. Unknown fields
// pass through Extra untouched so producers can evolve ahead of us.
type Envelope struct {
	Type        EventType `json:"type"`
	ProjectName string    `json:"projectName"`
	AgentType   string    `json:"agentType,omitempty"`
	InstanceID  string    `json:"instanceId,omitempty"`
	Text        string    `json:"text,omitempty"`
	Message     string    `json:"message,omitempty"`
	Timestamp   string    `json:"timestamp,omitempty"`
	TurnID      string    `json:"turnId,omitempty"`
	ToolName    string    `json:"toolName,omitempty"`
	ToolInput   string    `json:"toolInput,omitempty"`
	Teammate    string    `json:"teammate,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// declaredFields are the envelope's typed keys; everything else lands in Extra.
var declaredFields = map[string]bool{
	"type": true, "projectName": true, "agentType": true, "instanceId": true,
	"text": true, "message": true, "timestamp": true, "turnId": true,
	"toolName": true, "toolInput": true, "teammate": true,
}

// Validate parses a raw payload into an Envelope. It returns the envelope
// and a nil error slice on success, or the list of field errors. Unknown
// event types pass validation; they are rejected (as 200 no-ops) at dispatch.
func Validate(payload []byte) (*Envelope, []string) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, []string{"payload must be a JSON object"}
	}
	if raw == nil {
		return nil, []string{"payload must be a JSON object"}
	}

	var errs []string
	env := &Envelope{}

	str := func(key string, required bool) string {
		rm, ok := raw[key]
		if !ok {
			if required {
				errs = append(errs, fmt.Sprintf("%s is required", key))
			}
			return ""
		}
		var v string
		if err := json.Unmarshal(rm, &v); err != nil {
			errs = append(errs, fmt.Sprintf("%s must be a string", key))
			return ""
		}
		if required && v == "" {
			errs = append(errs, fmt.Sprintf("%s must be non-empty", key))
		}
		return v
	}

	env.Type = EventType(str("type", true))
	env.ProjectName = str("projectName", true)
	env.AgentType = str("agentType", false)
	env.InstanceID = str("instanceId", false)
	env.Text = str("text", false)
	env.Message = str("message", false)
	env.Timestamp = str("timestamp", false)
	env.TurnID = str("turnId", false)
	env.ToolName = str("toolName", false)
	env.ToolInput = str("toolInput", false)
	env.Teammate = str("teammate", false)

	for key, rm := range raw {
		if !declaredFields[key] {
			if env.Extra == nil {
				env.Extra = make(map[string]json.RawMessage)
			}
			env.Extra[key] = rm
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return env, nil
}

// BodyText returns the event's human text, preferring Text over Message.
func (e *Envelope) BodyText() string {
	if e.Text != "" {
		return e.Text
	}
	return e.Message
}
