package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"`
	GroupKey  string    `json:"group_key,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Actions recorded by the realtime and REST layers.
const (
	ActionConnect       = "connect"
	ActionDisconnect    = "disconnect"
	ActionRejected      = "handshake_rejected"
	ActionMessageSent   = "message_sent"
	ActionTaskChanged   = "task_changed"
	ActionCircleCreated = "circle_created"
	ActionCircleJoined  = "circle_joined"
)
