package ws

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// EventType tags every outbound frame
type EventType string

const (
	EventMessage  EventType = "message"
	EventError    EventType = "error"
	EventPresence EventType = "presence"
)

// Event is a structured record pushed to a connected client
type Event interface {
	EventType() EventType
}

// MessageEvent announces a persisted chat message. Both participants receive the same record.
type MessageEvent struct {
	Type        EventType `json:"type"`
	ID          uint      `json:"id"`
	FromUserID  uint      `json:"from_user_id"`
	ToUserID    uint      `json:"to_user_id"`
	SenderName  string    `json:"sender_name"`
	Message     string    `json:"message"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
}

func (MessageEvent) EventType() EventType { return EventMessage }

// ErrorEvent is sent only to the client whose frame was rejected
type ErrorEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

func (ErrorEvent) EventType() EventType { return EventError }

// PresenceEvent is broadcast when a user connects or disconnects
type PresenceEvent struct {
	Type   EventType `json:"type"`
	UserID uint      `json:"user_id"`
	Online bool      `json:"online"`
}

func (PresenceEvent) EventType() EventType { return EventPresence }

func NewErrorEvent(msg string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: msg}
}

func NewPresenceEvent(userID uint, online bool) PresenceEvent {
	return PresenceEvent{Type: EventPresence, UserID: userID, Online: online}
}

// Encode marshals an event into a text frame
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// InboundMessage is the only frame shape a client may send on a chat socket
type InboundMessage struct {
	Message string `json:"message" validate:"required,max=5000"`
	Type    string `json:"type" validate:"omitempty,max=20"`
}

const defaultMessageType = "text"

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseInbound decodes and validates a client frame. Unknown fields are ignored.
func ParseInbound(data []byte) (InboundMessage, error) {
	var in InboundMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return InboundMessage{}, fmt.Errorf("malformed frame: %w", err)
	}

	in.Message = strings.TrimSpace(in.Message)
	in.Type = strings.TrimSpace(in.Type)

	if err := validate.Struct(in); err != nil {
		return InboundMessage{}, err
	}
	if in.Type == "" {
		in.Type = defaultMessageType
	}
	return in, nil
}
