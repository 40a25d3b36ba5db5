package models

import (
	"time"
)

// DefaultMessageType is used when a sender does not tag a message
const DefaultMessageType = "text"

// ChatMessage is one directed message between two users
type ChatMessage struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FromUserID  uint       `gorm:"index:idx_chat_pair;not null" json:"from_user_id"`
	ToUserID    uint       `gorm:"index:idx_chat_pair;index;not null" json:"to_user_id"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	MessageType string     `gorm:"size:20;default:text" json:"message_type"`
	IsRead      bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt      *time.Time `json:"read_at"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

// SendMessageRequest is the body of POST /messages/send
type SendMessageRequest struct {
	ToUserID    uint   `json:"to_user_id" binding:"required"`
	Message     string `json:"message" binding:"required,max=5000"`
	MessageType string `json:"message_type" binding:"omitempty,max=20"`
}

// MessageResponse is a persisted message plus the sender's display name
type MessageResponse struct {
	ID          uint       `json:"id"`
	FromUserID  uint       `json:"from_user_id"`
	ToUserID    uint       `json:"to_user_id"`
	SenderName  string     `json:"sender_name"`
	Message     string     `json:"message"`
	MessageType string     `json:"message_type"`
	IsRead      bool       `json:"is_read"`
	ReadAt      *time.Time `json:"read_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ConversationSummary is one inbox row
type ConversationSummary struct {
	UserID          uint      `json:"user_id"`
	UserName        string    `json:"user_name"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	UnreadCount     int64     `json:"unread_count"`
}

// ToResponse attaches the sender name to a persisted message
func (m *ChatMessage) ToResponse(senderName string) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		FromUserID:  m.FromUserID,
		ToUserID:    m.ToUserID,
		SenderName:  senderName,
		Message:     m.Message,
		MessageType: m.MessageType,
		IsRead:      m.IsRead,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}
