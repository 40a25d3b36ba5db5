package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"rvsync/backend/internal/models"
	"rvsync/backend/internal/repository"
	"rvsync/backend/pkg/logger"
	"rvsync/backend/pkg/ws"
	"rvsync/backend/shared/observability"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const unknownSender = "Unknown"

var chatTracer = otel.Tracer("rvsync/backend/chat")

// Publisher delivers events to connected users. Delivery is best effort.
type Publisher interface {
	SendTo(userID uint, event ws.Event)
}

// UserLookup is the identity collaborator of the chat service
type UserLookup interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	DisplayNames(ctx context.Context, ids []uint) (map[uint]string, error)
}

// ChatOptions tunes the chat service
type ChatOptions struct {
	PreviewLength int
	Metrics       *observability.Metrics
	Now           func() time.Time
}

// ChatService persists direct messages and pushes them to connected users
type ChatService struct {
	messages   repository.MessageRepository
	users      UserLookup
	publisher  Publisher
	log        *logger.Logger
	metrics    *observability.Metrics
	previewLen int
	now        func() time.Time
}

func NewChatService(messages repository.MessageRepository, users UserLookup, publisher Publisher, log *logger.Logger, opts ChatOptions) *ChatService {
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = 50
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ChatService{
		messages:   messages,
		users:      users,
		publisher:  publisher,
		log:        log.WithComponent("chat"),
		metrics:    opts.Metrics,
		previewLen: opts.PreviewLength,
		now:        opts.Now,
	}
}

// SendMessage persists a message and then pushes it to the recipient if connected.
// The push never affects the result: success means the message is stored.
func (s *ChatService) SendMessage(ctx context.Context, senderID, recipientID uint, body, msgType string) (*models.MessageResponse, error) {
	ctx, span := chatTracer.Start(ctx, "chat.SendMessage", trace.WithAttributes(
		attribute.Int64("chat.sender_id", int64(senderID)),
		attribute.Int64("chat.recipient_id", int64(recipientID)),
	))
	defer span.End()

	resp, err := s.persist(ctx, senderID, recipientID, body, msgType)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.publisher.SendTo(recipientID, messageEvent(resp))
	return resp, nil
}

// HandleInbound accepts a raw frame from the sender's socket, persists it and
// publishes the stored record to both participants.
func (s *ChatService) HandleInbound(ctx context.Context, senderID, recipientID uint, frame []byte) (*models.MessageResponse, error) {
	ctx, span := chatTracer.Start(ctx, "chat.HandleInbound")
	defer span.End()

	in, err := ws.ParseInbound(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	resp, err := s.persist(ctx, senderID, recipientID, in.Message, in.Type)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.publish(messageEvent(resp), senderID, recipientID)
	return resp, nil
}

// publish sends one event to every target once, so both sides of a
// conversation observe the same persisted record.
func (s *ChatService) publish(event ws.Event, targets ...uint) {
	for _, id := range lo.Uniq(targets) {
		s.publisher.SendTo(id, event)
	}
}

func (s *ChatService) persist(ctx context.Context, senderID, recipientID uint, body, msgType string) (*models.MessageResponse, error) {
	// REST and socket input are stored in the same normalized form
	body = strings.TrimSpace(body)
	msgType = strings.TrimSpace(msgType)
	if body == "" {
		return nil, fmt.Errorf("%w: empty message", ErrInvalidPayload)
	}

	if _, err := s.users.GetUser(ctx, recipientID); err != nil {
		return nil, err
	}

	senderName := unknownSender
	if names, err := s.users.DisplayNames(ctx, []uint{senderID}); err == nil {
		if name, ok := names[senderID]; ok {
			senderName = name
		}
	}

	if msgType == "" {
		msgType = models.DefaultMessageType
	}
	msg := &models.ChatMessage{
		FromUserID:  senderID,
		ToUserID:    recipientID,
		Message:     body,
		MessageType: msgType,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.metrics.MessagePersisted(ctx, msgType)
	s.log.Debug("message stored", "message_id", msg.ID, "from", senderID, "to", recipientID)

	resp := msg.ToResponse(senderName)
	return &resp, nil
}

func messageEvent(m *models.MessageResponse) ws.MessageEvent {
	return ws.MessageEvent{
		Type:        ws.EventMessage,
		ID:          m.ID,
		FromUserID:  m.FromUserID,
		ToUserID:    m.ToUserID,
		SenderName:  m.SenderName,
		Message:     m.Message,
		MessageType: m.MessageType,
		CreatedAt:   m.CreatedAt,
	}
}

// ListInbox returns one summary per conversation partner, most recent first.
// The caller must already be authorized for userID.
func (s *ChatService) ListInbox(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	threads, err := s.messages.LatestPerPartner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(threads) == 0 {
		return []models.ConversationSummary{}, nil
	}

	unread, err := s.messages.UnreadByPartner(ctx, userID)
	if err != nil {
		return nil, err
	}

	partnerIDs := lo.Map(threads, func(t repository.PartnerThread, _ int) uint { return t.PartnerID })
	names, err := s.users.DisplayNames(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}

	type row struct {
		summary models.ConversationSummary
		lastID  uint
	}
	rows := make([]row, 0, len(threads))
	for _, t := range threads {
		name, ok := names[t.PartnerID]
		if !ok {
			continue
		}
		rows = append(rows, row{
			summary: models.ConversationSummary{
				UserID:          t.PartnerID,
				UserName:        name,
				LastMessage:     truncate(t.Latest.Message, s.previewLen),
				LastMessageTime: t.Latest.CreatedAt,
				UnreadCount:     unread[t.PartnerID],
			},
			lastID: t.Latest.ID,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.summary.LastMessageTime.Equal(b.summary.LastMessageTime) {
			return a.summary.LastMessageTime.After(b.summary.LastMessageTime)
		}
		return a.lastID > b.lastID
	})

	return lo.Map(rows, func(r row, _ int) models.ConversationSummary { return r.summary }), nil
}

// GetConversation returns the thread between callerID and otherID oldest first.
// Unread messages addressed to the caller are marked read before returning.
func (s *ChatService) GetConversation(ctx context.Context, callerID, otherID uint) ([]models.MessageResponse, error) {
	now := s.now().UTC()
	if _, err := s.messages.MarkConversationRead(ctx, callerID, otherID, now); err != nil {
		return nil, err
	}

	msgs, err := s.messages.Between(ctx, callerID, otherID)
	if err != nil {
		return nil, err
	}

	names, err := s.users.DisplayNames(ctx, []uint{callerID, otherID})
	if err != nil {
		return nil, err
	}

	out := make([]models.MessageResponse, 0, len(msgs))
	for i := range msgs {
		name, ok := names[msgs[i].FromUserID]
		if !ok {
			name = unknownSender
		}
		out = append(out, msgs[i].ToResponse(name))
	}
	return out, nil
}

// MarkRead marks a single message read on behalf of its recipient
func (s *ChatService) MarkRead(ctx context.Context, callerID, messageID uint) (*models.MessageResponse, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if msg.ToUserID != callerID {
		return nil, ErrForbidden
	}

	if !msg.IsRead {
		now := s.now().UTC()
		if err := s.messages.MarkRead(ctx, messageID, now); err != nil {
			return nil, err
		}
		msg.IsRead = true
		msg.ReadAt = &now
	}

	name := unknownSender
	if names, err := s.users.DisplayNames(ctx, []uint{msg.FromUserID}); err == nil {
		if n, ok := names[msg.FromUserID]; ok {
			name = n
		}
	}
	resp := msg.ToResponse(name)
	return &resp, nil
}

// UnreadCount is the number of unread messages addressed to userID
func (s *ChatService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.messages.CountUnread(ctx, userID)
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
