package repository

import (
	"context"
	"time"

	"rvsync/backend/internal/models"

	"gorm.io/gorm"
)

// PartnerThread is the latest message exchanged with one partner
type PartnerThread struct {
	PartnerID uint
	Latest    models.ChatMessage
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	GetByID(ctx context.Context, id uint) (*models.ChatMessage, error)
	Between(ctx context.Context, userA, userB uint) ([]models.ChatMessage, error)
	MarkConversationRead(ctx context.Context, readerID, otherID uint, at time.Time) (int64, error)
	MarkRead(ctx context.Context, id uint, at time.Time) error
	LatestPerPartner(ctx context.Context, userID uint) ([]PartnerThread, error)
	UnreadByPartner(ctx context.Context, userID uint) (map[uint]int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	if message.MessageType == "" {
		message.MessageType = models.DefaultMessageType
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	return wrap("create message", r.db.WithContext(ctx).Create(message).Error)
}

func (r *GormMessageRepository) GetByID(ctx context.Context, id uint) (*models.ChatMessage, error) {
	var message models.ChatMessage
	if err := r.db.WithContext(ctx).First(&message, id).Error; err != nil {
		return nil, wrap("get message", err)
	}
	return &message, nil
}

// Between returns both directions of a conversation, oldest first
func (r *GormMessageRepository) Between(ctx context.Context, userA, userB uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	return messages, wrap("list conversation", err)
}

// MarkConversationRead flips every unread message from otherID to readerID in one statement
func (r *GormMessageRepository) MarkConversationRead(ctx context.Context, readerID, otherID uint, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("to_user_id = ? AND from_user_id = ? AND is_read = ?", readerID, otherID, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	return res.RowsAffected, wrap("mark conversation read", res.Error)
}

// MarkRead is a no-op for messages that are already read
func (r *GormMessageRepository) MarkRead(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]any{"is_read": true, "read_at": at}).Error
	return wrap("mark message read", err)
}

// LatestPerPartner returns the newest message (by created_at, then id) of every conversation the user is part of
func (r *GormMessageRepository) LatestPerPartner(ctx context.Context, userID uint) ([]PartnerThread, error) {
	type row struct {
		PartnerID uint
		LastID    uint
	}

	const partner = "CASE WHEN from_user_id = ? THEN to_user_id ELSE from_user_id END"
	ranked := r.db.
		Model(&models.ChatMessage{}).
		Select("id, "+partner+" AS partner_id, "+
			"ROW_NUMBER() OVER (PARTITION BY "+partner+" ORDER BY created_at DESC, id DESC) AS rn", userID, userID).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID)

	var rows []row
	err := r.db.WithContext(ctx).
		Table("(?) AS ranked", ranked).
		Select("partner_id, id AS last_id").
		Where("rn = 1").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("list partners", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, rw := range rows {
		ids = append(ids, rw.LastID)
	}

	var latest []models.ChatMessage
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&latest).Error; err != nil {
		return nil, wrap("load latest messages", err)
	}
	byID := make(map[uint]models.ChatMessage, len(latest))
	for _, m := range latest {
		byID[m.ID] = m
	}

	threads := make([]PartnerThread, 0, len(rows))
	for _, rw := range rows {
		m, ok := byID[rw.LastID]
		if !ok {
			continue
		}
		threads = append(threads, PartnerThread{PartnerID: rw.PartnerID, Latest: m})
	}
	return threads, nil
}

func (r *GormMessageRepository) UnreadByPartner(ctx context.Context, userID uint) (map[uint]int64, error) {
	type row struct {
		FromUserID uint
		Unread     int64
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Select("from_user_id, COUNT(*) AS unread").
		Where("to_user_id = ? AND is_read = ?", userID, false).
		Group("from_user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("count unread", err)
	}

	out := make(map[uint]int64, len(rows))
	for _, rw := range rows {
		out[rw.FromUserID] = rw.Unread
	}
	return out, nil
}

func (r *GormMessageRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("to_user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, wrap("count unread", err)
}
