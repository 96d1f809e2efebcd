package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkfable/storyloom/internal/story"
	"github.com/inkfable/storyloom/internal/types"
)

// messageModel maps to the story_messages table. Seq is a database-assigned
// sequence so transcript order never depends on timestamp precision.
type messageModel struct {
	ID        string `gorm:"primaryKey"`
	Seq       int64  `gorm:"autoIncrement;uniqueIndex"`
	SessionID string `gorm:"index"`
	Sender    string
	Kind      string `gorm:"index"`
	Content   string
	ChoiceID  string
	Options   []types.Choice `gorm:"serializer:json"`
	CreatedAt time.Time
}

func (messageModel) TableName() string {
	return "story_messages"
}

// MessageRepo appends and reads the ordered transcript.
type MessageRepo struct {
	db *gorm.DB
}

// NewMessageRepo returns a MessageRepo.
func NewMessageRepo(db *gorm.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ story.MessageRepo = (*MessageRepo)(nil)

func (r *MessageRepo) Append(ctx context.Context, message *types.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	record := messageModel{
		ID:        message.ID,
		SessionID: message.SessionID,
		Sender:    string(message.Sender),
		Kind:      string(message.Kind),
		Content:   message.Content,
		ChoiceID:  message.ChoiceID,
		Options:   message.Options,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	message.CreatedAt = record.CreatedAt
	return nil
}

// Latest returns the most recent message of a kind, or nil when none exists.
func (r *MessageRepo) Latest(ctx context.Context, sessionID string, kind types.MessageKind) (*types.Message, error) {
	var record messageModel
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND kind = ?", sessionID, string(kind)).
		Order("seq DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest message: %w", err)
	}
	message := messageFromModel(record)
	return &message, nil
}

// List returns messages in ascending order. A positive limit keeps only the
// most recent messages, still ascending.
func (r *MessageRepo) List(ctx context.Context, sessionID string, limit int) ([]types.Message, error) {
	query := r.db.WithContext(ctx).Where("session_id = ?", sessionID)
	var records []messageModel
	if limit > 0 {
		if err := query.Order("seq DESC").Limit(limit).Find(&records).Error; err != nil {
			return nil, fmt.Errorf("failed to query messages: %w", err)
		}
		// Oldest -> newest
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
	} else {
		if err := query.Order("seq ASC").Find(&records).Error; err != nil {
			return nil, fmt.Errorf("failed to query messages: %w", err)
		}
	}

	results := make([]types.Message, 0, len(records))
	for _, record := range records {
		results = append(results, messageFromModel(record))
	}
	return results, nil
}

// UpdateOptions replaces the options field in place. This is the one
// permitted mutation of a written message, used only on the live
// beat_options message.
func (r *MessageRepo) UpdateOptions(ctx context.Context, messageID string, options []types.Choice) error {
	if err := r.db.WithContext(ctx).
		Model(&messageModel{ID: messageID}).
		Update("options", options).Error; err != nil {
		return fmt.Errorf("failed to update options: %w", err)
	}
	return nil
}

func messageFromModel(record messageModel) types.Message {
	return types.Message{
		ID:        record.ID,
		SessionID: record.SessionID,
		Sender:    types.Sender(record.Sender),
		Kind:      types.MessageKind(record.Kind),
		Content:   record.Content,
		ChoiceID:  record.ChoiceID,
		Options:   record.Options,
		CreatedAt: record.CreatedAt,
	}
}
