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

// sessionModel maps to the story_sessions table.
type sessionModel struct {
	ID                     string `gorm:"primaryKey"`
	ChildID                string `gorm:"index"`
	Phase                  string
	StoryTypeID            string
	StoryPhaseID           string
	ArcStepIndex           int
	PendingTraits          *types.PendingTraits `gorm:"serializer:json"`
	SupportingCharacterIDs []string             `gorm:"serializer:json"`
	ChosenEnding           string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (sessionModel) TableName() string {
	return "story_sessions"
}

// SessionRepo accesses session documents.
type SessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo returns a SessionRepo.
func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

var _ story.SessionRepo = (*SessionRepo)(nil)

func (r *SessionRepo) Create(ctx context.Context, session *types.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	record := sessionModel{
		ID:                     session.ID,
		ChildID:                session.ChildID,
		Phase:                  string(session.Phase),
		StoryTypeID:            session.StoryTypeID,
		StoryPhaseID:           session.StoryPhaseID,
		ArcStepIndex:           session.ArcStepIndex,
		PendingTraits:          session.PendingTraits,
		SupportingCharacterIDs: session.SupportingCharacterIDs,
		ChosenEnding:           session.ChosenEnding,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	session.CreatedAt = record.CreatedAt
	session.UpdatedAt = record.UpdatedAt
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*types.Session, error) {
	var record sessionModel
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	session := sessionFromModel(record)
	return &session, nil
}

func (r *SessionRepo) UpdateStorySelection(ctx context.Context, id, storyTypeID, storyPhaseID string, phase types.Phase) error {
	return r.merge(ctx, id, map[string]any{
		"story_type_id":  storyTypeID,
		"story_phase_id": storyPhaseID,
		"phase":          string(phase),
	})
}

func (r *SessionRepo) UpdatePhase(ctx context.Context, id string, phase types.Phase) error {
	return r.merge(ctx, id, map[string]any{"phase": string(phase)})
}

func (r *SessionRepo) UpdateArcStep(ctx context.Context, id string, index int) error {
	return r.merge(ctx, id, map[string]any{"arc_step_index": index})
}

func (r *SessionRepo) SetPendingTraits(ctx context.Context, id string, pending *types.PendingTraits) error {
	if err := r.db.WithContext(ctx).
		Model(&sessionModel{ID: id}).
		Update("pending_traits", pending).Error; err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// AddSupportingCharacter links a character id into the session. Callers
// serialize writes per session, so the read-modify-write is safe.
func (r *SessionRepo) AddSupportingCharacter(ctx context.Context, id, characterID string) error {
	session, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	ids := append(session.SupportingCharacterIDs, characterID)
	return r.merge(ctx, id, map[string]any{"supporting_character_ids": ids})
}

func (r *SessionRepo) SetChosenEnding(ctx context.Context, id, ending string, phase types.Phase) error {
	return r.merge(ctx, id, map[string]any{
		"chosen_ending": ending,
		"phase":         string(phase),
	})
}

// merge applies a field-level update to one session document.
func (r *SessionRepo) merge(ctx context.Context, id string, fields map[string]any) error {
	if err := r.db.WithContext(ctx).
		Model(&sessionModel{ID: id}).
		Updates(fields).Error; err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func sessionFromModel(record sessionModel) types.Session {
	return types.Session{
		ID:                     record.ID,
		ChildID:                record.ChildID,
		Phase:                  types.Phase(record.Phase),
		StoryTypeID:            record.StoryTypeID,
		StoryPhaseID:           record.StoryPhaseID,
		ArcStepIndex:           record.ArcStepIndex,
		PendingTraits:          record.PendingTraits,
		SupportingCharacterIDs: record.SupportingCharacterIDs,
		ChosenEnding:           record.ChosenEnding,
		CreatedAt:              record.CreatedAt,
		UpdatedAt:              record.UpdatedAt,
	}
}
