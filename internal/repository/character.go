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

// characterModel maps to the story_characters table.
type characterModel struct {
	ID                      string `gorm:"primaryKey"`
	OwnerChildID            string `gorm:"index"`
	SessionID               string `gorm:"index"`
	Name                    string
	Role                    string
	Traits                  []string `gorm:"serializer:json"`
	IntroducedFromOptionID  string
	IntroducedFromMessageID string
	AvatarURL               string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (characterModel) TableName() string {
	return "story_characters"
}

// CharacterRepo accesses supporting characters.
type CharacterRepo struct {
	db *gorm.DB
}

// NewCharacterRepo returns a CharacterRepo.
func NewCharacterRepo(db *gorm.DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

var _ story.CharacterRepo = (*CharacterRepo)(nil)

func (r *CharacterRepo) Create(ctx context.Context, character *types.Character) error {
	if character.ID == "" {
		character.ID = uuid.NewString()
	}
	record := characterModel{
		ID:                      character.ID,
		OwnerChildID:            character.OwnerChildID,
		SessionID:               character.SessionID,
		Name:                    character.Name,
		Role:                    character.Role,
		Traits:                  character.Traits,
		IntroducedFromOptionID:  character.IntroducedFromOptionID,
		IntroducedFromMessageID: character.IntroducedFromMessageID,
		AvatarURL:               character.AvatarURL,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert character: %w", err)
	}
	character.CreatedAt = record.CreatedAt
	character.UpdatedAt = record.UpdatedAt
	return nil
}

func (r *CharacterRepo) Get(ctx context.Context, id string) (*types.Character, error) {
	var record characterModel
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: character %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	character := characterFromModel(record)
	return &character, nil
}

// AppendTraits adds traits to a character, never replacing existing ones.
// Callers serialize writes per session, so the read-modify-write is safe.
func (r *CharacterRepo) AppendTraits(ctx context.Context, id string, traits []string) error {
	character, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	merged := append(character.Traits, traits...)
	if err := r.db.WithContext(ctx).
		Model(&characterModel{ID: id}).
		Update("traits", merged).Error; err != nil {
		return fmt.Errorf("failed to update traits: %w", err)
	}
	return nil
}

// SetAvatarURL stores the generated avatar location.
func (r *CharacterRepo) SetAvatarURL(ctx context.Context, id, url string) error {
	if err := r.db.WithContext(ctx).
		Model(&characterModel{ID: id}).
		Update("avatar_url", url).Error; err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

func characterFromModel(record characterModel) types.Character {
	return types.Character{
		ID:                      record.ID,
		OwnerChildID:            record.OwnerChildID,
		SessionID:               record.SessionID,
		Name:                    record.Name,
		Role:                    record.Role,
		Traits:                  record.Traits,
		IntroducedFromOptionID:  record.IntroducedFromOptionID,
		IntroducedFromMessageID: record.IntroducedFromMessageID,
		AvatarURL:               record.AvatarURL,
		CreatedAt:               record.CreatedAt,
		UpdatedAt:               record.UpdatedAt,
	}
}
