// Package story implements the interactive story progression engine: the
// phase machine that advances a session through warm-up chat, arc-stepped
// narrative beats, and ending selection, including the traits gate that
// suspends advancement while a new character's traits are collected.
package story

import (
	"context"
	"fmt"
	"sync"

	"github.com/inkfable/storyloom/internal/arc"
	"github.com/inkfable/storyloom/internal/generation"
	"github.com/inkfable/storyloom/internal/types"
)

// SessionRepo persists session documents.
type SessionRepo interface {
	Create(ctx context.Context, session *types.Session) error
	Get(ctx context.Context, id string) (*types.Session, error)
	UpdateStorySelection(ctx context.Context, id, storyTypeID, storyPhaseID string, phase types.Phase) error
	UpdatePhase(ctx context.Context, id string, phase types.Phase) error
	UpdateArcStep(ctx context.Context, id string, index int) error
	SetPendingTraits(ctx context.Context, id string, pending *types.PendingTraits) error
	AddSupportingCharacter(ctx context.Context, id, characterID string) error
	SetChosenEnding(ctx context.Context, id, ending string, phase types.Phase) error
}

// MessageRepo appends and reads the ordered session transcript.
type MessageRepo interface {
	Append(ctx context.Context, message *types.Message) error
	// Latest returns the most recent message of a kind, or nil when none.
	Latest(ctx context.Context, sessionID string, kind types.MessageKind) (*types.Message, error)
	// List returns messages in ascending order; limit <= 0 means all.
	List(ctx context.Context, sessionID string, limit int) ([]types.Message, error)
	UpdateOptions(ctx context.Context, messageID string, options []types.Choice) error
}

// CharacterRepo persists supporting characters.
type CharacterRepo interface {
	Create(ctx context.Context, character *types.Character) error
	Get(ctx context.Context, id string) (*types.Character, error)
	AppendTraits(ctx context.Context, id string, traits []string) error
}

// AvatarNotifier receives one-way character-introduced events. The engine
// never consumes a result from it.
type AvatarNotifier interface {
	CharacterIntroduced(characterID, name, kind string)
}

// Service drives story progression for one session at a time. A per-session
// mutex serializes all advancing operations, so at most one beat, traits, or
// ending call is in flight per session.
type Service struct {
	sessions     SessionRepo
	messages     MessageRepo
	characters   CharacterRepo
	gen          generation.Client
	arcs         *arc.Registry
	avatars      AvatarNotifier
	historyLimit int

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is a refcounted per-session mutex. The registry entry lives
// only while operations hold or wait on it, so the map stays bounded by the
// number of in-flight operations.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewService wires the progression engine.
func NewService(
	sessions SessionRepo,
	messages MessageRepo,
	characters CharacterRepo,
	gen generation.Client,
	arcs *arc.Registry,
	avatars AvatarNotifier,
	historyLimit int,
) *Service {
	if historyLimit <= 0 {
		historyLimit = 12
	}
	return &Service{
		sessions:     sessions,
		messages:     messages,
		characters:   characters,
		gen:          gen,
		arcs:         arcs,
		avatars:      avatars,
		historyLimit: historyLimit,
		locks:        make(map[string]*sessionLock),
	}
}

// lock acquires the per-session mutex and returns its release func. The
// last releaser evicts the registry entry.
func (s *Service) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}

// GetSession point-reads a session.
func (s *Service) GetSession(ctx context.Context, id string) (*types.Session, error) {
	return s.sessions.Get(ctx, id)
}

// Transcript returns the session messages in ascending order.
func (s *Service) Transcript(ctx context.Context, sessionID string, limit int) ([]types.Message, error) {
	return s.messages.List(ctx, sessionID, limit)
}

// loadTemplate resolves the arc template for a session.
func (s *Service) loadTemplate(session *types.Session) (arc.Template, error) {
	if session.StoryTypeID == "" || session.StoryPhaseID == "" {
		return arc.Template{}, ErrStoryTypeNotSelected
	}
	template, err := s.arcs.Lookup(session.StoryTypeID)
	if err != nil {
		return arc.Template{}, fmt.Errorf("failed to resolve arc template: %w", err)
	}
	return template, nil
}

// recentTranscript reads the trailing window used as generation context.
func (s *Service) recentTranscript(ctx context.Context, sessionID string) ([]types.Message, error) {
	messages, err := s.messages.List(ctx, sessionID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return messages, nil
}
