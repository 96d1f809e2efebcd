package story

import (
	"context"
	"fmt"

	"github.com/inkfable/storyloom/internal/generation"
	"github.com/inkfable/storyloom/internal/types"
)

// CreateSession starts a new story attempt in the warm-up phase.
func (s *Service) CreateSession(ctx context.Context, childID string) (*types.Session, error) {
	session := &types.Session{
		ChildID: childID,
		Phase:   types.PhaseWarmup,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// WarmupReply records a child's pre-story message and appends the
// narrator's chatty reply. The child message is durable on its own: a
// failed reply leaves it in the transcript and the session retryable.
func (s *Service) WarmupReply(ctx context.Context, sessionID, text string) (*types.Message, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Phase != types.PhaseWarmup {
		return nil, fmt.Errorf("%w: warm-up chat ended", ErrWrongPhase)
	}

	childMessage := &types.Message{
		SessionID: session.ID,
		Sender:    types.SenderChild,
		Kind:      types.KindPlain,
		Content:   text,
	}
	if err := s.messages.Append(ctx, childMessage); err != nil {
		return nil, fmt.Errorf("failed to append child message: %w", err)
	}

	transcript, err := s.recentTranscript(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	reply, err := s.gen.WarmupReply(ctx, generation.WarmupRequest{
		SessionID:  session.ID,
		Transcript: transcript,
	})
	if err != nil {
		return nil, err
	}

	replyMessage := &types.Message{
		SessionID: session.ID,
		Sender:    types.SenderAssistant,
		Kind:      types.KindPlain,
		Content:   reply,
	}
	if err := s.messages.Append(ctx, replyMessage); err != nil {
		return nil, fmt.Errorf("failed to append reply: %w", err)
	}
	return replyMessage, nil
}

// SelectStoryType records the narrative template for the session and
// narrates the first beat. The selection is durable before the beat runs,
// so a failed first beat leaves the session in type_selected and the beat
// retryable via RunBeat.
func (s *Service) SelectStoryType(ctx context.Context, sessionID, storyTypeID, storyPhaseID string) (*BeatView, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state := StateOf(session)
	next, err := state.SelectType()
	if err != nil {
		return nil, err
	}
	if _, err := s.arcs.Lookup(storyTypeID); err != nil {
		return nil, fmt.Errorf("failed to resolve arc template: %w", err)
	}

	if err := s.sessions.UpdateStorySelection(ctx, session.ID, storyTypeID, storyPhaseID, next.Phase); err != nil {
		return nil, fmt.Errorf("failed to record story selection: %w", err)
	}
	session.Phase = next.Phase
	session.StoryTypeID = storyTypeID
	session.StoryPhaseID = storyPhaseID

	return s.narrateCurrent(ctx, session)
}
