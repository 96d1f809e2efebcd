package story

import (
	"context"
	"fmt"

	"github.com/inkfable/storyloom/internal/generation"
	"github.com/inkfable/storyloom/internal/types"
)

// RunEnding generates candidate endings. The only precondition is a
// selected story type: endings may be requested speculatively before the
// arc is exhausted. Once the arc really is exhausted, a successful ending
// run moves the session into the ending phase.
func (s *Service) RunEnding(ctx context.Context, sessionID string, count int) ([]types.Ending, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	template, err := s.loadTemplate(session)
	if err != nil {
		return nil, err
	}

	transcript, err := s.recentTranscript(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	result, err := s.gen.StoryEnding(ctx, generation.EndingRequest{
		SessionID:   session.ID,
		StoryTitle:  template.Title,
		StepIndex:   template.Clamp(session.ArcStepIndex),
		StepCount:   len(template.Steps),
		EndingCount: count,
		Transcript:  transcript,
	})
	if err != nil {
		return nil, err
	}

	state := StateOf(session)
	if session.ArcStepIndex >= template.LastIndex() {
		if next, err := state.ReachEnding(); err == nil {
			if err := s.sessions.UpdatePhase(ctx, session.ID, next.Phase); err != nil {
				return nil, fmt.Errorf("failed to update phase: %w", err)
			}
		}
	}
	return result.Endings, nil
}

// FinalizeSession records the chosen ending and completes the session.
// This explicit action is the only way a session terminates.
func (s *Service) FinalizeSession(ctx context.Context, sessionID, endingText string) error {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	next, err := StateOf(session).Complete()
	if err != nil {
		return err
	}

	if err := s.messages.Append(ctx, &types.Message{
		SessionID: session.ID,
		Sender:    types.SenderAssistant,
		Kind:      types.KindPlain,
		Content:   endingText,
	}); err != nil {
		return fmt.Errorf("failed to append ending: %w", err)
	}
	if err := s.sessions.SetChosenEnding(ctx, session.ID, endingText, next.Phase); err != nil {
		return fmt.Errorf("failed to record chosen ending: %w", err)
	}
	return nil
}
