package story

import (
	"context"
	"fmt"

	"github.com/inkfable/storyloom/internal/generation"
	"github.com/inkfable/storyloom/internal/types"
)

// RegenerateOptions re-requests alternatives for the current arc step and
// replaces the options of the live beat_options message in place. The arc
// pointer never moves and no new message is created. If the message stops
// being live before the result lands, the result is discarded.
func (s *Service) RegenerateOptions(ctx context.Context, sessionID string) (*types.Message, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state := StateOf(session)
	if state.GateOpen {
		return nil, ErrTraitsGateOpen
	}
	if state.Phase != types.PhaseArcStepping {
		return nil, fmt.Errorf("%w: cannot regenerate options in %s", ErrWrongPhase, session.Phase)
	}
	template, err := s.loadTemplate(session)
	if err != nil {
		return nil, err
	}

	live, err := s.messages.Latest(ctx, sessionID, types.KindBeatOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to read live options: %w", err)
	}
	if live == nil {
		return nil, ErrStaleOptions
	}

	transcript, err := s.recentTranscript(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	index := template.Clamp(session.ArcStepIndex)
	step := template.StepAt(index)
	result, err := s.gen.StoryBeat(ctx, generation.BeatRequest{
		SessionID:    session.ID,
		StoryTitle:   template.Title,
		StepLabel:    step.Label,
		StepGuidance: step.Guidance,
		StepIndex:    index,
		StepCount:    len(template.Steps),
		LastStep:     index == template.LastIndex(),
		Transcript:   transcript,
	})
	if err != nil {
		return nil, err
	}

	// Identity recheck before the in-place write: a choice accepted since
	// the read supersedes this message and the regeneration is discarded.
	current, err := s.messages.Latest(ctx, sessionID, types.KindBeatOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to recheck live options: %w", err)
	}
	if current == nil || current.ID != live.ID {
		return nil, ErrStaleOptions
	}

	if err := s.messages.UpdateOptions(ctx, live.ID, result.Options); err != nil {
		return nil, fmt.Errorf("failed to replace options: %w", err)
	}
	live.Options = result.Options
	return live, nil
}
