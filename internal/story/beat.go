package story

import (
	"context"
	"fmt"

	"github.com/inkfable/storyloom/internal/arc"
	"github.com/inkfable/storyloom/internal/generation"
	"github.com/inkfable/storyloom/internal/types"
)

// BeatView is the outcome of one narrated beat.
type BeatView struct {
	ArcStepIndex int            `json:"arc_step_index"`
	Continuation *types.Message `json:"continuation"`
	Options      *types.Message `json:"options"`
}

// RunBeat narrates the session's current arc step without moving the
// pointer. It is also the retry path after a narration failure: the pointer
// may already sit one step ahead of what has been narrated.
func (s *Service) RunBeat(ctx context.Context, sessionID string) (*BeatView, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.narrateCurrent(ctx, session)
}

// narrateCurrent runs the beat for the session's current pointer: one
// generation call, then a beat_continuation append followed by a
// beat_options append. On generation failure nothing is written and the
// session is exactly as before the call.
func (s *Service) narrateCurrent(ctx context.Context, session *types.Session) (*BeatView, error) {
	state := StateOf(session)
	if err := state.canNarrate(); err != nil {
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

	// Two writes, continuation first. Readers tolerate the brief window
	// where the continuation exists without its options.
	continuation := &types.Message{
		SessionID: session.ID,
		Sender:    types.SenderAssistant,
		Kind:      types.KindBeatContinuation,
		Content:   result.Continuation,
	}
	if err := s.messages.Append(ctx, continuation); err != nil {
		return nil, fmt.Errorf("failed to append beat continuation: %w", err)
	}
	options := &types.Message{
		SessionID: session.ID,
		Sender:    types.SenderAssistant,
		Kind:      types.KindBeatOptions,
		Options:   result.Options,
	}
	if err := s.messages.Append(ctx, options); err != nil {
		return nil, fmt.Errorf("failed to append beat options: %w", err)
	}

	// First narration moves the session into the arc.
	if next, err := state.BeginStepping(); err == nil {
		if err := s.sessions.UpdatePhase(ctx, session.ID, next.Phase); err != nil {
			return nil, fmt.Errorf("failed to update phase: %w", err)
		}
		session.Phase = next.Phase
	}

	return &BeatView{
		ArcStepIndex: index,
		Continuation: continuation,
		Options:      options,
	}, nil
}

// advanceAndNarrate moves the pointer by exactly one clamped step, persists
// it, then narrates at the new pointer. The two concerns stay separate so a
// narration failure still leaves the accepted advancement durable.
func (s *Service) advanceAndNarrate(ctx context.Context, session *types.Session, template arc.Template) (*BeatView, error) {
	next := template.Clamp(session.ArcStepIndex + 1)
	if err := s.sessions.UpdateArcStep(ctx, session.ID, next); err != nil {
		return nil, fmt.Errorf("failed to advance arc step: %w", err)
	}
	session.ArcStepIndex = next
	return s.narrateCurrent(ctx, session)
}
