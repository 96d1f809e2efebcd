package story

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkfable/storyloom/internal/generation"
	"github.com/inkfable/storyloom/internal/types"
)

// askTraitsQuestion generates and records the question about a newly
// introduced character, seeds the character's traits with the suggested
// list, and opens the traits gate. It is fail-open end to end: on any
// failure it returns nil and the caller proceeds with normal advancement.
// A generation failure performs no writes at all.
func (s *Service) askTraitsQuestion(ctx context.Context, session *types.Session, character *types.Character) (*types.Message, *types.PendingTraits) {
	transcript, err := s.recentTranscript(ctx, session.ID)
	if err != nil {
		logDigressionFailure(session.ID, "transcript", err)
		return nil, nil
	}

	result, err := s.gen.CharacterTraitsQuestion(ctx, generation.TraitsQuestionRequest{
		SessionID:      session.ID,
		CharacterID:    character.ID,
		CharacterLabel: character.Name,
		CharacterKind:  character.Role,
		Transcript:     transcript,
	})
	if err != nil {
		logDigressionFailure(session.ID, "generation", err)
		return nil, nil
	}

	question := &types.Message{
		SessionID: session.ID,
		Sender:    types.SenderAssistant,
		Kind:      types.KindTraitsQuestion,
		Content:   result.Question,
	}
	if err := s.messages.Append(ctx, question); err != nil {
		logDigressionFailure(session.ID, "question_append", err)
		return nil, nil
	}

	if len(result.SuggestedTraits) > 0 {
		if err := s.characters.AppendTraits(ctx, character.ID, result.SuggestedTraits); err != nil {
			// The question is already in the transcript; keep going so the
			// gate still opens and the answer can land.
			logDigressionFailure(session.ID, "trait_seed", err)
		}
	}

	pending := &types.PendingTraits{
		CharacterID:    character.ID,
		CharacterLabel: character.Name,
		QuestionText:   result.Question,
		AskedAt:        time.Now().UTC(),
	}
	if _, err := StateOf(session).OpenGate(); err != nil {
		logDigressionFailure(session.ID, "gate", err)
		return nil, nil
	}
	if err := s.sessions.SetPendingTraits(ctx, session.ID, pending); err != nil {
		logDigressionFailure(session.ID, "gate", err)
		return nil, nil
	}
	session.PendingTraits = pending
	return question, pending
}

// AnswerTraitsQuestion closes the open traits gate: it records the child's
// answer, appends it to the character's traits, clears the gate, and then
// advances the arc exactly like a non-introducing choice. Any answer
// content clears the gate.
func (s *Service) AnswerTraitsQuestion(ctx context.Context, sessionID, answerText string) (*AcceptResult, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state := StateOf(session)
	next, err := state.CloseGate()
	if err != nil {
		return nil, err
	}
	template, err := s.loadTemplate(session)
	if err != nil {
		return nil, err
	}
	pending := session.PendingTraits

	if err := s.messages.Append(ctx, &types.Message{
		SessionID: session.ID,
		Sender:    types.SenderChild,
		Kind:      types.KindTraitsAnswer,
		Content:   answerText,
	}); err != nil {
		return nil, fmt.Errorf("failed to append traits answer: %w", err)
	}

	// Traits are appended, never replaced. A store failure here is logged
	// and skipped: clearing the gate matters more than the trait record.
	if err := s.characters.AppendTraits(ctx, pending.CharacterID, []string{answerText}); err != nil {
		slog.Warn("failed to append answered trait",
			"session_id", session.ID, "character_id", pending.CharacterID, "error", err.Error())
	}

	if err := s.sessions.SetPendingTraits(ctx, session.ID, nil); err != nil {
		return nil, fmt.Errorf("failed to clear traits gate: %w", err)
	}
	session.PendingTraits = nil
	session.Phase = next.Phase

	beat, err := s.advanceAndNarrate(ctx, session, template)
	if err != nil {
		return nil, err
	}
	return &AcceptResult{Beat: beat}, nil
}
