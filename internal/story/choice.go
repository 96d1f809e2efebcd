package story

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkfable/storyloom/internal/types"
)

// AcceptResult reports what accepting a choice did to the session.
type AcceptResult struct {
	// GateOpened is true when the choice introduced a character and the
	// traits question was asked; no arc-step advancement happened.
	GateOpened  bool                 `json:"gate_opened"`
	CharacterID string               `json:"character_id,omitempty"`
	Question    *types.Message       `json:"question,omitempty"`
	Beat        *BeatView            `json:"beat,omitempty"`
	Pending     *types.PendingTraits `json:"pending,omitempty"`
}

// AcceptChoice processes a player selection on the live beat_options
// message. A selection on a superseded message is rejected with no state
// change.
func (s *Service) AcceptChoice(ctx context.Context, sessionID, optionsMessageID, choiceID string) (*AcceptResult, error) {
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
		return nil, fmt.Errorf("%w: cannot accept a choice in %s", ErrWrongPhase, session.Phase)
	}
	template, err := s.loadTemplate(session)
	if err != nil {
		return nil, err
	}

	live, err := s.messages.Latest(ctx, sessionID, types.KindBeatOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to read live options: %w", err)
	}
	if live == nil || live.ID != optionsMessageID {
		return nil, ErrStaleOptions
	}
	choice, ok := findChoice(live.Options, choiceID)
	if !ok {
		return nil, ErrUnknownChoice
	}

	if err := s.messages.Append(ctx, &types.Message{
		SessionID: session.ID,
		Sender:    types.SenderChild,
		Kind:      types.KindChildChoice,
		Content:   choice.Text,
		ChoiceID:  choice.ID,
	}); err != nil {
		return nil, fmt.Errorf("failed to append choice message: %w", err)
	}

	if choice.IntroducesCharacter {
		character, err := s.introduceCharacter(ctx, session, live.ID, choice)
		if err != nil {
			return nil, err
		}
		if question, pending := s.askTraitsQuestion(ctx, session, character); question != nil {
			return &AcceptResult{
				GateOpened:  true,
				CharacterID: character.ID,
				Question:    question,
				Pending:     pending,
			}, nil
		}
		// Fail-open: the traits digression must never strand the story.
		// Fall through to normal advancement.
	}

	beat, err := s.advanceAndNarrate(ctx, session, template)
	if err != nil {
		return nil, err
	}
	return &AcceptResult{Beat: beat}, nil
}

// introduceCharacter creates the Character record for an introducing choice,
// links it into the session, and fires the one-way avatar trigger.
func (s *Service) introduceCharacter(ctx context.Context, session *types.Session, messageID string, choice types.Choice) (*types.Character, error) {
	character := &types.Character{
		OwnerChildID:            session.ChildID,
		SessionID:               session.ID,
		Name:                    choice.NewCharacterLabel,
		Role:                    choice.NewCharacterKind,
		IntroducedFromOptionID:  choice.ID,
		IntroducedFromMessageID: messageID,
	}
	if err := s.characters.Create(ctx, character); err != nil {
		return nil, fmt.Errorf("failed to create character: %w", err)
	}
	if err := s.sessions.AddSupportingCharacter(ctx, session.ID, character.ID); err != nil {
		return nil, fmt.Errorf("failed to link character: %w", err)
	}
	session.SupportingCharacterIDs = append(session.SupportingCharacterIDs, character.ID)

	if s.avatars != nil {
		s.avatars.CharacterIntroduced(character.ID, character.Name, character.Role)
	}
	return character, nil
}

func findChoice(options []types.Choice, choiceID string) (types.Choice, bool) {
	for _, o := range options {
		if o.ID == choiceID {
			return o, true
		}
	}
	return types.Choice{}, false
}

// logDigressionFailure records a fail-open event on the traits side path.
func logDigressionFailure(sessionID, stage string, err error) {
	slog.Warn("traits digression failed, continuing story",
		"session_id", sessionID, "stage", stage, "error", err.Error())
}
