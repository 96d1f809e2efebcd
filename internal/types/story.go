// Package types defines the domain records shared across the engine.
package types

import "time"

// Phase is the lifecycle stage of a story session.
type Phase string

const (
	PhaseWarmup       Phase = "warmup"
	PhaseTypeSelected Phase = "type_selected"
	PhaseArcStepping  Phase = "arc_stepping"
	PhaseEnding       Phase = "ending"
	PhaseCompleted    Phase = "completed"
)

// Sender identifies who produced a message.
type Sender string

const (
	SenderChild     Sender = "child"
	SenderAssistant Sender = "assistant"
)

// MessageKind classifies a transcript message.
type MessageKind string

const (
	KindPlain            MessageKind = "plain"
	KindBeatContinuation MessageKind = "beat_continuation"
	KindBeatOptions      MessageKind = "beat_options"
	KindChildChoice      MessageKind = "child_choice"
	KindTraitsQuestion   MessageKind = "character_traits_question"
	KindTraitsAnswer     MessageKind = "character_traits_answer"
)

// PendingTraits is the open traits gate on a session. While present, no
// beat may run for the session.
type PendingTraits struct {
	CharacterID    string    `json:"character_id"`
	CharacterLabel string    `json:"character_label"`
	QuestionText   string    `json:"question_text"`
	AskedAt        time.Time `json:"asked_at"`
}

// Session is one story attempt.
type Session struct {
	ID                     string         `json:"id"`
	ChildID                string         `json:"child_id"`
	Phase                  Phase          `json:"phase"`
	StoryTypeID            string         `json:"story_type_id"`
	StoryPhaseID           string         `json:"story_phase_id"`
	ArcStepIndex           int            `json:"arc_step_index"`
	PendingTraits          *PendingTraits `json:"pending_traits,omitempty"`
	SupportingCharacterIDs []string       `json:"supporting_character_ids,omitempty"`
	ChosenEnding           string         `json:"chosen_ending,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// Choice is one option the player may pick from a beat_options message.
type Choice struct {
	ID                  string `json:"id"`
	Text                string `json:"text"`
	IntroducesCharacter bool   `json:"introduces_character,omitempty"`
	NewCharacterLabel   string `json:"new_character_label,omitempty"`
	NewCharacterKind    string `json:"new_character_kind,omitempty"`
}

// Message is one entry of the append-only session transcript. Messages are
// immutable once written, except for the options field of the live
// beat_options message.
type Message struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	Sender    Sender      `json:"sender"`
	Kind      MessageKind `json:"kind"`
	Content   string      `json:"content"`
	// ChoiceID records the selected option on child_choice messages.
	ChoiceID  string    `json:"choice_id,omitempty"`
	Options   []Choice  `json:"options,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Character is a supporting character introduced mid-story by a choice.
type Character struct {
	ID                      string    `json:"id"`
	OwnerChildID            string    `json:"owner_child_id"`
	SessionID               string    `json:"session_id"`
	Name                    string    `json:"name"`
	Role                    string    `json:"role"`
	Traits                  []string  `json:"traits,omitempty"`
	IntroducedFromOptionID  string    `json:"introduced_from_option_id"`
	IntroducedFromMessageID string    `json:"introduced_from_message_id"`
	AvatarURL               string    `json:"avatar_url,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// Ending is one candidate ending for a finished arc.
type Ending struct {
	Text string `json:"text"`
}
