// Package generation calls the hosted model for warm-up replies, story
// beats, trait questions, and endings. Every call is single-shot
// request/response; there is no cancellation of a call already sent.
package generation

import (
	"context"
	"errors"

	"github.com/inkfable/storyloom/internal/types"
)

// ErrGenerationFailed wraps every failure of a generation call. Callers
// treat it as a retryable, session-scoped condition, never as fatal.
var ErrGenerationFailed = errors.New("generation failed")

// WarmupRequest asks for a chatty pre-story reply.
type WarmupRequest struct {
	SessionID  string
	Transcript []types.Message
}

// BeatRequest asks for the narration of one arc step plus player options.
type BeatRequest struct {
	SessionID    string
	StoryTitle   string
	StepLabel    string
	StepGuidance string
	StepIndex    int
	StepCount    int
	LastStep     bool
	Transcript   []types.Message
}

// BeatResult is one narrated beat.
type BeatResult struct {
	Continuation string
	Options      []types.Choice
}

// TraitsQuestionRequest asks for a question about a new character.
type TraitsQuestionRequest struct {
	SessionID      string
	CharacterID    string
	CharacterLabel string
	CharacterKind  string
	Transcript     []types.Message
}

// TraitsQuestionResult is the question plus model-suggested traits.
type TraitsQuestionResult struct {
	Question        string
	SuggestedTraits []string
}

// EndingRequest asks for candidate endings.
type EndingRequest struct {
	SessionID   string
	StoryTitle  string
	StepIndex   int
	StepCount   int
	EndingCount int
	Transcript  []types.Message
}

// EndingResult carries one or more candidate endings.
type EndingResult struct {
	Endings []types.Ending
}

// Client is the generation-service boundary consumed by the engine.
type Client interface {
	WarmupReply(ctx context.Context, req WarmupRequest) (string, error)
	StoryBeat(ctx context.Context, req BeatRequest) (BeatResult, error)
	CharacterTraitsQuestion(ctx context.Context, req TraitsQuestionRequest) (TraitsQuestionResult, error)
	StoryEnding(ctx context.Context, req EndingRequest) (EndingResult, error)
}
