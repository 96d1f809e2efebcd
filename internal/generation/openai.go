package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/inkfable/storyloom/internal/prompt"
)

const defaultMaxTries = 3

// ModelClient is the hosted-model implementation of Client.
type ModelClient struct {
	client   *openai.Client
	model    string
	prompts  *prompt.Builder
	timeout  time.Duration
	maxTries uint
}

// NewModelClient creates a ModelClient against an OpenAI-compatible API.
func NewModelClient(apiKey, model string, timeout time.Duration, prompts *prompt.Builder) (*ModelClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}
	if prompts == nil {
		prompts = prompt.NewBuilder(0)
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &ModelClient{
		client:   &client,
		model:    model,
		prompts:  prompts,
		timeout:  timeout,
		maxTries: defaultMaxTries,
	}, nil
}

// WarmupReply produces the pre-story chat reply.
func (m *ModelClient) WarmupReply(ctx context.Context, req WarmupRequest) (string, error) {
	system, err := m.prompts.Warmup(req.Transcript)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	raw, err := m.complete(ctx, "warmup_reply", system, "Reply to the child now.", warmupSchemaJSON)
	if err != nil {
		return "", err
	}
	reply, err := parseWarmupOutput(raw)
	if err != nil {
		return "", m.invalidOutput("warmup_reply", req.SessionID, err)
	}
	return reply, nil
}

// StoryBeat narrates one arc step and proposes options.
func (m *ModelClient) StoryBeat(ctx context.Context, req BeatRequest) (BeatResult, error) {
	system, err := m.prompts.Beat(prompt.BeatContext{
		StoryTitle:   req.StoryTitle,
		StepLabel:    req.StepLabel,
		StepGuidance: req.StepGuidance,
		StepIndex:    req.StepIndex,
		StepCount:    req.StepCount,
		LastStep:     req.LastStep,
		Transcript:   req.Transcript,
	})
	if err != nil {
		return BeatResult{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	raw, err := m.complete(ctx, "story_beat", system, "Narrate the next beat now.", beatSchemaJSON)
	if err != nil {
		return BeatResult{}, err
	}
	result, err := parseBeatOutput(raw)
	if err != nil {
		return BeatResult{}, m.invalidOutput("story_beat", req.SessionID, err)
	}
	return result, nil
}

// CharacterTraitsQuestion asks about a newly introduced character.
func (m *ModelClient) CharacterTraitsQuestion(ctx context.Context, req TraitsQuestionRequest) (TraitsQuestionResult, error) {
	system, err := m.prompts.TraitsQuestion(req.CharacterLabel, req.CharacterKind, req.Transcript)
	if err != nil {
		return TraitsQuestionResult{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	raw, err := m.complete(ctx, "character_traits_question", system, "Ask the question now.", traitsQuestionSchemaJSON)
	if err != nil {
		return TraitsQuestionResult{}, err
	}
	result, err := parseTraitsQuestionOutput(raw)
	if err != nil {
		return TraitsQuestionResult{}, m.invalidOutput("character_traits_question", req.SessionID, err)
	}
	return result, nil
}

// StoryEnding produces candidate endings.
func (m *ModelClient) StoryEnding(ctx context.Context, req EndingRequest) (EndingResult, error) {
	system, err := m.prompts.Ending(prompt.EndingContext{
		StoryTitle:  req.StoryTitle,
		StepIndex:   req.StepIndex,
		StepCount:   req.StepCount,
		EndingCount: req.EndingCount,
		Transcript:  req.Transcript,
	})
	if err != nil {
		return EndingResult{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	raw, err := m.complete(ctx, "story_ending", system, "Write the endings now.", endingSchemaJSON)
	if err != nil {
		return EndingResult{}, err
	}
	result, err := parseEndingOutput(raw)
	if err != nil {
		return EndingResult{}, m.invalidOutput("story_ending", req.SessionID, err)
	}
	return result, nil
}

// complete runs one prompt against the model with bounded retries on
// transport failures. The deadline only stops waiting: a call already sent
// upstream runs to completion regardless.
func (m *ModelClient) complete(ctx context.Context, op, systemPrompt, instruction, schema string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	user := instruction + "\n\nRespond with a single JSON object matching this JSON schema, and nothing else:\n" + schema

	raw, err := backoff.Retry(ctx, func() (string, error) {
		resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: m.model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(user),
			},
			Temperature: openai.Float(0.8),
		})
		if err != nil {
			return "", err
		}
		if resp == nil || len(resp.Choices) == 0 {
			return "", backoff.Permanent(errors.New("empty completion response"))
		}
		return resp.Choices[0].Message.Content, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(m.maxTries))
	if err != nil {
		slog.Error("failed to call generation API", "op", op, "error", err.Error())
		return "", fmt.Errorf("%w: %s: %v", ErrGenerationFailed, op, err)
	}
	return raw, nil
}

// invalidOutput logs and wraps a structured-output validation failure.
// These are not retried; the caller surfaces them like any generation
// failure.
func (m *ModelClient) invalidOutput(op, sessionID string, err error) error {
	slog.Error("invalid generation output", "op", op, "session_id", sessionID, "error", err.Error())
	return fmt.Errorf("%w: %s: %v", ErrGenerationFailed, op, err)
}
