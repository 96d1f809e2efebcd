package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/inkfable/storyloom/internal/types"
)

// extractJSON slices the first top-level JSON object out of raw model text,
// tolerating prose or code fences around it.
func extractJSON(raw string) string {
	clean := strings.TrimSpace(raw)
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		return clean[start : end+1]
	}
	return clean
}

func parseWarmupOutput(raw string) (string, error) {
	var out warmupOutput
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		return "", fmt.Errorf("failed to parse warmup output: %w", err)
	}
	reply := strings.TrimSpace(out.Reply)
	if reply == "" {
		return "", fmt.Errorf("missing reply")
	}
	return reply, nil
}

func parseBeatOutput(raw string) (BeatResult, error) {
	var out beatOutput
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		return BeatResult{}, fmt.Errorf("failed to parse beat output: %w", err)
	}

	continuation := strings.TrimSpace(out.StoryContinuation)
	if continuation == "" {
		return BeatResult{}, fmt.Errorf("missing story continuation")
	}
	if len(out.Options) < 2 {
		return BeatResult{}, fmt.Errorf("expected at least 2 options, got %d", len(out.Options))
	}

	options := make([]types.Choice, 0, len(out.Options))
	for i, o := range out.Options {
		text := strings.TrimSpace(o.Text)
		if text == "" {
			return BeatResult{}, fmt.Errorf("option %d has empty text", i)
		}
		label := strings.TrimSpace(o.NewCharacterLabel)
		if o.IntroducesCharacter && label == "" {
			return BeatResult{}, fmt.Errorf("option %d introduces a character without a label", i)
		}
		options = append(options, types.Choice{
			ID:                  uuid.NewString(),
			Text:                text,
			IntroducesCharacter: o.IntroducesCharacter,
			NewCharacterLabel:   label,
			NewCharacterKind:    strings.TrimSpace(o.NewCharacterKind),
		})
	}
	return BeatResult{Continuation: continuation, Options: options}, nil
}

func parseTraitsQuestionOutput(raw string) (TraitsQuestionResult, error) {
	var out traitsQuestionOutput
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		return TraitsQuestionResult{}, fmt.Errorf("failed to parse traits question output: %w", err)
	}
	question := strings.TrimSpace(out.Question)
	if question == "" {
		return TraitsQuestionResult{}, fmt.Errorf("missing question")
	}
	traits := make([]string, 0, len(out.SuggestedTraits))
	for _, t := range out.SuggestedTraits {
		if t = strings.TrimSpace(t); t != "" {
			traits = append(traits, t)
		}
	}
	return TraitsQuestionResult{Question: question, SuggestedTraits: traits}, nil
}

func parseEndingOutput(raw string) (EndingResult, error) {
	var out endingOutput
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		return EndingResult{}, fmt.Errorf("failed to parse ending output: %w", err)
	}
	endings := make([]types.Ending, 0, len(out.Endings))
	for _, e := range out.Endings {
		if text := strings.TrimSpace(e.Text); text != "" {
			endings = append(endings, types.Ending{Text: text})
		}
	}
	if len(endings) == 0 {
		return EndingResult{}, fmt.Errorf("no endings in output")
	}
	return EndingResult{Endings: endings}, nil
}
