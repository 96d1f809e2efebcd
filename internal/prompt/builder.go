// Package prompt assembles the prompts for each generation call.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/inkfable/storyloom/internal/types"
)

// Line is one rendered transcript line.
type Line struct {
	Speaker string
	Content string
}

// Builder assembles prompts with a bounded transcript window.
type Builder struct {
	historyLimit int
}

// NewBuilder creates a prompt Builder.
func NewBuilder(historyLimit int) *Builder {
	if historyLimit <= 0 {
		historyLimit = 12
	}
	return &Builder{historyLimit: historyLimit}
}

// BeatContext contains the inputs for a beat prompt.
type BeatContext struct {
	StoryTitle   string
	StepLabel    string
	StepGuidance string
	StepIndex    int
	StepCount    int
	LastStep     bool
	Transcript   []types.Message
}

// EndingContext contains the inputs for an ending prompt.
type EndingContext struct {
	StoryTitle  string
	StepIndex   int
	StepCount   int
	EndingCount int
	Transcript  []types.Message
}

// Warmup builds the warm-up chat prompt.
func (b *Builder) Warmup(transcript []types.Message) (string, error) {
	return b.execute(warmupTemplate, struct {
		Transcript []Line
	}{
		Transcript: b.renderTranscript(transcript),
	})
}

// Beat builds the prompt for one arc-step narration.
func (b *Builder) Beat(ctx BeatContext) (string, error) {
	return b.execute(beatTemplate, struct {
		StoryTitle   string
		StepLabel    string
		StepGuidance string
		StepNumber   int
		StepCount    int
		LastStep     bool
		Transcript   []Line
	}{
		StoryTitle:   ctx.StoryTitle,
		StepLabel:    ctx.StepLabel,
		StepGuidance: ctx.StepGuidance,
		StepNumber:   ctx.StepIndex + 1,
		StepCount:    ctx.StepCount,
		LastStep:     ctx.LastStep,
		Transcript:   b.renderTranscript(ctx.Transcript),
	})
}

// TraitsQuestion builds the prompt asking about a newly introduced character.
func (b *Builder) TraitsQuestion(characterLabel, characterKind string, transcript []types.Message) (string, error) {
	if characterKind == "" {
		characterKind = "character"
	}
	return b.execute(traitsQuestionTemplate, struct {
		CharacterLabel string
		CharacterKind  string
		Transcript     []Line
	}{
		CharacterLabel: characterLabel,
		CharacterKind:  characterKind,
		Transcript:     b.renderTranscript(transcript),
	})
}

// Ending builds the prompt for candidate endings.
func (b *Builder) Ending(ctx EndingContext) (string, error) {
	count := ctx.EndingCount
	if count <= 0 {
		count = 2
	}
	return b.execute(endingTemplate, struct {
		StoryTitle  string
		StepNumber  int
		StepCount   int
		EndingCount int
		Transcript  []Line
	}{
		StoryTitle:  ctx.StoryTitle,
		StepNumber:  ctx.StepIndex + 1,
		StepCount:   ctx.StepCount,
		EndingCount: count,
		Transcript:  b.renderTranscript(ctx.Transcript),
	})
}

func (b *Builder) execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}
	return buf.String(), nil
}

// renderTranscript converts the trailing window of the transcript into
// speaker-prefixed lines.
func (b *Builder) renderTranscript(messages []types.Message) []Line {
	if len(messages) > b.historyLimit {
		messages = messages[len(messages)-b.historyLimit:]
	}
	lines := make([]Line, 0, len(messages))
	for _, m := range messages {
		line, ok := renderMessage(m)
		if ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func renderMessage(m types.Message) (Line, bool) {
	speaker := "Narrator"
	if m.Sender == types.SenderChild {
		speaker = "Child"
	}
	switch m.Kind {
	case types.KindBeatOptions:
		texts := make([]string, 0, len(m.Options))
		for _, o := range m.Options {
			texts = append(texts, o.Text)
		}
		if len(texts) == 0 {
			return Line{}, false
		}
		return Line{Speaker: speaker, Content: "Offered choices: " + strings.Join(texts, " / ")}, true
	case types.KindChildChoice:
		return Line{Speaker: speaker, Content: "Chose: " + m.Content}, true
	default:
		if strings.TrimSpace(m.Content) == "" {
			return Line{}, false
		}
		return Line{Speaker: speaker, Content: m.Content}, true
	}
}
