package prompt

import (
	"strings"
	"testing"

	"github.com/inkfable/storyloom/internal/types"
)

func TestBeatPromptIncludesStepAndTranscript(t *testing.T) {
	b := NewBuilder(12)

	prompt, err := b.Beat(BeatContext{
		StoryTitle:   "The Lost Lantern",
		StepLabel:    "rising",
		StepGuidance: "A small obstacle appears.",
		StepIndex:    1,
		StepCount:    6,
		Transcript: []types.Message{
			{Sender: types.SenderAssistant, Kind: types.KindBeatContinuation, Content: "The forest grew dark."},
			{Sender: types.SenderChild, Kind: types.KindChildChoice, Content: "Light the lantern"},
		},
	})
	if err != nil {
		t.Fatalf("Beat failed: %v", err)
	}

	for _, want := range []string{
		"The Lost Lantern",
		"rising",
		"A small obstacle appears.",
		"2 of 6",
		"The forest grew dark.",
		"Chose: Light the lantern",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBeatPromptFinalStep(t *testing.T) {
	b := NewBuilder(12)

	prompt, err := b.Beat(BeatContext{
		StoryTitle: "The Lost Lantern",
		StepLabel:  "resolution",
		StepIndex:  5,
		StepCount:  6,
		LastStep:   true,
	})
	if err != nil {
		t.Fatalf("Beat failed: %v", err)
	}
	if !strings.Contains(prompt, "final beat") {
		t.Errorf("final beat not signalled:\n%s", prompt)
	}
}

func TestTranscriptWindowTrailing(t *testing.T) {
	b := NewBuilder(2)

	lines := b.renderTranscript([]types.Message{
		{Sender: types.SenderChild, Kind: types.KindPlain, Content: "first"},
		{Sender: types.SenderChild, Kind: types.KindPlain, Content: "second"},
		{Sender: types.SenderChild, Kind: types.KindPlain, Content: "third"},
	})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Content != "second" || lines[1].Content != "third" {
		t.Errorf("window is not trailing: %+v", lines)
	}
}

func TestRenderMessageKinds(t *testing.T) {
	line, ok := renderMessage(types.Message{
		Sender: types.SenderAssistant,
		Kind:   types.KindBeatOptions,
		Options: []types.Choice{
			{Text: "Run"},
			{Text: "Hide"},
		},
	})
	if !ok || line.Content != "Offered choices: Run / Hide" {
		t.Errorf("unexpected options line: %+v", line)
	}

	if _, ok := renderMessage(types.Message{Kind: types.KindPlain, Content: "   "}); ok {
		t.Error("blank message should be skipped")
	}

	line, ok = renderMessage(types.Message{Sender: types.SenderChild, Kind: types.KindChildChoice, Content: "Run"})
	if !ok || line.Speaker != "Child" || line.Content != "Chose: Run" {
		t.Errorf("unexpected choice line: %+v", line)
	}
}

func TestTraitsQuestionPrompt(t *testing.T) {
	b := NewBuilder(12)

	prompt, err := b.TraitsQuestion("Fox", "", nil)
	if err != nil {
		t.Fatalf("TraitsQuestion failed: %v", err)
	}
	if !strings.Contains(prompt, "Fox") {
		t.Errorf("prompt missing character label:\n%s", prompt)
	}
	if !strings.Contains(prompt, "character") {
		t.Errorf("empty kind should fall back to character:\n%s", prompt)
	}
}

func TestEndingPromptDefaultsCount(t *testing.T) {
	b := NewBuilder(12)

	prompt, err := b.Ending(EndingContext{StoryTitle: "The Lost Lantern", StepIndex: 5, StepCount: 6})
	if err != nil {
		t.Fatalf("Ending failed: %v", err)
	}
	if !strings.Contains(prompt, "Write 2 distinct") {
		t.Errorf("default ending count not applied:\n%s", prompt)
	}
}
