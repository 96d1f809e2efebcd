package story

import (
	"context"
	"fmt"

	"github.com/inkfable/storyloom/internal/arc"
	"github.com/inkfable/storyloom/internal/generation"
	"github.com/inkfable/storyloom/internal/types"
)

type fakeSessionRepo struct {
	sessions map[string]*types.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*types.Session)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *types.Session) error {
	if s.ID == "" {
		s.ID = fmt.Sprintf("sess-%d", len(r.sessions)+1)
	}
	stored := *s
	r.sessions[s.ID] = &stored
	return nil
}

func (r *fakeSessionRepo) Get(ctx context.Context, id string) (*types.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	copied := *s
	copied.SupportingCharacterIDs = append([]string(nil), s.SupportingCharacterIDs...)
	return &copied, nil
}

func (r *fakeSessionRepo) UpdateStorySelection(ctx context.Context, id, storyTypeID, storyPhaseID string, phase types.Phase) error {
	s := r.sessions[id]
	s.StoryTypeID = storyTypeID
	s.StoryPhaseID = storyPhaseID
	s.Phase = phase
	return nil
}

func (r *fakeSessionRepo) UpdatePhase(ctx context.Context, id string, phase types.Phase) error {
	r.sessions[id].Phase = phase
	return nil
}

func (r *fakeSessionRepo) UpdateArcStep(ctx context.Context, id string, index int) error {
	r.sessions[id].ArcStepIndex = index
	return nil
}

func (r *fakeSessionRepo) SetPendingTraits(ctx context.Context, id string, pending *types.PendingTraits) error {
	r.sessions[id].PendingTraits = pending
	return nil
}

func (r *fakeSessionRepo) AddSupportingCharacter(ctx context.Context, id, characterID string) error {
	s := r.sessions[id]
	s.SupportingCharacterIDs = append(s.SupportingCharacterIDs, characterID)
	return nil
}

func (r *fakeSessionRepo) SetChosenEnding(ctx context.Context, id, ending string, phase types.Phase) error {
	s := r.sessions[id]
	s.ChosenEnding = ending
	s.Phase = phase
	return nil
}

type fakeMessageRepo struct {
	messages []*types.Message
	next     int
}

func (r *fakeMessageRepo) Append(ctx context.Context, m *types.Message) error {
	r.next++
	m.ID = fmt.Sprintf("msg-%d", r.next)
	stored := *m
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *fakeMessageRepo) Latest(ctx context.Context, sessionID string, kind types.MessageKind) (*types.Message, error) {
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].SessionID == sessionID && r.messages[i].Kind == kind {
			copied := *r.messages[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeMessageRepo) List(ctx context.Context, sessionID string, limit int) ([]types.Message, error) {
	var result []types.Message
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			result = append(result, *m)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

func (r *fakeMessageRepo) UpdateOptions(ctx context.Context, messageID string, options []types.Choice) error {
	for _, m := range r.messages {
		if m.ID == messageID {
			m.Options = options
			return nil
		}
	}
	return fmt.Errorf("message not found: %s", messageID)
}

// kinds lists the kinds of all messages for a session, in order.
func (r *fakeMessageRepo) kinds(sessionID string) []types.MessageKind {
	var kinds []types.MessageKind
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			kinds = append(kinds, m.Kind)
		}
	}
	return kinds
}

type fakeCharacterRepo struct {
	characters map[string]*types.Character
	next       int
	createErr  error
}

func newFakeCharacterRepo() *fakeCharacterRepo {
	return &fakeCharacterRepo{characters: make(map[string]*types.Character)}
}

func (r *fakeCharacterRepo) Create(ctx context.Context, c *types.Character) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.next++
	c.ID = fmt.Sprintf("char-%d", r.next)
	stored := *c
	r.characters[c.ID] = &stored
	return nil
}

func (r *fakeCharacterRepo) Get(ctx context.Context, id string) (*types.Character, error) {
	c, ok := r.characters[id]
	if !ok {
		return nil, fmt.Errorf("character not found: %s", id)
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCharacterRepo) AppendTraits(ctx context.Context, id string, traits []string) error {
	c, ok := r.characters[id]
	if !ok {
		return fmt.Errorf("character not found: %s", id)
	}
	c.Traits = append(c.Traits, traits...)
	return nil
}

type fakeGenClient struct {
	warmup     string
	warmupErr  error
	beat       generation.BeatResult
	beatErr    error
	beatCalls  int
	traits     generation.TraitsQuestionResult
	traitsErr  error
	traitCalls int
	endings    generation.EndingResult
	endingErr  error

	// onStoryBeat runs while a StoryBeat call is in flight, before the
	// result returns. Tests use it to mutate state mid-call.
	onStoryBeat func()
}

func (g *fakeGenClient) WarmupReply(ctx context.Context, req generation.WarmupRequest) (string, error) {
	if g.warmupErr != nil {
		return "", g.warmupErr
	}
	return g.warmup, nil
}

func (g *fakeGenClient) StoryBeat(ctx context.Context, req generation.BeatRequest) (generation.BeatResult, error) {
	g.beatCalls++
	if g.onStoryBeat != nil {
		g.onStoryBeat()
	}
	if g.beatErr != nil {
		return generation.BeatResult{}, g.beatErr
	}
	return g.beat, nil
}

func (g *fakeGenClient) CharacterTraitsQuestion(ctx context.Context, req generation.TraitsQuestionRequest) (generation.TraitsQuestionResult, error) {
	g.traitCalls++
	if g.traitsErr != nil {
		return generation.TraitsQuestionResult{}, g.traitsErr
	}
	return g.traits, nil
}

func (g *fakeGenClient) StoryEnding(ctx context.Context, req generation.EndingRequest) (generation.EndingResult, error) {
	if g.endingErr != nil {
		return generation.EndingResult{}, g.endingErr
	}
	return g.endings, nil
}

type fakeAvatars struct {
	introduced []string
}

func (a *fakeAvatars) CharacterIntroduced(characterID, name, kind string) {
	a.introduced = append(a.introduced, characterID)
}

func testTemplate() arc.Template {
	steps := make([]arc.Step, 6)
	for i := range steps {
		steps[i] = arc.Step{Label: fmt.Sprintf("step-%d", i), Guidance: "keep going"}
	}
	return arc.Template{StoryTypeID: "quest", Title: "Quest", Steps: steps}
}

type testEnv struct {
	service    *Service
	sessions   *fakeSessionRepo
	messages   *fakeMessageRepo
	characters *fakeCharacterRepo
	gen        *fakeGenClient
	avatars    *fakeAvatars
}

func newTestEnv() *testEnv {
	env := &testEnv{
		sessions:   newFakeSessionRepo(),
		messages:   &fakeMessageRepo{},
		characters: newFakeCharacterRepo(),
		avatars:    &fakeAvatars{},
		gen: &fakeGenClient{
			warmup: "Hello there!",
			beat: generation.BeatResult{
				Continuation: "The path forked under the old oak.",
				Options: []types.Choice{
					{ID: "opt-a", Text: "Take the left path"},
					{ID: "opt-b", Text: "Take the right path"},
				},
			},
			traits: generation.TraitsQuestionResult{
				Question:        "What is the fox like?",
				SuggestedTraits: []string{"curious", "quick"},
			},
			endings: generation.EndingResult{
				Endings: []types.Ending{{Text: "They all made it home."}},
			},
		},
	}
	env.service = NewService(
		env.sessions, env.messages, env.characters, env.gen,
		arc.NewRegistry(testTemplate()), env.avatars, 12,
	)
	return env
}

// seedSession stores an arc_stepping session at the given index with a live
// beat_options message, and returns the session id plus the live message.
func (e *testEnv) seedSession(index int, options []types.Choice) (string, *types.Message) {
	session := &types.Session{
		ChildID:      "child-1",
		Phase:        types.PhaseArcStepping,
		StoryTypeID:  "quest",
		StoryPhaseID: "phase-1",
		ArcStepIndex: index,
	}
	_ = e.sessions.Create(context.Background(), session)

	live := &types.Message{
		SessionID: session.ID,
		Sender:    types.SenderAssistant,
		Kind:      types.KindBeatOptions,
		Options:   options,
	}
	_ = e.messages.Append(context.Background(), live)
	return session.ID, live
}

func plainChoices() []types.Choice {
	return []types.Choice{
		{ID: "c1", Text: "Climb the tree"},
		{ID: "c2", Text: "Follow the stream"},
	}
}

func introducingChoice() types.Choice {
	return types.Choice{
		ID:                  "c3",
		Text:                "Ask the fox for help",
		IntroducesCharacter: true,
		NewCharacterLabel:   "Fox",
		NewCharacterKind:    "animal",
	}
}
