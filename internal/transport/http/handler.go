// Package http exposes the story progression engine over HTTP.
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/inkfable/storyloom/internal/generation"
	"github.com/inkfable/storyloom/internal/repository"
	"github.com/inkfable/storyloom/internal/story"
	"github.com/inkfable/storyloom/internal/types"
)

// Engine is the progression surface the handlers call.
type Engine interface {
	CreateSession(ctx context.Context, childID string) (*types.Session, error)
	GetSession(ctx context.Context, id string) (*types.Session, error)
	Transcript(ctx context.Context, sessionID string, limit int) ([]types.Message, error)
	WarmupReply(ctx context.Context, sessionID, text string) (*types.Message, error)
	SelectStoryType(ctx context.Context, sessionID, storyTypeID, storyPhaseID string) (*story.BeatView, error)
	RunBeat(ctx context.Context, sessionID string) (*story.BeatView, error)
	AcceptChoice(ctx context.Context, sessionID, optionsMessageID, choiceID string) (*story.AcceptResult, error)
	AnswerTraitsQuestion(ctx context.Context, sessionID, answerText string) (*story.AcceptResult, error)
	RegenerateOptions(ctx context.Context, sessionID string) (*types.Message, error)
	RunEnding(ctx context.Context, sessionID string, count int) ([]types.Ending, error)
	FinalizeSession(ctx context.Context, sessionID, endingText string) error
}

// fallbackMessage is shown to the player when generation fails; the session
// stays advanceable on retry.
const fallbackMessage = "The storyteller lost the thread for a moment. Try again!"

// Handler handles HTTP requests.
type Handler struct {
	engine Engine
}

// NewHandler creates a new handler.
func NewHandler(engine Engine) *Handler {
	return &Handler{engine: engine}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/sessions", h.CreateSession)
	e.GET("/v1/sessions/:session_id", h.GetSession)
	e.GET("/v1/sessions/:session_id/messages", h.GetMessages)
	e.POST("/v1/sessions/:session_id/messages", h.PostWarmupMessage)
	e.POST("/v1/sessions/:session_id/story-type", h.SelectStoryType)
	e.POST("/v1/sessions/:session_id/beat", h.RunBeat)
	e.POST("/v1/sessions/:session_id/choices", h.AcceptChoice)
	e.POST("/v1/sessions/:session_id/traits-answer", h.AnswerTraits)
	e.POST("/v1/sessions/:session_id/options/regenerate", h.RegenerateOptions)
	e.POST("/v1/sessions/:session_id/endings", h.RunEnding)
	e.POST("/v1/sessions/:session_id/finalize", h.Finalize)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// CreateSession starts a new story attempt.
// POST /v1/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	var req struct {
		ChildID string `json:"child_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if req.ChildID == "" {
		return c.JSON(http.StatusBadRequest, errorBody("child_id is required"))
	}

	session, err := h.engine.CreateSession(c.Request().Context(), req.ChildID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, session)
}

// GetSession point-reads a session.
// GET /v1/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	session, err := h.engine.GetSession(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// GetMessages returns the transcript in ascending order.
// GET /v1/sessions/:session_id/messages
func (h *Handler) GetMessages(c echo.Context) error {
	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	messages, err := h.engine.Transcript(c.Request().Context(), c.Param("session_id"), limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"messages": messages,
	})
}

// PostWarmupMessage records a child message and returns the narrator reply.
// POST /v1/sessions/:session_id/messages
func (h *Handler) PostWarmupMessage(c echo.Context) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return c.JSON(http.StatusBadRequest, errorBody("text is required"))
	}

	reply, err := h.engine.WarmupReply(c.Request().Context(), c.Param("session_id"), req.Text)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, reply)
}

// SelectStoryType records the template choice and narrates the first beat.
// POST /v1/sessions/:session_id/story-type
func (h *Handler) SelectStoryType(c echo.Context) error {
	var req struct {
		StoryTypeID  string `json:"story_type_id"`
		StoryPhaseID string `json:"story_phase_id"`
	}
	if err := c.Bind(&req); err != nil || req.StoryTypeID == "" || req.StoryPhaseID == "" {
		return c.JSON(http.StatusBadRequest, errorBody("story_type_id and story_phase_id are required"))
	}

	beat, err := h.engine.SelectStoryType(c.Request().Context(), c.Param("session_id"), req.StoryTypeID, req.StoryPhaseID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, beat)
}

// RunBeat narrates the current arc step without advancing it.
// POST /v1/sessions/:session_id/beat
func (h *Handler) RunBeat(c echo.Context) error {
	beat, err := h.engine.RunBeat(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, beat)
}

// AcceptChoice processes a selection on the live options message.
// POST /v1/sessions/:session_id/choices
func (h *Handler) AcceptChoice(c echo.Context) error {
	var req struct {
		MessageID string `json:"message_id"`
		ChoiceID  string `json:"choice_id"`
	}
	if err := c.Bind(&req); err != nil || req.MessageID == "" || req.ChoiceID == "" {
		return c.JSON(http.StatusBadRequest, errorBody("message_id and choice_id are required"))
	}

	result, err := h.engine.AcceptChoice(c.Request().Context(), c.Param("session_id"), req.MessageID, req.ChoiceID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// AnswerTraits closes the open traits gate.
// POST /v1/sessions/:session_id/traits-answer
func (h *Handler) AnswerTraits(c echo.Context) error {
	var req struct {
		Answer string `json:"answer"`
	}
	if err := c.Bind(&req); err != nil || req.Answer == "" {
		return c.JSON(http.StatusBadRequest, errorBody("answer is required"))
	}

	result, err := h.engine.AnswerTraitsQuestion(c.Request().Context(), c.Param("session_id"), req.Answer)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// RegenerateOptions replaces the live options in place.
// POST /v1/sessions/:session_id/options/regenerate
func (h *Handler) RegenerateOptions(c echo.Context) error {
	message, err := h.engine.RegenerateOptions(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, message)
}

// RunEnding generates candidate endings.
// POST /v1/sessions/:session_id/endings
func (h *Handler) RunEnding(c echo.Context) error {
	// Count is optional; an empty body is fine, a malformed one is not.
	var req struct {
		Count int `json:"count"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}

	endings, err := h.engine.RunEnding(c.Request().Context(), c.Param("session_id"), req.Count)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"endings": endings,
	})
}

// Finalize records the chosen ending and completes the session.
// POST /v1/sessions/:session_id/finalize
func (h *Handler) Finalize(c echo.Context) error {
	var req struct {
		Ending string `json:"ending"`
	}
	if err := c.Bind(&req); err != nil || req.Ending == "" {
		return c.JSON(http.StatusBadRequest, errorBody("ending is required"))
	}

	if err := h.engine.FinalizeSession(c.Request().Context(), c.Param("session_id"), req.Ending); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// fail maps engine errors to HTTP status codes.
func (h *Handler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, story.ErrStaleOptions),
		errors.Is(err, story.ErrUnknownChoice),
		errors.Is(err, story.ErrTraitsGateOpen),
		errors.Is(err, story.ErrNoTraitsGate),
		errors.Is(err, story.ErrWrongPhase),
		errors.Is(err, story.ErrStoryTypeNotSelected):
		return c.JSON(http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, generation.ErrGenerationFailed):
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error":    err.Error(),
			"fallback": fallbackMessage,
		})
	default:
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}
