// Package background runs fire-and-forget work decoupled from story
// progression. Failures here are logged and swallowed; they never surface
// to, block, or retry the progression path.
package background

import (
	"context"
	"log/slog"
	"time"
)

// AvatarRenderer produces a portrait for a character and returns its URL.
type AvatarRenderer interface {
	Avatar(ctx context.Context, name, kind string) (string, error)
}

// CharacterStore persists the generated avatar location.
type CharacterStore interface {
	SetAvatarURL(ctx context.Context, id, url string) error
}

type avatarJob struct {
	characterID string
	name        string
	kind        string
}

// AvatarWorker generates an avatar for each newly introduced character.
// Events are one-way: the engine emits and never consumes a result.
type AvatarWorker struct {
	renderer   AvatarRenderer
	characters CharacterStore
	jobs       chan avatarJob
	timeout    time.Duration
}

// NewAvatarWorker creates a worker with a bounded queue.
func NewAvatarWorker(renderer AvatarRenderer, characters CharacterStore, queueSize int, timeout time.Duration) *AvatarWorker {
	if queueSize <= 0 {
		queueSize = 16
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AvatarWorker{
		renderer:   renderer,
		characters: characters,
		jobs:       make(chan avatarJob, queueSize),
		timeout:    timeout,
	}
}

// Start consumes the queue until ctx is done.
func (w *AvatarWorker) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-w.jobs:
				w.process(ctx, job)
			}
		}
	}()
}

// CharacterIntroduced enqueues avatar generation. A full queue drops the
// event rather than blocking the caller.
func (w *AvatarWorker) CharacterIntroduced(characterID, name, kind string) {
	select {
	case w.jobs <- avatarJob{characterID: characterID, name: name, kind: kind}:
	default:
		slog.Warn("avatar queue full, dropping event", "character_id", characterID)
	}
}

func (w *AvatarWorker) process(ctx context.Context, job avatarJob) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	url, err := w.renderer.Avatar(ctx, job.name, job.kind)
	if err != nil {
		slog.Warn("avatar generation failed", "character_id", job.characterID, "error", err.Error())
		return
	}
	if err := w.characters.SetAvatarURL(ctx, job.characterID, url); err != nil {
		slog.Warn("failed to store avatar", "character_id", job.characterID, "error", err.Error())
	}
}
