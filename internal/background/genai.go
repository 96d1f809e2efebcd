package background

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// aspect ratios the image API accepts.
var allowedAspectRatios = map[string]bool{
	"1:1":  true,
	"3:4":  true,
	"4:3":  true,
	"9:16": true,
	"16:9": true,
}

// resolveAspectRatio validates a configured ratio, defaulting to square.
func resolveAspectRatio(ratio string) (string, error) {
	ratio = strings.TrimSpace(ratio)
	if ratio == "" {
		return "1:1", nil
	}
	if !allowedAspectRatios[ratio] {
		return "", fmt.Errorf("unsupported aspect ratio %q", ratio)
	}
	return ratio, nil
}

// GenaiAvatarRenderer draws character portraits through the Gemini image
// API and returns them as data URLs. The renderer owns the art direction so
// every avatar in a story shares the same look.
type GenaiAvatarRenderer struct {
	client      *genai.Client
	model       string
	aspectRatio string
}

// NewGenaiAvatarRenderer creates an avatar renderer.
func NewGenaiAvatarRenderer(ctx context.Context, apiKey, model, aspectRatio string) (*GenaiAvatarRenderer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	ratio, err := resolveAspectRatio(aspectRatio)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenaiAvatarRenderer{
		client:      client,
		model:       strings.TrimSpace(model),
		aspectRatio: ratio,
	}, nil
}

// Avatar renders one character portrait and returns it as a data URL.
func (g *GenaiAvatarRenderer) Avatar(ctx context.Context, name, kind string) (string, error) {
	if g == nil || g.client == nil {
		return "", fmt.Errorf("avatar renderer not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("character name cannot be empty")
	}
	if strings.TrimSpace(kind) == "" {
		kind = "character"
	}
	prompt := fmt.Sprintf(
		"A friendly storybook illustration of %s, a %s from a children's story. Soft colors, simple shapes, warm and inviting, no text.",
		name, kind,
	)

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: g.aspectRatio,
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate avatar: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty image response")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := strings.TrimSpace(part.InlineData.MIMEType)
		if mimeType == "" {
			mimeType = "image/png"
		}
		encoded := base64.StdEncoding.EncodeToString(part.InlineData.Data)
		return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded), nil
	}
	return "", fmt.Errorf("image data missing in response")
}
