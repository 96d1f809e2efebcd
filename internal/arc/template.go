// Package arc holds the fixed-length beat plans that drive a story type.
package arc

import "fmt"

// Step is one position in a story type's narrative plan.
type Step struct {
	Label    string
	Guidance string
}

// Template is the ordered beat plan for one story type.
type Template struct {
	StoryTypeID string
	Title       string
	Steps       []Step
}

// LastIndex returns the index of the final step.
func (t Template) LastIndex() int {
	return len(t.Steps) - 1
}

// Clamp bounds an arc-step index to [0, LastIndex].
func (t Template) Clamp(index int) int {
	switch {
	case index < 0:
		return 0
	case index > t.LastIndex():
		return t.LastIndex()
	default:
		return index
	}
}

// Step returns the step at the given index, clamped to the template bounds.
func (t Template) StepAt(index int) Step {
	return t.Steps[t.Clamp(index)]
}

// Registry resolves story type ids to templates.
type Registry struct {
	templates map[string]Template
}

// NewRegistry builds a registry from the given templates.
func NewRegistry(templates ...Template) *Registry {
	m := make(map[string]Template, len(templates))
	for _, t := range templates {
		m[t.StoryTypeID] = t
	}
	return &Registry{templates: m}
}

// Lookup returns the template for a story type id.
func (r *Registry) Lookup(storyTypeID string) (Template, error) {
	t, ok := r.templates[storyTypeID]
	if !ok {
		return Template{}, fmt.Errorf("unknown story type: %s", storyTypeID)
	}
	if len(t.Steps) == 0 {
		return Template{}, fmt.Errorf("story type %s has no steps", storyTypeID)
	}
	return t, nil
}
