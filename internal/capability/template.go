package capability

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

var _ TemplateRenderer = (*TextRenderer)(nil)

// TextRenderer renders templates with Go's text/template syntax. Variables
// are exposed as the template's dot.
type TextRenderer struct{}

// NewTextRenderer returns a stateless renderer.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// Render parses and executes the template. Unknown variables fail rather
// than rendering "<no value>", so the per-key error contract reaches the
// device instead of garbage output.
func (r *TextRenderer) Render(ctx context.Context, tmpl string, variables map[string]any) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	parsed, err := template.New("webhook").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	if variables == nil {
		variables = map[string]any{}
	}
	var out strings.Builder
	if err := parsed.Execute(&out, variables); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out.String(), nil
}
