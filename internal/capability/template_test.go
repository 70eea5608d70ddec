package capability

import (
	"context"
	"strings"
	"testing"
)

func TestTextRendererRender(t *testing.T) {
	renderer := NewTextRenderer()
	ctx := context.Background()

	tests := []struct {
		name      string
		template  string
		variables map[string]any
		want      string
		wantErr   bool
	}{
		{
			name:     "plain text",
			template: "hello",
			want:     "hello",
		},
		{
			name:      "variable substitution",
			template:  "battery at {{.level}}%",
			variables: map[string]any{"level": 87},
			want:      "battery at 87%",
		},
		{
			name:     "parse error",
			template: "{{.broken",
			wantErr:  true,
		},
		{
			name:      "missing variable",
			template:  "{{.absent}}",
			variables: map[string]any{"present": 1},
			wantErr:   true,
		},
		{
			name:     "nil variables",
			template: "static",
			want:     "static",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderer.Render(ctx, tt.template, tt.variables)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Render = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if got != tt.want {
				t.Errorf("Render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextRendererCancelledContext(t *testing.T) {
	renderer := NewTextRenderer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := renderer.Render(ctx, "x", nil); err == nil || !strings.Contains(err.Error(), "context") {
		t.Errorf("Render with cancelled ctx = %v, want context error", err)
	}
}
