package confirm

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestContextual(t *testing.T) {
	var c Contextual
	if c.Confirm(context.Background(), DeleteExam) {
		t.Error("expected decline without an answer in context")
	}
	ctx := ContextWithAnswer(context.Background(), true)
	if !c.Confirm(ctx, DeleteExam) {
		t.Error("expected accept with yes in context")
	}
	ctx = ContextWithAnswer(context.Background(), false)
	if c.Confirm(ctx, DeleteExam) {
		t.Error("expected decline with no in context")
	}
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"ya\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			term := Terminal{
				In:  strings.NewReader(tt.input),
				Out: &out,
				Translate: func(_ context.Context, p Prompt) string {
					return "really " + string(p) + "?"
				},
			}
			if got := term.Confirm(context.Background(), Restore); got != tt.want {
				t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !strings.Contains(out.String(), "really ConfirmRestore?") {
				t.Errorf("prompt not shown, got %q", out.String())
			}
		})
	}
}

func TestAlways(t *testing.T) {
	if !Always(true).Confirm(context.Background(), ResetSettings) {
		t.Error("Always(true) declined")
	}
	if Always(false).Confirm(context.Background(), ResetSettings) {
		t.Error("Always(false) accepted")
	}
}
