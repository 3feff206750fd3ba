// Package confirm models the yes/no confirmation that destructive actions
// must obtain before they proceed.
package confirm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompt identifies a confirmation question. Its value is the message ID
// used to localize it.
type Prompt string

const (
	DeleteExam    Prompt = "ConfirmDeleteExam"
	DeleteSection Prompt = "ConfirmDeleteSection"
	DeleteBank    Prompt = "ConfirmDeleteBankQuestion"
	Restore       Prompt = "ConfirmRestore"
	RecoverDraft  Prompt = "ConfirmRecoverDraft"
	DiscardDraft  Prompt = "ConfirmDiscardDraft"
	ResetSettings Prompt = "ConfirmResetSettings"
)

// Confirmer answers a confirmation prompt.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) bool
}

// Func adapts a function to Confirmer.
type Func func(ctx context.Context, p Prompt) bool

func (f Func) Confirm(ctx context.Context, p Prompt) bool { return f(ctx, p) }

// Always answers every prompt with the same value.
type Always bool

func (a Always) Confirm(context.Context, Prompt) bool { return bool(a) }

type answerCtxKey struct{}

// ContextWithAnswer stores a pre-given answer, e.g. a form field sent with a
// request, in ctx.
func ContextWithAnswer(ctx context.Context, yes bool) context.Context {
	return context.WithValue(ctx, answerCtxKey{}, yes)
}

// Contextual answers with the value stored by ContextWithAnswer and declines
// when there is none.
type Contextual struct{}

func (Contextual) Confirm(ctx context.Context, _ Prompt) bool {
	yes, _ := ctx.Value(answerCtxKey{}).(bool)
	return yes
}

// Terminal asks on an interactive terminal. Translate turns the prompt into
// the text shown to the user.
type Terminal struct {
	In        io.Reader
	Out       io.Writer
	Translate func(ctx context.Context, p Prompt) string
}

func (t Terminal) Confirm(ctx context.Context, p Prompt) bool {
	text := string(p)
	if t.Translate != nil {
		text = t.Translate(ctx, p)
	}
	fmt.Fprintf(t.Out, "%s [y/N] ", text)
	line, err := bufio.NewReader(t.In).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "ya":
		return true
	}
	return false
}
