package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	appI18n "github.com/pavelanni/examsheet/internal/i18n"
	"github.com/pavelanni/examsheet/internal/llm"
	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/richtext"
)

func draftKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft-key <exam-id>",
		Short: "Ask an LLM to draft missing answer keys of short answer and essay questions",
		Args:  cobra.ExactArgs(1),
		RunE:  runDraftKey,
	}
	f := cmd.Flags()
	f.String("question-id", "", "Draft only this question, replacing its key")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	commonFlags(f)
	return cmd
}

func runDraftKey(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	exams := a.exams()
	e, err := exams.Get(args[0])
	if err != nil {
		return err
	}

	client := llm.New(a.v.GetString("llm-url"), a.v.GetString("llm-key"), a.v.GetString("llm-model"))
	only := a.v.GetString("question-id")
	slog.Info("drafting answer keys", "exam_id", e.ID, "model", a.v.GetString("llm-model"), "llm_url", a.v.GetString("llm-url"))

	n := 0
	for si := range e.Sections {
		for qi := range e.Sections[si].Questions {
			q := &e.Sections[si].Questions[qi]
			if !needsKey(*q, only) {
				continue
			}
			draft, err := client.DraftAnswerKey(a.ctx, *q, e.Subject, e.Grade)
			if err != nil {
				if only != "" {
					return err
				}
				slog.Warn("answer key draft failed", "question_id", q.ID, "error", err)
				continue
			}
			q.AnswerKey = draft.AnswerKey
			if draft.Notes != "" {
				slog.Debug("answer key notes", "question_id", q.ID, "notes", draft.Notes)
			}
			n++
		}
	}

	if n > 0 {
		if err := exams.Update(e); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), appI18n.Tp(a.ctx, "KeyDrafted", n))
	return a.checkSave(exams.SaveErr())
}

// needsKey selects the question named by only, or every free text question
// whose key is still blank.
func needsKey(q model.Question, only string) bool {
	if only != "" {
		return q.ID == only
	}
	return (q.Type == model.ShortAnswer || q.Type == model.Essay) && richtext.IsBlank(q.AnswerKey)
}
