package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pavelanni/examsheet/internal/compose"
	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/repo"
	"github.com/pavelanni/examsheet/internal/richtext"
)

// editExam loads an exam, applies fn and stores the result.
func editExam(cmd *cobra.Command, id string, fn func(a *app, e *model.Exam) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	exams := a.exams()
	e, err := exams.Get(id)
	if err != nil {
		return err
	}
	if err := fn(a, &e); err != nil {
		return err
	}
	if err := exams.Update(e); err != nil {
		return err
	}
	return a.checkSave(exams.SaveErr())
}

func sectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Add, change, remove or reorder the sections of an exam",
	}

	add := &cobra.Command{
		Use:   "add <exam-id>",
		Short: "Append a section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editExam(cmd, args[0], func(a *app, e *model.Exam) error {
				s := compose.New(a.opts.NewID).AddSection(e)
				if ins := a.v.GetString("instruction"); ins != "" {
					s.Instruction = richtext.FromPlain(ins)
				}
				fmt.Fprintln(cmd.OutOrStdout(), s.ID)
				return nil
			})
		},
	}
	add.Flags().String("instruction", "", "Section instruction")
	commonFlags(add.Flags())

	remove := &cobra.Command{
		Use:   "remove <exam-id> <section-id>",
		Short: "Delete a section and its questions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			exams := a.exams()
			if err := exams.RemoveSection(a.ctx, args[0], args[1]); err != nil {
				return declinedOK(a, cmd, err)
			}
			return a.checkSave(exams.SaveErr())
		},
	}
	commonFlags(remove.Flags())

	move := &cobra.Command{
		Use:   "move <exam-id> <from> <to>",
		Short: "Move a section to another position (1-based) and retitle all sections",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := positions(args[1], args[2])
			if err != nil {
				return err
			}
			return editExam(cmd, args[0], func(_ *app, e *model.Exam) error {
				return compose.MoveSection(e, from, to)
			})
		},
	}
	commonFlags(move.Flags())

	set := &cobra.Command{
		Use:   "set <exam-id> <section-id>",
		Short: "Change the title or instruction of a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editExam(cmd, args[0], func(a *app, e *model.Exam) error {
				s := e.Section(args[1])
				if s == nil {
					return fmt.Errorf("%w: %s", repo.ErrSectionNotFound, args[1])
				}
				if cmd.Flags().Changed("title") {
					s.Title = a.v.GetString("title")
				}
				if cmd.Flags().Changed("instruction") {
					s.Instruction = richtext.FromPlain(a.v.GetString("instruction"))
				}
				return nil
			})
		},
	}
	set.Flags().String("title", "", "Section title")
	set.Flags().String("instruction", "", "Section instruction")
	commonFlags(set.Flags())

	cmd.AddCommand(add, set, remove, move)
	return cmd
}

func examCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exam",
		Short: "Change the details of an exam",
	}

	set := &cobra.Command{
		Use:   "set <exam-id>",
		Short: "Change exam details; only the given flags are applied",
		Args:  cobra.ExactArgs(1),
		RunE:  runExamSet,
	}
	f := set.Flags()
	f.String("title", "", "Exam title")
	f.String("subject", "", "Subject")
	f.String("grade", "", "Grade")
	f.Int("time", compose.DefaultTime, "Duration in minutes")
	f.String("status", "", "Status (draft, finished)")
	f.String("description", "", "Private note, never printed")
	commonFlags(f)

	cmd.AddCommand(set)
	return cmd
}

func runExamSet(cmd *cobra.Command, args []string) error {
	return editExam(cmd, args[0], func(a *app, e *model.Exam) error {
		f := cmd.Flags()
		if f.Changed("title") {
			e.Title = a.v.GetString("title")
		}
		if f.Changed("subject") {
			e.Subject = a.v.GetString("subject")
		}
		if f.Changed("grade") {
			e.Grade = a.v.GetString("grade")
		}
		if f.Changed("time") {
			t := a.v.GetInt("time")
			if t <= 0 {
				return fmt.Errorf("invalid time %d: want minutes above zero", t)
			}
			e.Time = t
		}
		if f.Changed("status") {
			st := model.ExamStatus(strings.ToLower(a.v.GetString("status")))
			if st != model.StatusDraft && st != model.StatusFinished {
				return fmt.Errorf("invalid status %q: want draft or finished", st)
			}
			e.Status = st
		}
		if f.Changed("description") {
			e.Description = a.v.GetString("description")
		}
		return nil
	})
}

func questionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Add, change, remove or reorder the questions of a section",
	}

	add := &cobra.Command{
		Use:   "add <exam-id> <section-id>",
		Short: "Append a question to a section",
		Args:  cobra.ExactArgs(2),
		RunE:  runQuestionAdd,
	}
	add.Flags().String("type", string(model.MultipleChoice), "Question type (MULTIPLE_CHOICE, MULTIPLE_CHOICE_COMPLEX, TRUE_FALSE, MATCHING, SHORT_ANSWER, ESSAY)")
	questionFlags(add.Flags())

	set := &cobra.Command{
		Use:   "set <exam-id> <section-id> <question-id>",
		Short: "Change an existing question; only the given flags are applied",
		Args:  cobra.ExactArgs(3),
		RunE:  runQuestionSet,
	}
	questionFlags(set.Flags())

	remove := &cobra.Command{
		Use:   "remove <exam-id> <section-id> <question-id>",
		Short: "Delete a question and renumber the section",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editExam(cmd, args[0], func(_ *app, e *model.Exam) error {
				return compose.RemoveQuestion(e, args[1], args[2])
			})
		},
	}
	commonFlags(remove.Flags())

	move := &cobra.Command{
		Use:   "move <exam-id> <section-id> <from> <to>",
		Short: "Move a question to another position (1-based) and renumber",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := positions(args[2], args[3])
			if err != nil {
				return err
			}
			return editExam(cmd, args[0], func(_ *app, e *model.Exam) error {
				return compose.MoveQuestion(e, args[1], from, to)
			})
		},
	}
	commonFlags(move.Flags())

	cmd.AddCommand(add, set, remove, move)
	return cmd
}

// questionFlags registers the content flags shared by question add and set.
func questionFlags(f *pflag.FlagSet) {
	f.String("text", "", "Question text")
	f.StringArray("option", nil, "Option text, repeatable (replaces all options)")
	f.StringSlice("correct", nil, "Labels of the correct options, e.g. b or a,c (replaces the answer)")
	f.String("tf", "", "True/false answer (true, false)")
	f.StringArray("pair", nil, "Matching pair as premise=response, repeatable (replaces all pairs)")
	f.StringArray("sub", nil, "Sub-question text, repeatable (replaces all sub-questions)")
	f.String("answer", "", "Expected answer of a short answer or essay question")
	f.Bool("answer-space", false, "Reserve answer lines under an essay question")
	commonFlags(f)
}

func runQuestionAdd(cmd *cobra.Command, args []string) error {
	return editExam(cmd, args[0], func(a *app, e *model.Exam) error {
		c := compose.New(a.opts.NewID)
		q, err := c.AddQuestion(e, args[1], model.QuestionType(strings.ToUpper(a.v.GetString("type"))))
		if err != nil {
			return err
		}
		if err := applyQuestionFlags(cmd, a, c, q); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), q.ID)
		return nil
	})
}

func runQuestionSet(cmd *cobra.Command, args []string) error {
	return editExam(cmd, args[0], func(a *app, e *model.Exam) error {
		s := e.Section(args[1])
		if s == nil {
			return fmt.Errorf("%w: %s", repo.ErrSectionNotFound, args[1])
		}
		for i := range s.Questions {
			if s.Questions[i].ID == args[2] {
				return applyQuestionFlags(cmd, a, compose.New(a.opts.NewID), &s.Questions[i])
			}
		}
		return fmt.Errorf("question %s: %w", args[2], compose.ErrQuestionNotFound)
	})
}

// applyQuestionFlags writes every content flag given on the command line into
// q. List flags replace the whole list.
func applyQuestionFlags(cmd *cobra.Command, a *app, c *compose.Composer, q *model.Question) error {
	f := cmd.Flags()
	if f.Changed("text") {
		q.QuestionText = richtext.FromPlain(a.v.GetString("text"))
	}
	if f.Changed("option") {
		opts, _ := f.GetStringArray("option")
		q.Options = []model.Option{}
		q.CorrectAnswerIDs = nil
		for _, text := range opts {
			c.AddOption(q)
			q.Options[len(q.Options)-1].Text = richtext.FromPlain(text)
		}
	}
	if f.Changed("correct") {
		q.CorrectAnswerIDs = nil
		for _, label := range a.v.GetStringSlice("correct") {
			id := optionIDByLabel(q, label)
			if id == "" {
				return fmt.Errorf("no option labelled %q", label)
			}
			if !q.IsCorrect(id) {
				compose.SetCorrect(q, id)
			}
		}
	}
	if f.Changed("tf") {
		switch tf := strings.ToLower(a.v.GetString("tf")); tf {
		case "":
			q.TrueFalseAnswer = model.AnswerUnset
		case string(model.AnswerTrue), string(model.AnswerFalse):
			q.TrueFalseAnswer = model.TrueFalseAnswer(tf)
		default:
			return fmt.Errorf("invalid --tf %q: want true or false", tf)
		}
	}
	if f.Changed("pair") {
		pairs, _ := f.GetStringArray("pair")
		q.MatchingPremises, q.MatchingResponses, q.AnswerKeyMatching = nil, nil, nil
		for _, p := range pairs {
			premise, response, ok := strings.Cut(p, "=")
			if !ok {
				return fmt.Errorf("invalid --pair %q: want premise=response", p)
			}
			c.AddMatchingPair(q, richtext.FromPlain(strings.TrimSpace(premise)), richtext.FromPlain(strings.TrimSpace(response)))
		}
	}
	if f.Changed("sub") {
		subs, _ := f.GetStringArray("sub")
		q.SubQuestions = []model.SubQuestion{}
		for _, text := range subs {
			c.AddSubQuestion(q)
			q.SubQuestions[len(q.SubQuestions)-1].Text = richtext.FromPlain(text)
		}
	}
	if f.Changed("answer") {
		q.AnswerKey = richtext.FromPlain(a.v.GetString("answer"))
	}
	if f.Changed("answer-space") {
		q.IncludeAnswerSpace = a.v.GetBool("answer-space")
	}
	return nil
}

func optionIDByLabel(q *model.Question, label string) string {
	for _, o := range q.Options {
		if strings.EqualFold(o.Label, strings.TrimSpace(label)) {
			return o.ID
		}
	}
	return ""
}

// positions converts 1-based command line positions to indexes.
func positions(from, to string) (int, int, error) {
	f, err := strconv.Atoi(from)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid position %q", from)
	}
	t, err := strconv.Atoi(to)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid position %q", to)
	}
	return f - 1, t - 1, nil
}

// declinedOK reports a declined confirmation as a message instead of an error.
func declinedOK(a *app, cmd *cobra.Command, err error) error {
	if errors.Is(err, repo.ErrDeclined) {
		a.say(cmd, "Declined", nil)
		return nil
	}
	return err
}
