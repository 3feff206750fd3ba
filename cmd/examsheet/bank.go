package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pavelanni/examsheet/internal/compose"
	appI18n "github.com/pavelanni/examsheet/internal/i18n"
	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/repo"
	"github.com/pavelanni/examsheet/internal/richtext"
)

func bankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Manage the reusable question bank",
	}

	add := &cobra.Command{
		Use:   "add <exam-id> <question-id>",
		Short: "Copy a question of an exam into the bank",
		Args:  cobra.ExactArgs(2),
		RunE:  runBankAdd,
	}
	add.Flags().String("subject", "", "Bank subject (default: the exam's subject)")
	add.Flags().String("grade", "", "Bank grade (default: the exam's grade)")
	add.Flags().StringSlice("tags", nil, "Comma separated tags")
	commonFlags(add.Flags())

	list := &cobra.Command{
		Use:   "list",
		Short: "List bank questions, newest first",
		Args:  cobra.NoArgs,
		RunE:  runBankList,
	}
	list.Flags().String("subject", "", "Only this subject")
	list.Flags().String("grade", "", "Only this grade")
	list.Flags().String("search", "", "Text or tag to look for")
	commonFlags(list.Flags())

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a bank question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			bank := a.bank()
			if err := bank.Delete(a.ctx, args[0]); err != nil {
				return declinedOK(a, cmd, err)
			}
			a.say(cmd, "BankDeleted", nil)
			return a.checkSave(bank.SaveErr())
		},
	}
	commonFlags(del.Flags())

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a bank question; only the given flags are applied",
		Args:  cobra.ExactArgs(1),
		RunE:  runBankUpdate,
	}
	update.Flags().String("subject", "", "Bank subject")
	update.Flags().String("grade", "", "Bank grade")
	update.Flags().StringSlice("tags", nil, "Comma separated tags (replaces the tags)")
	update.Flags().String("text", "", "Question text")
	update.Flags().String("answer", "", "Expected answer of a short answer or essay question")
	commonFlags(update.Flags())

	insert := &cobra.Command{
		Use:   "insert <exam-id> <section-id> <bank-id>...",
		Short: "Append bank questions to a section of an exam",
		Args:  cobra.MinimumNArgs(3),
		RunE:  runBankInsert,
	}
	commonFlags(insert.Flags())

	cmd.AddCommand(add, list, update, del, insert)
	return cmd
}

func runBankAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.exams().Get(args[0])
	if err != nil {
		return err
	}
	q, ok := findQuestion(e, args[1])
	if !ok {
		return fmt.Errorf("question %s: %w", args[1], compose.ErrQuestionNotFound)
	}
	subject := a.v.GetString("subject")
	if subject == "" {
		subject = e.Subject
	}
	grade := a.v.GetString("grade")
	if grade == "" {
		grade = e.Grade
	}

	bank := a.bank()
	bq, err := bank.Add(q, subject, grade, a.v.GetStringSlice("tags"))
	if errors.Is(err, repo.ErrDuplicate) {
		a.say(cmd, "BankDuplicate", nil)
		return nil
	}
	if err != nil {
		return err
	}
	a.say(cmd, "BankAdded", nil)
	fmt.Fprintln(cmd.OutOrStdout(), bq.ID)
	return a.checkSave(bank.SaveErr())
}

func runBankList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	qs := a.bank().Filter(a.v.GetString("subject"), a.v.GetString("grade"), a.v.GetString("search"))
	if len(qs) == 0 {
		a.say(cmd, "BankEmpty", nil)
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSUBJECT\tGRADE\tTAGS\tQUESTION")
	for _, q := range qs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			q.ID, q.Type, q.Subject, q.Grade, strings.Join(q.Tags, ","), excerpt(q.QuestionText, 50))
	}
	return w.Flush()
}

func runBankUpdate(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	bank := a.bank()
	bq, err := bank.Get(args[0])
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("subject") {
		bq.Subject = a.v.GetString("subject")
	}
	if f.Changed("grade") {
		bq.Grade = a.v.GetString("grade")
	}
	if f.Changed("tags") {
		bq.Tags = a.v.GetStringSlice("tags")
	}
	if f.Changed("text") {
		bq.QuestionText = richtext.FromPlain(a.v.GetString("text"))
	}
	if f.Changed("answer") {
		bq.AnswerKey = richtext.FromPlain(a.v.GetString("answer"))
	}
	if err := bank.Update(bq); err != nil {
		return err
	}
	a.say(cmd, "BankUpdated", nil)
	return a.checkSave(bank.SaveErr())
}

func runBankInsert(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	bank := a.bank()
	var picked []model.Question
	for _, id := range args[2:] {
		bq, err := bank.Get(id)
		if err != nil {
			return err
		}
		picked = append(picked, bq.Question)
	}

	exams := a.exams()
	e, err := exams.Get(args[0])
	if err != nil {
		return err
	}
	if err := compose.New(a.opts.NewID).InsertFromBank(&e, args[1], picked); err != nil {
		return err
	}
	if err := exams.Update(e); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), appI18n.Tp(a.ctx, "BankInserted", len(picked)))
	return a.checkSave(exams.SaveErr())
}

func findQuestion(e model.Exam, id string) (model.Question, bool) {
	for _, s := range e.Sections {
		for _, q := range s.Questions {
			if q.ID == id {
				return q, true
			}
		}
	}
	return model.Question{}, false
}

// excerpt returns the visible text of html cut to at most n runes.
func excerpt(html string, n int) string {
	s := strings.Join(strings.Fields(richtext.StripTags(html)), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
