package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavelanni/examsheet/internal/compose"
	appI18n "github.com/pavelanni/examsheet/internal/i18n"
	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/render"
	"github.com/pavelanni/examsheet/internal/repo"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List exams, newest first",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	f := cmd.Flags()
	f.String("subject", "", "Only exams of this subject")
	f.String("grade", "", "Only exams of this grade")
	f.String("status", "", "Only exams with this status (draft, finished)")
	commonFlags(f)
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	exams := a.exams().Filter(a.v.GetString("subject"), a.v.GetString("grade"), model.ExamStatus(a.v.GetString("status")))
	if len(exams) == 0 {
		a.say(cmd, "NoExams", nil)
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, e := range exams {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.ID, e.Title, e.Subject, e.Grade, statusLabel(a, e.Status), e.QuestionCount(), e.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func statusLabel(a *app, s model.ExamStatus) string {
	if s == model.StatusFinished {
		return appI18n.T(a.ctx, "StatusFinished")
	}
	return appI18n.T(a.ctx, "StatusDraft")
}

func newExamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create an empty exam with one section",
		Args:  cobra.NoArgs,
		RunE:  runNewExam,
	}
	f := cmd.Flags()
	f.String("title", "", "Exam title (required)")
	f.String("subject", "", "Subject")
	f.String("grade", "", "Grade")
	f.Int("time", compose.DefaultTime, "Duration in minutes")
	f.String("description", "", "Private note, never printed")
	commonFlags(f)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func runNewExam(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	e := compose.New(a.opts.NewID).NewExam()
	e.Title = a.v.GetString("title")
	e.Subject = a.v.GetString("subject")
	e.Grade = a.v.GetString("grade")
	e.Description = a.v.GetString("description")
	if t := a.v.GetInt("time"); t > 0 {
		e.Time = t
	}

	exams := a.exams()
	e, err = exams.Add(e)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), e.ID)
	return a.checkSave(exams.SaveErr())
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the question sheet or answer key of an exam as HTML",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}
	f := cmd.Flags()
	f.String("exam-id", "", "Exam to render (required)")
	f.Bool("key", false, "Render the answer key instead of the question sheet")
	f.StringP("output", "o", "", "Output file path (- for stdout, default soal_<title>.html / kunci_<title>.html)")
	commonFlags(f)
	_ = cmd.MarkFlagRequired("exam-id")
	return cmd
}

func runRender(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.exams().Get(a.v.GetString("exam-id"))
	if err != nil {
		return err
	}
	hs := a.settings().Get()
	r := render.New(render.NewLabels(appI18n.Translator(a.ctx)))

	kind := render.KindSheet
	doc := r.QuestionSheet(e, hs)
	if a.v.GetBool("key") {
		kind = render.KindKey
		doc = r.AnswerKey(e, hs)
	}

	out := a.v.GetString("output")
	if out == "" {
		out = render.FileName(kind, e.Title)
	}
	return writeOutput(cmd, out, func(w io.Writer) error {
		return render.Page(doc).Render(a.ctx, w)
	})
}

func duplicateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duplicate <exam-id>",
		Short: "Copy an exam",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd, args[0], "ExamDuplicated", (*repo.Exams).Duplicate)
		},
	}
	commonFlags(cmd.Flags())
	return cmd
}

func variantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "variant <exam-id>",
		Short: "Create a copy of an exam with shuffled questions and options",
		Long: `Create a copy of an exam with the questions of every section and the
options of every multiple choice question in a new random order.

Options labelled a, b, c... by default are re-lettered in their new order, so
the answer key letter of a question usually differs from the source exam.
The correct option itself never changes. Custom labels stay with their option.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCopy(cmd, args[0], "VariantCreated", (*repo.Exams).GenerateVariant)
		},
	}
	commonFlags(cmd.Flags())
	return cmd
}

func runCopy(cmd *cobra.Command, id, msgID string, op func(*repo.Exams, string) (model.Exam, error)) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	exams := a.exams()
	e, err := op(exams, id)
	if err != nil {
		return err
	}
	a.say(cmd, msgID, map[string]any{"Title": e.Title})
	fmt.Fprintln(cmd.OutOrStdout(), e.ID)
	return a.checkSave(exams.SaveErr())
}

func deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <exam-id>",
		Short: "Delete an exam",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}
	commonFlags(cmd.Flags())
	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	exams := a.exams()
	if err := exams.Delete(a.ctx, args[0]); err != nil {
		if errors.Is(err, repo.ErrDeclined) {
			a.say(cmd, "Declined", nil)
			return nil
		}
		return err
	}
	a.say(cmd, "ExamDeleted", nil)
	return a.checkSave(exams.SaveErr())
}

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write all exams to a JSON backup file",
		Args:  cobra.NoArgs,
		RunE:  runBackup,
	}
	f := cmd.Flags()
	f.StringP("output", "o", "", "Output file path (- for stdout, default backup-<date>.json)")
	commonFlags(f)
	return cmd
}

func runBackup(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := a.exams().Backup()
	if err != nil {
		return err
	}
	out := a.v.GetString("output")
	if out == "" {
		out = render.BackupFileName(time.Now())
	}
	if err := writeOutput(cmd, out, func(w io.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	}); err != nil {
		return err
	}
	if out != "-" {
		a.say(cmd, "BackupWritten", map[string]any{"File": out})
	}
	return nil
}

func restoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace all exams with the contents of a backup file",
		Args:  cobra.ExactArgs(1),
		RunE:  runRestore,
	}
	commonFlags(cmd.Flags())
	return cmd
}

func runRestore(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	exams := a.exams()
	n, err := exams.Restore(a.ctx, data)
	switch {
	case errors.Is(err, repo.ErrDeclined):
		a.say(cmd, "Declined", nil)
		return nil
	case errors.Is(err, repo.ErrInvalidBackup):
		return fmt.Errorf("%s: %w", appI18n.T(a.ctx, "InvalidBackup"), err)
	case err != nil:
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), appI18n.Tp(a.ctx, "ExamsRestored", n))
	return a.checkSave(exams.SaveErr())
}

// writeOutput writes to path, or to the command's output when path is "-".
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return f.Close()
}
