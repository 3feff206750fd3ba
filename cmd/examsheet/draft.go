package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pavelanni/examsheet/internal/migrate"
	"github.com/pavelanni/examsheet/internal/repo"
)

func draftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Manage the autosaved exam draft",
	}

	save := &cobra.Command{
		Use:   "save <exam-json-file>",
		Short: "Store an exam document as the autosave draft (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runDraftSave,
	}
	commonFlags(save.Flags())

	status := &cobra.Command{
		Use:   "status",
		Short: "Report whether an unsaved draft exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if !a.drafts().Pending() {
				a.say(cmd, "NoDraft", nil)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "pending")
			return nil
		},
	}
	commonFlags(status.Flags())

	recoverCmd := &cobra.Command{
		Use:   "recover",
		Short: "Save the draft as an exam and clear it",
		Args:  cobra.NoArgs,
		RunE:  runDraftRecover,
	}
	commonFlags(recoverCmd.Flags())

	discard := &cobra.Command{
		Use:   "discard",
		Short: "Throw the draft away",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			d := a.drafts()
			if !d.Pending() {
				a.say(cmd, "NoDraft", nil)
				return nil
			}
			if err := d.Discard(a.ctx); err != nil {
				return declinedOK(a, cmd, err)
			}
			a.say(cmd, "DraftDiscarded", nil)
			return a.checkSave(d.SaveErr())
		},
	}
	commonFlags(discard.Flags())

	cmd.AddCommand(save, status, recoverCmd, discard)
	return cmd
}

func runDraftSave(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var data []byte
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read draft: %w", err)
	}
	e, ok := migrate.New(a.opts.NewID).Draft(data)
	if !ok {
		return errors.New("draft is not an exam document")
	}

	d := a.drafts()
	if !d.Save(e) {
		if err := d.SaveErr(); err != nil {
			return a.checkSave(err)
		}
		a.say(cmd, "DraftSkipped", nil)
		return nil
	}
	a.say(cmd, "DraftSaved", nil)
	return nil
}

func runDraftRecover(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	d := a.drafts()
	if !d.Pending() {
		a.say(cmd, "NoDraft", nil)
		return nil
	}
	e, ok := d.Recover(a.ctx)
	if !ok {
		a.say(cmd, "Declined", nil)
		return a.checkSave(d.SaveErr())
	}

	exams := a.exams()
	if e.ID != "" {
		err = exams.Update(e)
	}
	if e.ID == "" || errors.Is(err, repo.ErrNotFound) {
		e, err = exams.Add(e)
	}
	if err != nil {
		return err
	}
	if err := a.checkSave(exams.SaveErr()); err != nil {
		return err
	}
	d.Clear()
	a.say(cmd, "DraftRecovered", map[string]any{"Title": e.Title})
	fmt.Fprintln(cmd.OutOrStdout(), e.ID)
	return a.checkSave(d.SaveErr())
}
