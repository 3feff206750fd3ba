package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/repo"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the letterhead and print settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.settings().Get())
		},
	}
	commonFlags(show.Flags())

	set := &cobra.Command{
		Use:   "set",
		Short: "Change print settings; only the given flags are applied",
		Args:  cobra.NoArgs,
		RunE:  runSettingsSet,
	}
	f := set.Flags()
	f.String("paper", string(model.PaperA4), "Paper size (a4, f4)")
	f.String("font", string(model.FontSerif), "Font family (serif, sans)")
	f.Float64("line-height", 1.5, "Line height")
	f.Float64("margin", 20, "Page margin in mm")
	f.Int("quality", 95, "PDF image quality")
	f.Bool("show-header", true, "Print the letterhead")
	f.Bool("show-logo", true, "Print the logo in the letterhead")
	commonFlags(f)

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			s := a.settings()
			if err := s.Reset(a.ctx); err != nil {
				return declinedOK(a, cmd, err)
			}
			a.say(cmd, "SettingsReset", nil)
			return a.checkSave(s.SaveErr())
		},
	}
	commonFlags(reset.Flags())

	logo := &cobra.Command{
		Use:   "logo [image-file]",
		Short: "Set the letterhead logo from an image file, or remove it when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSettingsLogo,
	}
	commonFlags(logo.Flags())

	cmd.AddCommand(show, set, reset, logo, headerCmd())
	return cmd
}

func runSettingsSet(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.settings()
	hs := s.Get()
	f := cmd.Flags()
	if f.Changed("paper") {
		p := model.PaperSize(a.v.GetString("paper"))
		if p != model.PaperA4 && p != model.PaperF4 {
			return fmt.Errorf("invalid paper size %q", p)
		}
		hs.PaperSize = p
	}
	if f.Changed("font") {
		ff := model.FontFamily(a.v.GetString("font"))
		if ff != model.FontSerif && ff != model.FontSans {
			return fmt.Errorf("invalid font family %q", ff)
		}
		hs.FontFamily = ff
	}
	if f.Changed("line-height") {
		hs.LineHeight = a.v.GetFloat64("line-height")
	}
	if f.Changed("margin") {
		hs.Margin = a.v.GetFloat64("margin")
	}
	if f.Changed("quality") {
		hs.PDFQuality = a.v.GetInt("quality")
	}
	if f.Changed("show-header") {
		hs.ShowHeader = a.v.GetBool("show-header")
	}
	if f.Changed("show-logo") {
		hs.ShowLogo = a.v.GetBool("show-logo")
	}
	s.Update(hs)
	return a.checkSave(s.SaveErr())
}

func runSettingsLogo(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.settings()
	if len(args) == 0 {
		if err := s.SetLogo(""); err != nil {
			return err
		}
		a.say(cmd, "LogoCleared", nil)
		return a.checkSave(s.SaveErr())
	}

	img, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read logo: %w", err)
	}
	if len(img) > repo.MaxLogoSize {
		return repo.ErrLogoTooLarge
	}
	if err := s.SetLogo(repo.LogoDataURI(http.DetectContentType(img), img)); err != nil {
		return err
	}
	a.say(cmd, "LogoSaved", nil)
	return a.checkSave(s.SaveErr())
}

func headerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "header",
		Short: "Edit the letterhead lines",
	}

	add := &cobra.Command{
		Use:   "add <text>",
		Short: "Append a letterhead line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			s := a.settings()
			line := s.AddHeaderLine(args[0])
			fmt.Fprintln(cmd.OutOrStdout(), line.ID)
			return a.checkSave(s.SaveErr())
		},
	}
	commonFlags(add.Flags())

	remove := &cobra.Command{
		Use:   "remove <line-id>",
		Short: "Delete a letterhead line; the last line is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			s := a.settings()
			if err := s.RemoveHeaderLine(args[0]); err != nil {
				return err
			}
			return a.checkSave(s.SaveErr())
		},
	}
	commonFlags(remove.Flags())

	cmd.AddCommand(add, remove)
	return cmd
}
