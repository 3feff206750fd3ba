package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/examsheet/internal/confirm"
	appI18n "github.com/pavelanni/examsheet/internal/i18n"
	"github.com/pavelanni/examsheet/internal/repo"
	"github.com/pavelanni/examsheet/internal/store"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examsheet",
		Short: "Offline exam authoring: compose exams, shuffle variants, print sheets and answer keys",
	}

	serve := serveCmd()
	root.AddCommand(
		serve,
		listCmd(),
		newExamCmd(),
		renderCmd(),
		duplicateCmd(),
		variantCmd(),
		deleteCmd(),
		backupCmd(),
		restoreCmd(),
		examCmd(),
		sectionCmd(),
		questionCmd(),
		bankCmd(),
		settingsCmd(),
		draftCmd(),
		draftKeyCmd(),
	)

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `examsheet --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// commonFlags registers the flags every command understands.
func commonFlags(f *pflag.FlagSet) {
	f.String("db", "examsheet.db", "SQLite database path")
	f.StringP("lang", "l", appI18n.DefaultLang, "Language of documents and messages (id, en)")
	f.BoolP("yes", "y", false, "Answer yes to every confirmation")
	f.Uint64("seed", 0, "Seed for variant shuffling (0 = random)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMSHEET")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examsheet")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examsheet")
	v.AddConfigPath("/etc/examsheet")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// app is what a command needs once flags are parsed: configuration, the
// opened store and the localized context.
type app struct {
	v    *viper.Viper
	db   *store.Store
	ctx  context.Context
	opts repo.Options
}

// openApp sets up logging and i18n, opens the database and picks the
// confirmer: --yes answers everything, otherwise the terminal asks.
func openApp(cmd *cobra.Command) (*app, error) {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var c confirm.Confirmer = confirm.Terminal{
		In:  cmd.InOrStdin(),
		Out: cmd.ErrOrStderr(),
		Translate: func(ctx context.Context, p confirm.Prompt) string {
			return appI18n.T(ctx, string(p))
		},
	}
	if v.GetBool("yes") {
		c = confirm.Always(true)
	}

	return &app{
		v:    v,
		db:   db,
		ctx:  appI18n.WithLang(cmd.Context(), lang),
		opts: repo.Options{Confirmer: c, NewID: repo.NewID, Seed: v.GetUint64("seed")},
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func (a *app) exams() *repo.Exams {
	return repo.NewExams(a.db, a.opts)
}

func (a *app) bank() *repo.Bank {
	return repo.NewBank(a.db, a.opts)
}

func (a *app) settings() *repo.Settings {
	return repo.NewSettings(a.db, a.opts)
}

func (a *app) drafts() *repo.Drafts {
	return repo.NewDrafts(a.db, a.opts)
}

// say prints a localized message to the command's output.
func (a *app) say(cmd *cobra.Command, msgID string, data map[string]any) {
	fmt.Fprintln(cmd.OutOrStdout(), appI18n.Td(a.ctx, msgID, data))
}

// checkSave turns a failed write-through into a command error after the
// in-memory operation already succeeded.
func (a *app) checkSave(err error) error {
	if err != nil {
		return errors.New(appI18n.Td(a.ctx, "SaveFailed", map[string]any{"Error": err}))
	}
	return nil
}
