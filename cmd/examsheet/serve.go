package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/pavelanni/examsheet/internal/confirm"
	"github.com/pavelanni/examsheet/internal/handler"
	appI18n "github.com/pavelanni/examsheet/internal/i18n"
	"github.com/pavelanni/examsheet/internal/repo"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local preview server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", "127.0.0.1:8080", "HTTP listen address")
	commonFlags(f)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// Requests confirm destructive actions with a "confirm=yes" form field.
	opts := a.opts
	opts.Confirmer = confirm.Contextual{}

	h := handler.New(repo.NewExams(a.db, opts), repo.NewBank(a.db, opts), repo.NewSettings(a.db, opts))

	lang := a.v.GetString("lang")
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := a.v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", a.v.GetString("db"),
		"lang", lang,
	)
	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
