package handler

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pavelanni/examsheet/internal/confirm"
	"github.com/pavelanni/examsheet/internal/i18n"
	"github.com/pavelanni/examsheet/internal/render"
)

func (h *Handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	data, err := h.exams.Backup()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+render.BackupFileName(time.Now())+`"`)
	if _, err := w.Write(data); err != nil {
		slog.Error("write backup", "error", err)
	}
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "file too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("backup_file")
	if err != nil {
		http.Error(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	ctx := confirm.ContextWithAnswer(r.Context(), r.FormValue("confirm") == "yes")
	n, err := h.exams.Restore(ctx, data)
	if err != nil {
		slog.Warn("restore rejected", "filename", header.Filename, "error", err)
		h.writeError(w, r, err)
		return
	}
	h.reportSave(w, h.exams.SaveErr())

	slog.Info("restored exams via upload", "filename", header.Filename, "count", n)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   n,
		"message": i18n.Tp(r.Context(), "ExamsRestored", n),
	})
}
