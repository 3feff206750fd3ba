package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examsheet/internal/confirm"
	"github.com/pavelanni/examsheet/internal/i18n"
	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/render"
	"github.com/pavelanni/examsheet/internal/repo"
)

// maxBodySize limits JSON request bodies; logos inside settings are the
// largest legitimate payload.
const maxBodySize = 10 << 20

// Handler holds shared dependencies for HTTP handlers. The repositories must
// be built with confirm.Contextual so that a "confirm=yes" form field answers
// their confirmation prompts.
type Handler struct {
	exams    *repo.Exams
	bank     *repo.Bank
	settings *repo.Settings
}

// New creates a new Handler.
func New(exams *repo.Exams, bank *repo.Bank, settings *repo.Settings) *Handler {
	return &Handler{exams: exams, bank: bank, settings: settings}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/exams/{examID}", h.handleExam)
	r.Put("/exams/{examID}", h.handleUpdateExam)
	r.Get("/exams/{examID}/sheet", h.handleDocument(render.KindSheet))
	r.Get("/exams/{examID}/key", h.handleDocument(render.KindKey))
	r.Post("/exams/{examID}/duplicate", h.handleDuplicate)
	r.Post("/exams/{examID}/variant", h.handleVariant)
	r.Post("/exams/{examID}/delete", h.handleDelete)
	r.Get("/backup", h.handleBackup)
	r.Post("/restore", h.handleRestore)
	r.Get("/bank", h.handleBank)
	r.Put("/bank/{questionID}", h.handleUpdateBankQuestion)
	r.Get("/settings", h.handleSettings)
}

// examSummary is one row of the archive listing.
type examSummary struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Subject   string           `json:"subject"`
	Grade     string           `json:"grade"`
	Status    model.ExamStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	Questions int              `json:"questions"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	exams := h.exams.Filter(q.Get("subject"), q.Get("grade"), model.ExamStatus(q.Get("status")))
	out := make([]examSummary, 0, len(exams))
	for _, e := range exams {
		out = append(out, examSummary{
			ID:        e.ID,
			Title:     e.Title,
			Subject:   e.Subject,
			Grade:     e.Grade,
			Status:    e.Status,
			CreatedAt: e.CreatedAt,
			Questions: e.QuestionCount(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleExam(w http.ResponseWriter, r *http.Request) {
	e, err := h.exams.Get(chi.URLParam(r, "examID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleUpdateExam replaces an exam with the JSON body. The id in the path
// wins over any id in the body.
func (h *Handler) handleUpdateExam(w http.ResponseWriter, r *http.Request) {
	var e model.Exam
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&e); err != nil {
		http.Error(w, "invalid exam: "+err.Error(), http.StatusBadRequest)
		return
	}
	e.ID = chi.URLParam(r, "examID")
	if e.Status != model.StatusDraft && e.Status != model.StatusFinished {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}
	if len(e.Sections) == 0 {
		http.Error(w, "an exam needs at least one section", http.StatusBadRequest)
		return
	}
	if err := h.exams.Update(e); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reportSave(w, h.exams.SaveErr())
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) handleDocument(kind render.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := h.exams.Get(chi.URLParam(r, "examID"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		rr := render.New(render.NewLabels(i18n.Translator(r.Context())))
		var doc render.Document
		if kind == render.KindKey {
			doc = rr.AnswerKey(e, h.settings.Get())
		} else {
			doc = rr.QuestionSheet(e, h.settings.Get())
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Query().Get("download") != "" {
			w.Header().Set("Content-Disposition", `attachment; filename="`+render.FileName(kind, e.Title)+`"`)
		}
		if err := render.Page(doc).Render(r.Context(), w); err != nil {
			slog.Error("render error", "error", err)
		}
	}
}

func (h *Handler) handleDuplicate(w http.ResponseWriter, r *http.Request) {
	e, err := h.exams.Duplicate(chi.URLParam(r, "examID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reportSave(w, h.exams.SaveErr())
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleVariant(w http.ResponseWriter, r *http.Request) {
	e, err := h.exams.GenerateVariant(chi.URLParam(r, "examID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reportSave(w, h.exams.SaveErr())
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := confirm.ContextWithAnswer(r.Context(), r.FormValue("confirm") == "yes")
	if err := h.exams.Delete(ctx, chi.URLParam(r, "examID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reportSave(w, h.exams.SaveErr())
	writeJSON(w, http.StatusOK, map[string]string{"message": i18n.T(r.Context(), "ExamDeleted")})
}

func (h *Handler) handleBank(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	questions := h.bank.Filter(q.Get("subject"), q.Get("grade"), q.Get("q"))
	if questions == nil {
		questions = []model.BankQuestion{}
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleUpdateBankQuestion(w http.ResponseWriter, r *http.Request) {
	var bq model.BankQuestion
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&bq); err != nil {
		http.Error(w, "invalid question: "+err.Error(), http.StatusBadRequest)
		return
	}
	bq.ID = chi.URLParam(r, "questionID")
	if err := h.bank.Update(bq); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.reportSave(w, h.bank.SaveErr())
	writeJSON(w, http.StatusOK, bq)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Get())
}

// reportSave exposes a failed write-through as a response header; the
// request itself still succeeds.
func (h *Handler) reportSave(w http.ResponseWriter, err error) {
	if err != nil {
		w.Header().Set("X-Save-Status", "failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, i18n.T(ctx, notFoundMessage(err)), http.StatusNotFound)
	case errors.Is(err, repo.ErrDeclined):
		http.Error(w, i18n.T(ctx, "Declined"), http.StatusConflict)
	case errors.Is(err, repo.ErrInvalidBackup):
		http.Error(w, i18n.T(ctx, "InvalidBackup"), http.StatusBadRequest)
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// notFoundMessage names what could not be found.
func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, repo.ErrExamNotFound):
		return "ExamNotFound"
	case errors.Is(err, repo.ErrSectionNotFound):
		return "SectionNotFound"
	case errors.Is(err, repo.ErrBankQuestionNotFound):
		return "BankQuestionNotFound"
	}
	return "NotFound"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
