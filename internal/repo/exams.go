package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pavelanni/examsheet/internal/compose"
	"github.com/pavelanni/examsheet/internal/confirm"
	"github.com/pavelanni/examsheet/internal/migrate"
	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/store"
	"github.com/pavelanni/examsheet/internal/variant"
)

// CopySuffix is appended to the title of a duplicated exam.
const CopySuffix = " (Salinan)"

// Exams owns the exam collection.
type Exams struct {
	collection
	opts     Options
	migrator *migrate.Migrator
	variants *variant.Generator
	exams    []model.Exam
}

// NewExams loads the stored collection, upgrading older records.
func NewExams(kv KV, opts Options) *Exams {
	opts = opts.withDefaults()
	r := &Exams{
		collection: collection{kv: kv, key: store.KeyExams},
		opts:       opts,
		migrator:   migrate.New(opts.NewID),
	}
	if opts.Seed != 0 {
		r.variants = variant.NewSeeded(opts.Seed, opts.NewID, opts.Now)
	} else {
		r.variants = variant.New(nil, opts.NewID, opts.Now)
	}
	r.exams = r.migrator.Exams(r.load())
	slog.Debug("loaded exams", "count", len(r.exams))
	return r
}

// All returns the collection in stored order. The exams must not be modified.
func (r *Exams) All() []model.Exam {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Exam, len(r.exams))
	copy(out, r.exams)
	return out
}

// Get returns a deep copy of the exam with the given id.
func (r *Exams) Get(id string) (model.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return model.Exam{}, fmt.Errorf("%w: %s", ErrExamNotFound, id)
	}
	return model.CloneExam(r.exams[i])
}

// Add stores a copy of draft with a fresh id and creation time and returns it.
func (r *Exams) Add(draft model.Exam) (model.Exam, error) {
	e, err := model.CloneExam(draft)
	if err != nil {
		return model.Exam{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = r.opts.NewID()
	e.CreatedAt = r.opts.Now()
	if e.Status == "" {
		e.Status = model.StatusDraft
	}
	if e.Sections == nil {
		e.Sections = []model.Section{}
	}
	r.exams = append(r.exams, e)
	r.save(r.exams)
	slog.Info("added exam", "exam_id", e.ID)
	return e, nil
}

// Update replaces the exam with the same id. It is a no-op returning
// ErrNotFound when no such exam exists.
func (r *Exams) Update(e model.Exam) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(e.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrExamNotFound, e.ID)
	}
	r.exams[i] = e
	r.save(r.exams)
	return nil
}

// Delete removes an exam once the confirmer agrees.
func (r *Exams) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrExamNotFound, id)
	}
	if !r.opts.Confirmer.Confirm(ctx, confirm.DeleteExam) {
		return ErrDeclined
	}
	r.exams = append(r.exams[:i], r.exams[i+1:]...)
	r.save(r.exams)
	slog.Info("deleted exam", "exam_id", id)
	return nil
}

// RemoveSection deletes a section of a stored exam once the confirmer agrees.
func (r *Exams) RemoveSection(ctx context.Context, examID, sectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(examID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrExamNotFound, examID)
	}
	e := &r.exams[i]
	if e.Section(sectionID) == nil {
		return fmt.Errorf("%w: %s", ErrSectionNotFound, sectionID)
	}
	if len(e.Sections) <= 1 {
		return ErrLastSection
	}
	if !r.opts.Confirmer.Confirm(ctx, confirm.DeleteSection) {
		return ErrDeclined
	}
	if err := compose.RemoveSection(e, sectionID); err != nil {
		return err
	}
	r.save(r.exams)
	return nil
}

// Duplicate stores a deep copy of an exam, titled with CopySuffix, at the
// front of the collection.
func (r *Exams) Duplicate(id string) (model.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return model.Exam{}, fmt.Errorf("%w: %s", ErrExamNotFound, id)
	}
	e, err := model.CloneExam(r.exams[i])
	if err != nil {
		return model.Exam{}, err
	}
	e.ID = r.opts.NewID()
	e.CreatedAt = r.opts.Now()
	e.Title += CopySuffix
	r.prepend(e)
	slog.Info("duplicated exam", "exam_id", id, "copy_id", e.ID)
	return e, nil
}

// GenerateVariant stores a shuffled copy of an exam at the front of the
// collection.
func (r *Exams) GenerateVariant(id string) (model.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return model.Exam{}, fmt.Errorf("%w: %s", ErrExamNotFound, id)
	}
	e, err := r.variants.Generate(r.exams[i])
	if err != nil {
		return model.Exam{}, err
	}
	r.prepend(e)
	slog.Info("generated variant", "exam_id", id, "variant_id", e.ID)
	return e, nil
}

// Backup returns the whole collection as indented JSON.
func (r *Exams) Backup() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := json.MarshalIndent(r.exams, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return data, nil
}

// Restore replaces the whole collection with the exams in a backup file. The
// file must be a JSON array whose every element has an id, a title and
// sections; otherwise nothing changes and ErrInvalidBackup is returned.
// Records are upgraded like stored ones. It returns the number restored.
func (r *Exams) Restore(ctx context.Context, data []byte) (int, error) {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if raw == nil {
		return 0, fmt.Errorf("%w: not an array", ErrInvalidBackup)
	}
	restored := make([]model.Exam, 0, len(raw))
	for i, v := range raw {
		obj, ok := v.(map[string]any)
		if !ok || !present(obj["id"]) || !present(obj["title"]) || !present(obj["sections"]) {
			return 0, fmt.Errorf("%w: element %d lacks id, title or sections", ErrInvalidBackup, i)
		}
		e, err := r.migrator.Exam(obj)
		if err != nil {
			return 0, fmt.Errorf("%w: element %d: %v", ErrInvalidBackup, i, err)
		}
		restored = append(restored, e)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.opts.Confirmer.Confirm(ctx, confirm.Restore) {
		return 0, ErrDeclined
	}
	r.exams = restored
	r.save(r.exams)
	slog.Info("restored exams", "count", len(restored))
	return len(restored), nil
}

// Filter returns the exams matching every non-empty criterion, newest first.
func (r *Exams) Filter(subject, grade string, status model.ExamStatus) []model.Exam {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Exam
	for _, e := range r.exams {
		if subject != "" && e.Subject != subject {
			continue
		}
		if grade != "" && e.Grade != grade {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *Exams) prepend(e model.Exam) {
	r.exams = append([]model.Exam{e}, r.exams...)
	r.save(r.exams)
}

func (r *Exams) index(id string) int {
	for i := range r.exams {
		if r.exams[i].ID == id {
			return i
		}
	}
	return -1
}

// present reports whether a decoded JSON value counts as set: not null,
// false, zero or the empty string.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	}
	return true
}
