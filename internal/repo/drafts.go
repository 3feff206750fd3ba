package repo

import (
	"context"
	"log/slog"

	"github.com/pavelanni/examsheet/internal/compose"
	"github.com/pavelanni/examsheet/internal/confirm"
	"github.com/pavelanni/examsheet/internal/migrate"
	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/store"
)

// Drafts keeps the single autosaved editor draft.
type Drafts struct {
	collection
	opts     Options
	migrator *migrate.Migrator
}

func NewDrafts(kv KV, opts Options) *Drafts {
	opts = opts.withDefaults()
	return &Drafts{
		collection: collection{kv: kv, key: store.KeyDraft},
		opts:       opts,
		migrator:   migrate.New(opts.NewID),
	}
}

// Save stores e as the draft unless it is empty. It reports whether anything
// was written.
func (d *Drafts) Save(e model.Exam) bool {
	if compose.IsEmpty(e) {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.save(e)
	return d.saveErr == nil
}

// Pending reports whether a usable draft is stored.
func (d *Drafts) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.migrator.Draft(d.load())
	return ok
}

// Recover returns the stored draft when there is a usable one and the
// confirmer wants it back. A declined or unreadable draft is discarded.
func (d *Drafts) Recover(ctx context.Context) (model.Exam, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data := d.load()
	if data == nil {
		return model.Exam{}, false
	}
	e, ok := d.migrator.Draft(data)
	if !ok {
		slog.Warn("discarding unusable autosave draft")
		d.remove()
		return model.Exam{}, false
	}
	if !d.opts.Confirmer.Confirm(ctx, confirm.RecoverDraft) {
		d.remove()
		return model.Exam{}, false
	}
	return e, true
}

// Discard deletes a stored draft once the confirmer agrees. With no draft
// stored it does nothing.
func (d *Drafts) Discard(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.load() == nil {
		return nil
	}
	if !d.opts.Confirmer.Confirm(ctx, confirm.DiscardDraft) {
		return ErrDeclined
	}
	d.remove()
	return nil
}

// Clear deletes the draft without asking, e.g. after it was saved as an exam.
func (d *Drafts) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remove()
}
