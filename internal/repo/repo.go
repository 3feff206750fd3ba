// Package repo owns the in-memory exam, bank, settings and draft collections
// and writes each one through to the key-value store after every mutation.
package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/examsheet/internal/compose"
	"github.com/pavelanni/examsheet/internal/confirm"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicate      = errors.New("question already in bank")
	ErrInvalidBackup  = errors.New("invalid backup file")
	ErrDeclined       = errors.New("action not confirmed")
	ErrLastSection    = compose.ErrLastSection
	ErrLastHeaderLine = errors.New("cannot remove the only header line")
	ErrLogoTooLarge   = errors.New("logo too large")

	ErrExamNotFound         = fmt.Errorf("exam %w", ErrNotFound)
	ErrSectionNotFound      = fmt.Errorf("section %w", ErrNotFound)
	ErrBankQuestionNotFound = fmt.Errorf("bank question %w", ErrNotFound)
	ErrHeaderLineNotFound   = fmt.Errorf("header line %w", ErrNotFound)
)

// KV is the persistence the repositories depend on. *store.Store satisfies it.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// Options carries the collaborators shared by all repositories. Zero fields
// get defaults: a confirmer that declines everything, NewID and time.Now.
type Options struct {
	Confirmer confirm.Confirmer
	NewID     func() string
	Now       func() time.Time
	// Seed makes variant generation deterministic when non-zero.
	Seed uint64
}

func (o Options) withDefaults() Options {
	if o.Confirmer == nil {
		o.Confirmer = confirm.Always(false)
	}
	if o.NewID == nil {
		o.NewID = NewID
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// collection holds what every repository needs to load and write through one
// key: the store, the key and the outcome of the last write.
type collection struct {
	mu      sync.Mutex
	kv      KV
	key     string
	saveErr error
}

func (c *collection) load() []byte {
	data, ok, err := c.kv.Get(c.key)
	if err != nil {
		slog.Warn("failed to load collection, starting empty", "key", c.key, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	return data
}

// save writes v whole. Failures are logged and kept as the save status; the
// in-memory state is never rolled back.
func (c *collection) save(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode collection", "key", c.key, "error", err)
		c.saveErr = fmt.Errorf("encode %s: %w", c.key, err)
		return
	}
	if err := c.kv.Set(c.key, data); err != nil {
		slog.Error("failed to persist collection", "key", c.key, "error", err)
		c.saveErr = fmt.Errorf("persist %s: %w", c.key, err)
		return
	}
	c.saveErr = nil
}

func (c *collection) remove() {
	if err := c.kv.Delete(c.key); err != nil {
		slog.Error("failed to delete key", "key", c.key, "error", err)
		c.saveErr = fmt.Errorf("delete %s: %w", c.key, err)
		return
	}
	c.saveErr = nil
}

// SaveErr reports the failure of the most recent write, or nil.
func (c *collection) SaveErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveErr
}
