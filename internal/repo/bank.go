package repo

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pavelanni/examsheet/internal/confirm"
	"github.com/pavelanni/examsheet/internal/migrate"
	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/richtext"
	"github.com/pavelanni/examsheet/internal/store"
)

// DefaultCategory replaces a blank subject or grade of a bank question.
const DefaultCategory = "Umum"

// Bank owns the question bank, kept newest first.
type Bank struct {
	collection
	opts      Options
	questions []model.BankQuestion
}

// NewBank loads the stored question bank.
func NewBank(kv KV, opts Options) *Bank {
	opts = opts.withDefaults()
	b := &Bank{
		collection: collection{kv: kv, key: store.KeyBank},
		opts:       opts,
	}
	b.questions = migrate.New(opts.NewID).BankQuestions(b.load())
	slog.Debug("loaded question bank", "count", len(b.questions))
	return b
}

// All returns the bank, newest first. The questions must not be modified.
func (b *Bank) All() []model.BankQuestion {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.BankQuestion, len(b.questions))
	copy(out, b.questions)
	return out
}

// Get returns a copy of the bank question with the given id.
func (b *Bank) Get(id string) (model.BankQuestion, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return model.BankQuestion{}, fmt.Errorf("%w: %s", ErrBankQuestionNotFound, id)
	}
	bq := b.questions[i]
	q, err := model.CloneQuestion(bq.Question)
	if err != nil {
		return model.BankQuestion{}, err
	}
	bq.Question = q
	bq.Tags = append([]string{}, bq.Tags...)
	return bq, nil
}

// Add stores a deep copy of q with a new id. A question whose text without
// markup equals that of an existing entry is rejected with ErrDuplicate.
func (b *Bank) Add(q model.Question, subject, grade string, tags []string) (model.BankQuestion, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	plain := richtext.StripTags(q.QuestionText)
	for _, existing := range b.questions {
		if richtext.StripTags(existing.QuestionText) == plain {
			return model.BankQuestion{}, fmt.Errorf("%w: %s", ErrDuplicate, existing.ID)
		}
	}
	c, err := model.CloneQuestion(q)
	if err != nil {
		return model.BankQuestion{}, err
	}
	c.ID = b.opts.NewID()
	if subject == "" {
		subject = DefaultCategory
	}
	if grade == "" {
		grade = DefaultCategory
	}
	bq := model.BankQuestion{
		Question:      c,
		Subject:       subject,
		Grade:         grade,
		Tags:          append([]string{}, tags...),
		BankCreatedAt: b.opts.Now(),
	}
	b.questions = append([]model.BankQuestion{bq}, b.questions...)
	b.save(b.questions)
	slog.Info("added bank question", "id", bq.ID, "subject", subject, "grade", grade)
	return bq, nil
}

// Update replaces the bank question with the same id.
func (b *Bank) Update(bq model.BankQuestion) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(bq.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBankQuestionNotFound, bq.ID)
	}
	b.questions[i] = bq
	b.save(b.questions)
	return nil
}

// Delete removes a bank question once the confirmer agrees.
func (b *Bank) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBankQuestionNotFound, id)
	}
	if !b.opts.Confirmer.Confirm(ctx, confirm.DeleteBank) {
		return ErrDeclined
	}
	b.questions = append(b.questions[:i], b.questions[i+1:]...)
	b.save(b.questions)
	return nil
}

// Filter returns bank questions matching subject and grade (empty matches
// all) whose visible text or tags contain search, ignoring case.
func (b *Bank) Filter(subject, grade, search string) []model.BankQuestion {
	b.mu.Lock()
	defer b.mu.Unlock()
	search = strings.ToLower(strings.TrimSpace(search))
	var out []model.BankQuestion
	for _, q := range b.questions {
		if subject != "" && q.Subject != subject {
			continue
		}
		if grade != "" && q.Grade != grade {
			continue
		}
		if search != "" && !matches(q, search) {
			continue
		}
		out = append(out, q)
	}
	return out
}

func matches(q model.BankQuestion, search string) bool {
	if strings.Contains(strings.ToLower(richtext.StripTags(q.QuestionText)), search) {
		return true
	}
	for _, tag := range q.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

// Subjects returns the distinct subjects in the bank, sorted.
func (b *Bank) Subjects() []string {
	return b.distinct(func(q model.BankQuestion) string { return q.Subject })
}

// Grades returns the distinct grades in the bank, sorted.
func (b *Bank) Grades() []string {
	return b.distinct(func(q model.BankQuestion) string { return q.Grade })
}

func (b *Bank) distinct(field func(model.BankQuestion) string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[string]bool)
	out := []string{}
	for _, q := range b.questions {
		v := field(q)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (b *Bank) index(id string) int {
	for i := range b.questions {
		if b.questions[i].ID == id {
			return i
		}
	}
	return -1
}
