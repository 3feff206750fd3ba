// Package migrate upgrades persisted exam, bank and settings records from
// any earlier stored shape to the current model.
//
// Records are upgraded as generic JSON objects first and decoded into the
// typed model afterwards, so fields that older versions never wrote (or wrote
// with a different type) can be repaired before decoding.
package migrate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/richtext"
)

// LegacySectionTitle and LegacyInstruction describe the synthetic section that
// wraps the flat question list of pre-section exams.
const (
	LegacySectionTitle = "I"
	LegacyInstruction  = "Jawablah pertanyaan-pertanyaan di bawah ini dengan benar!"
)

// Migrator upgrades records. NewID is used for sections it has to create.
type Migrator struct {
	NewID func() string
}

// New returns a Migrator using newID for generated identifiers.
func New(newID func() string) *Migrator {
	return &Migrator{NewID: newID}
}

// Exams decodes a persisted exam collection. Anything that is not a JSON
// array yields an empty collection; entries that are not objects or cannot be
// decoded after upgrading are dropped. Nothing here returns an error.
func (m *Migrator) Exams(data []byte) []model.Exam {
	out := []model.Exam{}
	if len(data) == 0 {
		return out
	}
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("stored exams are not a JSON array, starting empty", "error", err)
		return out
	}
	for i, r := range raw {
		obj, ok := r.(map[string]any)
		if !ok {
			slog.Warn("dropping exam record that is not an object", "index", i)
			continue
		}
		e, err := m.Exam(obj)
		if err != nil {
			slog.Warn("dropping exam record", "index", i, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out
}

// Exam upgrades a single exam object and decodes it.
func (m *Migrator) Exam(obj map[string]any) (model.Exam, error) {
	var e model.Exam
	if err := decode(m.upgradeExam(obj), &e); err != nil {
		return model.Exam{}, fmt.Errorf("decode exam %v: %w", obj["id"], err)
	}
	if e.Sections == nil {
		e.Sections = []model.Section{}
	}
	return e, nil
}

// Draft decodes the autosaved editor draft. ok is false when nothing usable
// is stored: the draft must be an object with a title and sections.
func (m *Migrator) Draft(data []byte) (model.Exam, bool) {
	if len(data) == 0 {
		return model.Exam{}, false
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		slog.Warn("autosave draft is not a JSON object", "error", err)
		return model.Exam{}, false
	}
	if _, ok := obj["title"]; !ok {
		return model.Exam{}, false
	}
	if _, ok := obj["sections"].([]any); !ok {
		return model.Exam{}, false
	}
	e, err := m.Exam(obj)
	if err != nil {
		slog.Warn("autosave draft cannot be decoded", "error", err)
		return model.Exam{}, false
	}
	return e, true
}

// BankQuestions decodes the persisted question bank, newest first.
func (m *Migrator) BankQuestions(data []byte) []model.BankQuestion {
	out := []model.BankQuestion{}
	if len(data) == 0 {
		return out
	}
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("stored question bank is not a JSON array, starting empty", "error", err)
		return out
	}
	for i, r := range raw {
		obj, ok := r.(map[string]any)
		if !ok {
			slog.Warn("dropping bank record that is not an object", "index", i)
			continue
		}
		upgradeQuestion(obj, i)
		fixTime(obj, "bankCreatedAt")
		if _, ok := obj["tags"].([]any); !ok {
			obj["tags"] = []any{}
		}
		var bq model.BankQuestion
		if err := decode(obj, &bq); err != nil {
			slog.Warn("dropping bank record", "index", i, "error", err)
			continue
		}
		out = append(out, bq)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BankCreatedAt.After(out[j].BankCreatedAt)
	})
	return out
}

// Settings decodes persisted header settings on top of the defaults and
// repairs out-of-range values. Unreadable data yields the defaults.
func Settings(data []byte) model.HeaderSettings {
	s := model.DefaultHeaderSettings()
	if len(data) == 0 {
		return s
	}
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Warn("stored settings unreadable, using defaults", "error", err)
		return model.DefaultHeaderSettings()
	}
	def := model.DefaultHeaderSettings()
	switch s.PaperSize {
	case model.PaperA4, model.PaperF4:
	default:
		s.PaperSize = def.PaperSize
	}
	switch s.FontFamily {
	case model.FontSerif, model.FontSans:
	default:
		s.FontFamily = def.FontFamily
	}
	if s.LineHeight <= 0 {
		s.LineHeight = def.LineHeight
	}
	if s.Margin < 0 {
		s.Margin = def.Margin
	}
	if s.HeaderLines == nil {
		s.HeaderLines = []model.HeaderLine{}
	}
	return s
}

func (m *Migrator) upgradeExam(obj map[string]any) map[string]any {
	if s, _ := obj["status"].(string); s == "" {
		obj["status"] = string(model.StatusDraft)
	}
	if _, ok := obj["description"].(string); !ok {
		obj["description"] = ""
	}
	fixID(obj)
	fixTime(obj, "createdAt")
	fixInt(obj, "time")

	if qs, ok := obj["questions"]; ok && qs != nil && obj["sections"] == nil {
		questions, _ := qs.([]any)
		if questions == nil {
			questions = []any{}
		}
		obj["sections"] = []any{map[string]any{
			"id":          m.NewID(),
			"title":       LegacySectionTitle,
			"instruction": LegacyInstruction,
			"questions":   questions,
		}}
	}
	delete(obj, "questions")

	sections, _ := obj["sections"].([]any)
	kept := make([]any, 0, len(sections))
	for _, rs := range sections {
		sec, ok := rs.(map[string]any)
		if !ok {
			continue
		}
		fixID(sec)
		sec["instruction"] = richtext.FromPlain(str(sec["instruction"]))
		questions, _ := sec["questions"].([]any)
		qs := make([]any, 0, len(questions))
		for i, rq := range questions {
			q, ok := rq.(map[string]any)
			if !ok {
				continue
			}
			upgradeQuestion(q, i)
			qs = append(qs, q)
		}
		sec["questions"] = qs
		kept = append(kept, sec)
	}
	if obj["sections"] != nil {
		obj["sections"] = kept
	}
	return obj
}

func upgradeQuestion(q map[string]any, index int) {
	fixID(q)
	switch n := q["questionNumber"].(type) {
	case string:
		if n == "" {
			q["questionNumber"] = strconv.Itoa(index + 1)
		}
	case float64:
		q["questionNumber"] = strconv.FormatFloat(n, 'f', -1, 64)
	default:
		q["questionNumber"] = strconv.Itoa(index + 1)
	}
	if img, _ := q["image"].(string); img == "" {
		delete(q, "image")
	}
	if _, ok := q["includeAnswerSpace"].(bool); !ok {
		q["includeAnswerSpace"] = false
	}
	q["questionText"] = richtext.FromPlain(str(q["questionText"]))
	q["answerKey"] = richtext.FromPlain(str(q["answerKey"]))

	opts, _ := q["options"].([]any)
	newOpts := make([]any, 0, len(opts))
	for i, ro := range opts {
		o, ok := ro.(map[string]any)
		if !ok {
			continue
		}
		o["text"] = richtext.FromPlain(str(o["text"]))
		if str(o["label"]) == "" {
			o["label"] = Letter(i)
		}
		newOpts = append(newOpts, o)
	}
	q["options"] = newOpts

	subs, _ := q["subQuestions"].([]any)
	newSubs := make([]any, 0, len(subs))
	for _, rs := range subs {
		s, ok := rs.(map[string]any)
		if !ok {
			continue
		}
		s["text"] = richtext.FromPlain(str(s["text"]))
		newSubs = append(newSubs, s)
	}
	q["subQuestions"] = newSubs

	if _, ok := q["correctAnswerIds"]; !ok {
		if id := str(q["correctAnswerId"]); id != "" {
			q["correctAnswerIds"] = []any{id}
		}
	}
	delete(q, "correctAnswerId")

	if tf, ok := q["trueFalseAnswer"]; ok {
		if s, _ := tf.(string); s != string(model.AnswerTrue) && s != string(model.AnswerFalse) {
			delete(q, "trueFalseAnswer")
		}
	}
}

// Letter returns the lowercase option label for a zero-based position:
// a, b, …, z, aa, ab, ….
func Letter(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return Letter(i/26-1) + Letter(i%26)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// fixID turns numeric ids written by very old versions into strings.
func fixID(obj map[string]any) {
	if n, ok := obj["id"].(float64); ok {
		obj["id"] = strconv.FormatFloat(n, 'f', -1, 64)
	}
}

func fixTime(obj map[string]any, key string) {
	v, ok := obj[key]
	if !ok {
		return
	}
	s, isStr := v.(string)
	if !isStr {
		delete(obj, key)
		return
	}
	if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
		delete(obj, key)
	}
}

func fixInt(obj map[string]any, key string) {
	switch v := obj[key].(type) {
	case float64:
		obj[key] = int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			delete(obj, key)
			return
		}
		obj[key] = n
	case nil:
	default:
		delete(obj, key)
	}
}

func decode(obj map[string]any, dst any) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
