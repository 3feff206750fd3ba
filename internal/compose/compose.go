// Package compose holds the pure editing operations on an exam: adding,
// removing and reordering sections and questions while keeping section titles
// and question numbers sequential.
package compose

import (
	"errors"
	"strconv"
	"strings"

	"github.com/pavelanni/examsheet/internal/migrate"
	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/richtext"
)

var (
	ErrSectionNotFound  = errors.New("section not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrLastSection      = errors.New("cannot remove the only section")
	ErrUnknownType      = errors.New("unknown question type")
	ErrBadIndex         = errors.New("index out of range")
)

// DefaultOptionCount is the number of empty options a new multiple choice
// question starts with.
const DefaultOptionCount = 4

// DefaultTime is the duration, in minutes, of a new exam.
const DefaultTime = 90

// DefaultInstructions is applied to a section whose instruction is blank when
// its first question of a type is added.
var DefaultInstructions = map[model.QuestionType]string{
	model.MultipleChoice:        "Berilah tanda silang (X) pada pilihan jawaban yang benar!",
	model.MultipleChoiceComplex: "Pilihlah semua jawaban yang benar!",
	model.TrueFalse:             "Tentukan apakah pernyataan berikut benar atau salah!",
	model.Matching:              "Jodohkanlah pernyataan di kolom kiri dengan jawaban yang tepat di kolom kanan!",
	model.ShortAnswer:           "Isilah titik-titik di bawah ini dengan jawaban yang benar dan tepat!",
	model.Essay:                 "Jawablah pertanyaan di bawah ini dengan benar!",
}

// Composer performs the operations. NewID supplies ids for created entities.
type Composer struct {
	NewID func() string
}

// New returns a Composer using newID.
func New(newID func() string) *Composer {
	return &Composer{NewID: newID}
}

// NewExam returns an empty draft with one section titled I.
func (c *Composer) NewExam() model.Exam {
	return model.Exam{
		Time:   DefaultTime,
		Status: model.StatusDraft,
		Sections: []model.Section{
			{ID: c.NewID(), Title: ToRoman(1), Questions: []model.Question{}},
		},
	}
}

// AddSection appends a section titled with the Roman numeral of its position.
func (c *Composer) AddSection(e *model.Exam) *model.Section {
	e.Sections = append(e.Sections, model.Section{
		ID:        c.NewID(),
		Title:     ToRoman(len(e.Sections) + 1),
		Questions: []model.Question{},
	})
	return &e.Sections[len(e.Sections)-1]
}

// RemoveSection deletes a section and its questions. The last remaining
// section cannot be removed.
func RemoveSection(e *model.Exam, sectionID string) error {
	idx := sectionIndex(e, sectionID)
	if idx < 0 {
		return ErrSectionNotFound
	}
	if len(e.Sections) <= 1 {
		return ErrLastSection
	}
	e.Sections = append(e.Sections[:idx], e.Sections[idx+1:]...)
	return nil
}

// MoveSection moves the section at from to position to and re-titles all
// sections I, II, III… in their new order.
func MoveSection(e *model.Exam, from, to int) error {
	if err := move(e.Sections, from, to); err != nil {
		return err
	}
	for i := range e.Sections {
		e.Sections[i].Title = ToRoman(i + 1)
	}
	return nil
}

// AddQuestion appends an empty question of type t to the section.
func (c *Composer) AddQuestion(e *model.Exam, sectionID string, t model.QuestionType) (*model.Question, error) {
	if !t.Valid() {
		return nil, ErrUnknownType
	}
	s := e.Section(sectionID)
	if s == nil {
		return nil, ErrSectionNotFound
	}
	q := model.Question{
		ID:             c.NewID(),
		Type:           t,
		QuestionNumber: strconv.Itoa(len(s.Questions) + 1),
		Options:        []model.Option{},
		SubQuestions:   []model.SubQuestion{},
	}
	switch t {
	case model.MultipleChoice, model.MultipleChoiceComplex:
		for i := 0; i < DefaultOptionCount; i++ {
			c.AddOption(&q)
		}
	case model.Matching:
		q.MatchingPremises = []model.MatchingItem{}
		q.MatchingResponses = []model.MatchingItem{}
		q.AnswerKeyMatching = []model.MatchingAnswer{}
	}
	if richtext.IsBlank(s.Instruction) {
		s.Instruction = DefaultInstructions[t]
	}
	s.Questions = append(s.Questions, q)
	return &s.Questions[len(s.Questions)-1], nil
}

// RemoveQuestion deletes a question and renumbers the rest of its section.
func RemoveQuestion(e *model.Exam, sectionID, questionID string) error {
	s := e.Section(sectionID)
	if s == nil {
		return ErrSectionNotFound
	}
	for i, q := range s.Questions {
		if q.ID == questionID {
			s.Questions = append(s.Questions[:i], s.Questions[i+1:]...)
			Renumber(s)
			return nil
		}
	}
	return ErrQuestionNotFound
}

// MoveQuestion reorders a question within its section and renumbers.
func MoveQuestion(e *model.Exam, sectionID string, from, to int) error {
	s := e.Section(sectionID)
	if s == nil {
		return ErrSectionNotFound
	}
	if err := move(s.Questions, from, to); err != nil {
		return err
	}
	Renumber(s)
	return nil
}

// Renumber assigns question numbers 1..N in section order.
func Renumber(s *model.Section) {
	for i := range s.Questions {
		s.Questions[i].QuestionNumber = strconv.Itoa(i + 1)
	}
}

// AddOption appends an empty option labelled by its position.
func (c *Composer) AddOption(q *model.Question) {
	q.Options = append(q.Options, model.Option{
		ID:    c.NewID(),
		Label: migrate.Letter(len(q.Options)),
	})
}

// RemoveOption deletes an option and drops it from the correct answers.
func RemoveOption(q *model.Question, optionID string) {
	kept := q.Options[:0]
	for _, o := range q.Options {
		if o.ID != optionID {
			kept = append(kept, o)
		}
	}
	q.Options = kept
	ids := q.CorrectAnswerIDs[:0]
	for _, id := range q.CorrectAnswerIDs {
		if id != optionID {
			ids = append(ids, id)
		}
	}
	q.CorrectAnswerIDs = ids
}

// SetCorrect marks an option correct. MultipleChoice keeps a single answer;
// MultipleChoiceComplex toggles membership.
func SetCorrect(q *model.Question, optionID string) {
	if q.Type != model.MultipleChoiceComplex {
		q.CorrectAnswerIDs = []string{optionID}
		return
	}
	for i, id := range q.CorrectAnswerIDs {
		if id == optionID {
			q.CorrectAnswerIDs = append(q.CorrectAnswerIDs[:i], q.CorrectAnswerIDs[i+1:]...)
			return
		}
	}
	q.CorrectAnswerIDs = append(q.CorrectAnswerIDs, optionID)
}

// AddSubQuestion appends a sub-question numbered by its position (a, b, …).
func (c *Composer) AddSubQuestion(q *model.Question) {
	q.SubQuestions = append(q.SubQuestions, model.SubQuestion{
		ID:     c.NewID(),
		Number: migrate.Letter(len(q.SubQuestions)),
	})
}

// AddMatchingPair appends a premise and a response and, when both texts are
// given, records them as matching each other.
func (c *Composer) AddMatchingPair(q *model.Question, premise, response string) {
	p := model.MatchingItem{ID: c.NewID(), Text: premise}
	r := model.MatchingItem{ID: c.NewID(), Text: response}
	q.MatchingPremises = append(q.MatchingPremises, p)
	q.MatchingResponses = append(q.MatchingResponses, r)
	if strings.TrimSpace(premise) != "" && strings.TrimSpace(response) != "" {
		SetMatch(q, p.ID, r.ID)
	}
}

// SetMatch records the response for a premise, replacing any earlier pair.
func SetMatch(q *model.Question, premiseID, responseID string) {
	for i := range q.AnswerKeyMatching {
		if q.AnswerKeyMatching[i].PremiseID == premiseID {
			q.AnswerKeyMatching[i].ResponseID = responseID
			return
		}
	}
	q.AnswerKeyMatching = append(q.AnswerKeyMatching, model.MatchingAnswer{PremiseID: premiseID, ResponseID: responseID})
}

// InsertFromBank appends copies of questions to a section with fresh ids,
// numbered after the existing questions.
func (c *Composer) InsertFromBank(e *model.Exam, sectionID string, questions []model.Question) error {
	s := e.Section(sectionID)
	if s == nil {
		return ErrSectionNotFound
	}
	for _, src := range questions {
		q, err := model.CloneQuestion(src)
		if err != nil {
			return err
		}
		q.ID = c.NewID()
		q.QuestionNumber = strconv.Itoa(len(s.Questions) + 1)
		s.Questions = append(s.Questions, q)
	}
	return nil
}

// IsEmpty reports whether a draft holds nothing worth autosaving.
func IsEmpty(e model.Exam) bool {
	return e.Title == "" && e.Subject == "" && e.Grade == "" && e.QuestionCount() == 0
}

var romanNumerals = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// ToRoman formats n as a Roman numeral. Non-positive n yields "".
func ToRoman(n int) string {
	var sb strings.Builder
	for _, r := range romanNumerals {
		for n >= r.value {
			sb.WriteString(r.symbol)
			n -= r.value
		}
	}
	return sb.String()
}

func sectionIndex(e *model.Exam, id string) int {
	for i, s := range e.Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func move[T any](items []T, from, to int) error {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return ErrBadIndex
	}
	item := items[from]
	if from < to {
		copy(items[from:to], items[from+1:to+1])
	} else {
		copy(items[to+1:from+1], items[to:from])
	}
	items[to] = item
	return nil
}
