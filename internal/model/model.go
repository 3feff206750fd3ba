package model

import (
	"fmt"
	"time"

	"github.com/jinzhu/copier"
)

// QuestionType is the discriminant of a Question.
type QuestionType string

const (
	MultipleChoice        QuestionType = "MULTIPLE_CHOICE"
	MultipleChoiceComplex QuestionType = "MULTIPLE_CHOICE_COMPLEX"
	TrueFalse             QuestionType = "TRUE_FALSE"
	Matching              QuestionType = "MATCHING"
	ShortAnswer           QuestionType = "SHORT_ANSWER"
	Essay                 QuestionType = "ESSAY"
)

// QuestionTypes lists every known question type in editor order.
var QuestionTypes = []QuestionType{
	MultipleChoice, MultipleChoiceComplex, TrueFalse, Matching, ShortAnswer, Essay,
}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	for _, k := range QuestionTypes {
		if k == t {
			return true
		}
	}
	return false
}

// HasOptions reports whether questions of this type carry an options list.
func (t QuestionType) HasOptions() bool {
	return t == MultipleChoice || t == MultipleChoiceComplex
}

// TrueFalseAnswer is the answer key of a TrueFalse question. The zero value means unset.
type TrueFalseAnswer string

const (
	AnswerUnset TrueFalseAnswer = ""
	AnswerTrue  TrueFalseAnswer = "true"
	AnswerFalse TrueFalseAnswer = "false"
)

// ExamStatus represents the editing status of an exam.
type ExamStatus string

const (
	StatusDraft    ExamStatus = "draft"
	StatusFinished ExamStatus = "finished"
)

// Option is one choice of a multiple choice question.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// SubQuestion is a numbered item rendered beneath its parent question.
type SubQuestion struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Text   string `json:"text"`
}

// MatchingItem is a premise or a response of a matching question.
type MatchingItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// MatchingAnswer pairs a premise with its response by id.
type MatchingAnswer struct {
	PremiseID  string `json:"premiseId"`
	ResponseID string `json:"responseId"`
}

// Question is a single assessable item. Only the fields relevant to Type are
// meaningful; stale fields left over from a type change are tolerated.
type Question struct {
	ID                 string           `json:"id"`
	Type               QuestionType     `json:"type"`
	QuestionNumber     string           `json:"questionNumber"`
	QuestionText       string           `json:"questionText"`
	Image              string           `json:"image,omitempty"`
	Options            []Option         `json:"options"`
	CorrectAnswerIDs   []string         `json:"correctAnswerIds,omitempty"`
	TrueFalseAnswer    TrueFalseAnswer  `json:"trueFalseAnswer,omitempty"`
	MatchingPremises   []MatchingItem   `json:"matchingPremises,omitempty"`
	MatchingResponses  []MatchingItem   `json:"matchingResponses,omitempty"`
	AnswerKeyMatching  []MatchingAnswer `json:"answerKeyMatching,omitempty"`
	SubQuestions       []SubQuestion    `json:"subQuestions,omitempty"`
	AnswerKey          string           `json:"answerKey,omitempty"`
	IncludeAnswerSpace bool             `json:"includeAnswerSpace"`
}

// IsCorrect reports whether the option id is marked correct.
func (q Question) IsCorrect(optionID string) bool {
	for _, id := range q.CorrectAnswerIDs {
		if id == optionID {
			return true
		}
	}
	return false
}

// Section is a titled group of questions sharing one instruction.
type Section struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Instruction string     `json:"instruction"`
	Questions   []Question `json:"questions"`
}

// Exam is the top-level document.
type Exam struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Subject     string     `json:"subject"`
	Grade       string     `json:"grade"`
	Time        int        `json:"time"` // minutes
	CreatedAt   time.Time  `json:"createdAt"`
	Status      ExamStatus `json:"status"`
	Description string     `json:"description"`
	Sections    []Section  `json:"sections"`
}

// Section returns a pointer to the section with the given id, or nil.
func (e *Exam) Section(id string) *Section {
	for i := range e.Sections {
		if e.Sections[i].ID == id {
			return &e.Sections[i]
		}
	}
	return nil
}

// QuestionCount returns the number of questions across all sections.
func (e Exam) QuestionCount() int {
	n := 0
	for _, s := range e.Sections {
		n += len(s.Questions)
	}
	return n
}

// BankQuestion is a question stored independently of any exam.
type BankQuestion struct {
	Question
	Subject       string    `json:"subject"`
	Grade         string    `json:"grade"`
	Tags          []string  `json:"tags"`
	BankCreatedAt time.Time `json:"bankCreatedAt"`
}

// PaperSize is the target page geometry.
type PaperSize string

const (
	PaperA4 PaperSize = "a4"
	PaperF4 PaperSize = "f4"
)

// FontFamily selects the print font stack.
type FontFamily string

const (
	FontSerif FontFamily = "serif"
	FontSans  FontFamily = "sans"
)

// HeaderLine is one line of the letterhead.
type HeaderLine struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// HeaderSettings holds the process-wide print configuration.
type HeaderSettings struct {
	ShowHeader  bool         `json:"showHeader"`
	ShowLogo    bool         `json:"showLogo"`
	Logo        string       `json:"logo,omitempty"`
	HeaderLines []HeaderLine `json:"headerLines"`
	PaperSize   PaperSize    `json:"paperSize"`
	PDFQuality  int          `json:"pdfQuality,omitempty"`
	FontFamily  FontFamily   `json:"fontFamily"`
	LineHeight  float64      `json:"lineHeight"`
	Margin      float64      `json:"margin"` // mm
}

// DefaultHeaderSettings returns the settings used when nothing is persisted.
func DefaultHeaderSettings() HeaderSettings {
	return HeaderSettings{
		ShowHeader: true,
		ShowLogo:   true,
		HeaderLines: []HeaderLine{
			{ID: "1", Text: "PEMERINTAH KOTA CONTOH"},
			{ID: "2", Text: "DINAS PENDIDIKAN DAN KEBUDAYAAN"},
			{ID: "3", Text: "SEKOLAH DASAR NEGERI 1 CONTOH"},
		},
		PaperSize:  PaperA4,
		PDFQuality: 95,
		FontFamily: FontSerif,
		LineHeight: 1.5,
		Margin:     20,
	}
}

// CloneExam returns a deep copy of e sharing no slices with it.
func CloneExam(e Exam) (Exam, error) {
	var out Exam
	if err := copier.CopyWithOption(&out, &e, copier.Option{DeepCopy: true}); err != nil {
		return Exam{}, fmt.Errorf("clone exam %s: %w", e.ID, err)
	}
	out.CreatedAt = e.CreatedAt
	return out, nil
}

// CloneQuestion returns a deep copy of q.
func CloneQuestion(q Question) (Question, error) {
	var out Question
	if err := copier.CopyWithOption(&out, &q, copier.Option{DeepCopy: true}); err != nil {
		return Question{}, fmt.Errorf("clone question %s: %w", q.ID, err)
	}
	return out, nil
}
