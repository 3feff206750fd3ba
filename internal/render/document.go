// Package render turns an exam and the header settings into the two printable
// documents: the question sheet and the answer key. Building a Document is
// pure; Page writes one out as a standalone HTML page.
package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/pavelanni/examsheet/internal/migrate"
	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/richtext"
)

// Kind distinguishes the two documents.
type Kind string

const (
	KindSheet Kind = "soal"
	KindKey   Kind = "kunci"
)

// AnswerLines is the number of blank lines reserved under an essay question
// that asks for answer space.
const AnswerLines = 3

// Labels are the fixed words printed on the documents.
type Labels struct {
	SheetTitle     string
	KeyDocTitle    string
	AnswerKeyTitle string
	Name           string
	Subject        string
	Grade          string
	Time           string
	Minutes        string
	Score          string
	Answer         string
	NotSet         string
	True           string
	False          string
	Logo           string
	Image          string
}

// DefaultLabels returns the Indonesian labels.
func DefaultLabels() Labels {
	return Labels{
		SheetTitle:     "Lembar Soal",
		KeyDocTitle:    "Kunci Jawaban",
		AnswerKeyTitle: "KUNCI JAWABAN",
		Name:           "Nama",
		Subject:        "Mata Pelajaran",
		Grade:          "Kelas/Jenjang",
		Time:           "Waktu",
		Minutes:        "Menit",
		Score:          "NILAI",
		Answer:         "Jawab:",
		NotSet:         "Belum diatur",
		True:           "Benar",
		False:          "Salah",
		Logo:           "Logo",
		Image:          "Gambar Soal",
	}
}

// NewLabels builds labels from a message lookup such as i18n.Translator.
func NewLabels(t func(msgID string) string) Labels {
	return Labels{
		SheetTitle:     t("SheetTitle"),
		KeyDocTitle:    t("AnswerKeyDocTitle"),
		AnswerKeyTitle: t("AnswerKeyTitle"),
		Name:           t("LabelName"),
		Subject:        t("LabelSubject"),
		Grade:          t("LabelGrade"),
		Time:           t("LabelTime"),
		Minutes:        t("LabelMinutes"),
		Score:          t("LabelScore"),
		Answer:         t("LabelAnswer"),
		NotSet:         t("NotSet"),
		True:           t("AnswerTrue"),
		False:          t("AnswerFalse"),
		Logo:           t("LabelLogo"),
		Image:          t("LabelImage"),
	}
}

// PageSetup is the fixed page geometry and typography of a document.
type PageSetup struct {
	Size       model.PaperSize
	WidthMM    float64
	HeightMM   float64
	MarginMM   float64
	FontStack  string
	LineHeight float64
}

// Header is the letterhead block.
type Header struct {
	Logo  string
	Lines []string
}

// Field is one row of the identity block. Blank fields print a dotted line
// to be filled in by hand.
type Field struct {
	Label string
	Value string
	Blank bool
}

// Item is a labelled piece of rich text: an option, a sub-question or a
// matching premise or response.
type Item struct {
	Label string
	Text  string
}

// Question is a question as it appears on the question sheet.
type Question struct {
	Number       string
	Text         string
	Image        string
	Options      []Item
	SubQuestions []Item
	Premises     []Item
	Responses    []Item
	AnswerLines  int
	NoSplit      bool
}

// AnswerRow is one question number with its derived answer. HTML answers are
// rich text; all others are plain text.
type AnswerRow struct {
	Number string
	Answer string
	HTML   bool
	NotSet bool
}

// Section is a section of either document. Sheets fill Questions, answer
// keys fill Answers.
type Section struct {
	Title       string
	Instruction string
	Questions   []Question
	Answers     []AnswerRow
	NoSplit     bool
}

// Document is a render-ready question sheet or answer key.
type Document struct {
	Kind     Kind
	Title    string
	Heading  string
	Subtitle string
	Page     PageSetup
	Header   *Header
	Identity []Field
	Sections []Section
	Labels   Labels
}

// Renderer builds documents with a fixed set of labels.
type Renderer struct {
	Labels Labels
}

// New returns a Renderer printing l.
func New(l Labels) Renderer {
	return Renderer{Labels: l}
}

// QuestionSheet builds the question sheet with the default labels.
func QuestionSheet(e model.Exam, hs model.HeaderSettings) Document {
	return New(DefaultLabels()).QuestionSheet(e, hs)
}

// AnswerKey builds the answer key with the default labels.
func AnswerKey(e model.Exam, hs model.HeaderSettings) Document {
	return New(DefaultLabels()).AnswerKey(e, hs)
}

// QuestionSheet builds the sheet handed to students. Nothing that reveals an
// answer is included.
func (r Renderer) QuestionSheet(e model.Exam, hs model.HeaderSettings) Document {
	doc := Document{
		Kind:   KindSheet,
		Title:  e.Title,
		Page:   pageSetup(hs),
		Labels: r.Labels,
		Identity: []Field{
			{Label: r.Labels.Name, Blank: true},
			{Label: r.Labels.Subject, Value: e.Subject},
			{Label: r.Labels.Grade, Value: e.Grade},
			{Label: r.Labels.Time, Value: strconv.Itoa(e.Time) + " " + r.Labels.Minutes},
		},
	}
	if hs.ShowHeader {
		h := &Header{Lines: make([]string, 0, len(hs.HeaderLines))}
		if hs.ShowLogo {
			h.Logo = hs.Logo
		}
		for _, l := range hs.HeaderLines {
			h.Lines = append(h.Lines, l.Text)
		}
		doc.Header = h
	}
	for _, s := range e.Sections {
		sec := Section{Title: s.Title, Instruction: s.Instruction, NoSplit: true}
		for _, q := range s.Questions {
			sec.Questions = append(sec.Questions, sheetQuestion(q))
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc
}

func sheetQuestion(q model.Question) Question {
	out := Question{
		Number:  q.QuestionNumber,
		Text:    q.QuestionText,
		Image:   q.Image,
		NoSplit: true,
	}
	for _, sq := range q.SubQuestions {
		out.SubQuestions = append(out.SubQuestions, Item{Label: sq.Number, Text: sq.Text})
	}
	switch q.Type {
	case model.MultipleChoice, model.MultipleChoiceComplex:
		for _, o := range q.Options {
			out.Options = append(out.Options, Item{Label: o.Label, Text: o.Text})
		}
	case model.Matching:
		for i, p := range q.MatchingPremises {
			out.Premises = append(out.Premises, Item{Label: strconv.Itoa(i + 1), Text: p.Text})
		}
		for i, resp := range q.MatchingResponses {
			out.Responses = append(out.Responses, Item{Label: responseLetter(i), Text: resp.Text})
		}
	case model.Essay:
		if q.IncludeAnswerSpace {
			out.AnswerLines = AnswerLines
		}
	}
	return out
}

// AnswerKey builds the teacher's answer key: per section, each question
// number with its correct answer.
func (r Renderer) AnswerKey(e model.Exam, hs model.HeaderSettings) Document {
	doc := Document{
		Kind:     KindKey,
		Title:    e.Title,
		Heading:  r.Labels.AnswerKeyTitle,
		Subtitle: e.Subject + " - " + e.Grade,
		Page:     pageSetup(hs),
		Labels:   r.Labels,
	}
	for _, s := range e.Sections {
		sec := Section{Title: s.Title, NoSplit: true, Answers: []AnswerRow{}}
		for _, q := range s.Questions {
			sec.Answers = append(sec.Answers, r.Answer(q))
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc
}

// Answer derives the answer key entry of one question. Any question whose
// key is unset or no longer resolves gets the NotSet marker.
func (r Renderer) Answer(q model.Question) AnswerRow {
	row := AnswerRow{Number: q.QuestionNumber}
	var answer string
	switch q.Type {
	case model.MultipleChoice:
		for _, o := range q.Options {
			if q.IsCorrect(o.ID) {
				answer = strings.ToUpper(o.Label)
				break
			}
		}
	case model.MultipleChoiceComplex:
		var labels []string
		for _, o := range q.Options {
			if q.IsCorrect(o.ID) && o.Label != "" {
				labels = append(labels, strings.ToUpper(o.Label))
			}
		}
		answer = strings.Join(labels, ", ")
	case model.TrueFalse:
		switch q.TrueFalseAnswer {
		case model.AnswerTrue:
			answer = r.Labels.True
		case model.AnswerFalse:
			answer = r.Labels.False
		}
	case model.Matching:
		answer = matchingAnswer(q)
	case model.ShortAnswer, model.Essay:
		if richtext.IsBlank(q.AnswerKey) {
			row.Answer = "-"
			return row
		}
		row.Answer = q.AnswerKey
		row.HTML = true
		return row
	}
	if answer == "" {
		row.Answer = r.Labels.NotSet
		row.NotSet = true
		return row
	}
	row.Answer = answer
	return row
}

// matchingAnswer formats the key as "1-B, 2-A", skipping pairs whose premise
// or response was deleted.
func matchingAnswer(q model.Question) string {
	var pairs []string
	for _, pair := range q.AnswerKeyMatching {
		p := indexOf(q.MatchingPremises, pair.PremiseID)
		resp := indexOf(q.MatchingResponses, pair.ResponseID)
		if p < 0 || resp < 0 {
			continue
		}
		pairs = append(pairs, strconv.Itoa(p+1)+"-"+responseLetter(resp))
	}
	return strings.Join(pairs, ", ")
}

func indexOf(items []model.MatchingItem, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func responseLetter(i int) string {
	return strings.ToUpper(migrate.Letter(i))
}

const (
	fontStackSerif = `"Liberation Serif", "Times New Roman", serif`
	fontStackSans  = `"Liberation Sans", Arial, sans-serif`
)

func pageSetup(hs model.HeaderSettings) PageSetup {
	p := PageSetup{
		Size:       model.PaperA4,
		WidthMM:    210,
		HeightMM:   297,
		MarginMM:   hs.Margin,
		FontStack:  fontStackSerif,
		LineHeight: hs.LineHeight,
	}
	if hs.PaperSize == model.PaperF4 {
		p.Size = model.PaperF4
		p.HeightMM = 330
	}
	if hs.FontFamily == model.FontSans {
		p.FontStack = fontStackSans
	}
	if p.LineHeight <= 0 {
		p.LineHeight = model.DefaultHeaderSettings().LineHeight
	}
	if p.MarginMM < 0 {
		p.MarginMM = 0
	}
	return p
}

// FileName returns the export file name of a document, e.g.
// "soal_ulangan_harian.html".
func FileName(kind Kind, title string) string {
	safe := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, title)
	return string(kind) + "_" + strings.ToLower(safe) + ".html"
}

// BackupFileName returns the name of a backup written on day t.
func BackupFileName(t time.Time) string {
	return "backup-" + t.Format("2006-01-02") + ".json"
}
