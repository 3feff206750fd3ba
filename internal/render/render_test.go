package render

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pavelanni/examsheet/internal/model"
)

func examWith(qs ...model.Question) model.Exam {
	return model.Exam{
		Title:   "Ulangan Harian",
		Subject: "IPA",
		Grade:   "5",
		Time:    90,
		Sections: []model.Section{{
			ID:          "s1",
			Title:       "I",
			Instruction: "<b>Pilihlah</b> jawaban yang benar!",
			Questions:   qs,
		}},
	}
}

func TestAnswerKeyScenarioA(t *testing.T) {
	q := model.Question{
		ID:               "q1",
		Type:             model.MultipleChoice,
		QuestionNumber:   "1",
		Options:          []model.Option{{ID: "o1", Label: "a"}, {ID: "o2", Label: "b"}},
		CorrectAnswerIDs: []string{"o2"},
	}
	doc := AnswerKey(examWith(q), model.DefaultHeaderSettings())
	row := doc.Sections[0].Answers[0]
	if row.Answer != "B" || row.NotSet {
		t.Errorf("answer = %+v, want B", row)
	}
}

func TestAnswerDerivation(t *testing.T) {
	opts := []model.Option{{ID: "o1", Label: "a"}, {ID: "o2", Label: "b"}, {ID: "o3", Label: "c"}}
	premises := []model.MatchingItem{{ID: "p1"}, {ID: "p2"}}
	responses := []model.MatchingItem{{ID: "r1"}, {ID: "r2"}}

	tests := []struct {
		name   string
		q      model.Question
		want   string
		notSet bool
		html   bool
	}{
		{"mc unset", model.Question{Type: model.MultipleChoice, Options: opts}, "Belum diatur", true, false},
		{"mc dangling id", model.Question{Type: model.MultipleChoice, Options: opts, CorrectAnswerIDs: []string{"gone"}}, "Belum diatur", true, false},
		{"complex", model.Question{Type: model.MultipleChoiceComplex, Options: opts, CorrectAnswerIDs: []string{"o3", "o1"}}, "A, C", false, false},
		{"complex unset", model.Question{Type: model.MultipleChoiceComplex, Options: opts}, "Belum diatur", true, false},
		{"true", model.Question{Type: model.TrueFalse, TrueFalseAnswer: model.AnswerTrue}, "Benar", false, false},
		{"false", model.Question{Type: model.TrueFalse, TrueFalseAnswer: model.AnswerFalse}, "Salah", false, false},
		{"true false unset", model.Question{Type: model.TrueFalse}, "Belum diatur", true, false},
		{"matching", model.Question{
			Type: model.Matching, MatchingPremises: premises, MatchingResponses: responses,
			AnswerKeyMatching: []model.MatchingAnswer{{PremiseID: "p1", ResponseID: "r2"}, {PremiseID: "p2", ResponseID: "r1"}},
		}, "1-B, 2-A", false, false},
		{"matching skips dangling pairs", model.Question{
			Type: model.Matching, MatchingPremises: premises, MatchingResponses: responses,
			AnswerKeyMatching: []model.MatchingAnswer{{PremiseID: "gone", ResponseID: "r1"}, {PremiseID: "p2", ResponseID: "r2"}},
		}, "2-B", false, false},
		{"matching all dangling", model.Question{
			Type: model.Matching, MatchingPremises: premises, MatchingResponses: responses,
			AnswerKeyMatching: []model.MatchingAnswer{{PremiseID: "p1", ResponseID: "gone"}},
		}, "Belum diatur", true, false},
		{"matching unset", model.Question{Type: model.Matching, MatchingPremises: premises}, "Belum diatur", true, false},
		{"essay", model.Question{Type: model.Essay, AnswerKey: "<p>Fotosintesis</p>"}, "<p>Fotosintesis</p>", false, true},
		{"essay empty", model.Question{Type: model.Essay}, "-", false, false},
		{"short answer blank markup", model.Question{Type: model.ShortAnswer, AnswerKey: "<p>&nbsp;</p>"}, "-", false, false},
		{"unknown type", model.Question{Type: "POLL"}, "Belum diatur", true, false},
	}
	r := New(DefaultLabels())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Answer(tt.q)
			if got.Answer != tt.want || got.NotSet != tt.notSet || got.HTML != tt.html {
				t.Errorf("Answer() = %+v, want %q notSet=%v html=%v", got, tt.want, tt.notSet, tt.html)
			}
		})
	}
}

func TestQuestionSheetHidesAnswers(t *testing.T) {
	e := examWith(
		model.Question{
			Type: model.MultipleChoice, QuestionNumber: "1", QuestionText: "Planet terbesar?",
			Options:          []model.Option{{ID: "o1", Label: "a", Text: "Mars"}, {ID: "o2", Label: "b", Text: "Jupiter"}},
			CorrectAnswerIDs: []string{"o2"},
		},
		model.Question{Type: model.Essay, QuestionNumber: "2", QuestionText: "Jelaskan!", AnswerKey: "RAHASIA", IncludeAnswerSpace: true},
		model.Question{Type: model.ShortAnswer, QuestionNumber: "3", AnswerKey: "RAHASIA", IncludeAnswerSpace: true,
			SubQuestions: []model.SubQuestion{{ID: "a", Number: "a", Text: "bagian a"}}},
		model.Question{Type: model.Matching, QuestionNumber: "4",
			MatchingPremises:  []model.MatchingItem{{ID: "p1", Text: "Jawa Barat"}},
			MatchingResponses: []model.MatchingItem{{ID: "r1", Text: "Bandung"}, {ID: "r2", Text: "Surabaya"}},
		},
		model.Question{Type: model.TrueFalse, QuestionNumber: "5", TrueFalseAnswer: model.AnswerTrue,
			Options: []model.Option{{ID: "stale", Label: "x"}}},
	)
	doc := QuestionSheet(e, model.DefaultHeaderSettings())
	qs := doc.Sections[0].Questions

	if len(qs[0].Options) != 2 || qs[0].Options[1].Label != "b" {
		t.Errorf("options = %+v", qs[0].Options)
	}
	if qs[1].AnswerLines != AnswerLines {
		t.Errorf("essay answer lines = %d", qs[1].AnswerLines)
	}
	if qs[2].AnswerLines != 0 {
		t.Error("short answer should not get answer lines")
	}
	if len(qs[2].SubQuestions) != 1 || qs[2].SubQuestions[0].Label != "a" {
		t.Errorf("sub-questions = %+v", qs[2].SubQuestions)
	}
	if qs[3].Premises[0].Label != "1" || qs[3].Responses[1].Label != "B" {
		t.Errorf("matching = %+v / %+v", qs[3].Premises, qs[3].Responses)
	}
	if len(qs[4].Options) != 0 {
		t.Error("stale options rendered for a true/false question")
	}
	for _, q := range qs {
		if !q.NoSplit {
			t.Errorf("question %s is splittable", q.Number)
		}
	}

	var buf bytes.Buffer
	if err := Page(doc).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	if strings.Contains(html, "RAHASIA") {
		t.Error("question sheet leaks the answer key")
	}
	for _, want := range []string{"Jupiter", "<b>Pilihlah</b>", "90 Menit", "NILAI", "Jawab:", "bagian a", "break-inside: avoid"} {
		if !strings.Contains(html, want) {
			t.Errorf("page is missing %q", want)
		}
	}
}

func TestQuestionSheetHeader(t *testing.T) {
	hs := model.DefaultHeaderSettings()
	hs.Logo = "data:image/png;base64,AAAA"
	doc := QuestionSheet(examWith(), hs)
	if doc.Header == nil || doc.Header.Logo == "" || len(doc.Header.Lines) != 3 {
		t.Fatalf("header = %+v", doc.Header)
	}

	hs.ShowLogo = false
	if doc := QuestionSheet(examWith(), hs); doc.Header.Logo != "" {
		t.Error("logo shown although showLogo is off")
	}
	hs.ShowHeader = false
	if doc := QuestionSheet(examWith(), hs); doc.Header != nil {
		t.Error("header shown although showHeader is off")
	}
}

func TestIdentityBlock(t *testing.T) {
	doc := QuestionSheet(examWith(), model.DefaultHeaderSettings())
	want := []Field{
		{Label: "Nama", Blank: true},
		{Label: "Mata Pelajaran", Value: "IPA"},
		{Label: "Kelas/Jenjang", Value: "5"},
		{Label: "Waktu", Value: "90 Menit"},
	}
	if len(doc.Identity) != len(want) {
		t.Fatalf("identity = %+v", doc.Identity)
	}
	for i := range want {
		if doc.Identity[i] != want[i] {
			t.Errorf("field %d = %+v, want %+v", i, doc.Identity[i], want[i])
		}
	}
}

func TestPageSetup(t *testing.T) {
	tests := []struct {
		name    string
		paper   model.PaperSize
		font    model.FontFamily
		height  float64
		fontSub string
	}{
		{"a4 serif", model.PaperA4, model.FontSerif, 297, "Liberation Serif"},
		{"f4 sans", model.PaperF4, model.FontSans, 330, "Liberation Sans"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := model.DefaultHeaderSettings()
			hs.PaperSize = tt.paper
			hs.FontFamily = tt.font
			hs.Margin = 15
			hs.LineHeight = 1.8
			p := AnswerKey(examWith(), hs).Page
			if p.WidthMM != 210 || p.HeightMM != tt.height || p.MarginMM != 15 || p.LineHeight != 1.8 {
				t.Errorf("page = %+v", p)
			}
			if !strings.Contains(p.FontStack, tt.fontSub) {
				t.Errorf("font stack = %q", p.FontStack)
			}
		})
	}
}

func TestAnswerKeyPage(t *testing.T) {
	e := examWith(
		model.Question{Type: model.TrueFalse, QuestionNumber: "1"},
		model.Question{Type: model.Essay, QuestionNumber: "2", AnswerKey: "<i>daun</i>"},
	)
	e.Title = "Ujian <Akhir>"
	doc := AnswerKey(e, model.DefaultHeaderSettings())
	if doc.Heading != "KUNCI JAWABAN" || doc.Subtitle != "IPA - 5" {
		t.Errorf("heading = %q subtitle = %q", doc.Heading, doc.Subtitle)
	}
	if !doc.Sections[0].NoSplit {
		t.Error("answer key section is splittable")
	}

	var buf bytes.Buffer
	if err := Page(doc).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	html := buf.String()
	for _, want := range []string{`<span class="not-set">Belum diatur</span>`, "<i>daun</i>", "Ujian &lt;Akhir&gt;", "size: 210mm 297mm"} {
		if !strings.Contains(html, want) {
			t.Errorf("page is missing %q", want)
		}
	}
}

func TestNewLabels(t *testing.T) {
	l := NewLabels(func(id string) string { return "<" + id + ">" })
	if l.NotSet != "<NotSet>" || l.AnswerKeyTitle != "<AnswerKeyTitle>" || l.True != "<AnswerTrue>" {
		t.Errorf("labels = %+v", l)
	}
	r := New(l)
	if got := r.Answer(model.Question{Type: model.TrueFalse}); got.Answer != "<NotSet>" {
		t.Errorf("Answer = %+v", got)
	}
}

func TestFileNames(t *testing.T) {
	tests := []struct {
		kind  Kind
		title string
		want  string
	}{
		{KindSheet, "Ulangan Harian IPA", "soal_ulangan_harian_ipa.html"},
		{KindKey, "PTS 2024/2025", "kunci_pts_2024_2025.html"},
		{KindSheet, "Matematika Ü", "soal_matematika__.html"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FileName(tt.kind, tt.title); got != tt.want {
				t.Errorf("FileName(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
	if got := BackupFileName(time.Date(2024, 8, 17, 10, 0, 0, 0, time.UTC)); got != "backup-2024-08-17.json" {
		t.Errorf("BackupFileName = %q", got)
	}
}
