package variant

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/pavelanni/examsheet/internal/model"
)

var fixedNow = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestGenerator(seed uint64) *Generator {
	n := 0
	return NewSeeded(seed, func() string {
		n++
		return fmt.Sprintf("variant-%d", n)
	}, func() time.Time { return fixedNow })
}

func mcQuestion(id string, correct string, optionIDs ...string) model.Question {
	q := model.Question{ID: id, Type: model.MultipleChoice, QuestionText: "<p>" + id + "</p>"}
	for i, oid := range optionIDs {
		q.Options = append(q.Options, model.Option{ID: oid, Label: string(rune('a' + i)), Text: "opt " + oid})
	}
	if correct != "" {
		q.CorrectAnswerIDs = []string{correct}
	}
	return q
}

func testExam() model.Exam {
	var qs []model.Question
	for i := 1; i <= 6; i++ {
		id := "q" + strconv.Itoa(i)
		q := mcQuestion(id, id+"-o3", id+"-o1", id+"-o2", id+"-o3", id+"-o4")
		q.QuestionNumber = strconv.Itoa(i)
		qs = append(qs, q)
	}
	essay := model.Question{ID: "e1", Type: model.Essay, QuestionNumber: "1", AnswerKey: "k"}
	complexQ := model.Question{
		ID: "c1", Type: model.MultipleChoiceComplex, QuestionNumber: "2",
		Options: []model.Option{
			{ID: "x", Label: "P", Text: "x"},
			{ID: "y", Label: "Q", Text: "y"},
			{ID: "z", Label: "R", Text: "z"},
		},
		CorrectAnswerIDs: []string{"x", "z"},
	}
	return model.Exam{
		ID:        "src",
		Title:     "Ujian",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:    model.StatusFinished,
		Sections: []model.Section{
			{ID: "s1", Title: "I", Questions: qs},
			{ID: "s2", Title: "II", Questions: []model.Question{essay, complexQ}},
			{ID: "s3", Title: "III", Questions: nil},
		},
	}
}

func ids(qs []model.Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	sort.Strings(out)
	return out
}

func TestGenerateMetadata(t *testing.T) {
	g := newTestGenerator(1)
	v, err := g.Generate(testExam())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if v.ID != "variant-1" {
		t.Errorf("expected new id, got %q", v.ID)
	}
	if !v.CreatedAt.Equal(fixedNow) {
		t.Errorf("expected createdAt %v, got %v", fixedNow, v.CreatedAt)
	}
	if v.Title != "Ujian (Varian Acak)" {
		t.Errorf("unexpected title %q", v.Title)
	}
	if v.Status != model.StatusFinished {
		t.Errorf("status should be copied, got %q", v.Status)
	}
	var titles []string
	for _, s := range v.Sections {
		titles = append(titles, s.ID+":"+s.Title)
	}
	if fmt.Sprint(titles) != "[s1:I s2:II s3:III]" {
		t.Errorf("sections must keep order and titles, got %v", titles)
	}
}

func TestGeneratePreservesQuestionSets(t *testing.T) {
	src := testExam()
	for seed := uint64(0); seed < 20; seed++ {
		v, err := newTestGenerator(seed).Generate(src)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		for si, sec := range v.Sections {
			if fmt.Sprint(ids(sec.Questions)) != fmt.Sprint(ids(src.Sections[si].Questions)) {
				t.Errorf("seed %d section %s: question set changed", seed, sec.ID)
			}
			for qi, q := range sec.Questions {
				if q.QuestionNumber != strconv.Itoa(qi+1) {
					t.Errorf("seed %d section %s: position %d numbered %q", seed, sec.ID, qi, q.QuestionNumber)
				}
			}
		}
	}
}

func TestGeneratePreservesCorrectness(t *testing.T) {
	src := testExam()
	for seed := uint64(0); seed < 20; seed++ {
		v, _ := newTestGenerator(seed).Generate(src)
		for _, q := range v.Sections[0].Questions {
			want := q.ID + "-o3"
			if len(q.CorrectAnswerIDs) != 1 || q.CorrectAnswerIDs[0] != want {
				t.Fatalf("seed %d: correct ids changed to %v", seed, q.CorrectAnswerIDs)
			}
			found := false
			for i, o := range q.Options {
				if o.ID == want {
					found = true
				}
				if o.Label != string(rune('a'+i)) {
					t.Errorf("seed %d: default labels not re-lettered: %q at %d", seed, o.Label, i)
				}
				if o.Text != "opt "+o.ID {
					t.Errorf("seed %d: option text detached from id %s", seed, o.ID)
				}
			}
			if !found {
				t.Fatalf("seed %d: correct option %s missing", seed, want)
			}
		}
	}
}

func TestGenerateKeepsCustomLabels(t *testing.T) {
	v, _ := newTestGenerator(3).Generate(testExam())
	var c model.Question
	for _, q := range v.Sections[1].Questions {
		if q.ID == "c1" {
			c = q
		}
	}
	labels := map[string]string{"x": "P", "y": "Q", "z": "R"}
	for _, o := range c.Options {
		if labels[o.ID] != o.Label {
			t.Errorf("custom label moved: option %s has %q", o.ID, o.Label)
		}
	}
	if fmt.Sprint(c.CorrectAnswerIDs) != "[x z]" {
		t.Errorf("correct ids changed: %v", c.CorrectAnswerIDs)
	}
}

func TestGenerateDoesNotMutateSource(t *testing.T) {
	src := testExam()
	before, _ := json.Marshal(src)
	for seed := uint64(0); seed < 5; seed++ {
		v, _ := newTestGenerator(seed).Generate(src)
		v.Sections[0].Questions[0].Options[0].Text = "changed"
		v.Sections[1].Questions[0].AnswerKey = "changed"
	}
	after, _ := json.Marshal(src)
	if string(before) != string(after) {
		t.Errorf("source exam mutated:\nbefore %s\nafter  %s", before, after)
	}
}

func TestGenerateShuffles(t *testing.T) {
	src := testExam()
	orig := fmt.Sprint(src.Sections[0].Questions[0].ID, src.Sections[0].Questions[5].ID)
	changed := false
	for seed := uint64(0); seed < 30 && !changed; seed++ {
		v, _ := newTestGenerator(seed).Generate(src)
		qs := v.Sections[0].Questions
		if fmt.Sprint(qs[0].ID, qs[5].ID) != orig {
			changed = true
		}
	}
	if !changed {
		t.Error("question order never changed across 30 seeds")
	}
}

func TestGenerateDeterministicSeed(t *testing.T) {
	a, _ := newTestGenerator(42).Generate(testExam())
	b, _ := newTestGenerator(42).Generate(testExam())
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Error("same seed produced different variants")
	}
}

func TestGenerateTrivialCases(t *testing.T) {
	e := model.Exam{ID: "x", Sections: []model.Section{
		{ID: "empty"},
		{ID: "one", Questions: []model.Question{mcQuestion("solo", "o1", "o1")}},
	}}
	v, err := newTestGenerator(7).Generate(e)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(v.Sections[0].Questions) != 0 {
		t.Error("empty section gained questions")
	}
	q := v.Sections[1].Questions[0]
	if q.QuestionNumber != "1" || len(q.Options) != 1 || q.Options[0].ID != "o1" {
		t.Errorf("single question/option changed: %+v", q)
	}
}
