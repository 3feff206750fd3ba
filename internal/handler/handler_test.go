package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examsheet/internal/confirm"
	"github.com/pavelanni/examsheet/internal/i18n"
	"github.com/pavelanni/examsheet/internal/model"
	"github.com/pavelanni/examsheet/internal/repo"
	"github.com/pavelanni/examsheet/internal/store"
)

type testServer struct {
	router http.Handler
	exams  *repo.Exams
	bank   *repo.Bank
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	if err := i18n.Init("id"); err != nil {
		t.Fatal(err)
	}
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	opts := repo.Options{Confirmer: confirm.Contextual{}, Seed: 7}
	ts := &testServer{
		exams: repo.NewExams(s, opts),
		bank:  repo.NewBank(s, opts),
	}
	h := New(ts.exams, ts.bank, repo.NewSettings(s, opts))
	r := chi.NewRouter()
	r.Use(i18n.Middleware("id"))
	h.Routes(r)
	ts.router = r
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func mustAdd(t *testing.T, r *repo.Exams, e model.Exam) model.Exam {
	t.Helper()
	added, err := r.Add(e)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return added
}

func sampleExam() model.Exam {
	return model.Exam{
		Title:   "Ulangan IPA",
		Subject: "IPA",
		Grade:   "5",
		Time:    60,
		Sections: []model.Section{{
			ID: "s1", Title: "I", Instruction: "Pilihlah!",
			Questions: []model.Question{{
				ID: "q1", Type: model.MultipleChoice, QuestionNumber: "1", QuestionText: "Planet terbesar?",
				Options:          []model.Option{{ID: "o1", Label: "a", Text: "Mars"}, {ID: "o2", Label: "b", Text: "Jupiter"}},
				CorrectAnswerIDs: []string{"o2"},
			}},
		}},
	}
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestIndexListsExams(t *testing.T) {
	ts := newTestServer(t)
	ts.exams.Add(sampleExam())
	ts.exams.Add(model.Exam{Title: "IPS", Subject: "IPS"})

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/?subject=IPA", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []examSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "Ulangan IPA" || got[0].Questions != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestDocuments(t *testing.T) {
	ts := newTestServer(t)
	e := mustAdd(t, ts.exams, sampleExam())

	tests := []struct {
		name     string
		path     string
		contains string
		absent   string
	}{
		{"sheet", "/exams/" + e.ID + "/sheet", "Jupiter", "KUNCI JAWABAN"},
		{"key", "/exams/" + e.ID + "/key", "KUNCI JAWABAN", "Planet terbesar?"},
		{"key in english", "/exams/" + e.ID + "/key?lang=en", "ANSWER KEY", "KUNCI JAWABAN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			body := rec.Body.String()
			if !strings.Contains(body, tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
			if strings.Contains(body, tt.absent) {
				t.Errorf("body should not contain %q", tt.absent)
			}
		})
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/exams/"+e.ID+"/key?download=1", nil))
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "kunci_ulangan_ipa.html") {
		t.Errorf("Content-Disposition = %q", got)
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/exams/missing/sheet", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing exam status = %d", rec.Code)
	}
}

func TestDuplicateAndVariant(t *testing.T) {
	ts := newTestServer(t)
	e := mustAdd(t, ts.exams, sampleExam())

	for _, action := range []string{"duplicate", "variant"} {
		t.Run(action, func(t *testing.T) {
			rec := ts.do(t, httptest.NewRequest(http.MethodPost, "/exams/"+e.ID+"/"+action, nil))
			if rec.Code != http.StatusCreated {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body)
			}
			var got model.Exam
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if got.ID == e.ID {
				t.Error("new exam reuses the source id")
			}
		})
	}
	if n := len(ts.exams.All()); n != 3 {
		t.Errorf("collection has %d exams, want 3", n)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	ts := newTestServer(t)
	e := mustAdd(t, ts.exams, sampleExam())

	rec := ts.do(t, postForm("/exams/"+e.ID+"/delete", url.Values{}))
	if rec.Code != http.StatusConflict {
		t.Fatalf("unconfirmed delete status = %d", rec.Code)
	}
	if len(ts.exams.All()) != 1 {
		t.Fatal("unconfirmed delete removed the exam")
	}

	rec = ts.do(t, postForm("/exams/"+e.ID+"/delete", url.Values{"confirm": {"yes"}}))
	if rec.Code != http.StatusOK {
		t.Fatalf("confirmed delete status = %d", rec.Code)
	}
	if len(ts.exams.All()) != 0 {
		t.Error("confirmed delete kept the exam")
	}
}

func restoreRequest(t *testing.T, data string, confirmed bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("backup_file", "backup.json")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(data))
	if confirmed {
		mw.WriteField("confirm", "yes")
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/restore", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestBackupAndRestore(t *testing.T) {
	ts := newTestServer(t)
	ts.exams.Add(sampleExam())

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/backup", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("backup status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "backup-") {
		t.Errorf("Content-Disposition = %q", got)
	}
	backup := rec.Body.String()

	other := newTestServer(t)
	rec = other.do(t, restoreRequest(t, backup, true))
	if rec.Code != http.StatusOK {
		t.Fatalf("restore status = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "1 ujian dipulihkan.") {
		t.Errorf("body = %s", rec.Body)
	}
	if got := other.exams.All(); len(got) != 1 || got[0].Title != "Ulangan IPA" {
		t.Errorf("restored = %+v", got)
	}
}

func TestRestoreRejectsInvalidFile(t *testing.T) {
	ts := newTestServer(t)
	ts.exams.Add(sampleExam())

	rec := ts.do(t, restoreRequest(t, `{"not":"an array"}`, true))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Gagal memulihkan data") {
		t.Errorf("body = %s", rec.Body)
	}
	if len(ts.exams.All()) != 1 {
		t.Error("invalid restore changed the collection")
	}

	rec = ts.do(t, restoreRequest(t, `[]`, false))
	if rec.Code != http.StatusConflict {
		t.Errorf("unconfirmed restore status = %d", rec.Code)
	}
}

func TestBankAndSettings(t *testing.T) {
	ts := newTestServer(t)
	if _, err := ts.bank.Add(model.Question{QuestionText: "Sifat cahaya"}, "IPA", "5", []string{"fisika"}); err != nil {
		t.Fatal(err)
	}
	if _, err := ts.bank.Add(model.Question{QuestionText: "Ibu kota"}, "IPS", "5", nil); err != nil {
		t.Fatal(err)
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/bank?q=FISIKA", nil))
	var got []model.BankQuestion
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Subject != "IPA" {
		t.Errorf("bank = %+v", got)
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/bank?subject=PJOK", nil))
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty filter body = %s", rec.Body)
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/settings", nil))
	var hs model.HeaderSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &hs); err != nil {
		t.Fatal(err)
	}
	if hs.PaperSize != model.PaperA4 || len(hs.HeaderLines) != 3 {
		t.Errorf("settings = %+v", hs)
	}
}

func TestUpdateExam(t *testing.T) {
	ts := newTestServer(t)
	e := mustAdd(t, ts.exams, sampleExam())

	target := e.ID
	e.Title = "Ulangan Akhir"
	e.Status = model.StatusFinished
	e.ID = "ignored"
	body, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodPut, "/exams/"+target, bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	got, err := ts.exams.Get(target)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Ulangan Akhir" || got.Status != model.StatusFinished {
		t.Errorf("updated exam = %+v", got)
	}
	if _, err := ts.exams.Get("ignored"); err == nil {
		t.Error("body id was used instead of the path id")
	}

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"unknown exam", "/exams/missing", `{"status":"draft","sections":[{"id":"s1"}]}`, http.StatusNotFound},
		{"bad status", "/exams/" + target, `{"status":"done","sections":[{"id":"s1"}]}`, http.StatusBadRequest},
		{"no sections", "/exams/" + target, `{"status":"draft","sections":[]}`, http.StatusBadRequest},
		{"not json", "/exams/" + target, `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
		})
	}
}

func TestUpdateBankQuestion(t *testing.T) {
	ts := newTestServer(t)
	bq, err := ts.bank.Add(model.Question{Type: model.Essay, QuestionText: "Jelaskan fotosintesis"}, "IPA", "5", nil)
	if err != nil {
		t.Fatal(err)
	}

	bq.Tags = []string{"biologi"}
	bq.Grade = "6"
	body, _ := json.Marshal(bq)
	rec := ts.do(t, httptest.NewRequest(http.MethodPut, "/bank/"+bq.ID, bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	got, err := ts.bank.Get(bq.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Grade != "6" || len(got.Tags) != 1 || got.Tags[0] != "biologi" {
		t.Errorf("updated bank question = %+v", got)
	}
}

func TestNotFoundMessages(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name   string
		req    *http.Request
		want   string
		absent string
	}{
		{"exam", httptest.NewRequest(http.MethodGet, "/exams/missing", nil), "Ujian tidak ditemukan.", ""},
		{"bank question", httptest.NewRequest(http.MethodPut, "/bank/missing", strings.NewReader(`{}`)), "Soal bank tidak ditemukan.", "Ujian"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.req)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d", rec.Code)
			}
			body := rec.Body.String()
			if !strings.Contains(body, tt.want) {
				t.Errorf("body = %q, want %q", body, tt.want)
			}
			if tt.absent != "" && strings.Contains(body, tt.absent) {
				t.Errorf("body = %q mentions %q", body, tt.absent)
			}
		})
	}
}
