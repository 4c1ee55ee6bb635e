package analytics

import (
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"survey_pipeline/internal/model"
	"survey_pipeline/internal/sniff"
	"survey_pipeline/internal/storage"
)

func newTestReader(t *testing.T) (*Reader, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	store, err := storage.NewStore(db)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return NewReader(store), db
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("Failed to seed %T: %v", v, err)
	}
}

func fptr(f float64) *float64 { return &f }
func bptr(b bool) *bool       { return &b }

// seedSurvey builds one survey with a numeric, a boolean, and a text
// question, answered across three responses from two respondents over two
// days.
func seedSurvey(t *testing.T, db *gorm.DB) *model.Survey {
	t.Helper()
	sp := model.Spreadsheet{SheetID: "sheet-1", TabName: "Responses", Title: "Maturity 2026", Kind: "survey"}
	mustCreate(t, db, &sp)

	sv := model.Survey{SpreadsheetID: sp.ID, Name: sp.Title, Kind: sp.Kind}
	mustCreate(t, db, &sv)

	questions := []model.Question{
		{SurveyID: sv.ID, Text: "How mature is your data practice?", ValueType: sniff.TypeNumber, OrderIndex: 0},
		{SurveyID: sv.ID, Text: "Do you use automation?", ValueType: sniff.TypeBoolean, OrderIndex: 1},
		{SurveyID: sv.ID, Text: "Comments", ValueType: sniff.TypeText, OrderIndex: 2},
	}
	for i := range questions {
		mustCreate(t, db, &questions[i])
	}

	people := []model.Respondent{
		{Fingerprint: "a@x.org", Email: "a@x.org"},
		{Fingerprint: "b@x.org", Email: "b@x.org"},
	}
	for i := range people {
		mustCreate(t, db, &people[i])
	}

	day1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	responses := []model.Response{
		{SurveyID: sv.ID, RespondentID: people[0].ID, ContentHash: "h1", SubmittedAt: day1},
		{SurveyID: sv.ID, RespondentID: people[1].ID, ContentHash: "h2", SubmittedAt: day1},
		{SurveyID: sv.ID, RespondentID: people[0].ID, ContentHash: "h3", SubmittedAt: day2},
	}
	for i := range responses {
		mustCreate(t, db, &responses[i])
	}

	answers := []model.Answer{
		{ResponseID: responses[0].ID, QuestionID: questions[0].ID, RawValue: "4", ValueType: sniff.TypeNumber, NumberValue: fptr(4)},
		{ResponseID: responses[0].ID, QuestionID: questions[1].ID, RawValue: "Yes", ValueType: sniff.TypeBoolean, BoolValue: bptr(true)},
		{ResponseID: responses[0].ID, QuestionID: questions[2].ID, RawValue: "solid", ValueType: sniff.TypeText, TextValue: "solid"},
		{ResponseID: responses[1].ID, QuestionID: questions[0].ID, RawValue: "2", ValueType: sniff.TypeNumber, NumberValue: fptr(2)},
		{ResponseID: responses[1].ID, QuestionID: questions[1].ID, RawValue: "No", ValueType: sniff.TypeBoolean, BoolValue: bptr(false)},
		{ResponseID: responses[2].ID, QuestionID: questions[0].ID, RawValue: "4", ValueType: sniff.TypeNumber, NumberValue: fptr(4)},
	}
	for i := range answers {
		mustCreate(t, db, &answers[i])
	}

	mustCreate(t, db, &model.RawRecord{SpreadsheetID: sp.ID, ContentHash: "raw", RowCount: 5, Normalized: true})
	synced := day2
	checked := day2
	mustCreate(t, db, &model.SyncState{SpreadsheetID: sp.ID, LastHash: "raw", LastSynced: &synced, LastChecked: &checked, LastOutcome: model.OutcomeSynced})
	return &sv
}

func TestOverview(t *testing.T) {
	r, db := newTestReader(t)
	seedSurvey(t, db)

	o, err := r.Overview()
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if o.Surveys != 1 || o.Questions != 3 || o.Respondents != 2 || o.Responses != 3 || o.Answers != 6 {
		t.Errorf("Unexpected counts: %+v", o)
	}
	if o.LastSynced == nil {
		t.Error("Expected last sync time from sync state")
	}
}

func TestOverviewEmpty(t *testing.T) {
	r, _ := newTestReader(t)

	o, err := r.Overview()
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if o.Surveys != 0 || o.Responses != 0 {
		t.Errorf("Expected zero counts, got %+v", o)
	}
	if o.LastSynced != nil {
		t.Error("Expected no last sync time")
	}
}

func TestListSurveys(t *testing.T) {
	r, db := newTestReader(t)
	seedSurvey(t, db)

	surveys, err := r.ListSurveys()
	if err != nil {
		t.Fatalf("ListSurveys failed: %v", err)
	}
	if len(surveys) != 1 {
		t.Fatalf("Expected 1 survey, got %d", len(surveys))
	}

	s := surveys[0]
	if s.Name != "Maturity 2026" {
		t.Errorf("Unexpected name %q", s.Name)
	}
	if s.Responses != 3 || s.Respondents != 2 || s.Questions != 3 {
		t.Errorf("Unexpected participation: %+v", s)
	}
	// 6 answers over 3 responses x 3 questions.
	if s.CompletionRate < 0.66 || s.CompletionRate > 0.67 {
		t.Errorf("Expected completion rate ~0.667, got %f", s.CompletionRate)
	}
	// Mean of 4, 2, 4.
	if s.MaturityScore == nil || *s.MaturityScore < 3.32 || *s.MaturityScore > 3.34 {
		t.Errorf("Expected maturity score ~3.33, got %v", s.MaturityScore)
	}
	if s.LastSubmission == nil || s.LastSubmission.Day() != 2 {
		t.Errorf("Expected last submission on day 2, got %v", s.LastSubmission)
	}
}

func TestSurveyDetail(t *testing.T) {
	r, db := newTestReader(t)
	sv := seedSurvey(t, db)

	d, err := r.SurveyDetail(sv.ID)
	if err != nil {
		t.Fatalf("SurveyDetail failed: %v", err)
	}

	if d.Funnel.RowsFetched != 5 || d.Funnel.Responses != 3 || d.Funnel.Respondents != 2 {
		t.Errorf("Unexpected funnel: %+v", d.Funnel)
	}

	if len(d.Questions) != 3 {
		t.Fatalf("Expected 3 question breakdowns, got %d", len(d.Questions))
	}

	numeric := d.Questions[0]
	if numeric.Answered != 3 {
		t.Errorf("Expected 3 numeric answers, got %d", numeric.Answered)
	}
	if numeric.Histogram["4"] != 2 || numeric.Histogram["2"] != 1 {
		t.Errorf("Unexpected numeric histogram: %v", numeric.Histogram)
	}
	if numeric.Average == nil || *numeric.Average < 3.32 || *numeric.Average > 3.34 {
		t.Errorf("Expected average ~3.33, got %v", numeric.Average)
	}

	boolean := d.Questions[1]
	if boolean.Histogram["yes"] != 1 || boolean.Histogram["no"] != 1 {
		t.Errorf("Unexpected boolean histogram: %v", boolean.Histogram)
	}

	text := d.Questions[2]
	if len(text.Samples) != 1 || text.Samples[0] != "solid" {
		t.Errorf("Unexpected text samples: %v", text.Samples)
	}
	if text.Histogram != nil {
		t.Errorf("Expected no histogram for text, got %v", text.Histogram)
	}

	if len(d.Timeseries) != 2 {
		t.Fatalf("Expected 2 days in timeseries, got %d", len(d.Timeseries))
	}
	if d.Timeseries[0].Date != "2026-08-01" || d.Timeseries[0].Count != 2 {
		t.Errorf("Unexpected first day: %+v", d.Timeseries[0])
	}
	if d.Timeseries[1].Date != "2026-08-02" || d.Timeseries[1].Count != 1 {
		t.Errorf("Unexpected second day: %+v", d.Timeseries[1])
	}
}

func TestSurveyDetailNotFound(t *testing.T) {
	r, _ := newTestReader(t)

	_, err := r.SurveyDetail(999)
	if !errors.Is(err, ErrSurveyNotFound) {
		t.Errorf("Expected ErrSurveyNotFound, got %v", err)
	}
}

func TestTrimFloat(t *testing.T) {
	cases := map[float64]string{4: "4", 2.5: "2.5", 1000: "1000"}
	for in, want := range cases {
		if got := trimFloat(in); got != want {
			t.Errorf("trimFloat(%v) = %q, want %q", in, got, want)
		}
	}
}
