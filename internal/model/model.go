package model

import "time"

// Spreadsheet is one registered source tab. Registered on first successful
// fetch and soft-retained after that (never deleted).
type Spreadsheet struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	SheetID   string `gorm:"uniqueIndex:uk_sheet_tab;size:128" json:"sheet_id"`
	TabName   string `gorm:"uniqueIndex:uk_sheet_tab;size:128" json:"tab_name"`
	Title     string `json:"title"`
	Kind      string `gorm:"default:survey" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RawRecord is one immutable snapshot of a tab. Later fetches supersede it
// with new rows, they never overwrite it.
type RawRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SpreadsheetID uint      `gorm:"index" json:"spreadsheet_id"`
	JobID         string    `gorm:"size:36" json:"job_id"`
	ContentHash   string    `gorm:"index;size:64" json:"content_hash"`
	RowsJSON      string    `json:"-"`
	RowCount      int       `json:"row_count"`
	Normalized    bool      `gorm:"default:false" json:"normalized"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExtractionJob records one batch fetch attempt across all spreadsheets.
type ExtractionJob struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Status     string     `gorm:"default:pending" json:"status"`
	Attempted  int        `json:"attempted"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Extraction job statuses.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

type Survey struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SpreadsheetID uint      `gorm:"uniqueIndex" json:"spreadsheet_id"`
	Name          string    `json:"name"`
	Kind          string    `json:"kind"`
	CreatedAt     time.Time `json:"created_at"`
}

type Question struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	SurveyID   uint   `gorm:"uniqueIndex:uk_survey_order" json:"survey_id"`
	Text       string `json:"text"`
	ValueType  string `json:"value_type"`
	OrderIndex int    `gorm:"uniqueIndex:uk_survey_order" json:"order_index"`
}

// Respondent is shared across responses and keyed by fingerprint, so the
// same person resubmitting maps to one row.
type Respondent struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Fingerprint  string    `gorm:"uniqueIndex;size:64" json:"fingerprint"`
	Email        string    `json:"email,omitempty"`
	Name         string    `json:"name,omitempty"`
	Organization string    `json:"organization,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Response struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SurveyID     uint      `gorm:"uniqueIndex:uk_survey_hash" json:"survey_id"`
	RespondentID uint      `gorm:"index" json:"respondent_id"`
	ContentHash  string    `gorm:"uniqueIndex:uk_survey_hash;size:64" json:"content_hash"`
	SubmittedAt  time.Time `json:"submitted_at"`
	CreatedAt    time.Time `json:"created_at"`
}

type Answer struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ResponseID  uint       `gorm:"uniqueIndex:uk_response_question" json:"response_id"`
	QuestionID  uint       `gorm:"uniqueIndex:uk_response_question" json:"question_id"`
	RawValue    string     `json:"raw_value"`
	ValueType   string     `json:"value_type"`
	NumberValue *float64   `json:"number_value,omitempty"`
	BoolValue   *bool      `json:"bool_value,omitempty"`
	DateValue   *time.Time `json:"date_value,omitempty"`
	TextValue   string     `json:"text_value,omitempty"`
}

// SyncState is the change detector's per-spreadsheet memory: the hash it saw
// last and how the last cycle ended.
type SyncState struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	SpreadsheetID uint       `gorm:"uniqueIndex" json:"spreadsheet_id"`
	LastHash      string     `gorm:"size:64" json:"last_hash"`
	LastChecked   *time.Time `json:"last_checked,omitempty"`
	LastSynced    *time.Time `json:"last_synced,omitempty"`
	LastOutcome   string     `json:"last_outcome,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
}

// Sync outcomes recorded in SyncState.LastOutcome.
const (
	OutcomeSynced    = "synced"
	OutcomeUnchanged = "unchanged"
	OutcomeError     = "error"
)

func (Spreadsheet) TableName() string   { return "spreadsheets" }
func (RawRecord) TableName() string     { return "raw_records" }
func (ExtractionJob) TableName() string { return "extraction_jobs" }
func (Survey) TableName() string        { return "surveys" }
func (Question) TableName() string      { return "questions" }
func (Respondent) TableName() string    { return "respondents" }
func (Response) TableName() string      { return "responses" }
func (Answer) TableName() string        { return "answers" }
func (SyncState) TableName() string     { return "sync_states" }

// All lists every table for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Spreadsheet{}, &RawRecord{}, &ExtractionJob{},
		&Survey{}, &Question{}, &Respondent{}, &Response{}, &Answer{},
		&SyncState{},
	}
}
