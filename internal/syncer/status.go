package syncer

import (
	"time"

	"survey_pipeline/internal/model"
)

// SpreadsheetStatus is the operator-facing view of one tab's sync state.
type SpreadsheetStatus struct {
	SheetID     string     `json:"sheet_id"`
	TabName     string     `json:"tab_name"`
	Title       string     `json:"title"`
	Kind        string     `json:"kind"`
	LastHash    string     `json:"last_hash,omitempty"`
	LastOutcome string     `json:"last_outcome,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
	LastSynced  *time.Time `json:"last_synced,omitempty"`
}

type Status struct {
	Running         bool                 `json:"running"`
	IntervalSeconds int                  `json:"interval_seconds"`
	Spreadsheets    []SpreadsheetStatus  `json:"spreadsheets"`
	LastJob         *model.ExtractionJob `json:"last_job,omitempty"`
}

// Status reports last sync time and outcome per spreadsheet plus the most
// recent job.
func (s *Syncer) Status() (Status, error) {
	spreadsheets, err := s.store.ListSpreadsheets()
	if err != nil {
		return Status{}, err
	}
	states, err := s.store.SyncStates()
	if err != nil {
		return Status{}, err
	}
	bySpreadsheet := make(map[uint]model.SyncState, len(states))
	for _, st := range states {
		bySpreadsheet[st.SpreadsheetID] = st
	}

	out := Status{
		Running:         s.Running(),
		IntervalSeconds: int(s.cfg.Interval / time.Second),
	}
	for _, sp := range spreadsheets {
		status := SpreadsheetStatus{
			SheetID: sp.SheetID,
			TabName: sp.TabName,
			Title:   sp.Title,
			Kind:    sp.Kind,
		}
		if st, ok := bySpreadsheet[sp.ID]; ok {
			status.LastHash = st.LastHash
			status.LastOutcome = st.LastOutcome
			status.LastError = st.LastError
			status.LastChecked = st.LastChecked
			status.LastSynced = st.LastSynced
		}
		out.Spreadsheets = append(out.Spreadsheets, status)
	}

	if jobs, err := s.store.RecentJobs(1); err == nil && len(jobs) > 0 {
		out.LastJob = &jobs[0]
	}
	return out, nil
}
