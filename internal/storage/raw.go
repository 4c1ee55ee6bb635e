package storage

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"survey_pipeline/internal/model"
	"survey_pipeline/internal/rowhash"
	"survey_pipeline/internal/sheets"
)

// RegisterSpreadsheet upserts a spreadsheet by (sheet id, tab name) and
// refreshes its title. Spreadsheets are never deleted.
func (s *Store) RegisterSpreadsheet(sheetID, tabName, title, kind string) (*model.Spreadsheet, error) {
	var sp model.Spreadsheet
	err := s.db.Where(model.Spreadsheet{SheetID: sheetID, TabName: tabName}).
		Attrs(model.Spreadsheet{Title: title, Kind: kind}).
		FirstOrCreate(&sp).Error
	if err != nil {
		return nil, &StorageError{Op: "register spreadsheet", Err: err}
	}

	if title != "" && sp.Title != title {
		sp.Title = title
		if err := s.db.Save(&sp).Error; err != nil {
			return nil, &StorageError{Op: "update spreadsheet title", Err: err}
		}
	}
	return &sp, nil
}

// ListSpreadsheets returns every registered spreadsheet.
func (s *Store) ListSpreadsheets() ([]model.Spreadsheet, error) {
	var out []model.Spreadsheet
	if err := s.db.Order("id").Find(&out).Error; err != nil {
		return nil, &StorageError{Op: "list spreadsheets", Err: err}
	}
	return out, nil
}

// PutRaw inserts a new immutable snapshot for a spreadsheet. Earlier
// snapshots are superseded, never overwritten.
func (s *Store) PutRaw(spreadsheetID uint, tab sheets.Tab, jobID string) (*model.RawRecord, error) {
	blob, err := json.Marshal(tab)
	if err != nil {
		return nil, &StorageError{Op: "serialize raw rows", Err: err}
	}

	rec := model.RawRecord{
		SpreadsheetID: spreadsheetID,
		JobID:         jobID,
		ContentHash:   rowhash.Tab(tab),
		RowsJSON:      string(blob),
		RowCount:      len(tab.Rows),
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return nil, &StorageError{Op: "insert raw record", Err: err}
	}
	return &rec, nil
}

// LatestRawHash returns the hash of the newest snapshot, or "" if the
// spreadsheet has never been captured.
func (s *Store) LatestRawHash(spreadsheetID uint) (string, error) {
	var rec model.RawRecord
	err := s.db.Where("spreadsheet_id = ?", spreadsheetID).
		Order("id DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", &StorageError{Op: "latest raw hash", Err: err}
	}
	return rec.ContentHash, nil
}

// LatestUnnormalized returns the newest snapshot that has not been
// normalized yet, or nil if there is none.
func (s *Store) LatestUnnormalized(spreadsheetID uint) (*model.RawRecord, error) {
	var rec model.RawRecord
	err := s.db.Where("spreadsheet_id = ? AND normalized = ?", spreadsheetID, false).
		Order("id DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "latest unnormalized", Err: err}
	}
	return &rec, nil
}

// MarkNormalized flags a snapshot as consumed by the normalizer.
func (s *Store) MarkNormalized(recordID uint) error {
	err := s.db.Model(&model.RawRecord{}).
		Where("id = ?", recordID).
		Update("normalized", true).Error
	if err != nil {
		return &StorageError{Op: "mark normalized", Err: err}
	}
	return nil
}

// DecodeRaw unpacks the snapshot's JSON blob back into rows.
func DecodeRaw(rec *model.RawRecord) (sheets.Tab, error) {
	var tab sheets.Tab
	if err := json.Unmarshal([]byte(rec.RowsJSON), &tab); err != nil {
		return sheets.Tab{}, &StorageError{Op: "decode raw record", Err: err}
	}
	return tab, nil
}
