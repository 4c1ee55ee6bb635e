package storage

import (
	"time"

	"survey_pipeline/internal/model"
)

// SyncState returns the change detector's record for a spreadsheet, creating
// an empty one on first sight.
func (s *Store) SyncState(spreadsheetID uint) (*model.SyncState, error) {
	var st model.SyncState
	err := s.db.Where(model.SyncState{SpreadsheetID: spreadsheetID}).FirstOrCreate(&st).Error
	if err != nil {
		return nil, &StorageError{Op: "sync state", Err: err}
	}
	return &st, nil
}

// TouchSyncState records an unchanged check without moving the hash.
func (s *Store) TouchSyncState(spreadsheetID uint) error {
	if _, err := s.SyncState(spreadsheetID); err != nil {
		return err
	}
	now := time.Now().UTC()
	err := s.db.Model(&model.SyncState{}).
		Where("spreadsheet_id = ?", spreadsheetID).
		Updates(map[string]interface{}{
			"last_checked": now,
			"last_outcome": model.OutcomeUnchanged,
			"last_error":   "",
		}).Error
	if err != nil {
		return &StorageError{Op: "touch sync state", Err: err}
	}
	return nil
}

// RecordSync moves the stored hash forward after a successful import.
func (s *Store) RecordSync(spreadsheetID uint, hash string) error {
	if _, err := s.SyncState(spreadsheetID); err != nil {
		return err
	}
	now := time.Now().UTC()
	err := s.db.Model(&model.SyncState{}).
		Where("spreadsheet_id = ?", spreadsheetID).
		Updates(map[string]interface{}{
			"last_hash":    hash,
			"last_checked": now,
			"last_synced":  now,
			"last_outcome": model.OutcomeSynced,
			"last_error":   "",
		}).Error
	if err != nil {
		return &StorageError{Op: "record sync", Err: err}
	}
	return nil
}

// RecordSyncError notes a failed cycle; the stored hash stays put so the
// next tick retries.
func (s *Store) RecordSyncError(spreadsheetID uint, cause error) error {
	if _, err := s.SyncState(spreadsheetID); err != nil {
		return err
	}
	now := time.Now().UTC()
	err := s.db.Model(&model.SyncState{}).
		Where("spreadsheet_id = ?", spreadsheetID).
		Updates(map[string]interface{}{
			"last_checked": now,
			"last_outcome": model.OutcomeError,
			"last_error":   cause.Error(),
		}).Error
	if err != nil {
		return &StorageError{Op: "record sync error", Err: err}
	}
	return nil
}

// SyncStates returns the state rows for every registered spreadsheet.
func (s *Store) SyncStates() ([]model.SyncState, error) {
	var states []model.SyncState
	if err := s.db.Order("spreadsheet_id").Find(&states).Error; err != nil {
		return nil, &StorageError{Op: "list sync states", Err: err}
	}
	return states, nil
}
