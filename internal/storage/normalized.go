package storage

import (
	"gorm.io/gorm"

	"survey_pipeline/internal/model"
)

// ResolveSurvey finds or creates the one survey derived from a spreadsheet.
func (s *Store) ResolveSurvey(sp *model.Spreadsheet) (*model.Survey, error) {
	name := sp.Title
	if name == "" {
		name = sp.TabName
	}
	var survey model.Survey
	err := s.db.Where(model.Survey{SpreadsheetID: sp.ID}).
		Attrs(model.Survey{Name: name, Kind: sp.Kind}).
		FirstOrCreate(&survey).Error
	if err != nil {
		return nil, &StorageError{Op: "resolve survey", Err: err}
	}
	return &survey, nil
}

// ListQuestions returns a survey's questions in their stable order.
func (s *Store) ListQuestions(surveyID uint) ([]model.Question, error) {
	var qs []model.Question
	err := s.db.Where("survey_id = ?", surveyID).Order("order_index").Find(&qs).Error
	if err != nil {
		return nil, &StorageError{Op: "list questions", Err: err}
	}
	return qs, nil
}

func (s *Store) CreateQuestion(q *model.Question) error {
	if err := s.db.Create(q).Error; err != nil {
		return &StorageError{Op: "create question", Err: err}
	}
	return nil
}

// ResolveRespondent finds or creates a respondent by fingerprint.
func (s *Store) ResolveRespondent(fingerprint, email, name, org string) (*model.Respondent, error) {
	var r model.Respondent
	err := s.db.Where(model.Respondent{Fingerprint: fingerprint}).
		Attrs(model.Respondent{Email: email, Name: name, Organization: org}).
		FirstOrCreate(&r).Error
	if err != nil {
		return nil, &StorageError{Op: "resolve respondent", Err: err}
	}
	return &r, nil
}

// ResponseExists reports whether a row with this content hash was already
// normalized for the survey.
func (s *Store) ResponseExists(surveyID uint, contentHash string) (bool, error) {
	var count int64
	err := s.db.Model(&model.Response{}).
		Where("survey_id = ? AND content_hash = ?", surveyID, contentHash).
		Count(&count).Error
	if err != nil {
		return false, &StorageError{Op: "response exists", Err: err}
	}
	return count > 0, nil
}

// CreateResponseWithAnswers writes a response and its answers in one
// transaction. A failed write rolls the whole row back, so a retry on the
// next cycle sees no half-imported response.
func (s *Store) CreateResponseWithAnswers(resp *model.Response, answers []model.Answer) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(resp).Error; err != nil {
			return err
		}
		for i := range answers {
			answers[i].ResponseID = resp.ID
			if err := tx.Create(&answers[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &StorageError{Op: "write response", Err: err}
	}
	return nil
}
