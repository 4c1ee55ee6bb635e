// Package analytics serves read-only aggregates over the normalized store
// for the dashboard layer. Nothing in here writes.
package analytics

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"survey_pipeline/internal/model"
	"survey_pipeline/internal/sniff"
	"survey_pipeline/internal/storage"
)

// ErrSurveyNotFound is returned for unknown survey ids.
var ErrSurveyNotFound = errors.New("survey not found")

type Reader struct {
	db *gorm.DB
}

func NewReader(store *storage.Store) *Reader {
	return &Reader{db: store.DB()}
}

type Overview struct {
	Surveys     int64      `json:"surveys"`
	Questions   int64      `json:"questions"`
	Respondents int64      `json:"respondents"`
	Responses   int64      `json:"responses"`
	Answers     int64      `json:"answers"`
	LastSynced  *time.Time `json:"last_synced,omitempty"`
}

// Overview returns the headline counts across every survey.
func (r *Reader) Overview() (*Overview, error) {
	var o Overview
	counts := []struct {
		dst   *int64
		table interface{}
	}{
		{&o.Surveys, &model.Survey{}},
		{&o.Questions, &model.Question{}},
		{&o.Respondents, &model.Respondent{}},
		{&o.Responses, &model.Response{}},
		{&o.Answers, &model.Answer{}},
	}
	for _, c := range counts {
		if err := r.db.Model(c.table).Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("overview counts: %w", err)
		}
	}

	var latest model.SyncState
	err := r.db.Where("last_synced IS NOT NULL").Order("last_synced DESC").First(&latest).Error
	if err == nil {
		o.LastSynced = latest.LastSynced
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("overview last sync: %w", err)
	}
	return &o, nil
}

type SurveySummary struct {
	ID             uint       `json:"id"`
	Name           string     `json:"name"`
	Kind           string     `json:"kind"`
	Responses      int        `json:"responses"`
	Respondents    int        `json:"respondents"`
	Questions      int        `json:"questions"`
	CompletionRate float64    `json:"completion_rate"`
	MaturityScore  *float64   `json:"maturity_score,omitempty"`
	LastSubmission *time.Time `json:"last_submission,omitempty"`
}

// ListSurveys returns a participation summary per survey.
func (r *Reader) ListSurveys() ([]SurveySummary, error) {
	var surveys []model.Survey
	if err := r.db.Order("id").Find(&surveys).Error; err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}

	out := make([]SurveySummary, 0, len(surveys))
	for _, sv := range surveys {
		summary, err := r.summarize(&sv)
		if err != nil {
			return nil, err
		}
		out = append(out, *summary)
	}
	return out, nil
}

func (r *Reader) summarize(sv *model.Survey) (*SurveySummary, error) {
	s := SurveySummary{ID: sv.ID, Name: sv.Name, Kind: sv.Kind}

	var questions int64
	if err := r.db.Model(&model.Question{}).Where("survey_id = ?", sv.ID).Count(&questions).Error; err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	s.Questions = int(questions)

	var responses []model.Response
	if err := r.db.Where("survey_id = ?", sv.ID).Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	s.Responses = len(responses)

	respondents := map[uint]bool{}
	for _, resp := range responses {
		respondents[resp.RespondentID] = true
		if s.LastSubmission == nil || resp.SubmittedAt.After(*s.LastSubmission) {
			t := resp.SubmittedAt
			s.LastSubmission = &t
		}
	}
	s.Respondents = len(respondents)

	var answers int64
	err := r.db.Model(&model.Answer{}).
		Joins("JOIN responses ON responses.id = answers.response_id").
		Where("responses.survey_id = ?", sv.ID).
		Count(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("count answers: %w", err)
	}
	if s.Responses > 0 && s.Questions > 0 {
		s.CompletionRate = float64(answers) / float64(s.Responses*s.Questions)
	}

	if score, ok, err := r.maturityScore(sv.ID); err != nil {
		return nil, err
	} else if ok {
		s.MaturityScore = &score
	}
	return &s, nil
}

// maturityScore is the mean of every numeric answer on the survey; surveys
// without numeric answers have no score.
func (r *Reader) maturityScore(surveyID uint) (float64, bool, error) {
	type row struct {
		Avg *float64
	}
	var res row
	err := r.db.Model(&model.Answer{}).
		Select("AVG(answers.number_value) AS avg").
		Joins("JOIN responses ON responses.id = answers.response_id").
		Where("responses.survey_id = ? AND answers.value_type = ?", surveyID, sniff.TypeNumber).
		Scan(&res).Error
	if err != nil {
		return 0, false, fmt.Errorf("maturity score: %w", err)
	}
	if res.Avg == nil {
		return 0, false, nil
	}
	return *res.Avg, true, nil
}
