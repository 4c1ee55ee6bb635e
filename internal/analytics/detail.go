package analytics

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"survey_pipeline/internal/model"
	"survey_pipeline/internal/sniff"
)

type QuestionBreakdown struct {
	ID         uint           `json:"id"`
	Text       string         `json:"text"`
	ValueType  string         `json:"value_type"`
	OrderIndex int            `json:"order_index"`
	Answered   int            `json:"answered"`
	Histogram  map[string]int `json:"histogram,omitempty"`
	Average    *float64       `json:"average,omitempty"`
	Samples    []string       `json:"samples,omitempty"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Funnel is the participation funnel: raw rows seen, rows that became
// responses, distinct people behind them.
type Funnel struct {
	RowsFetched int `json:"rows_fetched"`
	Responses   int `json:"responses"`
	Respondents int `json:"respondents"`
}

type SurveyDetail struct {
	SurveySummary
	Funnel     Funnel              `json:"funnel"`
	Questions  []QuestionBreakdown `json:"questions"`
	Timeseries []DayCount          `json:"timeseries"`
}

const maxTextSamples = 5

// SurveyDetail returns per-question breakdowns, the participation funnel,
// and a responses-per-day timeseries for one survey.
func (r *Reader) SurveyDetail(surveyID uint) (*SurveyDetail, error) {
	var sv model.Survey
	err := r.db.First(&sv, surveyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load survey: %w", err)
	}

	summary, err := r.summarize(&sv)
	if err != nil {
		return nil, err
	}
	detail := SurveyDetail{SurveySummary: *summary}

	detail.Funnel, err = r.funnel(&sv, summary)
	if err != nil {
		return nil, err
	}

	detail.Questions, err = r.questionBreakdowns(surveyID)
	if err != nil {
		return nil, err
	}

	detail.Timeseries, err = r.timeseries(surveyID)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *Reader) funnel(sv *model.Survey, summary *SurveySummary) (Funnel, error) {
	var rec model.RawRecord
	rows := 0
	err := r.db.Where("spreadsheet_id = ?", sv.SpreadsheetID).Order("id DESC").First(&rec).Error
	if err == nil {
		rows = rec.RowCount
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Funnel{}, fmt.Errorf("funnel raw rows: %w", err)
	}
	return Funnel{
		RowsFetched: rows,
		Responses:   summary.Responses,
		Respondents: summary.Respondents,
	}, nil
}

func (r *Reader) questionBreakdowns(surveyID uint) ([]QuestionBreakdown, error) {
	var questions []model.Question
	err := r.db.Where("survey_id = ?", surveyID).Order("order_index").Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	out := make([]QuestionBreakdown, 0, len(questions))
	for _, q := range questions {
		var answers []model.Answer
		if err := r.db.Where("question_id = ?", q.ID).Find(&answers).Error; err != nil {
			return nil, fmt.Errorf("load answers: %w", err)
		}

		b := QuestionBreakdown{
			ID:         q.ID,
			Text:       q.Text,
			ValueType:  q.ValueType,
			OrderIndex: q.OrderIndex,
			Answered:   len(answers),
		}
		aggregateAnswers(&b, answers)
		out = append(out, b)
	}
	return out, nil
}

// aggregateAnswers fills the type-appropriate view: histograms for booleans
// and numbers, a mean for numbers, a few sample values for text.
func aggregateAnswers(b *QuestionBreakdown, answers []model.Answer) {
	histogram := map[string]int{}
	var sum float64
	var numeric int

	for _, a := range answers {
		switch a.ValueType {
		case sniff.TypeBoolean:
			if a.BoolValue != nil {
				if *a.BoolValue {
					histogram["yes"]++
				} else {
					histogram["no"]++
				}
			}
		case sniff.TypeNumber:
			if a.NumberValue != nil {
				histogram[trimFloat(*a.NumberValue)]++
				sum += *a.NumberValue
				numeric++
			}
		case sniff.TypeText:
			if len(b.Samples) < maxTextSamples {
				b.Samples = append(b.Samples, a.TextValue)
			}
		}
	}

	if len(histogram) > 0 {
		b.Histogram = histogram
	}
	if numeric > 0 {
		avg := sum / float64(numeric)
		b.Average = &avg
	}
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

func (r *Reader) timeseries(surveyID uint) ([]DayCount, error) {
	var responses []model.Response
	if err := r.db.Where("survey_id = ?", surveyID).Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("timeseries: %w", err)
	}

	counts := map[string]int{}
	for _, resp := range responses {
		counts[resp.SubmittedAt.UTC().Format("2006-01-02")]++
	}

	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]DayCount, 0, len(days))
	for _, d := range days {
		out = append(out, DayCount{Date: d, Count: counts[d]})
	}
	return out, nil
}
