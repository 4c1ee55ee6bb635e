// Package normalize turns raw tab snapshots into the relational survey
// schema.
package normalize

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"survey_pipeline/internal/model"
	"survey_pipeline/internal/rowhash"
	"survey_pipeline/internal/sheets"
	"survey_pipeline/internal/sniff"
	"survey_pipeline/internal/storage"
)

// Result counts what one normalization run produced.
type Result struct {
	ResponsesWritten int `json:"responses_written"`
	AnswersWritten   int `json:"answers_written"`
	Skipped          int `json:"skipped"`
}

type Normalizer struct {
	store *storage.Store
}

func NewNormalizer(store *storage.Store) *Normalizer {
	return &Normalizer{store: store}
}

// Normalize consumes the latest unnormalized snapshot for a spreadsheet.
// Row-level problems are counted and skipped; only storage failures abort
// the run. Re-running over the same snapshot writes nothing new, so a forced
// second pass is harmless.
func (n *Normalizer) Normalize(sp *model.Spreadsheet) (Result, error) {
	rec, err := n.store.LatestUnnormalized(sp.ID)
	if err != nil {
		return Result{}, err
	}
	if rec == nil {
		log.Debug().Str("sheet_id", sp.SheetID).Str("tab", sp.TabName).Msg("Nothing to normalize")
		return Result{}, nil
	}

	tab, err := storage.DecodeRaw(rec)
	if err != nil {
		return Result{}, err
	}

	survey, err := n.store.ResolveSurvey(sp)
	if err != nil {
		return Result{}, err
	}

	questions, err := n.loadQuestions(survey.ID)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for i, row := range tab.Rows {
		wrote, answers, err := n.normalizeRow(survey, questions, row)
		if err != nil {
			return result, err
		}
		if !wrote {
			log.Debug().Int("row", i+1).Str("tab", sp.TabName).Msg("Skipping row")
			result.Skipped++
			continue
		}
		result.ResponsesWritten++
		result.AnswersWritten += answers
	}

	if err := n.store.MarkNormalized(rec.ID); err != nil {
		return result, err
	}

	log.Info().
		Str("sheet_id", sp.SheetID).
		Str("tab", sp.TabName).
		Int("responses", result.ResponsesWritten).
		Int("answers", result.AnswersWritten).
		Int("skipped", result.Skipped).
		Msg("Normalization complete")
	return result, nil
}

// normalizeRow writes one response with its answers. Returns wrote=false for
// rows filtered or deduplicated away.
func (n *Normalizer) normalizeRow(survey *model.Survey, questions *questionSet, row sheets.Row) (wrote bool, answers int, err error) {
	id := ExtractIdentity(row)
	if IsGarbage(row, id) {
		return false, 0, nil
	}

	hash := rowhash.Row(row)

	submittedAt := time.Now().UTC()
	if id.Timestamp != "" {
		c := sniff.Classify(id.Timestamp)
		if c.Type != sniff.TypeDate {
			// A timestamp column we cannot parse means a malformed row.
			return false, 0, nil
		}
		submittedAt = *c.Date
	}

	exists, err := n.store.ResponseExists(survey.ID, hash)
	if err != nil {
		return false, 0, err
	}
	if exists {
		return false, 0, nil
	}

	fingerprint := id.Fingerprint()
	if fingerprint == "" {
		// Anonymous row with real content: identity degrades to the row
		// itself.
		fingerprint = "anon-" + hash[:32]
	}
	respondent, err := n.store.ResolveRespondent(fingerprint, id.Email, id.Name, id.Organization)
	if err != nil {
		return false, 0, err
	}

	var rowAnswers []model.Answer
	for _, cell := range row.Cells {
		if cell.Value == "" || identityColumn(cell.Column) || isMetadataColumn(cell.Column) {
			continue
		}

		c := sniff.Classify(cell.Value)
		question, err := questions.resolve(n.store, survey.ID, cell.Column, c.Type)
		if err != nil {
			return false, 0, err
		}

		rowAnswers = append(rowAnswers, model.Answer{
			QuestionID:  question.ID,
			RawValue:    cell.Value,
			ValueType:   c.Type,
			NumberValue: c.Number,
			BoolValue:   c.Bool,
			DateValue:   c.Date,
			TextValue:   c.Text,
		})
	}

	resp := model.Response{
		SurveyID:     survey.ID,
		RespondentID: respondent.ID,
		ContentHash:  hash,
		SubmittedAt:  submittedAt,
	}
	if err := n.store.CreateResponseWithAnswers(&resp, rowAnswers); err != nil {
		return false, 0, err
	}

	return true, len(rowAnswers), nil
}

// questionSet tracks a survey's questions by column text so the first
// occurrence of a column establishes its order index.
type questionSet struct {
	byText map[string]*model.Question
	next   int
}

func (n *Normalizer) loadQuestions(surveyID uint) (*questionSet, error) {
	existing, err := n.store.ListQuestions(surveyID)
	if err != nil {
		return nil, err
	}
	set := &questionSet{byText: make(map[string]*model.Question)}
	for i := range existing {
		q := existing[i]
		set.byText[strings.ToLower(q.Text)] = &q
		if q.OrderIndex >= set.next {
			set.next = q.OrderIndex + 1
		}
	}
	return set, nil
}

// resolve returns the question for a column, creating it at the next order
// index on first sight. The type recorded at creation sticks; later rows
// classifying differently do not rewrite it.
func (qs *questionSet) resolve(store *storage.Store, surveyID uint, text, valueType string) (*model.Question, error) {
	key := strings.ToLower(text)
	if q, ok := qs.byText[key]; ok {
		return q, nil
	}

	q := &model.Question{
		SurveyID:   surveyID,
		Text:       text,
		ValueType:  valueType,
		OrderIndex: qs.next,
	}
	if err := store.CreateQuestion(q); err != nil {
		return nil, err
	}
	qs.byText[key] = q
	qs.next++
	return q, nil
}
