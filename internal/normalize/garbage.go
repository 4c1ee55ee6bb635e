package normalize

import (
	"strings"

	"survey_pipeline/internal/sheets"
)

// The source sheets mix real submissions with empty padding rows, header
// echoes, and rows holding nothing but bookkeeping columns. The three
// filters below are applied as one policy in IsGarbage so every caller gets
// the same answer.

var metadataColumns = map[string]bool{
	"timestamp": true,
	"id":        true,
	"row":       true,
	"#":         true,
	"date":      true,
	"created":   true,
	"updated":   true,
	"status":    true,
}

func isMetadataColumn(column string) bool {
	return metadataColumns[strings.ToLower(strings.TrimSpace(column))]
}

// isQuestionEcho reports whether a cell just repeats its own column header,
// which happens when the question text row is re-exported as data.
func isQuestionEcho(cell sheets.Cell) bool {
	v := strings.TrimSpace(cell.Value)
	if strings.EqualFold(v, strings.TrimSpace(cell.Column)) {
		return true
	}
	return strings.HasSuffix(v, "?") && len(v) > 20
}

// IsGarbage reports whether a row should be discarded without creating a
// Response: it has no usable identity and nothing in it is a real answer.
func IsGarbage(row sheets.Row, id Identity) bool {
	if row.IsEmpty() {
		return true
	}
	if id.Usable() {
		return false
	}
	for _, cell := range row.Cells {
		if cell.Value == "" {
			continue
		}
		if isMetadataColumn(cell.Column) || identityColumn(cell.Column) {
			continue
		}
		if isQuestionEcho(cell) {
			continue
		}
		return false
	}
	return true
}
