package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"survey_pipeline/internal/sheets"
)

// Identity is the best-effort respondent identity pulled out of a row.
type Identity struct {
	Email        string
	Name         string
	Organization string
	Timestamp    string
}

// Fingerprint derives the stable respondent key: the email when present,
// otherwise a hash of whatever identifying fields the row carried.
func (id Identity) Fingerprint() string {
	if id.Email != "" {
		return strings.ToLower(id.Email)
	}
	if id.Name == "" && id.Organization == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.ToLower(id.Name) + "|" + strings.ToLower(id.Organization)))
	return "anon-" + hex.EncodeToString(sum[:16])
}

func (id Identity) Usable() bool { return id.Fingerprint() != "" }

// ExtractIdentity scans a row for identity and timestamp columns by name.
func ExtractIdentity(row sheets.Row) Identity {
	var id Identity
	for _, cell := range row.Cells {
		if cell.Value == "" {
			continue
		}
		col := strings.ToLower(cell.Column)
		switch {
		case id.Email == "" && (strings.Contains(col, "email") || strings.Contains(col, "e-mail")):
			if strings.Contains(cell.Value, "@") {
				id.Email = cell.Value
			}
		case id.Organization == "" && isOrganizationColumn(col):
			id.Organization = cell.Value
		case id.Name == "" && isNameColumn(col):
			id.Name = cell.Value
		case id.Timestamp == "" && isTimestampColumn(col):
			id.Timestamp = cell.Value
		}
	}
	return id
}

// identityColumn reports whether a column feeds respondent identity or the
// submission timestamp rather than an answer.
func identityColumn(column string) bool {
	col := strings.ToLower(column)
	return strings.Contains(col, "email") || strings.Contains(col, "e-mail") ||
		isNameColumn(col) || isOrganizationColumn(col) ||
		isTimestampColumn(col)
}

// isNameColumn matches columns that ARE a name field, not questions that
// merely mention the word ("Which tool name do you use?").
func isNameColumn(col string) bool {
	return col == "name" || strings.HasSuffix(col, " name") || strings.HasPrefix(col, "name ")
}

func isOrganizationColumn(col string) bool {
	return strings.Contains(col, "organization") || strings.Contains(col, "organisation") ||
		strings.Contains(col, "company") || col == "org"
}

func isTimestampColumn(col string) bool {
	return strings.Contains(col, "timestamp") || strings.Contains(col, "submitted") ||
		col == "date"
}
