// Package sniff classifies raw spreadsheet cells. Columns carry no declared
// types, so the value itself is the only evidence.
package sniff

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Value types, in the order the classifier tries them.
const (
	TypeEmpty   = "empty"
	TypeBoolean = "boolean"
	TypeNumber  = "number"
	TypeDate    = "date"
	TypeText    = "text"
)

// Classification is the sniffed type plus the parsed value for that type.
// Only the field matching Type is set.
type Classification struct {
	Type   string
	Bool   *bool
	Number *float64
	Date   *time.Time
	Text   string
}

var boolVocabulary = map[string]bool{
	"yes":   true,
	"no":    false,
	"true":  true,
	"false": false,
}

// numberPattern matches integers and decimals with optional sign and
// optional comma thousands separators.
var numberPattern = regexp.MustCompile(`^-?(\d{1,3}(,\d{3})+|\d+)(\.\d+)?$`)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006",
}

// Classify applies the sniffing policy in order: empty, boolean vocabulary,
// number, date, text. Deterministic and stateless.
func Classify(raw string) Classification {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Classification{Type: TypeEmpty}
	}

	if b, ok := boolVocabulary[strings.ToLower(trimmed)]; ok {
		return Classification{Type: TypeBoolean, Bool: &b}
	}

	if n, ok := parseNumber(trimmed); ok {
		return Classification{Type: TypeNumber, Number: &n}
	}

	if d, ok := parseDate(trimmed); ok {
		return Classification{Type: TypeDate, Date: &d}
	}

	return Classification{Type: TypeText, Text: trimmed}
}

func parseNumber(s string) (float64, bool) {
	if !numberPattern.MatchString(s) {
		return 0, false
	}
	// Leading zeros mean an identifier (phone number, zip code), not a
	// quantity. "0" and "0.5" are still numbers.
	digits := strings.TrimPrefix(s, "-")
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
