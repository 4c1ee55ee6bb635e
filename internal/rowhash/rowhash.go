// Package rowhash computes the content hashes used for change detection and
// response dedup. Hashes are order-insensitive on columns (a reordered header
// is not a content change) and order-sensitive on rows.
package rowhash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"survey_pipeline/internal/sheets"
)

const (
	cellSep = "\x1f"
	rowSep  = "\x1e"
)

// Row returns the canonical SHA-256 of one row. Empty cells are dropped so
// sheet padding never registers as a change.
func Row(row sheets.Row) string {
	sum := sha256.Sum256([]byte(canonicalRow(row)))
	return hex.EncodeToString(sum[:])
}

// Tab returns the SHA-256 over every data row of a tab, in row order.
func Tab(tab sheets.Tab) string {
	parts := make([]string, len(tab.Rows))
	for i, row := range tab.Rows {
		parts[i] = canonicalRow(row)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, rowSep)))
	return hex.EncodeToString(sum[:])
}

func canonicalRow(row sheets.Row) string {
	cells := make([]string, 0, len(row.Cells))
	for _, c := range row.Cells {
		if c.Value == "" {
			continue
		}
		cells = append(cells, c.Column+"="+c.Value)
	}
	sort.Strings(cells)
	return strings.Join(cells, cellSep)
}
