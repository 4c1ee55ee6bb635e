package registry

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"survey_pipeline/internal/storage"
)

func TestParseSpecs(t *testing.T) {
	specs := ParseSpecs("abc123|Responses|survey, def456|Form Responses 1, ,bad-entry, |NoSheet")

	if len(specs) != 2 {
		t.Fatalf("Expected 2 valid specs, got %d: %+v", len(specs), specs)
	}
	if specs[0].SheetID != "abc123" || specs[0].TabName != "Responses" || specs[0].Kind != "survey" {
		t.Errorf("Unexpected first spec: %+v", specs[0])
	}
	// Kind defaults when the third field is absent.
	if specs[1].SheetID != "def456" || specs[1].TabName != "Form Responses 1" || specs[1].Kind != "survey" {
		t.Errorf("Unexpected second spec: %+v", specs[1])
	}
}

func TestParseSpecsEmpty(t *testing.T) {
	if specs := ParseSpecs(""); specs != nil {
		t.Errorf("Expected no specs, got %+v", specs)
	}
}

func TestParseSpecsCustomKind(t *testing.T) {
	specs := ParseSpecs("abc|Tab|assessment")
	if len(specs) != 1 || specs[0].Kind != "assessment" {
		t.Errorf("Expected assessment kind, got %+v", specs)
	}
}

type stubResolver struct {
	titles map[string]string
}

func (r stubResolver) Title(ctx context.Context, spreadsheetID string) (string, error) {
	title, ok := r.titles[spreadsheetID]
	if !ok {
		return "", errors.New("not found")
	}
	return title, nil
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	store, err := storage.NewStore(db)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return store
}

func TestLoadSpreadsheets(t *testing.T) {
	store := newTestStore(t)
	resolver := stubResolver{titles: map[string]string{"abc": "Maturity 2026"}}
	specs := []Spec{
		{SheetID: "abc", TabName: "Responses", Kind: "survey"},
		{SheetID: "missing", TabName: "Responses", Kind: "survey"},
	}

	registered := LoadSpreadsheets(context.Background(), specs, resolver, store)

	// The unreachable sheet is skipped, not fatal.
	if len(registered) != 1 {
		t.Fatalf("Expected 1 registered spreadsheet, got %d", len(registered))
	}
	if registered[0].Title != "Maturity 2026" {
		t.Errorf("Unexpected title %q", registered[0].Title)
	}

	all, err := store.ListSpreadsheets()
	if err != nil {
		t.Fatalf("ListSpreadsheets failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected 1 stored spreadsheet, got %d", len(all))
	}
}

func TestLoadSpreadsheetsIdempotent(t *testing.T) {
	store := newTestStore(t)
	resolver := stubResolver{titles: map[string]string{"abc": "Maturity 2026"}}
	specs := []Spec{{SheetID: "abc", TabName: "Responses", Kind: "survey"}}

	LoadSpreadsheets(context.Background(), specs, resolver, store)
	resolver.titles["abc"] = "Maturity 2026 (renamed)"
	registered := LoadSpreadsheets(context.Background(), specs, resolver, store)

	if len(registered) != 1 {
		t.Fatalf("Expected 1 registered spreadsheet, got %d", len(registered))
	}
	// Re-registration refreshes the title instead of duplicating the row.
	if registered[0].Title != "Maturity 2026 (renamed)" {
		t.Errorf("Expected refreshed title, got %q", registered[0].Title)
	}
	all, _ := store.ListSpreadsheets()
	if len(all) != 1 {
		t.Errorf("Expected 1 stored spreadsheet after re-register, got %d", len(all))
	}
}
