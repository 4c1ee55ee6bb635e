// Package registry turns the configured spreadsheet list into registered
// Spreadsheet rows. Bad entries cost only themselves: they are logged and
// skipped, never fatal to the service.
package registry

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"survey_pipeline/internal/model"
	"survey_pipeline/internal/storage"
)

// Spec is one configured source tab.
type Spec struct {
	SheetID string
	TabName string
	Kind    string
}

// TitleResolver looks up a spreadsheet's display title. *sheets.Client is
// the real implementation.
type TitleResolver interface {
	Title(ctx context.Context, spreadsheetID string) (string, error)
}

// ParseSpecs reads the SPREADSHEETS config format: a comma-separated list of
// sheetID|tabName|kind entries, kind optional.
func ParseSpecs(raw string) []Spec {
	var specs []Spec
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "|")
		if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			log.Warn().Str("entry", entry).Msg("Invalid spreadsheet spec; expected sheetID|tabName[|kind], skipping")
			continue
		}
		spec := Spec{
			SheetID: strings.TrimSpace(parts[0]),
			TabName: strings.TrimSpace(parts[1]),
			Kind:    "survey",
		}
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			spec.Kind = strings.TrimSpace(parts[2])
		}
		specs = append(specs, spec)
	}
	return specs
}

// LoadSpreadsheets resolves each spec's title and registers it. Entries
// whose sheet cannot be reached are skipped with a warning and retried on
// the next service start.
func LoadSpreadsheets(ctx context.Context, specs []Spec, resolver TitleResolver, store *storage.Store) []model.Spreadsheet {
	var registered []model.Spreadsheet
	for _, spec := range specs {
		title, err := resolver.Title(ctx, spec.SheetID)
		if err != nil {
			log.Warn().
				Err(err).
				Str("sheet_id", spec.SheetID).
				Str("tab", spec.TabName).
				Msg("Failed to resolve spreadsheet; skipping registration")
			continue
		}

		sp, err := store.RegisterSpreadsheet(spec.SheetID, spec.TabName, title, spec.Kind)
		if err != nil {
			log.Warn().
				Err(err).
				Str("sheet_id", spec.SheetID).
				Str("tab", spec.TabName).
				Msg("Failed to register spreadsheet; skipping")
			continue
		}

		registered = append(registered, *sp)
		log.Info().
			Str("sheet_id", sp.SheetID).
			Str("tab", sp.TabName).
			Str("title", sp.Title).
			Str("kind", sp.Kind).
			Msg("Registered spreadsheet")
	}
	return registered
}
