package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/citecheck/internal/citation"
	"github.com/ppiankov/citecheck/internal/model"
)

// seedOverrides is the built-in curated list of overruled precedents.
// Entries loaded from an override file replace these on conflict.
var seedOverrides = []model.OverrideEntry{
	{Normalized: "410 U.S. 113", CaseName: "Roe v. Wade", Status: model.LawOverruled,
		OverruledBy: "Dobbs v. Jackson Women's Health Organization, 597 U.S. 215 (2022)"},
	{Normalized: "505 U.S. 833", CaseName: "Planned Parenthood of Southeastern Pa. v. Casey", Status: model.LawOverruled,
		OverruledBy: "Dobbs v. Jackson Women's Health Organization, 597 U.S. 215 (2022)"},
	{Normalized: "467 U.S. 837", CaseName: "Chevron U.S.A. Inc. v. Natural Resources Defense Council, Inc.", Status: model.LawOverruled,
		OverruledBy: "Loper Bright Enterprises v. Raimondo, 603 U.S. 369 (2024)"},
	{Normalized: "494 U.S. 652", CaseName: "Austin v. Michigan Chamber of Commerce", Status: model.LawOverruled,
		OverruledBy: "Citizens United v. FEC, 558 U.S. 310 (2010)"},
	{Normalized: "478 U.S. 186", CaseName: "Bowers v. Hardwick", Status: model.LawOverruled,
		OverruledBy: "Lawrence v. Texas, 539 U.S. 558 (2003)"},
	{Normalized: "409 U.S. 810", CaseName: "Baker v. Nelson", Status: model.LawOverruled,
		OverruledBy: "Obergefell v. Hodges, 576 U.S. 644 (2015)"},
	{Normalized: "431 U.S. 209", CaseName: "Abood v. Detroit Board of Education", Status: model.LawOverruled,
		OverruledBy: "Janus v. AFSCME, Council 31, 585 U.S. 878 (2018)"},
	{Normalized: "473 U.S. 172", CaseName: "Williamson County Regional Planning Comm'n v. Hamilton Bank", Status: model.LawOverruled,
		OverruledBy: "Knick v. Township of Scott, 588 U.S. 180 (2019)", Note: "state-litigation requirement"},
	{Normalized: "406 U.S. 404", CaseName: "Apodaca v. Oregon", Status: model.LawOverruled,
		OverruledBy: "Ramos v. Louisiana, 590 U.S. 83 (2020)"},
	{Normalized: "163 U.S. 537", CaseName: "Plessy v. Ferguson", Status: model.LawOverruled,
		OverruledBy: "Brown v. Board of Education, 347 U.S. 483 (1954)"},
}

// SeedOverrides returns a copy of the built-in override list
func SeedOverrides() []model.OverrideEntry {
	out := make([]model.OverrideEntry, len(seedOverrides))
	copy(out, seedOverrides)
	return out
}

func (s *SQLiteStore) seedOverrides(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range seedOverrides {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO overrides (normalized, case_name, status, overruled_by, note)
			VALUES (?, ?, ?, ?, ?)
		`, e.Normalized, e.CaseName, string(e.Status), e.OverruledBy, e.Note)
		if err != nil {
			return fmt.Errorf("seed %s: %w", e.Normalized, err)
		}
	}
	return nil
}

// LookupOverride returns the curated entry for a citation, or nil
func (s *SQLiteStore) LookupOverride(ctx context.Context, normalized string) (*model.OverrideEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e model.OverrideEntry
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT normalized, case_name, status, overruled_by, note
		FROM overrides WHERE normalized = ?
	`, normalized).Scan(&e.Normalized, &e.CaseName, &status, &e.OverruledBy, &e.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query override: %w", err)
	}
	e.Status = model.LawStatus(status)
	return &e, nil
}

// PutOverrides inserts or replaces override entries
func (s *SQLiteStore) PutOverrides(ctx context.Context, entries []model.OverrideEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO overrides (normalized, case_name, status, overruled_by, note)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(normalized) DO UPDATE SET
				case_name = excluded.case_name,
				status = excluded.status,
				overruled_by = excluded.overruled_by,
				note = excluded.note
		`, e.Normalized, e.CaseName, string(e.Status), e.OverruledBy, e.Note)
		if err != nil {
			return fmt.Errorf("save override %s: %w", e.Normalized, err)
		}
	}
	return tx.Commit()
}

type overrideFile struct {
	Overrides []model.OverrideEntry `yaml:"overrides"`
}

// LoadOverrides reads a YAML override file. Citations are normalized and a
// missing status means OVERRULED.
func LoadOverrides(path string) ([]model.OverrideEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read override file: %w", err)
	}

	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse override file: %w", err)
	}

	out := make([]model.OverrideEntry, 0, len(f.Overrides))
	for i, e := range f.Overrides {
		if strings.TrimSpace(e.Normalized) == "" {
			return nil, fmt.Errorf("override %d: citation is required", i+1)
		}
		e.Normalized = citation.Normalize(e.Normalized)
		e.Status = model.LawStatus(strings.ToUpper(strings.TrimSpace(string(e.Status))))
		switch e.Status {
		case "":
			e.Status = model.LawOverruled
		case model.LawGood, model.LawCaution, model.LawNegativeTreatment, model.LawOverruled:
		default:
			return nil, fmt.Errorf("override %d: unknown status %q", i+1, e.Status)
		}
		out = append(out, e)
	}
	return out, nil
}
