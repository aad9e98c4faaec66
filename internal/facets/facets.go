// Package facets derives the dynamic vocabulary of the catalog: the distinct
// categories, mood tags, dietary tags, allergens, and ingredients present
// across all products. The oracle prompt is constrained to this vocabulary so
// the model can never invent catalog values.
//
// The vocabulary is recomputed fresh per call. The catalog is static within a
// process lifetime, so callers may cache the snapshot, but correctness never
// depends on it.
package facets

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-foodiebot-backend/internal/domain"
	"github.com/tbourn/go-foodiebot-backend/internal/repo"
)

// Vocabulary is one snapshot of the catalog's enumerable attributes. All
// slices are sorted and de-duplicated.
type Vocabulary struct {
	Categories  []string `json:"categories"`
	MoodTags    []string `json:"mood_tags"`
	DietaryTags []string `json:"dietary_tags"`
	Allergens   []string `json:"allergens"`
	Ingredients []string `json:"ingredients"`
}

// Extract scans the catalog and returns the current vocabulary.
//
// Tag columns may carry either the canonical JSON list encoding or legacy
// delimited text; both are normalized through domain.ParseTagField, so the
// resulting token sets contain no bracket/quote artifacts.
func Extract(ctx context.Context, db *gorm.DB) (Vocabulary, error) {
	var v Vocabulary

	cats, err := repo.ScanColumn(ctx, db, "category")
	if err != nil {
		return v, err
	}
	v.Categories = distinct(cats)

	for _, col := range []struct {
		name string
		dst  *[]string
	}{
		{"mood_tags", &v.MoodTags},
		{"dietary_tags", &v.DietaryTags},
		{"allergens", &v.Allergens},
		{"ingredients", &v.Ingredients},
	} {
		raw, err := repo.ScanColumn(ctx, db, col.name)
		if err != nil {
			return v, err
		}
		*col.dst = tokenize(raw)
	}
	return v, nil
}

// HasCategory reports whether name matches a known category,
// case-insensitively.
func (v Vocabulary) HasCategory(name string) bool {
	for _, c := range v.Categories {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// ResolveCategory returns the canonical spelling of a category, or "" when
// it is not part of the vocabulary.
func (v Vocabulary) ResolveCategory(name string) string {
	name = strings.TrimSpace(name)
	for _, c := range v.Categories {
		if strings.EqualFold(c, name) {
			return c
		}
	}
	return ""
}

// distinct trims, drops empties, de-duplicates, and sorts scalar values.
func distinct(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// tokenize normalizes every row of a multi-valued column into one sorted,
// de-duplicated token set.
func tokenize(rows []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		for _, tok := range domain.ParseTagField(row) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}
