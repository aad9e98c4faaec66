// Package domain – TagList
//
// TagList is the canonical encoding for small multi-valued string sets on a
// product (mood tags, dietary tags, allergens, ingredients). New rows are
// written as a JSON array; the scanner also accepts the legacy delimited-text
// encoding some catalog exports use ("['spicy', 'vegetarian']" or
// "spicy, vegetarian") and normalizes both into trimmed tokens, so no
// bracket/quote artifacts survive into the domain.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// TagList is a set of string tags stored in a single TEXT column.
type TagList []string

// ParseTagField normalizes any supported encoding of a multi-valued field
// into a de-duplicated, order-preserving token list. Supported inputs:
//
//   - JSON array:       ["spicy","vegetarian"]
//   - bracketed text:   ['spicy', 'vegetarian']
//   - delimited text:   spicy, vegetarian
//
// Empty tokens are dropped; tokens keep their original case.
func ParseTagField(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" || raw == "null" {
		return nil
	}

	// Canonical encoding first.
	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			return dedupTrimmed(tags)
		}
		// Legacy bracketed text: strip brackets and fall through to the
		// delimiter split below.
		raw = strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	}

	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `'"`)
	}
	return dedupTrimmed(parts)
}

// dedupTrimmed trims every token, drops empties, and removes duplicates
// while preserving first-seen order.
func dedupTrimmed(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Scan implements sql.Scanner, accepting TEXT/BLOB columns in any supported
// encoding.
func (t *TagList) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*t = nil
		return nil
	case string:
		*t = ParseTagField(v)
		return nil
	case []byte:
		*t = ParseTagField(string(v))
		return nil
	default:
		return fmt.Errorf("taglist: cannot scan %T", value)
	}
}

// Value implements driver.Valuer, always writing the canonical JSON array
// encoding.
func (t TagList) Value() (driver.Value, error) {
	if len(t) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// UnmarshalJSON accepts either the canonical JSON array or a legacy string
// encoding, so catalog files survive round trips through older exporters.
func (t *TagList) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*t = dedupTrimmed(arr)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = ParseTagField(s)
		return nil
	}
	return fmt.Errorf("taglist: unsupported JSON encoding %q", string(b))
}

// Contains reports whether the list holds tag (case-insensitive).
func (t TagList) Contains(tag string) bool {
	for _, v := range t {
		if strings.EqualFold(v, tag) {
			return true
		}
	}
	return false
}
