// Package catalog loads the product catalog from its JSON export and seeds
// the database with it at startup. The loader is intentionally small and
// dependency-free beyond the persistence layer:
//
//   - No logging in the library (callers decide how/what to log)
//   - Tolerant decoding: accepts both a bare product array and the
//     {"products": [...]} wrapper some exports use
//   - Tolerant tag fields: legacy string encodings are normalized by
//     domain.TagList during decode
//   - Defensive record validation: malformed entries are dropped, never
//     propagated into the store
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gorm.io/gorm"

	"github.com/tbourn/go-foodiebot-backend/internal/domain"
	"github.com/tbourn/go-foodiebot-backend/internal/repo"
)

// ErrEmptyCatalog is returned when a catalog file decodes successfully but
// yields no usable products.
var ErrEmptyCatalog = errors.New("catalog: no usable products")

// wrapper matches the {"products": [...]} export shape.
type wrapper struct {
	Products []domain.Product `json:"products"`
}

// LoadReader decodes a product catalog from r.
//
// Both supported shapes are accepted:
//
//	[ {...}, {...} ]
//	{ "products": [ {...}, {...} ] }
//
// Records missing a product ID or name are dropped, later duplicates of an
// already-seen product ID are dropped, and numeric fields are clamped into
// their documented domains (spice 0..10, popularity 0..100). An error is
// returned only for undecodable input or an empty result.
func LoadReader(r io.Reader) ([]domain.Product, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("catalog: read: %w", err)
	}
	raw = bytes.TrimSpace(raw)

	var list []domain.Product
	if bytes.HasPrefix(raw, []byte("[")) {
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("catalog: decode array: %w", err)
		}
	} else {
		var w wrapper
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("catalog: decode object: %w", err)
		}
		list = w.Products
	}

	out := make([]domain.Product, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, p := range list {
		if p.ProductID == "" || p.Name == "" {
			continue
		}
		if _, dup := seen[p.ProductID]; dup {
			continue
		}
		if p.Price < 0 || p.Calories < 0 {
			continue
		}
		seen[p.ProductID] = struct{}{}
		p.SpiceLevel = clampInt(p.SpiceLevel, 0, 10)
		p.PopularityScore = clampFloat(p.PopularityScore, 0, 100)
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrEmptyCatalog
	}
	return out, nil
}

// LoadFile decodes the product catalog at path.
func LoadFile(path string) ([]domain.Product, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadReader(bytes.NewReader(b))
}

// Seed loads the catalog at path and atomically replaces the products table
// with its contents. It returns the number of products stored.
func Seed(ctx context.Context, db *gorm.DB, path string) (int, error) {
	products, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	if err := repo.ReplaceProducts(ctx, db, products); err != nil {
		return 0, err
	}
	return len(products), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
