// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the catalog repository: seeding the
// read-only products table and compiling FilterQuery values into dynamic
// AND-composed catalog queries.
//
// Error semantics:
//   - An unsatisfiable filter (inverted spice bounds, unknown category) is
//     not an error: FindProducts returns an empty slice.
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-foodiebot-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
//
// It aliases gorm.ErrRecordNotFound so callers can use errors.Is either way.
var ErrNotFound = gorm.ErrRecordNotFound

// QueryDebug exposes the compiled predicate set of a catalog query for
// diagnostics. It is populated only when FilterQuery.Debug is set and never
// affects the result set.
type QueryDebug struct {
	Where   []string `json:"where"`
	Args    []any    `json:"args"`
	OrderBy string   `json:"order_by,omitempty"`
	Limit   int      `json:"limit"`
}

// ReplaceProducts atomically replaces the catalog contents with the given
// records. Called once at startup by the catalog bootstrap; the table is
// read-only afterwards.
func ReplaceProducts(ctx context.Context, db *gorm.DB, products []domain.Product) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&domain.Product{}).Error; err != nil {
			return err
		}
		if len(products) == 0 {
			return nil
		}
		return tx.Create(&products).Error
	})
}

// CountProducts returns the catalog size; 0 on an empty (unloaded) store.
func CountProducts(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Product{}).Count(&n).Error
	return n, err
}

// ScanColumn returns the raw TEXT values of one products column. Used by the
// facet extractor, which owns decoding of the heterogeneous tag encodings.
func ScanColumn(ctx context.Context, db *gorm.DB, column string) ([]string, error) {
	var out []string
	err := db.WithContext(ctx).Model(&domain.Product{}).Pluck(column, &out).Error
	return out, err
}

// compileProductQuery translates a FilterQuery into WHERE clauses and args.
// Composition is AND across every present field; each member of a set-valued
// inclusion filter contributes its own contains-predicate (a product must
// match ALL listed tags), and each excluded allergen contributes its own
// NOT-contains predicate.
func compileProductQuery(f domain.FilterQuery) (where []string, args []any) {
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= ?")
		args = append(args, *f.MaxPrice)
	}
	for _, tag := range f.MoodTags {
		where = append(where, "mood_tags LIKE ?")
		args = append(args, like(tag))
	}
	for _, tag := range f.DietaryTags {
		where = append(where, "dietary_tags LIKE ?")
		args = append(args, like(tag))
	}
	for _, ing := range f.IngredientsInclude {
		where = append(where, "ingredients LIKE ?")
		args = append(args, like(ing))
	}
	for _, al := range f.AllergensExclude {
		where = append(where, "allergens NOT LIKE ?")
		args = append(args, like(al))
	}
	if f.ChefSpecial != nil {
		where = append(where, "chef_special = ?")
		args = append(args, *f.ChefSpecial)
	}
	if f.LimitedTime != nil {
		where = append(where, "limited_time = ?")
		args = append(args, *f.LimitedTime)
	}
	if f.MinSpice != nil {
		where = append(where, "spice_level >= ?")
		args = append(args, *f.MinSpice)
	}
	if f.MaxSpice != nil {
		where = append(where, "spice_level <= ?")
		args = append(args, *f.MaxSpice)
	}
	if f.MaxCalories != nil {
		where = append(where, "calories <= ?")
		args = append(args, *f.MaxCalories)
	}
	if f.MinPopularity != nil {
		where = append(where, "popularity_score >= ?")
		args = append(args, *f.MinPopularity)
	}
	return where, args
}

// like wraps a tag in SQL LIKE wildcards for contains matching against the
// serialized tag columns.
func like(tag string) string {
	return "%" + strings.TrimSpace(tag) + "%"
}

// FindProducts executes a FilterQuery against the catalog.
//
// Ordering is popularity_score DESC when the filter requests popular items
// or sets a popularity threshold; otherwise catalog (insertion) order is
// preserved. Results are truncated to FilterQuery.Limit(). The returned
// QueryDebug is non-nil only when f.Debug is set.
func FindProducts(ctx context.Context, db *gorm.DB, f domain.FilterQuery) ([]domain.Product, *QueryDebug, error) {
	if f.Unsatisfiable() {
		// min_spice > max_spice can never match; resolve locally instead of
		// round-tripping a contradiction to the store.
		var dbg *QueryDebug
		if f.Debug {
			dbg = &QueryDebug{Where: []string{"1=0 (unsatisfiable spice bounds)"}, Limit: f.Limit()}
		}
		return []domain.Product{}, dbg, nil
	}

	where, args := compileProductQuery(f)

	q := db.WithContext(ctx).Model(&domain.Product{})
	for i, w := range where {
		q = q.Where(w, args[i])
	}

	order := "rowid ASC"
	if f.ByPopularity() {
		order = "popularity_score DESC"
	}
	q = q.Order(order).Limit(f.Limit())

	var out []domain.Product
	if err := q.Find(&out).Error; err != nil {
		return nil, nil, err
	}
	if out == nil {
		out = []domain.Product{}
	}

	var dbg *QueryDebug
	if f.Debug {
		dbg = &QueryDebug{Where: where, Args: args, OrderBy: order, Limit: f.Limit()}
	}
	return out, dbg, nil
}

// DebugString renders the compiled query for logs.
func (d *QueryDebug) DebugString() string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("WHERE %s ORDER BY %s LIMIT %d ARGS %v",
		strings.Join(d.Where, " AND "), d.OrderBy, d.Limit, d.Args)
}
