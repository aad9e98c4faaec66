// Package services – CatalogService
//
// This file implements CatalogService, the read-only browse surface over the
// product catalog: filtered product listings and the live attribute
// vocabulary derived from them.

package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-foodiebot-backend/internal/domain"
	"github.com/tbourn/go-foodiebot-backend/internal/facets"
	"github.com/tbourn/go-foodiebot-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CatalogService answers catalog browse queries.
type CatalogService struct {
	DB *gorm.DB
}

// List returns products matching the query, in stable catalog order unless
// the query asks for popularity ranking.
func (s *CatalogService) List(ctx context.Context, f domain.FilterQuery) ([]domain.Product, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(attribute.String("category", f.Category)),
	)
	defer span.End()

	products, _, err := repo.FindProducts(ctx, s.DB, f)
	return products, err
}

// Vocabulary returns the distinct categories, tags, allergens, and
// ingredients present in the catalog.
func (s *CatalogService) Vocabulary(ctx context.Context) (facets.Vocabulary, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Vocabulary")
	defer span.End()

	return facets.Extract(ctx, s.DB)
}

// Count reports the catalog size.
func (s *CatalogService) Count(ctx context.Context) (int64, error) {
	return repo.CountProducts(ctx, s.DB)
}
