// Package services – AnalyticsService
//
// This file implements AnalyticsService, read-only projections computed from
// the append-only conversation log: interest progression per session, session
// durations bucketed by day, recommendation frequency, conversion counts, and
// drop-off points. Every projection is recomputed from the log on demand.

package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-foodiebot-backend/internal/domain"
	"github.com/tbourn/go-foodiebot-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AnalyticsService answers analytics queries over the conversation log.
type AnalyticsService struct {
	DB *gorm.DB
}

// ScoreProgression returns the chronological interest scores of a session.
// A session with no logged turns returns ErrSessionNotFound.
func (s *AnalyticsService) ScoreProgression(ctx context.Context, sessionID string) ([]repo.ScorePoint, error) {
	tr := otel.Tracer("services/AnalyticsService")
	ctx, span := tr.Start(ctx, "ScoreProgression",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	points, err := repo.ScoreProgression(ctx, s.DB, sessionID)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrSessionNotFound
	}
	return points, nil
}

// History returns the full logged transcript of a session, oldest first.
func (s *AnalyticsService) History(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	tr := otel.Tracer("services/AnalyticsService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	turns, err := repo.ListTurnsBySession(ctx, s.DB, sessionID)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, ErrSessionNotFound
	}
	return turns, nil
}

// SessionDurations buckets session durations by calendar day.
func (s *AnalyticsService) SessionDurations(ctx context.Context) ([]repo.DayDuration, error) {
	tr := otel.Tracer("services/AnalyticsService")
	ctx, span := tr.Start(ctx, "SessionDurations")
	defer span.End()

	return repo.SessionDurationsByDay(ctx, s.DB)
}

// MostRecommended returns products ranked by how often they were surfaced,
// trimmed to limit when limit is positive.
func (s *AnalyticsService) MostRecommended(ctx context.Context, limit int) ([]repo.ProductCount, error) {
	tr := otel.Tracer("services/AnalyticsService")
	ctx, span := tr.Start(ctx, "MostRecommended",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	counts, err := repo.RecommendationCounts(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return clip(counts, limit), nil
}

// HighestConverting returns products ranked by how often they were on screen
// when the interest score reached its maximum.
func (s *AnalyticsService) HighestConverting(ctx context.Context, limit int) ([]repo.ProductConversion, error) {
	tr := otel.Tracer("services/AnalyticsService")
	ctx, span := tr.Start(ctx, "HighestConverting",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	conversions, err := repo.HighestConvertingProducts(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return clip(conversions, limit), nil
}

// DropOffs returns the turns where recommendations were shown but interest
// stayed below the drop-off threshold.
func (s *AnalyticsService) DropOffs(ctx context.Context, limit int) ([]repo.DropOff, error) {
	tr := otel.Tracer("services/AnalyticsService")
	ctx, span := tr.Start(ctx, "DropOffs",
		trace.WithAttributes(attribute.Int("limit", limit)),
	)
	defer span.End()

	offs, err := repo.DropOffs(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return clip(offs, limit), nil
}

func clip[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
