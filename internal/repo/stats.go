// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate read projections over the
// conversation log that feed the analytics surface. Projections are pure
// reads: they never mutate the log. Each function is context-aware and safe
// to call from services or handlers.
package repo

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-foodiebot-backend/internal/domain"
)

// DropOffScoreThreshold marks a turn as a disengagement signal: products
// were shown but the resulting score stayed below this value.
const DropOffScoreThreshold = 20

// ScorePoint is one step of a session's interest progression.
type ScorePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Score     int       `json:"score"`
}

// DayDuration aggregates session durations for one calendar day (UTC),
// bucketed by the day a session started.
type DayDuration struct {
	Day        string  `json:"day"` // YYYY-MM-DD
	Sessions   int     `json:"sessions"`
	AvgSeconds float64 `json:"avg_seconds"`
}

// ProductCount is one entry of the recommendation-frequency histogram.
type ProductCount struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
}

// ProductConversion ranks a product by the interest it accumulated across
// every turn it was recommended in.
type ProductConversion struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	TotalScore int    `json:"total_score"`
}

// DropOff is a turn where products were presented but interest stayed at or
// near the domain minimum.
type DropOff struct {
	SessionID string    `json:"session_id"`
	TurnID    uint      `json:"turn_id"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// ScoreProgression returns the interest score over time for one session,
// ordered by timestamp ascending.
func ScoreProgression(ctx context.Context, db *gorm.DB, sessionID string) ([]ScorePoint, error) {
	var rows []struct {
		CreatedAt     time.Time
		InterestScore int
	}
	err := db.WithContext(ctx).
		Model(&domain.ConversationTurn{}).
		Select("created_at", "interest_score").
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ScorePoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, ScorePoint{Timestamp: r.CreatedAt, Score: r.InterestScore})
	}
	return out, nil
}

// SessionDurationsByDay computes, per UTC day, the average duration of the
// sessions that started on that day (first-turn to last-turn span).
func SessionDurationsByDay(ctx context.Context, db *gorm.DB) ([]DayDuration, error) {
	// MIN()/MAX() over a datetime column come back as TEXT in SQLite and do
	// not scan into time.Time. Read the typed column and fold the per-session
	// span in Go instead.
	var rows []struct {
		SessionID string
		CreatedAt time.Time
	}
	err := db.WithContext(ctx).
		Model(&domain.ConversationTurn{}).
		Select("session_id", "created_at").
		Order("session_id ASC, created_at ASC, id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	type span struct {
		started time.Time
		ended   time.Time
	}
	spans := make(map[string]*span)
	for _, r := range rows {
		sp, ok := spans[r.SessionID]
		if !ok {
			spans[r.SessionID] = &span{started: r.CreatedAt, ended: r.CreatedAt}
			continue
		}
		if r.CreatedAt.Before(sp.started) {
			sp.started = r.CreatedAt
		}
		if r.CreatedAt.After(sp.ended) {
			sp.ended = r.CreatedAt
		}
	}

	type bucket struct {
		total time.Duration
		n     int
	}
	byDay := make(map[string]*bucket)
	for _, sp := range spans {
		day := sp.started.UTC().Format("2006-01-02")
		b, ok := byDay[day]
		if !ok {
			b = &bucket{}
			byDay[day] = b
		}
		b.total += sp.ended.Sub(sp.started)
		b.n++
	}

	out := make([]DayDuration, 0, len(byDay))
	for day, b := range byDay {
		out = append(out, DayDuration{
			Day:        day,
			Sessions:   b.n,
			AvgSeconds: b.total.Seconds() / float64(b.n),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// RecommendationCounts builds the recommendation-frequency histogram across
// all turns, most-recommended first. Product snapshots are decoded in Go
// rather than in SQL so legacy rows with odd payloads are simply skipped.
func RecommendationCounts(ctx context.Context, db *gorm.DB) ([]ProductCount, error) {
	turns, err := scanTurnPayloads(ctx, db)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]*ProductCount)
	for _, t := range turns {
		products, err := DecodeTurnProducts(t)
		if err != nil {
			continue // tolerate malformed legacy snapshots
		}
		for _, p := range products {
			pc, ok := counts[p.ProductID]
			if !ok {
				pc = &ProductCount{ProductID: p.ProductID, Name: p.Name}
				counts[p.ProductID] = pc
			}
			pc.Count++
		}
	}

	out := make([]ProductCount, 0, len(counts))
	for _, pc := range counts {
		out = append(out, *pc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

// HighestConvertingProducts ranks products by the sum of the interest scores
// of the turns in which they were recommended, highest first.
func HighestConvertingProducts(ctx context.Context, db *gorm.DB) ([]ProductConversion, error) {
	turns, err := scanTurnPayloads(ctx, db)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]*ProductConversion)
	for _, t := range turns {
		products, err := DecodeTurnProducts(t)
		if err != nil {
			continue
		}
		for _, p := range products {
			pc, ok := scores[p.ProductID]
			if !ok {
				pc = &ProductConversion{ProductID: p.ProductID, Name: p.Name}
				scores[p.ProductID] = pc
			}
			pc.TotalScore += t.InterestScore
		}
	}

	out := make([]ProductConversion, 0, len(scores))
	for _, pc := range scores {
		out = append(out, *pc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

// DropOffs lists the turns where products were shown but the score stayed
// below DropOffScoreThreshold.
func DropOffs(ctx context.Context, db *gorm.DB) ([]DropOff, error) {
	var rows []domain.ConversationTurn
	err := db.WithContext(ctx).
		Where("interest_score < ?", DropOffScoreThreshold).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]DropOff, 0, len(rows))
	for _, t := range rows {
		products, err := DecodeTurnProducts(t)
		if err != nil || len(products) == 0 {
			continue // only turns that actually presented products count
		}
		out = append(out, DropOff{
			SessionID: t.SessionID,
			TurnID:    t.ID,
			Score:     t.InterestScore,
			Timestamp: t.CreatedAt,
		})
	}
	return out, nil
}

// scanTurnPayloads loads the columns the snapshot-decoding projections need.
func scanTurnPayloads(ctx context.Context, db *gorm.DB) ([]domain.ConversationTurn, error) {
	var out []domain.ConversationTurn
	err := db.WithContext(ctx).
		Model(&domain.ConversationTurn{}).
		Select("id", "session_id", "interest_score", "products", "created_at").
		Find(&out).Error
	return out, err
}
