// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the append-only conversation log.
//
// Log records are immutable: there is no update or delete path. Read
// ordering within a session is CreatedAt ASC with ID ASC as a tiebreaker so
// that turns logged in the same timestamp tick stay deterministic.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-foodiebot-backend/internal/domain"
)

// AppendTurn inserts one ConversationTurn. The insert is a single statement,
// so a record is either fully visible or absent.
func AppendTurn(ctx context.Context, db *gorm.DB, sessionID, userMessage, botReply string, score int, filters domain.FilterQuery, products []domain.Product) (*domain.ConversationTurn, error) {
	fb, err := json.Marshal(filters)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	pb, err := json.Marshal(products)
	if err != nil {
		return nil, err
	}

	t := &domain.ConversationTurn{
		SessionID:     sessionID,
		UserMessage:   userMessage,
		BotReply:      botReply,
		InterestScore: score,
		Filters:       string(fb),
		Products:      string(pb),
		CreatedAt:     time.Now().UTC(),
	}
	return t, db.WithContext(ctx).Create(t).Error
}

// GetTurn fetches one logged turn by primary key. Used to replay idempotent
// turn submissions.
func GetTurn(ctx context.Context, db *gorm.DB, id uint) (*domain.ConversationTurn, error) {
	var t domain.ConversationTurn
	if err := db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTurnsBySession returns every turn of a session in analytics order
// (CreatedAt ASC, ID ASC).
func ListTurnsBySession(ctx context.Context, db *gorm.DB, sessionID string) ([]domain.ConversationTurn, error) {
	var out []domain.ConversationTurn
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// LastInterestScore returns the interest score of the most recent turn for
// the session, or 0 when the session has no prior turns. The log is the
// single durable source for "previous score"; the scoring model reads it
// from here rather than keeping its own store.
func LastInterestScore(ctx context.Context, db *gorm.DB, sessionID string) (int, error) {
	var row struct {
		InterestScore int
	}
	err := db.WithContext(ctx).
		Model(&domain.ConversationTurn{}).
		Select("interest_score").
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.InterestScore, nil
}

// CountTurns uses a raw COUNT so a missing table surfaces as an error.
func CountTurns(ctx context.Context, db *gorm.DB, sessionID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM conversations WHERE session_id = ?", sessionID).
		Scan(&total).Error
	return total, err
}

// DecodeTurnProducts unmarshals the product snapshot column of a turn.
func DecodeTurnProducts(t domain.ConversationTurn) ([]domain.Product, error) {
	if t.Products == "" {
		return nil, nil
	}
	var out []domain.Product
	if err := json.Unmarshal([]byte(t.Products), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeTurnFilters unmarshals the filter column of a turn.
func DecodeTurnFilters(t domain.ConversationTurn) (domain.FilterQuery, error) {
	var f domain.FilterQuery
	if t.Filters == "" {
		return f, nil
	}
	err := json.Unmarshal([]byte(t.Filters), &f)
	return f, err
}
