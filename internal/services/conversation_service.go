// Package services – ConversationService
//
// This file implements ConversationService, the application-level component
// that owns a full conversation turn: it serializes turns per session,
// consults the oracle for a structured reply, updates the bounded interest
// score, queries the catalog with the extracted filters, and appends the
// completed turn to the conversation log.
//
// Failure policy: oracle transport failures and repeated contract violations
// fail the turn (the caller maps them to an upstream-error status); a failure
// to append the turn to the log is logged and swallowed, because the customer
// already has a usable reply in hand.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include session identifiers and the computed interest score.

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-foodiebot-backend/internal/domain"
	"github.com/tbourn/go-foodiebot-backend/internal/facets"
	"github.com/tbourn/go-foodiebot-backend/internal/oracle"
	"github.com/tbourn/go-foodiebot-backend/internal/repo"
	"github.com/tbourn/go-foodiebot-backend/internal/scoring"
	"github.com/tbourn/go-foodiebot-backend/internal/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ConversationService coordinates oracle calls, catalog retrieval, scoring,
// and turn logging.
type ConversationService struct {
	DB       *gorm.DB
	Oracle   oracle.Completer
	Sessions *session.Registry

	// Optional guards
	MaxMessageRunes int
}

// TurnResult is the outcome of one processed turn.
type TurnResult struct {
	SessionID     string             `json:"session_id"`
	Reply         string             `json:"reply"`
	InterestScore int                `json:"interest_score"`
	Filters       domain.FilterQuery `json:"filters"`
	Products      []domain.Product   `json:"suggested_products"`
	Debug         *repo.QueryDebug   `json:"debug,omitempty"`

	// TurnID is the log row backing this turn, 0 when the append failed.
	// It exists for idempotency bookkeeping and is not part of the payload.
	TurnID uint `json:"-"`
}

// Turn processes one user message for a session. An empty sessionID starts a
// fresh session under a generated identifier, returned in the result.
//
// Turns of the same session are applied strictly one at a time; concurrent
// requests queue on the session lock.
func (s *ConversationService) Turn(ctx context.Context, sessionID, message string, debug bool) (*TurnResult, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "Turn",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(message) > s.MaxMessageRunes {
		return nil, ErrTooLong
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	st := s.Sessions.Acquire(sessionID)
	st.Lock()
	defer st.Unlock()

	previous, err := repo.LastInterestScore(ctx, s.DB, sessionID)
	if err != nil {
		return nil, err
	}

	vocab, err := facets.Extract(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	structured, err := s.converse(ctx, vocab, st.Window(), message, previous)
	if err != nil {
		return nil, err
	}

	score := scoring.Apply(previous, structured.Score, message)
	span.SetAttributes(attribute.Int("interest.score", score))

	filters := structured.Filters
	filters.Debug = debug
	products, dbg, err := repo.FindProducts(ctx, s.DB, filters)
	if err != nil {
		return nil, err
	}

	reply := augmentReply(structured.Reply, products)
	st.Remember(message)

	// The reply is already computed; a logging failure must not sink it.
	var turnID uint
	if turn, err := repo.AppendTurn(ctx, s.DB, sessionID, message, reply, score, filters, products); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("turn log append failed")
	} else {
		turnID = turn.ID
	}

	return &TurnResult{
		SessionID:     sessionID,
		Reply:         reply,
		InterestScore: score,
		Filters:       filters,
		Products:      products,
		Debug:         dbg,
		TurnID:        turnID,
	}, nil
}

// converse runs one completion round trip and validates the payload,
// retrying exactly once when the payload violates the structured-output
// contract. Transport failures are never retried here.
func (s *ConversationService) converse(ctx context.Context, vocab facets.Vocabulary, window []string, message string, previous int) (*oracle.StructuredReply, error) {
	system := oracle.BuildSystemPrompt(vocab, previous)
	messages := oracle.BuildMessages(system, window, message)

	structured, err := s.completeOnce(ctx, vocab, messages)
	var ce *oracle.ContractError
	if errors.As(err, &ce) {
		log.Warn().Str("reason", ce.Reason).Msg("oracle contract violation, retrying once")
		structured, err = s.completeOnce(ctx, vocab, messages)
	}
	if err != nil {
		if errors.As(err, &ce) {
			return nil, fmt.Errorf("%w: %s", ErrOracleContract, ce.Reason)
		}
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	return structured, nil
}

func (s *ConversationService) completeOnce(ctx context.Context, vocab facets.Vocabulary, messages []oracle.Message) (*oracle.StructuredReply, error) {
	raw, err := s.Oracle.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}
	return oracle.ParseReply(raw, vocab)
}

// augmentReply pitches the top recommendation when the oracle's reply does
// not already mention it by name.
func augmentReply(reply string, products []domain.Product) string {
	if len(products) == 0 {
		return reply
	}
	top := products[0]
	if strings.Contains(strings.ToLower(reply), strings.ToLower(top.Name)) {
		return reply
	}
	return fmt.Sprintf("%s How about our '%s' for $%.2f?", reply, top.Name, top.Price)
}
