// Chat HTTP handlers.
//
// This file exposes the conversational endpoint:
//   - POST /chat  (submit one user message, get reply + recommendations)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
//
// Idempotency:
// If the client supplies an Idempotency-Key header (scoped by session), and a
// previous successful result exists for (session, key), the handler returns
// the previously logged turn and sets `Idempotency-Replayed: true`.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-foodiebot-backend/internal/domain"
	"github.com/tbourn/go-foodiebot-backend/internal/facets"
	"github.com/tbourn/go-foodiebot-backend/internal/http/middleware"
	"github.com/tbourn/go-foodiebot-backend/internal/repo"
	"github.com/tbourn/go-foodiebot-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// ConversationService defines the turn-processing operation consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ConversationService interface {
	// Turn processes one user message and returns the reply, score, and
	// recommendations. An empty sessionID starts a new session.
	Turn(ctx context.Context, sessionID, message string, debug bool) (*services.TurnResult, error)
}

// CatalogService defines catalog browse operations.
type CatalogService interface {
	// List returns products matching the filter query.
	List(ctx context.Context, f domain.FilterQuery) ([]domain.Product, error)
	// Vocabulary returns the catalog's enumerable attribute values.
	Vocabulary(ctx context.Context) (facets.Vocabulary, error)
	// Count reports the catalog size.
	Count(ctx context.Context) (int64, error)
}

// AnalyticsService defines read-only projections over the conversation log.
type AnalyticsService interface {
	ScoreProgression(ctx context.Context, sessionID string) ([]repo.ScorePoint, error)
	History(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)
	SessionDurations(ctx context.Context) ([]repo.DayDuration, error)
	MostRecommended(ctx context.Context, limit int) ([]repo.ProductCount, error)
	HighestConverting(ctx context.Context, limit int) ([]repo.ProductConversion, error)
	DropOffs(ctx context.Context, limit int) ([]repo.DropOff, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for conversation, catalog, and analytics.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	convSvc      ConversationService
	catalogSvc   CatalogService
	analyticsSvc AnalyticsService

	// db and idemTTL back the idempotent-replay bookkeeping for POST /chat.
	db      *gorm.DB
	idemTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
// db may be nil, which disables idempotent replay.
func New(conv ConversationService, catalog CatalogService, analytics AnalyticsService, db *gorm.DB, idemTTL time.Duration) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{
		convSvc:      conv,
		catalogSvc:   catalog,
		analyticsSvc: analytics,
		db:           db,
		idemTTL:      idemTTL,
	}
}

//
// DTOs
//

// ChatRequest is the JSON payload for submitting one conversation turn.
type ChatRequest struct {
	// SessionID continues an existing conversation; leave empty to start one.
	SessionID string `json:"session_id" example:"7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab"`
	// Message is the user utterance. It must be non-empty.
	Message string `json:"message" binding:"required,min=1" example:"Any spicy vegetarian options under $10?"`
	// Debug opts in to the compiled catalog query plan in the response.
	Debug bool `json:"debug" example:"false"`
}

// ChatResponse is the JSON envelope for a processed turn.
type ChatResponse struct {
	SessionID       string             `json:"session_id"`
	Reply           string             `json:"reply"`
	InterestScore   int                `json:"interest_score"`
	Filters         domain.FilterQuery `json:"filters"`
	Recommendations []domain.Product   `json:"suggested_products"`
	Debug           *repo.QueryDebug   `json:"debug,omitempty"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeMessage normalizes user text for consistent downstream behavior:
//   - converts CRLF/CR to LF,
//   - collapses runs of 3+ LFs to exactly two (paragraph separation),
//   - trims surrounding whitespace.
func sanitizeMessage(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// discoverMaxMessageRunes inspects the concrete ConversationService for a
// configured message-length limit. If unavailable, it returns a conservative
// fallback.
func discoverMaxMessageRunes(convSvc ConversationService) int {
	const fallback = 4000
	if cs, ok := convSvc.(*services.ConversationService); ok {
		if cs.MaxMessageRunes > 0 {
			return cs.MaxMessageRunes
		}
	}
	return fallback
}

//
// Handlers
//

// SubmitTurn godoc
// @ID          submitTurn
// @Summary     Send a message and get a recommendation reply
// @Description Processes one conversation turn: extracts filters, updates the
// @Description session interest score, and returns matching products.
// @Description Supports idempotency via the Idempotency-Key header scoped by session.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.ChatRequest  true  "Turn payload"
//
// @Success     200  {object}  handlers.ChatResponse   "Processed turn"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse  "Oracle unavailable"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat [post]
func (h *Handlers) SubmitTurn(c *gin.Context) {
	ctx := c.Request.Context()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	// Sanitize + early size cap to fail fast at the edge.
	message := sanitizeMessage(req.Message)
	maxRunes := discoverMaxMessageRunes(h.convSvc)
	if maxRunes > 0 && utf8.RuneCountInString(message) > maxRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("message too long: max %d runes", maxRunes))
		return
	}
	if message == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if len(sessionID) > 128 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id too long")
		return
	}

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && sessionID != "" && h.db != nil {
		if rec, err := repo.GetIdempotency(ctx, h.db, sessionID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if resp, err2 := h.replayTurn(ctx, rec.TurnID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusOK, resp)
				return
			}
		}
	}

	// Normal processing (service has a second guard for length).
	res, err := h.convSvc.Turn(ctx, sessionID, message, req.Debug)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		case errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("message too long: max %d runes", maxRunes))
		case errors.Is(err, services.ErrOracleUnavailable), errors.Is(err, services.ErrOracleContract):
			fail(c, http.StatusBadGateway, ErrCodeOracleUnavailable, "assistant is temporarily unavailable")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeTurnFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && h.db != nil && res.TurnID != 0 {
		_, _ = repo.CreateIdempotency(ctx, h.db, res.SessionID, idemKey, res.TurnID, http.StatusOK, h.idemTTL)
	}

	ok(c, http.StatusOK, ChatResponse{
		SessionID:       res.SessionID,
		Reply:           res.Reply,
		InterestScore:   res.InterestScore,
		Filters:         res.Filters,
		Recommendations: res.Products,
		Debug:           res.Debug,
	})
}

// replayTurn reconstructs a ChatResponse from a previously logged turn.
func (h *Handlers) replayTurn(ctx context.Context, turnID uint) (*ChatResponse, error) {
	turn, err := repo.GetTurn(ctx, h.db, turnID)
	if err != nil {
		return nil, err
	}
	filters, err := repo.DecodeTurnFilters(*turn)
	if err != nil {
		return nil, err
	}
	products, err := repo.DecodeTurnProducts(*turn)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return &ChatResponse{
		SessionID:       turn.SessionID,
		Reply:           turn.BotReply,
		InterestScore:   turn.InterestScore,
		Filters:         filters,
		Recommendations: products,
	}, nil
}
