// Analytics HTTP handlers.
//
// This file exposes read-only analytics projections computed from the
// conversation log:
//   - GET /analytics/sessions/{session}/scores   (interest progression)
//   - GET /analytics/sessions/{session}/history  (full transcript)
//   - GET /analytics/session-durations           (durations by day)
//   - GET /analytics/most-recommended            (recommendation frequency)
//   - GET /analytics/conversions                 (highest-converting products)
//   - GET /analytics/drop-offs                   (low-interest exits)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-foodiebot-backend/internal/services"
	"github.com/tbourn/go-foodiebot-backend/internal/utils"
)

// clampAnalyticsLimit parses the limit query parameter, applying a default
// and a hard cap.
func clampAnalyticsLimit(c *gin.Context) int {
	const (
		defaultLimit = 10
		maxLimit     = 100
	)
	limit := utils.AtoiDefault(c.Query("limit"), defaultLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

// sessionParam extracts and validates the :session path parameter.
func sessionParam(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("session"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id required")
		return "", false
	}
	return id, true
}

// ScoreProgression godoc
// @ID          scoreProgression
// @Summary     Interest score progression for a session
// @Description Returns the chronological interest scores of a session's turns.
// @Tags        Analytics
// @Produce     json
//
// @Param       session  path  string  true  "Session ID"
//
// @Success     200  {array}   repo.ScorePoint
// @Failure     404  {object}  handlers.ErrorResponse "Session not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /analytics/sessions/{session}/scores [get]
func (h *Handlers) ScoreProgression(c *gin.Context) {
	sessionID, okParam := sessionParam(c)
	if !okParam {
		return
	}
	points, err := h.analyticsSvc.ScoreProgression(c.Request.Context(), sessionID)
	if err != nil {
		failAnalytics(c, err)
		return
	}
	ok(c, http.StatusOK, points)
}

// SessionHistory godoc
// @ID          sessionHistory
// @Summary     Full transcript of a session
// @Description Returns every logged turn of a session, oldest first.
// @Tags        Analytics
// @Produce     json
//
// @Param       session  path  string  true  "Session ID"
//
// @Success     200  {array}   domain.ConversationTurn
// @Failure     404  {object}  handlers.ErrorResponse "Session not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /analytics/sessions/{session}/history [get]
func (h *Handlers) SessionHistory(c *gin.Context) {
	sessionID, okParam := sessionParam(c)
	if !okParam {
		return
	}
	turns, err := h.analyticsSvc.History(c.Request.Context(), sessionID)
	if err != nil {
		failAnalytics(c, err)
		return
	}
	ok(c, http.StatusOK, turns)
}

// SessionDurations godoc
// @ID          sessionDurations
// @Summary     Session durations by day
// @Description Returns per-session durations bucketed by calendar day.
// @Tags        Analytics
// @Produce     json
//
// @Success     200  {array}   repo.DayDuration
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /analytics/session-durations [get]
func (h *Handlers) SessionDurations(c *gin.Context) {
	days, err := h.analyticsSvc.SessionDurations(c.Request.Context())
	if err != nil {
		failAnalytics(c, err)
		return
	}
	ok(c, http.StatusOK, days)
}

// MostRecommended godoc
// @ID          mostRecommended
// @Summary     Most recommended products
// @Description Returns products ranked by how often they were surfaced.
// @Tags        Analytics
// @Produce     json
//
// @Param       limit  query  int  false  "Max results" minimum(1) maximum(100) default(10)
//
// @Success     200  {array}   repo.ProductCount
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /analytics/most-recommended [get]
func (h *Handlers) MostRecommended(c *gin.Context) {
	counts, err := h.analyticsSvc.MostRecommended(c.Request.Context(), clampAnalyticsLimit(c))
	if err != nil {
		failAnalytics(c, err)
		return
	}
	ok(c, http.StatusOK, counts)
}

// Conversions godoc
// @ID          conversions
// @Summary     Highest-converting products
// @Description Returns products ranked by how often they were on screen when
// @Description the interest score reached its maximum.
// @Tags        Analytics
// @Produce     json
//
// @Param       limit  query  int  false  "Max results" minimum(1) maximum(100) default(10)
//
// @Success     200  {array}   repo.ProductConversion
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /analytics/conversions [get]
func (h *Handlers) Conversions(c *gin.Context) {
	conversions, err := h.analyticsSvc.HighestConverting(c.Request.Context(), clampAnalyticsLimit(c))
	if err != nil {
		failAnalytics(c, err)
		return
	}
	ok(c, http.StatusOK, conversions)
}

// DropOffs godoc
// @ID          dropOffs
// @Summary     Low-interest exits
// @Description Returns turns where recommendations were shown but interest
// @Description stayed below the drop-off threshold.
// @Tags        Analytics
// @Produce     json
//
// @Param       limit  query  int  false  "Max results" minimum(1) maximum(100) default(10)
//
// @Success     200  {array}   repo.DropOff
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /analytics/drop-offs [get]
func (h *Handlers) DropOffs(c *gin.Context) {
	offs, err := h.analyticsSvc.DropOffs(c.Request.Context(), clampAnalyticsLimit(c))
	if err != nil {
		failAnalytics(c, err)
		return
	}
	ok(c, http.StatusOK, offs)
}

// failAnalytics maps service errors from analytics endpoints to responses.
func failAnalytics(c *gin.Context, err error) {
	if errors.Is(err, services.ErrSessionNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		return
	}
	fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
}
