// Catalog HTTP handlers.
//
// This file exposes read-only browse endpoints over the product catalog:
//   - GET /products  (filtered product listing)
//   - GET /facets    (distinct categories, tags, allergens, ingredients)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-foodiebot-backend/internal/domain"
	"github.com/tbourn/go-foodiebot-backend/internal/utils"
)

// maxListLimit caps the number of products a single listing may return.
const maxListLimit = 50

// ListProductsResponse contains the filtered product listing.
type ListProductsResponse struct {
	Products []domain.Product `json:"products"`
	Count    int              `json:"count"`
}

// ListProducts godoc
// @ID          listProducts
// @Summary     Browse the product catalog
// @Description Returns products matching the given query filters, in stable
// @Description catalog order (or by popularity when popular=true).
// @Tags        Catalog
// @Produce     json
//
// @Param       category          query  string  false "Category name (case-insensitive)"
// @Param       max_price         query  number  false "Maximum price"
// @Param       max_calories      query  int     false "Maximum calories"
// @Param       min_spice         query  int     false "Minimum spice level (0-10)"
// @Param       max_spice         query  int     false "Maximum spice level (0-10)"
// @Param       mood              query  string  false "Comma-separated mood tags (all must match)"
// @Param       dietary           query  string  false "Comma-separated dietary tags (all must match)"
// @Param       exclude_allergens query  string  false "Comma-separated allergens to exclude"
// @Param       ingredients       query  string  false "Comma-separated ingredients (all must be present)"
// @Param       popular           query  bool    false "Rank by popularity"
// @Param       min_popularity    query  number  false "Minimum popularity score (0-100)"
// @Param       chef_special      query  bool    false "Chef specials only"
// @Param       limited_time      query  bool    false "Limited-time items only"
// @Param       limit             query  int     false "Max results" minimum(1) maximum(50) default(3)
//
// @Success     200  {object}  handlers.ListProductsResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	f := filterFromQuery(c)

	products, err := h.catalogSvc.List(c.Request.Context(), f)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	ok(c, http.StatusOK, ListProductsResponse{Products: products, Count: len(products)})
}

// Facets godoc
// @ID          listFacets
// @Summary     List catalog facets
// @Description Returns the distinct categories, mood tags, dietary tags,
// @Description allergens, and ingredients present in the catalog.
// @Tags        Catalog
// @Produce     json
//
// @Success     200  {object}  facets.Vocabulary
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /facets [get]
func (h *Handlers) Facets(c *gin.Context) {
	v, err := h.catalogSvc.Vocabulary(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, v)
}

// filterFromQuery builds a FilterQuery from listing query parameters.
// Malformed values fall back to "unconstrained" rather than erroring.
func filterFromQuery(c *gin.Context) domain.FilterQuery {
	var f domain.FilterQuery
	f.Category = strings.TrimSpace(c.Query("category"))

	if v := c.Query("max_price"); v != "" {
		if p := utils.ParseFloatDefault(v, -1); p >= 0 {
			f.MaxPrice = &p
		}
	}
	if v := c.Query("max_calories"); v != "" {
		if n := utils.AtoiDefault(v, -1); n >= 0 {
			f.MaxCalories = &n
		}
	}
	if v := c.Query("min_spice"); v != "" {
		if n := utils.AtoiDefault(v, -1); n >= 0 && n <= 10 {
			f.MinSpice = &n
		}
	}
	if v := c.Query("max_spice"); v != "" {
		if n := utils.AtoiDefault(v, -1); n >= 0 && n <= 10 {
			f.MaxSpice = &n
		}
	}
	if v := c.Query("min_popularity"); v != "" {
		if p := utils.ParseFloatDefault(v, -1); p >= 0 && p <= 100 {
			f.MinPopularity = &p
		}
	}

	f.MoodTags = splitTags(c.Query("mood"))
	f.DietaryTags = splitTags(c.Query("dietary"))
	f.AllergensExclude = splitTags(c.Query("exclude_allergens"))
	f.IngredientsInclude = splitTags(c.Query("ingredients"))

	if b, ok := parseBoolParam(c.Query("popular")); ok {
		f.Popular = &b
	}
	if b, ok := parseBoolParam(c.Query("chef_special")); ok {
		f.ChefSpecial = &b
	}
	if b, ok := parseBoolParam(c.Query("limited_time")); ok {
		f.LimitedTime = &b
	}

	limit := utils.AtoiDefault(c.Query("limit"), domain.DefaultResultLimit)
	if limit < 1 {
		limit = domain.DefaultResultLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	f.ResultLimit = limit
	return f
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseBoolParam(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
