package oracle

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-foodiebot-backend/internal/domain"
	"github.com/tbourn/go-foodiebot-backend/internal/facets"
)

// StructuredReply is the validated outcome of one oracle turn.
type StructuredReply struct {
	Reply   string
	Filters domain.FilterQuery
	Score   *int // per-turn interest signal; nil when omitted or unusable
}

// scoreSignalBound limits the magnitude of a single turn's interest signal.
const scoreSignalBound = 100

var titleCaser = cases.Title(language.English)

// ParseReply validates a raw oracle payload against the structured-output
// contract and coerces the filters into a typed query.
//
// Contract violations (unparseable JSON, missing filters object, empty
// reply) return *ContractError. Individual filter values that are malformed
// or out of range are silently discarded; the corresponding dimension is
// left unconstrained. A category outside the catalog vocabulary is withheld
// rather than passed through.
func ParseReply(raw string, v facets.Vocabulary) (*StructuredReply, error) {
	payload := stripFences(raw)

	var env struct {
		Reply         string         `json:"reply"`
		Response      string         `json:"response"`
		Filters       map[string]any `json:"filters"`
		InterestScore any            `json:"interest_score"`
	}
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, &ContractError{Reason: "reply is not a JSON object", Raw: raw}
	}

	reply := strings.TrimSpace(env.Reply)
	if reply == "" {
		reply = strings.TrimSpace(env.Response)
	}
	if reply == "" {
		return nil, &ContractError{Reason: "reply text is empty", Raw: raw}
	}
	if env.Filters == nil {
		return nil, &ContractError{Reason: "filters object is missing", Raw: raw}
	}

	out := &StructuredReply{Reply: reply}
	out.Filters = coerceFilters(env.Filters, v)
	if s, ok := asInt(env.InterestScore); ok && s >= -scoreSignalBound && s <= scoreSignalBound {
		out.Score = &s
	}
	return out, nil
}

func coerceFilters(m map[string]any, v facets.Vocabulary) domain.FilterQuery {
	var f domain.FilterQuery

	if cat, ok := asString(m["category"]); ok {
		canonical := v.ResolveCategory(titleCaser.String(strings.ToLower(cat)))
		f.Category = canonical
	}
	if p, ok := asFloat(m["max_price"]); ok && p >= 0 {
		f.MaxPrice = &p
	}
	if c, ok := asInt(m["max_calories"]); ok && c >= 0 {
		f.MaxCalories = &c
	}
	if s, ok := asInt(m["min_spice"]); ok && s >= 0 && s <= 10 {
		f.MinSpice = &s
	}
	if s, ok := asInt(m["max_spice"]); ok && s >= 0 && s <= 10 {
		f.MaxSpice = &s
	}
	if p, ok := asFloat(m["min_popularity"]); ok && p >= 0 && p <= 100 {
		f.MinPopularity = &p
	}
	if b, ok := asBool(m["chef_special"]); ok {
		f.ChefSpecial = &b
	}
	if b, ok := asBool(m["popular"]); ok {
		f.Popular = &b
	}
	if b, ok := asBool(m["limited_time"]); ok {
		f.LimitedTime = &b
	}
	f.MoodTags = asStrings(m["mood_tags"])
	f.DietaryTags = asStrings(m["dietary_tags"])
	f.AllergensExclude = asStrings(m["allergens_exclude"])
	f.IngredientsInclude = asStrings(m["ingredients_include"])
	return f
}

// stripFences removes a surrounding markdown code fence, with or without a
// language marker, that some models wrap around JSON output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{}") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	s = strings.TrimSpace(s)
	return s, ok && s != ""
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// asBool accepts native booleans plus the capitalized string forms some
// models emit ("True", "False").
func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// asStrings accepts a list of strings or a single scalar string.
func asStrings(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := asString(item); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s, ok := asString(t); ok {
			return []string{s}
		}
	}
	return nil
}
