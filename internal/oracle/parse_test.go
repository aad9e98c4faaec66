package oracle

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tbourn/go-foodiebot-backend/internal/facets"
)

var testVocab = facets.Vocabulary{
	Categories:  []string{"Burgers", "Sides", "Wraps"},
	MoodTags:    []string{"adventurous", "comfort"},
	DietaryTags: []string{"spicy", "vegetarian"},
	Allergens:   []string{"gluten", "soy"},
	Ingredients: []string{"beef", "jalapeno", "tofu"},
}

func TestParseReply_FullPayload(t *testing.T) {
	raw := `{
		"reply": "Our Smoky Veggie Stack is a hit!",
		"filters": {
			"category": "burgers",
			"max_price": 9.5,
			"dietary_tags": ["vegetarian"],
			"allergens_exclude": ["soy"],
			"min_spice": 2,
			"chef_special": true,
			"min_popularity": 80
		},
		"interest_score": 25
	}`
	got, err := ParseReply(raw, testVocab)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if got.Reply != "Our Smoky Veggie Stack is a hit!" {
		t.Fatalf("reply = %q", got.Reply)
	}
	if got.Filters.Category != "Burgers" {
		t.Fatalf("category not canonicalized: %q", got.Filters.Category)
	}
	if got.Filters.MaxPrice == nil || *got.Filters.MaxPrice != 9.5 {
		t.Fatalf("max_price = %v", got.Filters.MaxPrice)
	}
	if !reflect.DeepEqual(got.Filters.DietaryTags, []string{"vegetarian"}) {
		t.Fatalf("dietary_tags = %v", got.Filters.DietaryTags)
	}
	if got.Filters.ChefSpecial == nil || !*got.Filters.ChefSpecial {
		t.Fatalf("chef_special = %v", got.Filters.ChefSpecial)
	}
	if got.Filters.MinPopularity == nil || *got.Filters.MinPopularity != 80 {
		t.Fatalf("min_popularity = %v", got.Filters.MinPopularity)
	}
	if got.Score == nil || *got.Score != 25 {
		t.Fatalf("score = %v", got.Score)
	}
}

func TestParseReply_StripsCodeFence(t *testing.T) {
	raw := "```json\n{\"reply\":\"sure\",\"filters\":{}}\n```"
	got, err := ParseReply(raw, testVocab)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if got.Reply != "sure" {
		t.Fatalf("reply = %q", got.Reply)
	}
}

func TestParseReply_CoercesLooseTypes(t *testing.T) {
	raw := `{
		"reply": "got it",
		"filters": {
			"max_price": "12.50",
			"popular": "True",
			"limited_time": "false",
			"mood_tags": "comfort"
		},
		"interest_score": "15"
	}`
	got, err := ParseReply(raw, testVocab)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if got.Filters.MaxPrice == nil || *got.Filters.MaxPrice != 12.5 {
		t.Fatalf("max_price = %v", got.Filters.MaxPrice)
	}
	if got.Filters.Popular == nil || !*got.Filters.Popular {
		t.Fatalf("popular = %v", got.Filters.Popular)
	}
	if got.Filters.LimitedTime == nil || *got.Filters.LimitedTime {
		t.Fatalf("limited_time = %v", got.Filters.LimitedTime)
	}
	if !reflect.DeepEqual(got.Filters.MoodTags, []string{"comfort"}) {
		t.Fatalf("scalar mood tag not promoted: %v", got.Filters.MoodTags)
	}
	if got.Score == nil || *got.Score != 15 {
		t.Fatalf("score = %v", got.Score)
	}
}

func TestParseReply_WithholdsUnknownCategory(t *testing.T) {
	raw := `{"reply":"hm","filters":{"category":"Sushi"}}`
	got, err := ParseReply(raw, testVocab)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if got.Filters.Category != "" {
		t.Fatalf("unknown category must be withheld, got %q", got.Filters.Category)
	}
}

func TestParseReply_DiscardsOutOfRangeValues(t *testing.T) {
	raw := `{
		"reply": "ok",
		"filters": {
			"max_price": -4,
			"min_spice": 14,
			"max_calories": "plenty",
			"min_popularity": 180
		},
		"interest_score": 9000
	}`
	got, err := ParseReply(raw, testVocab)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	f := got.Filters
	if f.MaxPrice != nil || f.MinSpice != nil || f.MaxCalories != nil || f.MinPopularity != nil {
		t.Fatalf("out-of-range values survived: %+v", f)
	}
	if got.Score != nil {
		t.Fatalf("out-of-range score survived: %v", *got.Score)
	}
}

func TestParseReply_ContractViolations(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "I would love a burger too!"},
		{"missing filters", `{"reply":"hello there"}`},
		{"empty reply", `{"reply":"  ","filters":{}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseReply(tc.raw, testVocab)
			var ce *ContractError
			if !errors.As(err, &ce) {
				t.Fatalf("want ContractError, got %v", err)
			}
			if strings.Contains(ce.Error(), tc.raw) && tc.raw != "" {
				t.Fatalf("error message leaked raw payload: %s", ce.Error())
			}
		})
	}
}

func TestParseReply_AcceptsResponseAlias(t *testing.T) {
	raw := `{"response":"here you go","filters":{}}`
	got, err := ParseReply(raw, testVocab)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if got.Reply != "here you go" {
		t.Fatalf("reply = %q", got.Reply)
	}
}

func TestBuildSystemPrompt_CarriesVocabularyAndScore(t *testing.T) {
	p := BuildSystemPrompt(testVocab, 42)
	for _, want := range []string{
		"Known categories: Burgers, Sides, Wraps",
		"Known mood tags: adventurous, comfort",
		"Known dietary tags: spicy, vegetarian",
		"Known allergens: gluten, soy",
		"Known ingredients: beef, jalapeno, tofu",
		"interest before this turn is 42",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestBuildMessages_Order(t *testing.T) {
	msgs := BuildMessages("sys", []string{"first", "second"}, "now")
	if len(msgs) != 4 {
		t.Fatalf("len = %d", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[1].Content != "first" || msgs[3].Content != "now" {
		t.Fatalf("messages out of order: %+v", msgs)
	}
}
