package oracle

import (
	"fmt"
	"strings"

	"github.com/tbourn/go-foodiebot-backend/internal/facets"
)

// engagementFactors and negativeFactors steer the oracle's per-turn interest
// signal. They are rendered into the system prompt verbatim.
var engagementFactors = []string{
	"specific preferences stated (dietary, cuisine, budget): +15",
	"question about a recommended item: +10",
	"enthusiasm words (love, perfect, amazing, yes): +20",
	"price inquiry for a specific item: +25",
	"order intent (I'll take it, add to cart): +30",
}

var negativeFactors = []string{
	"hesitation (maybe, not sure, hmm): -10",
	"budget concern (too expensive, cheaper): -15",
	"rejection of a suggestion (no, don't like, something else): -20",
	"topic change away from food: -15",
}

// BuildSystemPrompt renders the instruction block the oracle receives on
// every turn. The filter vocabulary is constrained to the live catalog so
// the oracle can never invent categories or tags.
func BuildSystemPrompt(v facets.Vocabulary, lastScore int) string {
	var b strings.Builder
	b.WriteString("You are FoodieBot, an enthusiastic fast-food ordering assistant.\n")
	b.WriteString("Keep replies short, friendly, and focused on helping the customer pick an item.\n\n")

	b.WriteString("Respond with a single JSON object, no prose outside it, shaped exactly as:\n")
	b.WriteString(`{"reply": "<your conversational answer>", "filters": {...}, "interest_score": <integer>}` + "\n\n")

	b.WriteString("The filters object captures every constraint the customer has expressed. Allowed keys:\n")
	b.WriteString("  category (string), max_price (number), max_calories (integer),\n")
	b.WriteString("  min_spice (integer 0-10), max_spice (integer 0-10),\n")
	b.WriteString("  mood_tags (list of strings), dietary_tags (list of strings),\n")
	b.WriteString("  allergens_exclude (list of strings), ingredients_include (list of strings),\n")
	b.WriteString("  chef_special (boolean), popular (boolean), min_popularity (number 0-100), limited_time (boolean)\n")
	b.WriteString("Omit any key the customer has not constrained. Never invent values.\n\n")

	writeVocab(&b, "Known categories", v.Categories)
	writeVocab(&b, "Known mood tags", v.MoodTags)
	writeVocab(&b, "Known dietary tags", v.DietaryTags)
	writeVocab(&b, "Known allergens", v.Allergens)
	writeVocab(&b, "Known ingredients", v.Ingredients)

	b.WriteString("\ninterest_score is the change in purchase interest this turn. Score it from:\n")
	for _, f := range engagementFactors {
		b.WriteString("  " + f + "\n")
	}
	for _, f := range negativeFactors {
		b.WriteString("  " + f + "\n")
	}
	fmt.Fprintf(&b, "The customer's interest before this turn is %d on a 0-100 scale.\n", lastScore)
	return b.String()
}

func writeVocab(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(values, ", "))
}

// BuildMessages assembles the transcript for one turn: the system prompt,
// the recent utterance window oldest first, then the current message.
func BuildMessages(system string, window []string, current string) []Message {
	msgs := make([]Message, 0, len(window)+2)
	msgs = append(msgs, Message{Role: "system", Content: system})
	for _, u := range window {
		msgs = append(msgs, Message{Role: "user", Content: u})
	}
	msgs = append(msgs, Message{Role: "user", Content: current})
	return msgs
}
