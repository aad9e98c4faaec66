// Package scoring implements the session interest model: a bounded,
// monotone-feeling engagement score accumulated turn by turn.
//
// Policy (applied consistently everywhere):
//   - Score domain is the closed interval [MinScore, MaxScore] = [0, 100].
//   - The oracle's per-turn score is a candidate signal delta, never trusted
//     as-is: new = clamp(previous + delta).
//   - An explicit order confirmation ("I'll take it", "pack it up", …) is a
//     discrete committed-to-purchase transition and forces MaxScore,
//     bypassing additive accumulation.
//   - A missing oracle score contributes DefaultSignal.
//
// The model keeps no state of its own: the previous score is read from the
// most recent logged turn of the session (0 when there is none).
package scoring

import "strings"

const (
	// MinScore and MaxScore bound the interest domain.
	MinScore = 0
	MaxScore = 100

	// DefaultSignal is the delta applied when the oracle omits a score.
	DefaultSignal = 0
)

// orderConfirmations are the phrases that signal explicit purchase intent.
// Matching is case-insensitive substring search over the utterance.
var orderConfirmations = []string{
	"i'll take it",
	"i will take it",
	"ill take it",
	"pack it up",
	"add to cart",
	"i'll order",
	"i will order",
	"place the order",
}

// IsOrderConfirmation reports whether the utterance contains an explicit
// order-confirmation phrase.
func IsOrderConfirmation(utterance string) bool {
	u := strings.ToLower(utterance)
	for _, phrase := range orderConfirmations {
		if strings.Contains(u, phrase) {
			return true
		}
	}
	return false
}

// Clamp bounds a score to the domain.
func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Apply computes the new interest score for a turn.
//
// previous is the last logged score for the session (0 for a fresh session);
// candidate is the oracle's signal delta (nil when the oracle omitted it);
// utterance is the raw user message, checked for order confirmation.
func Apply(previous int, candidate *int, utterance string) int {
	if IsOrderConfirmation(utterance) {
		return MaxScore
	}
	delta := DefaultSignal
	if candidate != nil {
		delta = *candidate
	}
	return Clamp(Clamp(previous) + delta)
}
