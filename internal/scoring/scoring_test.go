package scoring

import "testing"

func iptr(v int) *int { return &v }

func TestApply_ClampsWithinDomain(t *testing.T) {
	cases := []struct {
		name      string
		prev      int
		candidate *int
		want      int
	}{
		{"accumulates", 30, iptr(25), 55},
		{"clamps high", 90, iptr(40), MaxScore},
		{"clamps low", 10, iptr(-45), MinScore},
		{"negative previous is normalized", -20, iptr(5), 5},
		{"overflowing previous is normalized", 180, iptr(-10), 90},
		{"missing candidate uses default", 30, nil, 30 + DefaultSignal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(tc.prev, tc.candidate, "just browsing")
			if got != tc.want {
				t.Fatalf("Apply(%d, %v) = %d, want %d", tc.prev, tc.candidate, got, tc.want)
			}
			if got < MinScore || got > MaxScore {
				t.Fatalf("score %d escaped domain", got)
			}
		})
	}
}

func TestApply_LongSessionStaysBounded(t *testing.T) {
	score := MinScore
	deltas := []int{25, 25, 25, 25, 25, -80, -80, 15, 100, -300}
	for _, d := range deltas {
		score = Apply(score, iptr(d), "tell me more")
		if score < MinScore || score > MaxScore {
			t.Fatalf("score %d escaped domain after delta %d", score, d)
		}
	}
}

func TestApply_OrderConfirmationForcesMax(t *testing.T) {
	utterances := []string{
		"I'll take it!",
		"sounds good, pack it up",
		"ok ADD TO CART please",
		"i will take it even though it's pricey",
	}
	for _, u := range utterances {
		// Even with a hostile negative candidate and minimal prior score.
		if got := Apply(MinScore, iptr(-50), u); got != MaxScore {
			t.Fatalf("Apply(%q) = %d, want %d", u, got, MaxScore)
		}
	}
}

func TestIsOrderConfirmation_Negative(t *testing.T) {
	for _, u := range []string{"maybe later", "what's the spice level?", "too expensive"} {
		if IsOrderConfirmation(u) {
			t.Fatalf("%q wrongly detected as order confirmation", u)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-1) != MinScore || Clamp(101) != MaxScore || Clamp(55) != 55 {
		t.Fatalf("clamp misbehaving")
	}
}
