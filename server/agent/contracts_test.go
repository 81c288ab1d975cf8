package agent

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem-autopilot/server/engine"
	"holdem-autopilot/server/strategy"
)

func newHand(t *testing.T) *engine.Hand {
	t.Helper()
	deck := engine.MustParseCards("As Ah Kd Kc 2c 7d 9h Js 3s")
	return engine.NewHand("h1", engine.Config{SB: 5, BB: 10, StartStack: 1000}, deck)
}

func ptr(v int64) *int64 { return &v }

func TestBuildObservation(t *testing.T) {
	h := newHand(t)
	obs := BuildObservation(h, engine.SB)
	assert.Equal(t, "h1", obs.HandID)
	assert.Equal(t, engine.Preflop, obs.Street)
	assert.Equal(t, "As Ah", engine.CardsString(obs.HoleCards))
	assert.Empty(t, obs.Board)
	assert.Equal(t, Stacks{Hero: 995, Villain: 990}, obs.Stacks)
	assert.Equal(t, int64(15), obs.Pot)
	assert.Equal(t, int64(10), obs.CurrentBet)
	assert.Equal(t, int64(5), obs.ToCall)
	assert.Equal(t, int64(20), obs.MinRaiseTo)
	assert.Equal(t, int64(1000), obs.MaxRaiseTo)
	assert.Contains(t, obs.Legal, engine.Raise)

	waiting := BuildObservation(h, engine.BB)
	assert.Empty(t, waiting.Legal, "only the seat to act gets legal actions")
}

func TestObservationJSON(t *testing.T) {
	raw := `{"hand_id":"x","seat":"BB","street":"flop","hole_cards":["Qs","Qd"],
		"board":["2c","7d","9h"],"stacks":{"hero":900,"villain":800},"blinds":{"sb":5,"bb":10},
		"pot":200,"current_bet":50,"to_call":50}`
	var obs Observation
	require.NoError(t, json.Unmarshal([]byte(raw), &obs))
	dc, err := obs.Context()
	require.NoError(t, err)
	assert.Equal(t, engine.BigBlind, dc.Position)
	assert.Equal(t, engine.Flop, dc.Phase)
	assert.Equal(t, int64(900), dc.MyChips)
	assert.Equal(t, int64(50), dc.ToCall)
	assert.Len(t, dc.CommunityCards, 3)

	var bad Observation
	assert.Error(t, json.Unmarshal([]byte(`{"hole_cards":["Zz","Qd"]}`), &bad))
}

func TestContextRejects(t *testing.T) {
	base := func() Observation {
		return Observation{
			Seat: engine.SB, Street: engine.Preflop,
			HoleCards: engine.MustParseCards("AsKs"),
			Blinds:    Blinds{SB: 5, BB: 10}, Stacks: Stacks{Hero: 100, Villain: 100},
		}
	}
	_, err := base().Context()
	require.NoError(t, err)

	o := base()
	o.Seat = "UTG"
	_, err = o.Context()
	assert.ErrorIs(t, err, strategy.ErrInvalidContext)

	o = base()
	o.HoleCards = o.HoleCards[:1]
	_, err = o.Context()
	assert.ErrorIs(t, err, strategy.ErrInvalidContext)

	o = base()
	o.Street = engine.Turn
	_, err = o.Context()
	assert.ErrorIs(t, err, strategy.ErrInvalidContext, "turn without a board")
}

func TestFromDecision(t *testing.T) {
	out := FromDecision(strategy.Decision{Action: engine.Raise, Amount: 300, Confidence: 0.9, Reasoning: strings.Repeat("x", 200)})
	require.NotNil(t, out.Amount)
	assert.Equal(t, int64(300), *out.Amount)
	assert.Len(t, out.Comment, maxCommentLen)

	out = FromDecision(strategy.Decision{Action: engine.Call, Confidence: 0.5})
	assert.Nil(t, out.Amount)

	// 119 ASCII bytes then a two-byte rune straddling the limit.
	out = FromDecision(strategy.Decision{Action: engine.Fold, Reasoning: strings.Repeat("x", 119) + "éé"})
	assert.True(t, utf8.ValidString(out.Comment))
	assert.Equal(t, strings.Repeat("x", 119), out.Comment)
	require.NoError(t, Validate(Observation{}, out))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "", truncate("♠♠", 2))
	assert.Equal(t, "♠", truncate("♠♠", 5))
	assert.Equal(t, "♠♠", truncate("♠♠", 6))
}

func TestValidate(t *testing.T) {
	obs := BuildObservation(newHand(t), engine.SB)
	tests := []struct {
		name string
		a    ActionOut
		ok   bool
	}{
		{"call", ActionOut{Action: engine.Call}, true},
		{"raise in window", ActionOut{Action: engine.Raise, Amount: ptr(30)}, true},
		{"raise below min", ActionOut{Action: engine.Raise, Amount: ptr(15)}, false},
		{"raise above max", ActionOut{Action: engine.Raise, Amount: ptr(5000)}, false},
		{"raise without amount", ActionOut{Action: engine.Raise}, false},
		{"check facing blind", ActionOut{Action: engine.Check}, false},
		{"unknown", ActionOut{Action: "limp"}, false},
		{"long comment", ActionOut{Action: engine.Fold, Comment: strings.Repeat("y", 121)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(obs, tt.a)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrIllegalAction)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	obs := BuildObservation(newHand(t), engine.SB)

	a := Normalize(obs, ActionOut{Action: engine.Raise, Amount: ptr(12)})
	assert.Equal(t, engine.Raise, a.Action)
	assert.Equal(t, int64(20), *a.Amount, "lifted to the minimum raise")

	a = Normalize(obs, ActionOut{Action: engine.Raise, Amount: ptr(1000)})
	assert.Equal(t, engine.AllIn, a.Action)
	assert.Equal(t, int64(1000), *a.Amount)

	a = Normalize(obs, ActionOut{Action: engine.Check})
	assert.Equal(t, engine.Fold, a.Action)
	assert.NoError(t, Validate(obs, a))

	free := obs
	free.ToCall = 0
	free.Legal = nil
	a = Normalize(free, ActionOut{Action: engine.Call, Amount: ptr(7)})
	assert.Equal(t, engine.Check, a.Action)
	assert.Nil(t, a.Amount)
}
