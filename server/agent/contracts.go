package agent

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"

	"holdem-autopilot/server/engine"
	"holdem-autopilot/server/strategy"
)

var ErrIllegalAction = errors.New("illegal action")

// maxCommentLen is in bytes.
const maxCommentLen = 120

type Stacks struct {
	Hero    int64 `json:"hero"`
	Villain int64 `json:"villain"`
}

type Blinds struct {
	SB int64 `json:"sb"`
	BB int64 `json:"bb"`
}

// Observation is what the agent loop sends for one decision.
type Observation struct {
	HandID     string              `json:"hand_id"`
	Seat       engine.Seat         `json:"seat"`       // "SB" | "BB"
	Street     engine.Phase        `json:"street"`     // preflop|flop|turn|river
	HoleCards  []engine.Card       `json:"hole_cards"` // e.g. ["As","Kd"]
	Board      []engine.Card       `json:"board"`      // 0..5 cards
	Stacks     Stacks              `json:"stacks"`     // chips behind
	Blinds     Blinds              `json:"blinds"`
	Pot        int64               `json:"pot"`
	CurrentBet int64               `json:"current_bet"`
	ToCall     int64               `json:"to_call"`
	MinRaiseTo int64               `json:"min_raise_to,omitempty"` // absolute raise-to
	MaxRaiseTo int64               `json:"max_raise_to,omitempty"` // absolute raise-to (all-in)
	Legal      []engine.ActionKind `json:"legal_actions,omitempty"`
}

type ActionOut struct {
	Action     engine.ActionKind `json:"action"`
	Amount     *int64            `json:"amount,omitempty"` // required for raise and all-in
	Confidence float64           `json:"confidence"`
	Comment    string            `json:"comment,omitempty"` // <=120 chars
}

// BuildObservation snapshots the hand from one seat's point of view.
func BuildObservation(h *engine.Hand, seat engine.Seat) Observation {
	p, o := h.Player(seat), h.Opponent(seat)
	obs := Observation{
		HandID:     h.ID,
		Seat:       seat,
		Street:     h.Street,
		HoleCards:  append([]engine.Card{}, p.Hole...),
		Board:      append([]engine.Card{}, h.Board...),
		Stacks:     Stacks{Hero: p.Stack, Villain: o.Stack},
		Blinds:     Blinds{SB: h.Cfg.SB, BB: h.Cfg.BB},
		Pot:        h.Pot,
		CurrentBet: h.CurBet,
		ToCall:     h.ToCall(seat),
	}
	if h.ToAct == seat {
		obs.MinRaiseTo = h.MinRaiseTo()
		obs.MaxRaiseTo = h.MaxRaiseTo()
		obs.Legal = h.Legal()
	}
	return obs
}

// Context converts the observation into a validated decision context.
func (o Observation) Context() (strategy.DecisionContext, error) {
	if o.Seat != engine.SB && o.Seat != engine.BB {
		return strategy.DecisionContext{}, fmt.Errorf("%w: seat %q", strategy.ErrInvalidContext, o.Seat)
	}
	if len(o.HoleCards) != 2 {
		return strategy.DecisionContext{}, fmt.Errorf("%w: %d hole cards", strategy.ErrInvalidContext, len(o.HoleCards))
	}
	dc := strategy.DecisionContext{
		HoleCards:      engine.HoleCards{o.HoleCards[0], o.HoleCards[1]},
		CommunityCards: o.Board,
		Phase:          o.Street,
		Position:       o.Seat.Position(),
		PotSize:        o.Pot,
		CurrentBet:     o.CurrentBet,
		MyChips:        o.Stacks.Hero,
		OpponentChips:  o.Stacks.Villain,
		ToCall:         o.ToCall,
		BigBlind:       o.Blinds.BB,
	}
	return dc, dc.Validate()
}

// FromDecision renders a decision for the agent loop.
func FromDecision(d strategy.Decision) ActionOut {
	out := ActionOut{Action: d.Action, Confidence: d.Confidence, Comment: d.Reasoning}
	if d.Action == engine.Raise || d.Action == engine.AllIn {
		amt := d.Amount
		out.Amount = &amt
	}
	out.Comment = truncate(out.Comment, maxCommentLen)
	return out
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Normalize maps an action onto what the table allows: a call with nothing
// to call is a check, raise sizes are clamped to the legal window, and a
// raise to the whole stack is an all-in.
func Normalize(o Observation, a ActionOut) ActionOut {
	if a.Action == engine.Call && o.ToCall == 0 {
		a.Action = engine.Check
	}
	if a.Action == engine.Check && o.ToCall > 0 {
		a.Action = engine.Fold
	}
	if a.Action == engine.Raise && len(o.Legal) > 0 && !slices.Contains(o.Legal, engine.Raise) {
		a.Action = engine.AllIn
	}
	switch a.Action {
	case engine.Raise:
		amt := int64(0)
		if a.Amount != nil {
			amt = *a.Amount
		}
		if o.MinRaiseTo > 0 && amt < o.MinRaiseTo {
			amt = o.MinRaiseTo
		}
		if o.MaxRaiseTo > 0 && amt >= o.MaxRaiseTo {
			a.Action = engine.AllIn
			amt = o.MaxRaiseTo
		}
		a.Amount = &amt
	case engine.AllIn:
		amt := o.MaxRaiseTo
		if amt == 0 {
			amt = o.Stacks.Hero
		}
		a.Amount = &amt
	default:
		a.Amount = nil
	}
	return a
}

// Validate checks an action against the observation's legal set and
// raise window.
func Validate(o Observation, a ActionOut) error {
	if !a.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrIllegalAction, a.Action)
	}
	if len(o.Legal) > 0 && !slices.Contains(o.Legal, a.Action) {
		return fmt.Errorf("%w: %q (legals: %v)", ErrIllegalAction, a.Action, o.Legal)
	}
	if a.Action == engine.Check && o.ToCall > 0 {
		return fmt.Errorf("%w: check facing %d", ErrIllegalAction, o.ToCall)
	}
	if a.Action == engine.Raise {
		if a.Amount == nil {
			return fmt.Errorf("%w: raise requires amount", ErrIllegalAction)
		}
		if o.MaxRaiseTo > 0 && (*a.Amount < o.MinRaiseTo || *a.Amount > o.MaxRaiseTo) {
			return fmt.Errorf("%w: raise amount %d out of bounds [%d, %d]", ErrIllegalAction, *a.Amount, o.MinRaiseTo, o.MaxRaiseTo)
		}
	}
	if len(a.Comment) > maxCommentLen {
		return fmt.Errorf("%w: comment longer than %d", ErrIllegalAction, maxCommentLen)
	}
	return nil
}
