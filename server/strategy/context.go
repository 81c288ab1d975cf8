package strategy

import (
	"errors"
	"fmt"

	"holdem-autopilot/server/engine"
)

var ErrInvalidContext = errors.New("invalid decision context")

// DecisionContext is everything the engine sees for one decision. Chip
// amounts are integers; raise amounts in a Decision are raise-to totals.
type DecisionContext struct {
	HoleCards      engine.HoleCards
	CommunityCards []engine.Card
	Phase          engine.Phase
	Position       engine.Position
	PotSize        int64
	CurrentBet     int64
	MyChips        int64
	OpponentChips  int64
	ToCall         int64
	// BigBlind sizes preflop raises; required preflop.
	BigBlind int64
}

// FacingRaise is true preflop once the bet exceeds the big blind, and
// postflop whenever there is something to call.
func (dc DecisionContext) FacingRaise() bool {
	if dc.Phase == engine.Preflop {
		return dc.CurrentBet > dc.BigBlind
	}
	return dc.ToCall > 0
}

func (dc DecisionContext) Validate() error {
	if !dc.Phase.Valid() {
		return fmt.Errorf("%w: phase %q", ErrInvalidContext, dc.Phase)
	}
	if !dc.Position.Valid() {
		return fmt.Errorf("%w: position %q", ErrInvalidContext, dc.Position)
	}
	if n := len(dc.CommunityCards); n != dc.Phase.BoardSize() {
		return fmt.Errorf("%w: %s needs %d community cards, got %d", ErrInvalidContext, dc.Phase, dc.Phase.BoardSize(), n)
	}
	cards := append(append([]engine.Card{}, dc.HoleCards[:]...), dc.CommunityCards...)
	if err := engine.ValidateCards(cards, len(cards), len(cards)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidContext, err)
	}
	for name, v := range map[string]int64{
		"pot": dc.PotSize, "current bet": dc.CurrentBet, "my chips": dc.MyChips,
		"opponent chips": dc.OpponentChips, "to call": dc.ToCall, "big blind": dc.BigBlind,
	} {
		if v < 0 {
			return fmt.Errorf("%w: negative %s %d", ErrInvalidContext, name, v)
		}
	}
	if dc.Phase == engine.Preflop && dc.BigBlind == 0 {
		return fmt.Errorf("%w: big blind required preflop", ErrInvalidContext)
	}
	return nil
}

// Decision is the engine's answer. Amount is set for raise and all-in.
type Decision struct {
	Action     engine.ActionKind `json:"action"`
	Amount     int64             `json:"amount,omitempty"`
	Confidence float64           `json:"confidence"`
	Reasoning  string            `json:"reasoning"`
}

func (d Decision) String() string {
	if d.Amount > 0 {
		return fmt.Sprintf("%s %d (%.2f)", d.Action, d.Amount, d.Confidence)
	}
	return fmt.Sprintf("%s (%.2f)", d.Action, d.Confidence)
}
