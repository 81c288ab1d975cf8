package engine

type Seat string

const (
	SB Seat = "SB"
	BB Seat = "BB"
)

type ActionKind string

const (
	Fold  ActionKind = "fold"
	Check ActionKind = "check"
	Call  ActionKind = "call"
	Raise ActionKind = "raise"
	AllIn ActionKind = "all-in"
)

func (k ActionKind) Valid() bool {
	switch k {
	case Fold, Check, Call, Raise, AllIn:
		return true
	}
	return false
}

type Action struct {
	Seat   Seat       `json:"seat"`
	Kind   ActionKind `json:"action"`
	Amount int64      `json:"to,omitempty"`
}

// Phase is the betting round.
type Phase string

const (
	Preflop Phase = "preflop"
	Flop    Phase = "flop"
	Turn    Phase = "turn"
	River   Phase = "river"
)

// BoardSize is the number of community cards dealt by the end of the phase.
func (p Phase) BoardSize() int {
	switch p {
	case Flop:
		return 3
	case Turn:
		return 4
	case River:
		return 5
	}
	return 0
}

func (p Phase) Valid() bool {
	switch p {
	case Preflop, Flop, Turn, River:
		return true
	}
	return false
}

// Position collapses every non-button seat into BigBlind.
type Position string

const (
	Button   Position = "button"
	BigBlind Position = "big_blind"
)

func (p Position) Valid() bool { return p == Button || p == BigBlind }

// In heads-up the small blind is the button.
func (s Seat) Position() Position {
	if s == SB {
		return Button
	}
	return BigBlind
}

type Card struct {
	Rank int
	Suit byte
} // e.g. "As" => rank 14, suit 's'

// HoleCards are one player's two private cards.
type HoleCards [2]Card

func (h HoleCards) String() string { return h[0].String() + h[1].String() }

// Overlaps reports whether either card is in mask (bits from Card.Index).
func (h HoleCards) Overlaps(mask uint64) bool {
	return mask&(1<<h[0].Index()|1<<h[1].Index()) != 0
}
