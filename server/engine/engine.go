package engine

import "fmt"

// Config holds blinds and the stack each seat starts a hand with.
type Config struct{ SB, BB, StartStack int64 }

type Player struct {
	Seat      Seat
	Stack     int64
	Committed int64
	Hole      []Card
	Folded    bool
	AllIn     bool
}

// Hand is a heads-up no-limit hand: SB is the button, acts first preflop
// and last postflop.
type Hand struct {
	ID       string
	Cfg      Config
	Deck     []Card
	Board    []Card
	Pot      int64
	Street   Phase
	SB, BB   *Player
	ToAct    Seat
	CurBet   int64
	MinRaise int64
	History  []Action
	// raised is true once the current street has seen a raise beyond the blinds.
	raised bool
	acted  int
}

func NewHand(id string, cfg Config, deck []Card) *Hand {
	return NewHandWithStacks(id, cfg, deck, cfg.StartStack, cfg.StartStack)
}

// NewHandWithStacks starts a hand where the seats carry different stacks.
func NewHandWithStacks(id string, cfg Config, deck []Card, sbStack, bbStack int64) *Hand {
	h := &Hand{
		ID: id, Cfg: cfg, Deck: deck, Street: Preflop,
		SB: &Player{Seat: SB, Stack: sbStack},
		BB: &Player{Seat: BB, Stack: bbStack},
	}
	h.postBlinds()
	h.dealHole()
	h.ToAct = SB        // HU preflop: SB first
	h.MinRaise = cfg.BB // postflop increment; preflop min to is set on first raise
	return h
}

func (h *Hand) postBlinds() { h.bet(h.SB, h.Cfg.SB); h.bet(h.BB, h.Cfg.BB) }
func (h *Hand) dealHole()   { h.SB.Hole = []Card{h.pop(), h.pop()}; h.BB.Hole = []Card{h.pop(), h.pop()} }
func (h *Hand) pop() Card   { c := h.Deck[0]; h.Deck = h.Deck[1:]; return c }

func (h *Hand) bet(p *Player, amt int64) {
	if amt >= p.Stack {
		amt = p.Stack
		p.AllIn = true
	}
	p.Stack -= amt
	p.Committed += amt
	if p.Committed > h.CurBet {
		h.CurBet = p.Committed
	}
	h.Pot += amt
}

func (h *Hand) other(p *Player) *Player {
	if p.Seat == SB {
		return h.BB
	}
	return h.SB
}

func (h *Hand) Player(seat Seat) *Player {
	if seat == SB {
		return h.SB
	}
	return h.BB
}

func (h *Hand) Actor() *Player { return h.Player(h.ToAct) }

// Opponent returns the seat facing the given one.
func (h *Hand) Opponent(seat Seat) *Player { return h.other(h.Player(seat)) }

// ToCall is what the seat must add to match the current bet.
func (h *Hand) ToCall(seat Seat) int64 {
	to := h.CurBet - h.Player(seat).Committed
	if to < 0 {
		return 0
	}
	return to
}

// FacingRaise reports a voluntary raise on this street (blinds do not count).
func (h *Hand) FacingRaise(seat Seat) bool {
	if h.Street == Preflop {
		return h.raised && h.ToCall(seat) > 0
	}
	return h.ToCall(seat) > 0
}

func (h *Hand) Legal() []ActionKind {
	a := h.Actor()
	if a.Folded || a.AllIn {
		return nil
	}
	var out []ActionKind
	toCall := h.CurBet - a.Committed
	if toCall == 0 {
		out = append(out, Check)
	} else {
		out = append(out, Fold, Call)
	}
	if !h.other(a).AllIn && a.Stack > toCall {
		out = append(out, Raise)
	}
	out = append(out, AllIn)
	return out
}

// MinRaiseTo is the smallest legal raise-to amount for the actor.
func (h *Hand) MinRaiseTo() int64 {
	minTo := h.CurBet + h.MinRaise
	if minTo < h.Cfg.BB {
		minTo = h.Cfg.BB
	}
	return minTo
}

// MaxRaiseTo is the actor's all-in raise-to amount.
func (h *Hand) MaxRaiseTo() int64 {
	a := h.Actor()
	return a.Stack + a.Committed
}

// Apply executes an action for the seat to act. Raise amounts are raise-to.
func (h *Hand) Apply(kind ActionKind, amount int64) error {
	a := h.Actor()
	switch kind {
	case Fold:
		a.Folded = true
		h.History = append(h.History, Action{Seat: a.Seat, Kind: Fold})
		h.acted++
		return nil
	case Check:
		if h.CurBet-a.Committed != 0 {
			return fmt.Errorf("cannot check")
		}
		h.History = append(h.History, Action{Seat: a.Seat, Kind: Check})
	case Call:
		to := h.CurBet - a.Committed
		if to < 0 {
			to = 0
		}
		h.bet(a, to)
		h.History = append(h.History, Action{Seat: a.Seat, Kind: Call, Amount: to})
	case Raise:
		if amount >= a.Stack+a.Committed {
			return h.Apply(AllIn, 0)
		}
		if amount < h.MinRaiseTo() {
			return fmt.Errorf("min raise to %d", h.MinRaiseTo())
		}
		prevCur := h.CurBet
		h.bet(a, amount-a.Committed)
		h.MinRaise = amount - prevCur
		h.raised = true
		h.History = append(h.History, Action{Seat: a.Seat, Kind: Raise, Amount: amount})
	case AllIn:
		prevCur := h.CurBet
		to := a.Stack + a.Committed
		h.bet(a, a.Stack)
		if to > prevCur {
			if to-prevCur > h.MinRaise {
				h.MinRaise = to - prevCur
			}
			h.raised = true
		}
		h.History = append(h.History, Action{Seat: a.Seat, Kind: AllIn, Amount: to})
	default:
		return fmt.Errorf("unknown action %q", kind)
	}
	h.acted++
	h.ToAct = h.other(a).Seat
	return nil
}

// RoundDone reports that no further action is needed on this street.
func (h *Hand) RoundDone() bool {
	if h.SB.Folded || h.BB.Folded {
		return true
	}
	needSB := h.CurBet - h.SB.Committed
	needBB := h.CurBet - h.BB.Committed
	if h.SB.AllIn && h.BB.AllIn {
		return true
	}
	if (h.SB.AllIn || needSB <= 0) && (h.BB.AllIn || needBB <= 0) {
		return h.acted >= 2 || h.SB.AllIn || h.BB.AllIn
	}
	return false
}

func (h *Hand) NextStreet() {
	h.returnUncalled()
	switch h.Street {
	case Preflop:
		h.Board = append(h.Board, h.pop(), h.pop(), h.pop())
		h.Street = Flop
	case Flop:
		h.Board = append(h.Board, h.pop())
		h.Street = Turn
	case Turn:
		h.Board = append(h.Board, h.pop())
		h.Street = River
	}
	h.CurBet = 0
	h.SB.Committed = 0
	h.BB.Committed = 0
	h.MinRaise = h.Cfg.BB
	h.raised = false
	h.acted = 0
	h.ToAct = BB // postflop in HU
}

// returnUncalled gives back the part of a bet the all-in opponent could not match.
func (h *Hand) returnUncalled() {
	sb, bb := h.SB, h.BB
	switch {
	case sb.Committed > bb.Committed && (bb.AllIn || bb.Folded):
		h.refund(sb, sb.Committed-bb.Committed)
	case bb.Committed > sb.Committed && (sb.AllIn || sb.Folded):
		h.refund(bb, bb.Committed-sb.Committed)
	}
}

func (h *Hand) refund(p *Player, amt int64) {
	p.Committed -= amt
	p.Stack += amt
	p.AllIn = p.Stack == 0
	h.Pot -= amt
	if h.CurBet > p.Committed {
		h.CurBet = p.Committed
	}
}

// RunOut deals the remaining board once a player is all-in.
func (h *Hand) RunOut() {
	for h.Street != River {
		h.NextStreet()
	}
}

func (h *Hand) Done() bool {
	if h.SB.Folded || h.BB.Folded {
		return true
	}
	return h.Street == River && h.RoundDone()
}

// Showdown returns the winning seat, or "" for a split pot.
func (h *Hand) Showdown() Seat {
	if h.SB.Folded {
		return BB
	}
	if h.BB.Folded {
		return SB
	}
	sb := Evaluate(append(append([]Card{}, h.SB.Hole...), h.Board...))
	bb := Evaluate(append(append([]Card{}, h.BB.Hole...), h.Board...))
	switch Compare(sb, bb) {
	case 1:
		return SB
	case -1:
		return BB
	}
	return ""
}

// Settle returns the uncalled excess and pays the pot, returning each
// seat's final stack.
func (h *Hand) Settle() (sbStack, bbStack int64) {
	h.returnUncalled()
	winner := h.Showdown()
	switch winner {
	case SB:
		h.SB.Stack += h.Pot
	case BB:
		h.BB.Stack += h.Pot
	default:
		half := h.Pot / 2
		h.SB.Stack += half
		h.BB.Stack += h.Pot - half
	}
	h.Pot = 0
	return h.SB.Stack, h.BB.Stack
}
