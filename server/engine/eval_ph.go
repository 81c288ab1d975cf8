package engine

import (
	poker "github.com/paulhankin/poker"
)

// Lookup-table scorer from github.com/paulhankin/poker. Larger score =
// stronger hand. Used as an independent oracle for Evaluate and to render
// hand descriptions.

// Convert our engine.Card -> library card.
func toPH(c Card) poker.Card {
	var s poker.Suit
	switch c.Suit {
	case 'c':
		s = poker.Club
	case 'd':
		s = poker.Diamond
	case 'h':
		s = poker.Heart
	default:
		s = poker.Spade
	}
	// Our ranks: 2..14 (Ace=14). Library: 1..13 (Ace=1).
	r := poker.Rank(c.Rank)
	if c.Rank == Ace {
		r = poker.Rank(1)
	}
	card, _ := poker.MakeCard(s, r)
	return card
}

// LibraryScore scores the best five of 5-7 cards.
func LibraryScore(cards []Card) int16 {
	n := len(cards)
	pcs := make([]poker.Card, n)
	for i, c := range cards {
		pcs[i] = toPH(c)
	}
	switch n {
	case 7:
		var a7 [7]poker.Card
		copy(a7[:], pcs)
		return poker.Eval7(&a7)
	case 5:
		var a5 [5]poker.Card
		copy(a5[:], pcs)
		return poker.Eval5(&a5)
	case 6:
		return bestOfFiveSubsets(pcs)
	}
	panic("engine: library score needs 5-7 cards")
}

func bestOfFiveSubsets(pcs []poker.Card) int16 {
	n := len(pcs)
	best := int16(-32768)
	var five [5]poker.Card
	for skip := 0; skip < n; skip++ {
		k := 0
		for i := 0; i < n; i++ {
			if i != skip {
				five[k] = pcs[i]
				k++
			}
		}
		if score := poker.Eval5(&five); score > best {
			best = score
		}
	}
	return best
}

// Describe returns the library's wording for a 5 or 7 card hand, falling
// back to the native rank's description otherwise.
func Describe(cards []Card) string {
	if len(cards) == 5 || len(cards) == 7 {
		pcs := make([]poker.Card, len(cards))
		for i, c := range cards {
			pcs[i] = toPH(c)
		}
		if d, err := poker.Describe(pcs); err == nil {
			return d
		}
	}
	return Evaluate(cards).String()
}
