package engine

import (
	"fmt"
	"math/bits"
	"strings"
)

// Category is the class of a five-card hand, weakest first.
type Category uint8

const (
	HighCard Category = iota
	OnePair
	TwoPair
	Trips
	Straight
	Flush
	FullHouse
	Quads
	StraightFlush
)

var categoryNames = [...]string{
	HighCard:      "high card",
	OnePair:       "pair",
	TwoPair:       "two pair",
	Trips:         "trips",
	Straight:      "straight",
	Flush:         "flush",
	FullHouse:     "full house",
	Quads:         "quads",
	StraightFlush: "straight flush",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", c)
}

// HandRank packs the category in bits 20-23 and up to five kicker ranks,
// most significant first, in 4-bit nibbles below it. Plain integer
// comparison therefore orders hands by category, then kickers.
type HandRank uint32

const wheelMask = 1<<Ace | 1<<2 | 1<<3 | 1<<4 | 1<<5

func (h HandRank) Category() Category { return Category(h >> 20) }

// Kickers returns the tie-break ranks in significance order.
func (h HandRank) Kickers() []int {
	out := make([]int, 0, 5)
	for shift := 16; shift >= 0; shift -= 4 {
		r := int(h>>uint(shift)) & 0xF
		if r == 0 {
			break
		}
		out = append(out, r)
	}
	return out
}

func (h HandRank) String() string {
	ks := h.Kickers()
	if len(ks) == 0 {
		return h.Category().String()
	}
	switch h.Category() {
	case Straight, StraightFlush:
		return fmt.Sprintf("%s, %c high", h.Category(), RankChar(ks[0]))
	}
	var b strings.Builder
	for i, k := range ks {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(RankChar(k))
	}
	return fmt.Sprintf("%s [%s]", h.Category(), b.String())
}

func Compare(a, b HandRank) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

// Evaluate returns the best five-card rank among 5 to 7 distinct cards.
// Malformed input panics: it can only come from a caller bug.
func Evaluate(cards []Card) HandRank {
	n := len(cards)
	if n < 5 || n > 7 {
		panic(fmt.Sprintf("engine: evaluate needs 5-7 cards, got %d", n))
	}
	var seen uint64
	for _, c := range cards {
		if !c.Valid() {
			panic(fmt.Sprintf("engine: invalid card rank=%d suit=%q", c.Rank, c.Suit))
		}
		bit := uint64(1) << c.Index()
		if seen&bit != 0 {
			panic(fmt.Sprintf("engine: duplicate card %s", c))
		}
		seen |= bit
	}

	var five [5]Card
	var best HandRank
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						five[0], five[1], five[2], five[3], five[4] = cards[a], cards[b], cards[c], cards[d], cards[e]
						if r := eval5(&five); r > best {
							best = r
						}
					}
				}
			}
		}
	}
	return best
}

// CompareHands returns -1, 0 or +1 as a is worse than, equal to or better than b.
func CompareHands(a, b []Card) int {
	return Compare(Evaluate(a), Evaluate(b))
}

func eval5(h *[5]Card) HandRank {
	var counts [Ace + 1]uint8
	var mask uint16
	flush := true
	for i := range h {
		counts[h[i].Rank]++
		mask |= 1 << uint(h[i].Rank)
		if h[i].Suit != h[0].Suit {
			flush = false
		}
	}

	if bits.OnesCount16(mask) == 5 {
		top := straightTop(mask)
		switch {
		case top > 0 && flush:
			return packTop(StraightFlush, top)
		case flush:
			return packMask(Flush, mask)
		case top > 0:
			return packTop(Straight, top)
		}
		return packMask(HighCard, mask)
	}

	// Order ranks by multiplicity, then rank, both descending.
	var ks [5]int
	n := 0
	for cnt := uint8(4); cnt >= 1; cnt-- {
		for r := Ace; r >= Two; r-- {
			if counts[r] == cnt {
				ks[n] = r
				n++
			}
		}
	}
	c0, c1 := counts[ks[0]], counts[ks[1]]
	var cat Category
	switch {
	case c0 == 4:
		cat = Quads
	case c0 == 3 && c1 == 2:
		cat = FullHouse
	case c0 == 3:
		cat = Trips
	case c0 == 2 && c1 == 2:
		cat = TwoPair
	default:
		cat = OnePair
	}
	r := HandRank(cat) << 20
	shift := 16
	for i := 0; i < n; i++ {
		r |= HandRank(ks[i]) << uint(shift)
		shift -= 4
	}
	return r
}

// straightTop returns the top rank of five distinct ranks forming a
// straight, 5 for the wheel, or 0.
func straightTop(mask uint16) int {
	if mask == wheelMask {
		return 5
	}
	hi := bits.Len16(mask) - 1
	if mask == 0x1F<<uint(hi-4) {
		return hi
	}
	return 0
}

func packTop(cat Category, top int) HandRank {
	return HandRank(cat)<<20 | HandRank(top)<<16
}

func packMask(cat Category, mask uint16) HandRank {
	r := HandRank(cat) << 20
	shift := 16
	for rk := Ace; rk >= Two; rk-- {
		if mask&(1<<uint(rk)) != 0 {
			r |= HandRank(rk) << uint(shift)
			shift -= 4
		}
	}
	return r
}
