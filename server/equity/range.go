package equity

import (
	"fmt"
	"strings"

	"holdem-autopilot/server/engine"
)

// Range is a set of concrete opponent holdings.
type Range []engine.HoleCards

const suitChars = "cdhs"

// ParseRange expands comma separated starting-hand notation:
//
//	"AA"    every pair combo (6)
//	"TT+"   TT through AA
//	"AKs"   suited combos (4)
//	"AKo"   offsuit combos (12)
//	"AK"    both (16)
//	"AsKd"  one exact combo
//
// Duplicate combos are dropped.
func ParseRange(s string) (Range, error) {
	var out Range
	seen := map[[2]int]bool{}
	add := func(a, b engine.Card) {
		ia, ib := a.Index(), b.Index()
		if ia > ib {
			ia, ib = ib, ia
		}
		key := [2]int{ia, ib}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, engine.HoleCards{a, b})
	}

	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if len(tok) == 4 && strings.IndexByte(suitChars, tok[1]) >= 0 {
			cs, err := engine.ParseCards(tok)
			if err != nil {
				return nil, fmt.Errorf("range %q: %w", tok, err)
			}
			if cs[0] == cs[1] {
				return nil, fmt.Errorf("range %q: %w", tok, engine.ErrDuplicateCard)
			}
			add(cs[0], cs[1])
			continue
		}
		if len(tok) < 2 || len(tok) > 3 {
			return nil, fmt.Errorf("range %q: unrecognised notation", tok)
		}
		hi, lo := engine.RankFromByte(tok[0]), engine.RankFromByte(tok[1])
		if hi == 0 || lo == 0 {
			return nil, fmt.Errorf("range %q: unknown rank", tok)
		}
		if lo > hi {
			hi, lo = lo, hi
		}
		mod := byte(0)
		if len(tok) == 3 {
			mod = tok[2]
		}

		if hi == lo {
			top := hi
			switch mod {
			case 0:
			case '+':
				top = engine.Ace
			default:
				return nil, fmt.Errorf("range %q: pairs take no suit qualifier", tok)
			}
			for r := hi; r <= top; r++ {
				for i := 0; i < 4; i++ {
					for j := i + 1; j < 4; j++ {
						add(engine.Card{Rank: r, Suit: suitChars[i]}, engine.Card{Rank: r, Suit: suitChars[j]})
					}
				}
			}
			continue
		}

		suited, offsuit := true, true
		switch mod {
		case 0:
		case 's', 'S':
			offsuit = false
		case 'o', 'O':
			suited = false
		default:
			return nil, fmt.Errorf("range %q: unknown qualifier %q", tok, mod)
		}
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				if (i == j && !suited) || (i != j && !offsuit) {
					continue
				}
				add(engine.Card{Rank: hi, Suit: suitChars[i]}, engine.Card{Rank: lo, Suit: suitChars[j]})
			}
		}
	}
	return out, nil
}

func (r Range) String() string {
	parts := make([]string, len(r))
	for i, h := range r {
		parts[i] = h.String()
	}
	return strings.Join(parts, ",")
}
