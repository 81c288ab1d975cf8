// Package preflop scores two-card starting hands and turns the score into
// an opening, defending or folding recommendation.
package preflop

import (
	"fmt"
	"math"

	"holdem-autopilot/server/engine"
)

type Tier string

const (
	Premium  Tier = "premium"
	Strong   Tier = "strong"
	Playable Tier = "playable"
	Marginal Tier = "marginal"
	Trash    Tier = "trash"
)

// Mixed-strategy frequencies.
const (
	buttonMarginalOpenProb    = 0.5
	buttonStrongReraiseProb   = 0.4
	bigBlindStrongReraiseProb = 0.3
)

// Pot-odds ceilings for big blind defence.
const (
	playableDefendOdds = 0.25
	marginalDefendOdds = 0.15
)

// Rand supplies the mixed-strategy coin flips.
type Rand interface {
	Float64() float64
}

type Recommendation struct {
	Tier     Tier
	Strength int
	Action   engine.ActionKind // fold, check, call or raise
	// RaiseMultiplier is in big blinds; zero unless Action is raise.
	RaiseMultiplier float64
	Reasoning       string
}

type Strategy struct {
	rng Rand
}

func New(rng Rand) *Strategy {
	return &Strategy{rng: rng}
}

// HandClass returns canonical notation: "AA", "AKs" or "AKo".
func HandClass(hole engine.HoleCards) string {
	hi, lo := hole[0], hole[1]
	if lo.Rank > hi.Rank {
		hi, lo = lo, hi
	}
	if hi.Rank == lo.Rank {
		return string([]byte{engine.RankChar(hi.Rank), engine.RankChar(lo.Rank)})
	}
	suffix := byte('o')
	if hi.Suit == lo.Suit {
		suffix = 's'
	}
	return string([]byte{engine.RankChar(hi.Rank), engine.RankChar(lo.Rank), suffix})
}

// HandStrength scores hole cards in [0,100], from the table when the class
// is listed and from estimate otherwise.
func HandStrength(hole engine.HoleCards) int {
	if s, ok := handScores[HandClass(hole)]; ok {
		return s
	}
	hi, lo := hole[0].Rank, hole[1].Rank
	if lo > hi {
		hi, lo = lo, hi
	}
	return estimate(hi, lo, hole[0].Suit == hole[1].Suit)
}

func estimate(hi, lo int, suited bool) int {
	if hi == lo {
		return clamp(20 + hi*5)
	}
	gap := hi - lo
	score := float64(2*hi+lo) / 3
	if suited {
		score += 4
	}
	score -= float64(2 * gap)
	switch gap {
	case 1:
		score += 3
	case 2:
		score += 1
	}
	return clamp(int(math.Round(score * 3)))
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

func TierFor(strength int) Tier {
	switch {
	case strength >= 90:
		return Premium
	case strength >= 75:
		return Strong
	case strength >= 55:
		return Playable
	case strength >= 35:
		return Marginal
	}
	return Trash
}

func potOdds(toCall, pot int64) float64 {
	if toCall <= 0 {
		return 0
	}
	return float64(toCall) / float64(pot+toCall)
}

// Recommend picks a preflop action. Every non-button position is played
// with the big blind tables.
func (s *Strategy) Recommend(hole engine.HoleCards, pos engine.Position, facingRaise bool, toCall, pot int64) Recommendation {
	strength := HandStrength(hole)
	tier := TierFor(strength)
	rec := Recommendation{Tier: tier, Strength: strength}

	raise := func(mult float64, why string) Recommendation {
		rec.Action, rec.RaiseMultiplier = engine.Raise, mult
		rec.Reasoning = fmt.Sprintf("%s %s (%d): %s, raise %.1fx", HandClass(hole), tier, strength, why, mult)
		return rec
	}
	act := func(a engine.ActionKind, why string) Recommendation {
		rec.Action = a
		rec.Reasoning = fmt.Sprintf("%s %s (%d): %s", HandClass(hole), tier, strength, why)
		return rec
	}

	if pos == engine.Button {
		if !facingRaise {
			switch tier {
			case Premium:
				return raise(3, "open for value on the button")
			case Strong, Playable:
				return raise(2.5, "steal from the button")
			case Marginal:
				if s.rng.Float64() < buttonMarginalOpenProb {
					return raise(2, "mixed steal with a marginal hand")
				}
				return act(engine.Fold, "marginal hand, mixed fold")
			}
			return act(engine.Fold, "too weak to open")
		}
		switch tier {
		case Premium:
			return raise(3, "re-raise for value")
		case Strong:
			if s.rng.Float64() < buttonStrongReraiseProb {
				return raise(3, "mixed re-raise")
			}
			return act(engine.Call, "flat the raise in position")
		case Playable:
			return act(engine.Call, "call the raise in position")
		}
		return act(engine.Fold, "fold to the raise")
	}

	if !facingRaise {
		switch tier {
		case Premium, Strong:
			return raise(3, "raise for value from the blind")
		}
		return act(engine.Check, "take the free option")
	}
	odds := potOdds(toCall, pot)
	switch tier {
	case Premium:
		return raise(3, "re-raise for value from the blind")
	case Strong:
		if s.rng.Float64() < bigBlindStrongReraiseProb {
			return raise(3, "mixed re-raise from the blind")
		}
		return act(engine.Call, "defend the blind")
	case Playable:
		if odds < playableDefendOdds {
			return act(engine.Call, fmt.Sprintf("defend at pot odds %.2f", odds))
		}
	case Marginal:
		if odds < marginalDefendOdds {
			return act(engine.Call, fmt.Sprintf("cheap defend at pot odds %.2f", odds))
		}
	}
	return act(engine.Fold, fmt.Sprintf("fold to the raise at pot odds %.2f", odds))
}
