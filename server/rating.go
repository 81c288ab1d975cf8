package main

import "math"

// Elo rates the hero profile against the challenger, one update per
// mirrored pair of hands.
type Elo struct {
	Hero, Challenger float64
	K                float64
	Pairs            int
}

func NewElo(start, k float64) Elo { return Elo{Hero: start, Challenger: start, K: k} }

// Expected is the hero's expected score.
func (e Elo) Expected() float64 {
	return 1.0 / (1.0 + math.Pow(10, (e.Challenger-e.Hero)/400.0))
}

// UpdatePair scores the pair from the hero's net chips (soft score via tanh
// over marginBB big blinds) and returns the hero's rating delta.
func (e *Elo) UpdatePair(heroNet, potSum, bb int64) float64 {
	const marginBB = 6.0
	if bb <= 0 {
		bb = 1
	}
	score := 0.5 + 0.5*math.Tanh(float64(heroNet)/(marginBB*float64(bb)))
	k := e.K * potScale(potSum, bb) / (1.0 + 0.01*float64(e.Pairs))
	d := k * (score - e.Expected())
	e.Hero += d
	e.Challenger -= d
	e.Pairs++
	return d
}

// potScale weights big pots up to 3x and small ones down to 0.5x, with a
// two big blind pot as the unit.
func potScale(pot, bb int64) float64 {
	if pot <= 0 || bb <= 0 {
		return 1
	}
	return math.Max(0.5, math.Min(3, float64(pot)/(2*float64(bb))))
}
