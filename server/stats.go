package main

import (
	"math"
	"math/rand"
	"sort"

	"holdem-autopilot/server/engine"
)

type SeatStats struct {
	Hands    int
	VPIP     int
	PFR      int
	SawFlop  int
	Calls    int
	Aggr     int
	WTSD     int
	WSD      int
	NetChips int64
}

func (s SeatStats) AF() float64 {
	if s.Calls == 0 {
		if s.Aggr == 0 {
			return 0
		}
		return float64(s.Aggr)
	}
	return float64(s.Aggr) / float64(s.Calls)
}

func (s SeatStats) BBPer100(bb int64) float64 {
	h := s.Hands
	if h == 0 || bb <= 0 {
		return 0
	}
	return (float64(s.NetChips) / float64(bb)) / (float64(h) / 100.0)
}

type PlayerStats struct {
	Overall SeatStats
	SB      SeatStats
	BB      SeatStats
}

func (m *PlayerStats) seatBucket(seat engine.Seat) *SeatStats {
	if seat == engine.SB {
		return &m.SB
	}
	return &m.BB
}

// each applies f to the overall and per-seat buckets.
func (m *PlayerStats) each(seat engine.Seat, f func(*SeatStats)) {
	f(&m.Overall)
	f(m.seatBucket(seat))
}

func (m *PlayerStats) addHand(seat engine.Seat)             { m.each(seat, func(s *SeatStats) { s.Hands++ }) }
func (m *PlayerStats) addNet(seat engine.Seat, delta int64) { m.each(seat, func(s *SeatStats) { s.NetChips += delta }) }

type ActionTally struct {
	Check int
	Call  int
	Raise int
	AllIn int
	Fold  int
}

func (t *ActionTally) Add(k engine.ActionKind) {
	switch k {
	case engine.Check:
		t.Check++
	case engine.Call:
		t.Call++
	case engine.Raise:
		t.Raise++
	case engine.AllIn:
		t.AllIn++
	case engine.Fold:
		t.Fold++
	}
}

func (t *ActionTally) Total() int { return t.Check + t.Call + t.Raise + t.AllIn + t.Fold }

// Pct is n as a share of all tallied actions, in percent.
func (t *ActionTally) Pct(n int) float64 {
	if t.Total() == 0 {
		return 0
	}
	return 100 * float64(n) / float64(t.Total())
}

// --------- CI helpers ---------

// WilsonCI95 for a Bernoulli win rate, ties counted as half a win.
func WilsonCI95(wins, ties, total int) (low, hi float64) {
	if total <= 0 {
		return 0, 1
	}
	z := 1.96
	n := float64(total)
	p := (float64(wins) + 0.5*float64(ties)) / n
	den := 1 + (z*z)/n
	center := p + (z*z)/(2*n)
	half := z * math.Sqrt((p*(1-p))/n+(z*z)/(4*n*n))
	return (center - half) / den, (center + half) / den
}

// BootstrapCI95 for the mean of values (e.g. per-hand results in big blinds).
func BootstrapCI95(vals []float64, B int, r *rand.Rand) (low, hi float64) {
	n := len(vals)
	if n == 0 || B <= 1 {
		return 0, 0
	}
	res := make([]float64, B)
	for b := 0; b < B; b++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += vals[r.Intn(n)]
		}
		res[b] = sum / float64(n)
	}
	sort.Float64s(res)
	l := int(0.025 * float64(B-1))
	h := int(0.975 * float64(B-1))
	return res[l], res[h]
}
