package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"holdem-autopilot/server/engine"
)

func TestSeatStats(t *testing.T) {
	s := SeatStats{Hands: 200, NetChips: 1000, Calls: 4, Aggr: 10}
	assert.InDelta(t, 5.0, s.BBPer100(100), 1e-9)
	assert.Equal(t, 2.5, s.AF())
	assert.Zero(t, SeatStats{}.BBPer100(100))
	assert.Zero(t, s.BBPer100(0))
	assert.Equal(t, 3.0, SeatStats{Aggr: 3}.AF(), "no calls: AF is the raise count")
	assert.Zero(t, SeatStats{}.AF())
}

func TestPlayerStatsBuckets(t *testing.T) {
	var ps PlayerStats
	ps.addHand(engine.SB)
	ps.addNet(engine.SB, 40)
	ps.addHand(engine.BB)
	ps.addNet(engine.BB, -15)

	assert.Equal(t, 2, ps.Overall.Hands)
	assert.Equal(t, int64(25), ps.Overall.NetChips)
	assert.Equal(t, SeatStats{Hands: 1, NetChips: 40}, ps.SB)
	assert.Equal(t, SeatStats{Hands: 1, NetChips: -15}, ps.BB)
}

func TestActionTally(t *testing.T) {
	var tl ActionTally
	assert.Zero(t, tl.Pct(tl.Fold))
	for _, k := range []engine.ActionKind{engine.Fold, engine.Call, engine.Call, engine.Raise, engine.AllIn, engine.Check, "bogus"} {
		tl.Add(k)
	}
	assert.Equal(t, 6, tl.Total())
	assert.Equal(t, 2, tl.Call)
	assert.InDelta(t, 100.0/3, tl.Pct(tl.Call), 1e-9)
}

func TestWilsonCI95(t *testing.T) {
	lo, hi := WilsonCI95(0, 0, 0)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	lo, hi = WilsonCI95(50, 0, 100)
	assert.InDelta(t, 0.5, (lo+hi)/2, 1e-9, "symmetric around one half")
	assert.InDelta(t, 0.404, lo, 1e-3)
	assert.InDelta(t, 0.596, hi, 1e-3)

	tlo, thi := WilsonCI95(40, 20, 100)
	assert.InDelta(t, lo, tlo, 1e-12, "ties count as half a win")
	assert.InDelta(t, hi, thi, 1e-12)

	lo, hi = WilsonCI95(10, 0, 10)
	assert.Less(t, lo, 1.0)
	assert.InDelta(t, 1.0, hi, 1e-12)
}

func TestBootstrapCI95(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	lo, hi := BootstrapCI95(nil, 1000, r)
	assert.Zero(t, lo)
	assert.Zero(t, hi)

	same := []float64{2, 2, 2, 2}
	lo, hi = BootstrapCI95(same, 500, r)
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 2.0, hi)

	vals := make([]float64, 400)
	for i := range vals {
		vals[i] = float64(i%2)*2 - 1 // alternating -1, +1
	}
	lo, hi = BootstrapCI95(vals, 1000, r)
	assert.Less(t, lo, 0.0)
	assert.Greater(t, hi, 0.0)
	assert.LessOrEqual(t, lo, hi)
}

func TestEloUpdatePair(t *testing.T) {
	e := NewElo(1500, 24)
	assert.Equal(t, 0.5, e.Expected())

	d := e.UpdatePair(0, 400, 100)
	assert.Zero(t, d, "an even pair between equal ratings moves nothing")
	assert.Equal(t, 1, e.Pairs)

	d = e.UpdatePair(2000, 400, 100)
	assert.Positive(t, d)
	assert.InDelta(t, 3000.0, e.Hero+e.Challenger, 1e-9, "rating is zero-sum")
	assert.Greater(t, e.Expected(), 0.5)

	big, small := NewElo(1500, 24), NewElo(1500, 24)
	assert.Greater(t, big.UpdatePair(500, 2000, 100), small.UpdatePair(500, 100, 100), "bigger pots move ratings more")
}

func TestPotScale(t *testing.T) {
	assert.Equal(t, 1.0, potScale(0, 100))
	assert.Equal(t, 0.5, potScale(20, 100))
	assert.Equal(t, 1.0, potScale(200, 100))
	assert.Equal(t, 3.0, potScale(10000, 100))
}
