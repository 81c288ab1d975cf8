// Package equity estimates how often a holding wins at showdown.
package equity

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"holdem-autopilot/server/engine"
)

// Source seeds the per-worker generators. It must be safe for concurrent
// use when the Calculator is shared; *engine.Rand is.
type Source interface {
	Int63() int64
}

// minTrialsPerWorker keeps tiny sample counts on a single goroutine.
const minTrialsPerWorker = 250

// Calculator runs Monte Carlo equity simulations against one opponent.
type Calculator struct {
	src     Source
	workers int
}

// NewCalculator uses GOMAXPROCS workers when workers <= 0.
func NewCalculator(src Source, workers int) *Calculator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Calculator{src: src, workers: workers}
}

type tally struct {
	wins, ties, trials int
}

func (t tally) equity() float64 {
	if t.trials == 0 {
		return 0
	}
	return (float64(t.wins) + float64(t.ties)/2) / float64(t.trials)
}

// CalculateEquity deals n random opponent hands and board run-outs and
// returns (wins + ties/2) / n.
func (c *Calculator) CalculateEquity(hole engine.HoleCards, board []engine.Card, n int) float64 {
	return c.simulate(hole, board, nil, n).equity()
}

// CalculateEquityVsRange averages equity over every range combo that does
// not collide with known cards. With no usable combos it falls back to a
// random opponent at 10x the sample count.
func (c *Calculator) CalculateEquityVsRange(hole engine.HoleCards, board []engine.Card, r Range, n int) float64 {
	known := knownMask(hole, board)
	var sum float64
	used := 0
	for _, villain := range r {
		if villain.Overlaps(known) || villain[0] == villain[1] {
			continue
		}
		v := villain
		sum += c.simulate(hole, board, &v, n).equity()
		used++
	}
	if used == 0 {
		return c.CalculateEquity(hole, board, n*10)
	}
	return sum / float64(used)
}

// CalculatePotOdds is the share of the final pot a call contributes.
// A free look (toCall == 0) returns 1.
func CalculatePotOdds(toCall, pot int64) float64 {
	if toCall == 0 {
		return 1
	}
	return float64(toCall) / float64(pot+toCall)
}

// CalculateCallEV is equity*pot - (1-equity)*toCall, in chips.
func CalculateCallEV(equity float64, pot, toCall int64) float64 {
	return equity*float64(pot) - (1-equity)*float64(toCall)
}

func IsCallProfitable(equity, potOdds float64) bool { return equity > potOdds }

// StdErr is the binomial standard error of an equity estimate over n trials.
func StdErr(equity float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Sqrt(equity * (1 - equity) / float64(n))
}

func knownMask(hole engine.HoleCards, board []engine.Card) uint64 {
	var m uint64
	for _, c := range hole {
		m |= 1 << c.Index()
	}
	for _, c := range board {
		m |= 1 << c.Index()
	}
	return m
}

// checkInputs panics on malformed input; these are caller bugs.
func checkInputs(hole engine.HoleCards, board []engine.Card, villain *engine.HoleCards, n int) {
	cards := append(append(make([]engine.Card, 0, 9), hole[:]...), board...)
	if villain != nil {
		cards = append(cards, villain[:]...)
	}
	if len(board) > 5 {
		panic(fmt.Sprintf("equity: board has %d cards", len(board)))
	}
	if err := engine.ValidateCards(cards, len(cards), len(cards)); err != nil {
		panic(fmt.Sprintf("equity: %v", err))
	}
	if n <= 0 {
		panic(fmt.Sprintf("equity: sample count must be positive, got %d", n))
	}
}

func (c *Calculator) simulate(hole engine.HoleCards, board []engine.Card, villain *engine.HoleCards, n int) tally {
	checkInputs(hole, board, villain, n)

	known := knownMask(hole, board)
	if villain != nil {
		known |= 1<<villain[0].Index() | 1<<villain[1].Index()
	}
	pool := make([]engine.Card, 0, 52)
	for _, card := range engine.FullDeck() {
		if known&(1<<card.Index()) == 0 {
			pool = append(pool, card)
		}
	}

	workers := c.workers
	if limit := n / minTrialsPerWorker; workers > limit {
		workers = limit
	}
	if workers < 1 {
		workers = 1
	}
	seeds := make([]int64, workers)
	for i := range seeds {
		seeds[i] = c.src.Int63()
	}

	results := make([]tally, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		trials := n / workers
		if w < n%workers {
			trials++
		}
		w := w
		g.Go(func() error {
			results[w] = runTrials(hole, board, villain, pool, trials, rand.New(rand.NewSource(seeds[w])))
			return nil
		})
	}
	_ = g.Wait()

	var total tally
	for _, r := range results {
		total.wins += r.wins
		total.ties += r.ties
		total.trials += r.trials
	}
	return total
}

// runTrials samples without replacement from a private copy of pool with a
// partial Fisher-Yates pass per trial; the copy stays a permutation of the
// unseen cards so nothing needs restoring between trials.
func runTrials(hole engine.HoleCards, board []engine.Card, villain *engine.HoleCards, pool []engine.Card, trials int, r *rand.Rand) tally {
	idx := make([]engine.Card, len(pool))
	copy(idx, pool)

	var hero, opp [7]engine.Card
	hero[0], hero[1] = hole[0], hole[1]
	copy(hero[2:], board)
	copy(opp[2:], board)
	if villain != nil {
		opp[0], opp[1] = villain[0], villain[1]
	}

	missing := 5 - len(board)
	need := missing
	if villain == nil {
		need += 2
	}

	var t tally
	for i := 0; i < trials; i++ {
		for k := 0; k < need; k++ {
			j := k + r.Intn(len(idx)-k)
			idx[k], idx[j] = idx[j], idx[k]
		}
		drawn := idx[:need]
		if villain == nil {
			opp[0], opp[1] = drawn[0], drawn[1]
			drawn = drawn[2:]
		}
		for k := 0; k < missing; k++ {
			hero[2+len(board)+k] = drawn[k]
			opp[2+len(board)+k] = drawn[k]
		}
		switch engine.Compare(engine.Evaluate(hero[:]), engine.Evaluate(opp[:])) {
		case 1:
			t.wins++
		case 0:
			t.ties++
		}
		t.trials++
	}
	return t
}
