// Package strategy turns a table snapshot into a fold, check, call, raise
// or all-in decision using preflop tables and postflop equity tiers.
package strategy

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"holdem-autopilot/server/engine"
	"holdem-autopilot/server/equity"
	"holdem-autopilot/server/preflop"
)

// EquityEstimator estimates hero's share of the pot against a random hand.
type EquityEstimator interface {
	CalculateEquity(hole engine.HoleCards, board []engine.Card, n int) float64
}

type Rand interface {
	Float64() float64
}

type Engine struct {
	cfg Config
	pre *preflop.Strategy
	eq  EquityEstimator
	rng Rand
	log log.FieldLogger
}

type Option func(*Engine)

func WithLogger(l log.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

func New(cfg Config, eq EquityEstimator, rng Rand, opts ...Option) *Engine {
	e := &Engine{
		cfg: cfg,
		pre: preflop.New(rng),
		eq:  eq,
		rng: rng,
		log: log.StandardLogger(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Config() Config { return e.cfg }

// Decide validates the context and returns the chosen action. Raise
// amounts never exceed MyChips; a raise that would reach it becomes all-in.
func (e *Engine) Decide(dc DecisionContext) (Decision, error) {
	if err := dc.Validate(); err != nil {
		return Decision{}, err
	}
	var d Decision
	if dc.Phase == engine.Preflop {
		d = e.preflop(dc)
	} else {
		d = e.postflop(dc)
	}
	e.log.WithFields(log.Fields{
		"hole":       dc.HoleCards.String(),
		"board":      engine.CardsString(dc.CommunityCards),
		"phase":      dc.Phase,
		"pos":        dc.Position,
		"to_call":    dc.ToCall,
		"pot":        dc.PotSize,
		"action":     d.Action,
		"amount":     d.Amount,
		"confidence": d.Confidence,
	}).Debug("decision")
	return d, nil
}

func (e *Engine) preflop(dc DecisionContext) Decision {
	rec := e.pre.Recommend(dc.HoleCards, dc.Position, dc.FacingRaise(), dc.ToCall, dc.PotSize)
	// Confidence is the hand's preflop strength whatever the action.
	conf := float64(rec.Strength) / 100
	switch rec.Action {
	case engine.Raise:
		bb := max(dc.BigBlind, dc.CurrentBet)
		return e.raise(dc, int64(math.Round(rec.RaiseMultiplier*float64(bb))), conf, rec.Reasoning)
	case engine.Call:
		return e.call(dc, conf, rec.Reasoning)
	case engine.Check:
		if dc.ToCall > 0 {
			return Decision{Action: engine.Fold, Confidence: conf, Reasoning: rec.Reasoning + "; nothing free to take"}
		}
		return Decision{Action: engine.Check, Confidence: conf, Reasoning: rec.Reasoning}
	}
	if dc.ToCall == 0 {
		return Decision{Action: engine.Check, Confidence: conf, Reasoning: rec.Reasoning + "; check instead of folding for free"}
	}
	return Decision{Action: engine.Fold, Confidence: conf, Reasoning: rec.Reasoning}
}

func (e *Engine) samples(p engine.Phase) int {
	switch p {
	case engine.Flop:
		return e.cfg.FlopSamples
	case engine.Turn:
		return e.cfg.TurnSamples
	}
	return e.cfg.RiverSamples
}

func (e *Engine) equity(dc DecisionContext) float64 {
	if dc.Phase == engine.River && e.cfg.ExactRiver {
		return equity.ExactRiverEquity(dc.HoleCards, dc.CommunityCards)
	}
	return e.eq.CalculateEquity(dc.HoleCards, dc.CommunityCards, e.samples(dc.Phase))
}

func (e *Engine) postflop(dc DecisionContext) Decision {
	eq := e.equity(dc)
	odds := equity.CalculatePotOdds(dc.ToCall, dc.PotSize)
	made := engine.Describe(append(dc.HoleCards[:], dc.CommunityCards...))
	why := func(s string) string {
		return fmt.Sprintf("%s, equity %.2f vs pot odds %.2f: %s", made, eq, odds, s)
	}
	pot := float64(dc.PotSize)
	open := dc.ToCall == 0
	c := e.cfg

	switch {
	case eq >= c.PremiumHandEquity:
		if open {
			return e.raise(dc, int64(pot*c.ValueBetRatio), 0.9, why("value bet"))
		}
		if 3*dc.CurrentBet <= dc.MyChips {
			return e.raise(dc, 3*dc.CurrentBet, 0.9, why("raise for value"))
		}
		return e.call(dc, 0.85, why("call, raise not affordable"))

	case eq >= c.StrongHandEquity:
		if open {
			return e.raise(dc, int64(pot*c.PotBetRatio*0.7), 0.75, why("bet for value and protection"))
		}
		if equity.IsCallProfitable(eq, odds) {
			return e.call(dc, 0.7, why("profitable call"))
		}
		return Decision{Action: engine.Fold, Confidence: 0.6, Reasoning: why("priced out")}

	case eq >= c.MinPlayableEquity:
		if open {
			if e.rng.Float64() < c.SemiBluffProb {
				return e.raise(dc, int64(pot*0.4), 0.4, why("semi-bluff"))
			}
			return Decision{Action: engine.Check, Confidence: 0.55, Reasoning: why("check a medium hand")}
		}
		if equity.IsCallProfitable(eq, odds) {
			return e.call(dc, 0.55, why("call with the odds"))
		}
		return Decision{Action: engine.Fold, Confidence: 0.6, Reasoning: why("fold without the odds")}
	}

	if open {
		if dc.Phase != engine.River && e.rng.Float64() < c.BluffProb {
			return e.raise(dc, int64(pot*c.PotBetRatio), 0.3, why("bluff"))
		}
		return Decision{Action: engine.Check, Confidence: 0.6, Reasoning: why("check a weak hand")}
	}
	if float64(dc.ToCall) < 0.1*float64(dc.MyChips) && e.rng.Float64() < c.BluffRaiseProb {
		return e.raise(dc, 3*dc.CurrentBet, 0.25, why("bluff raise"))
	}
	return Decision{Action: engine.Fold, Confidence: 0.7, Reasoning: why("fold a weak hand")}
}

// raise sizes a raise-to amount: at least twice the current bet and a big
// blind, at most the remaining stack.
func (e *Engine) raise(dc DecisionContext, amount int64, conf float64, why string) Decision {
	if floor := 2 * dc.CurrentBet; amount < floor {
		amount = floor
	}
	if amount < dc.BigBlind {
		amount = dc.BigBlind
	}
	if amount < 1 {
		amount = 1
	}
	if amount >= dc.MyChips {
		return Decision{Action: engine.AllIn, Amount: dc.MyChips, Confidence: conf, Reasoning: why + ", all-in"}
	}
	return Decision{Action: engine.Raise, Amount: amount, Confidence: conf, Reasoning: why}
}

func (e *Engine) call(dc DecisionContext, conf float64, why string) Decision {
	switch {
	case dc.ToCall == 0:
		return Decision{Action: engine.Check, Confidence: conf, Reasoning: why}
	case dc.ToCall >= dc.MyChips:
		return Decision{Action: engine.AllIn, Amount: dc.MyChips, Confidence: conf, Reasoning: why + ", all-in to call"}
	}
	return Decision{Action: engine.Call, Confidence: conf, Reasoning: why}
}
