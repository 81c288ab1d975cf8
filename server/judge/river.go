// Package judge reviews logged river decisions against exact equity.
package judge

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"holdem-autopilot/server/engine"
	"holdem-autopilot/server/equity"
	"holdem-autopilot/server/store"
)

const Solver = "exact-river"

// Assumed fold equity for the single two-thirds pot bet size.
const (
	betSizing       = 0.66
	betFoldEquity   = 0.35
	topActionMargin = 0.15 // in big blinds
)

type Store interface {
	UnreviewedRiverDecisions(ctx context.Context, matchID uuid.NullUUID) ([]store.DecisionLog, error)
	UpsertReview(ctx context.Context, r store.Review) error
}

type Summary struct {
	Reviewed int `json:"reviewed"`
	Skipped  int `json:"skipped"`
	Top      int `json:"top"`
}

// Review compares the chosen river action with the best of a two-action
// menu: call or fold when facing a bet, check or bet otherwise. ok is false
// when the decision does not fit the menu.
func Review(d store.DecisionLog) (r store.Review, ok bool) {
	if len(d.Board) != 5 {
		return r, false
	}
	cards := append(append([]engine.Card{}, d.Hole[:]...), d.Board...)
	if engine.ValidateCards(cards, 7, 7) != nil {
		return r, false
	}
	t0 := time.Now()
	bb := float64(d.BigBlind)
	if bb <= 0 {
		bb = 100
	}
	eq := equity.ExactRiverEquity(d.Hole, d.Board)
	P := float64(d.Pot)

	var (
		chosen, best     engine.ActionKind
		evChosen, evBest float64
	)
	if d.ToCall > 0 {
		b := float64(d.ToCall)
		evCall := eq*(P+b) - (1-eq)*b
		best, evBest = engine.Call, evCall
		if evBest < 0 {
			best, evBest = engine.Fold, 0
		}
		switch {
		case d.Action == engine.Call, d.Action == engine.AllIn && d.ToCall >= d.MyChips:
			chosen, evChosen = engine.Call, evCall
		case d.Action == engine.Fold:
			chosen, evChosen = engine.Fold, 0
		default:
			return r, false
		}
	} else {
		b := math.Max(bb, math.Round(betSizing*P))
		evBet := betFoldEquity*P + (1-betFoldEquity)*(eq*(P+2*b)-(1-eq)*b)
		best, evBest = engine.Raise, evBet
		if evBest < 0 {
			best, evBest = engine.Check, 0
		}
		switch d.Action {
		case engine.Raise, engine.AllIn:
			chosen, evChosen = engine.Raise, evBet
		case engine.Check:
			chosen, evChosen = engine.Check, 0
		default:
			return r, false
		}
	}

	return store.Review{
		DecisionID:   d.ID,
		Solver:       Solver,
		Equity:       eq,
		BestAction:   best,
		ChosenAction: chosen,
		EVChosen:     evChosen,
		EVBest:       evBest,
		EVGapBB:      (evBest - evChosen) / bb,
		IsTopAction:  evBest-evChosen <= topActionMargin*bb,
		ComputeMS:    int(time.Since(t0) / time.Millisecond),
	}, true
}

// ReviewRiver reviews every pending river decision of a match (all matches
// when matchID is not valid) and stores the results.
func ReviewRiver(ctx context.Context, st Store, matchID uuid.NullUUID, logger log.FieldLogger) (Summary, error) {
	var sum Summary
	pending, err := st.UnreviewedRiverDecisions(ctx, matchID)
	if err != nil {
		return sum, err
	}
	for _, d := range pending {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		r, ok := Review(d)
		if !ok {
			sum.Skipped++
			continue
		}
		if err := st.UpsertReview(ctx, r); err != nil {
			return sum, err
		}
		sum.Reviewed++
		if r.IsTopAction {
			sum.Top++
		}
		logger.WithFields(log.Fields{
			"decision": d.ID,
			"chosen":   r.ChosenAction,
			"best":     r.BestAction,
			"equity":   r.Equity,
			"gap_bb":   r.EVGapBB,
		}).Debug("river reviewed")
	}
	logger.WithFields(log.Fields{"reviewed": sum.Reviewed, "skipped": sum.Skipped, "top": sum.Top}).Info("river review done")
	return sum, nil
}
