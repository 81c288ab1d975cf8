package main

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem-autopilot/server/agent"
	"holdem-autopilot/server/bankroll"
	"holdem-autopilot/server/engine"
	"holdem-autopilot/server/equity"
	"holdem-autopilot/server/strategy"
)

type scripted func(dc strategy.DecisionContext) (strategy.Decision, error)

func (f scripted) Decide(dc strategy.DecisionContext) (strategy.Decision, error) { return f(dc) }

var (
	shove = scripted(func(dc strategy.DecisionContext) (strategy.Decision, error) {
		return strategy.Decision{Action: engine.AllIn, Amount: dc.MyChips, Confidence: 1}, nil
	})
	folder = scripted(func(dc strategy.DecisionContext) (strategy.Decision, error) {
		return strategy.Decision{Action: engine.Fold, Confidence: 1}, nil
	})
)

var table = engine.Config{SB: 5, BB: 10, StartStack: 1000}

func newSelfplay(t *testing.T, hero, challenger Decider, db *fakeDB) (*Selfplay, *bankroll.Manager) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	bank := bankroll.New(bankroll.DefaultConfig(), 10000)
	sp := &Selfplay{
		Hero:       hero,
		Challenger: challenger,
		Bankroll:   bank,
		Log:        logger,
		Table:      table,
		Pairs:      3,
		WinProb:    0.55,
		Seed:       42,
	}
	if db != nil {
		sp.DB = db
	}
	return sp, bank
}

func TestSelfplayScripted(t *testing.T) {
	db := &fakeDB{}
	sp, bank := newSelfplay(t, shove, folder, db)

	rep, err := sp.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Declined)
	assert.Equal(t, int64(250), rep.Wager)
	assert.Equal(t, 3, rep.Pairs)
	assert.Equal(t, 6, rep.Hands)

	// The hero steals the big blind as SB and collects the small blind as BB.
	assert.Equal(t, int64(45), rep.Hero.Overall.NetChips)
	assert.Equal(t, int64(30), rep.Hero.SB.NetChips)
	assert.Equal(t, int64(15), rep.Hero.BB.NetChips)
	assert.Equal(t, int64(-45), rep.Challenger.Overall.NetChips)
	assert.Equal(t, 3, rep.Hero.Overall.VPIP)
	assert.Equal(t, 3, rep.Hero.Overall.PFR)
	assert.Zero(t, rep.Hero.Overall.WTSD)
	assert.Zero(t, rep.Hero.Overall.SawFlop)
	assert.Equal(t, ActionTally{AllIn: 3}, rep.HeroTally)
	assert.Equal(t, ActionTally{Fold: 6}, rep.ChallengerTally)
	assert.Equal(t, 3, rep.PairWins)
	assert.Len(t, rep.Margins, 3)
	assert.InDelta(t, 1.5, rep.Margins[0], 1e-9)
	assert.Greater(t, rep.Elo.Hero, rep.Elo.Challenger)

	assert.True(t, rep.Won)
	st := bank.GetState()
	assert.Equal(t, int64(10250), st.TotalBalance)
	assert.Zero(t, st.InPlay)

	require.Len(t, db.results, 1)
	assert.Equal(t, rep.MatchID, db.results[0].ID)
	assert.Equal(t, int64(500), db.results[0].Pot)
	assert.Len(t, db.decisions, 9)
	for _, d := range db.decisions {
		assert.Equal(t, rep.MatchID, d.MatchID.UUID)
	}
	assert.GreaterOrEqual(t, len(db.snapshots), 2)
}

func TestSelfplayEngines(t *testing.T) {
	rng := engine.NewRand(5)
	calc := equity.NewCalculator(rng, 2)
	hero := strategy.New(strategy.DefaultConfig(), calc, rng)
	challenger := strategy.New(strategy.DefaultConfig(), calc, rng)
	sp, bank := newSelfplay(t, hero, challenger, nil)
	sp.Pairs = 4

	rep, err := sp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, rep.Hands)
	assert.Equal(t, 8, rep.Hero.Overall.Hands)
	assert.Equal(t, 4, rep.Hero.SB.Hands)
	assert.Zero(t, rep.Hero.Overall.NetChips+rep.Challenger.Overall.NetChips, "chips are conserved")
	assert.Positive(t, rep.HeroTally.Total())

	st := bank.GetState()
	assert.Zero(t, st.InPlay)
	switch {
	case rep.Won:
		assert.Equal(t, int64(10250), st.TotalBalance)
	case rep.Hero.Overall.NetChips == 0:
		assert.Equal(t, int64(10000), st.TotalBalance)
	default:
		assert.Equal(t, int64(9750), st.TotalBalance)
	}
}

func TestSelfplayDeclines(t *testing.T) {
	sp, bank := newSelfplay(t, shove, folder, nil)
	sp.WinProb = 0.5
	rep, err := sp.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, rep.Declined)
	assert.Zero(t, rep.Hands)
	assert.Equal(t, int64(10000), bank.GetState().TotalBalance)
}

func TestSelfplayStopsOnCancel(t *testing.T) {
	sp, bank := newSelfplay(t, shove, folder, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := sp.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, rep.Pairs)
	assert.False(t, rep.Won)
	assert.Equal(t, int64(10000), bank.GetState().TotalBalance, "a match with no hands is a draw")
	ss := bank.GetSessionStats()
	assert.Equal(t, 1, ss.GamesPlayed)
	assert.Zero(t, ss.Wins)
	assert.Zero(t, ss.Losses)
}

func TestSelfplayErrorForfeitsStake(t *testing.T) {
	boom := errors.New("boom")
	broken := scripted(func(strategy.DecisionContext) (strategy.Decision, error) { return strategy.Decision{}, boom })
	sp, bank := newSelfplay(t, broken, folder, nil)
	_, err := sp.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	st := bank.GetState()
	assert.Zero(t, st.InPlay)
	assert.Equal(t, int64(9750), st.TotalBalance)
}

func TestApplyFallsBack(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sp := &Selfplay{Log: logger, Table: table}
	h := engine.NewHand("h", table, engine.NewDeck(1))

	kind := sp.apply(h, agent.ActionOut{Action: engine.Check})
	assert.Equal(t, engine.Call, kind, "a check facing the big blind becomes a call")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "action rejected", hook.LastEntry().Message)

	amt := int64(15)
	kind = sp.apply(h, agent.ActionOut{Action: engine.Raise, Amount: &amt})
	assert.Equal(t, engine.Check, kind, "below the minimum raise with nothing to call")
}
