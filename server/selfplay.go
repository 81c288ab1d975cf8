package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	log "github.com/sirupsen/logrus"

	"holdem-autopilot/server/agent"
	"holdem-autopilot/server/bankroll"
	"holdem-autopilot/server/engine"
	"holdem-autopilot/server/store"
	"holdem-autopilot/server/strategy"
)

const (
	maxActionsPerHand = 200
	bootstrapRounds   = 1000
)

type Decider interface {
	Decide(dc strategy.DecisionContext) (strategy.Decision, error)
}

// Selfplay runs the hero profile against a challenger over mirrored pairs:
// each deck is dealt twice with the seats swapped. The bankroll stakes the
// match as a single winner-takes-all wager.
type Selfplay struct {
	Hero, Challenger Decider
	Bankroll         *bankroll.Manager
	DB               Persister
	Log              log.FieldLogger
	Table            engine.Config
	Pairs            int
	WinProb          float64
	// Seed is the deck seed base; 0 picks one from the clock.
	Seed int64
}

type MatchReport struct {
	MatchID         uuid.UUID
	SeedBase        int64
	Pairs, Hands    int
	Wager           int64
	Won             bool
	Declined        string
	Hero            PlayerStats
	Challenger      PlayerStats
	HeroTally       ActionTally
	ChallengerTally ActionTally
	PairWins        int
	PairTies        int
	Margins         []float64 // hero net per pair, in big blinds
	Elo             Elo
}

type seatAct struct {
	seat   engine.Seat
	street engine.Phase
	kind   engine.ActionKind
}

type handResult struct {
	sbNet, bbNet int64
	pot          int64
	sawFlop      bool
	showdown     bool
	winner       engine.Seat
	acts         []seatAct
}

func (sp *Selfplay) Run(ctx context.Context) (MatchReport, error) {
	rep := MatchReport{MatchID: uuid.New(), Elo: NewElo(1500, 24)}
	logger := sp.Log.WithField("match", rep.MatchID)

	rep.Wager = sp.Bankroll.CalculateOptimalWager(sp.WinProb, 1)
	if rep.Wager <= 0 {
		rep.Declined = "no positive stake at this win probability"
		return rep, nil
	}
	if v := sp.Bankroll.ShouldPlayMatch(rep.Wager, sp.WinProb, false, false); !v.ShouldPlay {
		rep.Declined = v.Reason
		return rep, nil
	}
	if !sp.Bankroll.ReserveForMatch(rep.Wager) {
		rep.Declined = "reservation refused"
		return rep, nil
	}
	sp.snapshot(ctx)

	rep.SeedBase = sp.Seed
	if rep.SeedBase == 0 {
		rep.SeedBase = time.Now().UnixNano()
	}
	seeds := rand.New(rand.NewSource(rep.SeedBase))
	logger.WithFields(log.Fields{"wager": rep.Wager, "pairs": sp.Pairs, "seed": rep.SeedBase}).Info("self-play started")

	for i := 0; i < sp.Pairs; i++ {
		if ctx.Err() != nil {
			logger.Warn("stop requested, ending after the last full pair")
			break
		}
		seed := seeds.Int63()

		r1, err := sp.playHand(ctx, rep.MatchID, fmt.Sprintf("%d-%dA", i+1, seed), seed, sp.Hero, sp.Challenger)
		if err != nil {
			return rep, sp.abort(rep.Wager, err)
		}
		r2, err := sp.playHand(ctx, rep.MatchID, fmt.Sprintf("%d-%dB", i+1, seed), seed, sp.Challenger, sp.Hero)
		if err != nil {
			return rep, sp.abort(rep.Wager, err)
		}
		recordHand(&rep.Hero, &rep.HeroTally, engine.SB, r1, r1.sbNet)
		recordHand(&rep.Challenger, &rep.ChallengerTally, engine.BB, r1, r1.bbNet)
		recordHand(&rep.Challenger, &rep.ChallengerTally, engine.SB, r2, r2.sbNet)
		recordHand(&rep.Hero, &rep.HeroTally, engine.BB, r2, r2.bbNet)

		heroNet := r1.sbNet + r2.bbNet
		d := rep.Elo.UpdatePair(heroNet, r1.pot+r2.pot, sp.Table.BB)
		switch {
		case heroNet > 0:
			rep.PairWins++
		case heroNet == 0:
			rep.PairTies++
		}
		rep.Margins = append(rep.Margins, float64(heroNet)/float64(sp.Table.BB))
		rep.Pairs++
		rep.Hands += 2
		logger.WithFields(log.Fields{
			"pair":     i + 1,
			"hero_net": heroNet,
			"elo":      fmt.Sprintf("%.1f (%+.1f)", rep.Elo.Hero, d),
		}).Debug("pair done")
	}

	// A drawn match returns the stake without counting as a win or a loss.
	net := rep.Hero.Overall.NetChips
	pot := 2 * rep.Wager
	var err error
	if net == 0 {
		pot = rep.Wager
		err = sp.Bankroll.RecordDraw(rep.Wager)
	} else {
		err = sp.Bankroll.RecordResult(rep.Wager, net > 0, pot)
	}
	if err != nil {
		return rep, err
	}
	rep.Won = net > 0

	// The run context may be cancelled by now; the result is still persisted.
	bg := context.Background()
	if sp.DB != nil {
		if _, err := sp.DB.InsertMatchResult(bg, store.MatchResult{ID: rep.MatchID, Wager: rep.Wager, Pot: pot, Won: rep.Won, Hands: rep.Hands}); err != nil {
			logger.WithError(err).Warn("match result not stored")
		}
	}
	sp.snapshot(bg)
	logger.WithFields(log.Fields{"hands": rep.Hands, "hero_net": net, "won": rep.Won}).Info("self-play finished")
	return rep, nil
}

// abort forfeits the reserved stake so the wallet stays balanced.
func (sp *Selfplay) abort(wager int64, cause error) error {
	if err := sp.Bankroll.RecordResult(wager, false, 0); err != nil {
		sp.Log.WithError(err).Error("stake not released")
	}
	sp.snapshot(context.Background())
	return cause
}

func (sp *Selfplay) snapshot(ctx context.Context) {
	if sp.DB == nil {
		return
	}
	if err := sp.DB.SaveSnapshot(ctx, sp.Bankroll.GetState(), sp.Bankroll.GetSessionStats()); err != nil {
		sp.Log.WithError(err).Warn("bankroll snapshot failed")
	}
}

func (sp *Selfplay) playHand(ctx context.Context, matchID uuid.UUID, id string, seed int64, sbSide, bbSide Decider) (handResult, error) {
	h := engine.NewHand(id, sp.Table, engine.NewDeck(seed))
	var res handResult
	for steps := 0; !h.Done(); steps++ {
		if steps > maxActionsPerHand {
			return res, fmt.Errorf("hand %s: no result after %d actions", id, maxActionsPerHand)
		}
		if h.RoundDone() {
			if h.SB.AllIn || h.BB.AllIn {
				h.RunOut()
			} else {
				h.NextStreet()
			}
			continue
		}

		seat := h.ToAct
		side := sbSide
		if seat == engine.BB {
			side = bbSide
		}
		obs := agent.BuildObservation(h, seat)
		dc, err := obs.Context()
		if err != nil {
			return res, fmt.Errorf("hand %s: %w", id, err)
		}
		d, err := side.Decide(dc)
		if err != nil {
			return res, fmt.Errorf("hand %s: %w", id, err)
		}
		out := agent.Normalize(obs, agent.FromDecision(d))
		if err := agent.Validate(obs, out); err != nil {
			sp.Log.WithField("hand", id).WithError(err).Debug("normalized action outside the legal window")
		}
		kind := sp.apply(h, out)
		res.acts = append(res.acts, seatAct{seat: seat, street: dc.Phase, kind: kind})
		sp.logDecision(ctx, matchID, id, dc, d)
	}

	res.sawFlop = h.Street != engine.Preflop
	res.showdown = !h.SB.Folded && !h.BB.Folded
	res.pot = h.Pot
	res.winner = h.Showdown()
	sbStack, bbStack := h.Settle()
	res.sbNet = sbStack - sp.Table.StartStack
	res.bbNet = bbStack - sp.Table.StartStack
	return res, nil
}

// apply plays the action, falling back to call or check when the hand
// rejects it, and returns the kind the hand recorded.
func (sp *Selfplay) apply(h *engine.Hand, out agent.ActionOut) engine.ActionKind {
	var amt int64
	if out.Amount != nil {
		amt = *out.Amount
	}
	if err := h.Apply(out.Action, amt); err != nil {
		fallback := engine.Check
		if h.ToCall(h.ToAct) > 0 {
			fallback = engine.Call
		}
		sp.Log.WithFields(log.Fields{"hand": h.ID, "action": out.Action, "amount": amt, "fallback": fallback}).
			WithError(err).Warn("action rejected")
		if err := h.Apply(fallback, 0); err != nil {
			_ = h.Apply(engine.Fold, 0)
		}
	}
	return h.History[len(h.History)-1].Kind
}

func (sp *Selfplay) logDecision(ctx context.Context, matchID uuid.UUID, handID string, dc strategy.DecisionContext, d strategy.Decision) {
	if sp.DB == nil {
		return
	}
	dl := store.NewDecisionLog(uuid.NullUUID{UUID: matchID, Valid: true}, handID, dc, d)
	if _, err := sp.DB.InsertDecision(ctx, dl); err != nil {
		sp.Log.WithError(err).Warn("decision not logged")
	}
}

// recordHand folds one hand into the stats of the player who sat in seat.
func recordHand(ps *PlayerStats, tally *ActionTally, seat engine.Seat, res handResult, net int64) {
	var vpip, pfr bool
	var calls, aggr int
	for _, a := range res.acts {
		if a.seat != seat {
			continue
		}
		tally.Add(a.kind)
		switch a.kind {
		case engine.Call:
			calls++
		case engine.Raise, engine.AllIn:
			aggr++
		}
		if a.street == engine.Preflop {
			switch a.kind {
			case engine.Call:
				vpip = true
			case engine.Raise, engine.AllIn:
				vpip, pfr = true, true
			}
		}
	}
	ps.addHand(seat)
	ps.addNet(seat, net)
	ps.each(seat, func(s *SeatStats) {
		s.Calls += calls
		s.Aggr += aggr
		if vpip {
			s.VPIP++
		}
		if pfr {
			s.PFR++
		}
		if res.sawFlop {
			s.SawFlop++
		}
		if res.showdown {
			s.WTSD++
			if res.winner == seat {
				s.WSD++
			}
		}
	})
}

/* -----------------------------
   Report
------------------------------*/

func pct(n, d int) string {
	if d == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(d))
}

func statsRow(name string, s SeatStats, bb int64) []string {
	return []string{
		name,
		fmt.Sprint(s.Hands),
		fmt.Sprintf("%+d", s.NetChips),
		fmt.Sprintf("%+.1f", s.BBPer100(bb)),
		pct(s.VPIP, s.Hands),
		pct(s.PFR, s.Hands),
		fmt.Sprintf("%.2f", s.AF()),
		pct(s.WTSD, s.SawFlop),
		pct(s.WSD, s.WTSD),
	}
}

func tallyRow(name string, t ActionTally) []string {
	return []string{
		name,
		fmt.Sprint(t.Total()),
		fmt.Sprintf("%.1f%%", t.Pct(t.Fold)),
		fmt.Sprintf("%.1f%%", t.Pct(t.Check)),
		fmt.Sprintf("%.1f%%", t.Pct(t.Call)),
		fmt.Sprintf("%.1f%%", t.Pct(t.Raise)),
		fmt.Sprintf("%.1f%%", t.Pct(t.AllIn)),
	}
}

func renderReport(rep MatchReport, bb int64) error {
	pterm.DefaultSection.Println("Self-play")
	if rep.Declined != "" {
		pterm.Warning.Printfln("match declined: %s (stake %d)", rep.Declined, rep.Wager)
		return nil
	}

	stats := [][]string{{"player", "hands", "net", "bb/100", "VPIP", "PFR", "AF", "WTSD", "W$SD"}}
	for _, p := range []struct {
		name string
		ps   PlayerStats
	}{{"hero", rep.Hero}, {"challenger", rep.Challenger}} {
		stats = append(stats,
			statsRow(p.name, p.ps.Overall, bb),
			statsRow(p.name+" SB", p.ps.SB, bb),
			statsRow(p.name+" BB", p.ps.BB, bb))
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(stats).Render(); err != nil {
		return err
	}

	mix := [][]string{
		{"player", "actions", "fold", "check", "call", "raise", "all-in"},
		tallyRow("hero", rep.HeroTally),
		tallyRow("challenger", rep.ChallengerTally),
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(mix).Render(); err != nil {
		return err
	}

	lo, hi := WilsonCI95(rep.PairWins, rep.PairTies, rep.Pairs)
	blo, bhi := BootstrapCI95(rep.Margins, bootstrapRounds, rand.New(rand.NewSource(rep.SeedBase)))
	pterm.Info.Printfln("pairs=%d  hero pair win-prob 95%% CI [%.3f, %.3f]", rep.Pairs, lo, hi)
	pterm.Info.Printfln("hero net per pair 95%% CI [%+.2f, %+.2f] bb", blo, bhi)
	pterm.Info.Printfln("Elo hero %.1f | challenger %.1f", rep.Elo.Hero, rep.Elo.Challenger)

	result := pterm.LightRed("lost")
	if rep.Won {
		result = pterm.LightGreen("won")
	} else if rep.Hero.Overall.NetChips == 0 {
		result = pterm.LightYellow("drawn")
	}
	pterm.DefaultBox.WithTitle("match " + rep.MatchID.String()).
		Printfln("stake %d %s after %d hands (seed %d)", rep.Wager, result, rep.Hands, rep.SeedBase)
	return nil
}
