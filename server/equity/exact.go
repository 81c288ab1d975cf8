package equity

import (
	"fmt"

	"holdem-autopilot/server/engine"
)

// ExactRiverEquity enumerates every opponent holding (990 of them) against a
// complete board. It has no sampling error.
func ExactRiverEquity(hole engine.HoleCards, board []engine.Card) float64 {
	if len(board) != 5 {
		panic(fmt.Sprintf("equity: exact river equity needs 5 board cards, got %d", len(board)))
	}
	checkInputs(hole, board, nil, 1)

	var hero, opp [7]engine.Card
	hero[0], hero[1] = hole[0], hole[1]
	copy(hero[2:], board)
	copy(opp[2:], board)
	heroRank := engine.Evaluate(hero[:])

	known := knownMask(hole, board)
	avail := make([]engine.Card, 0, 45)
	for _, c := range engine.FullDeck() {
		if known&(1<<c.Index()) == 0 {
			avail = append(avail, c)
		}
	}

	var t tally
	for i := 0; i < len(avail); i++ {
		for j := i + 1; j < len(avail); j++ {
			opp[0], opp[1] = avail[i], avail[j]
			switch engine.Compare(heroRank, engine.Evaluate(opp[:])) {
			case 1:
				t.wins++
			case 0:
				t.ties++
			}
			t.trials++
		}
	}
	return t.equity()
}
