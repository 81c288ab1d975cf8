package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCards(t *testing.T) {
	cs, err := ParseCards("As Kd, 9h")
	require.NoError(t, err)
	assert.Equal(t, []Card{{Ace, 's'}, {King, 'd'}, {9, 'h'}}, cs)
	assert.Equal(t, "As Kd 9h", CardsString(cs))

	_, err = ParseCards("Ax")
	assert.ErrorIs(t, err, ErrInvalidCard)
	_, err = ParseCards("AsK")
	assert.ErrorIs(t, err, ErrInvalidCard)
}

func TestValidateCards(t *testing.T) {
	assert.NoError(t, ValidateCards(MustParseCards("AsKs"), 2, 2))
	assert.ErrorIs(t, ValidateCards(MustParseCards("AsAs"), 2, 2), ErrDuplicateCard)
	assert.ErrorIs(t, ValidateCards(MustParseCards("As"), 2, 2), ErrCardCount)
	assert.ErrorIs(t, ValidateCards([]Card{{Rank: 15, Suit: 's'}}, 1, 1), ErrInvalidCard)
}

func TestNewDeckIsSeededPermutation(t *testing.T) {
	a, b := NewDeck(42), NewDeck(42)
	assert.Equal(t, a, b)
	require.NoError(t, ValidateCards(a, 52, 52))
}

func TestCardTextRoundTrip(t *testing.T) {
	var c Card
	require.NoError(t, c.UnmarshalText([]byte("Tc")))
	out, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Tc", string(out))
}

func TestHandLimpCheckReachesFlop(t *testing.T) {
	h := NewHand("t1", Config{SB: 5, BB: 10, StartStack: 1000}, NewDeck(1))
	assert.Equal(t, SB, h.ToAct)
	assert.Equal(t, int64(5), h.ToCall(SB))
	assert.False(t, h.FacingRaise(SB))

	require.NoError(t, h.Apply(Call, 0))
	assert.False(t, h.RoundDone(), "big blind keeps the option")
	require.NoError(t, h.Apply(Check, 0))
	assert.True(t, h.RoundDone())

	h.NextStreet()
	assert.Equal(t, Flop, h.Street)
	assert.Len(t, h.Board, 3)
	assert.Equal(t, BB, h.ToAct)
	assert.Equal(t, int64(20), h.Pot)
}

func TestHandRaiseFoldPaysRaiser(t *testing.T) {
	h := NewHand("t2", Config{SB: 5, BB: 10, StartStack: 1000}, NewDeck(2))
	require.NoError(t, h.Apply(Raise, 30))
	assert.True(t, h.FacingRaise(BB))
	assert.Error(t, h.Apply(Raise, 35), "below min raise")
	require.NoError(t, h.Apply(Fold, 0))
	require.True(t, h.Done())

	sb, bb := h.Settle()
	assert.Equal(t, int64(1010), sb)
	assert.Equal(t, int64(990), bb)
}

func TestHandAllInReturnsUncalled(t *testing.T) {
	h := NewHandWithStacks("t3", Config{SB: 5, BB: 10}, NewDeck(3), 1000, 200)
	require.NoError(t, h.Apply(AllIn, 0))
	require.NoError(t, h.Apply(Call, 0))
	require.True(t, h.RoundDone())
	h.RunOut()
	require.Len(t, h.Board, 5)
	sb, bb := h.Settle()
	assert.Equal(t, int64(1200), sb+bb, "chips are conserved")
	assert.True(t, sb >= 800)
}
