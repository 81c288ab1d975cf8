package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	Two   = 2
	Ten   = 10
	Jack  = 11
	Queen = 12
	King  = 13
	Ace   = 14
)

const suits = "cdhs"

var (
	ErrInvalidCard   = errors.New("invalid card")
	ErrDuplicateCard = errors.New("duplicate card")
	ErrCardCount     = errors.New("wrong card count")
)

// FullDeck returns the 52 cards in a fixed order.
func FullDeck() []Card {
	deck := make([]Card, 0, 52)
	for s := 0; s < 4; s++ {
		for rnk := Two; rnk <= Ace; rnk++ {
			deck = append(deck, Card{Rank: rnk, Suit: suits[s]})
		}
	}
	return deck
}

func NewDeck(seed int64) []Card {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))
	deck := FullDeck()
	for i := len(deck) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

func (c Card) String() string {
	ranks := "  23456789TJQKA"
	if !c.Valid() {
		return "??"
	}
	return fmt.Sprintf("%c%c", ranks[c.Rank], c.Suit)
}

func (c Card) Valid() bool {
	return c.Rank >= Two && c.Rank <= Ace && strings.IndexByte(suits, c.Suit) >= 0
}

// Index maps a valid card to 0..51.
func (c Card) Index() int {
	return (c.Rank-Two)*4 + strings.IndexByte(suits, c.Suit)
}

func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: rank=%d suit=%q", ErrInvalidCard, c.Rank, c.Suit)
	}
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard reads two-character notation such as "As", "Td" or "9h".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) != 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	rank := RankFromByte(s[0])
	suit := s[1]
	if suit >= 'A' && suit <= 'Z' {
		suit += 'a' - 'A'
	}
	c := Card{Rank: rank, Suit: suit}
	if !c.Valid() {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	return c, nil
}

// RankFromByte returns 0 for an unknown rank character.
func RankFromByte(b byte) int {
	switch b {
	case 'A', 'a':
		return Ace
	case 'K', 'k':
		return King
	case 'Q', 'q':
		return Queen
	case 'J', 'j':
		return Jack
	case 'T', 't':
		return Ten
	default:
		if b >= '2' && b <= '9' {
			return int(b - '0')
		}
	}
	return 0
}

func RankChar(rank int) byte {
	return "  23456789TJQKA"[rank]
}

// ParseCards accepts "AsKd", "As Kd" or "As,Kd".
func ParseCards(s string) ([]Card, error) {
	s = strings.NewReplacer(" ", "", ",", "").Replace(s)
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	out := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		c, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func MustParseCards(s string) []Card {
	cs, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cs
}

// ValidateCards reports malformed or repeated cards and counts outside [min,max].
func ValidateCards(cards []Card, min, max int) error {
	if len(cards) < min || len(cards) > max {
		return fmt.Errorf("%w: have %d, want %d..%d", ErrCardCount, len(cards), min, max)
	}
	var seen uint64
	for _, c := range cards {
		if !c.Valid() {
			return fmt.Errorf("%w: rank=%d suit=%q", ErrInvalidCard, c.Rank, c.Suit)
		}
		bit := uint64(1) << c.Index()
		if seen&bit != 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateCard, c)
		}
		seen |= bit
	}
	return nil
}

func CardsString(cs []Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Rand is a mutex-guarded math/rand source shared by goroutines.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand seeds from the clock when seed is 0.
func NewRand(seed int64) *Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Float64()
}

func (r *Rand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Intn(n)
}

func (r *Rand) Int63() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Int63()
}
