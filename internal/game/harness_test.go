package game

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnotherSava/bga-tracker/internal/card"
)

const (
	me  = "Me"
	opp = "Opponent"
)

var age3Base = card.GroupKey{Age: 3, Set: card.SetBase}

// testDB builds a minimal database with five age-3 base cards forming
// a single propagation group.
func testDB(t *testing.T) *card.Database {
	t.Helper()
	db, err := card.ParseDatabase([]byte(`[
		{"name": "Paper", "age": 3, "color": "green", "set": 0},
		{"name": "Compass", "age": 3, "color": "blue", "set": 0},
		{"name": "Education", "age": 3, "color": "yellow", "set": 0},
		{"name": "Alchemy", "age": 3, "color": "purple", "set": 0},
		{"name": "Translation", "age": 3, "color": "red", "set": 0}
	]`))
	require.NoError(t, err)
	return db
}

var allAge3Names = []string{"paper", "compass", "education", "alchemy", "translation"}

/// fullTestDB builds a database with realistic group sizes: fifteen
// age-1 base cards, ten cards per base age 2-10, and ten age-1 cities
// cards, enough for a full Setup.
func fullTestDB(t *testing.T) *card.Database {
	t.Helper()

	colors := []string{"blue", "red", "green", "yellow", "purple"}
	var entries []string
	add := func(age, count, set int, prefix string) {
		for i := 0; i < count; i++ {
			entries = append(entries, fmt.Sprintf(
				`{"name": "%s%d-%02d", "age": %d, "color": %q, "set": %d}`,
				prefix, age, i, age, colors[i%len(colors)], set))
		}
	}
	add(1, 15, 0, "base")
	for age := 2; age <= 10; age++ {
		add(age, 10, 0, "base")
	}
	add(1, 10, 3, "city")

	db, err := card.ParseDatabase([]byte("[" + strings.Join(entries, ",") + "]"))
	require.NoError(t, err)
	return db
}

// newTestState creates an empty two-player state over the one-group
// test database. Cards are injected per test rather than via Setup.
func newTestState(t *testing.T) *State {
	t.Helper()
	return NewState(testDB(t), []string{me, opp}, me, zap.NewNop())
}

// register adds a card to its propagation group.
func (s *State) register(c *card.Card) *card.Card {
	s.groups[c.GroupKey()] = append(s.groups[c.GroupKey()], c)
	return c
}

// addTo registers the card and places it in the given pile.
func (s *State) addTo(p *pile, c *card.Card) *card.Card {
	s.register(c)
	p.push(c)
	return c
}

// resolvedCard builds an age-3 base card already resolved to name.
func resolvedCard(name string) *card.Card {
	return card.New(3, card.SetBase, []string{name})
}

// openCard builds an age-3 base card with the given candidates.
func openCard(candidates ...string) *card.Card {
	return card.New(3, card.SetBase, candidates)
}

// withSuspects sets the opponent knowledge fields on a card.
func withSuspects(c *card.Card, knows bool, explicit bool, suspects ...string) *card.Card {
	c.OpponentKnowsExact = knows
	c.SuspectListExplicit = explicit
	c.OpponentMightSuspect = make(map[string]bool, len(suspects))
	for _, name := range suspects {
		c.OpponentMightSuspect[name] = true
	}
	return c
}

// suspectNames flattens a suspect set for assertions.
func suspectNames(c *card.Card) map[string]bool {
	out := make(map[string]bool, len(c.OpponentMightSuspect))
	for name := range c.OpponentMightSuspect {
		out[name] = true
	}
	return out
}
