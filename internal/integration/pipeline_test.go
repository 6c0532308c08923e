package integration

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnotherSava/bga-tracker/internal/card"
	"github.com/AnotherSava/bga-tracker/internal/events"
	"github.com/AnotherSava/bga-tracker/internal/format"
	"github.com/AnotherSava/bga-tracker/internal/game"
	"github.com/AnotherSava/bga-tracker/internal/interpreter"
)

var age1Names = []string{
	"Agriculture", "Archery", "City States", "Clothing", "Code of Laws",
	"Domestication", "Masonry", "Metalworking", "Mysticism", "Oars",
	"Pottery", "Sailing", "The Wheel", "Tools", "Writing",
}

func pipelineDB(t *testing.T) *card.Database {
	t.Helper()

	colors := []string{"blue", "red", "green", "yellow", "purple"}
	var entries []string
	for i, name := range age1Names {
		entries = append(entries, fmt.Sprintf(
			`{"name": %q, "age": 1, "color": %q, "set": 0}`, name, colors[i%len(colors)]))
	}
	for age := 2; age <= 9; age++ {
		entries = append(entries, fmt.Sprintf(
			`{"name": "Filler %d", "age": %d, "color": "blue", "set": 0}`, age, age))
	}

	db, err := card.ParseDatabase([]byte("[" + strings.Join(entries, ",") + "]"))
	require.NoError(t, err)
	return db
}

// rawHistory is a compressed but structurally faithful notification
// dump: player-view packets carry transfer details, spectator packets
// carry ordering, set codes and log templates.
const rawHistory = `{
	"players": {"101": "Alice", "202": "Bob"},
	"packets": [
		{"move_id": "4", "data": [
			{"type": "transferedCard", "args": {
				"location_from": "deck", "location_to": "hand",
				"name": "Writing", "age": 1, "owner_from": null, "owner_to": "101"
			}},
			{"type": "transferedCard_spectator", "args": {"type": "0"}}
		]},
		{"move_id": "5", "data": [
			{"type": "transferedCard", "args": {
				"location_from": "hand", "location_to": "board",
				"name": "Writing", "age": 1, "owner_from": "101", "owner_to": "101"
			}},
			{"type": "transferedCard_spectator", "args": {"type": "0"}},
			{"type": "log_spectator", "args": {
				"log": "${player_name} melds ${card}",
				"player_name": "Alice", "card": "Writing"
			}}
		]},
		{"move_id": "6", "data": [
			{"type": "transferedCard", "args": {
				"location_from": "deck", "location_to": "hand",
				"name": "", "age": "1", "owner_from": null, "owner_to": "202"
			}},
			{"type": "transferedCard_spectator", "args": {"type": "0"}}
		]},
		{"move_id": "7", "data": [
			{"type": "logWithCardTooltips_spectator", "args": {
				"log": "${player_name} reveals his hand: ${cards}.",
				"player_name": "Bob",
				"cards": "1 Tools, 1 Oars, 1 Masonry"
			}}
		]},
		{"move_id": "8", "data": [
			{"type": "log_spectator", "args": {"log": "Bob passes"}}
		]}
	]
}`

func TestRawHistoryToSummary(t *testing.T) {
	db := pipelineDB(t)

	raw, err := events.ParseRawHistory([]byte(rawHistory))
	require.NoError(t, err)
	log, err := events.Normalize(raw)
	require.NoError(t, err)
	require.Len(t, log.Log, 6)

	state := game.NewState(db, []string{"Alice", "Bob"}, "Alice", zap.NewNop())
	require.NoError(t, state.Setup())
	require.NoError(t, interpreter.New(state, db, zap.NewNop()).Run(log))

	snap := state.Snapshot()

	// Alice drew Writing and melded it.
	require.Len(t, snap.Board["Alice"], 1)
	assert.Equal(t, &game.BoardEntry{Name: "Writing"}, snap.Board["Alice"][0])
	assert.Len(t, snap.Hand["Alice"], 2)
	for _, entry := range snap.Hand["Alice"] {
		assert.IsType(t, &game.HiddenEntry{}, entry)
	}

	// Bob's reveal pinned his whole hand.
	require.Len(t, snap.Hand["Bob"], 3)
	names := make(map[string]bool)
	for _, entry := range snap.Hand["Bob"] {
		named, ok := entry.(*game.NamedEntry)
		require.True(t, ok)
		assert.True(t, named.Revealed)
		names[named.Name] = true
	}
	assert.Equal(t, map[string]bool{"Tools": true, "Oars": true, "Masonry": true}, names)

	// 15 age-1 cards: one achievement, four dealt, two drawn.
	require.Contains(t, snap.Decks, "1")
	assert.Len(t, snap.Decks["1"]["base"], 8)

	// Eleven age-1 cards remain unaccounted for: no deduction there.
	// The single-card groups of ages 2-9 pin their achievements exactly.
	require.Len(t, snap.Achievements, 9)
	assert.Nil(t, snap.Achievements[0])
	for age := 2; age <= 9; age++ {
		require.NotNil(t, snap.Achievements[age-1])
		assert.Equal(t, fmt.Sprintf("Filler %d", age), snap.Achievements[age-1].Name)
	}

	html, err := format.Summary(snap, "Alice", "598086325")
	require.NoError(t, err)
	assert.Contains(t, html, "Alice vs Bob")
	assert.Contains(t, html, "Writing")
	assert.Contains(t, html, "Tools")
	assert.Contains(t, html, "Bob&#39;s hand")
}

func TestPipelineFailsOnInconsistentLog(t *testing.T) {
	db := pipelineDB(t)
	state := game.NewState(db, []string{"Alice", "Bob"}, "Alice", zap.NewNop())
	require.NoError(t, state.Setup())

	// Melding a card that cannot be pinned to a single hand card is a
	// fatal inconsistency, not a silent guess.
	err := interpreter.New(state, db, zap.NewNop()).Run(&events.Log{Log: []events.Entry{
		{Move: 4, Type: events.KindTransfer, CardSet: "base", Source: "hand",
			Dest: "board", CardName: "Writing", SourceOwner: "Alice", DestOwner: "Alice"},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event 0 (move 4)")
}
