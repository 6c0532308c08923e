package events

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gameLogFixture = `{
	"players": {"101": "Alice", "202": "Bob"},
	"log": [
		{"move": 4, "type": "transfer", "card_set": "base",
		 "source": "deck", "dest": "hand", "card_age": 1, "dest_owner": "Alice"},
		{"move": 5, "type": "transfer", "card_set": "base",
		 "source": "hand", "dest": "board", "card_name": "paper",
		 "source_owner": "Alice", "dest_owner": "Alice"},
		{"move": 6, "type": "reveal_hand", "player": "Bob",
		 "card_names": ["compass", "education"]},
		{"move": 7, "type": "log", "msg": "Bob achieves [crown]"}
	]
}`

func TestParseLog(t *testing.T) {
	log, err := ParseLog([]byte(gameLogFixture))
	require.NoError(t, err)

	assert.Equal(t, "Alice", log.Players["101"])
	require.Len(t, log.Log, 4)

	assert.Equal(t, KindTransfer, log.Log[0].Type)
	assert.False(t, log.Log[0].Named())
	assert.Equal(t, 1, log.Log[0].CardAge)

	assert.Equal(t, "paper", log.Log[1].CardName)
	assert.True(t, log.Log[1].Named())

	assert.Equal(t, KindHandReveal, log.Log[2].Type)
	assert.Equal(t, []string{"compass", "education"}, log.Log[2].CardNames)

	assert.Equal(t, KindLog, log.Log[3].Type)
}

func TestParseLogRejectsMalformedJSON(t *testing.T) {
	_, err := ParseLog([]byte(`{"log": [`))
	require.Error(t, err)
}

func TestLoadLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game_log.json")
	require.NoError(t, os.WriteFile(path, []byte(gameLogFixture), 0o644))

	log, err := LoadLog(path)
	require.NoError(t, err)
	assert.Len(t, log.Log, 4)

	_, err = LoadLog(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
