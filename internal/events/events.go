// Package events defines the normalized game log contract between the
// platform log normalization stage and the event interpreter, and
// implements the normalization of raw platform notification packets.
package events

import (
	"encoding/json"
	"fmt"
	"os"
)

// Kind tags the shape of one normalized log entry.
type Kind string

const (
	// KindTransfer is a card movement between two zones.
	KindTransfer Kind = "transfer"
	// KindHandReveal is a simultaneous disclosure of a player's hand.
	KindHandReveal Kind = "reveal_hand"
	// KindLog is plain commentary carried for display but not
	// interpreted.
	KindLog Kind = "log"
)

// Entry is one normalized log event. Transfer entries carry the zone
// and owner fields plus either a card name or an (age, set label)
// pair; hand-reveal entries carry the player and the ordered card
// names disclosed together.
type Entry struct {
	Move int  `json:"move"`
	Type Kind `json:"type"`

	// Transfer fields.
	CardSet     string `json:"card_set,omitempty"`
	Source      string `json:"source,omitempty"`
	Dest        string `json:"dest,omitempty"`
	CardName    string `json:"card_name,omitempty"`
	CardAge     int    `json:"card_age,omitempty"`
	SourceOwner string `json:"source_owner,omitempty"`
	DestOwner   string `json:"dest_owner,omitempty"`

	// Hand-reveal fields.
	Player    string   `json:"player,omitempty"`
	CardNames []string `json:"card_names,omitempty"`

	// Commentary.
	Msg string `json:"msg,omitempty"`
}

// Named reports whether a transfer entry discloses the card identity.
func (e Entry) Named() bool {
	return e.CardName != ""
}

// Log is an ordered normalized game log plus the player roster.
type Log struct {
	Players map[string]string `json:"players"`
	Log     []Entry           `json:"log"`
}

// ParseLog decodes a structured game log from JSON.
func ParseLog(data []byte) (*Log, error) {
	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("parse game log: %w", err)
	}
	return &log, nil
}

// LoadLog reads and decodes a structured game log file.
func LoadLog(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read game log: %w", err)
	}
	return ParseLog(data)
}
