package card

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// colorOrder is the board display ordering (BRGYP).
var colorOrder = map[string]int{
	"blue":   0,
	"red":    1,
	"green":  2,
	"yellow": 3,
	"purple": 4,
}

// Info holds the static metadata of one card in the database.
type Info struct {
	Name      string // display name as printed on the card
	IndexName string // lowercase lookup key
	Age       int
	Color     string
	Set       Set
}

// GroupKey returns the identity group the card belongs to.
func (i Info) GroupKey() GroupKey {
	return GroupKey{Age: i.Age, Set: i.Set}
}

// rawInfo matches one entry of the platform's cardinfo.json export.
// The array contains null placeholder entries and cards from sets this
// tracker does not cover; both are skipped during load.
type rawInfo struct {
	Name  string `json:"name"`
	Age   *int   `json:"age"`
	Color string `json:"color"`
	Set   *int   `json:"set"`
}

// Database is the static card database loaded from cardinfo.json,
// keyed by lowercase index name.
type Database struct {
	cards map[string]Info
}

// LoadDatabase reads cardinfo.json and returns the card database for
// the base and cities sets.
func LoadDatabase(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card database: %w", err)
	}
	return ParseDatabase(data)
}

// ParseDatabase builds a Database from raw cardinfo.json bytes.
func ParseDatabase(data []byte) (*Database, error) {
	var raw []*rawInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse card database: %w", err)
	}

	db := &Database{cards: make(map[string]Info)}
	for _, item := range raw {
		if item == nil || item.Age == nil || item.Color == "" {
			continue
		}
		if item.Set == nil {
			continue
		}
		set := Set(*item.Set)
		if set != SetBase && set != SetCities {
			continue
		}
		indexName := strings.ToLower(item.Name)
		db.cards[indexName] = Info{
			Name:      item.Name,
			IndexName: indexName,
			Age:       *item.Age,
			Color:     item.Color,
			Set:       set,
		}
	}
	if len(db.cards) == 0 {
		return nil, fmt.Errorf("card database is empty")
	}
	return db, nil
}

// Get returns the metadata for an index name.
func (db *Database) Get(indexName string) (Info, bool) {
	info, ok := db.cards[indexName]
	return info, ok
}

// Contains reports whether the index name exists in the database.
func (db *Database) Contains(indexName string) bool {
	_, ok := db.cards[indexName]
	return ok
}

// Len returns the number of cards in the database.
func (db *Database) Len() int {
	return len(db.cards)
}

// DisplayName returns the printed card name for an index name, or the
// index name itself when unknown.
func (db *Database) DisplayName(indexName string) string {
	if info, ok := db.cards[indexName]; ok {
		return info.Name
	}
	return indexName
}

// Groups returns every identity group with its sorted name universe.
func (db *Database) Groups() map[GroupKey][]string {
	groups := make(map[GroupKey][]string)
	for name, info := range db.cards {
		key := info.GroupKey()
		groups[key] = append(groups[key], name)
	}
	for key := range groups {
		sort.Strings(groups[key])
	}
	return groups
}

// GroupNames returns the sorted name universe of one group.
func (db *Database) GroupNames(key GroupKey) []string {
	var names []string
	for name, info := range db.cards {
		if info.GroupKey() == key {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SortLess orders two index names for display: by age, then board color
// order (BRGYP), then name.
func (db *Database) SortLess(a, b string) bool {
	ia, ib := db.cards[a], db.cards[b]
	if ia.Age != ib.Age {
		return ia.Age < ib.Age
	}
	ca, cb := colorRank(ia.Color), colorRank(ib.Color)
	if ca != cb {
		return ca < cb
	}
	return a < b
}

func colorRank(color string) int {
	if rank, ok := colorOrder[color]; ok {
		return rank
	}
	return 99
}
