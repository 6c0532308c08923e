package game

import (
	"sort"
	"strconv"

	"github.com/AnotherSava/bga-tracker/internal/card"
)

// NamedEntry is a snapshot entry for a card with a known identity.
type NamedEntry struct {
	Name     string `json:"name"`
	Revealed bool   `json:"revealed"`
}

// HiddenEntry is a snapshot entry for a card whose identity is still
// open; only the age and set are known.
type HiddenEntry struct {
	Age int `json:"age"`
	Set int `json:"set"`
}

// BoardEntry is a snapshot entry for a board card or a deduced
// achievement. Board cards carry no revealed flag: boards are public.
type BoardEntry struct {
	Name string `json:"name"`
}

// Snapshot is the final reconstruction output: the most precise
// picture of every zone obtainable from the processed log.
type Snapshot struct {
	// Decks maps age ("1".."10") to set label ("base"/"cities") to the
	// ordered stack, top first. A nil element is a position whose
	// identity is unknown.
	Decks map[string]map[string][]*NamedEntry `json:"actual_deck"`
	// Board, Hand and Score are keyed by player name. Entries are
	// *BoardEntry / *NamedEntry for known cards and *HiddenEntry for
	// unknown ones, known cards first.
	Board map[string][]any `json:"board"`
	Hand  map[string][]any `json:"hand"`
	Score map[string][]any `json:"score"`
	// Achievements holds one entry per age 1-9; nil when the card
	// could not be deduced.
	Achievements []*BoardEntry `json:"achievements"`
}

// Snapshot serializes the current state to the output contract.
// Achievements are a derived query: for each age, a base card that no
// zone accounts for must be the face-down achievement.
func (s *State) Snapshot() *Snapshot {
	snap := &Snapshot{
		Decks: make(map[string]map[string][]*NamedEntry),
		Board: make(map[string][]any),
		Hand:  make(map[string][]any),
		Score: make(map[string][]any),
	}

	for _, p := range s.players {
		snap.Board[p] = s.boardEntries(s.boards[p])
		snap.Hand[p] = s.privateEntries(s.hands[p])
		snap.Score[p] = s.privateEntries(s.scores[p])
	}

	keys := make([]card.GroupKey, 0, len(s.decks))
	for key := range s.decks {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Age != keys[j].Age {
			return keys[i].Age < keys[j].Age
		}
		return keys[i].Set < keys[j].Set
	})
	for _, key := range keys {
		stack := s.decks[key]
		if stack.size() == 0 {
			continue
		}
		ageKey := strconv.Itoa(key.Age)
		if snap.Decks[ageKey] == nil {
			snap.Decks[ageKey] = map[string][]*NamedEntry{
				card.SetBase.Label():   {},
				card.SetCities.Label(): {},
			}
		}
		entries := make([]*NamedEntry, 0, stack.size())
		for _, c := range stack.cards {
			if c.Resolved() {
				entries = append(entries, &NamedEntry{
					Name:     s.db.DisplayName(c.Name()),
					Revealed: c.OpponentKnowsExact,
				})
			} else {
				entries = append(entries, nil)
			}
		}
		snap.Decks[ageKey][key.Set.Label()] = entries
	}

	snap.Achievements = s.deduceAchievements()
	return snap
}

// boardEntries renders a board pile: resolved cards in display order,
// with any unresolved stragglers after them.
func (s *State) boardEntries(p *pile) []any {
	known, unknown := splitResolved(p)
	s.sortResolved(known)
	sortHidden(unknown)

	entries := make([]any, 0, p.size())
	for _, c := range known {
		entries = append(entries, &BoardEntry{Name: s.db.DisplayName(c.Name())})
	}
	for _, c := range unknown {
		entries = append(entries, &HiddenEntry{Age: c.Age, Set: int(c.Set)})
	}
	return entries
}

// privateEntries renders a hand or score pile: known cards first with
// their revealed-to-opponent flag, then unknowns by (age, set).
func (s *State) privateEntries(p *pile) []any {
	known, unknown := splitResolved(p)
	s.sortResolved(known)
	sortHidden(unknown)

	entries := make([]any, 0, p.size())
	for _, c := range known {
		entries = append(entries, &NamedEntry{
			Name:     s.db.DisplayName(c.Name()),
			Revealed: c.OpponentKnowsExact,
		})
	}
	for _, c := range unknown {
		entries = append(entries, &HiddenEntry{Age: c.Age, Set: int(c.Set)})
	}
	return entries
}

// deduceAchievements computes the 9 achievement slots from leftover
// information: for each base age 1-9, if exactly one card of that group
// has no resolved home anywhere, it must be the achievement.
func (s *State) deduceAchievements() []*BoardEntry {
	accounted := make(map[string]bool)
	collect := func(p *pile) {
		for _, c := range p.cards {
			if c.Resolved() {
				accounted[c.Name()] = true
			}
		}
	}
	for _, p := range s.players {
		collect(s.hands[p])
		collect(s.boards[p])
		collect(s.scores[p])
		collect(s.revealed[p])
	}
	for _, stack := range s.decks {
		collect(stack)
	}

	result := make([]*BoardEntry, 0, 9)
	for age := 1; age <= 9; age++ {
		var hidden []string
		for _, name := range s.db.GroupNames(card.GroupKey{Age: age, Set: card.SetBase}) {
			if !accounted[name] {
				hidden = append(hidden, name)
			}
		}
		if len(hidden) == 1 {
			result = append(result, &BoardEntry{Name: s.db.DisplayName(hidden[0])})
		} else {
			result = append(result, nil)
		}
	}
	return result
}

func splitResolved(p *pile) (known, unknown []*card.Card) {
	for _, c := range p.cards {
		if c.Resolved() {
			known = append(known, c)
		} else {
			unknown = append(unknown, c)
		}
	}
	return known, unknown
}

func (s *State) sortResolved(cards []*card.Card) {
	sort.Slice(cards, func(i, j int) bool {
		return s.db.SortLess(cards[i].Name(), cards[j].Name())
	})
}

func sortHidden(cards []*card.Card) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Age != cards[j].Age {
			return cards[i].Age < cards[j].Age
		}
		return cards[i].Set < cards[j].Set
	})
}
