// Package card defines the card identity model and the static card
// database for Innovation hidden-state tracking.
package card

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Set identifies the expansion a card belongs to, using the platform's
// integer set codes.
type Set int

const (
	// SetBase is the base game card set.
	SetBase Set = 0
	// SetCities is the Cities of Destiny expansion set.
	SetCities Set = 3
)

// Label returns the platform's textual label for the set.
func (s Set) Label() string {
	switch s {
	case SetBase:
		return "base"
	case SetCities:
		return "cities"
	default:
		return fmt.Sprintf("set(%d)", int(s))
	}
}

// SetFromLabel maps a textual set label back to its code.
func SetFromLabel(label string) (Set, bool) {
	switch label {
	case "base":
		return SetBase, true
	case "cities":
		return SetCities, true
	default:
		return 0, false
	}
}

// GroupKey identifies one identity group: all physical cards sharing an
// (age, set) pair. Groups are the unit of constraint propagation, since
// card names are only unique within a group.
type GroupKey struct {
	Age int
	Set Set
}

// String returns a compact "[age] label" form for logging.
func (k GroupKey) String() string {
	return fmt.Sprintf("[%d] %s", k.Age, k.Set.Label())
}

// Card represents one physical card instance with a set of possible
// identities (candidates).
//
// Age and set are always known from draw context even when the identity
// is hidden. Candidates narrows as information is revealed (anonymous
// moves can widen it again by merging with siblings); size 1 means the
// card is resolved. The three opponent fields track what the opponent
// can infer about this card.
type Card struct {
	ID  uuid.UUID
	Age int
	Set Set

	// Candidates holds the possible lowercase index names. Never empty.
	Candidates map[string]bool

	// OpponentKnowsExact is true when the opponent can name this card
	// with certainty.
	OpponentKnowsExact bool

	// OpponentMightSuspect holds names the opponent could associate
	// with this card. Empty means no information accumulated, not
	// "opponent knows it is none of these".
	OpponentMightSuspect map[string]bool

	// SuspectListExplicit is true when OpponentMightSuspect is a
	// closed, complete list rather than a lower bound still
	// accumulating.
	SuspectListExplicit bool
}

// New creates a card with the given candidate identities.
func New(age int, set Set, candidates []string) *Card {
	c := &Card{
		ID:                   uuid.New(),
		Age:                  age,
		Set:                  set,
		Candidates:           make(map[string]bool, len(candidates)),
		OpponentMightSuspect: make(map[string]bool),
	}
	for _, name := range candidates {
		c.Candidates[name] = true
	}
	return c
}

// GroupKey returns the identity group this card belongs to.
func (c *Card) GroupKey() GroupKey {
	return GroupKey{Age: c.Age, Set: c.Set}
}

// Resolved reports whether the card's identity is known.
func (c *Card) Resolved() bool {
	return len(c.Candidates) == 1
}

// Name returns the resolved index name, or "" for an unresolved card.
func (c *Card) Name() string {
	if !c.Resolved() {
		return ""
	}
	for name := range c.Candidates {
		return name
	}
	return ""
}

// HasCandidate reports whether name is still a possible identity.
func (c *Card) HasCandidate(name string) bool {
	return c.Candidates[name]
}

// Resolve collapses the candidate set to a single known identity.
func (c *Card) Resolve(name string) {
	c.Candidates = map[string]bool{name: true}
}

// RemoveCandidates removes the given names from the candidate set.
// Returns true if the set changed, for change detection in the
// propagation fixed-point loop.
func (c *Card) RemoveCandidates(names map[string]bool) bool {
	changed := false
	for name := range names {
		if c.Candidates[name] {
			delete(c.Candidates, name)
			changed = true
		}
	}
	return changed
}

// MarkPublic records that the card's identity became known to both
// players. The card must already be resolved: an undefined identity
// cannot be made public.
func (c *Card) MarkPublic() {
	if !c.Resolved() {
		panic("card: MarkPublic on unresolved card")
	}
	c.OpponentKnowsExact = true
	c.OpponentMightSuspect = map[string]bool{c.Name(): true}
	c.SuspectListExplicit = true
}

// CandidateNames returns the candidates in sorted order, for
// deterministic logging and snapshots.
func (c *Card) CandidateNames() []string {
	names := make([]string, 0, len(c.Candidates))
	for name := range c.Candidates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String renders the card for log output.
func (c *Card) String() string {
	if c.Resolved() {
		if c.OpponentKnowsExact {
			return fmt.Sprintf("Card(%s, age=%d, set=%d, opp_knows)", c.Name(), c.Age, int(c.Set))
		}
		return fmt.Sprintf("Card(%s, age=%d, set=%d)", c.Name(), c.Age, int(c.Set))
	}
	return fmt.Sprintf("Card(age=%d, set=%d, %d candidates)", c.Age, int(c.Set), len(c.Candidates))
}
