// Package game implements the hidden-state store for a two-player
// Innovation match: zone containers, the single move mutation, and
// constraint propagation over identity groups.
package game

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/AnotherSava/bga-tracker/internal/card"
)

// Error classes for the store's local consistency checks. All three are
// fatal: reconstruction correctness depends on every event being sound,
// so any anomaly invalidates the whole run.
var (
	// ErrEmptyDeck is returned when a draw targets an exhausted stack.
	ErrEmptyDeck = errors.New("draw from empty deck")
	// ErrInconsistentSource is returned when a source zone does not
	// contain exactly one card admitting the requested identity.
	ErrInconsistentSource = errors.New("inconsistent source lookup")
	// ErrUnknownZone is returned for a zone type the store does not own.
	ErrUnknownZone = errors.New("unknown zone type")
	// ErrUnknownCard is returned for a card name missing from the
	// database.
	ErrUnknownCard = errors.New("unknown card name")
)

// Action is the uniform representation of one requested card movement.
// A named action carries CardName; a hidden action carries the group
// key instead. Actions are transient commands, not persisted state.
type Action struct {
	Source ZoneType
	Dest   ZoneType

	// CardName is the lowercase index name for named actions, "" for
	// hidden actions.
	CardName string
	// Group is the (age, set) key for hidden actions; ignored when
	// CardName is set.
	Group card.GroupKey

	SourcePlayer string
	DestPlayer   string
}

// State tracks the complete observable state of an Innovation game:
// card locations (decks, hands, boards, scores, achievements) as owned
// collections of cards, with constraint propagation to narrow down
// unknown card identities.
type State struct {
	db          *card.Database
	players     []string
	perspective string
	logger      *zap.Logger

	decks    map[card.GroupKey]*pile
	hands    map[string]*pile
	boards   map[string]*pile
	scores   map[string]*pile
	revealed map[string]*pile

	// achievements holds the 9 face-down achievement cards (ages 1-9),
	// populated at setup and immutable thereafter.
	achievements []*card.Card

	// groups registers every card by its (age, set) key for the life of
	// the game; this is the scope of constraint propagation.
	groups map[card.GroupKey][]*card.Card
}

// NewState creates an empty game state for the given roster. The
// perspective player is the one whose hidden cards the opponent
// knowledge model describes.
func NewState(db *card.Database, players []string, perspective string, logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &State{
		db:          db,
		players:     players,
		perspective: perspective,
		logger:      logger,
		decks:       make(map[card.GroupKey]*pile),
		hands:       make(map[string]*pile),
		boards:      make(map[string]*pile),
		scores:      make(map[string]*pile),
		revealed:    make(map[string]*pile),
		groups:      make(map[card.GroupKey][]*card.Card),
	}
	for _, p := range players {
		s.hands[p] = &pile{}
		s.boards[p] = &pile{}
		s.scores[p] = &pile{}
		s.revealed[p] = &pile{}
	}
	return s
}

// Players returns the roster in seating order.
func (s *State) Players() []string {
	return s.players
}

// Perspective returns the player whose first-person view is tracked.
func (s *State) Perspective() string {
	return s.perspective
}

// Setup creates every physical card once (all candidates open), moves
// one card per base age 1-9 to the achievement slots, and deals the
// opening two base age-1 cards to each player.
func (s *State) Setup() error {
	for key, names := range s.db.Groups() {
		stack := &pile{}
		for range names {
			c := card.New(key.Age, key.Set, names)
			s.groups[key] = append(s.groups[key], c)
			stack.push(c)
		}
		s.decks[key] = stack
	}

	for age := 1; age <= 9; age++ {
		deck, ok := s.decks[card.GroupKey{Age: age, Set: card.SetBase}]
		if !ok {
			return fmt.Errorf("setup: no base deck for age %d", age)
		}
		c, ok := deck.popBottom()
		if !ok {
			return fmt.Errorf("setup: %w: base age %d", ErrEmptyDeck, age)
		}
		s.achievements = append(s.achievements, c)
	}

	openingDeck := s.decks[card.GroupKey{Age: 1, Set: card.SetBase}]
	for _, p := range s.players {
		for i := 0; i < 2; i++ {
			c, ok := openingDeck.popBottom()
			if !ok {
				return fmt.Errorf("setup: %w: base age 1 opening deal", ErrEmptyDeck)
			}
			s.hands[p].push(c)
		}
	}

	s.logger.Debug("game state initialized",
		zap.Int("cards", s.db.Len()),
		zap.Strings("players", s.players),
	)
	return nil
}

// zoneAt returns the pile for a zone type and owner.
func (s *State) zoneAt(t ZoneType, player string, key card.GroupKey) (*pile, error) {
	switch t {
	case ZoneDeck:
		stack, ok := s.decks[key]
		if !ok {
			return nil, fmt.Errorf("%w: no deck for group %s", ErrUnknownZone, key)
		}
		return stack, nil
	case ZoneHand:
		if p, ok := s.hands[player]; ok {
			return p, nil
		}
	case ZoneBoard:
		if p, ok := s.boards[player]; ok {
			return p, nil
		}
	case ZoneScore:
		if p, ok := s.scores[player]; ok {
			return p, nil
		}
	case ZoneRevealed:
		if p, ok := s.revealed[player]; ok {
			return p, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, t)
	}
	return nil, fmt.Errorf("%w: %s zone of unknown player %q", ErrUnknownZone, t, player)
}

// Move applies one card movement: locate the card at the source,
// resolve its identity when named, account for observer and opponent
// ambiguity, and place it at the destination.
func (s *State) Move(a Action) error {
	key := a.Group
	if a.CardName != "" {
		info, ok := s.db.Get(a.CardName)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCard, a.CardName)
		}
		key = info.GroupKey()
	}

	c, err := s.takeFromSource(a, key)
	if err != nil {
		return err
	}

	dest, err := s.zoneAt(a.Dest, a.DestPlayer, key)
	if err != nil {
		return err
	}
	dest.push(c)

	if err := s.updateOpponentKnowledge(c, a); err != nil {
		return err
	}

	s.logger.Debug("applied move",
		zap.String("card", c.String()),
		zap.String("card_id", c.ID.String()),
		zap.String("source", string(a.Source)),
		zap.String("dest", string(a.Dest)),
		zap.String("source_player", a.SourcePlayer),
		zap.String("dest_player", a.DestPlayer),
	)
	return nil
}

// takeFromSource finds the moved card, resolves it for named actions,
// removes it from the source pile, and applies the ambiguity and
// suspect merges.
func (s *State) takeFromSource(a Action, key card.GroupKey) (*card.Card, error) {
	source, err := s.zoneAt(a.Source, a.SourcePlayer, key)
	if err != nil {
		return nil, err
	}

	var c *card.Card
	if a.Source == ZoneDeck {
		top, ok := source.top()
		if !ok {
			return nil, fmt.Errorf("%w: group %s", ErrEmptyDeck, key)
		}
		c = top
	} else if a.CardName != "" {
		matches := make([]*card.Card, 0, 1)
		for _, sc := range source.cards {
			if sc.HasCandidate(a.CardName) {
				matches = append(matches, sc)
			}
		}
		if len(matches) != 1 {
			return nil, fmt.Errorf("%w: %d cards in %s %s could be %q",
				ErrInconsistentSource, len(matches), a.SourcePlayer, a.Source, a.CardName)
		}
		c = matches[0]
	} else {
		members := source.groupMembers(key)
		if len(members) == 0 {
			return nil, fmt.Errorf("%w: no %s card in %s %s",
				ErrInconsistentSource, key, a.SourcePlayer, a.Source)
		}
		// Unnamed siblings are indistinguishable, any pick is sound.
		c = members[0]
	}

	if a.CardName != "" && !c.Resolved() {
		c.Resolve(a.CardName)
		s.propagate(key)
	}

	source.remove(c)

	// Hidden action from a private zone: the observer can't tell which
	// card moved, so the mover stays confusable with its siblings.
	if a.CardName == "" && privateZone(a.Source) {
		s.mergeCandidates(c, source.groupMembers(key))
	}

	s.mergeSuspects(c, source.groupMembers(key), a)

	return c, nil
}

// mergeCandidates gives the moved card and every remaining same-group
// card at the source the union of all their candidate sets.
func (s *State) mergeCandidates(moved *card.Card, remaining []*card.Card) {
	affected := append([]*card.Card{moved}, remaining...)
	if len(affected) <= 1 {
		return
	}
	union := make(map[string]bool)
	for _, c := range affected {
		for name := range c.Candidates {
			union[name] = true
		}
	}
	for _, c := range affected {
		c.Candidates = copySet(union)
	}
}

// mergeSuspects merges opponent suspect lists when the opponent cannot
// tell which of our cards moved: the moved card and the remaining
// same-group cards at the source all lose per-card certainty and
// inherit the union of their suspect lists.
func (s *State) mergeSuspects(moved *card.Card, remaining []*card.Card, a Action) {
	// Only relevant when a perspective-holder card moves between
	// private-or-deck zones; anything else is visible to the opponent.
	if !privateZone(a.Source) || a.SourcePlayer != s.perspective {
		return
	}
	if a.Dest != ZoneDeck && a.Dest != ZoneHand && a.Dest != ZoneScore {
		return
	}
	if a.DestPlayer != "" && a.DestPlayer != s.perspective {
		return
	}

	affected := append([]*card.Card{moved}, remaining...)
	if len(affected) == 1 {
		return
	}

	union := make(map[string]bool)
	for _, c := range affected {
		for name := range c.OpponentMightSuspect {
			union[name] = true
		}
	}

	// The merged list is closed only if every contributor was closed;
	// one still-open contributor leaves the result open.
	allExplicit := true
	for _, c := range affected {
		if !c.SuspectListExplicit {
			allExplicit = false
			break
		}
	}

	for _, c := range affected {
		c.OpponentKnowsExact = false
		c.OpponentMightSuspect = copySet(union)
		c.SuspectListExplicit = allExplicit
	}
}

// updateOpponentKnowledge adjusts the opponent knowledge flags after
// the card has reached its destination.
func (s *State) updateOpponentKnowledge(c *card.Card, a Action) error {
	visibleToBoth := a.Dest == ZoneBoard || a.Dest == ZoneRevealed ||
		(a.SourcePlayer != "" && a.DestPlayer != "" && a.SourcePlayer != a.DestPlayer)
	if visibleToBoth {
		if !c.Resolved() {
			return fmt.Errorf("%w: unresolved card moved to public zone %s",
				ErrInconsistentSource, a.Dest)
		}
		c.MarkPublic()
		return nil
	}

	// The opponent fully knows cards in their own private zones; the
	// suspect fields stay reserved for perspective-holder cards.
	if privateZone(a.Dest) && a.DestPlayer != s.perspective {
		c.OpponentKnowsExact = true
	}
	return nil
}

// RevealHand handles a simultaneous hand reveal: each named card is
// resolved and marked public in place, with propagation per card.
// The fixed point is order-independent, so per-card propagation and a
// single batch propagation are equivalent.
func (s *State) RevealHand(player string, names []string) error {
	hand, ok := s.hands[player]
	if !ok {
		return fmt.Errorf("%w: hand of unknown player %q", ErrUnknownZone, player)
	}

	for _, name := range names {
		info, ok := s.db.Get(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCard, name)
		}

		var found *card.Card
		for _, c := range hand.cards {
			if c.HasCandidate(name) {
				found = c
				break
			}
		}
		if found == nil {
			return fmt.Errorf("%w: no card in %s hand could be %q",
				ErrInconsistentSource, player, name)
		}

		found.Resolve(name)
		found.MarkPublic()
		s.propagate(info.GroupKey())
	}

	s.logger.Debug("hand revealed",
		zap.String("player", player),
		zap.Strings("cards", names),
	)
	return nil
}

func copySet(src map[string]bool) map[string]bool {
	dst := make(map[string]bool, len(src))
	for name := range src {
		dst[name] = true
	}
	return dst
}
