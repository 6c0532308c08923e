package game

import "github.com/AnotherSava/bga-tracker/internal/card"

// ZoneType identifies a kind of card container.
type ZoneType string

const (
	// ZoneDeck is the shared draw stack of one (age, set) group.
	ZoneDeck ZoneType = "deck"
	// ZoneHand is a player's hand.
	ZoneHand ZoneType = "hand"
	// ZoneBoard is a player's board. Board cards are visible to both
	// players.
	ZoneBoard ZoneType = "board"
	// ZoneScore is a player's score pile.
	ZoneScore ZoneType = "score"
	// ZoneRevealed is the transient holding area for reveal-then-resolve
	// sequences. Revealed cards are visible to both players.
	ZoneRevealed ZoneType = "revealed"
)

// privateZone reports whether the zone hides card identities from the
// other player.
func privateZone(t ZoneType) bool {
	return t == ZoneHand || t == ZoneScore
}

// pile is an ordered owned collection of cards. Every card is in
// exactly one pile at any time; index 0 is the top of a draw stack.
type pile struct {
	cards []*card.Card
}

// push appends a card to the bottom of the pile.
func (p *pile) push(c *card.Card) {
	p.cards = append(p.cards, c)
}

// top returns the next card to draw without removing it.
func (p *pile) top() (*card.Card, bool) {
	if len(p.cards) == 0 {
		return nil, false
	}
	return p.cards[0], true
}

// popBottom removes and returns the last card. Used during setup,
// where all cards are equally unknown.
func (p *pile) popBottom() (*card.Card, bool) {
	if len(p.cards) == 0 {
		return nil, false
	}
	c := p.cards[len(p.cards)-1]
	p.cards = p.cards[:len(p.cards)-1]
	return c, true
}

// remove deletes the card from the pile, preserving order.
// Returns false if the card is not present.
func (p *pile) remove(c *card.Card) bool {
	for i, pc := range p.cards {
		if pc == c {
			p.cards = append(p.cards[:i], p.cards[i+1:]...)
			return true
		}
	}
	return false
}

// size returns the number of cards in the pile.
func (p *pile) size() int {
	return len(p.cards)
}

// groupMembers returns the cards in the pile belonging to the given
// identity group.
func (p *pile) groupMembers(key card.GroupKey) []*card.Card {
	var members []*card.Card
	for _, c := range p.cards {
		if c.GroupKey() == key {
			members = append(members, c)
		}
	}
	return members
}
