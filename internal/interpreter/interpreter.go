// Package interpreter translates normalized log events into game state
// mutations.
package interpreter

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/AnotherSava/bga-tracker/internal/card"
	"github.com/AnotherSava/bga-tracker/internal/events"
	"github.com/AnotherSava/bga-tracker/internal/game"
)

// ErrUnrecognizedEvent is returned for an event shape the interpreter
// cannot classify. Unrecognized events are fatal: an unaccounted-for
// move corrupts all downstream propagation.
var ErrUnrecognizedEvent = errors.New("unrecognized event")

// Interpreter feeds an ordered event stream into a game state, one
// mutation per event.
type Interpreter struct {
	state  *game.State
	db     *card.Database
	logger *zap.Logger
}

// New creates an interpreter bound to a game state.
func New(state *game.State, db *card.Database, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{state: state, db: db, logger: logger}
}

// Run applies every log entry in order, failing fast on the first
// anomaly. Partial state after a failed event is not meaningful.
func (it *Interpreter) Run(log *events.Log) error {
	for i, entry := range log.Log {
		if err := it.Apply(entry); err != nil {
			return fmt.Errorf("event %d (move %d): %w", i, entry.Move, err)
		}
	}
	it.logger.Info("game log applied", zap.Int("events", len(log.Log)))
	return nil
}

// Apply issues exactly one state mutation for a normalized event.
// Commentary entries and achievement-claim transfers are skipped: the
// store deduces achievements from unaccounted-for cards at snapshot
// time and does not need to be told.
func (it *Interpreter) Apply(e events.Entry) error {
	switch e.Type {
	case events.KindLog:
		return nil
	case events.KindHandReveal:
		return it.state.RevealHand(e.Player, e.CardNames)
	case events.KindTransfer:
		return it.applyTransfer(e)
	default:
		return fmt.Errorf("%w: kind %q", ErrUnrecognizedEvent, e.Type)
	}
}

func (it *Interpreter) applyTransfer(e events.Entry) error {
	if e.Source == "achievements" || e.Dest == "achievements" {
		it.logger.Debug("skipping achievement transfer", zap.Int("move", e.Move))
		return nil
	}

	source, err := zoneFromLabel(e.Source)
	if err != nil {
		return err
	}
	dest, err := zoneFromLabel(e.Dest)
	if err != nil {
		return err
	}

	action := game.Action{
		Source:       source,
		Dest:         dest,
		SourcePlayer: e.SourceOwner,
		DestPlayer:   e.DestOwner,
	}

	if e.Named() {
		name := strings.ToLower(e.CardName)
		if !it.db.Contains(name) {
			return fmt.Errorf("%w: unknown card %q", ErrUnrecognizedEvent, e.CardName)
		}
		action.CardName = name
	} else {
		set, ok := card.SetFromLabel(e.CardSet)
		if !ok {
			return fmt.Errorf("%w: set label %q", ErrUnrecognizedEvent, e.CardSet)
		}
		if e.CardAge < 1 || e.CardAge > 10 {
			return fmt.Errorf("%w: hidden transfer without a valid age (%d)",
				ErrUnrecognizedEvent, e.CardAge)
		}
		action.Group = card.GroupKey{Age: e.CardAge, Set: set}
	}

	return it.state.Move(action)
}

// zoneFromLabel maps a normalized zone label to a store zone type.
func zoneFromLabel(label string) (game.ZoneType, error) {
	switch label {
	case "deck":
		return game.ZoneDeck, nil
	case "hand":
		return game.ZoneHand, nil
	case "board":
		return game.ZoneBoard, nil
	case "score":
		return game.ZoneScore, nil
	case "revealed":
		return game.ZoneRevealed, nil
	default:
		return "", fmt.Errorf("%w: zone label %q", ErrUnrecognizedEvent, label)
	}
}
