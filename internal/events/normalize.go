package events

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// iconMap converts platform icon span classes to bracketed text names.
var iconMap = map[string]string{
	"1": "crown",
	"2": "leaf",
	"3": "lightbulb",
	"4": "castle",
	"5": "factory",
	"6": "clock",
}

// setMap converts the raw notification set code to a set label. The
// notification code for cities (2) differs from the card database set
// code (3); both exist in the platform's exports.
var setMap = map[string]string{
	"0": "base",
	"2": "cities",
}

var (
	templateRe = regexp.MustCompile(`\$\{([^}]+)\}`)
	iconSpanRe = regexp.MustCompile(`<span[^>]*icon_(\d)[^>]*></span>`)
	ageSpanRe  = regexp.MustCompile(`<span[^>]*age[^>]*>(\d+)</span>`)
	htmlTagRe  = regexp.MustCompile(`<[^>]+>`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// RawHistory is the raw notification dump extracted from the platform:
// the player id to name map plus the ordered notification packets.
type RawHistory struct {
	Players map[string]string `json:"players"`
	Packets []rawPacket       `json:"packets"`
}

type rawPacket struct {
	MoveID flexString        `json:"move_id"`
	Data   []rawNotification `json:"data"`
}

type rawNotification struct {
	Type string          `json:"type"`
	Args json.RawMessage `json:"args"`
}

// transferArgs is the player-view payload of a transferedCard
// notification.
type transferArgs struct {
	LocationFrom string     `json:"location_from"`
	LocationTo   string     `json:"location_to"`
	Name         string     `json:"name"`
	Age          flexString `json:"age"`
	OwnerFrom    flexString `json:"owner_from"`
	OwnerTo      flexString `json:"owner_to"`
}

// spectatorTransferArgs is the spectator-view payload; its type field
// carries the raw set code.
type spectatorTransferArgs struct {
	Type flexString `json:"type"`
}

// flexString tolerates the platform's mixed use of JSON strings,
// numbers and nulls for the same fields.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	*f = flexString(s)
	return nil
}

func (f flexString) Int() (int, bool) {
	n, err := strconv.Atoi(string(f))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseRawHistory decodes a raw notification dump from JSON.
func ParseRawHistory(data []byte) (*RawHistory, error) {
	var raw RawHistory
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse raw history: %w", err)
	}
	return &raw, nil
}

// Normalize transforms raw platform packets into the structured log
// consumed by the interpreter. Spectator notifications give the
// canonical ordering; transfer details come from the matching
// player-view notification of the same move, paired in order. Reveal
// announcements in card-tooltip messages are parsed into structured
// hand-reveal entries here so that no free-text parsing reaches the
// core.
func Normalize(raw *RawHistory) (*Log, error) {
	out := &Log{Players: raw.Players, Log: []Entry{}}

	// Pass 1: collect player-view transfer payloads per move. A move
	// can span multiple packets (player-view plus spectator-view).
	playerTransfers := make(map[int][]transferArgs)
	for _, packet := range raw.Packets {
		move, ok := packet.MoveID.Int()
		if !ok {
			continue
		}
		for _, notif := range packet.Data {
			if notif.Type != "transferedCard" {
				continue
			}
			var args transferArgs
			if err := json.Unmarshal(notif.Args, &args); err != nil {
				return nil, fmt.Errorf("move %d: transferedCard args: %w", move, err)
			}
			playerTransfers[move] = append(playerTransfers[move], args)
		}
	}

	revealRe, err := revealPattern(raw.Players)
	if err != nil {
		return nil, err
	}

	// Pass 2: walk spectator notifications in packet order.
	consumed := make(map[int]int)
	for _, packet := range raw.Packets {
		move, ok := packet.MoveID.Int()
		if !ok {
			continue
		}
		for _, notif := range packet.Data {
			switch notif.Type {
			case "transferedCard_spectator":
				queue := playerTransfers[move]
				idx := consumed[move]
				if idx >= len(queue) {
					continue
				}
				consumed[move]++
				args := queue[idx]

				var spec spectatorTransferArgs
				if err := json.Unmarshal(notif.Args, &spec); err != nil {
					return nil, fmt.Errorf("move %d: spectator transfer args: %w", move, err)
				}
				label, ok := setMap[string(spec.Type)]
				if !ok {
					return nil, fmt.Errorf("move %d: unknown set code %q", move, spec.Type)
				}

				entry := Entry{
					Move:        move,
					Type:        KindTransfer,
					CardSet:     label,
					Source:      args.LocationFrom,
					Dest:        args.LocationTo,
					CardName:    normalizeHyphens(args.Name),
					SourceOwner: raw.Players[string(args.OwnerFrom)],
					DestOwner:   raw.Players[string(args.OwnerTo)],
				}
				if age, ok := args.Age.Int(); ok {
					entry.CardAge = age
				}
				out.Log = append(out.Log, entry)

			case "log_spectator", "logWithCardTooltips_spectator":
				var args map[string]any
				if err := json.Unmarshal(notif.Args, &args); err != nil {
					return nil, fmt.Errorf("move %d: log args: %w", move, err)
				}
				template, _ := args["log"].(string)
				if template == "" || template == "<!--empty-->" {
					continue
				}
				msg := cleanHTML(expandTemplate(template, args))

				if notif.Type == "logWithCardTooltips_spectator" {
					if entry, ok := parseHandReveal(revealRe, msg, move); ok {
						out.Log = append(out.Log, entry)
						continue
					}
				}
				out.Log = append(out.Log, Entry{Move: move, Type: KindLog, Msg: msg})
			}
		}
	}

	return out, nil
}

// expandTemplate resolves ${key} placeholders in a platform log
// template. Map values are recursive sub-templates with log and args
// keys, expanded and stripped of HTML.
func expandTemplate(template string, args map[string]any) string {
	return templateRe.ReplaceAllStringFunc(template, func(match string) string {
		key := match[2 : len(match)-1]
		val, ok := args[key]
		if !ok {
			return ""
		}
		if sub, ok := val.(map[string]any); ok {
			subLog, _ := sub["log"].(string)
			subArgs, _ := sub["args"].(map[string]any)
			expanded := expandTemplate(subLog, subArgs)
			return strings.TrimSpace(htmlTagRe.ReplaceAllString(expanded, ""))
		}
		return fmt.Sprint(val)
	})
}

// cleanHTML converts platform HTML log markup to plain text: icon
// spans become [name], age spans become [N], the rest is stripped and
// whitespace collapsed.
func cleanHTML(msg string) string {
	msg = iconSpanRe.ReplaceAllStringFunc(msg, func(match string) string {
		code := iconSpanRe.FindStringSubmatch(match)[1]
		if name, ok := iconMap[code]; ok {
			return "[" + name + "]"
		}
		return "[icon" + code + "]"
	})
	msg = ageSpanRe.ReplaceAllString(msg, "[$1]")
	msg = htmlTagRe.ReplaceAllString(msg, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(msg, " "))
}

// normalizeHyphens replaces U+2011 (non-breaking hyphen) with the
// ASCII hyphen used by the card database.
func normalizeHyphens(text string) string {
	return strings.ReplaceAll(text, "‑", "-")
}

// revealPattern builds the "reveals his hand" matcher for the roster.
func revealPattern(players map[string]string) (*regexp.Regexp, error) {
	names := make([]string, 0, len(players))
	for _, name := range players {
		names = append(names, regexp.QuoteMeta(name))
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("raw history has no players")
	}
	return regexp.Compile(`^(` + strings.Join(names, "|") + `) reveals his hand: (.+)\.$`)
}

// parseHandReveal converts a "X reveals his hand: 2 Construction, 2
// Philosophy." message into a structured hand-reveal entry.
func parseHandReveal(re *regexp.Regexp, msg string, move int) (Entry, bool) {
	m := re.FindStringSubmatch(msg)
	if m == nil {
		return Entry{}, false
	}
	parts := strings.Split(m[2], ", ")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		// Each part is "<age> <name>"; drop the age token.
		if idx := strings.Index(part, " "); idx >= 0 {
			part = part[idx+1:]
		}
		names = append(names, strings.ToLower(normalizeHyphens(part)))
	}
	return Entry{Move: move, Type: KindHandReveal, Player: m[1], CardNames: names}, true
}
