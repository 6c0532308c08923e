// Package format renders a reconstruction snapshot to a self-contained
// summary HTML document. It consumes the final snapshot only; no
// propagation logic lives here.
package format

import (
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"

	"github.com/AnotherSava/bga-tracker/internal/game"
)

// cardView is one rendered card cell.
type cardView struct {
	Name     string // display name, "" for hidden cards
	Age      int    // set for hidden cards
	Set      string // set label for hidden cards
	Revealed bool   // identity known to the opponent
}

// sectionView is one labeled list of cards.
type sectionView struct {
	Title string
	Cards []cardView
	Empty bool
}

// deckView is one age of a draw stack.
type deckView struct {
	Age     string
	Base    []cardView
	Cities  []cardView
	Visible bool
}

type pageView struct {
	Title        string
	Sections     []sectionView
	Decks        []deckView
	Achievements []cardView
}

// Summary renders the snapshot as a summary HTML page from the
// perspective player's point of view.
func Summary(snap *game.Snapshot, perspective, tableID string) (string, error) {
	opponent := otherPlayer(snap, perspective)

	page := pageView{
		Title: fmt.Sprintf("Innovation %s — %s vs %s", tableID, perspective, opponent),
		Sections: []sectionView{
			zoneSection(fmt.Sprintf("%s's hand", opponent), snap.Hand[opponent]),
			zoneSection("My hand", snap.Hand[perspective]),
			zoneSection(fmt.Sprintf("%s's score pile", opponent), snap.Score[opponent]),
			zoneSection("My score pile", snap.Score[perspective]),
			zoneSection(fmt.Sprintf("%s's board", opponent), snap.Board[opponent]),
			zoneSection("My board", snap.Board[perspective]),
		},
		Decks:        deckViews(snap),
		Achievements: achievementViews(snap),
	}

	var sb strings.Builder
	if err := summaryTemplate.Execute(&sb, page); err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}
	return sb.String(), nil
}

func otherPlayer(snap *game.Snapshot, perspective string) string {
	names := make([]string, 0, len(snap.Hand))
	for name := range snap.Hand {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name != perspective {
			return name
		}
	}
	return ""
}

func zoneSection(title string, entries []any) sectionView {
	cards := make([]cardView, 0, len(entries))
	for _, entry := range entries {
		cards = append(cards, entryView(entry))
	}
	return sectionView{Title: title, Cards: cards, Empty: len(cards) == 0}
}

func entryView(entry any) cardView {
	switch e := entry.(type) {
	case *game.NamedEntry:
		return cardView{Name: e.Name, Revealed: e.Revealed}
	case *game.BoardEntry:
		return cardView{Name: e.Name, Revealed: true}
	case *game.HiddenEntry:
		return cardView{Age: e.Age, Set: setLabel(e.Set)}
	default:
		return cardView{}
	}
}

func setLabel(code int) string {
	if code == 3 {
		return "cities"
	}
	return "base"
}

func deckViews(snap *game.Snapshot) []deckView {
	views := make([]deckView, 0, 10)
	for age := 1; age <= 10; age++ {
		ageKey := strconv.Itoa(age)
		stacks, ok := snap.Decks[ageKey]
		view := deckView{Age: ageKey, Visible: ok}
		if ok {
			view.Base = deckCards(stacks["base"], age, "base")
			view.Cities = deckCards(stacks["cities"], age, "cities")
		}
		views = append(views, view)
	}
	return views
}

func deckCards(entries []*game.NamedEntry, age int, label string) []cardView {
	cards := make([]cardView, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			cards = append(cards, cardView{Age: age, Set: label})
			continue
		}
		cards = append(cards, cardView{Name: entry.Name, Revealed: entry.Revealed})
	}
	return cards
}

func achievementViews(snap *game.Snapshot) []cardView {
	cards := make([]cardView, 0, len(snap.Achievements))
	for i, entry := range snap.Achievements {
		if entry == nil {
			cards = append(cards, cardView{Age: i + 1, Set: "base"})
			continue
		}
		cards = append(cards, cardView{Name: entry.Name, Age: i + 1})
	}
	return cards
}

var summaryTemplate = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; background: #1e1e24; color: #e8e8e8; margin: 1.5em; }
h1 { font-size: 1.3em; }
h2 { font-size: 1em; margin: 1em 0 0.3em; color: #c9c9d4; }
.cards { display: flex; flex-wrap: wrap; gap: 0.4em; }
.card { border: 1px solid #555; border-radius: 4px; padding: 0.3em 0.6em; background: #2b2b33; }
.card.hidden { border-style: dashed; color: #9a9aa6; }
.card.revealed { border-color: #6fa86f; }
.empty { color: #777; font-style: italic; }
.deck { margin: 0.4em 0; }
.deck-age { display: inline-block; width: 2.5em; color: #c9c9d4; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Sections}}<h2>{{.Title}}</h2>
{{if .Empty}}<div class="empty">empty</div>{{else}}<div class="cards">
{{range .Cards}}{{if .Name}}<span class="card{{if .Revealed}} revealed{{end}}">{{.Name}}</span>
{{else}}<span class="card hidden">[{{.Age}}] {{.Set}}</span>
{{end}}{{end}}</div>{{end}}
{{end}}
<h2>Achievements</h2>
<div class="cards">
{{range .Achievements}}{{if .Name}}<span class="card revealed">{{.Age}}: {{.Name}}</span>
{{else}}<span class="card hidden">{{.Age}}: ?</span>
{{end}}{{end}}</div>
<h2>Draw stacks</h2>
{{range .Decks}}{{if .Visible}}<div class="deck"><span class="deck-age">[{{.Age}}]</span>
<span class="cards">
{{range .Base}}{{if .Name}}<span class="card{{if .Revealed}} revealed{{end}}">{{.Name}}</span>{{else}}<span class="card hidden">?</span>{{end}}
{{end}}{{range .Cities}}{{if .Name}}<span class="card{{if .Revealed}} revealed{{end}}">{{.Name}} (c)</span>{{else}}<span class="card hidden">? (c)</span>{{end}}
{{end}}</span></div>
{{end}}{{end}}
</body>
</html>
`))
