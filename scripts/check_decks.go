// check_decks lists every deck card of every fight and fails if any of them
// does not resolve through the card table or the ID parser.
// Usage: go run scripts/check_decks.go [cards.yaml] [fights.yaml]
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/mattn/go-runewidth"

	"cardquest/internal/cards"
	"cardquest/internal/combat"
)

func main() {
	code := run()
	if code != 0 {
		os.Exit(code)
	}
}

func run() int {
	cardsPath, fightsPath := "content/cards.yaml", "content/fights.yaml"
	switch len(os.Args) {
	case 1:
	case 3:
		cardsPath, fightsPath = os.Args[1], os.Args[2]
	default:
		fmt.Fprintf(os.Stderr, "usage: go run scripts/check_decks.go [cards.yaml fights.yaml]\n")
		return 1
	}

	table, err := cards.LoadTable(cardsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", cardsPath, err)
		return 1
	}
	fights, err := combat.LoadFights(fightsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", fightsPath, err)
		return 1
	}
	catalog := cards.Chain{table, cards.Parser{}}

	ids := make([]string, 0, len(fights))
	for id := range fights {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	unknown := 0
	for _, id := range ids {
		f := fights[id]
		fmt.Printf("%s (%s)\n", id, f.Enemy.Name)
		decks := []struct {
			label string
			ids   []string
		}{
			{"player attack", f.Player.AttackDeck},
			{"player action", f.Player.ActionDeck},
			{"enemy attack", f.Enemy.AttackDeck},
			{"enemy action", f.Enemy.ActionDeck},
		}
		for _, d := range decks {
			for _, cardID := range d.ids {
				c := cards.Resolve(catalog, cardID)
				mark := ""
				if c.IsUnknown() {
					mark = "  UNKNOWN"
					unknown++
				}
				fmt.Printf("  %s %s %d%s\n",
					runewidth.FillRight(d.label, 14),
					runewidth.FillRight(runewidth.Truncate(c.Name, 24, "…"), 24),
					c.FocusCost, mark)
			}
		}
	}
	if unknown > 0 {
		fmt.Fprintf(os.Stderr, "%d unknown card(s)\n", unknown)
		return 1
	}
	return 0
}
