package cards

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog looks up card definitions by identifier. Lookup must be a pure
// function of the ID.
type Catalog interface {
	Lookup(id string) (Card, bool)
}

// Resolve returns the definition for id, or the Unknown sentinel when the
// catalog cannot resolve it.
func Resolve(c Catalog, id string) Card {
	if c != nil && id != "" {
		if card, ok := c.Lookup(id); ok {
			return card
		}
	}
	return Unknown(id)
}

// Table is a static, pre-loaded catalog.
type Table map[string]Card

func (t Table) Lookup(id string) (Card, bool) {
	c, ok := t[id]
	return c, ok
}

// IDs returns the table keys in sorted order.
func (t Table) IDs() []string {
	out := make([]string, 0, len(t))
	for id := range t {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Chain consults each catalog in order and returns the first hit.
type Chain []Catalog

func (ch Chain) Lookup(id string) (Card, bool) {
	for _, c := range ch {
		if c == nil {
			continue
		}
		if card, ok := c.Lookup(id); ok {
			return card, true
		}
	}
	return Card{}, false
}

// File is the on-disk layout of a card data file: attacks grouped by weapon
// family and a flat list of actions.
type File struct {
	Attacks map[string][]Card `yaml:"attacks"`
	Actions []Card            `yaml:"actions"`
}

// LoadTable reads a card data file into a Table.
func LoadTable(path string) (Table, error) {
	cleanPath := filepath.Clean(path)
	b, err := os.ReadFile(cleanPath) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, err
	}
	return ParseTable(b)
}

// ParseTable decodes card data from YAML. Attack and action kinds are
// implied by the section a card appears in.
func ParseTable(b []byte) (Table, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode cards: %w", err)
	}
	t := Table{}
	for weapon, list := range f.Attacks {
		for _, c := range list {
			if c.ID == "" {
				return nil, fmt.Errorf("attack card without id in %q", weapon)
			}
			c.Kind = KindAttack
			if err := add(t, c); err != nil {
				return nil, err
			}
		}
	}
	for _, c := range f.Actions {
		if c.ID == "" {
			return nil, fmt.Errorf("action card without id")
		}
		c.Kind = KindAction
		if err := add(t, c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func add(t Table, c Card) error {
	if _, dup := t[c.ID]; dup {
		return fmt.Errorf("duplicate card id %q", c.ID)
	}
	if c.FocusCost < 0 {
		return fmt.Errorf("card %q: negative focus cost", c.ID)
	}
	t[c.ID] = c
	return nil
}
