package game

// Stats represents a character's core attributes.
type Stats struct {
	Strength int `json:"strength"`
	Luck     int `json:"luck"`
	Health   int `json:"health"`
}

// PlayerState tracks the current game state for a player: where they are,
// what they carry and which fight, if any, they are in.
type PlayerState struct {
	StoryID   string          `json:"story_id"`
	NodeID    string          `json:"node_id"`
	Name      string          `json:"name"`
	Stats     Stats           `json:"stats"`
	Flags     map[string]bool `json:"flags"`
	Inventory []string        `json:"inventory"`
	Journal   []string        `json:"journal"`
	Visited   []string        `json:"visited"`

	// Fight is the ID of the fight in progress, empty outside combat.
	Fight string `json:"fight,omitempty"`
}

// InFight reports whether the player is in combat.
func (st PlayerState) InFight() bool { return st.Fight != "" }

// Has reports whether the player carries item.
func (st PlayerState) Has(item string) bool {
	for _, it := range st.Inventory {
		if it == item {
			return true
		}
	}
	return false
}

// Story represents a complete adventure with nodes and choices.
type Story struct {
	Title string           `yaml:"title"`
	Start string           `yaml:"start"`
	Nodes map[string]*Node `yaml:"nodes"`
}

// Node represents a single location or scene in the adventure.
type Node struct {
	Title   string   `yaml:"title"`
	Text    string   `yaml:"text"`
	Scenery string   `yaml:"scenery"`
	Choices []Choice `yaml:"choices"`
	Effects []Effect `yaml:"effects"`
	Ending  bool     `yaml:"ending"`
}

// Choice represents a player action available at a node.
type Choice struct {
	Key           string   `yaml:"key"`
	Text          string   `yaml:"text"`
	Next          string   `yaml:"next"`
	Requires      string   `yaml:"requires"` // flag or item
	Check         *Check   `yaml:"check"`
	OnSuccessNext string   `yaml:"onSuccessNext"`
	OnFailureNext string   `yaml:"onFailureNext"`
	Effects       []Effect `yaml:"effects"`
	Fight         string   `yaml:"fight"` // fight ID; the fight result decides the next node
}

// Check defines a stat check that must be passed to proceed.
type Check struct {
	Stat   string `yaml:"stat"`   // "strength" | "luck"
	Roll   string `yaml:"roll"`   // "2d6"
	Target string `yaml:"target"` // "stat" (roll <= stat)
}

// Effect modifies player state when applied.
type Effect struct {
	Op       string `yaml:"op"`   // "add" | "flag" | "item"
	Stat     string `yaml:"stat"` // "health" | "strength" | "luck"
	Value    int    `yaml:"value"`
	Flag     string `yaml:"flag"`
	Item     string `yaml:"item"`
	ClampMax *int   `yaml:"clampMax"`
	ClampMin *int   `yaml:"clampMin"`
}
