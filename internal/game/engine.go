package game

import (
	"errors"
	"fmt"

	"cardquest/internal/combat"
)

var (
	ErrUnknownNode  = errors.New("unknown node")
	ErrUnknownStory = errors.New("unknown story")
	ErrUnknownFight = errors.New("unknown fight")
)

// Engine walks players through stories and hands fights over to the
// combat engine.
type Engine struct {
	Stories map[string]*Story
	Fights  map[string]*combat.FightConfig
}

type StepResult struct {
	State        PlayerState
	LastRoll     *int
	LastOutcome  *string // "success"/"failure"
	Fight        string  // set when the choice started a fight
	ErrorMessage string
}

func NewPlayer(start string) PlayerState {
	return PlayerState{
		NodeID: start,
		Stats: Stats{
			Strength: 7,
			Luck:     7,
			Health:   12,
		},
		Flags: map[string]bool{},
	}
}

// Begin creates a player at the start of storyID.
func (e *Engine) Begin(storyID, name string, stats Stats) (PlayerState, error) {
	s := e.Stories[storyID]
	if s == nil {
		return PlayerState{}, fmt.Errorf("%w: %s", ErrUnknownStory, storyID)
	}
	st := NewPlayer(s.Start)
	st.StoryID = storyID
	st.Name = name
	st.Stats = stats
	return e.enter(st, s.Start), nil
}

func (e *Engine) story(st PlayerState) (*Story, error) {
	if s := e.Stories[st.StoryID]; s != nil {
		return s, nil
	}
	// single-story engines accept players without a story ID
	if st.StoryID == "" && len(e.Stories) == 1 {
		for _, s := range e.Stories {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStory, st.StoryID)
}

func (e *Engine) CurrentNode(st PlayerState) (*Node, error) {
	s, err := e.story(st)
	if err != nil {
		return nil, err
	}
	n := s.Nodes[st.NodeID]
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, st.NodeID)
	}
	return n, nil
}

// Choices returns the choices at the current node the player may take.
func (e *Engine) Choices(st PlayerState) []Choice {
	n, err := e.CurrentNode(st)
	if err != nil {
		return nil
	}
	var out []Choice
	for _, ch := range n.Choices {
		if ch.Requires == "" || st.Flags[ch.Requires] || st.Has(ch.Requires) {
			out = append(out, ch)
		}
	}
	return out
}

// FightConfig returns the registered configuration for id.
func (e *Engine) FightConfig(id string) (combat.FightConfig, error) {
	f := e.Fights[id]
	if f == nil {
		return combat.FightConfig{}, fmt.Errorf("%w: %s", ErrUnknownFight, id)
	}
	return *f, nil
}

func (e *Engine) ApplyChoice(st PlayerState, choiceKey string) (StepResult, error) {
	if st.InFight() {
		return StepResult{State: st, ErrorMessage: "Finish the fight first."}, nil
	}
	if _, err := e.CurrentNode(st); err != nil {
		return StepResult{}, err
	}

	var ch *Choice
	for _, c := range e.Choices(st) {
		if c.Key == choiceKey {
			ch = &c
			break
		}
	}
	if ch == nil {
		return StepResult{State: st, ErrorMessage: "That choice doesn't exist."}, nil
	}

	st = applyEffects(st, ch.Effects)

	if ch.Fight != "" {
		f, err := e.FightConfig(ch.Fight)
		if err != nil {
			return StepResult{}, err
		}
		st.Fight = ch.Fight
		st.Journal = append(st.Journal, fmt.Sprintf("Fought %s.", f.Enemy.Name))
		return StepResult{State: st, Fight: ch.Fight}, nil
	}

	var lastRoll *int
	var lastOutcome *string

	next := ch.Next
	if ch.Check != nil {
		roll := roll2d6()
		lastRoll = &roll

		ok, err := checkRoll(st, *ch.Check, roll)
		if err != nil {
			return StepResult{State: st, ErrorMessage: err.Error()}, nil
		}
		out := "failure"
		if ok {
			out = "success"
		}
		lastOutcome = &out

		if ok && ch.OnSuccessNext != "" {
			next = ch.OnSuccessNext
		}
		if !ok && ch.OnFailureNext != "" {
			next = ch.OnFailureNext
		}
	}

	if next == "" {
		return StepResult{State: st, ErrorMessage: "No destination for that choice."}, nil
	}

	return StepResult{State: e.enter(st, next), LastRoll: lastRoll, LastOutcome: lastOutcome}, nil
}

// CheckFights reports fight choices naming unregistered fights and fights
// whose result scenes are missing from the stories that use them.
func (e *Engine) CheckFights() error {
	for _, storyID := range StoryIDs(e.Stories) {
		s := e.Stories[storyID]
		for nodeID, n := range s.Nodes {
			for _, ch := range n.Choices {
				if ch.Fight == "" {
					continue
				}
				f := e.Fights[ch.Fight]
				if f == nil {
					return fmt.Errorf("%w: %q from %s/%s/%s", ErrUnknownFight, ch.Fight, storyID, nodeID, ch.Key)
				}
				ret := f.ReturnSceneID
				if ret == "" {
					ret = combat.DefaultReturnScene
				}
				for _, scene := range []string{f.NextSceneID, ret} {
					if scene != "" && s.Nodes[scene] == nil {
						return fmt.Errorf("%w: %q after fight %s in %s", ErrUnknownNode, scene, ch.Fight, storyID)
					}
				}
			}
		}
	}
	return nil
}

// ResolveFight ends the player's current fight with res: rewards go to the
// inventory and the player moves to the scene res names. An empty scene
// leaves the player where the fight started.
func (e *Engine) ResolveFight(st PlayerState, res combat.Result) (PlayerState, error) {
	if !st.InFight() {
		return st, nil
	}
	s, err := e.story(st)
	if err != nil {
		return st, err
	}
	fight := st.Fight
	st.Fight = ""
	if st.Flags == nil {
		st.Flags = map[string]bool{}
	}

	switch res.Outcome {
	case combat.OutcomeVictory:
		st.Inventory = append(st.Inventory, res.Rewards...)
		st.Flags["won_"+fight] = true
		st.Journal = append(st.Journal, fmt.Sprintf("Won after %d turns.", res.Turns))
	case combat.OutcomeFled:
		st.Journal = append(st.Journal, "Ran away.")
	default:
		st.Journal = append(st.Journal, "Was defeated.")
	}

	if res.NextSceneID == "" {
		return st, nil
	}
	if s.Nodes[res.NextSceneID] == nil {
		return st, fmt.Errorf("%w: %s after fight %s", ErrUnknownNode, res.NextSceneID, fight)
	}
	return e.enter(st, res.NextSceneID), nil
}

// enter moves the player to id, applying the node's entry effects.
func (e *Engine) enter(st PlayerState, id string) PlayerState {
	st.NodeID = id
	if st.Flags == nil {
		st.Flags = map[string]bool{}
	}
	st.Visited = append(st.Visited, id)
	s, err := e.story(st)
	if err != nil {
		return st
	}
	dst := s.Nodes[id]
	if dst == nil {
		return st
	}
	if dst.Title != "" {
		st.Journal = append(st.Journal, dst.Title)
	}
	if len(dst.Effects) > 0 {
		st = applyEffects(st, dst.Effects)
	}
	return st
}

func checkRoll(st PlayerState, c Check, roll int) (bool, error) {
	if c.Roll != "2d6" || c.Target != "stat" {
		return false, fmt.Errorf("unsupported check: roll=%s target=%s", c.Roll, c.Target)
	}
	stat := getStat(st, c.Stat)
	return roll <= stat, nil
}

func getStat(st PlayerState, stat string) int {
	switch stat {
	case "strength":
		return st.Stats.Strength
	case "luck":
		return st.Stats.Luck
	case "health":
		return st.Stats.Health
	default:
		return 0
	}
}

func setStat(st *PlayerState, stat string, v int) {
	switch stat {
	case "strength":
		st.Stats.Strength = v
	case "luck":
		st.Stats.Luck = v
	case "health":
		st.Stats.Health = v
	}
}

func applyEffects(st PlayerState, effs []Effect) PlayerState {
	for _, ef := range effs {
		switch ef.Op {
		case "add":
			nv := getStat(st, ef.Stat) + ef.Value
			if ef.ClampMax != nil && nv > *ef.ClampMax {
				nv = *ef.ClampMax
			}
			if ef.ClampMin != nil && nv < *ef.ClampMin {
				nv = *ef.ClampMin
			}
			setStat(&st, ef.Stat, nv)
		case "flag":
			if st.Flags == nil {
				st.Flags = map[string]bool{}
			}
			st.Flags[ef.Flag] = true
		case "item":
			if !st.Has(ef.Item) {
				st.Inventory = append(st.Inventory, ef.Item)
			}
		}
	}
	return st
}
