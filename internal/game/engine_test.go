package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardquest/internal/combat"
)

func testEngine() *Engine {
	maxHealth := 12
	story := &Story{
		Title: "Test",
		Start: "start",
		Nodes: map[string]*Node{
			"start": {
				Title: "The Gate",
				Text:  "Start here",
				Choices: []Choice{
					{Key: "next", Text: "Go next", Next: "end"},
					{Key: "heal", Text: "Rest", Next: "start", Effects: []Effect{
						{Op: "add", Stat: "health", Value: 2, ClampMax: &maxHealth},
					}},
					{Key: "hurt", Text: "Touch the thorns", Next: "thorns"},
					{Key: "try", Text: "Test your luck", Check: &Check{Stat: "luck", Roll: "2d6", Target: "stat"},
						OnSuccessNext: "end", OnFailureNext: "thorns"},
					{Key: "odd", Text: "Roll strangely", Next: "end", Check: &Check{Stat: "luck", Roll: "1d20", Target: "stat"}},
					{Key: "nowhere", Text: "Go nowhere"},
					{Key: "fight", Text: "Fight the goblin", Fight: "goblin"},
					{Key: "ghost", Text: "Fight a ghost", Fight: "ghost"},
					{Key: "door", Text: "Unlock the door", Next: "end", Requires: "key"},
					{Key: "search", Text: "Search", Next: "start", Effects: []Effect{
						{Op: "item", Item: "key"}, {Op: "flag", Flag: "searched"},
					}},
				},
			},
			"thorns": {
				Text: "Ouch",
				Effects: []Effect{
					{Op: "add", Stat: "health", Value: -3},
				},
			},
			"end":       {Title: "The End", Text: "The end", Ending: true},
			"game_over": {Text: "You died", Ending: true},
		},
	}
	return &Engine{
		Stories: map[string]*Story{"test": story},
		Fights: map[string]*combat.FightConfig{
			"goblin": {
				ID:          "goblin",
				Enemy:       combat.EnemyConfig{Name: "Goblin"},
				Rewards:     []string{"goblin_ear"},
				NextSceneID: "end",
			},
		},
	}
}

func newTestPlayer(t *testing.T, e *Engine) PlayerState {
	t.Helper()
	st, err := e.Begin("test", "Ash", Stats{Strength: 7, Luck: 7, Health: 10})
	require.NoError(t, err)
	return st
}

func TestNewPlayer(t *testing.T) {
	player := NewPlayer("test_node")

	assert.Equal(t, "test_node", player.NodeID)
	assert.Equal(t, Stats{Strength: 7, Luck: 7, Health: 12}, player.Stats)
	assert.NotNil(t, player.Flags)
	assert.False(t, player.InFight())
}

func TestBegin(t *testing.T) {
	e := testEngine()
	st := newTestPlayer(t, e)

	assert.Equal(t, "test", st.StoryID)
	assert.Equal(t, "start", st.NodeID)
	assert.Equal(t, "Ash", st.Name)
	assert.Equal(t, []string{"start"}, st.Visited)
	assert.Equal(t, []string{"The Gate"}, st.Journal)

	_, err := e.Begin("missing", "Ash", Stats{})
	assert.True(t, errors.Is(err, ErrUnknownStory))
}

func TestCurrentNode(t *testing.T) {
	e := testEngine()
	st := newTestPlayer(t, e)

	node, err := e.CurrentNode(st)
	require.NoError(t, err)
	assert.Equal(t, "Start here", node.Text)

	st.NodeID = "unknown"
	_, err = e.CurrentNode(st)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestCurrentNode_SingleStoryWithoutID(t *testing.T) {
	e := testEngine()
	node, err := e.CurrentNode(NewPlayer("end"))
	require.NoError(t, err)
	assert.True(t, node.Ending)
}

func TestApplyChoice_Simple(t *testing.T) {
	e := testEngine()
	result, err := e.ApplyChoice(newTestPlayer(t, e), "next")
	require.NoError(t, err)

	assert.Equal(t, "end", result.State.NodeID)
	assert.Empty(t, result.ErrorMessage)
	assert.Equal(t, []string{"start", "end"}, result.State.Visited)
}

func TestApplyChoice_WithEffects(t *testing.T) {
	e := testEngine()
	st := newTestPlayer(t, e)

	result, err := e.ApplyChoice(st, "heal")
	require.NoError(t, err)
	assert.Equal(t, 12, result.State.Stats.Health)

	result, err = e.ApplyChoice(result.State, "heal")
	require.NoError(t, err)
	assert.Equal(t, 12, result.State.Stats.Health, "clamped")
}

func TestApplyChoice_DestinationEffects(t *testing.T) {
	e := testEngine()
	result, err := e.ApplyChoice(newTestPlayer(t, e), "hurt")
	require.NoError(t, err)

	assert.Equal(t, "thorns", result.State.NodeID)
	assert.Equal(t, 7, result.State.Stats.Health)
}

func TestApplyChoice_WithCheck(t *testing.T) {
	e := testEngine()
	st := newTestPlayer(t, e)
	st.Stats.Luck = 12

	result, err := e.ApplyChoice(st, "try")
	require.NoError(t, err)
	require.NotNil(t, result.LastRoll)
	require.NotNil(t, result.LastOutcome)
	assert.GreaterOrEqual(t, *result.LastRoll, 2)
	assert.LessOrEqual(t, *result.LastRoll, 12)
	// 2d6 never exceeds 12
	assert.Equal(t, "success", *result.LastOutcome)
	assert.Equal(t, "end", result.State.NodeID)
}

func TestApplyChoice_UnsupportedCheck(t *testing.T) {
	e := testEngine()
	result, err := e.ApplyChoice(newTestPlayer(t, e), "odd")
	require.NoError(t, err)
	assert.Contains(t, result.ErrorMessage, "unsupported check")
	assert.Equal(t, "start", result.State.NodeID)
}

func TestApplyChoice_InvalidChoice(t *testing.T) {
	e := testEngine()
	st := newTestPlayer(t, e)

	result, err := e.ApplyChoice(st, "invalid")
	require.NoError(t, err)
	assert.Equal(t, "That choice doesn't exist.", result.ErrorMessage)
	assert.Equal(t, st.NodeID, result.State.NodeID)

	result, err = e.ApplyChoice(st, "nowhere")
	require.NoError(t, err)
	assert.Equal(t, "No destination for that choice.", result.ErrorMessage)
}

func TestApplyChoice_Requires(t *testing.T) {
	e := testEngine()
	st := newTestPlayer(t, e)

	result, err := e.ApplyChoice(st, "door")
	require.NoError(t, err)
	assert.NotEmpty(t, result.ErrorMessage)

	result, err = e.ApplyChoice(st, "search")
	require.NoError(t, err)
	assert.True(t, result.State.Has("key"))
	assert.True(t, result.State.Flags["searched"])

	result, err = e.ApplyChoice(result.State, "door")
	require.NoError(t, err)
	assert.Equal(t, "end", result.State.NodeID)
}

func TestApplyChoice_StartsFight(t *testing.T) {
	e := testEngine()
	st := newTestPlayer(t, e)

	result, err := e.ApplyChoice(st, "fight")
	require.NoError(t, err)
	assert.Equal(t, "goblin", result.Fight)
	assert.True(t, result.State.InFight())
	assert.Equal(t, "start", result.State.NodeID)

	blocked, err := e.ApplyChoice(result.State, "next")
	require.NoError(t, err)
	assert.Equal(t, "Finish the fight first.", blocked.ErrorMessage)

	_, err = e.ApplyChoice(st, "ghost")
	assert.ErrorIs(t, err, ErrUnknownFight)
}

func TestResolveFight(t *testing.T) {
	e := testEngine()

	t.Run("victory", func(t *testing.T) {
		res, err := e.ApplyChoice(newTestPlayer(t, e), "fight")
		require.NoError(t, err)

		st, err := e.ResolveFight(res.State, combat.Result{
			Outcome: combat.OutcomeVictory, Rewards: []string{"goblin_ear"}, NextSceneID: "end", Turns: 3,
		})
		require.NoError(t, err)
		assert.False(t, st.InFight())
		assert.Equal(t, "end", st.NodeID)
		assert.True(t, st.Has("goblin_ear"))
		assert.True(t, st.Flags["won_goblin"])
		assert.Contains(t, st.Journal, "Won after 3 turns.")
	})

	t.Run("defeat", func(t *testing.T) {
		res, err := e.ApplyChoice(newTestPlayer(t, e), "fight")
		require.NoError(t, err)

		st, err := e.ResolveFight(res.State, combat.Result{Outcome: combat.OutcomeDefeat, NextSceneID: "game_over"})
		require.NoError(t, err)
		assert.Equal(t, "game_over", st.NodeID)
		assert.Empty(t, st.Inventory)
	})

	t.Run("fled without scene stays put", func(t *testing.T) {
		res, err := e.ApplyChoice(newTestPlayer(t, e), "fight")
		require.NoError(t, err)

		st, err := e.ResolveFight(res.State, combat.Result{Outcome: combat.OutcomeFled})
		require.NoError(t, err)
		assert.Equal(t, "start", st.NodeID)
		assert.False(t, st.InFight())
	})

	t.Run("unknown scene", func(t *testing.T) {
		res, err := e.ApplyChoice(newTestPlayer(t, e), "fight")
		require.NoError(t, err)

		_, err = e.ResolveFight(res.State, combat.Result{Outcome: combat.OutcomeVictory, NextSceneID: "nowhere"})
		assert.ErrorIs(t, err, ErrUnknownNode)
	})

	t.Run("not in a fight", func(t *testing.T) {
		st := newTestPlayer(t, e)
		got, err := e.ResolveFight(st, combat.Result{Outcome: combat.OutcomeVictory, NextSceneID: "end"})
		require.NoError(t, err)
		assert.Equal(t, "start", got.NodeID)
	})
}

func TestCheckFights(t *testing.T) {
	e := testEngine()
	err := e.CheckFights()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownFight))

	e.Fights["ghost"] = &combat.FightConfig{ID: "ghost", ReturnSceneID: "crypt"}
	err = e.CheckFights()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownNode))

	e.Fights["ghost"].ReturnSceneID = ""
	assert.NoError(t, e.CheckFights())
}
