package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStory(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validStory = `title: "Two Rooms"
start: "node1"
nodes:
  node1:
    title: "First"
    text: "First node"
    choices:
      - key: "next"
        text: "Go to next"
        next: "node2"
      - key: "fight"
        text: "Fight"
        fight: "goblin_ambush"
  node2:
    text: "Second node"
    ending: true
`

func TestLoadStory_Valid(t *testing.T) {
	path := writeStory(t, t.TempDir(), "test_story.yaml", validStory)

	story, err := LoadStory(path)
	require.NoError(t, err)

	assert.Equal(t, "Two Rooms", story.Title)
	assert.Equal(t, "node1", story.Start)
	require.Contains(t, story.Nodes, "node1")

	node1 := story.Nodes["node1"]
	assert.Equal(t, "First node", node1.Text)
	require.Len(t, node1.Choices, 2)
	assert.Equal(t, "next", node1.Choices[0].Key)
	assert.Equal(t, "goblin_ambush", node1.Choices[1].Fight)
	assert.True(t, story.Nodes["node2"].Ending)
}

func TestLoadStory_InvalidFile(t *testing.T) {
	_, err := LoadStory("non_existent_file.yaml")
	assert.Error(t, err)
}

func TestLoadStory_InvalidYAML(t *testing.T) {
	path := writeStory(t, t.TempDir(), "invalid.yaml", `start: "node1"
nodes:
  node1:
    text: "First node"
    invalid: [unclosed bracket
`)
	_, err := LoadStory(path)
	assert.Error(t, err)
}

func TestLoadStory_DanglingReference(t *testing.T) {
	path := writeStory(t, t.TempDir(), "dangling.yaml", `start: "a"
nodes:
  a:
    text: "A"
    choices:
      - key: "go"
        text: "Go"
        next: "b"
`)
	_, err := LoadStory(path)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestLoadStory_WithEffects(t *testing.T) {
	path := writeStory(t, t.TempDir(), "effects_story.yaml", `start: "start"
nodes:
  start:
    text: "Start"
    choices:
      - key: "heal"
        text: "Heal"
        next: "start"
        effects:
          - op: "add"
            stat: "health"
            value: 1
            clampMax: 12
          - op: "item"
            item: "herb"
`)
	story, err := LoadStory(path)
	require.NoError(t, err)

	effects := story.Nodes["start"].Choices[0].Effects
	require.Len(t, effects, 2)
	assert.Equal(t, "add", effects[0].Op)
	assert.Equal(t, "health", effects[0].Stat)
	assert.Equal(t, 1, effects[0].Value)
	require.NotNil(t, effects[0].ClampMax)
	assert.Equal(t, 12, *effects[0].ClampMax)
	assert.Equal(t, "herb", effects[1].Item)
}

func TestLoadStories(t *testing.T) {
	dir := t.TempDir()
	writeStory(t, dir, "alpha.yaml", validStory)
	writeStory(t, dir, "beta.yaml", validStory)
	writeStory(t, dir, "notes.txt", "ignored")

	stories, err := LoadStories(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, StoryIDs(stories))

	_, err = LoadStories(t.TempDir())
	assert.Error(t, err)
}
