package game

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultStoryID is offered first on the start screen when it exists.
const DefaultStoryID = "demo"

// LoadStory loads a story from a YAML file and checks that every choice
// points at a node that exists.
func LoadStory(path string) (*Story, error) {
	cleanPath := filepath.Clean(path)
	b, err := os.ReadFile(cleanPath) //nolint:gosec // path is cleaned and comes from configuration
	if err != nil {
		return nil, err
	}
	var s Story
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode story %s: %w", cleanPath, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("story %s: %w", cleanPath, err)
	}
	return &s, nil
}

// LoadStories loads every *.yaml file in dir, keyed by file name without
// extension.
func LoadStories(dir string) (map[string]*Story, error) {
	paths, err := filepath.Glob(filepath.Join(filepath.Clean(dir), "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no stories in %s", dir)
	}
	out := make(map[string]*Story, len(paths))
	for _, p := range paths {
		s, err := LoadStory(p)
		if err != nil {
			return nil, err
		}
		out[strings.TrimSuffix(filepath.Base(p), ".yaml")] = s
	}
	return out, nil
}

// StoryIDs returns the keys of stories in sorted order.
func StoryIDs(stories map[string]*Story) []string {
	ids := make([]string, 0, len(stories))
	for id := range stories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate reports dangling node references. Fight outcomes are checked
// separately because they live in the fight registry.
func (s *Story) Validate() error {
	if s.Nodes[s.Start] == nil {
		return fmt.Errorf("%w: start %q", ErrUnknownNode, s.Start)
	}
	for id, n := range s.Nodes {
		if n == nil {
			return fmt.Errorf("%w: %q is empty", ErrUnknownNode, id)
		}
		for _, ch := range n.Choices {
			for _, next := range []string{ch.Next, ch.OnSuccessNext, ch.OnFailureNext} {
				if next != "" && s.Nodes[next] == nil {
					return fmt.Errorf("%w: %q from %s/%s", ErrUnknownNode, next, id, ch.Key)
				}
			}
		}
	}
	return nil
}
