package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the structure of the sync graph.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	seen := make(map[string]bool, len(c.Playlists))
	for _, p := range c.Playlists {
		if seen[p.ID] {
			return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, ErrDuplicatePlaylist, p.ID)
		}
		seen[p.ID] = true
	}

	if err := c.checkCycles(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// SourceOptions lists the playlists that may become sources of id: every configured
// playlist except id itself and those that already pull from id, directly or transitively.
func (c *Config) SourceOptions(id string) []models.Playlist {
	graph := c.graph()
	var out []models.Playlist
	for _, p := range c.Playlists {
		if p.ID == id || reaches(graph, p.ID, id) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *Config) graph() map[string][]string {
	g := make(map[string][]string, len(c.Playlists))
	for _, p := range c.Playlists {
		g[p.ID] = p.SyncFrom
	}
	return g
}

// reaches reports whether to is reachable from "from" following sync_from edges.
func reaches(g map[string][]string, from, to string) bool {
	visited := map[string]bool{}
	stack := []string{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n] {
			continue
		}
		visited[n] = true
		for _, s := range g[n] {
			if s == to {
				return true
			}
			stack = append(stack, s)
		}
	}
	return false
}

const (
	unvisited = iota
	visiting
	done
)

// checkCycles walks configured playlists depth first; unconfigured sources are leaves.
func (c *Config) checkCycles() error {
	g := c.graph()
	state := make(map[string]int, len(g))

	var path []string
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			start := 0
			for i, p := range path {
				if p == id {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), id)
			return fmt.Errorf("%w: %s", ErrSyncCycle, strings.Join(cycle, " -> "))
		case done:
			return nil
		}

		state[id] = visiting
		path = append(path, id)
		for _, src := range g[id] {
			if _, ok := g[src]; !ok {
				continue
			}
			if err := visit(src); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[id] = done
		return nil
	}

	for _, p := range c.Playlists {
		if err := visit(p.ID); err != nil {
			return err
		}
	}
	return nil
}
