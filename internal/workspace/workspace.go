package workspace

import (
	"fmt"

	"github.com/fbkclanna/cargo-set-registry/internal/metadata"
)

// Member is a package belonging to the workspace.
type Member struct {
	Name         string
	ID           string
	ManifestPath string
}

// Resolver produces workspace metadata.
type Resolver interface {
	Resolve(manifestPath string, locked bool) (*metadata.Metadata, error)
}

// Context holds the resolved workspace.
type Context struct {
	Root    string
	Members []Member
}

// Load resolves the workspace containing manifestPath, or the current
// directory when manifestPath is empty.
func Load(r Resolver, manifestPath string, locked bool) (*Context, error) {
	md, err := r.Resolve(manifestPath, locked)
	if err != nil {
		return nil, err
	}
	if md == nil {
		return nil, fmt.Errorf("resolving workspace: no metadata returned")
	}
	ctx := &Context{Root: md.WorkspaceRoot}
	for _, p := range md.Members() {
		ctx.Members = append(ctx.Members, Member{
			Name:         p.Name,
			ID:           p.ID,
			ManifestPath: p.ManifestPath,
		})
	}
	return ctx, nil
}

// Filter returns the members whose name is not excluded, keeping their order.
func Filter(members []Member, exclude []string) []Member {
	if len(exclude) == 0 {
		return members
	}
	skip := toSet(exclude)

	var result []Member
	for _, m := range members {
		if skip[m.Name] {
			continue
		}
		result = append(result, m)
	}
	return result
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}
