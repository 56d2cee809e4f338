package update

import (
	"fmt"
	"strings"

	"github.com/fbkclanna/cargo-set-registry/internal/manifest"
	"github.com/fbkclanna/cargo-set-registry/internal/workspace"
)

// Shell receives progress messages.
type Shell interface {
	Status(verb, msg string)
	Warn(msg string)
}

// Action describes what happened to a dependency's registry field.
type Action string

const (
	ActionAdded   Action = "added"
	ActionChanged Action = "changed"
)

// Change records one registry edit.
type Change struct {
	Table      string
	Dependency string
	From       string // empty when the field was added
	To         string
	Action     Action
}

// Result is the outcome of updating a single member.
type Result struct {
	Member  workspace.Member
	Changes []Change
	Written bool
}

// UpdateMember sets the registry of every table-like dependency of member
// whose declared key is listed in pkgids. Keys are compared after trimming
// surrounding whitespace and must match exactly. The manifest is written
// only if something changed and dryRun is false.
func UpdateMember(pkgids []string, registry string, member workspace.Member, dryRun bool, sh Shell) (*Result, error) {
	doc, err := manifest.Load(member.ManifestPath)
	if err != nil {
		return nil, err
	}

	res := &Result{Member: member}
	changed := false
	for _, tbl := range doc.DependencyTables() {
		for _, dep := range tbl.Entries {
			if !selected(pkgids, dep.Name) || !dep.TableLike() {
				continue
			}
			old, ok := dep.Registry()
			if ok && old == registry {
				continue
			}
			if err := dep.SetRegistry(registry); err != nil {
				return nil, err
			}
			c := Change{Table: tbl.String(), Dependency: dep.Name, To: registry, Action: ActionAdded}
			if ok {
				c.From, c.Action = old, ActionChanged
			}
			sh.Status("Updating", describe(member.Name, c))
			res.Changes = append(res.Changes, c)
			changed = true
		}
	}

	if changed && !dryRun {
		if err := doc.Save(); err != nil {
			return nil, err
		}
		res.Written = true
	}
	return res, nil
}

func selected(pkgids []string, key string) bool {
	key = strings.TrimSpace(key)
	for _, id := range pkgids {
		if strings.TrimSpace(id) == key {
			return true
		}
	}
	return false
}

func describe(member string, c Change) string {
	if c.Action == ActionChanged {
		return fmt.Sprintf("%s's dependency %s from registry %q to %q", member, c.Dependency, c.From, c.To)
	}
	return fmt.Sprintf("%s's dependency %s to add registry %q", member, c.Dependency, c.To)
}
