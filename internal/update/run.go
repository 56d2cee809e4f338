package update

import (
	"fmt"
	"strings"

	"github.com/fbkclanna/cargo-set-registry/internal/workspace"
)

// Options configures a Run.
type Options struct {
	Registry     string
	ManifestPath string
	// Packages lists the dependency keys to update.
	Packages []string
	// Exclude lists workspace members to leave untouched.
	Exclude []string
	DryRun  bool
	Locked  bool
}

// Summary collects the per-member results of a Run in processing order.
type Summary struct {
	Root    string
	Results []*Result
}

// Changes returns the total number of registry edits.
func (s *Summary) Changes() int {
	n := 0
	for _, r := range s.Results {
		n += len(r.Changes)
	}
	return n
}

// Run updates every selected member of the workspace. The first error aborts
// the run; members already written stay written.
func Run(r workspace.Resolver, opts Options, sh Shell) (*Summary, error) {
	if strings.TrimSpace(opts.Registry) == "" {
		return nil, fmt.Errorf("registry name must not be empty")
	}

	ctx, err := workspace.Load(r, opts.ManifestPath, opts.Locked)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Root: ctx.Root}
	for _, m := range workspace.Filter(ctx.Members, opts.Exclude) {
		res, err := UpdateMember(opts.Packages, opts.Registry, m, opts.DryRun, sh)
		if err != nil {
			return nil, fmt.Errorf("updating %s: %w", m.Name, err)
		}
		sum.Results = append(sum.Results, res)
	}

	// Resolve again so cargo rejects manifests the edits left inconsistent.
	if _, err := workspace.Load(r, opts.ManifestPath, opts.Locked); err != nil {
		return nil, fmt.Errorf("validating workspace after edits: %w", err)
	}

	if opts.DryRun {
		sh.Warn("aborting set-registry due to dry run")
	}
	return sum, nil
}
