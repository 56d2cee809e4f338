package report

import (
	"fmt"
	"os"
	"time"

	"github.com/fbkclanna/cargo-set-registry/internal/update"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// New builds a report from the outcome of a run.
func New(opts update.Options, sum *update.Summary, toolVersion string) *File {
	f := &File{
		Version:     1,
		RunID:       uuid.NewString(),
		Registry:    opts.Registry,
		DryRun:      opts.DryRun,
		GeneratedAt: time.Now().Format(time.RFC3339),
		ToolVersion: toolVersion,
		Workspace:   sum.Root,
		Members:     make([]Member, 0, len(sum.Results)),
	}
	for _, r := range sum.Results {
		m := Member{
			Name:     r.Member.Name,
			Manifest: r.Member.ManifestPath,
			Written:  r.Written,
		}
		for _, c := range r.Changes {
			m.Changes = append(m.Changes, Change{
				Table:      c.Table,
				Dependency: c.Dependency,
				Action:     string(c.Action),
				From:       c.From,
				To:         c.To,
			})
		}
		f.Members = append(f.Members, m)
	}
	return f
}

// Load reads a report file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a user-chosen report path
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	return Parse(data)
}

// Parse parses report content.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing report YAML: %w", err)
	}
	return &f, nil
}

// Save writes the report to disk.
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // report needs to be readable
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
