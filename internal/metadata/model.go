package metadata

// Metadata is the subset of `cargo metadata --format-version 1` output the
// tool relies on.
type Metadata struct {
	Version          int       `json:"version"`
	Packages         []Package `json:"packages"`
	WorkspaceMembers []string  `json:"workspace_members"`
	WorkspaceRoot    string    `json:"workspace_root"`
	TargetDirectory  string    `json:"target_directory"`
}

// Package is a package known to cargo.
type Package struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	ID           string `json:"id"`
	ManifestPath string `json:"manifest_path"`
}

// Members returns the workspace member packages in the order cargo lists
// them.
func (m *Metadata) Members() []Package {
	ids := make(map[string]bool, len(m.WorkspaceMembers))
	for _, id := range m.WorkspaceMembers {
		ids[id] = true
	}
	var out []Package
	for _, p := range m.Packages {
		if ids[p.ID] {
			out = append(out, p)
		}
	}
	return out
}
