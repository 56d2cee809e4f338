package report

// File represents a change report.
type File struct {
	Version     int      `yaml:"version"`
	RunID       string   `yaml:"run_id"`
	Registry    string   `yaml:"registry"`
	DryRun      bool     `yaml:"dry_run"`
	GeneratedAt string   `yaml:"generated_at"`
	ToolVersion string   `yaml:"tool_version"`
	Workspace   string   `yaml:"workspace"`
	Members     []Member `yaml:"members"`
}

// Member records the edits made to a single manifest.
type Member struct {
	Name     string   `yaml:"name"`
	Manifest string   `yaml:"manifest"`
	Written  bool     `yaml:"written"`
	Changes  []Change `yaml:"changes,omitempty"`
}

// Change records one registry edit.
type Change struct {
	Table      string `yaml:"table"`
	Dependency string `yaml:"dependency"`
	Action     string `yaml:"action"`
	From       string `yaml:"from,omitempty"`
	To         string `yaml:"to"`
}
