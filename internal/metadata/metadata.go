package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultCargo is the cargo binary used when none is configured.
const DefaultCargo = "cargo"

// Command configures a `cargo metadata` invocation.
type Command struct {
	Cargo        string
	ManifestPath string
	Locked       bool
	// NoDeps skips dependency resolution and reports only the workspace's
	// own packages.
	NoDeps bool
}

// Args returns the cargo arguments for the invocation. The query always
// runs offline and with every feature enabled so that feature-gated
// dependency tables are still considered.
func (c Command) Args() []string {
	args := []string{"metadata", "--format-version", "1"}
	if c.NoDeps {
		args = append(args, "--no-deps")
	}
	args = append(args, "--all-features")
	if c.ManifestPath != "" {
		args = append(args, "--manifest-path", c.ManifestPath)
	}
	if c.Locked {
		args = append(args, "--locked")
	}
	return append(args, "--offline")
}

// Exec runs the command and decodes its output.
func (c Command) Exec() (*Metadata, error) {
	cargo := c.Cargo
	if cargo == "" {
		cargo = DefaultCargo
	}
	out, err := output(cargo, c.Args()...)
	if err != nil {
		return nil, err
	}
	return Parse(out)
}

// Parse decodes `cargo metadata` JSON output.
func Parse(data []byte) (*Metadata, error) {
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parsing cargo metadata: %w", err)
	}
	return &md, nil
}

// Resolve queries workspace metadata. If the full query fails, for example
// because the lock file is missing or dependencies are not available
// offline, it retries once without resolving dependencies.
func Resolve(cargo, manifestPath string, locked bool) (*Metadata, error) {
	cmd := Command{Cargo: cargo, ManifestPath: manifestPath, Locked: locked}
	md, err := cmd.Exec()
	if err == nil {
		return md, nil
	}
	cmd.NoDeps = true
	md, retryErr := cmd.Exec()
	if retryErr != nil {
		return nil, fmt.Errorf("resolving workspace: %w", retryErr)
	}
	return md, nil
}

// Resolver runs Resolve with a fixed cargo binary.
type Resolver struct {
	Cargo string
}

// Resolve implements workspace.Resolver.
func (r Resolver) Resolve(manifestPath string, locked bool) (*Metadata, error) {
	return Resolve(r.Cargo, manifestPath, locked)
}

// output executes cargo and returns its stdout. Stderr is captured and
// included in the error message on failure.
func output(cargo string, args ...string) ([]byte, error) {
	cmd := exec.Command(cargo, args...) //nolint:gosec // cargo binary is user configuration
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s %s: %w", cargo, strings.Join(args, " "), err)
		}
		return nil, fmt.Errorf("%s %s: %w: %s", cargo, strings.Join(args, " "), err, msg)
	}
	return stdout.Bytes(), nil
}
