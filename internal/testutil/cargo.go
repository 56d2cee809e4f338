package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// Package describes a workspace member written by WriteWorkspace.
type Package struct {
	Name     string
	Manifest string // Cargo.toml contents
}

// Workspace is a Cargo workspace on disk.
type Workspace struct {
	Root     string
	Manifest string // root Cargo.toml
	Packages map[string]string
}

// ManifestPath returns the Cargo.toml path of the named member.
func (w *Workspace) ManifestPath(name string) string {
	return w.Packages[name]
}

// WriteWorkspace creates a virtual workspace with one directory per package
// under crates/.
func WriteWorkspace(t *testing.T, pkgs ...Package) *Workspace {
	t.Helper()
	root := t.TempDir()
	ws := &Workspace{
		Root:     root,
		Manifest: filepath.Join(root, "Cargo.toml"),
		Packages: make(map[string]string, len(pkgs)),
	}

	members := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		dir := filepath.Join(root, "crates", p.Name)
		if err := os.MkdirAll(dir, 0755); err != nil { //nolint:gosec // test dir
			t.Fatal(err)
		}
		path := filepath.Join(dir, "Cargo.toml")
		writeFile(t, path, p.Manifest)
		ws.Packages[p.Name] = path
		members = append(members, fmt.Sprintf("%q", "crates/"+p.Name))
	}
	writeFile(t, ws.Manifest, "[workspace]\nmembers = ["+strings.Join(members, ", ")+"]\n")
	return ws
}

// MetadataJSON renders `cargo metadata` output for the workspace. Members are
// listed in the order given, followed by one registry package that is not a
// member.
func (w *Workspace) MetadataJSON(t *testing.T, order ...string) []byte {
	t.Helper()
	type pkg struct {
		Name         string `json:"name"`
		Version      string `json:"version"`
		ID           string `json:"id"`
		ManifestPath string `json:"manifest_path"`
	}
	md := struct {
		Version          int      `json:"version"`
		Packages         []pkg    `json:"packages"`
		WorkspaceMembers []string `json:"workspace_members"`
		WorkspaceRoot    string   `json:"workspace_root"`
	}{Version: 1, WorkspaceRoot: w.Root, WorkspaceMembers: []string{}}

	for _, name := range order {
		path := w.Packages[name]
		id := "path+file://" + filepath.Dir(path) + "#" + name + "@0.1.0"
		md.Packages = append(md.Packages, pkg{Name: name, Version: "0.1.0", ID: id, ManifestPath: path})
		md.WorkspaceMembers = append(md.WorkspaceMembers, id)
	}
	md.Packages = append(md.Packages, pkg{
		Name:         "serde",
		Version:      "1.0.200",
		ID:           "registry+https://github.com/rust-lang/crates.io-index#serde@1.0.200",
		ManifestPath: filepath.Join(w.Root, "vendor", "serde", "Cargo.toml"),
	})

	data, err := json.Marshal(md)
	if err != nil {
		t.Fatalf("marshaling metadata: %v", err)
	}
	return data
}

// CargoOpts configures a fake cargo binary.
type CargoOpts struct {
	Metadata []byte
	// FailFull makes every invocation without --no-deps fail, as an offline
	// resolution with missing dependencies would.
	FailFull bool
	// FailFromCall makes the n-th and later invocations fail. Zero disables.
	FailFromCall int
}

// FakeCargo is a shell script standing in for cargo. It records the
// arguments of every invocation.
type FakeCargo struct {
	Path    string
	logPath string
}

// NewFakeCargo writes a fake cargo script into a temp directory.
func NewFakeCargo(t *testing.T, opts CargoOpts) *FakeCargo {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake cargo needs a POSIX shell")
	}
	dir := t.TempDir()
	f := &FakeCargo{
		Path:    filepath.Join(dir, "cargo"),
		logPath: filepath.Join(dir, "calls.log"),
	}
	metaPath := filepath.Join(dir, "metadata.json")
	writeFile(t, metaPath, string(opts.Metadata))
	writeFile(t, f.logPath, "")

	failFull := 0
	if opts.FailFull {
		failFull = 1
	}
	script := fmt.Sprintf(`#!/bin/sh
echo "$*" >> '%[1]s'
n=$(wc -l < '%[1]s' | tr -d ' ')
nodeps=
for a in "$@"; do
  if [ "$a" = "--no-deps" ]; then nodeps=1; fi
done
if [ -z "$nodeps" ] && [ %[2]d -eq 1 ]; then
  echo "error: failed to download dependencies (offline)" >&2
  exit 101
fi
if [ %[3]d -gt 0 ] && [ "$n" -ge %[3]d ]; then
  echo "error: failed to parse manifest" >&2
  exit 101
fi
cat '%[4]s'
`, f.logPath, failFull, opts.FailFromCall, metaPath)
	if err := os.WriteFile(f.Path, []byte(script), 0755); err != nil { //nolint:gosec // executable test script
		t.Fatal(err)
	}
	return f
}

// Calls returns the argument lists cargo was invoked with.
func (f *FakeCargo) Calls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.logPath)
	if err != nil {
		t.Fatal(err)
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// ReadFile returns the contents of path, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil { //nolint:gosec // test file
		t.Fatal(err)
	}
}
