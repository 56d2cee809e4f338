package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return doc
}

func findDep(t *testing.T, doc *Document, table, name string) *Dependency {
	t.Helper()
	for _, tbl := range doc.DependencyTables() {
		if tbl.String() != table {
			continue
		}
		for _, dep := range tbl.Entries {
			if dep.Name == name {
				return dep
			}
		}
	}
	t.Fatalf("dependency %s.%s not found", table, name)
	return nil
}

func TestParse_dependencyTables(t *testing.T) {
	doc := mustParse(t, `[package]
name = "app"
version = "0.1.0"

[dependencies]
serde = "1.0"

[dev-dependencies]
insta = { version = "1" }

[target.'cfg(unix)'.dependencies]
nix = "0.27"

[build-dependencies]
cc = "1"

[[bin]]
name = "app"
`)
	var got []string
	for _, tbl := range doc.DependencyTables() {
		got = append(got, tbl.String())
	}
	want := []string{"dependencies", "dev-dependencies", `target."cfg(unix)".dependencies`, "build-dependencies"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("tables = %v, want %v", got, want)
	}

	target := doc.DependencyTables()[2]
	if target.Target != "cfg(unix)" || target.Kind != KindNormal {
		t.Errorf("target table = %q/%q", target.Target, target.Kind)
	}
}

func TestParse_invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unterminated string", "[dependencies]\nfoo = \"1.0\n"},
		{"duplicate key", "[dependencies]\nfoo = \"1\"\nfoo = \"2\"\n"},
		{"missing value", "[dependencies]\nfoo =\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.src)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDependency_forms(t *testing.T) {
	doc := mustParse(t, `[dependencies]
bare = "1.0"
inline = { version = "2.0", registry = "old" }
dotted.version = "3.0"
features = ["a"]
"quoted-key" = { version = "4" }

[dependencies.sub]
version = "5.0"
registry = 'lit'
`)
	tests := []struct {
		name      string
		tableLike bool
		registry  string
		hasReg    bool
	}{
		{"bare", false, "", false},
		{"inline", true, "old", true},
		{"dotted", true, "", false},
		{"features", false, "", false},
		{"quoted-key", true, "", false},
		{"sub", true, "lit", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep := findDep(t, doc, "dependencies", tt.name)
			if dep.TableLike() != tt.tableLike {
				t.Errorf("TableLike() = %v, want %v", dep.TableLike(), tt.tableLike)
			}
			reg, ok := dep.Registry()
			if reg != tt.registry || ok != tt.hasReg {
				t.Errorf("Registry() = %q, %v, want %q, %v", reg, ok, tt.registry, tt.hasReg)
			}
		})
	}
}

func TestSetRegistry_edits(t *testing.T) {
	tests := []struct {
		name string
		src  string
		dep  string
		want string
	}{
		{
			name: "inline replace",
			src:  "[dependencies]\ndep-b = { version = \"2.0\", registry = \"old\" }\n",
			dep:  "dep-b",
			want: "[dependencies]\ndep-b = { version = \"2.0\", registry = \"new\" }\n",
		},
		{
			name: "inline insert",
			src:  "[dependencies]\ndep-b = { version = \"2.0\" } # keep\n",
			dep:  "dep-b",
			want: "[dependencies]\ndep-b = { version = \"2.0\", registry = \"new\" } # keep\n",
		},
		{
			name: "inline empty",
			src:  "[dependencies]\ndep-b = {}\n",
			dep:  "dep-b",
			want: "[dependencies]\ndep-b = { registry = \"new\" }\n",
		},
		{
			name: "sub-table insert",
			src:  "[dependencies.dep-b]\n  version = \"2.0\"\n  path = \"../b\"\n\n# trailing comment\n[features]\n",
			dep:  "dep-b",
			want: "[dependencies.dep-b]\n  version = \"2.0\"\n  path = \"../b\"\n  registry = \"new\"\n\n# trailing comment\n[features]\n",
		},
		{
			name: "sub-table replace",
			src:  "[dependencies.dep-b]\nregistry = 'old' # was here\nversion = \"2.0\"\n",
			dep:  "dep-b",
			want: "[dependencies.dep-b]\nregistry = \"new\" # was here\nversion = \"2.0\"\n",
		},
		{
			name: "sub-table header only at eof",
			src:  "[dependencies.dep-b]",
			dep:  "dep-b",
			want: "[dependencies.dep-b]\nregistry = \"new\"\n",
		},
		{
			name: "dotted insert",
			src:  "[dependencies]\ndep-b.version = \"2.0\"\ndep-b.features = [\n  \"x\",\n]\nother = \"1\"\n",
			dep:  "dep-b",
			want: "[dependencies]\ndep-b.version = \"2.0\"\ndep-b.features = [\n  \"x\",\n]\ndep-b.registry = \"new\"\nother = \"1\"\n",
		},
		{
			name: "dotted replace",
			src:  "[dependencies]\ndep-b.version = \"2.0\"\ndep-b.registry = \"old\"\n",
			dep:  "dep-b",
			want: "[dependencies]\ndep-b.version = \"2.0\"\ndep-b.registry = \"new\"\n",
		},
		{
			name: "non-string registry",
			src:  "[dependencies]\ndep-b = { version = \"2.0\", registry = 3 }\n",
			dep:  "dep-b",
			want: "[dependencies]\ndep-b = { version = \"2.0\", registry = \"new\" }\n",
		},
		{
			name: "crlf",
			src:  "[dependencies.dep-b]\r\nversion = \"2.0\"\r\n",
			dep:  "dep-b",
			want: "[dependencies.dep-b]\r\nversion = \"2.0\"\r\nregistry = \"new\"\r\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.src)
			dep := findDep(t, doc, "dependencies", tt.dep)
			if err := dep.SetRegistry("new"); err != nil {
				t.Fatalf("SetRegistry() error: %v", err)
			}
			got := string(doc.Bytes())
			if got != tt.want {
				t.Errorf("Bytes() =\n%s\nwant\n%s", got, tt.want)
			}
			if _, err := Parse([]byte(got)); err != nil {
				t.Errorf("edited document does not parse: %v", err)
			}
		})
	}
}

func TestSetRegistry_rootDottedTable(t *testing.T) {
	doc := mustParse(t, "dependencies.dep-b.version = \"2.0\"\n")
	dep := findDep(t, doc, "dependencies", "dep-b")
	if err := dep.SetRegistry("new"); err != nil {
		t.Fatal(err)
	}
	want := "dependencies.dep-b.version = \"2.0\"\ndependencies.dep-b.registry = \"new\"\n"
	if got := string(doc.Bytes()); got != want {
		t.Errorf("Bytes() = %q, want %q", got, want)
	}
}

func TestSetRegistry_targetTable(t *testing.T) {
	doc := mustParse(t, `[target.'cfg(windows)'.dev-dependencies]
winapi = { version = "0.3" }
`)
	dep := findDep(t, doc, `target."cfg(windows)".dev-dependencies`, "winapi")
	if err := dep.SetRegistry("corp"); err != nil {
		t.Fatal(err)
	}
	want := "[target.'cfg(windows)'.dev-dependencies]\nwinapi = { version = \"0.3\", registry = \"corp\" }\n"
	if got := string(doc.Bytes()); got != want {
		t.Errorf("Bytes() = %q, want %q", got, want)
	}
}

func TestSetRegistry_bareString(t *testing.T) {
	src := "[dependencies]\ndep-a = \"1.0\"\n"
	doc := mustParse(t, src)
	dep := findDep(t, doc, "dependencies", "dep-a")
	err := dep.SetRegistry("new")
	if !errors.Is(err, ErrNotTableLike) {
		t.Fatalf("SetRegistry() error = %v, want ErrNotTableLike", err)
	}
	if got := string(doc.Bytes()); got != src {
		t.Errorf("document changed: %q", got)
	}
}

func TestSetRegistry_twiceReplacesEdit(t *testing.T) {
	doc := mustParse(t, "[dependencies]\ndep = { version = \"1\" }\n")
	dep := findDep(t, doc, "dependencies", "dep")
	_ = dep.SetRegistry("first")
	_ = dep.SetRegistry("second")
	if reg, _ := dep.Registry(); reg != "second" {
		t.Errorf("Registry() = %q, want second", reg)
	}
	want := "[dependencies]\ndep = { version = \"1\", registry = \"second\" }\n"
	if got := string(doc.Bytes()); got != want {
		t.Errorf("Bytes() = %q, want %q", got, want)
	}
}

func TestSetRegistry_escapesValue(t *testing.T) {
	doc := mustParse(t, "[dependencies]\ndep = { version = \"1\" }\n")
	dep := findDep(t, doc, "dependencies", "dep")
	if err := dep.SetRegistry(`we"ird\name`); err != nil {
		t.Fatal(err)
	}
	reparsed := mustParse(t, string(doc.Bytes()))
	reg, ok := findDep(t, reparsed, "dependencies", "dep").Registry()
	if !ok || reg != `we"ird\name` {
		t.Errorf("round-tripped registry = %q, %v", reg, ok)
	}
}

func TestBytes_preservesUntouchedContent(t *testing.T) {
	src := `# top comment
[package]
name = "app"   # aligned
description = """
multi
line"""
published = 1979-05-27 07:32:00Z

[dependencies]
a = { version = "1", features = ["x", "y"] }  # a
b = "2"
`
	doc := mustParse(t, src)
	if got := string(doc.Bytes()); got != src {
		t.Errorf("unedited Bytes() differs:\n%s", got)
	}

	if err := findDep(t, doc, "dependencies", "a").SetRegistry("r"); err != nil {
		t.Fatal(err)
	}
	got := string(doc.Bytes())
	want := strings.Replace(src, `features = ["x", "y"] }`, `features = ["x", "y"], registry = "r" }`, 1)
	if got != want {
		t.Errorf("Bytes() =\n%s\nwant\n%s", got, want)
	}
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	src := "[dependencies]\ndep = { version = \"1\" }\n"
	if err := os.WriteFile(path, []byte(src), 0600); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if doc.Path() != path {
		t.Errorf("Path() = %q, want %q", doc.Path(), path)
	}
	if err := findDep(t, doc, "dependencies", "dep").SetRegistry("new"); err != nil {
		t.Fatal(err)
	}
	if err := doc.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, err := os.ReadFile(path) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	want := "[dependencies]\ndep = { version = \"1\", registry = \"new\" }\n"
	if string(data) != want {
		t.Errorf("saved = %q, want %q", data, want)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestLoad_errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "Cargo.toml")
	if err := os.WriteFile(bad, []byte("[dependencies\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(bad)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), bad) {
		t.Errorf("error should name the manifest: %v", err)
	}
}

func TestSave_withoutPath(t *testing.T) {
	doc := mustParse(t, "[dependencies]\n")
	if err := doc.Save(); err == nil {
		t.Fatal("expected error saving a document without a path")
	}
}
