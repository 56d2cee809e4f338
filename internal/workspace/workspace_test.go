package workspace

import (
	"errors"
	"testing"

	"github.com/fbkclanna/cargo-set-registry/internal/metadata"
	"github.com/fbkclanna/cargo-set-registry/internal/testutil"
)

type resolverFunc func(manifestPath string, locked bool) (*metadata.Metadata, error)

func (f resolverFunc) Resolve(manifestPath string, locked bool) (*metadata.Metadata, error) {
	return f(manifestPath, locked)
}

func TestLoad(t *testing.T) {
	ws := testutil.WriteWorkspace(t,
		testutil.Package{Name: "core", Manifest: "[package]\nname = \"core\"\n"},
		testutil.Package{Name: "cli", Manifest: "[package]\nname = \"cli\"\n"},
	)
	cargo := testutil.NewFakeCargo(t, testutil.CargoOpts{Metadata: ws.MetadataJSON(t, "cli", "core")})

	ctx, err := Load(metadata.Resolver{Cargo: cargo.Path}, ws.Manifest, false)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if ctx.Root != ws.Root {
		t.Errorf("Root = %q, want %q", ctx.Root, ws.Root)
	}
	if len(ctx.Members) != 2 {
		t.Fatalf("got %d members, want 2 (non-member packages must be dropped)", len(ctx.Members))
	}
	if ctx.Members[0].Name != "cli" || ctx.Members[1].Name != "core" {
		t.Errorf("members = %+v, want cli then core", ctx.Members)
	}
	if ctx.Members[1].ManifestPath != ws.ManifestPath("core") {
		t.Errorf("ManifestPath = %q, want %q", ctx.Members[1].ManifestPath, ws.ManifestPath("core"))
	}
}

func TestLoad_passesArguments(t *testing.T) {
	var gotPath string
	var gotLocked bool
	r := resolverFunc(func(p string, locked bool) (*metadata.Metadata, error) {
		gotPath, gotLocked = p, locked
		return &metadata.Metadata{}, nil
	})
	if _, err := Load(r, "x/Cargo.toml", true); err != nil {
		t.Fatal(err)
	}
	if gotPath != "x/Cargo.toml" || !gotLocked {
		t.Errorf("resolver got (%q, %v)", gotPath, gotLocked)
	}
}

func TestLoad_error(t *testing.T) {
	want := errors.New("boom")
	r := resolverFunc(func(string, bool) (*metadata.Metadata, error) { return nil, want })
	if _, err := Load(r, "", false); !errors.Is(err, want) {
		t.Fatalf("Load() error = %v, want %v", err, want)
	}
}

func TestFilter(t *testing.T) {
	members := []Member{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	t.Run("exclude", func(t *testing.T) {
		result := Filter(members, []string{"b"})
		if len(result) != 2 || result[0].Name != "a" || result[1].Name != "c" {
			t.Errorf("got %+v, want a, c", result)
		}
	})

	t.Run("none", func(t *testing.T) {
		result := Filter(members, nil)
		if len(result) != 3 {
			t.Errorf("got %d, want 3", len(result))
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		result := Filter(members, []string{"zzz"})
		if len(result) != 3 {
			t.Errorf("got %d, want 3", len(result))
		}
	})

	t.Run("all", func(t *testing.T) {
		result := Filter(members, []string{"a", "b", "c"})
		if len(result) != 0 {
			t.Errorf("got %d, want 0", len(result))
		}
	})

	t.Run("exact match only", func(t *testing.T) {
		result := Filter(members, []string{"A", " a"})
		if len(result) != 3 {
			t.Errorf("got %d, want 3", len(result))
		}
	})
}
