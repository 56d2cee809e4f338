package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Document is an editable Cargo manifest.
type Document struct {
	path    string
	data    []byte
	newline string
	tables  []*DependencyTable
}

// Load reads and parses a Cargo.toml file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from cargo metadata
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	doc.path = path
	return doc, nil
}

// Parse parses manifest content. The returned document has no path and
// cannot be saved; use Bytes to render it.
func Parse(data []byte) (*Document, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	stmts, err := scan(data)
	if err != nil {
		return nil, err
	}
	d := &Document{data: data, newline: "\n"}
	if bytes.Contains(data, []byte("\r\n")) {
		d.newline = "\r\n"
	}
	d.index(stmts)
	return d, nil
}

// validate checks that data is well-formed TOML, including duplicate keys.
func validate(data []byte) error {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("line %d, column %d: %w", row, col, err)
		}
		return err
	}
	return nil
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string { return d.path }

// DependencyTables returns every dependency table in order of first
// appearance: [dependencies], [dev-dependencies], [build-dependencies] and
// their [target.<cfg>.*] variants.
func (d *Document) DependencyTables() []*DependencyTable { return d.tables }

// Bytes renders the document with all pending edits applied.
func (d *Document) Bytes() []byte {
	var edits []edit
	for _, t := range d.tables {
		for _, dep := range t.Entries {
			if dep.pending != nil {
				edits = append(edits, *dep.pending)
			}
		}
	}
	if len(edits) == 0 {
		return bytes.Clone(d.data)
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var buf bytes.Buffer
	last := 0
	for _, e := range edits {
		buf.Write(d.data[last:e.start])
		buf.WriteString(e.text)
		last = e.end
	}
	buf.Write(d.data[last:])
	return buf.Bytes()
}

// Save writes the edited document back to the file it was loaded from,
// keeping the file's permissions.
func (d *Document) Save() error {
	if d.path == "" {
		return fmt.Errorf("manifest has no path")
	}
	out := d.Bytes()
	if err := validate(out); err != nil {
		return fmt.Errorf("edited manifest %s is not valid TOML: %w", d.path, err)
	}
	mode := fs.FileMode(0644)
	if info, err := os.Stat(d.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(d.path, out, mode); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// index walks the statements and records every dependency entry along with
// the spans needed to edit it.
func (d *Document) index(stmts []statement) {
	var (
		tables  = make(map[string]*DependencyTable)
		section []string
		inArray bool
		owner   *Dependency // set while inside [<table>.<name>]
	)

	table := func(path []string) *DependencyTable {
		key := strings.Join(path, "\x00")
		if t, ok := tables[key]; ok {
			return t
		}
		t := &DependencyTable{Kind: Kind(path[len(path)-1])}
		if len(path) == 3 {
			t.Target = path[1]
		}
		tables[key] = t
		d.tables = append(d.tables, t)
		return t
	}

	for _, st := range stmts {
		if h := st.header; h != nil {
			section, inArray, owner = names(h.path), h.array, nil
			if inArray {
				continue
			}
			p, ok := dependencyTablePath(section)
			if !ok {
				continue
			}
			t := table(p)
			if len(section) == len(p)+1 {
				owner = t.entry(d, section[len(p)], formTable)
				owner.insertAt = h.line.end
			}
			continue
		}

		kv := st.kv
		if inArray {
			continue
		}
		if owner != nil {
			owner.insertAt = kv.line.end
			owner.indent = d.indentOf(kv.line.start)
			if len(kv.key) == 1 && kv.key[0].name == "registry" {
				owner.registry = kv.val
			}
			continue
		}

		full := append(append([]string(nil), section...), names(kv.key)...)
		p, ok := dependencyTablePath(full)
		if !ok || len(p) < len(section) {
			continue
		}
		t := table(p)
		ei := len(p) - len(section)
		switch {
		case ei == len(kv.key):
			// The whole table as an inline value: dependencies = { ... }
			if kv.val.kind == valueInlineTable {
				for _, f := range kv.val.fields {
					if len(f.key) == 1 {
						t.valueEntry(d, f.key[0].name, f.val)
					}
				}
			}
		case ei == len(kv.key)-1:
			t.valueEntry(d, kv.key[ei].name, kv.val)
		default:
			dep := t.entry(d, kv.key[ei].name, formDotted)
			if dep.form != formDotted {
				continue
			}
			if dep.keyPrefix == "" {
				dep.keyPrefix = string(d.data[kv.key[0].start:kv.key[ei].end])
			}
			dep.insertAt = kv.line.end
			dep.indent = d.indentOf(kv.line.start)
			if len(kv.key) == ei+2 && kv.key[ei+1].name == "registry" {
				dep.registry = kv.val
			}
		}
	}
}

func (d *Document) indentOf(lineStart int) string {
	end := lineStart
	for end < len(d.data) && (d.data[end] == ' ' || d.data[end] == '\t') {
		end++
	}
	return string(d.data[lineStart:end])
}

// dependencyTablePath returns the prefix of path naming a dependency table,
// either [<kind>] or [target.<cfg>.<kind>].
func dependencyTablePath(path []string) ([]string, bool) {
	if len(path) >= 1 && isKind(path[0]) {
		return path[:1], true
	}
	if len(path) >= 3 && path[0] == "target" && isKind(path[2]) {
		return path[:3], true
	}
	return nil, false
}

func names(segs []keySeg) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.name
	}
	return out
}
