package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotTableLike is returned when a registry is set on a dependency declared
// as a bare version string.
var ErrNotTableLike = errors.New("dependency is not a table")

// Kind names a dependency table.
type Kind string

const (
	KindNormal Kind = "dependencies"
	KindDev    Kind = "dev-dependencies"
	KindBuild  Kind = "build-dependencies"
)

func isKind(s string) bool {
	switch Kind(s) {
	case KindNormal, KindDev, KindBuild:
		return true
	}
	return false
}

// DependencyTable is one dependency table of a manifest.
type DependencyTable struct {
	Kind    Kind
	Target  string // platform of a [target.<cfg>.*] table, empty otherwise
	Entries []*Dependency
}

// String returns the table's dotted path as written in a header.
func (t *DependencyTable) String() string {
	if t.Target == "" {
		return string(t.Kind)
	}
	return "target." + quoteKey(t.Target) + "." + string(t.Kind)
}

func (t *DependencyTable) entry(d *Document, name string, f form) *Dependency {
	for _, dep := range t.Entries {
		if dep.Name == name {
			return dep
		}
	}
	dep := &Dependency{Name: name, doc: d, table: t, form: f}
	t.Entries = append(t.Entries, dep)
	return dep
}

func (t *DependencyTable) valueEntry(d *Document, name string, v *value) {
	f := formOther
	switch v.kind {
	case valueString:
		f = formString
	case valueInlineTable:
		f = formInline
	}
	dep := t.entry(d, name, f)
	dep.value = v
	if f != formInline {
		return
	}
	for _, field := range v.fields {
		if len(field.key) == 1 && field.key[0].name == "registry" {
			dep.registry = field.val
		}
	}
}

type form int

const (
	formString form = iota // dep = "1.0"
	formOther              // any other non-table value
	formInline             // dep = { version = "1.0" }
	formTable              // [dependencies.dep]
	formDotted             // dep.version = "1.0"
)

type edit struct {
	start, end int
	text       string
}

// Dependency is a single entry of a dependency table.
type Dependency struct {
	// Name is the key as declared, which may differ from the package name
	// when the entry renames it.
	Name string

	doc   *Document
	table *DependencyTable
	form  form
	value *value

	registry  *value // existing registry field, if any
	keyPrefix string // dotted form: the key text up to the entry name
	insertAt  int    // sub-table and dotted forms: where a new line goes
	indent    string

	set     string
	isSet   bool
	pending *edit
}

// Table returns the table the dependency is declared in.
func (d *Dependency) Table() *DependencyTable { return d.table }

// TableLike reports whether the entry can carry fields such as registry.
func (d *Dependency) TableLike() bool {
	switch d.form {
	case formInline, formTable, formDotted:
		return true
	}
	return false
}

// Registry returns the entry's registry and whether it is set to a string.
func (d *Dependency) Registry() (string, bool) {
	if d.isSet {
		return d.set, true
	}
	if d.registry == nil || d.registry.kind != valueString {
		return "", false
	}
	return d.registry.str, true
}

// SetRegistry records an edit setting the entry's registry field. Calling it
// again replaces the earlier edit.
func (d *Dependency) SetRegistry(name string) error {
	if !d.TableLike() {
		return fmt.Errorf("%w: %s", ErrNotTableLike, d.Name)
	}
	quoted := quoteString(name)
	nl := d.doc.newline

	var e edit
	switch {
	case d.registry != nil:
		e = edit{start: d.registry.start, end: d.registry.end, text: quoted}
	case d.form == formInline && len(d.value.fields) == 0:
		e = edit{start: d.value.start + 1, end: d.value.end - 1, text: " registry = " + quoted + " "}
	case d.form == formInline:
		last := d.value.fields[len(d.value.fields)-1].val
		e = edit{start: last.end, end: last.end, text: ", registry = " + quoted}
	case d.form == formTable:
		e = edit{start: d.insertAt, end: d.insertAt, text: d.lineBreak() + d.indent + "registry = " + quoted + nl}
	default:
		e = edit{start: d.insertAt, end: d.insertAt, text: d.lineBreak() + d.indent + d.keyPrefix + ".registry = " + quoted + nl}
	}
	d.pending = &e
	d.set, d.isSet = name, true
	return nil
}

// lineBreak is needed when inserting after a last line with no newline.
func (d *Dependency) lineBreak() string {
	data := d.doc.data
	if d.insertAt > 0 && data[d.insertAt-1] != '\n' {
		return d.doc.newline
	}
	return ""
}

// quoteString renders s as a TOML basic string.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func quoteKey(k string) string {
	if k == "" {
		return `""`
	}
	for i := 0; i < len(k); i++ {
		if !isBareKeyChar(k[i]) {
			return quoteString(k)
		}
	}
	return k
}
