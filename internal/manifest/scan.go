package manifest

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

type span struct {
	start, end int
}

type keySeg struct {
	name string
	span
}

type valueKind int

const (
	valueOther valueKind = iota
	valueString
	valueInlineTable
	valueArray
)

type value struct {
	kind valueKind
	span
	str    string      // decoded text of a string value
	fields []*keyValue // key/value pairs of an inline table
}

type keyValue struct {
	key  []keySeg
	val  *value
	line span // from line start through the trailing newline
}

type header struct {
	path  []keySeg
	array bool
	line  span
}

// statement is a top-level table header or key/value line.
type statement struct {
	header *header
	kv     *keyValue
}

type scanner struct {
	data []byte
	pos  int
}

// scan splits a TOML document into top-level statements, recording the byte
// span of every key and value it passes over.
func scan(data []byte) ([]statement, error) {
	s := &scanner{data: data}
	var out []statement
	for {
		s.skipBlank()
		if s.eof() {
			return out, nil
		}
		lineStart := s.lineStart(s.pos)

		if s.peek() == '[' {
			h, err := s.header()
			if err != nil {
				return nil, err
			}
			end, err := s.endOfLine()
			if err != nil {
				return nil, err
			}
			h.line = span{lineStart, end}
			out = append(out, statement{header: h})
			continue
		}

		kv, err := s.keyValue()
		if err != nil {
			return nil, err
		}
		end, err := s.endOfLine()
		if err != nil {
			return nil, err
		}
		kv.line = span{lineStart, end}
		out = append(out, statement{kv: kv})
	}
}

func (s *scanner) eof() bool { return s.pos >= len(s.data) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.data[s.pos]
}

func (s *scanner) hasPrefix(p string) bool {
	return bytes.HasPrefix(s.data[s.pos:], []byte(p))
}

func (s *scanner) errorf(format string, args ...any) error {
	line := bytes.Count(s.data[:s.pos], []byte("\n")) + 1
	col := s.pos - s.lineStart(s.pos) + 1
	return fmt.Errorf("line %d, column %d: %s", line, col, fmt.Sprintf(format, args...))
}

func (s *scanner) lineStart(pos int) int {
	for pos > 0 && s.data[pos-1] != '\n' {
		pos--
	}
	return pos
}

func (s *scanner) skipSpace() {
	for !s.eof() && (s.peek() == ' ' || s.peek() == '\t') {
		s.pos++
	}
}

func (s *scanner) skipComment() {
	if s.peek() != '#' {
		return
	}
	for !s.eof() && s.peek() != '\n' {
		s.pos++
	}
}

// skipBlank skips whitespace, newlines and comments.
func (s *scanner) skipBlank() {
	for !s.eof() {
		switch s.peek() {
		case ' ', '\t', '\r', '\n':
			s.pos++
		case '#':
			s.skipComment()
		default:
			return
		}
	}
}

// endOfLine consumes trailing whitespace, an optional comment and the line
// break, returning the offset just past it.
func (s *scanner) endOfLine() (int, error) {
	s.skipSpace()
	s.skipComment()
	switch {
	case s.eof():
	case s.hasPrefix("\r\n"):
		s.pos += 2
	case s.peek() == '\n':
		s.pos++
	default:
		return 0, s.errorf("expected newline, found %q", s.peek())
	}
	return s.pos, nil
}

func (s *scanner) header() (*header, error) {
	s.pos++
	h := &header{}
	if s.peek() == '[' {
		h.array = true
		s.pos++
	}
	path, err := s.key()
	if err != nil {
		return nil, err
	}
	h.path = path
	closing := "]"
	if h.array {
		closing = "]]"
	}
	if !s.hasPrefix(closing) {
		return nil, s.errorf("expected %q to close table header", closing)
	}
	s.pos += len(closing)
	return h, nil
}

func (s *scanner) keyValue() (*keyValue, error) {
	key, err := s.key()
	if err != nil {
		return nil, err
	}
	if s.peek() != '=' {
		return nil, s.errorf("expected '=' after key")
	}
	s.pos++
	s.skipSpace()
	val, err := s.value()
	if err != nil {
		return nil, err
	}
	return &keyValue{key: key, val: val}, nil
}

// key parses a possibly dotted key and leaves the scanner after any
// trailing whitespace.
func (s *scanner) key() ([]keySeg, error) {
	var segs []keySeg
	for {
		s.skipSpace()
		start := s.pos
		var name string
		switch c := s.peek(); {
		case c == '"' || c == '\'':
			if err := s.singleLineString(); err != nil {
				return nil, err
			}
			decoded, err := decodeString(string(s.data[start:s.pos]))
			if err != nil {
				return nil, s.errorf("invalid quoted key: %v", err)
			}
			name = decoded
		case isBareKeyChar(c):
			for !s.eof() && isBareKeyChar(s.peek()) {
				s.pos++
			}
			name = string(s.data[start:s.pos])
		default:
			return nil, s.errorf("expected key, found %q", c)
		}
		segs = append(segs, keySeg{name: name, span: span{start, s.pos}})
		s.skipSpace()
		if s.peek() != '.' {
			return segs, nil
		}
		s.pos++
	}
}

func (s *scanner) value() (*value, error) {
	start := s.pos
	switch c := s.peek(); c {
	case '"', '\'':
		var err error
		if s.hasPrefix(`"""`) || s.hasPrefix(`'''`) {
			err = s.multilineString(c)
		} else {
			err = s.singleLineString()
		}
		if err != nil {
			return nil, err
		}
		str, err := decodeString(string(s.data[start:s.pos]))
		if err != nil {
			return nil, s.errorf("invalid string: %v", err)
		}
		return &value{kind: valueString, span: span{start, s.pos}, str: str}, nil
	case '{':
		return s.inlineTable()
	case '[':
		return s.array()
	default:
		s.bareValue()
		if s.pos == start {
			return nil, s.errorf("expected value, found %q", c)
		}
		return &value{kind: valueOther, span: span{start, s.pos}}, nil
	}
}

func (s *scanner) singleLineString() error {
	quote := s.peek()
	s.pos++
	for {
		if s.eof() || s.peek() == '\n' {
			return s.errorf("unterminated string")
		}
		c := s.peek()
		switch {
		case c == '\\' && quote == '"':
			s.pos += 2
		case c == quote:
			s.pos++
			return nil
		default:
			s.pos++
		}
	}
}

func (s *scanner) multilineString(quote byte) error {
	delim := string([]byte{quote, quote, quote})
	s.pos += 3
	for {
		if s.eof() {
			return s.errorf("unterminated multi-line string")
		}
		if quote == '"' && s.peek() == '\\' {
			s.pos += 2
			continue
		}
		if s.hasPrefix(delim) {
			s.pos += 3
			// Up to two quotes may directly precede the closing delimiter.
			for i := 0; i < 2 && s.peek() == quote; i++ {
				s.pos++
			}
			return nil
		}
		s.pos++
	}
}

func (s *scanner) inlineTable() (*value, error) {
	start := s.pos
	s.pos++
	v := &value{kind: valueInlineTable}
	s.skipSpace()
	if s.peek() == '}' {
		s.pos++
		v.span = span{start, s.pos}
		return v, nil
	}
	for {
		kv, err := s.keyValue()
		if err != nil {
			return nil, err
		}
		v.fields = append(v.fields, kv)
		s.skipSpace()
		switch s.peek() {
		case ',':
			s.pos++
		case '}':
			s.pos++
			v.span = span{start, s.pos}
			return v, nil
		default:
			return nil, s.errorf("expected ',' or '}' in inline table")
		}
	}
}

func (s *scanner) array() (*value, error) {
	start := s.pos
	s.pos++
	for {
		s.skipBlank()
		if s.peek() == ']' {
			s.pos++
			return &value{kind: valueArray, span: span{start, s.pos}}, nil
		}
		if _, err := s.value(); err != nil {
			return nil, err
		}
		s.skipBlank()
		switch s.peek() {
		case ',':
			s.pos++
		case ']':
			s.pos++
			return &value{kind: valueArray, span: span{start, s.pos}}, nil
		default:
			return nil, s.errorf("expected ',' or ']' in array")
		}
	}
}

// bareValue consumes a number, boolean or date-time literal.
func (s *scanner) bareValue() {
	start := s.pos
	for !s.eof() && !isValueTerminator(s.peek()) {
		s.pos++
	}
	// A date may be separated from its time by a single space.
	tok := s.data[start:s.pos]
	if len(tok) == 10 && tok[4] == '-' && tok[7] == '-' &&
		s.peek() == ' ' && s.pos+1 < len(s.data) && isDigit(s.data[s.pos+1]) {
		s.pos++
		for !s.eof() && !isValueTerminator(s.peek()) {
			s.pos++
		}
	}
}

func isValueTerminator(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ',', ']', '}', '#':
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isBareKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c) || c == '_' || c == '-'
}

// decodeString returns the text of a TOML string literal in any of its four
// quoting styles.
func decodeString(raw string) (string, error) {
	var v struct {
		S string `toml:"s"`
	}
	if err := toml.Unmarshal([]byte("s = "+raw), &v); err != nil {
		return "", err
	}
	return v.S, nil
}
