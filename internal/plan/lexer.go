package plan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// refRegex matches `${3}` and `${3.output}`.
var refRegex = regexp.MustCompile(`\$\{(\d+)(?:\.output)?\}`)

// numberRegex is deliberately narrower than strconv.ParseFloat, which also
// accepts words such as "inf" and "nan".
var numberRegex = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

// argLexer scans the text between the parentheses of a tool call.
type argLexer struct {
	src string
	pos int
}

// parseArgs parses a comma separated argument list. An empty list is valid.
func parseArgs(src string) ([]Arg, error) {
	l := &argLexer{src: src}
	l.skipSpace()
	if l.eof() {
		return nil, nil
	}

	var args []Arg
	seen := make(map[string]struct{})
	for {
		l.skipSpace()
		name, named := l.name()
		value, err := l.value(0)
		if err != nil {
			return nil, err
		}
		if !named {
			name = fmt.Sprintf("arg%d", len(args))
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("argument %q is given more than once", name)
		}
		seen[name] = struct{}{}
		args = append(args, Arg{Name: name, Value: value})

		l.skipSpace()
		if l.eof() {
			return args, nil
		}
		if l.peek() != ',' {
			return nil, fmt.Errorf("unexpected %q after argument %q", l.peek(), name)
		}
		l.pos++
		l.skipSpace()
		if l.eof() {
			return args, nil // trailing comma
		}
	}
}

func (l *argLexer) eof() bool  { return l.pos >= len(l.src) }
func (l *argLexer) peek() byte { return l.src[l.pos] }

func (l *argLexer) skipSpace() {
	for !l.eof() && isSpace(l.peek()) {
		l.pos++
	}
}

// name consumes `ident =` if present. On a miss the position is restored.
func (l *argLexer) name() (string, bool) {
	start := l.pos
	for !l.eof() && isIdentByte(l.peek(), l.pos == start) {
		l.pos++
	}
	if l.pos == start {
		return "", false
	}
	ident := l.src[start:l.pos]
	l.skipSpace()
	if l.eof() || l.peek() != '=' || (l.pos+1 < len(l.src) && l.src[l.pos+1] == '=') {
		l.pos = start
		return "", false
	}
	l.pos++
	l.skipSpace()
	return ident, true
}

func (l *argLexer) value(depth int) (Value, error) {
	l.skipSpace()
	if l.eof() {
		return Value{}, fmt.Errorf("missing value")
	}
	switch c := l.peek(); c {
	case '"', '\'':
		return l.quoted(c)
	case '[':
		return l.list(depth)
	default:
		return l.bare(depth)
	}
}

func (l *argLexer) quoted(quote byte) (Value, error) {
	start := l.pos
	l.pos++
	var b strings.Builder
	for !l.eof() {
		c := l.peek()
		switch {
		case c == '\\' && l.pos+1 < len(l.src):
			b.WriteByte(unescape(l.src[l.pos+1]))
			l.pos += 2
		case c == quote:
			l.pos++
			return Value{
				Kind:     StringValue,
				Raw:      l.src[start:l.pos],
				Segments: splitRefs(b.String()),
			}, nil
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return Value{}, fmt.Errorf("unterminated string starting at offset %d", start)
}

func (l *argLexer) list(depth int) (Value, error) {
	start := l.pos
	l.pos++
	v := Value{Kind: ListValue}
	for {
		l.skipSpace()
		if l.eof() {
			return Value{}, fmt.Errorf("unterminated list starting at offset %d", start)
		}
		if l.peek() == ']' {
			l.pos++
			v.Raw = l.src[start:l.pos]
			return v, nil
		}
		elem, err := l.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		v.Elems = append(v.Elems, elem)
		l.skipSpace()
		if l.eof() {
			return Value{}, fmt.Errorf("unterminated list starting at offset %d", start)
		}
		switch l.peek() {
		case ',':
			l.pos++
		case ']':
		default:
			return Value{}, fmt.Errorf("unexpected %q in list", l.peek())
		}
	}
}

// bare consumes unquoted text up to the next separator. Commas inside a
// reference never terminate it because references hold only digits.
func (l *argLexer) bare(depth int) (Value, error) {
	start := l.pos
	for !l.eof() {
		c := l.peek()
		if c == ',' || (depth > 0 && c == ']') {
			break
		}
		l.pos++
	}
	raw := strings.TrimRightFunc(l.src[start:l.pos], func(r rune) bool { return r < 0x80 && isSpace(byte(r)) })
	if raw == "" {
		return Value{}, fmt.Errorf("missing value at offset %d", start)
	}

	switch {
	case raw == "true" || raw == "false":
		return Value{Kind: BoolValue, Raw: raw}, nil
	case numberRegex.MatchString(raw):
		return Value{Kind: NumberValue, Raw: raw}, nil
	default:
		return Value{Kind: BareValue, Raw: raw, Segments: splitRefs(raw)}, nil
	}
}

// splitRefs splits text into literal and reference segments. Sequences that
// look like `${x}` but hold no integer id stay literal text.
func splitRefs(text string) []Segment {
	var segs []Segment
	last := 0
	for _, m := range refRegex.FindAllStringSubmatchIndex(text, -1) {
		id, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue // overflow, keep as text
		}
		if m[0] > last {
			segs = append(segs, Segment{Kind: TextSegment, Text: text[last:m[0]]})
		}
		segs = append(segs, Segment{Kind: RefSegment, Ref: TaskID(id)})
		last = m[1]
	}
	if last < len(text) || len(segs) == 0 {
		segs = append(segs, Segment{Kind: TextSegment, Text: text[last:]})
	}
	return segs
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	default:
		return c
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentByte(c byte, first bool) bool {
	if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return true
	}
	return !first && c >= '0' && c <= '9'
}
