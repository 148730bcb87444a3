package pep508

import (
	"strings"

	errs "github.com/matzehuels/pyboot/pkg/errors"
)

// Parse parses a dependency specifier.
//
// On error the returned Dependency holds the fields recognised before the
// failure and the error carries the INVALID_SPECIFIER code.
func Parse(input string) (*Dependency, error) {
	p := &parser{src: input}
	dep := &Dependency{}
	err := p.dependency(dep)
	return dep, err
}

// ParseMarker parses a standalone marker expression such as
// `python_version >= "3.8" and os_name == "posix"`.
func ParseMarker(input string) (Marker, error) {
	p := &parser{src: input}
	m, err := p.markerOr()
	if err != nil {
		return m, err
	}
	p.skipSpace()
	if !p.eof() {
		return m, p.errorf("unexpected %q after marker", p.rest())
	}
	return m, nil
}

// parser is a cursor over a single input. It is created per call.
type parser struct {
	src string
	pos int
}

func (p *parser) dependency(dep *Dependency) error {
	p.skipSpace()
	name := p.identifier()
	if name == "" {
		return p.errorf("expected package name")
	}
	dep.Name = name

	p.skipSpace()
	if p.peek() == '[' {
		extras, err := p.extras()
		dep.Extras = extras
		if err != nil {
			return err
		}
		p.skipSpace()
	}

	switch c := p.peek(); {
	case c == '@':
		p.pos++
		p.skipSpace()
		u := p.url()
		if u == "" {
			return p.errorf("expected URL after '@'")
		}
		dep.URL = &DependencyURL{URL: u}
		p.skipSpace()
	case c == '(':
		p.pos++
		clauses, err := p.versionClauses()
		dep.Version = clauses
		if err != nil {
			return err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return p.errorf("expected ')' after version clauses")
		}
		p.pos++
		p.skipSpace()
	case isOpStart(c):
		clauses, err := p.versionClauses()
		dep.Version = clauses
		if err != nil {
			return err
		}
		p.skipSpace()
	}

	if p.peek() == ';' {
		p.pos++
		m, err := p.markerOr()
		dep.Env = m
		if err != nil {
			return err
		}
		p.skipSpace()
	}

	if !p.eof() {
		return p.errorf("unexpected %q", p.rest())
	}
	return nil
}

func (p *parser) extras() ([]string, error) {
	p.pos++ // '['
	var extras []string
	for {
		p.skipSpace()
		if p.peek() == ']' && len(extras) == 0 {
			p.pos++
			return extras, nil
		}
		name := p.identifier()
		if name == "" {
			return extras, p.errorf("expected extra name")
		}
		extras = append(extras, name)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return extras, nil
		default:
			return extras, p.errorf("expected ',' or ']' in extras")
		}
	}
}

func (p *parser) versionClauses() ([]DependencyVersion, error) {
	var clauses []DependencyVersion
	for {
		p.skipSpace()
		op := p.versionOperator()
		if op == "" {
			return clauses, p.errorf("expected version operator")
		}
		p.skipSpace()
		v := p.version()
		if v == "" {
			return clauses, p.errorf("expected version after %q", op)
		}
		clauses = append(clauses, DependencyVersion{Operator: op, Version: v})
		p.skipSpace()
		if p.peek() != ',' {
			return clauses, nil
		}
		p.pos++
	}
}

// markerOr parses `and`-chains joined by `or`.
func (p *parser) markerOr() (Marker, error) {
	first, err := p.markerAnd()
	if err != nil {
		return first, err
	}
	terms := []Marker{first}
	for p.keyword("or") {
		next, err := p.markerAnd()
		terms = append(terms, next)
		if err != nil {
			return join(Or, terms), err
		}
	}
	return join(Or, terms), nil
}

// markerAnd parses terms joined by `and`, which binds tighter than `or`.
func (p *parser) markerAnd() (Marker, error) {
	first, err := p.markerTerm()
	if err != nil {
		return first, err
	}
	terms := []Marker{first}
	for p.keyword("and") {
		next, err := p.markerTerm()
		terms = append(terms, next)
		if err != nil {
			return join(And, terms), err
		}
	}
	return join(And, terms), nil
}

// join builds a Condition, lifting children that already use op.
func join(op BoolOp, terms []Marker) Marker {
	flat := make([]Marker, 0, len(terms))
	for _, t := range terms {
		if t == nil {
			continue
		}
		if c, ok := t.(*Condition); ok && c.Operator == op {
			flat = append(flat, c.Markers...)
			continue
		}
		flat = append(flat, t)
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	}
	return &Condition{Operator: op, Markers: flat}
}

func (p *parser) markerTerm() (Marker, error) {
	p.skipSpace()
	if p.peek() == '(' {
		p.pos++
		m, err := p.markerOr()
		if err != nil {
			return m, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return m, p.errorf("expected ')' in marker")
		}
		p.pos++
		return m, nil
	}

	left, leftIsVar, err := p.markerValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	op := p.markerOperator()
	if op == "" {
		return nil, p.errorf("expected marker operator")
	}
	p.skipSpace()
	right, rightIsVar, err := p.markerValue()
	if err != nil {
		return nil, err
	}

	switch {
	case leftIsVar && !rightIsVar:
		return &Comparison{Variable: left, Operator: op, Value: right}, nil
	case !leftIsVar && rightIsVar:
		return &Comparison{Variable: right, Operator: op, Value: left, Reversed: true}, nil
	case leftIsVar:
		return nil, p.errorf("marker compares two variables: %s %s %s", left, op, right)
	default:
		return nil, p.errorf("marker compares two literals: %q %s %q", left, op, right)
	}
}

// markerValue reads a quoted literal or an environment variable name.
func (p *parser) markerValue() (value string, isVar bool, err error) {
	switch c := p.peek(); c {
	case '"', '\'':
		p.pos++
		end := strings.IndexByte(p.src[p.pos:], c)
		if end < 0 {
			return "", false, p.errorf("unterminated string")
		}
		value = p.src[p.pos : p.pos+end]
		p.pos += end + 1
		return value, false, nil
	}
	name := p.identifier()
	if name == "" {
		return "", false, p.errorf("expected marker variable or string")
	}
	return name, true, nil
}

func (p *parser) markerOperator() Operator {
	if p.keyword("in") {
		return OpIn
	}
	save := p.pos
	if p.keyword("not") {
		if p.keyword("in") {
			return OpNotIn
		}
		p.pos = save
		return ""
	}
	return p.versionOperator()
}

func (p *parser) versionOperator() Operator {
	for _, op := range []Operator{OpArbitrary, OpLessEqual, OpGreaterEqual, OpEqual, OpNotEqual, OpCompatible, OpLess, OpGreater} {
		if strings.HasPrefix(p.src[p.pos:], string(op)) {
			p.pos += len(op)
			return op
		}
	}
	return ""
}

// keyword consumes word when it appears as a whole word after optional
// whitespace.
func (p *parser) keyword(word string) bool {
	save := p.pos
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], word) {
		end := p.pos + len(word)
		if end == len(p.src) || !isIdentByte(p.src[end]) {
			p.pos = end
			return true
		}
	}
	p.pos = save
	return false
}

func (p *parser) identifier() string {
	start := p.pos
	for !p.eof() && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) version() string {
	start := p.pos
	for !p.eof() && isVersionByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) url() string {
	start := p.pos
	for !p.eof() && !isSpace(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) eof() bool   { return p.pos >= len(p.src) }
func (p *parser) rest() string { return p.src[p.pos:] }

func (p *parser) errorf(format string, args ...any) error {
	return errs.New(errs.ErrCodeInvalidSpecifier, format+" at offset %d in %q", append(args, p.pos, p.src)...)
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '.' || c == '_' || c == '-'
}

func isVersionByte(c byte) bool {
	return isIdentByte(c) || c == '*' || c == '+' || c == '!'
}

func isOpStart(c byte) bool {
	return c == '<' || c == '>' || c == '=' || c == '!' || c == '~'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
