package pep508

import (
	"strings"
)

// Operator is a comparison operator in a version clause or marker.
type Operator string

// Version and marker operators.
const (
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpNotEqual     Operator = "!="
	OpEqual        Operator = "=="
	OpGreaterEqual Operator = ">="
	OpGreater      Operator = ">"
	OpCompatible   Operator = "~="
	OpArbitrary    Operator = "==="
	OpIn           Operator = "in"
	OpNotIn        Operator = "not in"
)

// IsVersionOp reports whether op may appear in a version clause.
func (op Operator) IsVersionOp() bool {
	switch op {
	case OpLess, OpLessEqual, OpNotEqual, OpEqual, OpGreaterEqual, OpGreater, OpCompatible, OpArbitrary:
		return true
	}
	return false
}

// DependencyVersion is one clause of a version constraint. A dependency's
// clauses are AND-ed.
type DependencyVersion struct {
	Operator Operator `json:"operator"`
	Version  string   `json:"version"`
}

func (v DependencyVersion) String() string {
	return string(v.Operator) + v.Version
}

// DependencyURL is a direct `name @ url` reference.
type DependencyURL struct {
	URL string `json:"url"`
}

// Dependency is a parsed requirement. Version and URL are mutually exclusive.
type Dependency struct {
	Name    string              `json:"name"`
	Extras  []string            `json:"extras,omitempty"`
	Version []DependencyVersion `json:"version,omitempty"`
	URL     *DependencyURL      `json:"url,omitempty"`
	Env     Marker              `json:"-"`
}

// String renders the dependency in canonical specifier form.
func (d *Dependency) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if len(d.Extras) > 0 {
		b.WriteString("[" + strings.Join(d.Extras, ",") + "]")
	}
	if d.URL != nil {
		b.WriteString(" @ " + d.URL.URL)
	}
	for i, v := range d.Version {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(v.String())
	}
	if d.Env != nil {
		if d.URL != nil {
			b.WriteString(" ")
		}
		b.WriteString("; " + d.Env.String())
	}
	return b.String()
}

// Marker is an environment marker expression: either a [*Comparison] or a
// [*Condition].
type Marker interface {
	String() string
	marker()
}

// Comparison compares an environment variable with a literal. Reversed is
// set when the literal was written on the left (`"linux" in sys_platform`).
type Comparison struct {
	Variable string
	Operator Operator
	Value    string
	Reversed bool
}

func (*Comparison) marker() {}

func (c *Comparison) String() string {
	if c.Reversed {
		return quote(c.Value) + " " + string(c.Operator) + " " + c.Variable
	}
	return c.Variable + " " + string(c.Operator) + " " + quote(c.Value)
}

// BoolOp joins the children of a Condition.
type BoolOp string

const (
	And BoolOp = "and"
	Or  BoolOp = "or"
)

// Condition combines one or more markers with a single boolean operator.
type Condition struct {
	Operator BoolOp
	Markers  []Marker
}

func (*Condition) marker() {}

func (c *Condition) String() string {
	parts := make([]string, len(c.Markers))
	for i, m := range c.Markers {
		if _, ok := m.(*Condition); ok {
			parts[i] = "(" + m.String() + ")"
		} else {
			parts[i] = m.String()
		}
	}
	return strings.Join(parts, " "+string(c.Operator)+" ")
}

func quote(s string) string {
	if strings.Contains(s, `"`) {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}
