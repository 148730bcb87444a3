package pep508

import (
	"runtime"
	"strconv"
	"strings"

	errs "github.com/matzehuels/pyboot/pkg/errors"
)

// Kind selects how a marker variable is compared.
type Kind int

const (
	// KindString supports ==, !=, ===, in and not in.
	KindString Kind = iota
	// KindNumber compares numerically.
	KindNumber
	// KindSemver compares as versions; in and not in are substring tests.
	KindSemver
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindSemver:
		return "semver"
	default:
		return "string"
	}
}

// ParseKind maps "string", "number" or "semver" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "string", "str":
		return KindString, nil
	case "number", "num":
		return KindNumber, nil
	case "semver", "version":
		return KindSemver, nil
	}
	return KindString, errs.New(errs.ErrCodeInvalidInput, "unknown variable type %q", s)
}

// Value is a typed marker variable.
type Value struct {
	Kind Kind
	Raw  string
}

// String returns a string-typed value.
func String(s string) Value { return Value{Kind: KindString, Raw: s} }

// Number returns a number-typed value.
func Number(s string) Value { return Value{Kind: KindNumber, Raw: s} }

// Semver returns a version-typed value.
func Semver(s string) Value { return Value{Kind: KindSemver, Raw: s} }

// Env maps marker variable names to values.
type Env map[string]Value

// Clone returns a shallow copy of e.
func (e Env) Clone() Env {
	out := make(Env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// DefaultEnv describes the running host with python_version and
// python_full_version left at the given interpreter version.
func DefaultEnv(pythonVersion string) Env {
	env := Env{
		"os_name":                        String(osName()),
		"sys_platform":                   String(sysPlatform()),
		"platform_system":                String(platformSystem()),
		"platform_machine":               String(platformMachine()),
		"platform_python_implementation": String("CPython"),
		"implementation_name":            String("cpython"),
	}
	if pythonVersion != "" {
		env["python_full_version"] = Semver(pythonVersion)
		env["implementation_version"] = Semver(pythonVersion)
		if seg := releaseSegments(pythonVersion); len(seg) >= 2 {
			env["python_version"] = Semver(seg[0] + "." + seg[1])
		} else {
			env["python_version"] = Semver(pythonVersion)
		}
	}
	return env
}

func osName() string {
	if runtime.GOOS == "windows" {
		return "nt"
	}
	return "posix"
}

func sysPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "win32"
	default:
		return runtime.GOOS
	}
}

func platformSystem() string {
	switch runtime.GOOS {
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	default:
		return "Linux"
	}
}

func platformMachine() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		if runtime.GOOS == "linux" {
			return "aarch64"
		}
		return "arm64"
	case "386":
		return "i686"
	default:
		return runtime.GOARCH
	}
}

// Evaluate reports whether marker holds in env. A nil marker holds
// everywhere. Comparisons on variables absent from env are false.
func Evaluate(m Marker, env Env) (bool, error) {
	switch m := m.(type) {
	case nil:
		return true, nil
	case *Comparison:
		return evalComparison(m, env)
	case *Condition:
		return evalCondition(m, env)
	default:
		return false, errs.New(errs.ErrCodeInvalidMarker, "unknown marker node %T", m)
	}
}

func evalCondition(c *Condition, env Env) (bool, error) {
	if len(c.Markers) == 0 {
		return false, errs.New(errs.ErrCodeInvalidMarker, "empty %s condition", c.Operator)
	}
	switch c.Operator {
	case And:
		for _, child := range c.Markers {
			ok, err := Evaluate(child, env)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case Or:
		for _, child := range c.Markers {
			ok, err := Evaluate(child, env)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, errs.New(errs.ErrCodeInvalidMarker, "unknown boolean operator %q", c.Operator)
	}
}

func evalComparison(c *Comparison, env Env) (bool, error) {
	val, ok := env[c.Variable]
	if !ok {
		return false, nil
	}
	left, right := val.Raw, c.Value
	if c.Reversed {
		left, right = right, left
	}
	switch val.Kind {
	case KindSemver:
		return compareSemver(c, left, right)
	case KindNumber:
		return compareNumber(c, left, right)
	default:
		return compareString(c, left, right)
	}
}

func compareSemver(c *Comparison, left, right string) (bool, error) {
	switch c.Operator {
	case OpArbitrary:
		return left == right, nil
	case OpIn:
		return strings.Contains(right, left), nil
	case OpNotIn:
		return !strings.Contains(right, left), nil
	case OpCompatible:
		ok, err := Satisfies(left, []DependencyVersion{{Operator: OpCompatible, Version: right}})
		if err != nil {
			return false, nil
		}
		return ok, nil
	}
	if (c.Operator == OpEqual || c.Operator == OpNotEqual) && (strings.HasSuffix(left, ".*") || strings.HasSuffix(right, ".*")) {
		ok, err := Satisfies(left, []DependencyVersion{{Operator: c.Operator, Version: right}})
		if err != nil {
			return false, nil
		}
		return ok, nil
	}
	lv, err := ParseVersion(left)
	if err != nil {
		return false, nil
	}
	rv, err := ParseVersion(right)
	if err != nil {
		return false, nil
	}
	return ordered(c.Operator, lv.Compare(rv))
}

func compareNumber(c *Comparison, left, right string) (bool, error) {
	switch c.Operator {
	case OpArbitrary:
		return left == right, nil
	case OpLess, OpLessEqual, OpEqual, OpNotEqual, OpGreaterEqual, OpGreater:
	default:
		return false, errs.New(errs.ErrCodeInvalidMarker, "operator %q not valid for number variable %s", c.Operator, c.Variable)
	}
	lf, err := strconv.ParseFloat(strings.TrimSpace(left), 64)
	if err != nil {
		return false, nil
	}
	rf, err := strconv.ParseFloat(strings.TrimSpace(right), 64)
	if err != nil {
		return false, nil
	}
	switch {
	case lf < rf:
		return ordered(c.Operator, -1)
	case lf > rf:
		return ordered(c.Operator, 1)
	default:
		return ordered(c.Operator, 0)
	}
}

func compareString(c *Comparison, left, right string) (bool, error) {
	switch c.Operator {
	case OpEqual, OpArbitrary:
		return left == right, nil
	case OpNotEqual:
		return left != right, nil
	case OpIn:
		return strings.Contains(right, left), nil
	case OpNotIn:
		return !strings.Contains(right, left), nil
	default:
		return false, errs.New(errs.ErrCodeInvalidMarker, "operator %q not valid for string variable %s", c.Operator, c.Variable)
	}
}

func ordered(op Operator, cmp int) (bool, error) {
	switch op {
	case OpLess:
		return cmp < 0, nil
	case OpLessEqual:
		return cmp <= 0, nil
	case OpEqual:
		return cmp == 0, nil
	case OpNotEqual:
		return cmp != 0, nil
	case OpGreaterEqual:
		return cmp >= 0, nil
	case OpGreater:
		return cmp > 0, nil
	default:
		return false, errs.New(errs.ErrCodeInvalidMarker, "operator %q is not an ordering", op)
	}
}
