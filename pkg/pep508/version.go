package pep508

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	errs "github.com/matzehuels/pyboot/pkg/errors"
)

// pep440Pattern captures the parts of a Python version that survive the
// mapping onto semver: an optional epoch, up to three release segments,
// a pre/dev tag and a local label. Post-release tags are dropped.
var pep440Pattern = regexp.MustCompile(`(?i)^\s*v?(?:\d+!)?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:\.\d+)*` +
	`(?:[-_.]?(a|b|c|rc|alpha|beta|pre|preview)[-_.]?(\d*))?` +
	`(?:[-_.]?(?:post|rev|r)[-_.]?\d*)?` +
	`(?:[-_.]?(dev)[-_.]?(\d*))?` +
	`(?:\+([0-9a-z.]+))?\s*$`)

var preReleaseNames = map[string]string{
	"a": "alpha", "alpha": "alpha",
	"b": "beta", "beta": "beta",
	"c": "rc", "rc": "rc", "pre": "rc", "preview": "rc",
}

// ParseVersion parses a Python version string into a comparable semver
// version. Strict semver input is used as-is; anything else is coerced from
// its PEP 440 form, so "2.0rc1" becomes 2.0.0-rc.1 and "1.2.3.4" becomes
// 1.2.3.
func ParseVersion(s string) (*semver.Version, error) {
	if v, err := semver.NewVersion(s); err == nil {
		return v, nil
	}
	coerced, ok := coerce(s)
	if !ok {
		return nil, errs.New(errs.ErrCodeInvalidSpecifier, "invalid version %q", s)
	}
	v, err := semver.NewVersion(coerced)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidSpecifier, err, "invalid version %q", s)
	}
	return v, nil
}

func coerce(s string) (string, bool) {
	m := pep440Pattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	out := m[1] + "." + orZero(m[2]) + "." + orZero(m[3])

	var pre []string
	if m[4] != "" {
		pre = append(pre, preReleaseNames[strings.ToLower(m[4])]+"."+orZero(m[5]))
	}
	if m[6] != "" {
		pre = append(pre, "dev."+orZero(m[7]))
	}
	if len(pre) > 0 {
		out += "-" + strings.Join(pre, ".")
	}
	if m[8] != "" {
		out += "+" + m[8]
	}
	return out, true
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// Satisfies reports whether version meets every clause. An empty clause
// list accepts any version.
func Satisfies(version string, clauses []DependencyVersion) (bool, error) {
	if len(clauses) == 0 {
		return true, nil
	}
	v, err := ParseVersion(version)
	if err != nil {
		return false, err
	}
	for _, c := range clauses {
		ok, err := satisfiesClause(version, v, c)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func satisfiesClause(raw string, v *semver.Version, c DependencyVersion) (bool, error) {
	if c.Operator == OpArbitrary {
		return strings.TrimSpace(raw) == strings.TrimSpace(c.Version), nil
	}
	constraint, err := Constraint(c)
	if err != nil {
		return false, err
	}
	return constraint.Check(v), nil
}

// Constraint translates a version clause into a semver constraint.
// `===` has no semver equivalent and is rejected here; use [Satisfies].
func Constraint(c DependencyVersion) (*semver.Constraints, error) {
	expr, err := constraintExpr(c)
	if err != nil {
		return nil, err
	}
	constraint, err := semver.NewConstraint(expr)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidSpecifier, err, "invalid constraint %q", c.String())
	}
	return constraint, nil
}

func constraintExpr(c DependencyVersion) (string, error) {
	wildcard := strings.HasSuffix(c.Version, ".*")
	switch c.Operator {
	case OpEqual, OpNotEqual:
		op := "="
		if c.Operator == OpNotEqual {
			op = "!="
		}
		if wildcard {
			return op + " " + c.Version, nil
		}
		v, err := normalize(c.Version)
		return op + " " + v, err
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		if wildcard {
			return "", errs.New(errs.ErrCodeInvalidSpecifier, "wildcard not allowed with %s", c.Operator)
		}
		v, err := normalize(c.Version)
		return string(c.Operator) + " " + v, err
	case OpCompatible:
		return compatibleExpr(c.Version)
	default:
		return "", errs.New(errs.ErrCodeInvalidSpecifier, "operator %q has no version constraint form", c.Operator)
	}
}

// compatibleExpr expands `~=X.Y[.Z]` to a lower bound at the given version
// and an upper bound below the next release of its prefix.
func compatibleExpr(version string) (string, error) {
	v, err := normalize(version)
	if err != nil {
		return "", err
	}
	release := releaseSegments(version)
	if len(release) < 2 {
		return ">= " + v, nil
	}
	prefix := release[:len(release)-1]
	last, err := strconv.Atoi(prefix[len(prefix)-1])
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInvalidSpecifier, err, "invalid version %q", version)
	}
	prefix[len(prefix)-1] = strconv.Itoa(last + 1)
	return fmt.Sprintf(">= %s, < %s", v, strings.Join(prefix, ".")), nil
}

// releaseSegments returns the leading numeric dot-separated segments.
func releaseSegments(version string) []string {
	if i := strings.IndexByte(version, '!'); i >= 0 {
		version = version[i+1:]
	}
	var out []string
	for _, seg := range strings.Split(version, ".") {
		end := 0
		for end < len(seg) && seg[end] >= '0' && seg[end] <= '9' {
			end++
		}
		if end == 0 {
			break
		}
		out = append(out, seg[:end])
		if end < len(seg) {
			break
		}
	}
	return out
}

func normalize(version string) (string, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// CompareVersions orders two version strings. Unparseable versions sort
// before parseable ones and compare lexically with each other.
func CompareVersions(a, b string) int {
	va, errA := ParseVersion(a)
	vb, errB := ParseVersion(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	default:
		return 1
	}
}
