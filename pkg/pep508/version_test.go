package pep508

import (
	"testing"

	errs "github.com/matzehuels/pyboot/pkg/errors"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.0.0", "1.0.0"},
		{"3.10", "3.10.0"},
		{"2", "2.0.0"},
		{"1.2.3.4", "1.2.3"},
		{"2.0rc1", "2.0.0-rc.1"},
		{"2.0b2", "2.0.0-beta.2"},
		{"1.0a1", "1.0.0-alpha.1"},
		{"1.0.dev3", "1.0.0-dev.3"},
		{"1.0.post1", "1.0.0"},
		{"1!2.0", "2.0.0"},
		{"1.0+cu121", "1.0.0+cu121"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseVersion(tt.in)
			if err != nil {
				t.Fatalf("ParseVersion(%q): %v", tt.in, err)
			}
			if v.String() != tt.want {
				t.Errorf("ParseVersion(%q) = %s, want %s", tt.in, v, tt.want)
			}
		})
	}
}

func TestParseVersionInvalid(t *testing.T) {
	for _, in := range []string{"", "latest", "abc.def"} {
		if _, err := ParseVersion(in); !errs.Is(err, errs.ErrCodeInvalidSpecifier) {
			t.Errorf("ParseVersion(%q) error = %v, want INVALID_SPECIFIER", in, err)
		}
	}
}

func TestSatisfies(t *testing.T) {
	tests := []struct {
		version string
		spec    string
		want    bool
	}{
		{"1.1.0", "x>=1.0.0,<1.2.0", true},
		{"1.2.0", "x>=1.0.0,<1.2.0", false},
		{"0.9.0", "x>=1.0.0,<1.2.0", false},
		{"2.31.0", "x==2.31.0", true},
		{"2.31.1", "x==2.31.0", false},
		{"2.31.1", "x!=2.31.0", true},
		{"1.3.5", "x==1.3.*", true},
		{"1.4.0", "x==1.3.*", false},
		{"1.4.0", "x!=1.3.*", true},
		{"2.5", "x~=2.2", true},
		{"3.0", "x~=2.2", false},
		{"2.1", "x~=2.2", false},
		{"1.4.9", "x~=1.4.5", true},
		{"1.5.0", "x~=1.4.5", false},
		{"1.0-local", "x===1.0-local", true},
		{"1.0", "x===1.0-local", false},
		{"2.0.0", "x", true},
		{"2.0rc1", "x>=1.0", false},
		{"2.0rc1", "x>=2.0rc1", true},
	}
	for _, tt := range tests {
		t.Run(tt.version+" "+tt.spec, func(t *testing.T) {
			dep, err := Parse(tt.spec)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.spec, err)
			}
			got, err := Satisfies(tt.version, dep.Version)
			if err != nil {
				t.Fatalf("Satisfies error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Satisfies(%s, %s) = %v, want %v", tt.version, tt.spec, got, tt.want)
			}
		})
	}
}

func TestSatisfiesInvalidVersion(t *testing.T) {
	_, err := Satisfies("latest", []DependencyVersion{{Operator: OpGreaterEqual, Version: "1.0"}})
	if !errs.Is(err, errs.ErrCodeInvalidSpecifier) {
		t.Errorf("error = %v, want INVALID_SPECIFIER", err)
	}
}

func TestConstraintRejectsWildcardOrdering(t *testing.T) {
	_, err := Constraint(DependencyVersion{Operator: OpGreaterEqual, Version: "1.*"})
	if !errs.Is(err, errs.ErrCodeInvalidSpecifier) {
		t.Errorf("error = %v, want INVALID_SPECIFIER", err)
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.2.0", -1},
		{"1.10.0", "1.9.0", 1},
		{"2.0", "2.0.0", 0},
		{"2.0rc1", "2.0", -1},
		{"latest", "1.0", -1},
		{"1.0", "latest", 1},
	}
	for _, tt := range tests {
		if got := CompareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
