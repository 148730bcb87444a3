package pep508

import (
	"reflect"
	"testing"

	errs "github.com/matzehuels/pyboot/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Dependency
		wantEnv string
	}{
		{
			name:  "bare name",
			input: "requests",
			want:  &Dependency{Name: "requests"},
		},
		{
			name:  "single clause",
			input: "requests>=2.8.1",
			want: &Dependency{Name: "requests", Version: []DependencyVersion{
				{Operator: OpGreaterEqual, Version: "2.8.1"},
			}},
		},
		{
			name:  "multiple clauses with spaces",
			input: "urllib3 >= 1.21.1, < 3",
			want: &Dependency{Name: "urllib3", Version: []DependencyVersion{
				{Operator: OpGreaterEqual, Version: "1.21.1"},
				{Operator: OpLess, Version: "3"},
			}},
		},
		{
			name:  "parenthesised clauses",
			input: "name (>=1.0, !=1.3.*)",
			want: &Dependency{Name: "name", Version: []DependencyVersion{
				{Operator: OpGreaterEqual, Version: "1.0"},
				{Operator: OpNotEqual, Version: "1.3.*"},
			}},
		},
		{
			name:  "extras",
			input: "requests[security, socks]==2.31.0",
			want: &Dependency{Name: "requests", Extras: []string{"security", "socks"}, Version: []DependencyVersion{
				{Operator: OpEqual, Version: "2.31.0"},
			}},
		},
		{
			name:  "arbitrary equality",
			input: "foo===1.0-local",
			want: &Dependency{Name: "foo", Version: []DependencyVersion{
				{Operator: OpArbitrary, Version: "1.0-local"},
			}},
		},
		{
			name:  "compatible release",
			input: "idna~=3.4",
			want: &Dependency{Name: "idna", Version: []DependencyVersion{
				{Operator: OpCompatible, Version: "3.4"},
			}},
		},
		{
			name:  "direct url",
			input: "pip @ https://github.com/pypa/pip/archive/1.3.1.zip#sha1=da9234ee",
			want:  &Dependency{Name: "pip", URL: &DependencyURL{URL: "https://github.com/pypa/pip/archive/1.3.1.zip#sha1=da9234ee"}},
		},
		{
			name:    "direct url with marker",
			input:   `pip @ https://example.com/pip.whl ; python_version >= "3.8"`,
			want:    &Dependency{Name: "pip", URL: &DependencyURL{URL: "https://example.com/pip.whl"}},
			wantEnv: `python_version >= "3.8"`,
		},
		{
			name:    "marker",
			input:   `PySocks!=1.5.7,>=1.5.6; extra == "socks"`,
			want:    &Dependency{Name: "PySocks", Version: []DependencyVersion{{Operator: OpNotEqual, Version: "1.5.7"}, {Operator: OpGreaterEqual, Version: "1.5.6"}}},
			wantEnv: `extra == "socks"`,
		},
		{
			name:    "single quoted marker",
			input:   `colorama; sys_platform == 'win32'`,
			want:    &Dependency{Name: "colorama"},
			wantEnv: `sys_platform == "win32"`,
		},
		{
			name:    "reversed comparison",
			input:   `foo; "linux" in sys_platform`,
			want:    &Dependency{Name: "foo"},
			wantEnv: `"linux" in sys_platform`,
		},
		{
			name:    "not in",
			input:   `foo; platform_machine not in "arm64 aarch64"`,
			want:    &Dependency{Name: "foo"},
			wantEnv: `platform_machine not in "arm64 aarch64"`,
		},
		{
			name:    "and binds tighter than or",
			input:   `foo; os_name == "nt" or os_name == "posix" and python_version < "3.9"`,
			want:    &Dependency{Name: "foo"},
			wantEnv: `os_name == "nt" or (os_name == "posix" and python_version < "3.9")`,
		},
		{
			name:    "parentheses",
			input:   `foo; (os_name == "nt" or os_name == "posix") and python_version < "3.9"`,
			want:    &Dependency{Name: "foo"},
			wantEnv: `(os_name == "nt" or os_name == "posix") and python_version < "3.9"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			env := got.Env
			got.Env = nil
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			gotEnv := ""
			if env != nil {
				gotEnv = env.String()
			}
			if gotEnv != tt.wantEnv {
				t.Errorf("Parse(%q).Env = %q, want %q", tt.input, gotEnv, tt.wantEnv)
			}
		})
	}
}

func TestParseFlattensSameOperatorChains(t *testing.T) {
	tests := []struct {
		input    string
		op       BoolOp
		children int
	}{
		{`a == "1" and b == "2" and c == "3"`, And, 3},
		{`a == "1" or b == "2" or c == "3" or d == "4"`, Or, 4},
		{`(a == "1" or b == "2") or c == "3"`, Or, 3},
		{`a == "1" and (b == "2" and c == "3")`, And, 3},
		{`(a == "1" or b == "2") and c == "3"`, And, 2},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := ParseMarker(tt.input)
			if err != nil {
				t.Fatalf("ParseMarker error: %v", err)
			}
			c, ok := m.(*Condition)
			if !ok {
				t.Fatalf("got %T, want *Condition", m)
			}
			if c.Operator != tt.op {
				t.Errorf("Operator = %q, want %q", c.Operator, tt.op)
			}
			if len(c.Markers) != tt.children {
				t.Errorf("children = %d, want %d", len(c.Markers), tt.children)
			}
		})
	}
}

func TestParseSingleComparisonIsNotWrapped(t *testing.T) {
	m, err := ParseMarker(`python_version >= "3.8"`)
	if err != nil {
		t.Fatal(err)
	}
	c, ok := m.(*Comparison)
	if !ok {
		t.Fatalf("got %T, want *Comparison", m)
	}
	want := &Comparison{Variable: "python_version", Operator: OpGreaterEqual, Value: "3.8"}
	if !reflect.DeepEqual(c, want) {
		t.Errorf("got %+v, want %+v", c, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
	}{
		{"empty", "", ""},
		{"leading operator", ">=1.0", ""},
		{"trailing garbage", "foo bar", "foo"},
		{"unclosed extras", "foo[bar", "foo"},
		{"missing version", "foo>=", "foo"},
		{"unclosed paren", "foo (>=1.0", "foo"},
		{"empty url", "foo @ ", "foo"},
		{"empty marker", "foo;", "foo"},
		{"unterminated string", `foo; os_name == "nt`, "foo"},
		{"missing marker operator", `foo; os_name "nt"`, "foo"},
		{"two literals", `foo; "a" == "b"`, "foo"},
		{"two variables", `foo; os_name == sys_platform`, "foo"},
		{"dangling and", `foo; os_name == "nt" and`, "foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tt.input)
			}
			if !errs.Is(err, errs.ErrCodeInvalidSpecifier) {
				t.Errorf("error code = %q, want INVALID_SPECIFIER", errs.GetCode(err))
			}
			if got == nil {
				t.Fatal("Parse should return a partial result alongside the error")
			}
			if got.Name != tt.wantName {
				t.Errorf("partial Name = %q, want %q", got.Name, tt.wantName)
			}
		})
	}
}

func TestParsePartialResultKeepsClauses(t *testing.T) {
	got, err := Parse(`foo>=1.0,<2; os_name ==`)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(got.Version) != 2 {
		t.Errorf("partial Version = %v, want two clauses", got.Version)
	}
}

func TestDependencyString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"requests", "requests"},
		{"requests [socks] >= 2.0 , < 3", "requests[socks]>=2.0,<3"},
		{`foo; os_name=='nt'`, `foo; os_name == "nt"`},
		{`pip @ https://x/pip.whl ; os_name == "nt"`, `pip @ https://x/pip.whl ; os_name == "nt"`},
	}
	for _, tt := range tests {
		dep, err := Parse(tt.input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.input, err)
		}
		if got := dep.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
