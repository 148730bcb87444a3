package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "github.com/matzehuels/pyboot/pkg/errors"
	"github.com/matzehuels/pyboot/pkg/resolver"
)

func testPlan() *resolver.Plan {
	return &resolver.Plan{
		Roots: []string{"Web[fast]>=1"},
		Packages: []resolver.Resolved{
			{Name: "web", Version: "1.2", Extras: []string{"fast"}},
			{Name: "router", Version: "0.4"},
			{Name: "orjson", Version: "3.9"},
		},
		Edges: []resolver.Edge{
			{From: "web", To: "router", Specifier: "router>=0.3"},
			{From: "web", To: "orjson", Specifier: `orjson; extra == "fast"`},
			{From: "router", To: "web", Specifier: "web"},
			{From: "web", To: "router", Specifier: "router"},
		},
	}
}

func TestDOT(t *testing.T) {
	dot := DOT(testPlan(), Options{})

	for _, want := range []string{
		"digraph G {",
		`"web" [label="web", penwidth=3`,
		`"router" [label="router"];`,
		`"web" -> "router";`,
		`"router" -> "web";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if n := strings.Count(dot, `"web" -> "router"`); n != 1 {
		t.Errorf("web -> router drawn %d times, want 1", n)
	}
}

func TestDOTDetailed(t *testing.T) {
	dot := DOT(testPlan(), Options{Detailed: true})
	for _, want := range []string{
		`label="web\n1.2\n[fast]"`,
		`label="router\n0.4"`,
		`"web" -> "router" [label="router>=0.3", fontsize=14];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestDOTEmptyPlan(t *testing.T) {
	dot := DOT(&resolver.Plan{}, Options{})
	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("unexpected DOT:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := normalizeViewBox(in)
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116"><g/></svg>`
	if string(out) != want {
		t.Errorf("normalizeViewBox =\n%s\nwant\n%s", out, want)
	}

	plain := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(plain); !bytes.Equal(got, plain) {
		t.Errorf("svg without viewBox changed: %s", got)
	}
}

func TestSVG(t *testing.T) {
	svg, err := SVG(context.Background(), DOT(testPlan(), Options{}))
	if err != nil {
		t.Fatalf("SVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Contains(svg, []byte("router")) {
		t.Errorf("unexpected SVG output: %.200s", svg)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	path := filepath.Join(dir, "plan.dot")
	if err := WriteFile(ctx, path, testPlan(), Options{}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("plan.dot = %.40q", data)
	}

	err = WriteFile(ctx, filepath.Join(dir, "plan.png"), testPlan(), Options{})
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("png: err = %v, want INVALID_INPUT", err)
	}
}
