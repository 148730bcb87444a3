package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/pyboot/pkg/pep508"
	"github.com/matzehuels/pyboot/pkg/resolver"
	"github.com/matzehuels/pyboot/pkg/simpleindex"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds versions to node labels and specifiers to edges.
	// When false, only package names are shown.
	Detailed bool
}

// DOT converts plan to Graphviz DOT source. Packages appear in resolution
// order; repeated edges between the same pair are drawn once.
func DOT(plan *resolver.Plan, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	roots := rootNames(plan.Roots)
	for _, p := range plan.Packages {
		attrs := []string{fmt.Sprintf("label=%q", nodeLabel(p, opts.Detailed))}
		if roots[p.Name] {
			attrs = append(attrs, "penwidth=3", "fillcolor=\"#e8f0fe\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", p.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	seen := make(map[[2]string]bool, len(plan.Edges))
	for _, e := range plan.Edges {
		key := [2]string{e.From, e.To}
		if seen[key] {
			continue
		}
		seen[key] = true
		if opts.Detailed && e.Specifier != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q, fontsize=14];\n", e.From, e.To, e.Specifier)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(p resolver.Resolved, detailed bool) string {
	if !detailed {
		return p.Name
	}
	label := p.Name + "\n" + p.Version
	if len(p.Extras) > 0 {
		label += "\n[" + strings.Join(p.Extras, ",") + "]"
	}
	return label
}

// rootNames returns the normalised names of root specifiers. Specifiers
// that fail to parse are ignored; the resolver rejects them first.
func rootNames(roots []string) map[string]bool {
	out := make(map[string]bool, len(roots))
	for _, r := range roots {
		dep, err := pep508.Parse(r)
		if err != nil {
			continue
		}
		out[simpleindex.NormalizeName(dep.Name)] = true
	}
	return out
}
