// Package render draws a resolved plan as a node-link diagram.
//
// [DOT] converts a [resolver.Plan] to Graphviz DOT source: one rounded box
// per resolved package, root requirements drawn bold, and one arrow per
// requirement edge. [SVG] lays the DOT source out in-process with
// [github.com/goccy/go-graphviz]:
//
//	dot := render.DOT(plan, render.Options{Detailed: true})
//	svg, err := render.SVG(ctx, dot)
//
// [WriteFile] picks the format from the output file extension.
package render
