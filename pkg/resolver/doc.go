// Package resolver turns a set of root requirements into the flat list of
// wheel URLs needed to install them.
//
// Resolution is a breadth-first walk over requirement names:
//
//  1. pop a name from the queue and mark it done
//  2. pick the best wheel for it from the extra indexes, then the default
//     index ([Resolver.FindPackage])
//  3. read the wheel's METADATA without downloading it
//     ([Resolver.FetchMetadata])
//  4. queue every Requires-Dist entry whose marker holds in the target
//     environment and whose name is not done yet
//
// Every name is marked done before its dependencies are queued, so cycles
// terminate. Work is strictly sequential and any error aborts the run.
//
// # Constraints
//
// Version constraints on the roots are honoured. Constraints found on
// transitive Requires-Dist entries are ignored unless
// [Options.PropagateConstraints] is set; each transitive name then gets the
// newest acceptable wheel.
//
// # Usage
//
//	r, err := resolver.New(resolver.Options{
//	    Index: "https://pypi.org/simple",
//	    Tags:  []string{"py3", "any"},
//	    Env:   pep508.DefaultEnv("3.11"),
//	})
//	plan, err := r.BuildDownloadList(ctx, []string{"requests>=2.30"})
//	for _, u := range plan.URLs {
//	    fmt.Println(u)
//	}
package resolver
