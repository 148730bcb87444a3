// Package pep508 parses Python dependency specifiers and evaluates
// environment markers.
//
// # Specifiers
//
// [Parse] turns a requirement string as found in a wheel's Requires-Dist
// header into a [Dependency]:
//
//	dep, err := pep508.Parse(`requests[socks]>=2.8.1,<3; python_version >= "3.8"`)
//	// dep.Name    == "requests"
//	// dep.Extras  == []string{"socks"}
//	// dep.Version == [{>= 2.8.1} {< 3}]
//	// dep.Env     == Comparison{python_version >= 3.8}
//
// A direct reference (`name @ https://...`) populates [Dependency.URL]
// instead of [Dependency.Version]; the two are mutually exclusive.
//
// Parsing is a pure function: there is no parser object and no state shared
// between calls, so it is safe to call from any number of goroutines. When
// the input is malformed, Parse still returns whatever it recognised before
// the error, together with an INVALID_SPECIFIER error. Callers must check
// the error rather than assume a non-nil Dependency is complete.
//
// # Markers
//
// Marker expressions are trees of [Comparison] leaves joined by [Condition]
// nodes. Chains of the same boolean operator are flattened into a single
// Condition, so `a and b and c` is one node with three children and
// `(a or b) or c` is one node as well.
//
// [Evaluate] checks a marker against an [Env] of typed variables:
//
//	env := pep508.Env{
//	    "python_version": pep508.Semver("3.11"),
//	    "sys_platform":   pep508.String("linux"),
//	}
//	ok, err := pep508.Evaluate(dep.Env, env)
//
// A comparison on a variable missing from the environment is false. This is
// how `extra == "socks"` dependencies are excluded when no extras are
// requested.
//
// # Versions
//
// Python versions are mapped onto semantic versions ([ParseVersion]) and
// clause lists are checked with [Satisfies]. `~=` is compatible-release
// matching and `===` compares the raw strings.
package pep508
