package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/pyboot/pkg/cache"
	errs "github.com/matzehuels/pyboot/pkg/errors"
	"github.com/matzehuels/pyboot/pkg/observability"
	"github.com/matzehuels/pyboot/pkg/pep508"
	"github.com/matzehuels/pyboot/pkg/simpleindex"
)

// Candidate is the wheel chosen for a requirement.
type Candidate struct {
	Filename string   `json:"filename"`
	URL      string   `json:"url"`
	Version  string   `json:"version"`
	Tags     []string `json:"tags,omitempty"`

	version *semver.Version
}

// Resolved is one package of a Plan.
type Resolved struct {
	Name     string   `json:"name" yaml:"name"`
	Version  string   `json:"version" yaml:"version"`
	Filename string   `json:"filename" yaml:"filename"`
	URL      string   `json:"url" yaml:"url"`
	Extras   []string `json:"extras,omitempty" yaml:"extras,omitempty"`
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"` // Requires-Dist entries that applied
}

// Edge records that From required To through Specifier.
type Edge struct {
	From      string `json:"from" yaml:"from"`
	To        string `json:"to" yaml:"to"`
	Specifier string `json:"specifier" yaml:"specifier"`
}

// Plan is the outcome of BuildDownloadList. URLs and Packages are in
// resolution order.
type Plan struct {
	Roots    []string   `json:"roots" yaml:"roots"`
	URLs     []string   `json:"urls" yaml:"urls"`
	Packages []Resolved `json:"packages" yaml:"packages"`
	Edges    []Edge     `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// Resolver resolves requirements against a default index and any number of
// extra indexes. The extra-index directory belongs to the Resolver; each
// BuildDownloadList call has its own queue and results.
type Resolver struct {
	opts     Options
	index    *simpleindex.Client
	extra    *simpleindex.Directory
	accepted map[string]bool
}

// New creates a Resolver. opts.Index must be set.
func New(opts Options) (*Resolver, error) {
	if strings.TrimSpace(opts.Index) == "" {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "default index URL is required")
	}
	if err := errs.ValidateURL(opts.Index); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "default index")
	}
	opts = opts.WithDefaults()

	accepted := make(map[string]bool, len(opts.Tags))
	for _, t := range opts.Tags {
		accepted[t] = true
	}
	return &Resolver{
		opts: opts,
		index: simpleindex.NewClient(simpleindex.Options{
			HTTP:     opts.HTTP,
			Cache:    opts.Cache,
			CacheTTL: opts.CacheTTL,
			Keys:     opts.Keys,
		}),
		extra:    simpleindex.NewDirectory(),
		accepted: accepted,
	}, nil
}

// AddIndex loads the root page of an extra index. Its projects are searched
// before the default index from now on; a later AddIndex replaces earlier
// entries for the same project.
func (r *Resolver) AddIndex(ctx context.Context, indexURL string) error {
	n, err := r.index.Load(ctx, r.extra, indexURL)
	if err != nil {
		return err
	}
	r.opts.Logger("extra index %s: %d projects", indexURL, n)
	return nil
}

// FindPackage returns the newest acceptable wheel for name. A wheel is
// acceptable when one of its tags is accepted, it is not yanked, and its
// version satisfies constraint. Ties keep the first wheel seen, with extra
// indexes seen before the default index.
func (r *Resolver) FindPackage(ctx context.Context, name string, constraint []pep508.DependencyVersion) (*Candidate, error) {
	if err := errs.ValidatePythonPackageName(name); err != nil {
		return nil, err
	}

	var pages []string
	if page, ok := r.extra.Lookup(name); ok {
		pages = append(pages, page)
	}
	pages = append(pages, simpleindex.ProjectURL(r.opts.Index, name))

	var best *Candidate
	for _, page := range pages {
		links, err := r.index.Links(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, link := range links {
			c, err := r.candidate(link, constraint)
			if err != nil {
				return nil, err
			}
			if c != nil && (best == nil || c.version.GreaterThan(best.version)) {
				best = c
			}
		}
	}
	if best == nil {
		return nil, errs.New(errs.ErrCodePackageNotFound, "no matching distribution for %s%s", name, formatConstraint(constraint))
	}
	return best, nil
}

func (r *Resolver) candidate(link simpleindex.Link, constraint []pep508.DependencyVersion) (*Candidate, error) {
	if link.Yanked {
		return nil, nil
	}
	f, ok := ParseFilename(link.Label)
	if !ok || !f.HasAnyTag(r.accepted) {
		return nil, nil
	}
	v, err := pep508.ParseVersion(f.Version)
	if err != nil {
		return nil, nil
	}
	if len(constraint) > 0 {
		ok, err := pep508.Satisfies(f.Version, constraint)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	}
	return &Candidate{Filename: link.Label, URL: link.URL, Version: f.Version, Tags: f.Tags, version: v}, nil
}

// FetchMetadata reads the header block of the archive's
// *.dist-info/METADATA member.
func (r *Resolver) FetchMetadata(ctx context.Context, url string) (Metadata, error) {
	var meta Metadata
	err := cache.Cached(ctx, r.opts.Cache, "metadata", r.opts.Keys.MetadataKey(url), r.opts.CacheTTL, &meta, func() error {
		a, err := r.opts.Archive.Open(ctx, url)
		if err != nil {
			return err
		}
		e, ok := a.FindSuffix(".dist-info/METADATA")
		if !ok {
			return errs.New(errs.ErrCodeMetadataNotFound, "no .dist-info/METADATA in %s", url)
		}
		text, err := a.ReadMember(ctx, e.Name)
		if err != nil {
			return err
		}
		meta = ParseMetadata(text)
		return nil
	})
	return meta, err
}

// BuildDownloadList resolves roots and everything they require. Roots are
// names or full specifiers such as "requests[socks]>=2.30"; a root whose
// marker does not hold in the environment is skipped.
func (r *Resolver) BuildDownloadList(ctx context.Context, roots []string) (plan *Plan, err error) {
	start := time.Now()
	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, roots)
	defer func() {
		count := 0
		if plan != nil {
			count = len(plan.URLs)
		}
		hooks.OnResolveComplete(ctx, count, time.Since(start), err)
	}()

	q := newQueue()
	for _, root := range roots {
		dep, err := pep508.Parse(root)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidSpecifier, err, "root requirement %q", root)
		}
		if dep.URL != nil {
			return nil, errs.New(errs.ErrCodeInvalidInput, "direct URL requirements are not supported: %q", root)
		}
		ok, err := r.markerHolds(dep.Env, dep.Extras)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidMarker, err, "root requirement %q", root)
		}
		if !ok {
			r.opts.Logger("skipping %s: marker does not hold", root)
			continue
		}
		q.push(simpleindex.NormalizeName(dep.Name), dep.Version, dep.Extras)
	}

	result := &Plan{Roots: roots}
	for q.len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := q.pop()
		pkg, deps, err := r.resolveOne(ctx, item)
		if err != nil {
			return nil, err
		}
		result.URLs = append(result.URLs, pkg.URL)

		for _, dep := range deps {
			name := simpleindex.NormalizeName(dep.Name)
			pkg.Requires = append(pkg.Requires, dep.String())
			result.Edges = append(result.Edges, Edge{From: item.name, To: name, Specifier: dep.String()})
			if q.isDone(name) {
				continue
			}
			var constraint []pep508.DependencyVersion
			if r.opts.PropagateConstraints {
				constraint = dep.Version
			}
			q.push(name, constraint, dep.Extras)
		}
		result.Packages = append(result.Packages, *pkg)
	}
	return result, nil
}

func (r *Resolver) resolveOne(ctx context.Context, item *queueItem) (*Resolved, []*pep508.Dependency, error) {
	start := time.Now()
	hooks := observability.Resolve()
	hooks.OnPackageStart(ctx, item.name)

	c, err := r.FindPackage(ctx, item.name, item.constraint)
	if err != nil {
		return nil, nil, err
	}
	meta, err := r.FetchMetadata(ctx, c.URL)
	if err != nil {
		return nil, nil, annotate(err, "%s %s", item.name, c.Version)
	}
	deps, err := r.applicable(meta.RequiresDist(), item.extras)
	if err != nil {
		return nil, nil, annotate(err, "%s %s", item.name, c.Version)
	}

	r.opts.Logger("%s %s (%d requirements)", item.name, c.Version, len(deps))
	hooks.OnPackageResolved(ctx, item.name, c.Version, c.URL, time.Since(start))
	return &Resolved{
		Name:     item.name,
		Version:  c.Version,
		Filename: c.Filename,
		URL:      c.URL,
		Extras:   item.extras,
	}, deps, nil
}

// applicable parses requires-dist entries and keeps those whose marker holds
// in the environment, or holds once one of the requested extras is set.
func (r *Resolver) applicable(requires []string, extras []string) ([]*pep508.Dependency, error) {
	var out []*pep508.Dependency
	for _, spec := range requires {
		dep, err := pep508.Parse(spec)
		if err != nil {
			return nil, err
		}
		ok, err := r.markerHolds(dep.Env, extras)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, dep)
		}
	}
	return out, nil
}

func (r *Resolver) markerHolds(m pep508.Marker, extras []string) (bool, error) {
	ok, err := pep508.Evaluate(m, r.opts.Env)
	if err != nil || ok {
		return ok, err
	}
	for _, extra := range extras {
		env := r.opts.Env.Clone()
		env["extra"] = pep508.String(extra)
		ok, err := pep508.Evaluate(m, env)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func formatConstraint(c []pep508.DependencyVersion) string {
	if len(c) == 0 {
		return ""
	}
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = v.String()
	}
	return " " + strings.Join(parts, ",")
}

// annotate prefixes err with context while keeping its code. Errors without
// a code, such as context cancellation, pass through unchanged.
func annotate(err error, format string, args ...any) error {
	if code := errs.GetCode(err); code != "" {
		return errs.Wrap(code, err, format, args...)
	}
	return err
}
