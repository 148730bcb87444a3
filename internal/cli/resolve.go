package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/pyboot/pkg/errors"
	"github.com/matzehuels/pyboot/pkg/manifest"
	"github.com/matzehuels/pyboot/pkg/render"
	"github.com/matzehuels/pyboot/pkg/resolver"
)

const formatURLs = "urls"

// resolveOpts holds the command-line flags for the resolve command.
type resolveOpts struct {
	requirements []string // requirements / lock files to read roots from
	pyprojects   []string // pyproject.toml files to read roots from
	groups       []string // pyproject optional-dependency groups
	extraIndex   []string // extra index URLs searched before the default
	env          []string // marker overrides, var=[type:]value
	format       string   // text, urls, json or yaml
	graph        string   // write the requirement graph to a .dot or .svg file
	detailed     bool     // versions and specifiers in the graph
	tui          bool     // live progress view
	propagate    bool     // apply transitive version constraints
}

// resolveCommand creates the resolve command: roots in, download list out.
func (c *CLI) resolveCommand() *cobra.Command {
	opts := resolveOpts{format: formatText}

	cmd := &cobra.Command{
		Use:   "resolve [requirement...]",
		Short: "Resolve requirements to a list of wheel URLs",
		Long: `Resolve requirements and everything they depend on to a list of wheel URLs.

Requirements are package names or PEP 508 specifiers. Roots can also be read
from requirements files, pyproject.toml or poetry.lock.

Examples:
  pyboot resolve requests
  pyboot resolve "fastapi[all]>=0.100" --format urls
  pyboot resolve -r requirements.txt --env sys_platform=linux
  pyboot resolve --pyproject pyproject.toml --group test --graph deps.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format, formatText, formatURLs, formatJSON, formatYAML); err != nil {
				return err
			}
			roots, err := collectRoots(args, opts)
			if err != nil {
				return err
			}
			if len(roots) == 0 {
				return errs.New(errs.ErrCodeInvalidInput, "no requirements given")
			}
			return c.runResolve(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), roots, opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.requirements, "requirements", "r", nil, "read roots from a requirements.txt or poetry.lock file")
	f.StringArrayVar(&opts.pyprojects, "pyproject", nil, "read roots from a pyproject.toml file")
	f.StringSliceVar(&opts.groups, "group", nil, "pyproject optional-dependency groups to include")
	f.StringArrayVar(&opts.extraIndex, "extra-index", nil, "extra index URL searched before the default index")
	f.StringArrayVar(&opts.env, "env", nil, "override a marker variable: var=[string|number|semver:]value")
	f.StringVarP(&opts.format, "format", "f", opts.format, "output format: text, urls, json or yaml")
	f.StringVar(&opts.graph, "graph", "", "write the requirement graph to a .dot or .svg file")
	f.BoolVar(&opts.detailed, "detailed", false, "show versions and specifiers in the graph")
	f.BoolVar(&opts.tui, "tui", false, "show live resolution progress")
	f.BoolVar(&opts.propagate, "propagate-constraints", false, "apply version constraints of transitive requirements")

	return cmd
}

// collectRoots merges positional requirements with those read from files.
func collectRoots(args []string, opts resolveOpts) ([]string, error) {
	roots := append([]string(nil), args...)
	for _, path := range opts.requirements {
		res, err := manifest.Load(path)
		if err != nil {
			return nil, err
		}
		roots = append(roots, res.Requirements...)
	}
	for _, path := range opts.pyprojects {
		res, err := (&manifest.Pyproject{Groups: opts.groups}).Parse(path)
		if err != nil {
			return nil, err
		}
		roots = append(roots, res.Requirements...)
	}
	return roots, nil
}

func (c *CLI) runResolve(ctx context.Context, out, status io.Writer, roots []string, opts resolveOpts) error {
	s, err := c.newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	logger, runID := withRun(s.logger)
	s.logger = logger
	env, err := markerEnv(s.cfg, opts.env)
	if err != nil {
		return err
	}
	r, err := s.resolver(ctx, env, opts.extraIndex, opts.propagate)
	if err != nil {
		return err
	}
	logger.Debug("resolving", "roots", roots, "index", s.cfg.Index, "run_id", runID)

	build := func(ctx context.Context) (*resolver.Plan, error) {
		return r.BuildDownloadList(ctx, roots)
	}

	prog := newProgress(logger)
	var plan *resolver.Plan
	switch {
	case opts.tui:
		plan, err = runResolveTUI(ctx, status, roots, build)
	case isTerminal(status):
		spin := newSpinner(ctx, status, "Resolving")
		spin.Start()
		withResolveHooks(&spinnerHooks{spinner: spin}, func() {
			plan, err = build(ctx)
		})
		spin.Stop()
	default:
		plan, err = build(ctx)
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Resolved %d packages", len(plan.Packages)))

	if opts.graph != "" {
		if err := render.WriteFile(ctx, opts.graph, plan, render.Options{Detailed: opts.detailed}); err != nil {
			return err
		}
		printFile(status, opts.graph)
	}
	return writePlan(out, opts.format, plan)
}

// writePlan prints plan in format.
func writePlan(w io.Writer, format string, plan *resolver.Plan) error {
	switch format {
	case formatURLs:
		for _, u := range plan.URLs {
			fmt.Fprintln(w, u)
		}
		return nil
	case formatJSON, formatYAML:
		return writeStructured(w, format, plan)
	}

	rows := make([][]string, len(plan.Packages))
	for i, p := range plan.Packages {
		rows[i] = []string{p.Name, p.Version, p.Filename}
	}
	fmt.Fprintln(w, renderTable([]string{"Package", "Version", "File"}, rows))
	printStats(w, fmt.Sprintf("%d packages", len(plan.Packages)), fmt.Sprintf("%d edges", len(plan.Edges)))
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
