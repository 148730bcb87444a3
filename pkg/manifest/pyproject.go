package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	errs "github.com/matzehuels/pyboot/pkg/errors"
	"github.com/matzehuels/pyboot/pkg/pep508"
)

// Pyproject parses pyproject.toml files.
type Pyproject struct {
	// Groups selects [project.optional-dependencies] groups to include.
	Groups []string
}

func (p *Pyproject) Type() string              { return "pyproject.toml" }
func (p *Pyproject) Supports(name string) bool { return name == "pyproject.toml" }

type pyprojectFile struct {
	Project struct {
		Name                 string              `toml:"name"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name         string         `toml:"name"`
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// Parse reads [project].dependencies plus the selected optional groups.
// Projects without a [project] table fall back to Poetry's
// [tool.poetry.dependencies].
func (p *Pyproject) Parse(path string) (*Result, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var f pyprojectFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse %s", path)
	}

	var c collector
	if len(f.Project.Dependencies) > 0 || f.Tool.Poetry.Dependencies == nil {
		specs := append([]string(nil), f.Project.Dependencies...)
		for _, g := range p.Groups {
			group, ok := f.Project.OptionalDependencies[g]
			if !ok {
				return nil, errs.New(errs.ErrCodeInvalidInput, "%s: no optional dependency group %q", path, g)
			}
			specs = append(specs, group...)
		}
		for _, s := range specs {
			dep, err := pep508.Parse(s)
			if err != nil {
				return nil, errs.Wrap(errs.ErrCodeInvalidSpecifier, err, "%s", path)
			}
			if dep.URL != nil {
				continue
			}
			c.add(dep)
		}
		return &Result{Type: p.Type(), Project: f.Project.Name, Requirements: c.requirements()}, nil
	}

	names := make([]string, 0, len(f.Tool.Poetry.Dependencies))
	for name := range f.Tool.Poetry.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.EqualFold(name, "python") {
			continue
		}
		specs, err := poetrySpecifiers(name, f.Tool.Poetry.Dependencies[name])
		if err != nil {
			code := errs.GetCode(err)
			if code == "" {
				code = errs.ErrCodeInvalidSpecifier
			}
			return nil, errs.Wrap(code, err, "%s: dependency %s", path, name)
		}
		for _, spec := range specs {
			dep, err := pep508.Parse(spec)
			if err != nil {
				return nil, errs.Wrap(errs.ErrCodeInvalidSpecifier, err, "%s: dependency %s", path, name)
			}
			c.add(dep)
		}
	}
	return &Result{Type: p.Type(), Project: f.Tool.Poetry.Name, Requirements: c.requirements()}, nil
}

// poetrySpecifiers turns one [tool.poetry.dependencies] entry into PEP 508
// specifiers. A multiple-constraint array yields one specifier per element;
// git, path, URL and optional dependencies yield none.
func poetrySpecifiers(name string, value any) ([]string, error) {
	if tables, ok := value.([]map[string]any); ok {
		list := make([]any, len(tables))
		for i, t := range tables {
			list[i] = t
		}
		value = list
	}
	list, ok := value.([]any)
	if !ok {
		spec, ok, err := poetrySpecifier(name, value)
		if err != nil || !ok {
			return nil, err
		}
		return []string{spec}, nil
	}
	var specs []string
	for _, v := range list {
		if _, nested := v.([]any); nested {
			return nil, errs.New(errs.ErrCodeInvalidInput, "nested constraint array")
		}
		spec, ok, err := poetrySpecifier(name, v)
		if err != nil {
			return nil, err
		}
		if ok {
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

// poetrySpecifier converts a single string or table entry.
func poetrySpecifier(name string, value any) (string, bool, error) {
	var (
		version string
		extras  []string
		markers string
	)
	switch v := value.(type) {
	case string:
		version = v
	case map[string]any:
		for _, key := range []string{"git", "path", "url"} {
			if _, ok := v[key]; ok {
				return "", false, nil
			}
		}
		if opt, _ := v["optional"].(bool); opt {
			return "", false, nil
		}
		version, _ = v["version"].(string)
		markers, _ = v["markers"].(string)
		if list, ok := v["extras"].([]any); ok {
			for _, e := range list {
				if s, ok := e.(string); ok {
					extras = append(extras, s)
				}
			}
		}
	default:
		return "", false, errs.New(errs.ErrCodeInvalidInput, "unsupported value %T", value)
	}

	constraint, err := poetryConstraint(version)
	if err != nil {
		return "", false, err
	}
	spec := name
	if len(extras) > 0 {
		spec += "[" + strings.Join(extras, ",") + "]"
	}
	spec += constraint
	if markers != "" {
		spec += "; " + markers
	}
	return spec, true, nil
}

// poetryConstraint translates Poetry's constraint syntax. Caret and tilde
// ranges become explicit bounds; a bare version pins with ==; PEP 440
// clauses pass through.
func poetryConstraint(c string) (string, error) {
	c = strings.TrimSpace(c)
	switch {
	case c == "" || c == "*":
		return "", nil
	case strings.HasPrefix(c, "^"):
		return caretRange(strings.TrimSpace(c[1:]))
	case strings.HasPrefix(c, "~") && !strings.HasPrefix(c, "~="):
		return tildeRange(strings.TrimSpace(c[1:]))
	case c[0] >= '0' && c[0] <= '9':
		return "==" + c, nil
	default:
		return c, nil
	}
}

func caretRange(v string) (string, error) {
	ver, n, err := poetryVersion(v)
	if err != nil {
		return "", err
	}
	var upper semver.Version
	switch {
	case ver.Major() > 0 || n == 1:
		upper = ver.IncMajor()
	case ver.Minor() > 0 || n == 2:
		upper = ver.IncMinor()
	default:
		upper = ver.IncPatch()
	}
	return fmt.Sprintf(">=%s,<%s", v, upper.String()), nil
}

func tildeRange(v string) (string, error) {
	ver, n, err := poetryVersion(v)
	if err != nil {
		return "", err
	}
	upper := ver.IncMinor()
	if n == 1 {
		upper = ver.IncMajor()
	}
	return fmt.Sprintf(">=%s,<%s", v, upper.String()), nil
}

// poetryVersion parses v and reports how many release segments it names.
func poetryVersion(v string) (*semver.Version, int, error) {
	ver, err := semver.NewVersion(v)
	if err != nil {
		return nil, 0, errs.Wrap(errs.ErrCodeInvalidSpecifier, err, "invalid version %q", v)
	}
	release, _, _ := strings.Cut(v, "-")
	return ver, strings.Count(release, ".") + 1, nil
}

// projectName reads the project name from the pyproject.toml next to a
// lock file.
func projectName(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
	if err != nil {
		return ""
	}
	var f pyprojectFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return ""
	}
	if f.Tool.Poetry.Name != "" {
		return f.Tool.Poetry.Name
	}
	return f.Project.Name
}
