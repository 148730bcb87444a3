package manifest

import (
	"path/filepath"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/pyboot/pkg/errors"
	"github.com/matzehuels/pyboot/pkg/pep508"
)

// PoetryLock parses poetry.lock files. Every locked package becomes a root
// pinned with ==, so resolution reproduces the lock without consulting
// constraints.
type PoetryLock struct {
	// IncludeDev keeps packages locked under the "dev" category.
	IncludeDev bool
}

func (p *PoetryLock) Type() string              { return "poetry.lock" }
func (p *PoetryLock) Supports(name string) bool { return name == "poetry.lock" }

type lockFile struct {
	Packages []lockPackage `toml:"package"`
}

type lockPackage struct {
	Name     string `toml:"name"`
	Version  string `toml:"version"`
	Category string `toml:"category"`
	Optional bool   `toml:"optional"`
}

func (p *PoetryLock) Parse(path string) (*Result, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	var lock lockFile
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse %s", path)
	}

	var c collector
	for _, pkg := range lock.Packages {
		if pkg.Category == "dev" && !p.IncludeDev {
			continue
		}
		dep := &pep508.Dependency{Name: pkg.Name}
		if pkg.Version != "" {
			dep.Version = []pep508.DependencyVersion{{Operator: pep508.OpEqual, Version: pkg.Version}}
		}
		c.add(dep)
	}
	return &Result{
		Type:         p.Type(),
		Project:      projectName(filepath.Dir(path)),
		Requirements: c.requirements(),
	}, nil
}
