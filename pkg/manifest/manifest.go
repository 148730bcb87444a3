package manifest

import (
	"os"
	"path/filepath"

	errs "github.com/matzehuels/pyboot/pkg/errors"
	"github.com/matzehuels/pyboot/pkg/pep508"
	"github.com/matzehuels/pyboot/pkg/simpleindex"
)

// Parser reads root requirements from one kind of project file.
type Parser interface {
	// Parse reads the file at path.
	Parse(path string) (*Result, error)
	// Supports reports whether this parser handles the given filename.
	Supports(filename string) bool
	// Type returns the manifest type identifier (e.g. "requirements.txt").
	Type() string
}

// Result holds the requirements found in a manifest.
type Result struct {
	Type         string   `json:"type" yaml:"type"`
	Project      string   `json:"project,omitempty" yaml:"project,omitempty"` // Project name, if declared
	Requirements []string `json:"requirements" yaml:"requirements"`
}

// Parsers returns one parser per supported format.
func Parsers() []Parser {
	return []Parser{&Requirements{}, &Pyproject{}, &PoetryLock{}}
}

// Detect finds a parser that supports the base name of path.
func Detect(path string, parsers ...Parser) (Parser, error) {
	if len(parsers) == 0 {
		parsers = Parsers()
	}
	name := filepath.Base(path)
	for _, p := range parsers {
		if p.Supports(name) {
			return p, nil
		}
	}
	return nil, errs.New(errs.ErrCodeInvalidInput, "unsupported manifest: %s", name)
}

// Load detects the format of path and parses it.
func Load(path string) (*Result, error) {
	p, err := Detect(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(path)
}

// collector deduplicates requirements by normalised name and marker. Entries
// for one project under different markers are alternatives and all kept;
// the resolver evaluates them.
type collector struct {
	seen map[string]bool
	out  []string
}

func (c *collector) add(dep *pep508.Dependency) {
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	key := simpleindex.NormalizeName(dep.Name)
	if dep.Env != nil {
		key += ";" + dep.Env.String()
	}
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.out = append(c.out, dep.String())
}

func (c *collector) requirements() []string {
	if c.out == nil {
		return []string{}
	}
	return c.out
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "manifest %s not found", path)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "read %s", path)
	}
	return data, nil
}
