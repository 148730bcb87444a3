package manifest

import (
	"bufio"
	"bytes"
	"strings"

	errs "github.com/matzehuels/pyboot/pkg/errors"
	"github.com/matzehuels/pyboot/pkg/pep508"
)

// Requirements parses pip requirements files.
type Requirements struct{}

func (r *Requirements) Type() string { return "requirements.txt" }

func (r *Requirements) Supports(name string) bool {
	return name == "requirements.txt" ||
		(strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"))
}

// Parse reads one specifier per logical line. Comments, blank lines,
// pip options and direct URL references are skipped; a line that is not a
// valid specifier fails with INVALID_SPECIFIER naming its line number.
func (r *Requirements) Parse(path string) (*Result, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	reqs, err := ParseRequirements(data)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidSpecifier, err, "%s", path)
	}
	return &Result{Type: r.Type(), Requirements: reqs}, nil
}

// ParseRequirements returns the specifiers of a requirements file in file
// order.
func ParseRequirements(data []byte) ([]string, error) {
	var (
		c       collector
		pending string
		start   int
		lineNo  int
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if pending == "" {
			start = lineNo
		}
		if strings.HasSuffix(line, `\`) {
			pending += strings.TrimSuffix(line, `\`) + " "
			continue
		}
		line = stripComment(pending + line)
		pending = ""

		if line == "" || line[0] == '-' {
			continue
		}
		if strings.Contains(line, "://") || strings.HasPrefix(line, "git+") {
			continue
		}
		dep, err := pep508.Parse(line)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidSpecifier, err, "line %d", start)
		}
		c.add(dep)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read requirements")
	}
	return c.requirements(), nil
}

// stripComment drops a trailing "# ..." comment. pip only treats '#' as a
// comment when it starts the line or follows whitespace.
func stripComment(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}
	for i := 1; i < len(line); i++ {
		if line[i] == '#' && (line[i-1] == ' ' || line[i-1] == '\t') {
			return strings.TrimSpace(line[:i])
		}
	}
	return line
}
