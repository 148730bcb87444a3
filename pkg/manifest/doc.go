// Package manifest reads root requirements from Python project files.
//
// Three formats are understood:
//
//   - requirements*.txt: one PEP 508 specifier per line. Options such as
//     -r or -e and direct URL references are skipped.
//   - pyproject.toml: [project].dependencies, falling back to
//     [tool.poetry.dependencies] with caret and tilde constraints
//     translated to PEP 440 ranges.
//   - poetry.lock: every locked package pinned with ==.
//
// Every parser returns specifier strings ready for
// [github.com/matzehuels/pyboot/pkg/resolver.Resolver.BuildDownloadList].
// Duplicate names (after PEP 503 normalisation) keep their first entry.
package manifest
