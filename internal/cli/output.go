package cli

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/pyboot/pkg/errors"
)

// Output formats shared by commands.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// checkFormat rejects formats outside allowed.
func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return errs.New(errs.ErrCodeInvalidInput, "unknown format %q (want one of %v)", format, allowed)
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errs.New(errs.ErrCodeInvalidInput, "format %q is not structured", format)
	}
}
