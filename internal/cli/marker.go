package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pyboot/pkg/pep508"
)

// markerCommand parses and evaluates an environment marker.
func (c *CLI) markerCommand() *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "marker <expression>",
		Short: "Evaluate an environment marker",
		Long: `Parse an environment marker, print its canonical form and evaluate it
against the configured environment.

Variables default to the host platform and the configured Python version.
Override them with --set var=[string|number|semver:]value.

Examples:
  pyboot marker 'python_version >= "3.8" and sys_platform == "linux"'
  pyboot marker 'os_name == "nt"' --set os_name=nt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.config)
			if err != nil {
				return err
			}
			env, err := markerEnv(cfg, sets)
			if err != nil {
				return err
			}
			m, err := pep508.ParseMarker(args[0])
			if err != nil {
				return err
			}
			ok, err := pep508.Evaluate(m, env)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			canonical := ""
			if m != nil {
				canonical = m.String()
			}
			printKeyValue(out, "marker", canonical)
			printKeyValue(out, "result", fmt.Sprint(ok))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "set a marker variable: var=[string|number|semver:]value")
	return cmd
}
