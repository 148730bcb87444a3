package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pyboot/pkg/simpleindex"
)

// linksCommand lists the distribution links of a project page.
func (c *CLI) linksCommand() *cobra.Command {
	format := formatText

	cmd := &cobra.Command{
		Use:   "links <name|page-url>",
		Short: "List the links of an index project page",
		Long: `List the links of an index project page.

A bare name is looked up on the configured index; a full URL is fetched as is.

Examples:
  pyboot links requests
  pyboot links https://download.pytorch.org/whl/torch/ --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON, formatYAML); err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			page := args[0]
			if !strings.Contains(page, "://") {
				page = simpleindex.ProjectURL(s.cfg.Index, page)
			}
			links, err := newIndexClient(s.cfg, s.http, s.cache).Links(ctx, page)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format != formatText {
				return writeStructured(out, format, links)
			}
			rows := make([][]string, len(links))
			for i, l := range links {
				yanked := ""
				if l.Yanked {
					yanked = "yanked"
				}
				rows[i] = []string{l.Label, l.RequiresPython, yanked}
			}
			fmt.Fprintln(out, renderTable([]string{"File", "Requires-Python", ""}, rows))
			printStats(out, fmt.Sprintf("%d links", len(links)), page)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", format, "output format: text, json or yaml")
	return cmd
}
