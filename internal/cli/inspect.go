package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pyboot/pkg/zipremote"
)

// inspectCommand lists the central directory of a remote archive or prints
// one member.
func (c *CLI) inspectCommand() *cobra.Command {
	format := formatText

	cmd := &cobra.Command{
		Use:   "inspect <archive-url> [member]",
		Short: "List or read members of a remote wheel",
		Long: `List the members of a remote ZIP archive, or print one member.

Only the archive tail, the central directory and the requested member are
fetched. Archive URLs may use http, https or s3 (with s3.* configured).

Examples:
  pyboot inspect https://files.example.com/foo-1.0-py3-none-any.whl
  pyboot inspect s3://wheels/foo-1.0-py3-none-any.whl foo-1.0.dist-info/WHEEL`,
		Args: cobra.RangeArgs(1, 2),
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

			a, err := s.opener.Open(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 2 {
				text, err := a.ReadMember(ctx, args[1])
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, text)
				return err
			}

			members := a.Members()
			if format != formatText {
				return writeStructured(out, format, members)
			}
			rows := make([][]string, len(members))
			for i, e := range members {
				rows[i] = []string{e.Name, methodName(e.Method), strconv.FormatUint(e.CompressedSize, 10), strconv.FormatUint(e.UncompressedSize, 10)}
			}
			fmt.Fprintln(out, renderTable([]string{"Member", "Method", "Compressed", "Size"}, rows))
			printStats(out, fmt.Sprintf("%d members", len(members)), fmt.Sprintf("%d bytes", a.Size()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", format, "output format: text, json or yaml")
	return cmd
}

func methodName(m uint16) string {
	switch m {
	case zipremote.Store:
		return "store"
	case zipremote.Deflate:
		return "deflate"
	default:
		return "method " + strconv.Itoa(int(m))
	}
}

// metadataCommand prints the METADATA headers of a remote wheel.
func (c *CLI) metadataCommand() *cobra.Command {
	format := formatText

	cmd := &cobra.Command{
		Use:   "metadata <archive-url>",
		Short: "Print the METADATA headers of a remote wheel",
		Args:  cobra.ExactArgs(1),
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

			env, err := markerEnv(s.cfg, nil)
			if err != nil {
				return err
			}
			r, err := s.resolver(ctx, env, nil, false)
			if err != nil {
				return err
			}
			meta, err := r.FetchMetadata(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format != formatText {
				return writeStructured(out, format, meta)
			}
			for _, h := range meta {
				printKeyValue(out, h.Key, h.Value)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", format, "output format: text, json or yaml")
	return cmd
}
