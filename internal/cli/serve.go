package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pyboot/pkg/indexserver"
)

// serveCommand serves a local wheel directory as a simple index.
func (c *CLI) serveCommand() *cobra.Command {
	addr := ":8080"

	cmd := &cobra.Command{
		Use:   "serve <dir>",
		Short: "Serve a directory of wheels as a simple index",
		Long: `Serve a directory of wheels as a PEP 503 simple index with range support.

Point pyboot (or pip) at http://<addr>/simple to resolve against it.

Example:
  pyboot serve ./wheelhouse --addr 127.0.0.1:8080`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			srv, err := indexserver.New(args[0], indexserver.Options{Logger: libLogger(logger)})
			if err != nil {
				return err
			}
			projects, err := srv.Projects()
			if err != nil {
				return err
			}
			logger.Info("serving simple index", "dir", args[0], "addr", addr, "projects", len(projects))
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", addr, "listen address")
	return cmd
}
