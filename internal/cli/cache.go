package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pyboot/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the index and metadata cache",
	}
	cmd.AddCommand(c.cacheClearCommand())
	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached index page and METADATA entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(c.config)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfg.CacheBackend != "redis" {
				printInfo(out, "Cache backend %q keeps nothing between runs", cfg.CacheBackend)
				return nil
			}

			store, err := newCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if f, ok := store.(cache.Flusher); ok {
				if err := f.Flush(ctx); err != nil {
					return err
				}
			}
			printSuccess(out, "Cleared cached entries")
			printDetail(out, "Redis: %s (prefix %s)", cfg.RedisAddr, cacheKeyPrefix)
			return nil
		},
	}
}
