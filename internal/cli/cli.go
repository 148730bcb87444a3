// Package cli implements the pyboot command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matzehuels/pyboot/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pyboot"

	// envPrefix prefixes environment variables that override config keys.
	envPrefix = "PYBOOT"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	config  *viper.Viper
	cfgFile string
	verbose bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: viper.New(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "pyboot resolves Python wheels without downloading them",
		Long: `pyboot builds the list of wheel URLs needed to install a set of Python
requirements. It reads package metadata straight out of remote wheels with
HTTP range requests, so only a few kilobytes of each archive are fetched.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			if err := c.initConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.config/pyboot/config.yaml)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.String("index", defaultIndex, "default package index URL")
	flags.String("cache", "memory", "cache backend: memory, redis or none")
	flags.String("python", defaultPython, "target Python version for markers")
	c.bindFlag("index", flags.Lookup("index"))
	c.bindFlag("cache.backend", flags.Lookup("cache"))
	c.bindFlag("python.version", flags.Lookup("python"))

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.linksCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.metadataCommand())
	root.AddCommand(c.markerCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
