// Package cli implements the pagesetter command-line interface.
//
// The commands mirror the pagination pipeline: extract a block tree from an
// editor canvas, compose it into pages, render the pages, and plan fixes
// for the layout warnings. Built with cobra; logging goes through
// charmbracelet/log.
//
// # Commands
//
//   - extract: Read a JSON or HTML canvas and write the document tree
//   - compose: Paginate a document and print the page table and warnings
//   - render: Write the paginated output as JSON, SVG or PDF
//   - plan: Propose property patches for the warnings (--interactive to pick)
//   - diff: Classify a saved plan against a document
//   - apply: Apply a saved plan to a document
//   - tree: Draw the block tree as DOT or SVG, tinted by page
//   - cache: Inspect and clear the local cache
//   - serve: Run the HTTP API
//
// # Configuration
//
// Settings come from $XDG_CONFIG_HOME/pagesetter/config.toml (or --config),
// then PAGESETTER_* environment variables, then flags.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs every pipeline stage and cache event. Loggers are passed through
// context.Context.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagesetter/internal/config"
	"github.com/matzehuels/pagesetter/pkg/buildinfo"
	"github.com/matzehuels/pagesetter/pkg/observability"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Pagesetter paginates editor canvases into printable pages",
		Long: `Pagesetter turns the block tree of a visual document editor into pages.

It honors break policies, keeps headings with their content, balances
orphans and widows in lists, and reports every layout compromise as a
warning with a proposed fix.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.preRun,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pagesetter/config.toml)")

	root.AddCommand(c.extractCommand())
	root.AddCommand(c.composeCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// preRun loads the config and attaches the logger to the command context.
func (c *CLI) preRun(cmd *cobra.Command, args []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetPipelineHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetServerHooks(hooks)
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// Execute runs the CLI with args from os.Args.
func Execute(ctx context.Context) error {
	c := New(os.Stderr, LogInfo)
	return c.RootCommand().ExecuteContext(ctx)
}
