package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// composeCommand creates the compose command.
func (c *CLI) composeCommand() *cobra.Command {
	var (
		flags   inputFlags
		output  string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "compose [input]",
		Short: "Paginate a document and report the page breaks",
		Long: `Paginate a document and report the page breaks.

Prints one row per page with its blocks and fill ratio, followed by the
layout warnings. With --json or -o the full composition (pages, placements,
warnings) is written as JSON instead.

The input is a document tree or a canvas; canvases are extracted first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompose(cmd.Context(), args[0], flags, output, jsonOut)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the composition JSON to a file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the composition JSON instead of tables")
	addInputFlags(cmd, &flags)

	return cmd
}

func (c *CLI) runCompose(ctx context.Context, input string, flags inputFlags, output string, jsonOut bool) error {
	runner, doc, err := c.loadDocument(ctx, input, flags)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := c.newSpinner(ctx, "Composing pages...")
	spinner.Start()
	res, hit, err := runner.ComposeWithCacheInfo(ctx, doc, flags.refresh)
	if err != nil {
		spinner.StopWithError("Composition failed")
		return fmt.Errorf("compose: %w", err)
	}
	spinner.Stop()

	toStdout := output == "" || output == "-"
	if jsonOut || output != "" {
		if err := c.writeJSON(output, res); err != nil {
			return err
		}
		if toStdout {
			return nil
		}
	}

	ui := c.ui()
	ui.success("Composed %s", plural(len(res.Pages), "page"))
	ui.stats(res.Stats(), hit)
	if !toStdout {
		ui.file(output)
		return nil
	}
	if len(res.Pages) > 0 {
		ui.pages(res)
	}
	if len(res.Warnings) > 0 {
		ui.warnings(res.Warnings)
		ui.nextStep("Propose fixes", "pagesetter plan "+input)
	}
	return nil
}
