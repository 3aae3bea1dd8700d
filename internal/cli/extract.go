package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagesetter/pkg/document"
	"github.com/matzehuels/pagesetter/pkg/pipeline"
)

// addInputFlags registers the load flags shared by pipeline commands.
func addInputFlags(cmd *cobra.Command, f *inputFlags) {
	cmd.Flags().StringVar(&f.source, "source", "", "input kind: "+strings.Join(pipeline.Sources, ", ")+" (default: from file name or content)")
	cmd.Flags().StringVar(&f.preset, "preset", "", "page preset overriding the input's template: "+strings.Join(document.PresetNames(), ", "))
	cmd.Flags().Float64Var(&f.zoom, "zoom", 0, "canvas zoom factor (default: from canvas or config)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute every stage, ignoring cached results")
}

// extractCommand creates the extract command.
func (c *CLI) extractCommand() *cobra.Command {
	var (
		flags  inputFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "extract [canvas]",
		Short: "Extract a document tree from an editor canvas",
		Long: `Extract a document tree from an editor canvas.

The canvas is either the editor's JSON export or its HTML with data-*
attributes. Geometry is divided by the zoom factor and editor-only state
is dropped. The resulting document.json feeds every other command.

Use "-" to read the canvas from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExtract(cmd.Context(), args[0], flags, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	addInputFlags(cmd, &flags)

	return cmd
}

func (c *CLI) runExtract(ctx context.Context, input string, flags inputFlags, output string) error {
	data, err := readInput(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	doc, hit, err := runner.LoadWithCacheInfo(ctx, c.options(data, input, flags))
	if err != nil {
		return fmt.Errorf("extract %s: %w", input, err)
	}
	prog.done(fmt.Sprintf("Extracted %d blocks", doc.Len()))

	out, err := c.openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := document.Write(&doc, out); err != nil {
		return err
	}

	if output != "" && output != "-" {
		ui := c.ui()
		ui.success("Extracted %s", plural(doc.Len(), "block"))
		if hit {
			ui.detail("from cache")
		}
		ui.file(output)
		ui.nextStep("Paginate it", "pagesetter compose "+output)
	}
	return nil
}
