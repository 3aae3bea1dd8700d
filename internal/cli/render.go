package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagesetter/pkg/pipeline"
	"github.com/matzehuels/pagesetter/pkg/render/sink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	flags   inputFlags
	output  string   // output file (single format) or base path
	formats []string // json, svg, pdf
	labels  bool     // draw block ids in previews
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		opts       renderOpts
		formatsStr string
	)

	cmd := &cobra.Command{
		Use:   "render [input]",
		Short: "Render paginated output as JSON, SVG or PDF",
		Long: `Render paginated output as JSON, SVG or PDF.

JSON is the page model: one tree of positioned blocks per page, with editor
decoration stripped and split containers marked. SVG and PDF are wireframe
previews of the same pages.

Without -o, files are written next to the input as <name>.pages.<format>.
With a single format, -o names the file; with several it is the base path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = c.parseFormats(formatsStr)
			if !cmd.Flags().Changed("labels") {
				opts.labels = c.Config.Render.Labels
			}
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): "+strings.Join(sink.Formats, ", ")+" (comma-separated, default from config)")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "draw block ids in SVG and PDF previews")
	addInputFlags(cmd, &opts.flags)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	data, err := readInput(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := c.options(data, input, opts.flags)
	popts.Formats = opts.formats
	popts.Labels = opts.labels

	spinner := c.newSpinner(ctx, "Rendering "+strings.Join(opts.formats, ", ")+"...")
	spinner.Start()
	result, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	paths := outputPaths(input, opts.output, opts.formats)
	for _, format := range opts.formats {
		if err := writeFile(paths[format], result.Artifacts[format]); err != nil {
			return fmt.Errorf("write %s: %w", format, err)
		}
		logger.Debugf("Wrote %s: %d bytes", paths[format], len(result.Artifacts[format]))
	}

	ui := c.ui()
	ui.success("Rendered %s", plural(len(result.Rendered.Pages), "page"))
	ui.stats(result.Stats.Layout, result.CacheInfo.ComposeHit)
	for _, format := range opts.formats {
		ui.file(paths[format])
	}
	if len(result.Composition.Warnings) > 0 {
		ui.warnings(result.Composition.Warnings)
		ui.nextStep("Propose fixes", "pagesetter plan "+input)
	}
	return nil
}

// outputPaths names the file for each format. A single format with an
// explicit output uses it verbatim.
func outputPaths(input, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" && filepath.Ext(output) != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	if output == "" {
		base += ".pages"
	}
	for _, f := range slices.Compact(slices.Clone(formats)) {
		paths[f] = base + sink.Extension(f)
	}
	return paths
}
