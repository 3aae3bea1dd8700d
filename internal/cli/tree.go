package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagesetter/pkg/compose"
	"github.com/matzehuels/pagesetter/pkg/render/treeview"
)

const (
	treeFormatDOT = "dot"
	treeFormatSVG = "svg"
)

// treeCommand creates the tree command for debugging block trees.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		flags    inputFlags
		format   string
		output   string
		detailed bool
		bare     bool
	)

	cmd := &cobra.Command{
		Use:   "tree [input]",
		Short: "Draw the block tree, tinted by page",
		Long: `Draw the block tree as a Graphviz diagram.

Blocks are colored by the page they land on and blocks with warnings are
outlined in red. --detailed adds heights, non-default policies and meta.
--bare skips composition and draws the tree alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != treeFormatDOT && format != treeFormatSVG {
				return fmt.Errorf("invalid format: %s (must be 'dot' or 'svg')", format)
			}
			return c.runTree(cmd.Context(), args[0], flags, format, output, detailed, bare)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", treeFormatDOT, "output format: dot, svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show heights, policies and meta")
	cmd.Flags().BoolVar(&bare, "bare", false, "do not compose; draw the tree without page colors")
	addInputFlags(cmd, &flags)

	return cmd
}

func (c *CLI) runTree(ctx context.Context, input string, flags inputFlags, format, output string, detailed, bare bool) error {
	runner, doc, err := c.loadDocument(ctx, input, flags)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := treeview.Options{Detailed: detailed}
	if !bare {
		var res compose.Result
		if res, _, err = runner.ComposeWithCacheInfo(ctx, doc, flags.refresh); err != nil {
			return fmt.Errorf("compose: %w", err)
		}
		opts.Result = &res
	}

	dot := treeview.ToDOT(doc, opts)
	data := []byte(dot)
	if format == treeFormatSVG {
		if data, err = treeview.RenderSVG(ctx, dot); err != nil {
			return fmt.Errorf("render tree: %w", err)
		}
	}

	out, err := c.openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}
