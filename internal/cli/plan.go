package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pagesetter/pkg/document"
	errs "github.com/matzehuels/pagesetter/pkg/errors"
	"github.com/matzehuels/pagesetter/pkg/pipeline"
	"github.com/matzehuels/pagesetter/pkg/planner"
)

// =============================================================================
// plan
// =============================================================================

// planCommand creates the plan command.
func (c *CLI) planCommand() *cobra.Command {
	var (
		flags       inputFlags
		output      string
		jsonOut     bool
		interactive bool
		fixedOutput string
	)

	cmd := &cobra.Command{
		Use:   "plan [input]",
		Short: "Propose property patches for the layout warnings",
		Long: `Propose property patches for the layout warnings.

Each warning of the composition yields one operation: a forced break before
an oversized block, item splitting for an oversized group, or a stricter
orphans/widows setting. Operation ids are stable for identical inputs, so a
saved plan can be diffed and applied later.

With --interactive, pick operations in a list and apply them right away.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlan(cmd.Context(), args[0], flags, planFlags{
				output:      output,
				json:        jsonOut,
				interactive: interactive,
				fixedOutput: fixedOutput,
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the plan JSON to a file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the plan JSON instead of a table")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "select operations to apply")
	cmd.Flags().StringVar(&fixedOutput, "fixed-output", "", "patched document path for --interactive (default: <input>.fixed.json)")
	addInputFlags(cmd, &flags)

	return cmd
}

type planFlags struct {
	output      string
	json        bool
	interactive bool
	fixedOutput string
}

func (c *CLI) runPlan(ctx context.Context, input string, flags inputFlags, pf planFlags) error {
	runner, doc, err := c.loadDocument(ctx, input, flags)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, _, err := runner.ComposeWithCacheInfo(ctx, doc, flags.refresh)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	plan, hit, err := runner.PlanWithCacheInfo(ctx, doc, res, flags.refresh)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	loggerFromContext(ctx).Debug("plan ready", "operations", len(plan.Operations), "cached", hit)

	ui := c.ui()
	switch {
	case pf.interactive:
		if len(plan.Operations) == 0 {
			ui.success("No warnings, nothing to plan")
			return nil
		}
		entries := planner.DiffPlanOperations(plan.Operations, planner.NewDocumentContext(&doc))
		final, err := tea.NewProgram(NewPlanModel(plan.Operations, entries), tea.WithContext(ctx)).Run()
		if err != nil {
			return fmt.Errorf("interactive plan: %w", err)
		}
		m := final.(PlanModel)
		if !m.Confirmed || len(m.Selected()) == 0 {
			ui.info("Nothing applied")
			return nil
		}
		out := pf.fixedOutput
		if out == "" {
			out = basePath("", input) + ".fixed.json"
		}
		return c.applyAndReport(ctx, runner, doc, m.Selected(), out)

	case pf.json || pf.output != "":
		if err := c.writeJSON(pf.output, plan); err != nil {
			return err
		}
		if pf.output != "" && pf.output != "-" {
			ui.success("Planned %s", plural(len(plan.Operations), "operation"))
			ui.file(pf.output)
			ui.nextStep("Apply it", fmt.Sprintf("pagesetter apply %s --plan %s", input, pf.output))
		}
		return nil

	default:
		if len(plan.Operations) == 0 {
			ui.success("No warnings, nothing to plan")
			return nil
		}
		ui.success("%s", plan.Summary)
		ui.plan(plan.Operations, nil)
		ui.nextStep("Save it", fmt.Sprintf("pagesetter plan %s -o plan.json", input))
		return nil
	}
}

// =============================================================================
// diff
// =============================================================================

// diffCommand creates the diff command.
func (c *CLI) diffCommand() *cobra.Command {
	var (
		flags    inputFlags
		planPath string
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "diff [input]",
		Short: "Classify a saved plan against a document",
		Long: `Classify a saved plan against a document.

Each operation is pending (not yet applied), applied (every proposed value
is already current) or blocked (the target node is gone or no longer
accepts a proposed property).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDiff(cmd.Context(), args[0], flags, planPath, jsonOut)
		},
	}

	cmd.Flags().StringVarP(&planPath, "plan", "p", "", "plan JSON written by 'plan -o'")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the diff entries as JSON")
	cmd.MarkFlagRequired("plan")
	addInputFlags(cmd, &flags)

	return cmd
}

func (c *CLI) runDiff(ctx context.Context, input string, flags inputFlags, planPath string, jsonOut bool) error {
	plan, err := readPlan(planPath)
	if err != nil {
		return err
	}
	runner, doc, err := c.loadDocument(ctx, input, flags)
	if err != nil {
		return err
	}
	defer runner.Close()

	entries := planner.DiffPlanOperations(plan.Operations, planner.NewDocumentContext(&doc))
	if jsonOut {
		return c.writeJSON("", entries)
	}

	summary := planner.Summary(entries)
	ui := c.ui()
	ui.info("%d pending · %d applied · %d blocked",
		summary[planner.StatusPending], summary[planner.StatusApplied], summary[planner.StatusBlocked])
	if len(entries) > 0 {
		ui.plan(plan.Operations, entries)
	}
	return nil
}

// =============================================================================
// apply
// =============================================================================

// applyCommand creates the apply command.
func (c *CLI) applyCommand() *cobra.Command {
	var (
		flags    inputFlags
		planPath string
		only     []string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "apply [input]",
		Short: "Apply a saved plan to a document",
		Long: `Apply a saved plan to a document.

Pending operations are written to a copy of the document; applied and
blocked ones are skipped. The patched document is composed again to show
how the warnings changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := readPlan(planPath)
			if err != nil {
				return err
			}
			runner, doc, err := c.loadDocument(cmd.Context(), args[0], flags)
			if err != nil {
				return err
			}
			defer runner.Close()

			ops := filterOperations(plan.Operations, only)
			if output == "" {
				output = basePath("", args[0]) + ".fixed.json"
			}
			return c.applyAndReport(cmd.Context(), runner, doc, ops, output)
		},
	}

	cmd.Flags().StringVarP(&planPath, "plan", "p", "", "plan JSON written by 'plan -o'")
	cmd.Flags().StringSliceVar(&only, "only", nil, "apply only these operation ids (prefixes allowed)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "patched document path (default: <input>.fixed.json)")
	cmd.MarkFlagRequired("plan")
	addInputFlags(cmd, &flags)

	return cmd
}

// applyAndReport applies the pending operations of ops, writes the patched
// document and prints the warning count before and after.
func (c *CLI) applyAndReport(ctx context.Context, runner *pipeline.Runner, doc document.Document, ops []planner.Operation, output string) error {
	ui := c.ui()
	entries := planner.DiffPlanOperations(ops, planner.NewDocumentContext(&doc))
	pending, skipped := planner.Pending(ops, entries)
	for _, e := range skipped {
		if e.Status == planner.StatusBlocked {
			ui.warning("Skipping blocked operation %s on %q", shortID(e.OperationID), e.NodeID)
		}
	}
	if len(pending) == 0 {
		ui.info("Nothing to apply")
		return nil
	}

	patched, err := planner.Apply(doc, pending)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	before, err := runner.Compose(ctx, doc)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	after, err := runner.Compose(ctx, patched)
	if err != nil {
		return fmt.Errorf("compose patched document: %w", err)
	}

	if err := document.WriteFile(&patched, output); err != nil {
		return err
	}

	ui.success("Applied %s", plural(len(pending), "operation"))
	ui.detail("warnings %d → %d, pages %d → %d",
		len(before.Warnings), len(after.Warnings), len(before.Pages), len(after.Pages))
	ui.file(output)
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// loadDocument opens a runner and loads input through it. The caller closes
// the runner.
func (c *CLI) loadDocument(ctx context.Context, input string, flags inputFlags) (*pipeline.Runner, document.Document, error) {
	data, err := readInput(input)
	if err != nil {
		return nil, document.Document{}, err
	}
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return nil, document.Document{}, fmt.Errorf("initialize runner: %w", err)
	}
	doc, err := runner.Load(ctx, c.options(data, input, flags))
	if err != nil {
		runner.Close()
		return nil, document.Document{}, fmt.Errorf("load %s: %w", input, err)
	}
	return runner, doc, nil
}

func readPlan(path string) (planner.Plan, error) {
	data, err := readInput(path)
	if err != nil {
		return planner.Plan{}, err
	}
	var plan planner.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return planner.Plan{}, errs.Wrap(errs.ErrCodeInvalidPlan, err, "decode plan %s", path)
	}
	return plan, nil
}

// filterOperations keeps operations whose id starts with one of ids. No ids
// keeps everything.
func filterOperations(ops []planner.Operation, ids []string) []planner.Operation {
	if len(ids) == 0 {
		return ops
	}
	var out []planner.Operation
	for _, op := range ops {
		for _, id := range ids {
			if id != "" && strings.HasPrefix(op.ID, id) {
				out = append(out, op)
				break
			}
		}
	}
	return out
}

func (c *CLI) writeJSON(path string, v any) error {
	out, err := c.openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
