package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/layout"
)

// layoutCommand creates the layout command, which writes a snapshot JSON.
func (c *CLI) layoutCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "layout [tree.json]",
		Short: "Compute node positions and edge paths for a family tree",
		Long: `Compute node positions and edge paths for a family tree.

The input is a tree in the import format ({"nodes": [...], "relationships": [...]}).
The output is a snapshot JSON with one position per person, one routed path
per relation, and the drawing bounds. Spacing comes from the [layout] section
of the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	t, err := loadTree(input)
	if err != nil {
		return fmt.Errorf("load tree %s: %w", input, err)
	}

	snap := layout.Compute(t, c.layoutOptions())
	prog.done(fmt.Sprintf("Laid out %d people", len(snap.Nodes)))
	logger.Debug("layout stats",
		"components", snap.Stats.Components,
		"parent_passes", snap.Stats.ParentPasses,
		"spouse_rounds", snap.Stats.SpouseRounds,
		"sibling_rounds", snap.Stats.SiblingRounds,
	)

	if output == "" {
		output = derivedPath(input, ".layout.json")
	}
	if err := layout.WriteSnapshotFile(snap, output); err != nil {
		return err
	}

	printSuccess("Layout computed")
	printStats(len(snap.Nodes), len(snap.Edges), len(snap.Levels()))
	printFile(output)
	printNextStep("Render it", "kintree render "+input)
	return nil
}
