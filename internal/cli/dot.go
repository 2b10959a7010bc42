package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/render/nodelink"
)

const formatDOT = "dot"

var dotFormats = []string{formatDOT, render.FormatSVG, render.FormatPDF, render.FormatPNG}

// dotCommand creates the dot command, which exports a Graphviz node-link
// diagram of the tree.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		detailed   bool
		scale      float64
	)

	cmd := &cobra.Command{
		Use:   "dot [tree.json]",
		Short: "Export a family tree as a Graphviz diagram",
		Long: `Export a family tree as a Graphviz diagram.

Generations become rank=same groups, parent edges point down, and spouse and
sibling edges are undirected. With -f svg, pdf or png the graph is laid out
by the embedded Graphviz instead of the kintree layout engine, which is
useful for checking levels against an independent layout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr, formatDOT)
			if err := validateFormats(formats, dotFormats); err != nil {
				return err
			}
			return c.runDot(cmd.Context(), args[0], output, formats, detailed, scale)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (several)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): dot (default), svg, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label people with their ID and level")
	cmd.Flags().Float64Var(&scale, "scale", defaultScale, "PNG zoom factor")

	return cmd
}

func (c *CLI) runDot(ctx context.Context, input, output string, formats []string, detailed bool, scale float64) error {
	t, err := loadTree(input)
	if err != nil {
		return fmt.Errorf("load tree %s: %w", input, err)
	}
	snap := layout.Compute(t, c.layoutOptions())
	dot := nodelink.ToDOT(snap, nodelink.Options{Detailed: detailed})

	var (
		paths    []string
		graphSVG []byte
	)
	for _, format := range formats {
		path := outputPath(input, output, format, len(formats) > 1)
		if format == formatDOT {
			if err := os.WriteFile(path, []byte(dot), 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
			}
			paths = append(paths, path)
			continue
		}

		if graphSVG == nil {
			prog := newProgress(loggerFromContext(ctx))
			if graphSVG, err = nodelink.RenderSVG(ctx, dot); err != nil {
				return err
			}
			prog.done("Graphviz layout finished")
		}
		if err := writeFormat(ctx, graphSVG, path, format, scale); err != nil {
			return err
		}
		paths = append(paths, path)
	}

	printSuccess("Exported %s", filepath.Base(input))
	printStats(len(snap.Nodes), len(snap.Edges), len(snap.Levels()))
	for _, p := range paths {
		printFile(p)
	}
	return nil
}
