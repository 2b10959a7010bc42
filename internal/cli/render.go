package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/render"
	"github.com/matzehuels/kintree/pkg/render/svg"
)

const defaultScale = 2.0 // PNG zoom factor

var renderFormats = []string{render.FormatSVG, render.FormatPDF, render.FormatPNG}

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output      string   // output file, or base path when several formats are requested
	formats     []string // svg, pdf, png
	padding     float64  // canvas padding in pixels
	scale       float64  // PNG zoom
	interactive bool     // embed click handlers that post messages to the host page
}

// renderCommand creates the render command for drawing a tree.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{padding: svg.DefaultPadding, scale: defaultScale}

	cmd := &cobra.Command{
		Use:   "render [tree.json]",
		Short: "Render a family tree to SVG, PDF or PNG",
		Long: `Render a family tree to SVG, PDF or PNG.

SVG is drawn directly from the computed layout. PDF and PNG are converted
from the SVG with rsvg-convert (librsvg), which must be installed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr, render.FormatSVG)
			if err := validateFormats(opts.formats, renderFormats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (several)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), pdf, png (comma-separated)")
	cmd.Flags().Float64Var(&opts.padding, "padding", opts.padding, "canvas padding in pixels")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG zoom factor")
	cmd.Flags().BoolVar(&opts.interactive, "interactive", false, "embed click handlers for use inside a host page")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	t, err := loadTree(input)
	if err != nil {
		return fmt.Errorf("load tree %s: %w", input, err)
	}

	prog := newProgress(loggerFromContext(ctx))
	snap := layout.Compute(t, c.layoutOptions())

	svgOpts := []svg.Option{svg.WithPadding(opts.padding)}
	if opts.interactive {
		svgOpts = append(svgOpts, svg.WithInteraction())
	}
	doc := svg.Render(snap, svgOpts...)
	prog.done(fmt.Sprintf("Rendered %d people", len(snap.Nodes)))

	var paths []string
	for _, format := range opts.formats {
		path := outputPath(input, opts.output, format, len(opts.formats) > 1)
		if err := writeFormat(ctx, doc, path, format, opts.scale); err != nil {
			return err
		}
		paths = append(paths, path)
	}

	printSuccess("Rendered %s", filepath.Base(input))
	printStats(len(snap.Nodes), len(snap.Edges), len(snap.Levels()))
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeFormat converts an SVG document into format and writes it to path.
func writeFormat(ctx context.Context, doc []byte, path, format string, scale float64) error {
	data := doc
	if format != render.FormatSVG {
		spin := newSpinnerWithContext(ctx, "Converting to "+strings.ToUpper(format)+"...")
		spin.Start()
		var err error
		data, err = render.Convert(ctx, doc, format, scale)
		spin.Stop()
		if err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

// outputPath picks the file for one format. With a single format an
// explicit output is used verbatim; otherwise it is a base path.
func outputPath(input, output, format string, multi bool) string {
	switch {
	case output == "":
		return derivedPath(input, "."+format)
	case multi:
		return derivedPath(output, "."+format)
	default:
		return output
	}
}

func validateFormats(formats, allowed []string) error {
	for _, f := range formats {
		if !slices.Contains(allowed, f) {
			return errors.New(errors.ErrCodeUnsupported, "invalid format %q (allowed: %s)", f, strings.Join(allowed, ", "))
		}
	}
	return nil
}
