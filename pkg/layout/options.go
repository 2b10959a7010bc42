package layout

import (
	"unicode/utf8"

	"github.com/matzehuels/kintree/pkg/tree"
)

// Default spacing, in pixels.
const (
	DefaultVerticalSpacing  = 120.0
	DefaultHorizontalMargin = 40.0
	DefaultNodeHeight       = 40.0
	DefaultMinNodeWidth     = 80.0
	DefaultCharWidth        = 8.0
	DefaultNodePadding      = 24.0
)

// Size is the rendered box of one person.
type Size struct {
	Width  float64
	Height float64
}

// Measurer reports the box a renderer will draw for a person. Layout only
// needs the widest box and each box's own size for edge anchoring.
type Measurer func(n tree.Node) Size

// Options configures layout spacing.
type Options struct {
	// VerticalSpacing is the pixel distance between generation levels.
	VerticalSpacing float64
	// HorizontalMargin is added to the widest node to form one slot column.
	HorizontalMargin float64

	// NodeHeight, MinNodeWidth, CharWidth and NodePadding drive the default
	// text-based measurer. They are ignored when Measure is set.
	NodeHeight   float64
	MinNodeWidth float64
	CharWidth    float64
	NodePadding  float64

	Measure Measurer
}

// DefaultOptions returns the spacing used by the browser panel.
func DefaultOptions() Options {
	return Options{
		VerticalSpacing:  DefaultVerticalSpacing,
		HorizontalMargin: DefaultHorizontalMargin,
		NodeHeight:       DefaultNodeHeight,
		MinNodeWidth:     DefaultMinNodeWidth,
		CharWidth:        DefaultCharWidth,
		NodePadding:      DefaultNodePadding,
	}
}

// withDefaults replaces zero and negative fields with DefaultOptions, so the
// zero Options lays out like DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.VerticalSpacing <= 0 {
		o.VerticalSpacing = d.VerticalSpacing
	}
	if o.HorizontalMargin <= 0 {
		o.HorizontalMargin = d.HorizontalMargin
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = d.NodeHeight
	}
	if o.MinNodeWidth <= 0 {
		o.MinNodeWidth = d.MinNodeWidth
	}
	if o.CharWidth <= 0 {
		o.CharWidth = d.CharWidth
	}
	if o.NodePadding <= 0 {
		o.NodePadding = d.NodePadding
	}
	return o
}

// measure returns the box of n, estimating text width from the label
// "<name> <symbol>" when no Measurer is configured.
func (o Options) measure(n tree.Node) Size {
	if o.Measure != nil {
		return o.Measure(n)
	}
	chars := utf8.RuneCountInString(n.Name) + 2
	w := float64(chars)*o.CharWidth + o.NodePadding
	return Size{Width: max(o.MinNodeWidth, w), Height: o.NodeHeight}
}
