package render

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	"github.com/matzehuels/kintree/pkg/errors"
)

func TestConvertSVGPassesThrough(t *testing.T) {
	in := []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)
	out, err := Convert(context.Background(), in, "SVG", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(in, out) {
		t.Errorf("Convert(svg) = %q", out)
	}
}

func TestConvertUnknownFormat(t *testing.T) {
	_, err := Convert(context.Background(), nil, "gif", 1)
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Convert(gif) error = %v, want UNSUPPORTED", err)
	}
}

func TestConvertPDF(t *testing.T) {
	if _, err := exec.LookPath(converter); err != nil {
		_, err := Convert(context.Background(), []byte("<svg/>"), FormatPDF, 1)
		if !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Errorf("Convert(pdf) without %s: error = %v, want UNSUPPORTED", converter, err)
		}
		return
	}

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`)
	out, err := Convert(context.Background(), svg, FormatPDF, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("output does not look like a PDF: %q", out[:min(len(out), 8)])
	}
}
