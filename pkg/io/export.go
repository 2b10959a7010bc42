package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/kintree/pkg/tree"
)

// DefaultExportName is the file name offered for downloads.
const DefaultExportName = "family_tree.json"

// WriteJSON encodes t as an indented [Document] and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(t *tree.Tree, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Export(t)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes t to a JSON file at path.
func ExportJSON(t *tree.Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := writeAndClose(f, t); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeAndClose writes t to w and closes it, reporting the close error
// when the write succeeded.
func writeAndClose(w io.WriteCloser, t *tree.Tree) error {
	if err := WriteJSON(t, w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// MarshalDocument serializes d to indented JSON bytes.
func MarshalDocument(d Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
