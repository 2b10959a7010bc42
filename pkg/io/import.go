package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/tree"
)

// entityKeys are the name fields recognized in single-entity documents, in
// order of preference.
var entityKeys = []string{"char_name", "name"}

// ParseImport decodes an import document.
//
// A document with both "nodes" and "relationships" arrays is a full tree.
// Otherwise a non-empty "char_name" or "name" string makes it a
// single-entity document. Anything else, including malformed JSON, fails
// with an [errors.ErrCodeInvalidFormat] error and no partial result.
func ParseImport(data []byte) (Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "failed to parse JSON")
	}

	if present(fields, "nodes") && present(fields, "relationships") {
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "failed to decode tree document")
		}
		if err := errors.ValidateStruct(doc); err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid tree document")
		}
		return doc, nil
	}

	for _, key := range entityKeys {
		var name string
		if raw, ok := fields[key]; ok && json.Unmarshal(raw, &name) == nil && strings.TrimSpace(name) != "" {
			return Document{Entity: name}, nil
		}
	}

	return Document{}, errors.New(errors.ErrCodeInvalidFormat, "unrecognized JSON format")
}

// present reports whether key holds a non-null value.
func present(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ReadJSON decodes an import document from r. It does not close r.
func ReadJSON(r io.Reader) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read: %w", err)
	}
	return ParseImport(data)
}

// ImportJSON reads the import document at path.
//
// PNG character cards are rejected with [errors.ErrCodeUnsupported]; only
// JSON documents are understood.
func ImportJSON(path string) (Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return Document{}, errors.New(errors.ErrCodeUnsupported, "PNG character cards are not supported, use JSON format")
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "file not found: %s", path)
		}
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// LoadFile imports the document at path into t. See [Document.Apply].
func LoadFile(t *tree.Tree, path string) ([]int, error) {
	doc, err := ImportJSON(path)
	if err != nil {
		return nil, err
	}
	return doc.Apply(t), nil
}
