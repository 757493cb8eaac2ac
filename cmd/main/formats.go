package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/hcp/pkg/content"
	"github.com/CTAG07/hcp/pkg/envelope"
)

// mimeForPath infers the HCF MIME type from a file extension. Anything that
// is not YAML is read as JSON.
func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return envelope.FileYAMLMimeType
	case ".cbor":
		return envelope.ResponseMimeType
	default:
		return envelope.FileJSONMimeType
	}
}

// mimeForFormat maps an --out format name to a MIME type.
func mimeForFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return envelope.FileYAMLMimeType, nil
	case "json":
		return envelope.FileJSONMimeType, nil
	case "cbor":
		return envelope.ResponseMimeType, nil
	default:
		return "", fmt.Errorf("unknown output format %q, expected yaml, json or cbor", format)
	}
}

func readFile(path string) (envelope.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return envelope.File{}, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	doc, err := envelope.DecodeFile(f, mimeForPath(path))
	if err != nil {
		return envelope.File{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func readContext(path string) (map[string]content.Content, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	values, err := envelope.DecodeContext(f, mimeForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

// readValue reads a single content value, such as {Text: hi}, from path.
func readValue(path string) (content.Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c content.Content
	if mimeForPath(path) == envelope.FileYAMLMimeType {
		c, err = content.UnmarshalYAML(data)
	} else {
		c, err = content.UnmarshalJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// writeFile encodes doc for mimeType. CBOR output is written as a response
// body since files have no binary form.
func writeFile(w io.Writer, doc envelope.File, mimeType string) error {
	if mimeType == envelope.ResponseMimeType {
		return envelope.EncodeResponse(w, doc.Response(), mimeType)
	}
	return envelope.EncodeFile(w, doc, mimeType)
}
