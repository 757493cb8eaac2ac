package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"reflect"
	"strings"

	"github.com/CTAG07/hcp/pkg/content"
	"github.com/google/uuid"
	"github.com/ugorji/go/codec"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedMimeType is returned when no codec handles a MIME type.
var ErrUnsupportedMimeType = errors.New("envelope: unsupported mime type")

// Format is a serialization format.
type Format int

const (
	FormatJSON Format = iota + 1
	FormatYAML
	FormatCBOR
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatCBOR:
		return "cbor"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

var mimeFormats = map[string]Format{
	FileJSONMimeType:     FormatJSON,
	"application/json":   FormatJSON,
	FileYAMLMimeType:     FormatYAML,
	"application/yaml":   FormatYAML,
	"application/x-yaml": FormatYAML,
	"text/yaml":          FormatYAML,
	RequestMimeType:      FormatCBOR,
	ResponseMimeType:     FormatCBOR,
	"application/cbor":   FormatCBOR,
}

// FormatOf returns the serialization format for a MIME type. Parameters such
// as charset are ignored.
func FormatOf(mimeType string) (Format, error) {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrUnsupportedMimeType, mimeType, err)
	}
	f, ok := mimeFormats[strings.ToLower(mt)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMimeType, mimeType)
	}
	return f, nil
}

var cborHandle = newCborHandle()

func newCborHandle() *codec.CborHandle {
	h := &codec.CborHandle{}
	h.MapType = reflect.TypeOf(map[string]any(nil))
	h.Canonical = true
	return h
}

func encodeValue(w io.Writer, v any, mimeType string) error {
	f, err := FormatOf(mimeType)
	if err != nil {
		return err
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return codec.NewEncoder(w, cborHandle).Encode(v)
	}
}

func decodeValue(r io.Reader, mimeType string) (map[string]any, error) {
	f, err := FormatOf(mimeType)
	if err != nil {
		return nil, err
	}
	var v any
	switch f {
	case FormatJSON:
		if err = json.NewDecoder(r).Decode(&v); err != nil {
			return nil, fmt.Errorf("envelope: invalid json: %w", err)
		}
	case FormatYAML:
		var n yaml.Node
		if err = yaml.NewDecoder(r).Decode(&n); err != nil {
			return nil, fmt.Errorf("envelope: invalid yaml: %w", err)
		}
		if v, err = content.YAMLValue(&n); err != nil {
			return nil, fmt.Errorf("envelope: invalid yaml: %w", err)
		}
	default:
		if err = codec.NewDecoder(r, cborHandle).Decode(&v); err != nil {
			return nil, fmt.Errorf("envelope: invalid cbor: %w", err)
		}
	}
	return asMap(v)
}

func asMap(v any) (map[string]any, error) {
	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, e := range m {
			out[fmt.Sprint(k)] = e
		}
		return out, nil
	case nil:
		return map[string]any{}, nil
	default:
		return nil, fmt.Errorf("envelope: expected a map, got %T", v)
	}
}

func extraOf(m map[string]any) (map[string]any, error) {
	raw, ok := m["extra"]
	if !ok || raw == nil {
		return map[string]any{}, nil
	}
	return asMap(raw)
}

func nonNilExtra(extra map[string]any) map[string]any {
	if extra == nil {
		return map[string]any{}
	}
	return extra
}

func stringsOf(m map[string]any, key string) ([]string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return []string{}, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("envelope: %s: expected a sequence, got %T", key, raw)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("envelope: %s[%d]: expected a string, got %T", key, i, item)
		}
		out[i] = s
	}
	return out, nil
}

func stringValues(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func contentOf(m map[string]any) ([]content.Content, error) {
	nodes, err := content.FromValues(m["content"])
	if err != nil {
		return nil, fmt.Errorf("envelope: content: %w", err)
	}
	return nodes, nil
}

// EncodeFile writes f as a YAML or JSON HCF depending on mimeType.
func EncodeFile(w io.Writer, f File, mimeType string) error {
	return encodeValue(w, map[string]any{
		"content": content.ValuesOf(f.Content),
		"extra":   nonNilExtra(f.Extra),
	}, mimeType)
}

// DecodeFile reads an HCF in the format named by mimeType.
func DecodeFile(r io.Reader, mimeType string) (File, error) {
	m, err := decodeValue(r, mimeType)
	if err != nil {
		return File{}, err
	}
	nodes, err := contentOf(m)
	if err != nil {
		return File{}, err
	}
	extra, err := extraOf(m)
	if err != nil {
		return File{}, err
	}
	return File{Content: nodes, Extra: extra}, nil
}

// EncodeResponse writes resp. Responses go over the wire as CBOR; the JSON
// and YAML formats are available for inspection.
func EncodeResponse(w io.Writer, resp Response, mimeType string) error {
	return encodeValue(w, map[string]any{
		"content": content.ValuesOf(resp.Content),
		"extra":   nonNilExtra(resp.Extra),
	}, mimeType)
}

// DecodeResponse reads a response body.
func DecodeResponse(r io.Reader, mimeType string) (Response, error) {
	m, err := decodeValue(r, mimeType)
	if err != nil {
		return Response{}, err
	}
	nodes, err := contentOf(m)
	if err != nil {
		return Response{}, err
	}
	extra, err := extraOf(m)
	if err != nil {
		return Response{}, err
	}
	return Response{Content: nodes, Extra: extra}, nil
}

// EncodeRequest writes req. In CBOR, identities are 16-byte byte strings; in
// the text formats they are canonical UUID strings.
func EncodeRequest(w io.Writer, req Request, mimeType string) error {
	f, err := FormatOf(mimeType)
	if err != nil {
		return err
	}
	ids := make(map[string]any, len(req.Identities))
	for scope, id := range req.Identities {
		if f == FormatCBOR {
			b := make([]byte, len(id))
			copy(b, id[:])
			ids[scope] = b
		} else {
			ids[scope] = id.String()
		}
	}
	return encodeValue(w, map[string]any{
		"features":   stringValues(req.Features),
		"identities": ids,
		"extra":      nonNilExtra(req.Extra),
	}, mimeType)
}

// DecodeRequest reads a request body.
func DecodeRequest(r io.Reader, mimeType string) (Request, error) {
	m, err := decodeValue(r, mimeType)
	if err != nil {
		return Request{}, err
	}
	features, err := stringsOf(m, "features")
	if err != nil {
		return Request{}, err
	}
	extra, err := extraOf(m)
	if err != nil {
		return Request{}, err
	}
	req := Request{Features: features, Identities: map[string]uuid.UUID{}, Extra: extra}

	if raw, ok := m["identities"]; ok && raw != nil {
		ids, err := asMap(raw)
		if err != nil {
			return Request{}, fmt.Errorf("envelope: identities: %w", err)
		}
		for scope, v := range ids {
			id, err := parseUUID(v)
			if err != nil {
				return Request{}, fmt.Errorf("envelope: identities[%s]: %w", scope, err)
			}
			req.Identities[scope] = id
		}
	}
	return req, nil
}

func parseUUID(v any) (uuid.UUID, error) {
	switch t := v.(type) {
	case []byte:
		return uuid.FromBytes(t)
	case string:
		return uuid.Parse(t)
	case []any:
		b := make([]byte, len(t))
		for i, e := range t {
			n, ok := e.(uint64)
			if !ok || n > 0xff {
				return uuid.Nil, fmt.Errorf("invalid uuid byte %v", e)
			}
			b[i] = byte(n)
		}
		return uuid.FromBytes(b)
	default:
		return uuid.Nil, fmt.Errorf("expected uuid bytes or string, got %T", v)
	}
}

// EncodeHeader renders h as the value of the HCP_INFO header.
func EncodeHeader(h Header) (string, error) {
	data, err := json.Marshal(map[string]any{
		"scopes":   stringValues(h.Scopes),
		"features": stringValues(h.Features),
		"required": stringValues(h.Required),
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeHeader parses an HCP_INFO header value.
func DecodeHeader(value string) (Header, error) {
	m, err := decodeValue(strings.NewReader(value), "application/json")
	if err != nil {
		return Header{}, err
	}
	var h Header
	if h.Scopes, err = stringsOf(m, "scopes"); err != nil {
		return Header{}, err
	}
	if h.Features, err = stringsOf(m, "features"); err != nil {
		return Header{}, err
	}
	if h.Required, err = stringsOf(m, "required"); err != nil {
		return Header{}, err
	}
	return h, nil
}

// EncodeContext writes a template context as a map of key to content.
func EncodeContext(w io.Writer, values map[string]content.Content, mimeType string) error {
	m := make(map[string]any, len(values))
	for k, c := range values {
		m[k] = content.ToValue(c)
	}
	return encodeValue(w, m, mimeType)
}

// DecodeContext reads a map of key to content, the on-disk form of a
// template context.
func DecodeContext(r io.Reader, mimeType string) (map[string]content.Content, error) {
	m, err := decodeValue(r, mimeType)
	if err != nil {
		return nil, err
	}
	out := make(map[string]content.Content, len(m))
	for k, v := range m {
		c, err := content.FromValue(v)
		if err != nil {
			return nil, fmt.Errorf("envelope: context key %q: %w", k, err)
		}
		out[k] = c
	}
	return out, nil
}
