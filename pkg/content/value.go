package content

import "fmt"

// DecodeError describes a value that could not be turned into Content.
type DecodeError struct {
	Kind   Kind
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("content: %s", e.Reason)
	}
	return fmt.Sprintf("content: %s: %s", e.Kind, e.Reason)
}

func decodeErr(k Kind, format string, args ...any) error {
	return &DecodeError{Kind: k, Reason: fmt.Sprintf(format, args...)}
}

// ToValue converts a tree into its externally tagged generic form, built
// from map[string]any, []any, string and float64 values only.
func ToValue(c Content) any {
	switch v := c.(type) {
	case nil:
		return nil
	case Text:
		return tagged(KindText, v.Text)
	case HLayout, VLayout, InlineLayout, Table, Menu:
		return tagged(c.Kind(), valuesOf(c.(Container).Elements()))
	case Live:
		return tagged(KindLive, []any{v.URL, v.Interval})
	case Blob:
		return tagged(KindBlob, []any{v.URL, v.MimeType, v.Description})
	case Ref:
		return tagged(KindRef, []any{v.URL, v.Description})
	case If:
		return tagged(KindIf, []any{v.Flag, ToValue(v.Then), ToValue(v.Else)})
	case Include:
		return tagged(KindInclude, v.URL)
	case Ctx:
		return tagged(KindCtx, v.Key)
	case Form:
		return tagged(KindForm, []any{valuesOf(v.Children), v.PostURL})
	case Field:
		return tagged(KindField, []any{v.Name, v.Label, v.Type})
	case Unknown:
		if v.Bare {
			return v.Tag
		}
		return tagged(Kind(v.Tag), cloneValue(v.Payload))
	default:
		return map[string]any{string(c.Kind()): nil}
	}
}

func tagged(k Kind, payload any) map[string]any {
	return map[string]any{string(k): payload}
}

func valuesOf(nodes []Content) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = ToValue(n)
	}
	return out
}

// ValuesOf converts a sequence of nodes into generic form.
func ValuesOf(nodes []Content) []any {
	return valuesOf(nodes)
}

// FromValue converts a generic externally tagged value back into Content. It
// accepts maps keyed by string or by any comparable type, as produced by
// JSON, YAML and CBOR decoders. A single-key map with an unrecognized tag
// becomes Unknown.
func FromValue(v any) (Content, error) {
	tag, payload, err := splitTagged(v)
	if err != nil {
		return nil, err
	}
	k := Kind(tag)
	switch k {
	case KindText:
		s, err := asString(k, payload)
		if err != nil {
			return nil, err
		}
		return Text{Text: s}, nil
	case KindHLayout, KindVLayout, KindInlineLayout, KindTable, KindMenu:
		children, err := fromSeq(k, payload)
		if err != nil {
			return nil, err
		}
		return layoutOf(k, children), nil
	case KindLive:
		items, err := asTuple(k, payload, 2)
		if err != nil {
			return nil, err
		}
		url, err := asString(k, items[0])
		if err != nil {
			return nil, err
		}
		interval, err := asFloat(k, items[1])
		if err != nil {
			return nil, err
		}
		return Live{URL: url, Interval: interval}, nil
	case KindBlob:
		s, err := stringTuple(k, payload, 3)
		if err != nil {
			return nil, err
		}
		return Blob{URL: s[0], MimeType: s[1], Description: s[2]}, nil
	case KindRef:
		s, err := stringTuple(k, payload, 2)
		if err != nil {
			return nil, err
		}
		return Ref{URL: s[0], Description: s[1]}, nil
	case KindIf:
		items, err := asTuple(k, payload, 3)
		if err != nil {
			return nil, err
		}
		flag, err := asString(k, items[0])
		if err != nil {
			return nil, err
		}
		then, err := FromValue(items[1])
		if err != nil {
			return nil, err
		}
		els, err := FromValue(items[2])
		if err != nil {
			return nil, err
		}
		return If{Flag: flag, Then: then, Else: els}, nil
	case KindInclude:
		s, err := asString(k, payload)
		if err != nil {
			return nil, err
		}
		return Include{URL: s}, nil
	case KindCtx:
		s, err := asString(k, payload)
		if err != nil {
			return nil, err
		}
		return Ctx{Key: s}, nil
	case KindForm:
		items, err := asTuple(k, payload, 2)
		if err != nil {
			return nil, err
		}
		children, err := fromSeq(k, items[0])
		if err != nil {
			return nil, err
		}
		postURL, err := asString(k, items[1])
		if err != nil {
			return nil, err
		}
		return Form{Children: children, PostURL: postURL}, nil
	case KindField:
		s, err := stringTuple(k, payload, 3)
		if err != nil {
			return nil, err
		}
		return Field{Name: s[0], Label: s[1], Type: s[2]}, nil
	default:
		if _, bare := v.(string); bare {
			return Unknown{Tag: tag, Bare: true}, nil
		}
		return Unknown{Tag: tag, Payload: normalize(payload)}, nil
	}
}

// FromValues converts a generic sequence into nodes.
func FromValues(v any) ([]Content, error) {
	return fromSeq("", v)
}

func layoutOf(k Kind, children []Content) Content {
	switch k {
	case KindHLayout:
		return HLayout{Children: children}
	case KindVLayout:
		return VLayout{Children: children}
	case KindInlineLayout:
		return InlineLayout{Children: children}
	case KindTable:
		return Table{Children: children}
	default:
		return Menu{Children: children}
	}
}

func splitTagged(v any) (string, any, error) {
	switch m := v.(type) {
	case map[string]any:
		if len(m) != 1 {
			return "", nil, decodeErr("", "expected a single-key variant map, got %d keys", len(m))
		}
		for k, p := range m {
			return k, p, nil
		}
	case map[any]any:
		if len(m) != 1 {
			return "", nil, decodeErr("", "expected a single-key variant map, got %d keys", len(m))
		}
		for k, p := range m {
			s, ok := k.(string)
			if !ok {
				return "", nil, decodeErr("", "variant tag must be a string, got %T", k)
			}
			return s, p, nil
		}
	case string:
		// Variants without payload are written as a bare tag.
		return m, nil, nil
	}
	return "", nil, decodeErr("", "expected a variant map, got %T", v)
}

func fromSeq(k Kind, v any) ([]Content, error) {
	items, ok := v.([]any)
	if !ok {
		if v == nil {
			return []Content{}, nil
		}
		return nil, decodeErr(k, "expected a sequence, got %T", v)
	}
	out := make([]Content, len(items))
	for i, item := range items {
		c, err := FromValue(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

func asTuple(k Kind, v any, n int) ([]any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, decodeErr(k, "expected a %d-tuple, got %T", n, v)
	}
	if len(items) != n {
		return nil, decodeErr(k, "expected a %d-tuple, got %d items", n, len(items))
	}
	return items, nil
}

func stringTuple(k Kind, v any, n int) ([]string, error) {
	items, err := asTuple(k, v, n)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i, item := range items {
		if out[i], err = asString(k, item); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func asString(k Kind, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", decodeErr(k, "expected a string, got %T", v)
	}
	return s, nil
}

func asFloat(k Kind, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		if err != nil {
			return 0, decodeErr(k, "invalid number: %v", err)
		}
		return f, nil
	default:
		return 0, decodeErr(k, "expected a number, got %T", v)
	}
}

// normalize rewrites any-keyed maps into string-keyed ones so Unknown
// payloads compare and re-encode the same way regardless of decoder.
func normalize(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = normalize(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = normalize(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = normalize(e)
		}
		return s
	default:
		return v
	}
}
