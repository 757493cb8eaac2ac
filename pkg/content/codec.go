package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node wraps a Content so it can be used directly as a JSON or YAML field.
type Node struct {
	Content
}

// Sequence is an ordered list of nodes usable as a JSON or YAML field.
type Sequence []Content

// MarshalJSON encodes a single tree in its externally tagged form.
func MarshalJSON(c Content) ([]byte, error) {
	return json.Marshal(ToValue(c))
}

// UnmarshalJSON decodes a single tree from its externally tagged form.
func UnmarshalJSON(data []byte) (Content, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("content: invalid json: %w", err)
	}
	return FromValue(v)
}

// UnmarshalYAML decodes a single tree from YAML. Both the map form
// ({Text: hi}) and the tag form (!Text hi) are accepted.
func UnmarshalYAML(data []byte) (Content, error) {
	var n Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return n.Content, nil
}

func (n Node) MarshalJSON() ([]byte, error) {
	return MarshalJSON(n.Content)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	c, err := UnmarshalJSON(data)
	if err != nil {
		return err
	}
	n.Content = c
	return nil
}

func (n Node) MarshalYAML() (any, error) {
	return ToValue(n.Content), nil
}

func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	v, err := YAMLValue(value)
	if err != nil {
		return err
	}
	c, err := FromValue(v)
	if err != nil {
		return err
	}
	n.Content = c
	return nil
}

func (s Sequence) MarshalJSON() ([]byte, error) {
	return json.Marshal(valuesOf(s))
}

func (s *Sequence) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("content: invalid json: %w", err)
	}
	nodes, err := FromValues(v)
	if err != nil {
		return err
	}
	*s = nodes
	return nil
}

func (s Sequence) MarshalYAML() (any, error) {
	return valuesOf(s), nil
}

func (s *Sequence) UnmarshalYAML(value *yaml.Node) error {
	v, err := YAMLValue(value)
	if err != nil {
		return err
	}
	nodes, err := FromValues(v)
	if err != nil {
		return err
	}
	*s = nodes
	return nil
}

// maxYAMLNodes bounds the number of values produced from one YAML document
// once aliases are expanded.
const maxYAMLNodes = 1 << 20

// YAMLValue converts a YAML node into the generic value form. A node carrying
// a local tag such as !Ctx is rewritten as the single-key map {Ctx: payload}.
// An alias that refers to one of its own ancestors, or a document whose
// aliases expand past maxYAMLNodes values, is a *DecodeError.
func YAMLValue(n *yaml.Node) (any, error) {
	d := &yamlDecoder{expanding: make(map[*yaml.Node]bool)}
	return d.value(n)
}

type yamlDecoder struct {
	expanding map[*yaml.Node]bool
	produced  int
}

func (d *yamlDecoder) value(n *yaml.Node) (any, error) {
	d.produced++
	if d.produced > maxYAMLNodes {
		return nil, decodeErr("", "yaml document expands to more than %d values", maxYAMLNodes)
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return d.value(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, decodeErr("", "unknown anchor %q", n.Value)
		}
		if d.expanding[n.Alias] {
			return nil, decodeErr("", "alias *%s refers to an enclosing node", n.Value)
		}
		d.expanding[n.Alias] = true
		v, err := d.value(n.Alias)
		delete(d.expanding, n.Alias)
		return v, err
	}

	if n.Anchor != "" {
		// An anchored node is in expansion while its own children decode.
		if !d.expanding[n] {
			d.expanding[n] = true
			defer delete(d.expanding, n)
		}
	}

	if tag, ok := localTag(n); ok {
		var payload any
		if n.Kind == yaml.ScalarNode {
			payload = n.Value
		} else {
			untagged := *n
			untagged.Tag = ""
			v, err := d.children(&untagged)
			if err != nil {
				return nil, err
			}
			payload = v
		}
		return map[string]any{tag: payload}, nil
	}
	return d.children(n)
}

func (d *yamlDecoder) children(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := d.value(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m[n.Content[i].Value] = v
		}
		return m, nil
	case yaml.SequenceNode:
		s := make([]any, len(n.Content))
		for i, item := range n.Content {
			v, err := d.value(item)
			if err != nil {
				return nil, err
			}
			s[i] = v
		}
		return s, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func localTag(n *yaml.Node) (string, bool) {
	if !strings.HasPrefix(n.Tag, "!") || strings.HasPrefix(n.Tag, "!!") || len(n.Tag) < 2 {
		return "", false
	}
	return n.Tag[1:], true
}
