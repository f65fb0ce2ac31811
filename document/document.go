// Package document decodes YAML and JSON bytes into the generic document tree used by the
// reference resolver and encodes trees back out.
//
// A tree is one of:
//   - *sequencedmap.Map[string, any] for mappings (key order preserved)
//   - []any for sequences
//   - string, int, float64, bool or nil for scalars
//
// Encoded trees may additionally contain values implementing yaml.Marshaler / json.Marshaler.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/speakeasy-api/openapi-refs/sequencedmap"
	"gopkg.in/yaml.v3"
)

// Mapping is the ordered mapping node type of a document tree.
type Mapping = sequencedmap.Map[string, any]

// NewMapping creates an empty mapping node.
func NewMapping() *Mapping {
	return sequencedmap.New[string, any]()
}

// Decode parses YAML or JSON data into a document tree.
func Decode(data []byte) (any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	if node.Kind == 0 {
		return nil, nil
	}

	return DecodeNode(&node)
}

// DecodeReader is Decode for an io.Reader.
func DecodeReader(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// DecodeNode converts a yaml node into a document tree.
func DecodeNode(node *yaml.Node) (any, error) {
	d := &decoder{}
	return d.decode(node, 0)
}

const maxDecodeDepth = 1000

// decoder expands aliases into copies of the aliased tree. The number of values produced through
// aliases is bounded relative to the document so a small input can't expand without limit.
type decoder struct {
	decodeCount int
	aliasCount  int
	aliasDepth  int
}

func (d *decoder) decode(node *yaml.Node, depth int) (any, error) {
	if node == nil {
		return nil, nil
	}
	if depth > maxDecodeDepth {
		return nil, fmt.Errorf("document nesting exceeds maximum depth of %d at line %d", maxDecodeDepth, node.Line)
	}

	d.decodeCount++
	if d.aliasDepth > 0 {
		d.aliasCount++
	}
	if d.aliasCount > 100 && d.decodeCount > 1000 && float64(d.aliasCount)/float64(d.decodeCount) > allowedAliasRatio(d.decodeCount) {
		return nil, fmt.Errorf("document contains excessive aliasing at line %d", node.Line)
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return d.decode(node.Content[0], depth+1)
	case yaml.MappingNode:
		return d.decodeMapping(node, depth)
	case yaml.SequenceNode:
		v := make([]any, 0, len(node.Content))
		for _, n := range node.Content {
			vv, err := d.decode(n, depth+1)
			if err != nil {
				return nil, err
			}
			v = append(v, vv)
		}
		return v, nil
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("failed to decode scalar at line %d: %w", node.Line, err)
		}
		return v, nil
	case yaml.AliasNode:
		d.aliasDepth++
		defer func() { d.aliasDepth-- }()
		return d.decode(node.Alias, depth+1)
	default:
		return nil, fmt.Errorf("unknown node kind %d at line %d", node.Kind, node.Line)
	}
}

// allowedAliasRatio is the share of decoded values that may come from aliases. Small documents may
// be mostly aliases, large ones may not.
func allowedAliasRatio(decodeCount int) float64 {
	switch {
	case decodeCount <= 400_000:
		return 0.99
	case decodeCount >= 4_000_000:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(decodeCount-400_000)/3_600_000)
	}
}

func (d *decoder) decodeMapping(node *yaml.Node, depth int) (any, error) {
	m := sequencedmap.NewWithCapacity[string, any](len(node.Content) / 2)

	var merged []*yaml.Node

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := resolveAlias(node.Content[i])
		valueNode := node.Content[i+1]

		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("mapping key at line %d must be a scalar", keyNode.Line)
		}

		if keyNode.Tag == "!!merge" && keyNode.Value == "<<" {
			merged = append(merged, valueNode)
			continue
		}

		v, err := d.decode(valueNode, depth+1)
		if err != nil {
			return nil, err
		}
		m.Set(keyNode.Value, v)
	}

	// explicit keys take precedence over merged ones
	for _, mergeNode := range merged {
		sources := []*yaml.Node{mergeNode}
		if target := resolveAlias(mergeNode); target.Kind == yaml.SequenceNode {
			sources = target.Content
		}

		for _, source := range sources {
			mv, err := d.decode(source, depth+1)
			if err != nil {
				return nil, err
			}
			mm, ok := mv.(*Mapping)
			if !ok {
				return nil, fmt.Errorf("merge key at line %d must reference a mapping", mergeNode.Line)
			}
			for k, v := range mm.All() {
				if !m.Has(k) {
					m.Set(k, v)
				}
			}
		}
	}

	return m, nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// Encode writes the tree in the output format and indentation of cfg.
func Encode(w io.Writer, tree any, cfg *Config) error {
	if cfg == nil {
		cfg = GetDefaultConfig()
	}

	switch cfg.OutputFormat {
	case OutputFormatJSON:
		e := json.NewEncoder(w)
		e.SetEscapeHTML(false)
		e.SetIndent("", strings.Repeat(cfg.IndentationStyle.ToIndent(), cfg.Indentation))
		return e.Encode(tree)
	default:
		e := yaml.NewEncoder(w)
		e.SetIndent(cfg.Indentation)
		if err := e.Encode(tree); err != nil {
			return err
		}
		return e.Close()
	}
}

// Marshal is Encode into a byte slice.
func Marshal(tree any, cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, tree, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeepCopy returns a copy of the mappings and sequences of tree. Scalars and any other values are shared.
func DeepCopy(tree any) any {
	switch v := tree.(type) {
	case *Mapping:
		if v == nil {
			return v
		}
		c := sequencedmap.NewWithCapacity[string, any](v.Len())
		for key, value := range v.All() {
			c.Set(key, DeepCopy(value))
		}
		return c
	case []any:
		if v == nil {
			return v
		}
		c := make([]any, len(v))
		for i, value := range v {
			c[i] = DeepCopy(value)
		}
		return c
	default:
		return tree
	}
}
