package jsliteral

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DecodeJSON decodes a strict JSON document into ordered values. JSON is a
// subset of YAML 1.2, so the yaml node tree is used to recover member order
// that encoding/json discards.
func DecodeJSON(strict string) (any, error) {
	if !json.Valid([]byte(strict)) {
		return nil, errors.New("jsliteral: fragment is not valid JSON")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(strict), &doc); err != nil {
		return nil, fmt.Errorf("jsliteral: decode: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, errors.New("jsliteral: expected a single JSON value")
	}
	return fromNode(doc.Content[0], 0)
}

func fromNode(node *yaml.Node, depth int) (any, error) {
	if depth > maxDepth {
		return nil, errors.New("jsliteral: literal nesting too deep")
	}

	switch node.Kind {
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			value, err := fromNode(node.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			obj.Set(key, value)
		}
		return obj, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			value, err := fromNode(child, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, value)
		}
		return items, nil
	case yaml.ScalarNode:
		return fromScalar(node)
	default:
		return nil, fmt.Errorf("jsliteral: unsupported node kind %d", node.Kind)
	}
}

func fromScalar(node *yaml.Node) (any, error) {
	if node.Style == yaml.DoubleQuotedStyle || node.Style == yaml.SingleQuotedStyle {
		return node.Value, nil
	}
	switch node.Value {
	case "null":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	value, err := strconv.ParseFloat(node.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("jsliteral: unexpected scalar %q", node.Value)
	}
	return value, nil
}
