package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema is the canonical, ordered parameter schema. Keys keep the order in
// which the script declared them so panels render controls predictably.
type Schema struct {
	keys []string
	defs map[string]Definition
}

// New constructs an empty schema.
func New() Schema {
	return Schema{defs: make(map[string]Definition)}
}

// Len reports the number of parameters.
func (s Schema) Len() int {
	return len(s.keys)
}

// Keys returns the parameter keys in declaration order.
func (s Schema) Keys() []string {
	if len(s.keys) == 0 {
		return nil
	}
	return append([]string(nil), s.keys...)
}

// Has reports whether key is declared.
func (s Schema) Has(key string) bool {
	_, ok := s.defs[key]
	return ok
}

// Index returns the declaration position of key, or Len() when the key is
// not declared.
func (s Schema) Index(key string) int {
	for i, candidate := range s.keys {
		if candidate == key {
			return i
		}
	}
	return len(s.keys)
}

// Get looks up a definition by key.
func (s Schema) Get(key string) (Definition, bool) {
	def, ok := s.defs[key]
	if !ok {
		return Definition{}, false
	}
	return def.Clone(), true
}

// Set adds key at the end of the schema or replaces an existing definition in
// place.
func (s *Schema) Set(key string, def Definition) {
	if s.defs == nil {
		s.defs = make(map[string]Definition)
	}
	if _, exists := s.defs[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.defs[key] = def.Clone()
}

// Each visits definitions in declaration order until fn returns false.
func (s Schema) Each(fn func(key string, def Definition) bool) {
	for _, key := range s.keys {
		if !fn(key, s.defs[key].Clone()) {
			return
		}
	}
}

// Defaults returns the seed value for every key.
func (s Schema) Defaults() map[string]any {
	out := make(map[string]any, len(s.keys))
	for _, key := range s.keys {
		out[key] = s.defs[key].Default
	}
	return out
}

// Clone creates a deep copy to avoid accidental mutation.
func (s Schema) Clone() Schema {
	cloned := Schema{
		keys: append([]string(nil), s.keys...),
		defs: make(map[string]Definition, len(s.defs)),
	}
	for key, def := range s.defs {
		cloned.defs[key] = def.Clone()
	}
	return cloned
}

// Validate checks every definition and reports the first offending key.
func (s Schema) Validate() error {
	if len(s.keys) == 0 {
		return errors.New("schema: no parameters defined")
	}
	for _, key := range s.keys {
		if strings.TrimSpace(key) == "" {
			return errors.New("schema: empty parameter key")
		}
		if err := s.defs[key].Validate(); err != nil {
			return fmt.Errorf("schema: parameter %q: %w", key, err)
		}
	}
	return nil
}

// DebugString summarises the schema for logs.
func (s Schema) DebugString() string {
	counts := make(map[ParameterType]int, 3)
	for _, def := range s.defs {
		counts[def.Type]++
	}
	return fmt.Sprintf("params=%d,number=%d,color=%d,string=%d",
		len(s.keys), counts[TypeNumber], counts[TypeColor], counts[TypeString])
}

// MarshalJSON emits an object whose members follow declaration order.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		encodedDef, err := json.Marshal(s.defs[key])
		if err != nil {
			return nil, fmt.Errorf("schema: encode %q: %w", key, err)
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedDef)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of definitions, keeping member order.
func (s *Schema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("schema: expected a JSON object")
	}

	out := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("schema: unexpected token %v", tok)
		}
		var def Definition
		if err := dec.Decode(&def); err != nil {
			return fmt.Errorf("schema: decode %q: %w", key, err)
		}
		out.Set(key, def)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

// MarshalYAML emits an ordered mapping node.
func (s Schema) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range s.keys {
		value := &yaml.Node{}
		if err := value.Encode(s.defs[key]); err != nil {
			return nil, fmt.Errorf("schema: encode %q: %w", key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			value,
		)
	}
	return node, nil
}
