// Package jsliteral turns JavaScript object/array literal fragments into Go
// values without executing script code.
//
// Decoded values are one of: nil, bool, float64, string, []any or *Object.
// Objects keep member order so schemas render parameters in the order the
// script author declared them.
package jsliteral

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Object is an ordered string-keyed mapping.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set assigns key, appending it when new. Later duplicates overwrite earlier
// values but keep the first position, matching JS object semantics.
func (o *Object) Set(key string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the member stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	value, ok := o.values[key]
	return value, ok
}

// Keys lists members in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Len reports the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Map converts the object (recursively) into plain Go maps, dropping order.
func (o *Object) Map() map[string]any {
	if o == nil {
		return nil
	}
	out := make(map[string]any, len(o.keys))
	for _, key := range o.keys {
		out[key] = Plain(o.values[key])
	}
	return out
}

// MarshalJSON keeps member order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, key := range o.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// Plain converts *Object values nested anywhere in v into map[string]any.
func Plain(v any) any {
	switch typed := v.(type) {
	case *Object:
		return typed.Map()
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Plain(item)
		}
		return out
	default:
		return typed
	}
}

// Describe names the dynamic kind of a decoded value for error messages.
func Describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case *Object:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
