package jsliteral

import (
	"context"
	"errors"
	"strings"
)

// Method records which decoding path produced a value.
type Method string

const (
	MethodJSON     Method = "json"
	MethodEvaluate Method = "evaluate"
)

// Parse decodes a literal fragment. The fragment is first rewritten into
// strict JSON and decoded; when that fails it is evaluated as a sandboxed
// literal expression. The error joins both failure reasons.
func Parse(ctx context.Context, fragment string) (any, Method, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, "", errors.New("jsliteral: empty fragment")
	}

	strict, jsonErr := ToJSON(fragment)
	if jsonErr == nil {
		value, err := DecodeJSON(strict)
		if err == nil {
			return value, MethodJSON, nil
		}
		jsonErr = err
	}

	value, evalErr := Evaluate(ctx, fragment)
	if evalErr == nil {
		return value, MethodEvaluate, nil
	}
	return nil, "", errors.Join(jsonErr, evalErr)
}
