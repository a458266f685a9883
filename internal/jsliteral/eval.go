package jsliteral

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	sitter "github.com/smacker/go-tree-sitter"
)

const maxDepth = 64

var mathConstants = map[string]float64{
	"PI":      math.Pi,
	"E":       math.E,
	"LN2":     math.Ln2,
	"LN10":    math.Ln10,
	"LOG2E":   math.Log2E,
	"LOG10E":  math.Log10E,
	"SQRT2":   math.Sqrt2,
	"SQRT1_2": 1 / math.Sqrt2,
}

var arithmeticOperators = map[string]struct{}{
	"+": {}, "-": {}, "*": {}, "/": {}, "%": {}, "**": {},
}

// Evaluate interprets fragment as a single JavaScript expression and returns
// its value, provided the expression is built from literals only. Numeric
// arithmetic over literals and Math constants is folded; identifiers, calls,
// functions, spreads and template substitutions are rejected, so nothing in
// the fragment is ever executed.
func Evaluate(ctx context.Context, fragment string) (any, error) {
	src := []byte("(" + fragment + "\n)")
	prog, err := ParseProgram(ctx, src)
	if err != nil {
		return nil, err
	}
	defer prog.Close()

	if prog.HasError() {
		return nil, errors.New("jsliteral: fragment is not a well-formed expression")
	}
	statements := NamedChildren(prog.Root())
	if len(statements) != 1 || statements[0].Type() != "expression_statement" {
		return nil, errors.New("jsliteral: fragment must be a single expression")
	}
	exprs := NamedChildren(statements[0])
	if len(exprs) != 1 {
		return nil, errors.New("jsliteral: fragment must be a single expression")
	}

	ev := evaluator{prog: prog}
	return ev.eval(exprs[0], 0)
}

type evaluator struct {
	prog *Program
}

func (ev evaluator) eval(node *sitter.Node, depth int) (any, error) {
	if depth > maxDepth {
		return nil, errors.New("jsliteral: literal nesting too deep")
	}

	switch node.Type() {
	case "object":
		obj := NewObject()
		for _, member := range NamedChildren(node) {
			if member.Type() != "pair" {
				return nil, notAllowed(member)
			}
			key, err := ev.key(member.ChildByFieldName("key"))
			if err != nil {
				return nil, err
			}
			value, err := ev.eval(member.ChildByFieldName("value"), depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			obj.Set(key, value)
		}
		return obj, nil
	case "array":
		children := NamedChildren(node)
		items := make([]any, 0, len(children))
		for _, child := range children {
			value, err := ev.eval(child, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, value)
		}
		return items, nil
	case "string":
		return ev.stringValue(node)
	case "template_string":
		for _, child := range NamedChildren(node) {
			if child.Type() == "template_substitution" {
				return nil, errors.New("jsliteral: template substitutions are not allowed")
			}
		}
		text := ev.prog.Text(node)
		return unescape(text[1 : len(text)-1])
	case "number":
		return parseNumber(ev.prog.Text(node))
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "undefined":
		return nil, nil
	case "parenthesized_expression":
		inner := NamedChildren(node)
		if len(inner) != 1 {
			return nil, notAllowed(node)
		}
		return ev.eval(inner[0], depth+1)
	case "unary_expression":
		return ev.unary(node, depth)
	case "binary_expression", "member_expression":
		return ev.arithmetic(node)
	default:
		return nil, notAllowed(node)
	}
}

func (ev evaluator) key(node *sitter.Node) (string, error) {
	if node == nil {
		return "", errors.New("jsliteral: object member without key")
	}
	switch node.Type() {
	case "property_identifier":
		return ev.prog.Text(node), nil
	case "string":
		return ev.stringValue(node)
	case "number":
		value, err := parseNumber(ev.prog.Text(node))
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(value, 'g', -1, 64), nil
	default:
		return "", notAllowed(node)
	}
}

func (ev evaluator) stringValue(node *sitter.Node) (string, error) {
	text := ev.prog.Text(node)
	if len(text) < 2 {
		return "", errors.New("jsliteral: malformed string literal")
	}
	return unescape(text[1 : len(text)-1])
}

func (ev evaluator) unary(node *sitter.Node, depth int) (any, error) {
	op := Operator(node)
	value, err := ev.eval(node.ChildByFieldName("argument"), depth+1)
	if err != nil {
		return nil, err
	}
	switch op {
	case "-", "+":
		number, ok := value.(float64)
		if !ok {
			return nil, fmt.Errorf("jsliteral: unary %s expects a number, got %s", op, Describe(value))
		}
		if op == "-" {
			return -number, nil
		}
		return number, nil
	case "!":
		return !truthy(value), nil
	default:
		return nil, fmt.Errorf("jsliteral: unary operator %q is not allowed", op)
	}
}

// arithmetic folds numeric expressions by translating the subtree into an
// expr program. Only numbers, Math constants, grouping and arithmetic
// operators survive translation.
func (ev evaluator) arithmetic(node *sitter.Node) (float64, error) {
	var b strings.Builder
	if err := ev.translate(node, &b, 0); err != nil {
		return 0, err
	}

	env := map[string]any{"Math": mathEnv()}
	program, err := expr.Compile(b.String(), expr.Env(env))
	if err != nil {
		return 0, fmt.Errorf("jsliteral: arithmetic: %w", err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return 0, fmt.Errorf("jsliteral: arithmetic: %w", err)
	}

	var value float64
	switch typed := out.(type) {
	case int:
		value = float64(typed)
	case int64:
		value = float64(typed)
	case float64:
		value = typed
	default:
		return 0, fmt.Errorf("jsliteral: arithmetic produced %T", out)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.New("jsliteral: arithmetic produced a non-finite number")
	}
	return value, nil
}

func (ev evaluator) translate(node *sitter.Node, b *strings.Builder, depth int) error {
	if node == nil {
		return errors.New("jsliteral: incomplete expression")
	}
	if depth > maxDepth {
		return errors.New("jsliteral: expression nesting too deep")
	}

	switch node.Type() {
	case "number":
		value, err := parseNumber(ev.prog.Text(node))
		if err != nil {
			return err
		}
		b.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
	case "parenthesized_expression":
		inner := NamedChildren(node)
		if len(inner) != 1 {
			return notAllowed(node)
		}
		return ev.translate(inner[0], b, depth+1)
	case "unary_expression":
		op := Operator(node)
		if op != "-" && op != "+" {
			return fmt.Errorf("jsliteral: unary operator %q is not allowed", op)
		}
		b.WriteString(op)
		b.WriteByte('(')
		if err := ev.translate(node.ChildByFieldName("argument"), b, depth+1); err != nil {
			return err
		}
		b.WriteByte(')')
	case "binary_expression":
		op := Operator(node)
		if _, ok := arithmeticOperators[op]; !ok {
			return fmt.Errorf("jsliteral: operator %q is not allowed", op)
		}
		b.WriteByte('(')
		if err := ev.translate(node.ChildByFieldName("left"), b, depth+1); err != nil {
			return err
		}
		b.WriteString(") " + op + " (")
		if err := ev.translate(node.ChildByFieldName("right"), b, depth+1); err != nil {
			return err
		}
		b.WriteByte(')')
	case "member_expression":
		object := node.ChildByFieldName("object")
		property := node.ChildByFieldName("property")
		if object == nil || property == nil || ev.prog.Text(object) != "Math" {
			return notAllowed(node)
		}
		name := ev.prog.Text(property)
		if _, ok := mathConstants[name]; !ok {
			return fmt.Errorf("jsliteral: Math.%s is not a supported constant", name)
		}
		b.WriteString("Math." + name)
	default:
		return notAllowed(node)
	}
	return nil
}

func mathEnv() map[string]any {
	out := make(map[string]any, len(mathConstants))
	for name, value := range mathConstants {
		out[name] = value
	}
	return out
}

func truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case float64:
		return typed != 0 && !math.IsNaN(typed)
	case string:
		return typed != ""
	default:
		return true
	}
}

func notAllowed(node *sitter.Node) error {
	return fmt.Errorf("jsliteral: %s is not allowed in a literal", strings.ReplaceAll(node.Type(), "_", " "))
}
