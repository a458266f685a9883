package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/goliatone/go-paramkit/internal/jsliteral"
)

// astLocator walks the tree-sitter syntax tree of the script.
type astLocator struct{}

func (astLocator) Name() string { return "ast" }

var declarationNames = map[string]struct{}{
	"parameters":        {},
	"defaultParameters": {},
}

func (astLocator) Declaration(in *input) (string, bool) {
	prog, err := in.program()
	if err != nil {
		return "", false
	}

	var objectHit, arrayHit, moduleHit *sitter.Node
	jsliteral.Walk(prog.Root(), func(node *sitter.Node) bool {
		switch node.Type() {
		case "variable_declarator", "assignment_expression":
			target, value := assignmentParts(node)
			if target == nil || value == nil {
				return true
			}
			name := compact(prog.Text(target))
			if _, ok := declarationNames[name]; ok && target.Type() == "identifier" {
				switch value.Type() {
				case "object":
					if objectHit == nil {
						objectHit = value
					}
				case "array":
					if arrayHit == nil {
						arrayHit = value
					}
				}
				return true
			}
			if name == "module.parameters" && moduleHit == nil && (value.Type() == "object" || value.Type() == "array") {
				moduleHit = value
			}
		}
		return true
	})

	for _, hit := range []*sitter.Node{objectHit, arrayHit, moduleHit} {
		if hit != nil {
			return prog.Text(hit), true
		}
	}
	return "", false
}

func (astLocator) GeometryPairs(in *input) ([]pair, bool) {
	prog, err := in.program()
	if err != nil {
		return nil, false
	}
	fn := findGeometryFunction(prog)
	if fn == nil {
		return nil, false
	}

	var (
		pairs []pair
		seen  = make(map[string]struct{})
	)
	collect := func(obj *sitter.Node) {
		for _, member := range jsliteral.NamedChildren(obj) {
			if member.Type() != "pair" {
				continue
			}
			key := propertyKey(prog, member.ChildByFieldName("key"))
			pairs = appendUnique(pairs, seen, key, prog.Text(member.ChildByFieldName("value")))
		}
	}

	// Default objects on the formals: createGeometry(THREE, params = {...}).
	for _, formal := range jsliteral.NamedChildren(fn.formals) {
		if formal.Type() == "assignment_pattern" {
			if right := formal.ChildByFieldName("right"); right != nil && right.Type() == "object" {
				collect(right)
			}
		}
	}

	jsliteral.Walk(fn.body, func(node *sitter.Node) bool {
		switch node.Type() {
		case "variable_declarator":
			if value := node.ChildByFieldName("value"); value != nil && value.Type() == "object" {
				collect(value)
			}
		case "assignment_expression":
			if right := node.ChildByFieldName("right"); right != nil && right.Type() == "object" {
				collect(right)
			}
		case "arguments", "function_declaration", "function_expression", "function", "arrow_function":
			// Objects passed to constructors/calls are material or helper
			// options, and nested functions have their own scope.
			return false
		}
		return true
	})

	return pairs, len(pairs) > 0
}

func (astLocator) ParamReads(in *input) ([]pair, bool) {
	prog, err := in.program()
	if err != nil {
		return nil, false
	}
	fn := findGeometryFunction(prog)
	if fn == nil {
		return nil, false
	}

	receivers := make(map[string]struct{})
	for _, name := range receiverNames(fn.formalNames(prog)) {
		receivers[name] = struct{}{}
	}

	var (
		pairs []pair
		seen  = make(map[string]struct{})
	)
	jsliteral.Walk(fn.body, func(node *sitter.Node) bool {
		var value *sitter.Node
		switch node.Type() {
		case "variable_declarator":
			value = node.ChildByFieldName("value")
			if name := node.ChildByFieldName("name"); name != nil && name.Type() == "object_pattern" && value != nil {
				if _, ok := receivers[prog.Text(value)]; ok {
					pairs = collectDestructuredDefaults(prog, name, pairs, seen)
				}
				return true
			}
		case "assignment_expression":
			value = node.ChildByFieldName("right")
		default:
			return true
		}
		if key, literal, ok := fallbackRead(prog, value, receivers); ok {
			pairs = appendUnique(pairs, seen, key, literal)
		}
		return true
	})

	return pairs, len(pairs) > 0
}

// fallbackRead matches `params.key || literal` (or `??`) and returns the key
// and the literal source text.
func fallbackRead(prog *jsliteral.Program, node *sitter.Node, receivers map[string]struct{}) (string, string, bool) {
	if node == nil || node.Type() != "binary_expression" {
		return "", "", false
	}
	if op := jsliteral.Operator(node); op != "||" && op != "??" {
		return "", "", false
	}
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil || !isLiteral(right) {
		return "", "", false
	}

	var key string
	switch left.Type() {
	case "member_expression":
		object := left.ChildByFieldName("object")
		property := left.ChildByFieldName("property")
		if object == nil || property == nil {
			return "", "", false
		}
		if _, ok := receivers[prog.Text(object)]; !ok {
			return "", "", false
		}
		key = prog.Text(property)
	case "subscript_expression":
		object := left.ChildByFieldName("object")
		index := left.ChildByFieldName("index")
		if object == nil || index == nil || index.Type() != "string" {
			return "", "", false
		}
		if _, ok := receivers[prog.Text(object)]; !ok {
			return "", "", false
		}
		key = strings.Trim(prog.Text(index), `'"`)
	default:
		return "", "", false
	}
	return key, prog.Text(right), true
}

// collectDestructuredDefaults handles `const { radius = 5 } = params`.
func collectDestructuredDefaults(prog *jsliteral.Program, pattern *sitter.Node, pairs []pair, seen map[string]struct{}) []pair {
	for _, member := range jsliteral.NamedChildren(pattern) {
		if member.Type() != "object_assignment_pattern" {
			continue
		}
		left := member.ChildByFieldName("left")
		right := member.ChildByFieldName("right")
		if left == nil || right == nil || !isLiteral(right) {
			continue
		}
		pairs = appendUnique(pairs, seen, prog.Text(left), prog.Text(right))
	}
	return pairs
}

func isLiteral(node *sitter.Node) bool {
	switch node.Type() {
	case "number", "string", "true", "false":
		return true
	case "unary_expression":
		arg := node.ChildByFieldName("argument")
		return arg != nil && arg.Type() == "number"
	case "template_string":
		for _, child := range jsliteral.NamedChildren(node) {
			if child.Type() == "template_substitution" {
				return false
			}
		}
		return true
	default:
		return false
	}
}

type geometryFunction struct {
	formals *sitter.Node
	body    *sitter.Node
}

func (fn *geometryFunction) formalNames(prog *jsliteral.Program) []string {
	if fn.formals == nil {
		return nil
	}
	if fn.formals.Type() == "identifier" {
		return []string{prog.Text(fn.formals)}
	}
	var names []string
	for _, formal := range jsliteral.NamedChildren(fn.formals) {
		switch formal.Type() {
		case "identifier":
			names = append(names, prog.Text(formal))
		case "assignment_pattern":
			if left := formal.ChildByFieldName("left"); left != nil {
				names = append(names, prog.Text(left))
			}
		default:
			names = append(names, "")
		}
	}
	return names
}

// findGeometryFunction locates createGeometry in any of its common shapes:
// declaration, function/arrow expression bound to a variable, object
// method, object member or member assignment.
func findGeometryFunction(prog *jsliteral.Program) *geometryFunction {
	var found *geometryFunction
	jsliteral.Walk(prog.Root(), func(node *sitter.Node) bool {
		if found != nil {
			return false
		}
		var fnNode *sitter.Node
		switch node.Type() {
		case "function_declaration", "method_definition":
			if name := node.ChildByFieldName("name"); name != nil && prog.Text(name) == "createGeometry" {
				fnNode = node
			}
		case "variable_declarator":
			if name := node.ChildByFieldName("name"); name != nil && prog.Text(name) == "createGeometry" {
				fnNode = node.ChildByFieldName("value")
			}
		case "pair":
			if key := node.ChildByFieldName("key"); key != nil && propertyKey(prog, key) == "createGeometry" {
				fnNode = node.ChildByFieldName("value")
			}
		case "assignment_expression":
			if left := node.ChildByFieldName("left"); left != nil && strings.HasSuffix(compact(prog.Text(left)), ".createGeometry") {
				fnNode = node.ChildByFieldName("right")
			}
		}
		if fnNode == nil {
			return true
		}
		body := fnNode.ChildByFieldName("body")
		if body == nil || body.Type() != "statement_block" {
			return true
		}
		formals := fnNode.ChildByFieldName("parameters")
		if formals == nil {
			// Single-identifier arrow functions: params => { ... }
			formals = fnNode.ChildByFieldName("parameter")
		}
		found = &geometryFunction{formals: formals, body: body}
		return false
	})
	return found
}

// assignmentParts returns the target and value of a declarator or an
// assignment expression.
func assignmentParts(node *sitter.Node) (*sitter.Node, *sitter.Node) {
	if node.Type() == "variable_declarator" {
		return node.ChildByFieldName("name"), node.ChildByFieldName("value")
	}
	return node.ChildByFieldName("left"), node.ChildByFieldName("right")
}

func propertyKey(prog *jsliteral.Program, node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "property_identifier", "identifier", "number":
		return prog.Text(node)
	case "string":
		return strings.Trim(prog.Text(node), `'"`)
	default:
		return ""
	}
}

func compact(text string) string {
	return strings.Join(strings.Fields(text), "")
}
