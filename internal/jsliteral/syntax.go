package jsliteral

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// Program is a parsed JavaScript source backed by a tree-sitter syntax tree.
// Callers must Close it.
type Program struct {
	tree *sitter.Tree
	src  []byte
}

// ParseProgram builds the syntax tree for src. tree-sitter is error tolerant:
// the returned program may contain ERROR or MISSING nodes, which callers
// inspect through HasError.
func ParseProgram(ctx context.Context, src []byte) (*Program, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("jsliteral: parse: %w", err)
	}
	if tree == nil {
		return nil, errors.New("jsliteral: parser returned no tree")
	}
	return &Program{tree: tree, src: src}, nil
}

// Root returns the program node.
func (p *Program) Root() *sitter.Node {
	return p.tree.RootNode()
}

// Text returns the source text spanned by node.
func (p *Program) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Content(p.src)
}

// HasError reports whether the whole tree parsed cleanly.
func (p *Program) HasError() bool {
	return p.Root().HasError()
}

// Close releases the underlying tree.
func (p *Program) Close() {
	if p != nil && p.tree != nil {
		p.tree.Close()
	}
}

// NamedChildren lists node's named children, skipping comments.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	count := int(node.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// Walk visits node and its named descendants depth-first until fn returns
// false for a node, which prunes that subtree.
func Walk(node *sitter.Node, fn func(*sitter.Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		Walk(node.NamedChild(i), fn)
	}
}

// Operator returns the operator token of a unary/binary expression.
func Operator(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	if op := node.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return ""
}
