package parser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"rubylens/internal/chain"
)

// NodeChain converts an expression's syntax tree into a chain. Each node
// contributes at most one link; sequence-like nodes are transparent. A nil
// node yields a chain holding only the root link.
func NodeChain(filename string, n *sitter.Node, src []byte) *chain.Chain {
	var links []chain.Link
	chainLinks(n, src, filename, &links)
	return chain.New(links...)
}

// ChainFromText parses isolated source text and builds its chain. Text
// ending in a member-access dot gets one extra unresolved link for the
// pending, mid-typing step.
func ChainFromText(filename, text string) *chain.Chain {
	trimmed := strings.TrimRight(text, " \t\n")
	pending := strings.HasSuffix(trimmed, ".") && !strings.HasSuffix(trimmed, "..")
	code := trimmed
	if pending {
		code = trimmed[:len(trimmed)-1]
	}
	var c *chain.Chain
	tree, err := Parse(context.Background(), []byte(code))
	if err != nil || tree == nil {
		c = chain.New()
	} else {
		c = NodeChain(filename, tree.RootNode(), []byte(code))
	}
	if pending {
		c.Links = append(c.Links, chain.Unresolved{})
	}
	return c
}

func chainLinks(n *sitter.Node, src []byte, filename string, links *[]chain.Link) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "program", "begin", "parenthesized_statements", "body_statement", "then", "expression_statement":
		// Sequence nodes are transparent: only the first child matters for
		// the chain.
		if n.NamedChildCount() > 0 {
			chainLinks(n.NamedChild(0), src, filename, links)
		}
	case "call", "method_call":
		receiver := n.ChildByFieldName("receiver")
		if receiver != nil {
			chainLinks(receiver, src, filename, links)
		}
		name := ""
		if m := n.ChildByFieldName("method"); m != nil {
			name = m.Content(src)
		}
		*links = append(*links, chain.Call{
			Name:     name,
			Args:     argChains(n.ChildByFieldName("arguments"), src, filename),
			Implicit: receiver == nil,
		})
	case "identifier":
		// A bare identifier is an implicit-self call; resolution lets a
		// local variable of the same name shadow it.
		*links = append(*links, chain.Call{Name: n.Content(src), Implicit: true})
	case "self":
		*links = append(*links, chain.Call{Name: "self", Implicit: true})
	case "constant":
		*links = append(*links, chain.Constant{Name: n.Content(src)})
	case "scope_resolution":
		*links = append(*links, chain.Constant{Name: n.Content(src)})
	case "instance_variable":
		*links = append(*links, chain.InstanceVariable{Name: n.Content(src)})
	case "class_variable":
		*links = append(*links, chain.ClassVariable{Name: n.Content(src)})
	case "global_variable":
		*links = append(*links, chain.GlobalVariable{Name: n.Content(src)})
	case "assignment", "operator_assignment":
		chainAssignment(n, src, filename, links)
	case "method", "singleton_method", "class", "module":
		// Definitions are leaves for chaining purposes.
		*links = append(*links, chain.Definition{Location: nodeLocation(filename, n)})
	default:
		if t, ok := literalTypeName(n.Type()); ok {
			*links = append(*links, chain.Literal{TypeName: t})
		} else {
			*links = append(*links, chain.Unresolved{})
		}
	}
}

// chainAssignment appends the variable link for the assignment target, so
// hovering `x = ...` resolves the written variable.
func chainAssignment(n *sitter.Node, src []byte, filename string, links *[]chain.Link) {
	left := n.ChildByFieldName("left")
	if left == nil {
		*links = append(*links, chain.Unresolved{})
		return
	}
	switch left.Type() {
	case "identifier":
		*links = append(*links, chain.Variable{Name: left.Content(src)})
	case "instance_variable":
		*links = append(*links, chain.InstanceVariable{Name: left.Content(src)})
	case "class_variable":
		*links = append(*links, chain.ClassVariable{Name: left.Content(src)})
	case "global_variable":
		*links = append(*links, chain.GlobalVariable{Name: left.Content(src)})
	case "constant", "scope_resolution":
		*links = append(*links, chain.Constant{Name: left.Content(src)})
	default:
		*links = append(*links, chain.Unresolved{})
	}
}

func argChains(args *sitter.Node, src []byte, filename string) []*chain.Chain {
	if args == nil {
		return nil
	}
	var out []*chain.Chain
	for i := 0; i < int(args.NamedChildCount()); i++ {
		out = append(out, NodeChain(filename, args.NamedChild(i), src))
	}
	return out
}

// literalTypeName maps literal node kinds to their intrinsic types.
func literalTypeName(nodeType string) (string, bool) {
	switch nodeType {
	case "integer":
		return "Integer", true
	case "float":
		return "Float", true
	case "string", "chained_string", "bare_string", "heredoc_body":
		return "String", true
	case "simple_symbol", "delimited_symbol", "symbol", "hash_key_symbol", "bare_symbol":
		return "Symbol", true
	case "array", "string_array", "symbol_array":
		return "Array", true
	case "hash":
		return "Hash", true
	case "regex":
		return "Regexp", true
	case "range":
		return "Range", true
	case "lambda":
		return "Proc", true
	case "true", "false":
		return "Boolean", true
	case "nil":
		return "NilClass", true
	}
	return "", false
}
