// Package parser turns Ruby source text into declaration pins, lexical
// regions, and expression chains, using the tree-sitter Ruby grammar.
package parser

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"rubylens/internal/pin"
)

var (
	rubyLang     *sitter.Language
	rubyLangOnce sync.Once
)

func language() *sitter.Language {
	rubyLangOnce.Do(func() {
		rubyLang = ruby.GetLanguage()
	})
	return rubyLang
}

// Parse parses src and returns the syntax tree. tree-sitter always
// produces a tree, marking unparseable stretches with error nodes, so a
// non-nil error here means the parse itself was aborted (cancellation).
func Parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	p := sitter.NewParser()
	p.SetLanguage(language())
	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parser: %w", err)
	}
	return tree, nil
}

func nodeRange(n *sitter.Node) pin.Range {
	return pin.Range{
		Start: pin.Position{Line: int(n.StartPoint().Row), Column: int(n.StartPoint().Column)},
		End:   pin.Position{Line: int(n.EndPoint().Row), Column: int(n.EndPoint().Column)},
	}
}

func nodeLocation(filename string, n *sitter.Node) pin.Location {
	return pin.Location{Filename: filename, Range: nodeRange(n)}
}
