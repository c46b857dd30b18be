package rubylens

import (
	"fmt"

	"rubylens/internal/chain"
	"rubylens/internal/parser"
	"rubylens/internal/pin"
)

// Clip is a resolution context bound to one file position: it knows the
// enclosing namespace, what self is there, and which locals are visible,
// and evaluates expression chains under that lexical context.
type Clip struct {
	api   *ApiMap
	sm    *parser.SourceMap
	pos   pin.Position
	ns    string
	scope pin.Scope
}

// ClipAt binds a Clip to a position in a previously mapped file. The
// file must have been indexed via Map or Catalog first.
func (a *ApiMap) ClipAt(filename string, pos pin.Position) (*Clip, error) {
	a.mu.Lock()
	sm := a.maps[filename]
	a.mu.Unlock()
	if sm == nil {
		return nil, fmt.Errorf("rubylens: no mapped source for %s", filename)
	}
	ns, scope := sm.ContextAt(pos)
	return &Clip{api: a, sm: sm, pos: pos, ns: ns, scope: scope}, nil
}

// Context returns the enclosing namespace and scope at the clip's
// position.
func (c *Clip) Context() (string, pin.Scope) { return c.ns, c.scope }

// SelfType is the type of self at the clip's position.
func (c *Clip) SelfType() pin.ComplexType { return c.chainContext().SelfType() }

// Infer evaluates the given expression text under the clip's context and
// returns its type, or the undefined sentinel.
func (c *Clip) Infer(text string) pin.ComplexType {
	ch := parser.ChainFromText(c.sm.Filename, text)
	return ch.Infer(c.api, c.chainContext())
}

// Define resolves the expression text to its declaration pins. Text that
// denotes a definition site maps back to the declared pin itself.
func (c *Clip) Define(text string) []*pin.Pin {
	ch := parser.ChainFromText(c.sm.Filename, text)
	if len(ch.Links) > 1 {
		if def, ok := ch.Links[len(ch.Links)-1].(chain.Definition); ok {
			if p := c.sm.PinAt(def.Location.Range.Start); p != nil {
				return []*pin.Pin{p}
			}
			return nil
		}
	}
	return ch.Resolve(c.api, c.chainContext())
}

// Complete returns the candidate method pins for the expression text.
// Text ending in a member-access dot completes against the receiver's
// type; bare text completes against self, private methods included.
func (c *Clip) Complete(text string) []*pin.Pin {
	ch := parser.ChainFromText(c.sm.Filename, text)
	ctx := c.chainContext()
	if ch.Length() <= 1 {
		return c.api.TypeMethods(ctx.SelfType(), c.ns, true)
	}
	base := &chain.Chain{Links: ch.Links[:len(ch.Links)-1]}
	return c.api.TypeMethods(base.Infer(c.api, ctx), c.ns, false)
}

func (c *Clip) chainContext() chain.Context {
	return chain.Context{
		Filename:  c.sm.Filename,
		Namespace: c.ns,
		Scope:     c.scope,
		LocalType: c.localType(make(map[string]bool)),
	}
}

// localType resolves a local variable's type: the declared tag when one
// exists, otherwise the lazily inferred type of its assignment chain.
// The busy set breaks self-referential assignments.
func (c *Clip) localType(busy map[string]bool) func(string) (pin.ComplexType, bool) {
	return func(name string) (pin.ComplexType, bool) {
		if busy[name] {
			return pin.Undefined(), false
		}
		locals := c.sm.LocalsAt(c.pos)
		for i := len(locals) - 1; i >= 0; i-- {
			l := locals[i]
			if l.Pin.Name != name {
				continue
			}
			if t := l.Pin.ReturnType(); t.Defined() {
				return chain.QualifyType(c.api, t, c.ns), true
			}
			if l.Assignment == nil {
				// A known local with no inferable type still shadows
				// same-named methods.
				return pin.Undefined(), true
			}
			busy[name] = true
			ctx := chain.Context{
				Filename:  c.sm.Filename,
				Namespace: c.ns,
				Scope:     c.scope,
				LocalType: c.localType(busy),
			}
			t := l.Assignment.Infer(c.api, ctx)
			delete(busy, name)
			return t, true
		}
		return pin.Undefined(), false
	}
}
