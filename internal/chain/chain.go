// Package chain models an expression as an ordered sequence of resolvable
// links. A chain is built once per expression and may be resolved any
// number of times under different lexical contexts; resolution never
// mutates the chain.
package chain

import "rubylens/internal/pin"

// Resolver is the query surface a chain needs to resolve its links. The
// ApiMap satisfies it; tests substitute fakes.
type Resolver interface {
	Qualify(name, context string) (string, bool)
	TypeMethods(t pin.ComplexType, context string, includePrivate bool) []*pin.Pin
	PathPins(path string) []*pin.Pin
	InstanceVariablePins(fqns string, scope pin.Scope) []*pin.Pin
	ClassVariablePins(fqns string) []*pin.Pin
	GlobalVariablePins() []*pin.Pin
}

// Context is the lexical position a chain is evaluated in: the enclosing
// namespace, the scope of the surrounding body, and the locals visible
// there. LocalType may be nil when no local information is available.
type Context struct {
	Filename  string
	Namespace string
	Scope     pin.Scope
	LocalType func(name string) (pin.ComplexType, bool)
}

// SelfType is the type of `self` at the context position.
func (c Context) SelfType() pin.ComplexType {
	if c.Namespace == "" {
		if c.Scope == pin.ScopeClass {
			return pin.ClassType("Object")
		}
		return pin.InstanceType("Object")
	}
	if c.Scope == pin.ScopeClass {
		return pin.ClassType(c.Namespace)
	}
	return pin.InstanceType(c.Namespace)
}

// Chain is the ordered link sequence for one expression. Links[0] is
// always the synthetic Root link.
type Chain struct {
	Links []Link
}

// New builds a chain from the given links, prepending the Root link so
// resolution has a uniform starting point.
func New(links ...Link) *Chain {
	all := make([]Link, 0, len(links)+1)
	all = append(all, Root{})
	all = append(all, links...)
	return &Chain{Links: all}
}

// Length returns the number of links excluding the synthetic root.
func (c *Chain) Length() int { return len(c.Links) - 1 }

// Resolve walks every link against r and returns the candidate pins for
// the final link. Unresolvable steps degrade to an empty result.
func (c *Chain) Resolve(r Resolver, ctx Context) []*pin.Pin {
	pins, _ := c.walk(r, ctx)
	return pins
}

// Infer walks every link and returns the type of the whole expression,
// or the undefined sentinel when any step fails to resolve.
func (c *Chain) Infer(r Resolver, ctx Context) pin.ComplexType {
	_, t := c.walk(r, ctx)
	return t
}

func (c *Chain) walk(r Resolver, ctx Context) ([]*pin.Pin, pin.ComplexType) {
	current := pin.Undefined()
	var pins []*pin.Pin
	for i, link := range c.Links {
		// A receiverless call in head position resolves as a local
		// variable first; locals shadow methods.
		if i == 1 && ctx.LocalType != nil {
			if call, ok := link.(Call); ok && call.Implicit {
				if t, found := ctx.LocalType(call.Name); found {
					current = t
					pins = nil
					continue
				}
			}
		}
		pins, current = link.resolve(r, ctx, current)
	}
	return pins, current
}

// QualifyType resolves the relative names inside t against the given
// namespace. Callers holding declared type tags use it before method
// lookups.
func QualifyType(r Resolver, t pin.ComplexType, context string) pin.ComplexType {
	return qualifyType(r, t, context)
}

// qualifyType resolves the relative names inside t against the given
// namespace so downstream lookups use fully qualified names.
// Unresolvable names pass through unchanged.
func qualifyType(r Resolver, t pin.ComplexType, context string) pin.ComplexType {
	if !t.Defined() {
		return t
	}
	out := pin.ComplexType{Items: make([]pin.UniqueType, len(t.Items))}
	for i, item := range t.Items {
		out.Items[i] = qualifyUnique(r, item, context)
	}
	return out
}

func qualifyUnique(r Resolver, u pin.UniqueType, context string) pin.UniqueType {
	if u.Duck() || u.Nil() || u.SelfType() || u.Name == "Boolean" {
		return u
	}
	q := u
	if fq, ok := r.Qualify(u.Name, context); ok {
		q.Name = fq
	}
	if len(u.Params) > 0 {
		q.Params = make([]pin.UniqueType, len(u.Params))
		for i, p := range u.Params {
			q.Params[i] = qualifyUnique(r, p, context)
		}
	}
	return q
}

// returnTypeOf picks the effective type of a resolved method call: the
// first candidate pin with a defined return type, with `self` replaced by
// the receiver.
func returnTypeOf(r Resolver, pins []*pin.Pin, receiver pin.ComplexType) pin.ComplexType {
	for _, p := range pins {
		t := p.ReturnType()
		if !t.Defined() {
			continue
		}
		if t.First().SelfType() {
			return receiver
		}
		return qualifyType(r, t, p.Namespace)
	}
	return pin.Undefined()
}
