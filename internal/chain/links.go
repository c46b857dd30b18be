package chain

import "rubylens/internal/pin"

// Link is one resolvable step. resolve receives the type produced by the
// previous link and returns the candidate pins for this step plus the
// type the next link starts from.
type Link interface {
	Word() string
	resolve(r Resolver, ctx Context, receiver pin.ComplexType) ([]*pin.Pin, pin.ComplexType)
}

// Root is the synthetic starting link: no pins, type of self.
type Root struct{}

func (Root) Word() string { return "<root>" }

func (Root) resolve(_ Resolver, ctx Context, _ pin.ComplexType) ([]*pin.Pin, pin.ComplexType) {
	return nil, ctx.SelfType()
}

// Call is a method invocation. Implicit marks a receiverless call, which
// resolves against self and may reach private methods. Args carries the
// argument sub-chains; they are built for callers to walk but do not
// influence method-pin selection.
type Call struct {
	Name     string
	Args     []*Chain
	Implicit bool
}

func (c Call) Word() string { return c.Name }

func (c Call) resolve(r Resolver, ctx Context, receiver pin.ComplexType) ([]*pin.Pin, pin.ComplexType) {
	if !receiver.Defined() {
		return nil, pin.Undefined()
	}
	if c.Name == "self" {
		return nil, receiver
	}
	pins := methodsNamed(r, receiver, ctx.Namespace, c.Implicit, c.Name)
	if len(pins) == 0 {
		return nil, pin.Undefined()
	}
	return pins, returnTypeOf(r, pins, receiver)
}

func methodsNamed(r Resolver, receiver pin.ComplexType, context string, includePrivate bool, name string) []*pin.Pin {
	var out []*pin.Pin
	for _, p := range r.TypeMethods(receiver, context, includePrivate) {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// Constant is a possibly qualified constant reference ("Foo", "Foo::Bar",
// "::Bar").
type Constant struct {
	Name string
}

func (c Constant) Word() string { return c.Name }

func (c Constant) resolve(r Resolver, ctx Context, receiver pin.ComplexType) ([]*pin.Pin, pin.ComplexType) {
	context := ctx.Namespace
	// After a constant link, lookup continues relative to that namespace.
	if receiver.Defined() && receiver.First().ClassObject() {
		context = receiver.First().Namespace()
	}
	fq, ok := r.Qualify(c.Name, context)
	if !ok {
		return nil, pin.Undefined()
	}
	all := r.PathPins(fq)
	// A name redeclared as a namespace answers as the namespace; the plain
	// constant pin stays independently queryable through PathPins.
	var nsPins, constPins []*pin.Pin
	for _, p := range all {
		switch p.Kind {
		case pin.KindNamespace:
			nsPins = append(nsPins, p)
		case pin.KindConstant:
			constPins = append(constPins, p)
		}
	}
	if len(nsPins) > 0 {
		return nsPins, pin.ClassType(fq)
	}
	if len(constPins) > 0 {
		return constPins, qualifyType(r, constPins[len(constPins)-1].ReturnType(), constPins[len(constPins)-1].Namespace)
	}
	return nil, pin.Undefined()
}

// Variable is a local-variable read or write, resolved through the
// context's local table.
type Variable struct {
	Name string
}

func (v Variable) Word() string { return v.Name }

func (v Variable) resolve(_ Resolver, ctx Context, _ pin.ComplexType) ([]*pin.Pin, pin.ComplexType) {
	if ctx.LocalType == nil {
		return nil, pin.Undefined()
	}
	if t, ok := ctx.LocalType(v.Name); ok {
		return nil, t
	}
	return nil, pin.Undefined()
}

// InstanceVariable is an @ivar read or write.
type InstanceVariable struct {
	Name string
}

func (v InstanceVariable) Word() string { return v.Name }

func (v InstanceVariable) resolve(r Resolver, ctx Context, _ pin.ComplexType) ([]*pin.Pin, pin.ComplexType) {
	return variablePins(r, r.InstanceVariablePins(ctx.Namespace, ctx.Scope), v.Name)
}

// ClassVariable is a @@cvar read or write.
type ClassVariable struct {
	Name string
}

func (v ClassVariable) Word() string { return v.Name }

func (v ClassVariable) resolve(r Resolver, ctx Context, _ pin.ComplexType) ([]*pin.Pin, pin.ComplexType) {
	return variablePins(r, r.ClassVariablePins(ctx.Namespace), v.Name)
}

// GlobalVariable is a $gvar read or write.
type GlobalVariable struct {
	Name string
}

func (v GlobalVariable) Word() string { return v.Name }

func (v GlobalVariable) resolve(r Resolver, _ Context, _ pin.ComplexType) ([]*pin.Pin, pin.ComplexType) {
	return variablePins(r, r.GlobalVariablePins(), v.Name)
}

func variablePins(r Resolver, candidates []*pin.Pin, name string) ([]*pin.Pin, pin.ComplexType) {
	var out []*pin.Pin
	for _, p := range candidates {
		if p.Name == name {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, pin.Undefined()
	}
	// Last assignment wins for the inferred type.
	last := out[len(out)-1]
	return out, qualifyType(r, last.ReturnType(), last.Namespace)
}

// Literal is a concrete literal with an intrinsic type.
type Literal struct {
	TypeName string
}

func (l Literal) Word() string { return "<" + l.TypeName + ">" }

func (l Literal) resolve(_ Resolver, _ Context, _ pin.ComplexType) ([]*pin.Pin, pin.ComplexType) {
	return nil, pin.InstanceType(l.TypeName)
}

// Definition marks a chain that denotes a declaration site rather than an
// expression (hovering a def or class keyword). It carries only the
// location; Clip maps it back to the declared pin.
type Definition struct {
	Location pin.Location
}

func (Definition) Word() string { return "<definition>" }

func (Definition) resolve(_ Resolver, _ Context, _ pin.ComplexType) ([]*pin.Pin, pin.ComplexType) {
	return nil, pin.Undefined()
}

// Unresolved is the catch-all for syntax the chainer does not recognize,
// and for the pending link after a trailing member-access dot.
type Unresolved struct{}

func (Unresolved) Word() string { return "<unresolved>" }

func (Unresolved) resolve(_ Resolver, _ Context, _ pin.ComplexType) ([]*pin.Pin, pin.ComplexType) {
	return nil, pin.Undefined()
}
