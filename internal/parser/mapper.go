package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"rubylens/internal/chain"
	"rubylens/internal/pin"
)

// SourceMap is the per-file mapping result: the declaration pins a file
// contributes, the locals visible at each position, and the lexical
// regions used to answer "what is self here".
type SourceMap struct {
	Filename string
	Code     []byte
	Pins     []*pin.Pin
	Locals   []*Local
	regions  []region
}

// Local is a local-variable occurrence: its pin, the chain of its
// assignment (inferred lazily at query time), and the range it is visible
// in.
type Local struct {
	Pin        *pin.Pin
	Assignment *chain.Chain
	Presence   pin.Range
}

// region records what namespace and scope surround a range of text.
type region struct {
	rng       pin.Range
	namespace string
	scope     pin.Scope
}

// MapSource extracts a SourceMap from a parsed file. A nil tree (failed
// parse) contributes no pins; analysis of other files is unaffected.
func MapSource(filename string, code []byte, tree *sitter.Tree) *SourceMap {
	sm := &SourceMap{Filename: filename, Code: code}
	if tree == nil {
		return sm
	}
	root := tree.RootNode()
	m := &mapper{filename: filename, src: code, sm: sm, comments: map[int]string{}}
	m.collectComments(root)
	sm.regions = append(sm.regions, region{rng: nodeRange(root), namespace: "", scope: pin.ScopeInstance})
	vis := pin.Public
	m.walkBody(root, walkCtx{presence: nodeRange(root), vis: &vis})
	m.collectSymbols(root)
	return sm
}

// ContextAt returns the namespace and scope enclosing pos: the innermost
// region whose range contains the position.
func (sm *SourceMap) ContextAt(pos pin.Position) (string, pin.Scope) {
	ns, scope := "", pin.ScopeInstance
	best := pin.Position{Line: -1}
	// Nested regions follow their parents, so on equal starts the later
	// (inner) region wins.
	for _, reg := range sm.regions {
		if reg.rng.Contains(pos) && !reg.rng.Start.Before(best) {
			best = reg.rng.Start
			ns, scope = reg.namespace, reg.scope
		}
	}
	return ns, scope
}

// LocalsAt returns the locals visible at pos: declared in a surrounding
// body, at or before the position.
func (sm *SourceMap) LocalsAt(pos pin.Position) []*Local {
	var out []*Local
	for _, l := range sm.Locals {
		if !l.Presence.Contains(pos) {
			continue
		}
		if pos.Before(l.Pin.Location.Range.Start) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// PinAt returns the innermost declaration pin whose range contains pos,
// or nil. Used to map Definition links back to their pins.
func (sm *SourceMap) PinAt(pos pin.Position) *pin.Pin {
	var found *pin.Pin
	best := pin.Position{Line: -1}
	for _, p := range sm.Pins {
		if p.Kind == pin.KindReference || p.Kind == pin.KindLocalVariable {
			continue
		}
		if p.Location.Range.Contains(pos) && !p.Location.Range.Start.Before(best) {
			best = p.Location.Range.Start
			found = p
		}
	}
	return found
}

// RequirePins returns the file's require references.
func (sm *SourceMap) RequirePins() []*pin.Pin {
	var out []*pin.Pin
	for _, p := range sm.Pins {
		if p.Kind == pin.KindReference && p.RefKind == pin.RefRequire {
			out = append(out, p)
		}
	}
	return out
}

type walkCtx struct {
	ns        string
	selfScope pin.Scope // what self is in this body
	inMethod  bool
	singleton bool // inside class << self
	presence  pin.Range
	vis       *pin.Visibility
}

type mapper struct {
	filename string
	src      []byte
	sm       *SourceMap
	comments map[int]string
}

func (m *mapper) walkBody(n *sitter.Node, ctx walkCtx) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		m.walk(n.NamedChild(i), ctx)
	}
}

func (m *mapper) walk(n *sitter.Node, ctx walkCtx) {
	switch n.Type() {
	case "comment":
	case "class":
		m.handleNamespace(n, ctx, pin.TypeClass)
	case "module":
		m.handleNamespace(n, ctx, pin.TypeModule)
	case "singleton_class":
		sub := ctx
		sub.singleton = true
		m.walkBody(n, sub)
	case "method":
		m.handleMethod(n, ctx, ctx.singleton)
	case "singleton_method":
		m.handleMethod(n, ctx, true)
	case "assignment", "operator_assignment":
		m.handleAssignment(n, ctx)
	case "call", "method_call":
		m.handleCall(n, ctx)
	case "identifier":
		// A bare visibility modifier parses as a plain identifier.
		switch n.Content(m.src) {
		case "private":
			*ctx.vis = pin.Private
		case "protected":
			*ctx.vis = pin.Protected
		case "public":
			*ctx.vis = pin.Public
		}
	case "alias":
		m.handleAlias(n, ctx)
	default:
		m.walkBody(n, ctx)
	}
}

func (m *mapper) handleNamespace(n *sitter.Node, ctx walkCtx, nsType pin.NamespaceType) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	short, declNS := splitConstName(nameNode.Content(m.src), ctx.ns)
	fq := qualifiedJoin(declNS, short)
	docs, _ := m.docsFor(int(n.StartPoint().Row))

	m.sm.Pins = append(m.sm.Pins, &pin.Pin{
		Kind:          pin.KindNamespace,
		Name:          short,
		Namespace:     declNS,
		NamespaceType: nsType,
		Docs:          docs,
		Location:      nodeLocation(m.filename, n),
	})

	if sc := superclassName(n, m.src); sc != "" {
		m.sm.Pins = append(m.sm.Pins, &pin.Pin{
			Kind:      pin.KindReference,
			RefKind:   pin.RefSuperclass,
			Name:      sc,
			Namespace: fq,
			Location:  nodeLocation(m.filename, n),
		})
	}

	m.sm.regions = append(m.sm.regions, region{rng: nodeRange(n), namespace: fq, scope: pin.ScopeClass})

	vis := pin.Public
	m.walkBody(n, walkCtx{
		ns:        fq,
		selfScope: pin.ScopeClass,
		presence:  nodeRange(n),
		vis:       &vis,
	})
}

func superclassName(class *sitter.Node, src []byte) string {
	for i := 0; i < int(class.NamedChildCount()); i++ {
		child := class.NamedChild(i)
		if child.Type() != "superclass" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			sub := child.NamedChild(j)
			if sub.Type() == "constant" || sub.Type() == "scope_resolution" {
				return sub.Content(src)
			}
		}
		// Unresolvable superclass expression; ancestry will simply stop.
		return ""
	}
	return ""
}

func (m *mapper) handleMethod(n *sitter.Node, ctx walkCtx, classMethod bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(m.src)
	docs, tags := m.docsFor(int(n.StartPoint().Row))
	scope := pin.ScopeInstance
	if classMethod {
		scope = pin.ScopeClass
	}
	params := paramNames(n, m.src)

	m.sm.Pins = append(m.sm.Pins, &pin.Pin{
		Kind:       pin.KindMethod,
		Name:       name,
		Namespace:  ctx.ns,
		Scope:      scope,
		Visibility: *ctx.vis,
		TypeName:   tags.Return,
		Docs:       docs,
		Parameters: params,
		Location:   nodeLocation(m.filename, n),
	})

	body := nodeRange(n)
	m.sm.regions = append(m.sm.regions, region{rng: body, namespace: ctx.ns, scope: scope})

	for _, prm := range params {
		m.sm.Locals = append(m.sm.Locals, &Local{
			Pin: &pin.Pin{
				Kind:      pin.KindLocalVariable,
				Name:      prm,
				Namespace: ctx.ns,
				TypeName:  tags.Params[prm],
				Location:  nodeLocation(m.filename, n),
			},
			Presence: body,
		})
	}

	m.walkBody(n, walkCtx{
		ns:        ctx.ns,
		selfScope: scope,
		inMethod:  true,
		presence:  body,
		vis:       ctx.vis,
	})
}

func paramNames(method *sitter.Node, src []byte) []string {
	params := method.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			out = append(out, p.Content(src))
		default:
			if name := p.ChildByFieldName("name"); name != nil {
				out = append(out, name.Content(src))
			}
		}
	}
	return out
}

func (m *mapper) handleAssignment(n *sitter.Node, ctx walkCtx) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil {
		return
	}
	switch left.Type() {
	case "constant", "scope_resolution":
		short, declNS := splitConstName(left.Content(m.src), ctx.ns)
		docs, _ := m.docsFor(int(n.StartPoint().Row))
		m.sm.Pins = append(m.sm.Pins, &pin.Pin{
			Kind:      pin.KindConstant,
			Name:      short,
			Namespace: declNS,
			TypeName:  m.inferAssigned(right),
			Docs:      docs,
			Location:  nodeLocation(m.filename, left),
		})
	case "identifier":
		lp := &pin.Pin{
			Kind:      pin.KindLocalVariable,
			Name:      left.Content(m.src),
			Namespace: ctx.ns,
			TypeName:  m.inferAssigned(right),
			Location:  nodeLocation(m.filename, left),
		}
		var asgn *chain.Chain
		if right != nil {
			asgn = NodeChain(m.filename, right, m.src)
		}
		m.sm.Locals = append(m.sm.Locals, &Local{Pin: lp, Assignment: asgn, Presence: ctx.presence})
	case "instance_variable":
		m.sm.Pins = append(m.sm.Pins, &pin.Pin{
			Kind:      pin.KindInstanceVariable,
			Name:      left.Content(m.src),
			Namespace: ctx.ns,
			Scope:     ctx.selfScope,
			TypeName:  m.inferAssigned(right),
			Location:  nodeLocation(m.filename, left),
		})
	case "class_variable":
		m.sm.Pins = append(m.sm.Pins, &pin.Pin{
			Kind:      pin.KindClassVariable,
			Name:      left.Content(m.src),
			Namespace: ctx.ns,
			TypeName:  m.inferAssigned(right),
			Location:  nodeLocation(m.filename, left),
		})
	case "global_variable":
		m.sm.Pins = append(m.sm.Pins, &pin.Pin{
			Kind:     pin.KindGlobalVariable,
			Name:     left.Content(m.src),
			TypeName: m.inferAssigned(right),
			Location: nodeLocation(m.filename, left),
		})
	}
	if right != nil {
		m.walk(right, ctx)
	}
}

// inferAssigned guesses the type of an assignment's right-hand side from
// its syntactic shape: literals, constant references (class objects), and
// Constant.new calls. Anything else stays undefined.
func (m *mapper) inferAssigned(right *sitter.Node) string {
	if right == nil {
		return ""
	}
	if t, ok := literalTypeName(right.Type()); ok {
		return t
	}
	switch right.Type() {
	case "constant", "scope_resolution":
		return "Class<" + right.Content(m.src) + ">"
	case "call", "method_call":
		method := right.ChildByFieldName("method")
		receiver := right.ChildByFieldName("receiver")
		if method != nil && receiver != nil && method.Content(m.src) == "new" {
			if receiver.Type() == "constant" || receiver.Type() == "scope_resolution" {
				return receiver.Content(m.src)
			}
		}
	}
	return ""
}

func (m *mapper) handleCall(n *sitter.Node, ctx walkCtx) {
	methodNode := n.ChildByFieldName("method")
	if methodNode == nil || n.ChildByFieldName("receiver") != nil {
		m.walkBody(n, ctx)
		return
	}
	name := methodNode.Content(m.src)
	args := n.ChildByFieldName("arguments")
	switch name {
	case "include", "prepend":
		m.addMixinRefs(args, ctx, pin.RefInclude)
	case "extend":
		m.addMixinRefs(args, ctx, pin.RefExtend)
	case "require", "require_relative":
		if path := firstStringArg(args, m.src); path != "" {
			m.sm.Pins = append(m.sm.Pins, &pin.Pin{
				Kind:     pin.KindReference,
				RefKind:  pin.RefRequire,
				Name:     path,
				Location: nodeLocation(m.filename, n),
			})
		}
	case "attr_reader":
		m.addAttrs(n, args, ctx, true, false)
	case "attr_writer":
		m.addAttrs(n, args, ctx, false, true)
	case "attr_accessor":
		m.addAttrs(n, args, ctx, true, true)
	case "private":
		m.applyVisibility(n, args, ctx, pin.Private)
	case "protected":
		m.applyVisibility(n, args, ctx, pin.Protected)
	case "public":
		m.applyVisibility(n, args, ctx, pin.Public)
	case "private_constant":
		for _, sym := range symbolArgs(args, m.src) {
			m.remarkConstant(ctx.ns, sym)
		}
	case "alias_method":
		syms := symbolArgs(args, m.src)
		if len(syms) == 2 {
			m.addAlias(n, ctx, syms[0], syms[1])
		}
	default:
		m.walkBody(n, ctx)
	}
}

func (m *mapper) addMixinRefs(args *sitter.Node, ctx walkCtx, kind pin.RefKind) {
	if args == nil {
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() != "constant" && arg.Type() != "scope_resolution" {
			continue
		}
		m.sm.Pins = append(m.sm.Pins, &pin.Pin{
			Kind:      pin.KindReference,
			RefKind:   kind,
			Name:      arg.Content(m.src),
			Namespace: ctx.ns,
			Location:  nodeLocation(m.filename, arg),
		})
	}
}

func (m *mapper) addAttrs(call, args *sitter.Node, ctx walkCtx, reader, writer bool) {
	docs, tags := m.docsFor(int(call.StartPoint().Row))
	for _, sym := range symbolArgs(args, m.src) {
		if reader {
			m.sm.Pins = append(m.sm.Pins, &pin.Pin{
				Kind:       pin.KindMethod,
				Name:       sym,
				Namespace:  ctx.ns,
				Scope:      pin.ScopeInstance,
				Visibility: *ctx.vis,
				TypeName:   tags.Return,
				Docs:       docs,
				Location:   nodeLocation(m.filename, call),
			})
		}
		if writer {
			m.sm.Pins = append(m.sm.Pins, &pin.Pin{
				Kind:       pin.KindMethod,
				Name:       sym + "=",
				Namespace:  ctx.ns,
				Scope:      pin.ScopeInstance,
				Visibility: *ctx.vis,
				TypeName:   tags.Return,
				Parameters: []string{sym},
				Location:   nodeLocation(m.filename, call),
			})
		}
	}
}

// applyVisibility implements the three Ruby forms: a bare modifier flips
// the running default; `private :name` re-marks existing pins; `private
// def name` maps the definition first, then re-marks it.
func (m *mapper) applyVisibility(call, args *sitter.Node, ctx walkCtx, v pin.Visibility) {
	if args == nil || args.NamedChildCount() == 0 {
		*ctx.vis = v
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "simple_symbol", "symbol":
			m.remarkMethod(ctx.ns, strings.TrimPrefix(arg.Content(m.src), ":"), v)
		case "method", "singleton_method":
			m.walk(arg, ctx)
			if name := arg.ChildByFieldName("name"); name != nil {
				m.remarkMethod(ctx.ns, name.Content(m.src), v)
			}
		}
	}
}

// remarkMethod replaces the latest matching method pin with a copy at the
// new visibility. Pins stay immutable; updates create new pins.
func (m *mapper) remarkMethod(ns, name string, v pin.Visibility) {
	for i := len(m.sm.Pins) - 1; i >= 0; i-- {
		p := m.sm.Pins[i]
		if p.Kind == pin.KindMethod && p.Namespace == ns && p.Name == name && p.Scope == pin.ScopeInstance {
			clone := *p
			clone.Visibility = v
			m.sm.Pins[i] = &clone
			return
		}
	}
}

func (m *mapper) remarkConstant(ns, name string) {
	for i := len(m.sm.Pins) - 1; i >= 0; i-- {
		p := m.sm.Pins[i]
		if (p.Kind == pin.KindConstant || p.Kind == pin.KindNamespace) && p.Namespace == ns && p.Name == name {
			clone := *p
			clone.Visibility = pin.Private
			m.sm.Pins[i] = &clone
			return
		}
	}
}

func (m *mapper) addAlias(n *sitter.Node, ctx walkCtx, newName, oldName string) {
	m.sm.Pins = append(m.sm.Pins, &pin.Pin{
		Kind:       pin.KindMethod,
		Name:       newName,
		Namespace:  ctx.ns,
		Scope:      pin.ScopeInstance,
		Visibility: *ctx.vis,
		AliasOf:    oldName,
		Location:   nodeLocation(m.filename, n),
	})
}

func (m *mapper) handleAlias(n *sitter.Node, ctx walkCtx) {
	if n.NamedChildCount() < 2 {
		return
	}
	newName := strings.TrimPrefix(n.NamedChild(0).Content(m.src), ":")
	oldName := strings.TrimPrefix(n.NamedChild(1).Content(m.src), ":")
	m.addAlias(n, ctx, newName, oldName)
}

func symbolArgs(args *sitter.Node, src []byte) []string {
	if args == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "simple_symbol" || arg.Type() == "symbol" {
			out = append(out, strings.TrimPrefix(arg.Content(src), ":"))
		}
	}
	return out
}

func firstStringArg(args *sitter.Node, src []byte) string {
	if args == nil {
		return ""
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "string" {
			return strings.Trim(arg.Content(src), `"'`)
		}
	}
	return ""
}

func (m *mapper) collectComments(n *sitter.Node) {
	if n.Type() == "comment" {
		m.comments[int(n.StartPoint().Row)] = strings.TrimPrefix(strings.TrimPrefix(n.Content(m.src), "#"), " ")
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		m.collectComments(n.NamedChild(i))
	}
}

// docsFor gathers the contiguous comment block ending on the line above
// row and splits it into documentation text and type tags.
func (m *mapper) docsFor(row int) (string, docTags) {
	var lines []string
	for r := row - 1; r >= 0; r-- {
		text, ok := m.comments[r]
		if !ok {
			break
		}
		lines = append([]string{text}, lines...)
	}
	return parseDocs(strings.Join(lines, "\n"))
}

func (m *mapper) collectSymbols(n *sitter.Node) {
	if n.Type() == "simple_symbol" || n.Type() == "delimited_symbol" {
		m.sm.Pins = append(m.sm.Pins, &pin.Pin{
			Kind:     pin.KindSymbol,
			Name:     n.Content(m.src),
			Location: nodeLocation(m.filename, n),
		})
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		m.collectSymbols(n.NamedChild(i))
	}
}

// splitConstName splits a possibly qualified constant name into its short
// name and declaring namespace relative to base. A leading :: anchors the
// name at the root.
func splitConstName(name, base string) (short, declNS string) {
	if strings.HasPrefix(name, "::") {
		name = name[2:]
		base = ""
	}
	if idx := strings.LastIndex(name, "::"); idx >= 0 {
		return name[idx+2:], qualifiedJoin(base, name[:idx])
	}
	return name, base
}

func qualifiedJoin(base, name string) string {
	if base == "" {
		return name
	}
	if name == "" {
		return base
	}
	return base + "::" + name
}
