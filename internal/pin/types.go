package pin

import "strings"

// ComplexType is a parsed type expression. Most expressions are a single
// unique type ("String", "Class<Foo>", "Array<Integer>"), but unions
// ("String, nil") and duck types ("#each, #size") carry several items.
type ComplexType struct {
	Items []UniqueType
}

// UniqueType is one item of a ComplexType: a named type with optional
// parameters. Duck capabilities keep their leading # in Name.
type UniqueType struct {
	Name   string
	Params []UniqueType
}

// Undefined is the sentinel for an unknown or unparseable type.
func Undefined() ComplexType { return ComplexType{} }

// InstanceType builds the type "an instance of fqns".
func InstanceType(fqns string) ComplexType {
	return ComplexType{Items: []UniqueType{{Name: fqns}}}
}

// ClassType builds the class-object type Class<fqns>: the type of the
// class itself, whose methods are fqns's class-scope methods.
func ClassType(fqns string) ComplexType {
	return ComplexType{Items: []UniqueType{{Name: "Class", Params: []UniqueType{{Name: fqns}}}}}
}

// ParseType parses a type expression. Parsing is total: anything that
// cannot be understood yields the undefined sentinel, never an error.
func ParseType(expr string) ComplexType {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "undefined" {
		return Undefined()
	}
	var items []UniqueType
	for _, part := range splitTopLevel(expr) {
		if ut, ok := parseUnique(part); ok {
			items = append(items, ut)
		}
	}
	return ComplexType{Items: items}
}

// splitTopLevel splits on commas not nested inside <...> or (...).
func splitTopLevel(expr string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range expr {
		switch r {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, expr[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, expr[start:])
	return parts
}

func parseUnique(part string) (UniqueType, bool) {
	part = strings.TrimSpace(part)
	if part == "" {
		return UniqueType{}, false
	}
	open := strings.IndexAny(part, "<(")
	if open < 0 {
		if !validTypeName(part) {
			return UniqueType{}, false
		}
		return UniqueType{Name: part}, true
	}
	name := strings.TrimSpace(part[:open])
	if !validTypeName(name) {
		return UniqueType{}, false
	}
	inner := strings.TrimSpace(part[open+1:])
	if len(inner) == 0 || (inner[len(inner)-1] != '>' && inner[len(inner)-1] != ')') {
		return UniqueType{}, false
	}
	inner = inner[:len(inner)-1]
	ut := UniqueType{Name: name}
	for _, sub := range splitTopLevel(inner) {
		if p, ok := parseUnique(sub); ok {
			ut.Params = append(ut.Params, p)
		}
	}
	return ut, true
}

func validTypeName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '#' && i == 0 {
			continue
		}
		if r == ':' || r == '_' || r == '?' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}

// Defined reports whether the type resolved to at least one item.
func (t ComplexType) Defined() bool { return len(t.Items) > 0 }

// First returns the first unique type, or a zero value when undefined.
func (t ComplexType) First() UniqueType {
	if len(t.Items) == 0 {
		return UniqueType{}
	}
	return t.Items[0]
}

// Name returns the first item's name, "" when undefined.
func (t ComplexType) Name() string { return t.First().Name }

func (t ComplexType) String() string {
	parts := make([]string, 0, len(t.Items))
	for _, it := range t.Items {
		parts = append(parts, it.String())
	}
	return strings.Join(parts, ", ")
}

func (u UniqueType) String() string {
	if len(u.Params) == 0 {
		return u.Name
	}
	parts := make([]string, 0, len(u.Params))
	for _, p := range u.Params {
		parts = append(parts, p.String())
	}
	return u.Name + "<" + strings.Join(parts, ", ") + ">"
}

// Duck reports whether the item is a duck-typed capability (#method).
func (u UniqueType) Duck() bool { return strings.HasPrefix(u.Name, "#") }

// ClassObject reports whether the item denotes "the class object of its
// parameter" (Class<T> or Module<T>).
func (u UniqueType) ClassObject() bool {
	return (u.Name == "Class" || u.Name == "Module") && len(u.Params) == 1
}

// Nil reports whether the item is the nil type.
func (u UniqueType) Nil() bool { return u.Name == "nil" || u.Name == "NilClass" }

// SelfType reports whether the item is the "self" placeholder, resolved
// against the receiver during chain inference.
func (u UniqueType) SelfType() bool { return u.Name == "self" }

// Namespace returns the namespace whose methods answer for this item: the
// parameter for class objects, the boolean class for Boolean, otherwise
// the name itself.
func (u UniqueType) Namespace() string {
	if u.ClassObject() {
		return u.Params[0].Name
	}
	switch u.Name {
	case "Boolean":
		return "TrueClass"
	case "nil":
		return "NilClass"
	}
	return u.Name
}
