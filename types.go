package rubylens

import "rubylens/internal/pin"

// Public type aliases for internal pin types used in the query API.
// These are Go type aliases (=), identical to the internal types at
// compile time, so no conversion is needed.

type Pin = pin.Pin
type Kind = pin.Kind
type Scope = pin.Scope
type Visibility = pin.Visibility
type NamespaceType = pin.NamespaceType
type ComplexType = pin.ComplexType
type UniqueType = pin.UniqueType
type Position = pin.Position
type Range = pin.Range
type Location = pin.Location

const (
	KindNamespace        = pin.KindNamespace
	KindMethod           = pin.KindMethod
	KindConstant         = pin.KindConstant
	KindInstanceVariable = pin.KindInstanceVariable
	KindClassVariable    = pin.KindClassVariable
	KindGlobalVariable   = pin.KindGlobalVariable
	KindSymbol           = pin.KindSymbol
	KindReference        = pin.KindReference
)

const (
	ScopeInstance = pin.ScopeInstance
	ScopeClass    = pin.ScopeClass
)

const (
	Public    = pin.Public
	Protected = pin.Protected
	Private   = pin.Private
)

// ParseType parses a type expression such as "Array<Integer>" or
// "String, nil". Parsing is total: unrecognized input yields the
// undefined sentinel.
func ParseType(expr string) ComplexType { return pin.ParseType(expr) }
