// Package rubylens is the semantic core of a static-analysis engine for
// Ruby: it builds a queryable index of declarations and resolves
// references across inheritance, mixins, visibility, and lexical scope,
// so editor features (completion, hover, go-to-definition, type
// inference) can be answered without re-analyzing the whole program.
//
// # Pipeline
//
// Rubylens operates in two phases:
//
//  1. Map: parse each source file with tree-sitter and extract pins,
//     immutable records of every declared class, module, method,
//     constant, and variable, plus the mixin and inheritance references
//     between them.
//
//  2. Resolve: fold the pins into an immutable, versioned Store and
//     answer queries over it by walking the method resolution order,
//     lexical constant scope, and declared type expressions.
//
// # Usage
//
// Create an ApiMap, catalog a workspace, and query:
//
//	api := rubylens.New()
//
//	ws, err := workspace.New("path/to/project")
//	if err != nil { ... }
//	bundle, err := workspace.NewBundle(ctx, ws)
//	if err != nil { ... }
//	err = api.Catalog(bundle)
//
//	pins := api.Methods("Foo", rubylens.ScopeInstance)
//
// # Query API
//
// The [ApiMap] provides the resolution surface:
//
//   - [ApiMap.Methods]: visible method pins on a namespace, in method
//     resolution order, deduplicated by name.
//   - [ApiMap.MethodStack]: the full shadowing chain for one method
//     name, used to resolve super calls.
//   - [ApiMap.Constants]: constants and namespaces nested under a
//     namespace, visibility-filtered and sorted.
//   - [ApiMap.Qualify]: resolve a relative constant reference to its
//     fully qualified name.
//   - [ApiMap.TypeMethods]: methods answering for a complex type
//     (instance, class object, or duck type).
//   - [ApiMap.ClipAt]: bind a resolution context to a file position for
//     expression-level inference.
//
// # Incremental Cataloging
//
// [ApiMap.Catalog] detects unchanged pin sets via content hashing and
// keeps the current Store. Sources staged mid-edit contribute their last
// synchronized pins; the Store swap is atomic, so readers never observe
// a half-rebuilt index.
package rubylens
