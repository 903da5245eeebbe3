// Package ir defines the typed shader intermediate representation consumed
// by the shadevm backend.
//
// An ir.Module is a self-contained snapshot: a type arena, module-scope
// globals bound to shader address spaces, functions of typed expressions and
// structured statements, and the entry points reachable from outside. All
// cross-references are handles (indices) into the owning arena, so a module
// can be traversed without pointer chasing and validated with bounds checks
// alone.
//
// Expressions form a per-function arena in SSA-like form: an expression never
// mutates, and statements reference expressions by handle. Statements carry
// all control flow and side effects. The backend queries expression types
// on demand through ResolveExpressionType; no type information is cached on
// the expressions themselves.
package ir
