package compiler

import "fmt"

// SemanticError is a compile-time name/type resolution failure: an
// undeclared identifier, a call to an unknown function, a RETURN that
// disagrees with its enclosing function's signature. These are ordinary,
// expected-at-some-inputs errors, not compiler bugs.
type SemanticError struct {
	Line    int
	Column  int
	Message string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("💥 %d:%d: %s", e.Line, e.Column, e.Message)
}

// DeveloperError marks a violated compiler invariant: an unhandled AST
// variant or operator reaching the code generator, a primitive missing from
// the symbol table. These indicate a bug in the compiler itself, not bad
// input. (Too many constants or locals is reported through the diag.Sink
// like any other compile error, not as a DeveloperError.)
type DeveloperError struct {
	Message string
}

func (e *DeveloperError) Error() string {
	return fmt.Sprintf("🤖 internal compiler error: %s", e.Message)
}
