package compiler

import "pseudo/internal/value"

// Closure is one compiled function/procedure body: a self-contained unit of
// bytecode with its own constant pool and local-variable table, bound to a
// symtab.FuncDesc by index. The top-level program is compiled into a
// closure too (Program.Main), so the VM's call-frame machinery does not
// need a special case for "not inside a function".
type Closure struct {
	Name       string
	NumParams  int
	LocalTypes []string // index == local slot; declared type name
	LocalNames []string // index == local slot; source identifier, for diagnostics
	Consts     []value.Value
	Code       []byte
	MaxStack   int

	// ReturnType is nil for a procedure, the declared return type name for
	// a function.
	ReturnType *string
}

// Program is the output of a full compile: every user-defined function's
// closure and the top-level statements' own closure. The symbol table the
// compiler filled in is not part of it; the VM is handed that same table
// separately to resolve function/global IDs back to descriptors.
type Program struct {
	Functions []*Closure
	Main      *Closure
}
