// Package symtab is the process-wide symbol table: the single registry of
// declared types, functions (primitive and user), and global variables that
// the compiler resolves names against and the VM indexes into at runtime.
//
// All three registries are ordered, append-only slices. Names never move
// once added, so an ID handed out by Add is stable for the table's whole
// lifetime and safe to embed directly in bytecode operands.
package symtab

// ID indexes into one of the table's registries. It is the width CALL,
// LD_GLOBAL, and ST_GLOBAL operands use, so a single process can declare at
// most 65535 of each.
type ID = uint16

// InvalidID marks "no such symbol" — returned by Lookup on a miss.
const InvalidID ID = 0xFFFF

// TypeDesc describes a declared type. Primitive types are pre-registered by
// New; this repo never declares user record types (that is future scope per
// spec.md's Non-goals), but UserObj values still carry a TypeDesc's Name.
type TypeDesc struct {
	Name      string
	Primitive bool
}

// Param is one formal parameter of a function: a name and a declared type
// name. A VOID type name means the parameter accepts any argument type —
// the VM skips the argument type check at the call boundary for it.
type Param struct {
	Name string
	Type string
}

// FuncDesc describes a function or procedure, primitive or user-defined.
// Return is nil for a procedure (RETURN carries no value); for a function it
// names the declared return type.
type FuncDesc struct {
	Name      string
	Params    []Param
	Return    *string
	Primitive bool

	// ClosureIndex points into the compiler's closure table for a
	// user-defined function. Unused (zero) for primitives, which the VM
	// dispatches by name instead of by bytecode body.
	ClosureIndex int
}

func (f *FuncDesc) Arity() int { return len(f.Params) }

// GlobalDesc describes one global variable: its declared static type.
type GlobalDesc struct {
	Name string
	Type string
}

// Table is the symbol table for one compilation unit / VM instance.
type Table struct {
	types   []*TypeDesc
	funcs   []*FuncDesc
	globals []*GlobalDesc
}

// PrimitiveTypeNames lists spec.md's built-in type names, the only type
// names this implementation ever declares (user record types are a
// Non-goal).
var PrimitiveTypeNames = []string{"VOID", "BOOLEAN", "INTEGER", "REAL", "STRING", "ARRAY"}

// New creates a Table with the primitive types and primitive functions
// (spec.md §4.6: @add @sub @mul @div @neg @eq @ne @lt @gt @le @ge @and @or
// @not @output) already registered.
func New() *Table {
	t := &Table{}
	for _, name := range PrimitiveTypeNames {
		t.AddType(name)
	}
	for _, p := range primitiveFuncs() {
		t.AddFunc(p)
	}
	return t
}

func voidParams(n int) []Param {
	ps := make([]Param, n)
	for i := range ps {
		ps[i] = Param{Name: "_", Type: "VOID"}
	}
	return ps
}

// primitiveFuncs builds the descriptors for the built-in operators. Every
// parameter is typed VOID: these operate across INTEGER/REAL/STRING/BOOLEAN
// depending on the operand, so the static check at the call boundary is
// skipped and the VM validates operand types itself when it dispatches.
func primitiveFuncs() []*FuncDesc {
	boolRet := "BOOLEAN"
	voidName := "VOID"
	binaryArith := []string{"@add", "@sub", "@mul", "@div"}
	binaryCompare := []string{"@eq", "@ne", "@lt", "@gt", "@le", "@ge"}
	binaryLogic := []string{"@and", "@or"}

	var out []*FuncDesc
	for _, name := range binaryArith {
		ret := voidName
		out = append(out, &FuncDesc{Name: name, Params: voidParams(2), Return: &ret, Primitive: true})
	}
	for _, name := range binaryCompare {
		out = append(out, &FuncDesc{Name: name, Params: voidParams(2), Return: &boolRet, Primitive: true})
	}
	for _, name := range binaryLogic {
		out = append(out, &FuncDesc{Name: name, Params: voidParams(2), Return: &boolRet, Primitive: true})
	}
	negRet := voidName
	out = append(out, &FuncDesc{Name: "@neg", Params: voidParams(1), Return: &negRet, Primitive: true})
	notRet := boolRet
	out = append(out, &FuncDesc{Name: "@not", Params: voidParams(1), Return: &notRet, Primitive: true})
	// @output is a procedure: it prints and returns nothing.
	out = append(out, &FuncDesc{Name: "@output", Params: voidParams(1), Return: nil, Primitive: true})
	return out
}

// AddType registers a new type and returns its ID. Re-adding an existing
// name returns its existing ID rather than creating a duplicate entry.
func (t *Table) AddType(name string) ID {
	if id, ok := t.LookupType(name); ok {
		return id
	}
	t.types = append(t.types, &TypeDesc{Name: name, Primitive: isPrimitiveName(name)})
	return ID(len(t.types) - 1)
}

func isPrimitiveName(name string) bool {
	for _, n := range PrimitiveTypeNames {
		if n == name {
			return true
		}
	}
	return false
}

// LookupType finds a type by name with a linear scan. The table stays small
// enough in practice (a handful of primitives, rarely more) that a hash
// index would not pay for itself — see DESIGN.md.
func (t *Table) LookupType(name string) (ID, bool) {
	for i, d := range t.types {
		if d.Name == name {
			return ID(i), true
		}
	}
	return InvalidID, false
}

func (t *Table) TypeByID(id ID) *TypeDesc {
	if int(id) >= len(t.types) {
		return nil
	}
	return t.types[id]
}

// AddFunc registers a function/procedure descriptor and returns its ID.
func (t *Table) AddFunc(f *FuncDesc) ID {
	t.funcs = append(t.funcs, f)
	return ID(len(t.funcs) - 1)
}

func (t *Table) LookupFunc(name string) (ID, bool) {
	for i, f := range t.funcs {
		if f.Name == name {
			return ID(i), true
		}
	}
	return InvalidID, false
}

func (t *Table) FuncByID(id ID) *FuncDesc {
	if int(id) >= len(t.funcs) {
		return nil
	}
	return t.funcs[id]
}

// AddGlobal registers a global variable descriptor and returns its ID.
func (t *Table) AddGlobal(g *GlobalDesc) ID {
	t.globals = append(t.globals, g)
	return ID(len(t.globals) - 1)
}

func (t *Table) LookupGlobal(name string) (ID, bool) {
	for i, g := range t.globals {
		if g.Name == name {
			return ID(i), true
		}
	}
	return InvalidID, false
}

func (t *Table) GlobalByID(id ID) *GlobalDesc {
	if int(id) >= len(t.globals) {
		return nil
	}
	return t.globals[id]
}

// NumGlobals reports how many globals have been declared, used by the VM to
// size its global value slots.
func (t *Table) NumGlobals() int { return len(t.globals) }
