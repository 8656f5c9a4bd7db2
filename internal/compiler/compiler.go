// Package compiler lowers a parsed program directly to bytecode in a single
// post-order walk: no separate type-checking pass, no intermediate
// representation. Each FUNCTION becomes its own Closure; the top-level
// statements become the program's Main closure.
package compiler

import (
	"pseudo/internal/ast"
	"pseudo/internal/bytecode"
	"pseudo/internal/diag"
	"pseudo/internal/symtab"
	"pseudo/internal/value"
)

const maxConsts = 256
const maxLocals = 256

// localVar is one declared local slot in the function currently being
// compiled.
type localVar struct {
	name  string
	typ   string
	depth int
}

// funcState is the compiler's per-closure working state: its own locals
// table, scope depth, and evaluation-stack depth estimate. There is no
// enclosing-scope chain because this language has no closures over lexical
// environment (a Non-goal) — every function's locals are self-contained.
type funcState struct {
	closure    *Closure
	locals     []localVar
	scopeDepth int

	stackDepth int
	maxStack   int
}

// Compiler walks an AST program and produces a Program. Symtab must already
// contain the primitive functions (symtab.New()); Compile registers every
// FUNCTION declaration and global DECLARE into it as it encounters them.
type Compiler struct {
	symtab  *symtab.Table
	interns *value.InternTable
	sink    diag.Sink

	current   *funcState
	functions []*Closure
}

// New creates a Compiler sharing the given symbol table and string intern
// table with the rest of the pipeline (the VM needs the same symtab to
// resolve the IDs this compiler embeds in bytecode, and the same intern
// table so runtime-produced strings compare equal to compiled ones).
func New(st *symtab.Table, interns *value.InternTable, sink diag.Sink) *Compiler {
	return &Compiler{symtab: st, interns: interns, sink: sink}
}

// Compile lowers a whole program (its top-level Block, which spec.md's
// grammar allows to mix FUNCTION declarations with ordinary statements) to
// a Program. It returns an error only for a DeveloperError (a compiler
// invariant violation); semantic errors are reported through the sink and
// recorded, with compilation continuing on a best-effort basis so the
// caller can report every error in one pass, matching the teacher's
// accumulate-then-report style.
func (c *Compiler) Compile(prog ast.Block) (*Program, error) {
	// Pass 1: register every top-level FUNCTION's signature before
	// compiling any body, so forward calls (a function calling one
	// declared later in the file) resolve.
	for _, stmt := range prog.Stmts {
		if fn, ok := stmt.(ast.Function); ok {
			c.declareFunctionSignature(fn)
		}
	}

	var bodies []ast.Function
	var topLevel []ast.Stmt
	for _, stmt := range prog.Stmts {
		if fn, ok := stmt.(ast.Function); ok {
			bodies = append(bodies, fn)
			continue
		}
		topLevel = append(topLevel, stmt)
	}

	for _, fn := range bodies {
		if err := c.compileFunctionBody(fn); err != nil {
			return nil, err
		}
	}

	main, err := c.compileMain(topLevel)
	if err != nil {
		return nil, err
	}

	return &Program{Functions: c.functions, Main: main}, nil
}

func (c *Compiler) declareFunctionSignature(fn ast.Function) {
	if _, exists := c.symtab.LookupFunc(fn.Name.Name); exists {
		c.error(fn.Name.Line, fn.Name.Column, "function \""+fn.Name.Name+"\" already declared")
		return
	}
	params := make([]symtab.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = symtab.Param{Name: p.Name.Name, Type: p.Type.Name}
	}
	var ret *string
	if fn.Return != nil {
		name := fn.Return.Name
		ret = &name
	}
	id := c.symtab.AddFunc(&symtab.FuncDesc{Name: fn.Name.Name, Params: params, Return: ret})
	desc := c.symtab.FuncByID(id)
	desc.ClosureIndex = len(c.functions)
	c.functions = append(c.functions, &Closure{Name: fn.Name.Name, NumParams: len(params), ReturnType: ret})
}

func (c *Compiler) compileFunctionBody(fn ast.Function) error {
	id, _ := c.symtab.LookupFunc(fn.Name.Name)
	desc := c.symtab.FuncByID(id)
	closure := c.functions[desc.ClosureIndex]

	fs := &funcState{closure: closure}
	c.current = fs
	for _, p := range fn.Params {
		c.declareLocal(p.Name.Name, p.Type.Name)
	}
	if err := c.compileBlock(fn.Body); err != nil {
		return err
	}
	c.emit(bytecode.END)
	closure.MaxStack = fs.maxStack
	c.current = nil
	return nil
}

func (c *Compiler) compileMain(stmts []ast.Stmt) (*Closure, error) {
	closure := &Closure{Name: "main"}
	fs := &funcState{closure: closure}
	c.current = fs
	for _, stmt := range stmts {
		if err := c.compileStmt(stmt); err != nil {
			return nil, err
		}
	}
	c.emit(bytecode.END)
	closure.MaxStack = fs.maxStack
	c.current = nil
	return closure, nil
}

// --- statements ---

func (c *Compiler) compileBlock(b ast.Block) error {
	c.beginScope()
	for _, stmt := range b.Stmts {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	c.endScope()
	return nil
}

func (c *Compiler) compileStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case ast.Decl:
		return c.compileDecl(s)
	case ast.Assign:
		return c.compileAssign(s)
	case ast.Output:
		return c.compileOutput(s)
	case ast.If:
		return c.compileIf(s)
	case ast.While:
		return c.compileWhile(s)
	case ast.Return:
		return c.compileReturn(s)
	case ast.Function:
		return &DeveloperError{Message: "nested FUNCTION reached statement compiler"}
	default:
		return &DeveloperError{Message: "unhandled statement node reached compiler"}
	}
}

func (c *Compiler) compileDecl(s ast.Decl) error {
	if c.current.scopeDepth == 0 {
		if _, exists := c.symtab.LookupGlobal(s.Name.Name); exists {
			c.error(s.Name.Line, s.Name.Column, "global \""+s.Name.Name+"\" already declared")
			return nil
		}
		c.symtab.AddGlobal(&symtab.GlobalDesc{Name: s.Name.Name, Type: s.Type.Name})
		return nil
	}
	c.declareLocal(s.Name.Name, s.Type.Name)
	return nil
}

func (c *Compiler) compileAssign(s ast.Assign) error {
	if err := c.compileExpr(s.Value); err != nil {
		return err
	}
	if idx, ok := c.resolveLocal(s.Name.Name); ok {
		c.emit(bytecode.ST_LOCAL, idx)
		c.pop(1)
		return nil
	}
	if id, ok := c.symtab.LookupGlobal(s.Name.Name); ok {
		c.emit(bytecode.ST_GLOBAL, int(id))
		c.pop(1)
		return nil
	}
	c.error(s.Name.Line, s.Name.Column, "undeclared variable \""+s.Name.Name+"\"")
	return nil
}

func (c *Compiler) compileOutput(s ast.Output) error {
	if err := c.compileExpr(s.Expr); err != nil {
		return err
	}
	id, _ := c.symtab.LookupFunc("@output")
	c.emit(bytecode.CALL, int(id))
	c.pop(1) // @output is a procedure: consumes its argument, pushes nothing
	return nil
}

func (c *Compiler) compileIf(s ast.If) error {
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	c.pop(1)
	elseJump := c.emitPlaceholderJump(bytecode.BR_FALSE)
	if err := c.compileBlock(s.Then); err != nil {
		return err
	}
	if s.Else == nil {
		c.patchJump(elseJump)
		return nil
	}
	endJump := c.emitPlaceholderJump(bytecode.BR)
	c.patchJump(elseJump)
	if err := c.compileBlock(*s.Else); err != nil {
		return err
	}
	c.patchJump(endJump)
	return nil
}

func (c *Compiler) compileWhile(s ast.While) error {
	loopStart := len(c.current.closure.Code)
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}
	c.pop(1)
	exitJump := c.emitPlaceholderJump(bytecode.BR_FALSE)
	if err := c.compileBlock(s.Body); err != nil {
		return err
	}
	c.emit(bytecode.BR, loopStart)
	c.patchJump(exitJump)
	return nil
}

func (c *Compiler) compileReturn(s ast.Return) error {
	isFunction := c.current.closure.ReturnType != nil
	if s.Expr == nil {
		if isFunction {
			c.error(0, 0, "function \""+c.current.closure.Name+"\" must return a value")
			return nil
		}
		c.emit(bytecode.END)
		return nil
	}
	if !isFunction {
		c.error(0, 0, "procedure \""+c.current.closure.Name+"\" cannot return a value")
		return nil
	}
	if err := c.compileExpr(s.Expr); err != nil {
		return err
	}
	c.emit(bytecode.RET)
	c.pop(1)
	return nil
}

// --- expressions ---

func (c *Compiler) compileExpr(expr ast.Expr) error {
	switch e := expr.(type) {
	case ast.BoolLit:
		idx := c.addConst(value.BoolValue(e.Value))
		c.emit(bytecode.LD_CONST, idx)
		c.push()
	case ast.IntLit:
		idx := c.addConst(value.IntValue(e.Value))
		c.emit(bytecode.LD_CONST, idx)
		c.push()
	case ast.RealLit:
		idx := c.addConst(value.RealValue(e.Value))
		c.emit(bytecode.LD_CONST, idx)
		c.push()
	case ast.StringLit:
		idx := c.addConst(value.ObjValue(e.Value))
		c.emit(bytecode.LD_CONST, idx)
		c.push()
	case ast.Ident:
		return c.compileIdent(e)
	case ast.UnaryOp:
		return c.compileUnary(e)
	case ast.BinaryOp:
		return c.compileBinary(e)
	case ast.Call:
		return c.compileCall(e)
	default:
		return &DeveloperError{Message: "unhandled expression node reached compiler"}
	}
	return nil
}

func (c *Compiler) compileIdent(e ast.Ident) error {
	if idx, ok := c.resolveLocal(e.Name); ok {
		c.emit(bytecode.LD_LOCAL, idx)
		c.push()
		return nil
	}
	if id, ok := c.symtab.LookupGlobal(e.Name); ok {
		c.emit(bytecode.LD_GLOBAL, int(id))
		c.push()
		return nil
	}
	c.error(e.Line, e.Column, "undeclared variable \""+e.Name+"\"")
	c.emit(bytecode.LD_CONST, c.addConst(value.VoidValue()))
	c.push()
	return nil
}

var unaryOps = map[string]string{
	"-":   "@neg",
	"NOT": "@not",
}

func (c *Compiler) compileUnary(e ast.UnaryOp) error {
	if e.Op == "+" {
		return c.compileExpr(e.Operand)
	}
	name, ok := unaryOps[e.Op]
	if !ok {
		return &DeveloperError{Message: "unhandled unary operator \"" + e.Op + "\""}
	}
	if err := c.compileExpr(e.Operand); err != nil {
		return err
	}
	return c.callPrimitive(name, e.Line, e.Column)
}

var binaryOps = map[string]string{
	"+": "@add", "-": "@sub", "*": "@mul", "/": "@div",
	"=": "@eq", "<>": "@ne", "<": "@lt", ">": "@gt", "<=": "@le", ">=": "@ge",
	"AND": "@and", "OR": "@or",
}

// compileBinary lowers every binary operator, including AND/OR, to a CALL
// of its primitive function symbol. AND/OR deliberately do not
// short-circuit: both operands are always compiled and evaluated before
// the call, per spec.md's Open Question resolution.
func (c *Compiler) compileBinary(e ast.BinaryOp) error {
	name, ok := binaryOps[e.Op]
	if !ok {
		return &DeveloperError{Message: "unhandled binary operator \"" + e.Op + "\""}
	}
	if err := c.compileExpr(e.Left); err != nil {
		return err
	}
	if err := c.compileExpr(e.Right); err != nil {
		return err
	}
	return c.callPrimitive(name, e.Line, e.Column)
}

func (c *Compiler) callPrimitive(name string, line, col int) error {
	id, ok := c.symtab.LookupFunc(name)
	if !ok {
		return &DeveloperError{Message: "primitive \"" + name + "\" not registered"}
	}
	desc := c.symtab.FuncByID(id)
	c.emit(bytecode.CALL, int(id))
	c.pop(desc.Arity())
	if desc.Return != nil {
		c.push()
	}
	_ = line
	_ = col
	return nil
}

func (c *Compiler) compileCall(e ast.Call) error {
	id, ok := c.symtab.LookupFunc(e.Callee.Name)
	if !ok {
		c.error(e.Callee.Line, e.Callee.Column, "call to undeclared function \""+e.Callee.Name+"\"")
		c.emit(bytecode.LD_CONST, c.addConst(value.VoidValue()))
		c.push()
		return nil
	}
	desc := c.symtab.FuncByID(id)
	if len(e.Args) != desc.Arity() {
		c.error(e.Callee.Line, e.Callee.Column, "function \""+e.Callee.Name+"\" expects arguments")
	}
	for _, arg := range e.Args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	c.emit(bytecode.CALL, int(id))
	c.pop(len(e.Args))
	if desc.Return != nil {
		c.push()
	}
	return nil
}

// --- locals/scope ---

func (c *Compiler) beginScope() { c.current.scopeDepth++ }

func (c *Compiler) endScope() {
	fs := c.current
	fs.scopeDepth--
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scopeDepth {
		fs.locals = fs.locals[:len(fs.locals)-1]
	}
}

func (c *Compiler) declareLocal(name, typ string) int {
	fs := c.current
	if len(fs.locals) >= maxLocals {
		c.error(0, 0, "too many local variables in \""+fs.closure.Name+"\"")
		return 0
	}
	idx := len(fs.locals)
	fs.locals = append(fs.locals, localVar{name: name, typ: typ, depth: fs.scopeDepth})
	if idx+1 > len(fs.closure.LocalTypes) {
		fs.closure.LocalTypes = append(fs.closure.LocalTypes, typ)
		fs.closure.LocalNames = append(fs.closure.LocalNames, name)
	}
	return idx
}

func (c *Compiler) resolveLocal(name string) (int, bool) {
	fs := c.current
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// --- constants / emission ---

func (c *Compiler) addConst(v value.Value) int {
	consts := c.current.closure.Consts
	for i, existing := range consts {
		if constEqual(existing, v) {
			return i
		}
	}
	if len(consts) >= maxConsts {
		c.error(0, 0, "too many constants in \""+c.current.closure.Name+"\"")
		return 0
	}
	c.current.closure.Consts = append(consts, v)
	return len(consts)
}

func constEqual(a, b value.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case value.Bool:
		return a.AsBool() == b.AsBool()
	case value.Int:
		return a.AsInt() == b.AsInt()
	case value.Real:
		return a.AsReal() == b.AsReal()
	case value.Obj:
		as, aok := a.AsObject().(*value.StringObj)
		bs, bok := b.AsObject().(*value.StringObj)
		return aok && bok && as == bs
	}
	return false
}

func (c *Compiler) emit(op bytecode.Opcode, operands ...int) int {
	code, pos := bytecode.Assemble(c.current.closure.Code, op, operands...)
	c.current.closure.Code = code
	return pos
}

// emitPlaceholderJump emits a branch with a zero operand and returns the
// offset of that operand, to be filled in later by patchJump once the
// target address is known.
func (c *Compiler) emitPlaceholderJump(op bytecode.Opcode) int {
	pos := c.emit(op, 0)
	return pos + 1 // +1: skip the opcode byte itself
}

func (c *Compiler) patchJump(operandOffset int) {
	target := len(c.current.closure.Code)
	bytecode.PutUint16(c.current.closure.Code, operandOffset, target)
}

func (c *Compiler) push() {
	c.current.stackDepth++
	if c.current.stackDepth > c.current.maxStack {
		c.current.maxStack = c.current.stackDepth
	}
}

func (c *Compiler) pop(n int) {
	c.current.stackDepth -= n
}

func (c *Compiler) error(line, col int, msg string) {
	c.sink.OnError(line, col, msg)
}
