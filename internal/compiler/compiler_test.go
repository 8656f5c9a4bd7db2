package compiler

import (
	"testing"

	"pseudo/internal/ast"
	"pseudo/internal/bytecode"
	"pseudo/internal/diag"
	"pseudo/internal/symtab"
	"pseudo/internal/value"
)

func compileProgram(t *testing.T, prog ast.Block) (*Program, *diag.Collector) {
	t.Helper()
	st := symtab.New()
	interns := value.NewInternTable()
	collector := diag.NewCollector()
	c := New(st, interns, collector)
	out, err := c.Compile(prog)
	if err != nil {
		t.Fatalf("Compile returned an unexpected developer error: %v", err)
	}
	return out, collector
}

func TestCompileArithmeticLowersToOperatorCalls(t *testing.T) {
	// OUTPUT 2 + 3
	prog := ast.Block{Stmts: []ast.Stmt{
		ast.Output{Expr: ast.BinaryOp{Op: "+", Left: ast.IntLit{Value: 2}, Right: ast.IntLit{Value: 3}}},
	}}
	out, diags := compileProgram(t, prog)
	if diags.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", diags.Diagnostics)
	}

	code := out.Main.Code
	// Layout: LD_CONST LD_CONST CALL(@add) CALL(@output) END.
	// CALL's opcode byte sits 4 bytes before the end (2-byte operand + END).
	op := bytecode.Opcode(code[len(code)-4])
	if op != bytecode.CALL {
		t.Fatalf("expected a CALL right before END, got opcode %d", op)
	}
	if len(out.Main.Consts) != 2 {
		t.Fatalf("expected 2 constants (2 and 3), got %d", len(out.Main.Consts))
	}
}

func TestCompileUndeclaredVariableIsSemanticError(t *testing.T) {
	prog := ast.Block{Stmts: []ast.Stmt{
		ast.Output{Expr: ast.Ident{Name: "missing"}},
	}}
	_, diags := compileProgram(t, prog)
	if !diags.HasErrors() {
		t.Fatalf("expected a semantic error for an undeclared variable")
	}
}

func TestCompileFunctionRoundTrip(t *testing.T) {
	// FUNCTION double(x : INTEGER) : INTEGER
	//   RETURN x * 2
	// ENDFUNCTION
	fn := ast.Function{
		Name:   ast.Ident{Name: "double"},
		Params: []ast.Param{{Name: ast.Ident{Name: "x"}, Type: ast.Ident{Name: "INTEGER"}}},
		Return: &ast.Ident{Name: "INTEGER"},
		Body: ast.Block{Stmts: []ast.Stmt{
			ast.Return{Expr: ast.BinaryOp{Op: "*", Left: ast.Ident{Name: "x"}, Right: ast.IntLit{Value: 2}}},
		}},
	}
	prog := ast.Block{Stmts: []ast.Stmt{fn}}
	out, diags := compileProgram(t, prog)
	if diags.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", diags.Diagnostics)
	}
	if len(out.Functions) != 1 {
		t.Fatalf("expected 1 compiled function, got %d", len(out.Functions))
	}
	closure := out.Functions[0]
	if closure.NumParams != 1 {
		t.Errorf("NumParams = %d, want 1", closure.NumParams)
	}
	lastOp := bytecode.Opcode(closure.Code[len(closure.Code)-1])
	if lastOp != bytecode.END {
		t.Errorf("expected a trailing END as the implicit fallthrough, got opcode %d", lastOp)
	}
}

func TestCompileProcedureReturnWithValueIsError(t *testing.T) {
	fn := ast.Function{
		Name: ast.Ident{Name: "doIt"},
		Body: ast.Block{Stmts: []ast.Stmt{
			ast.Return{Expr: ast.IntLit{Value: 1}},
		}},
	}
	prog := ast.Block{Stmts: []ast.Stmt{fn}}
	_, diags := compileProgram(t, prog)
	if !diags.HasErrors() {
		t.Fatalf("expected an error: a procedure cannot return a value")
	}
}

func TestCompileGlobalDeclareThenAssign(t *testing.T) {
	prog := ast.Block{Stmts: []ast.Stmt{
		ast.Decl{Name: ast.Ident{Name: "total"}, Type: ast.Ident{Name: "INTEGER"}},
		ast.Assign{Name: ast.Ident{Name: "total"}, Value: ast.IntLit{Value: 7}},
	}}
	out, diags := compileProgram(t, prog)
	if diags.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", diags.Diagnostics)
	}
	found := false
	for i := 0; i+2 < len(out.Main.Code); i++ {
		if bytecode.Opcode(out.Main.Code[i]) == bytecode.ST_GLOBAL {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an ST_GLOBAL instruction for the global assignment")
	}
}
