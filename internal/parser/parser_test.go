package parser

import (
	"testing"

	"pseudo/internal/ast"
	"pseudo/internal/diag"
	"pseudo/internal/value"
)

func parseSource(t *testing.T, src string) (ast.Block, *diag.Collector) {
	t.Helper()
	collector := diag.NewCollector()
	p := New(src, collector, value.NewInternTable())
	return p.Parse(), collector
}

func TestParseDeclareAndAssign(t *testing.T) {
	block, diags := parseSource(t, "DECLARE x : INTEGER\nx <- 5\n")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics)
	}
	if len(block.Stmts) != 2 {
		t.Fatalf("got %d statements, want 2", len(block.Stmts))
	}
	decl, ok := block.Stmts[0].(ast.Decl)
	if !ok {
		t.Fatalf("stmt 0 is %T, want ast.Decl", block.Stmts[0])
	}
	if decl.Name.Name != "x" || decl.Type.Name != "INTEGER" {
		t.Errorf("decl = %+v", decl)
	}
	assign, ok := block.Stmts[1].(ast.Assign)
	if !ok {
		t.Fatalf("stmt 1 is %T, want ast.Assign", block.Stmts[1])
	}
	if lit, ok := assign.Value.(ast.IntLit); !ok || lit.Value != 5 {
		t.Errorf("assign.Value = %#v, want IntLit(5)", assign.Value)
	}
}

func TestParseOutputString(t *testing.T) {
	block, diags := parseSource(t, `OUTPUT "hello"`+"\n")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics)
	}
	out, ok := block.Stmts[0].(ast.Output)
	if !ok {
		t.Fatalf("stmt 0 is %T, want ast.Output", block.Stmts[0])
	}
	lit, ok := out.Expr.(ast.StringLit)
	if !ok {
		t.Fatalf("Expr is %T, want ast.StringLit", out.Expr)
	}
	if string(lit.Value.Data) != "hello" {
		t.Errorf("string literal = %q, want hello", lit.Value.Data)
	}
}

func TestParseIfElse(t *testing.T) {
	src := "IF x > 0 THEN\nOUTPUT x\nELSE\nOUTPUT 0\nENDIF\n"
	block, diags := parseSource(t, src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics)
	}
	ifStmt, ok := block.Stmts[0].(ast.If)
	if !ok {
		t.Fatalf("stmt 0 is %T, want ast.If", block.Stmts[0])
	}
	if len(ifStmt.Then.Stmts) != 1 {
		t.Fatalf("then-block has %d statements, want 1", len(ifStmt.Then.Stmts))
	}
	if ifStmt.Else == nil || len(ifStmt.Else.Stmts) != 1 {
		t.Fatalf("else-block missing or wrong size: %+v", ifStmt.Else)
	}
}

func TestParseWhileRequiresEndwhile(t *testing.T) {
	block, diags := parseSource(t, "WHILE TRUE\nOUTPUT 1\nENDWHILE\n")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics)
	}
	w, ok := block.Stmts[0].(ast.While)
	if !ok {
		t.Fatalf("stmt 0 is %T, want ast.While", block.Stmts[0])
	}
	if len(w.Body.Stmts) != 1 {
		t.Errorf("while body has %d statements, want 1", len(w.Body.Stmts))
	}
}

func TestParseFunctionWithParamsAndCall(t *testing.T) {
	src := "FUNCTION add(a : INTEGER, b : INTEGER) : INTEGER\nRETURN a + b\nENDFUNCTION\nOUTPUT add(1, 2)\n"
	block, diags := parseSource(t, src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics)
	}
	fn, ok := block.Stmts[0].(ast.Function)
	if !ok {
		t.Fatalf("stmt 0 is %T, want ast.Function", block.Stmts[0])
	}
	if len(fn.Params) != 2 || fn.Return == nil || fn.Return.Name != "INTEGER" {
		t.Errorf("fn = %+v", fn)
	}
	out, ok := block.Stmts[1].(ast.Output)
	if !ok {
		t.Fatalf("stmt 1 is %T, want ast.Output", block.Stmts[1])
	}
	call, ok := out.Expr.(ast.Call)
	if !ok || call.Callee.Name != "add" || len(call.Args) != 2 {
		t.Errorf("call = %+v", out.Expr)
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	// 1 + 2 * 3 should bind as 1 + (2 * 3).
	block, diags := parseSource(t, "OUTPUT 1 + 2 * 3\n")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics)
	}
	out := block.Stmts[0].(ast.Output)
	bin, ok := out.Expr.(ast.BinaryOp)
	if !ok || bin.Op != "+" {
		t.Fatalf("top expr = %#v, want top-level +", out.Expr)
	}
	rhs, ok := bin.Right.(ast.BinaryOp)
	if !ok || rhs.Op != "*" {
		t.Fatalf("rhs = %#v, want a * node", bin.Right)
	}
}

func TestParseAndOrNotPrecedence(t *testing.T) {
	// NOT a AND b OR c should parse as ((NOT a) AND b) OR c.
	block, diags := parseSource(t, "OUTPUT NOT a AND b OR c\n")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics)
	}
	out := block.Stmts[0].(ast.Output)
	top, ok := out.Expr.(ast.BinaryOp)
	if !ok || top.Op != "OR" {
		t.Fatalf("top expr = %#v, want top-level OR", out.Expr)
	}
	andNode, ok := top.Left.(ast.BinaryOp)
	if !ok || andNode.Op != "AND" {
		t.Fatalf("left of OR = %#v, want AND", top.Left)
	}
	if _, ok := andNode.Left.(ast.UnaryOp); !ok {
		t.Fatalf("left of AND = %#v, want NOT unary", andNode.Left)
	}
}

func TestParseNotBindsTighterThanComparison(t *testing.T) {
	// NOT a < b must parse as (NOT a) < b, not NOT (a < b): NOT is a unary
	// prefix operator binding only to a primary/unary operand, tighter than
	// every binary operator (spec.md §4.2).
	block, diags := parseSource(t, "OUTPUT NOT a < b\n")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics)
	}
	out := block.Stmts[0].(ast.Output)
	top, ok := out.Expr.(ast.BinaryOp)
	if !ok || top.Op != "<" {
		t.Fatalf("top expr = %#v, want top-level <", out.Expr)
	}
	if _, ok := top.Left.(ast.UnaryOp); !ok {
		t.Fatalf("left of < = %#v, want NOT unary", top.Left)
	}
	if _, ok := top.Right.(ast.Ident); !ok {
		t.Fatalf("right of < = %#v, want bare ident b", top.Right)
	}
}

func TestParseUnknownEscapeWarnsAndDropsBackslash(t *testing.T) {
	block, diags := parseSource(t, `OUTPUT "a\qb"`+"\n")
	if !diags.HasErrors() && len(diags.Diagnostics) == 0 {
		t.Fatalf("expected a warning for an unknown escape sequence")
	}
	foundWarn := false
	for _, d := range diags.Diagnostics {
		if d.Warn {
			foundWarn = true
		}
	}
	if !foundWarn {
		t.Fatalf("expected at least one warning diagnostic, got %v", diags.Diagnostics)
	}
	out := block.Stmts[0].(ast.Output)
	lit := out.Expr.(ast.StringLit)
	if string(lit.Value.Data) != "aqb" {
		t.Errorf("resolved string = %q, want %q", lit.Value.Data, "aqb")
	}
}

func TestParseRecoversFromMalformedStatement(t *testing.T) {
	// The first line is malformed (a bare operator), the second is fine;
	// the parser should report an error and still recover the second
	// statement.
	block, diags := parseSource(t, "<- 5\nOUTPUT 1\n")
	if !diags.HasErrors() {
		t.Fatalf("expected a syntax error from the malformed first line")
	}
	if len(block.Stmts) != 1 {
		t.Fatalf("got %d statements after recovery, want 1", len(block.Stmts))
	}
	if _, ok := block.Stmts[0].(ast.Output); !ok {
		t.Fatalf("recovered statement is %T, want ast.Output", block.Stmts[0])
	}
}

func TestParseGroupedExpression(t *testing.T) {
	block, diags := parseSource(t, "OUTPUT (1 + 2) * 3\n")
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Diagnostics)
	}
	out := block.Stmts[0].(ast.Output)
	top, ok := out.Expr.(ast.BinaryOp)
	if !ok || top.Op != "*" {
		t.Fatalf("top expr = %#v, want top-level *", out.Expr)
	}
	if _, ok := top.Left.(ast.BinaryOp); !ok {
		t.Fatalf("left of * = %#v, want a grouped + node", top.Left)
	}
}
