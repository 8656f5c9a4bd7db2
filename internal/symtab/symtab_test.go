package symtab

import "testing"

func TestNewRegistersPrimitives(t *testing.T) {
	st := New()
	for _, name := range PrimitiveTypeNames {
		if _, ok := st.LookupType(name); !ok {
			t.Errorf("primitive type %q not registered", name)
		}
	}
	for _, name := range []string{"@add", "@sub", "@eq", "@ne", "@not", "@output"} {
		if _, ok := st.LookupFunc(name); !ok {
			t.Errorf("primitive function %q not registered", name)
		}
	}
}

func TestAddFuncAssignsStableIDs(t *testing.T) {
	st := New()
	id1 := st.AddFunc(&FuncDesc{Name: "doThing"})
	id2 := st.AddFunc(&FuncDesc{Name: "doOtherThing"})
	if id1 == id2 {
		t.Fatalf("distinct functions got the same ID")
	}
	if got, _ := st.LookupFunc("doThing"); got != id1 {
		t.Errorf("LookupFunc(doThing) = %d, want %d", got, id1)
	}
	if desc := st.FuncByID(id2); desc.Name != "doOtherThing" {
		t.Errorf("FuncByID(%d).Name = %q, want doOtherThing", id2, desc.Name)
	}
}

func TestLookupMiss(t *testing.T) {
	st := New()
	if _, ok := st.LookupFunc("nope"); ok {
		t.Errorf("expected lookup miss for undeclared function")
	}
	if _, ok := st.LookupGlobal("nope"); ok {
		t.Errorf("expected lookup miss for undeclared global")
	}
}

func TestGlobalsOrderedAndCounted(t *testing.T) {
	st := New()
	st.AddGlobal(&GlobalDesc{Name: "total", Type: "INTEGER"})
	st.AddGlobal(&GlobalDesc{Name: "label", Type: "STRING"})
	if st.NumGlobals() != 2 {
		t.Fatalf("NumGlobals() = %d, want 2", st.NumGlobals())
	}
	if st.GlobalByID(1).Name != "label" {
		t.Errorf("GlobalByID(1).Name = %q, want label", st.GlobalByID(1).Name)
	}
}
