package value

import "testing"

func TestInternTableReusesEqualContent(t *testing.T) {
	it := NewInternTable()
	a := it.Intern("hello")
	b := it.Intern("hello")
	if a != b {
		t.Fatalf("Intern should return the same object for equal content, got distinct pointers")
	}
	c := it.Intern("world")
	if a == c {
		t.Fatalf("Intern should return distinct objects for distinct content")
	}
}

func TestInternTableGrows(t *testing.T) {
	it := NewInternTable()
	seen := map[string]*StringObj{}
	for i := 0; i < 500; i++ {
		s := randomish(i)
		obj := it.Intern(s)
		if prev, ok := seen[s]; ok && prev != obj {
			t.Fatalf("interning %q twice produced different objects after growth", s)
		}
		seen[s] = obj
	}
	if it.Len() != len(seen) {
		t.Errorf("Len() = %d, want %d", it.Len(), len(seen))
	}
}

func randomish(i int) string {
	// deterministic pseudo-variety without math/rand, so the test doesn't
	// depend on a disallowed source of randomness.
	letters := "abcdefghijklmnopqrstuvwxyz"
	return string(letters[i%26]) + string(letters[(i*7)%26]) + string(letters[(i*13)%26])
}

func TestValueTypeNames(t *testing.T) {
	it := NewInternTable()
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"void", VoidValue(), "VOID"},
		{"bool", BoolValue(true), "BOOLEAN"},
		{"int", IntValue(5), "INTEGER"},
		{"real", RealValue(1.5), "REAL"},
		{"string", ObjValue(it.Intern("x")), "STRING"},
		{"array", ObjValue(NewArray(3)), "ARRAY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.TypeName(); got != tt.want {
				t.Errorf("TypeName() = %q, want %q", got, tt.want)
			}
		})
	}
}
