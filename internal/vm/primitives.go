package vm

import "pseudo/internal/value"

// callPrimitive implements the built-in operator set of spec.md §4.6. Every
// primitive's formal parameters are typed VOID in the symbol table, so the
// call boundary never rejects an argument here — type compatibility between
// specific operand kinds (e.g. @lt needs numeric operands, not strings) is
// this function's job, not the generic call-boundary check in call().
func (vm *VM) callPrimitive(name string, args []value.Value) (value.Value, error) {
	switch name {
	case "@add":
		return vm.add(args[0], args[1])
	case "@sub":
		return vm.numericBinOp(args[0], args[1], "@sub", func(a, b int32) int32 { return a - b }, func(a, b float32) float32 { return a - b })
	case "@mul":
		return vm.numericBinOp(args[0], args[1], "@mul", func(a, b int32) int32 { return a * b }, func(a, b float32) float32 { return a * b })
	case "@div":
		return vm.div(args[0], args[1])
	case "@neg":
		return vm.neg(args[0])
	case "@eq":
		return vm.equals(args[0], args[1])
	case "@ne":
		eq, err := vm.equals(args[0], args[1])
		if err != nil {
			return value.Value{}, err
		}
		return value.BoolValue(!eq.AsBool()), nil
	case "@lt":
		return vm.compare(args[0], args[1], "@lt")
	case "@gt":
		return vm.compare(args[0], args[1], "@gt")
	case "@le":
		return vm.compare(args[0], args[1], "@le")
	case "@ge":
		return vm.compare(args[0], args[1], "@ge")
	case "@and":
		return vm.logical(args[0], args[1], "@and")
	case "@or":
		return vm.logical(args[0], args[1], "@or")
	case "@not":
		if args[0].Kind() != value.Bool {
			return value.Value{}, &RuntimeError{Message: "@not expects BOOLEAN, got " + args[0].TypeName()}
		}
		return value.BoolValue(!args[0].AsBool()), nil
	case "@output":
		vm.print(args[0].String())
		return value.VoidValue(), nil
	}
	return value.Value{}, &RuntimeError{Message: "unknown primitive \"" + name + "\""}
}

func (vm *VM) add(a, b value.Value) (value.Value, error) {
	if a.Kind() == value.Obj && b.Kind() == value.Obj {
		as, aok := a.AsObject().(*value.StringObj)
		bs, bok := b.AsObject().(*value.StringObj)
		if aok && bok {
			return value.ObjValue(vm.interns.InternBytes(append(append([]byte(nil), as.Data...), bs.Data...))), nil
		}
	}
	return vm.numericBinOp(a, b, "@add", func(x, y int32) int32 { return x + y }, func(x, y float32) float32 { return x + y })
}

func (vm *VM) numericBinOp(a, b value.Value, op string, intOp func(int32, int32) int32, realOp func(float32, float32) float32) (value.Value, error) {
	if a.Kind() == value.Int && b.Kind() == value.Int {
		return value.IntValue(intOp(a.AsInt(), b.AsInt())), nil
	}
	af, aok := asReal(a)
	bf, bok := asReal(b)
	if aok && bok {
		return value.RealValue(realOp(af, bf)), nil
	}
	return value.Value{}, &RuntimeError{Message: op + " expects numeric operands, got " + a.TypeName() + " and " + b.TypeName()}
}

func (vm *VM) div(a, b value.Value) (value.Value, error) {
	if a.Kind() == value.Int && b.Kind() == value.Int {
		if b.AsInt() == 0 {
			return value.Value{}, &RuntimeError{Message: "division by zero"}
		}
		return value.IntValue(a.AsInt() / b.AsInt()), nil
	}
	af, aok := asReal(a)
	bf, bok := asReal(b)
	if !aok || !bok {
		return value.Value{}, &RuntimeError{Message: "@div expects numeric operands, got " + a.TypeName() + " and " + b.TypeName()}
	}
	if bf == 0 {
		return value.Value{}, &RuntimeError{Message: "division by zero"}
	}
	return value.RealValue(af / bf), nil
}

func (vm *VM) neg(a value.Value) (value.Value, error) {
	switch a.Kind() {
	case value.Int:
		return value.IntValue(-a.AsInt()), nil
	case value.Real:
		return value.RealValue(-a.AsReal()), nil
	}
	return value.Value{}, &RuntimeError{Message: "@neg expects a numeric operand, got " + a.TypeName()}
}

func (vm *VM) equals(a, b value.Value) (value.Value, error) {
	if a.Kind() != b.Kind() {
		return value.BoolValue(false), nil
	}
	switch a.Kind() {
	case value.Void:
		return value.BoolValue(true), nil
	case value.Bool:
		return value.BoolValue(a.AsBool() == b.AsBool()), nil
	case value.Int:
		return value.BoolValue(a.AsInt() == b.AsInt()), nil
	case value.Real:
		return value.BoolValue(a.AsReal() == b.AsReal()), nil
	case value.Obj:
		as, aok := a.AsObject().(*value.StringObj)
		bs, bok := b.AsObject().(*value.StringObj)
		if aok && bok {
			// Interned strings: pointer identity is content equality.
			return value.BoolValue(as == bs), nil
		}
		return value.BoolValue(a.AsObject() == b.AsObject()), nil
	}
	return value.BoolValue(false), nil
}

func (vm *VM) compare(a, b value.Value, op string) (value.Value, error) {
	if a.Kind() == value.Int && b.Kind() == value.Int {
		return value.BoolValue(intCompare(op, a.AsInt(), b.AsInt())), nil
	}
	af, aok := asReal(a)
	bf, bok := asReal(b)
	if !aok || !bok {
		return value.Value{}, &RuntimeError{Message: op + " expects numeric operands, got " + a.TypeName() + " and " + b.TypeName()}
	}
	return value.BoolValue(realCompare(op, af, bf)), nil
}

func intCompare(op string, a, b int32) bool {
	switch op {
	case "@lt":
		return a < b
	case "@gt":
		return a > b
	case "@le":
		return a <= b
	case "@ge":
		return a >= b
	}
	return false
}

func realCompare(op string, a, b float32) bool {
	switch op {
	case "@lt":
		return a < b
	case "@gt":
		return a > b
	case "@le":
		return a <= b
	case "@ge":
		return a >= b
	}
	return false
}

func (vm *VM) logical(a, b value.Value, op string) (value.Value, error) {
	if a.Kind() != value.Bool || b.Kind() != value.Bool {
		return value.Value{}, &RuntimeError{Message: op + " expects BOOLEAN operands, got " + a.TypeName() + " and " + b.TypeName()}
	}
	if op == "@and" {
		return value.BoolValue(a.AsBool() && b.AsBool()), nil
	}
	return value.BoolValue(a.AsBool() || b.AsBool()), nil
}

// asReal widens an INTEGER or REAL value to float32 for mixed-type
// arithmetic; any other kind fails the widen.
func asReal(v value.Value) (float32, bool) {
	switch v.Kind() {
	case value.Int:
		return float32(v.AsInt()), true
	case value.Real:
		return v.AsReal(), true
	}
	return 0, false
}
