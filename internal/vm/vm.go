// Package vm executes compiled closures: a call-frame interpreter over a
// single shared value stack, dispatching the bytecode instruction set
// defined in internal/bytecode.
package vm

import (
	"fmt"

	"pseudo/internal/bytecode"
	"pseudo/internal/compiler"
	"pseudo/internal/symtab"
	"pseudo/internal/value"
)

// defaultStackLimit caps call-frame depth the way the teacher's Stack
// guards against runaway recursion, scaled up for this language's actual
// recursive-function support (the teacher's stub VM had no calls to
// recurse through at all).
const defaultStackLimit = 1024

// VM runs one compiled Program. It owns the operand stack, the global
// variable slots, and the call-frame stack.
type VM struct {
	program *compiler.Program
	symtab  *symtab.Table
	interns *value.InternTable

	globals []value.Value
	stack   []value.Value
	sp      int
	frames  []frame

	print      func(string)
	stackLimit int
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithPrint overrides where @output writes (spec.md's print callback
// collaborator). Default is a no-op, matching Config.Print defaulting to a
// silent sink until pseudo.New supplies one.
func WithPrint(print func(string)) Option {
	return func(vm *VM) { vm.print = print }
}

// WithStackLimit overrides the call-frame depth limit.
func WithStackLimit(n int) Option {
	return func(vm *VM) { vm.stackLimit = n }
}

// New creates a VM ready to run prog. st and interns must be the same
// symtab.Table and value.InternTable instances the compiler used to
// produce prog, so IDs and interned strings resolve consistently.
func New(prog *compiler.Program, st *symtab.Table, interns *value.InternTable, opts ...Option) *VM {
	vm := &VM{
		program:    prog,
		symtab:     st,
		interns:    interns,
		globals:    make([]value.Value, st.NumGlobals()),
		stack:      make([]value.Value, 0, 256),
		print:      func(string) {},
		stackLimit: defaultStackLimit,
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Run executes the program's top-level statements from the start.
func (vm *VM) Run() error {
	vm.sp = 0
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.frames = append(vm.frames, frame{closure: vm.program.Main, ip: 0, bp: 0})
	// Reserve Main's local slots (locals declared inside top-level IF/WHILE
	// blocks) so expression temporaries start above them, as call() does
	// for a user function's frame.
	for range vm.program.Main.LocalTypes {
		vm.push(value.VoidValue())
	}
	return vm.loop()
}

func (vm *VM) push(v value.Value) {
	if vm.sp < len(vm.stack) {
		vm.stack[vm.sp] = v
	} else {
		vm.stack = append(vm.stack, v)
	}
	vm.sp++
}

func (vm *VM) pop() value.Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) loop() error {
	for {
		fr := &vm.frames[len(vm.frames)-1]
		op := bytecode.Opcode(fr.closure.Code[fr.ip])
		def, err := bytecode.Get(op)
		if err != nil {
			return &RuntimeError{Message: err.Error()}
		}
		operands, width := bytecode.ReadOperands(def, fr.closure.Code, fr.ip+1)
		fr.ip += 1 + width

		switch op {
		case bytecode.LD_CONST:
			vm.push(fr.closure.Consts[operands[0]])

		case bytecode.LD_LOCAL:
			idx := operands[0]
			v := vm.stack[fr.bp+idx]
			if v.IsVoid() {
				return &RuntimeError{Message: "uninitialised variable " + localName(fr.closure, idx)}
			}
			vm.push(v)

		case bytecode.ST_LOCAL:
			idx := operands[0]
			v := vm.pop()
			declared := fr.closure.LocalTypes[idx]
			if declared != "VOID" && v.TypeName() != declared {
				return &RuntimeError{Message: "cannot store " + v.TypeName() + " into " + declared + " local"}
			}
			vm.stack[fr.bp+idx] = v

		case bytecode.LD_GLOBAL:
			id := symtab.ID(operands[0])
			v := vm.globals[id]
			if v.IsVoid() {
				return &RuntimeError{Message: "uninitialised variable " + vm.symtab.GlobalByID(id).Name}
			}
			vm.push(v)

		case bytecode.ST_GLOBAL:
			id := symtab.ID(operands[0])
			v := vm.pop()
			desc := vm.symtab.GlobalByID(id)
			if desc.Type != "VOID" && v.TypeName() != desc.Type {
				return &RuntimeError{Message: "cannot store " + v.TypeName() + " into " + desc.Type + " global \"" + desc.Name + "\""}
			}
			vm.globals[id] = v

		case bytecode.BR:
			fr.ip = operands[0]

		case bytecode.BR_FALSE:
			cond := vm.pop()
			if cond.Kind() != value.Bool {
				return &RuntimeError{Message: "branch condition must be BOOLEAN, got " + cond.TypeName()}
			}
			if !cond.AsBool() {
				fr.ip = operands[0]
			}

		case bytecode.CALL:
			if err := vm.call(symtab.ID(operands[0])); err != nil {
				return err
			}

		case bytecode.RET:
			retVal := vm.pop()
			done, err := vm.returnFrame()
			if err != nil {
				return err
			}
			vm.push(retVal)
			if done {
				return nil
			}

		case bytecode.END:
			closure := fr.closure
			if closure.ReturnType != nil {
				return &RuntimeError{Message: "function \"" + closure.Name + "\" did not return a value"}
			}
			done, err := vm.returnFrame()
			if err != nil {
				return err
			}
			if done {
				return nil
			}

		default:
			return &RuntimeError{Message: "unhandled opcode " + def.Name}
		}
	}
}

// localName reports the source identifier for local slot idx in closure, for
// uninitialised-variable diagnostics. Falls back to the slot index itself if
// LocalNames is shorter than expected, which should not happen for bytecode
// this VM compiled itself but keeps the diagnostic path panic-free.
func localName(closure *compiler.Closure, idx int) string {
	if idx >= 0 && idx < len(closure.LocalNames) {
		return closure.LocalNames[idx]
	}
	return fmt.Sprintf("<local %d>", idx)
}

// returnFrame pops the current frame and collapses the stack back to
// before its arguments. It reports done=true once the outermost (Main)
// frame has returned.
func (vm *VM) returnFrame() (done bool, err error) {
	fr := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.sp = fr.bp
	return len(vm.frames) == 0, nil
}

func (vm *VM) call(id symtab.ID) error {
	desc := vm.symtab.FuncByID(id)
	if desc == nil {
		return &RuntimeError{Message: "call to unknown function id"}
	}
	arity := desc.Arity()
	base := vm.sp - arity
	args := vm.stack[base:vm.sp]

	if desc.Primitive {
		result, err := vm.callPrimitive(desc.Name, args)
		if err != nil {
			return err
		}
		vm.sp = base
		if desc.Return != nil {
			vm.push(result)
		}
		return nil
	}

	for i, p := range desc.Params {
		if p.Type == "VOID" {
			continue
		}
		if args[i].TypeName() != p.Type {
			return &RuntimeError{Message: "argument " + p.Name + " to \"" + desc.Name + "\" expects " + p.Type + ", got " + args[i].TypeName()}
		}
	}
	if len(vm.frames) >= vm.stackLimit {
		return &RuntimeError{Message: "stack overflow calling \"" + desc.Name + "\""}
	}
	closure := vm.program.Functions[desc.ClosureIndex]
	extra := len(closure.LocalTypes) - closure.NumParams
	for i := 0; i < extra; i++ {
		vm.push(value.VoidValue())
	}
	vm.frames = append(vm.frames, frame{closure: closure, ip: 0, bp: base})
	return nil
}
