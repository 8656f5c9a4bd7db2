// Package bytecode defines the instruction set the compiler emits and the
// VM executes: the opcode table, operand-width metadata, and the
// assemble/disassemble routines both the compiler and the `emit` CLI
// subcommand share.
//
// Operand widths are mixed by design (spec.md §4.5): the constant pool and
// the local-variable table are each capped at 256 entries, so LD_CONST,
// LD_LOCAL, and ST_LOCAL take a single-byte operand; the global table and
// the function table can hold up to 65535 entries, so LD_GLOBAL, ST_GLOBAL,
// CALL, BR, and BR_FALSE take a two-byte (big-endian) operand.
package bytecode

import "fmt"

// Opcode is a single bytecode instruction's tag byte.
type Opcode byte

const (
	END Opcode = iota
	RET
	LD_CONST
	LD_LOCAL
	ST_LOCAL
	LD_GLOBAL
	ST_GLOBAL
	CALL
	BR
	BR_FALSE
)

// Definition describes one opcode: its mnemonic and the byte width of each
// of its operands, in order. An empty OperandWidths means the opcode takes
// no operand (END, RET).
type Definition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*Definition{
	END:       {"END", nil},
	RET:       {"RET", nil},
	LD_CONST:  {"LD_CONST", []int{1}},
	LD_LOCAL:  {"LD_LOCAL", []int{1}},
	ST_LOCAL:  {"ST_LOCAL", []int{1}},
	LD_GLOBAL: {"LD_GLOBAL", []int{2}},
	ST_GLOBAL: {"ST_GLOBAL", []int{2}},
	CALL:      {"CALL", []int{2}},
	BR:        {"BR", []int{2}},
	BR_FALSE:  {"BR_FALSE", []int{2}},
}

// Get looks up an opcode's definition.
func Get(op Opcode) (*Definition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("bytecode: opcode %d undefined", op)
	}
	return def, nil
}

// Assemble encodes one instruction (opcode + operands) and appends it to
// the end of the given code buffer, returning the new buffer and the
// instruction's starting offset.
func Assemble(code []byte, op Opcode, operands ...int) ([]byte, int) {
	def, err := Get(op)
	if err != nil {
		panic(err)
	}
	start := len(code)
	code = append(code, byte(op))
	for i, width := range def.OperandWidths {
		v := operands[i]
		switch width {
		case 1:
			code = append(code, byte(v))
		case 2:
			code = append(code, byte(v>>8), byte(v))
		default:
			panic(fmt.Sprintf("bytecode: unsupported operand width %d", width))
		}
	}
	return code, start
}

// Size returns the total byte length of one instruction for op (tag byte
// plus operands), without emitting the instruction.
func Size(op Opcode) int {
	def, err := Get(op)
	if err != nil {
		panic(err)
	}
	n := 1
	for _, w := range def.OperandWidths {
		n += w
	}
	return n
}

// ReadOperands decodes the operands that start at code[ip] (the byte right
// after the opcode byte, which the caller has already read) and returns
// them along with the total bytes consumed by the operands alone.
func ReadOperands(def *Definition, code []byte, ip int) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0
	for i, width := range def.OperandWidths {
		switch width {
		case 1:
			operands[i] = int(code[ip+offset])
		case 2:
			operands[i] = int(code[ip+offset])<<8 | int(code[ip+offset+1])
		}
		offset += width
	}
	return operands, offset
}

// PutUint16 patches a two-byte big-endian operand in place at code[at],
// used by the compiler's jump backpatching once a branch target is known.
func PutUint16(code []byte, at int, v int) {
	code[at] = byte(v >> 8)
	code[at+1] = byte(v)
}

// Disassemble renders the whole instruction stream as human-readable text,
// one instruction per line prefixed with its byte offset, for the `emit`
// CLI subcommand and for debugging (spec.md §1's "pretty-printing used for
// debugging" collaborator).
func Disassemble(code []byte) string {
	out := ""
	ip := 0
	for ip < len(code) {
		op := Opcode(code[ip])
		def, err := Get(op)
		if err != nil {
			out += fmt.Sprintf("%04d ERROR: %s\n", ip, err)
			ip++
			continue
		}
		operands, consumed := ReadOperands(def, code, ip+1)
		out += fmt.Sprintf("%04d %s\n", ip, formatInstruction(def, operands))
		ip += 1 + consumed
	}
	return out
}

func formatInstruction(def *Definition, operands []int) string {
	switch len(operands) {
	case 0:
		return def.Name
	case 1:
		return fmt.Sprintf("%-10s %d", def.Name, operands[0])
	case 2:
		return fmt.Sprintf("%-10s %d %d", def.Name, operands[0], operands[1])
	default:
		return fmt.Sprintf("%s %v (ERROR: unhandled operand count)", def.Name, operands)
	}
}
