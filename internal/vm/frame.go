package vm

import "pseudo/internal/compiler"

// frame is one call's activation record: which closure is executing, where
// in its bytecode, and where its locals begin on the shared value stack.
type frame struct {
	closure *compiler.Closure
	ip      int
	bp      int
}
