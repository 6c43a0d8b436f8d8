package ir

// BasicBlock is an ordered, owned sequence of instructions. Once terminated
// (its last instruction is Jump, CondJump, or Ret) no further instructions
// may be appended.
type BasicBlock struct {
	instructions []Instruction
}

// NewBasicBlock returns an empty, unterminated basic block.
func NewBasicBlock() *BasicBlock {
	return &BasicBlock{}
}

// Append adds an instruction to the end of the block. It fails with a
// Terminated error if the block already ends in a terminator.
func (b *BasicBlock) Append(inst Instruction) error {
	if b.IsTerminated() {
		return newErr(Terminated, "", "cannot append to a terminated basic block")
	}
	b.instructions = append(b.instructions, inst)
	return nil
}

// IsTerminated reports whether the block's last instruction is a
// terminator (Jump, CondJump, or Ret).
func (b *BasicBlock) IsTerminated() bool {
	if len(b.instructions) == 0 {
		return false
	}
	return b.instructions[len(b.instructions)-1].Op.IsTerminator()
}

// Len returns the number of instructions in the block.
func (b *BasicBlock) Len() int {
	return len(b.instructions)
}

// Index returns the instruction at position i. It fails with an OutOfRange
// error if i is beyond the block's length.
func (b *BasicBlock) Index(i int) (Instruction, error) {
	if i < 0 || i >= len(b.instructions) {
		return Instruction{}, newErr(OutOfRange, "", "basic block index out of range")
	}
	return b.instructions[i], nil
}

// Iterate returns a lazy, in-order, non-restartable iterator over the
// block's instructions, following Go 1.23's range-over-func iterator shape.
func (b *BasicBlock) Iterate() func(yield func(int, Instruction) bool) {
	return func(yield func(int, Instruction) bool) {
		for i, inst := range b.instructions {
			if !yield(i, inst) {
				return
			}
		}
	}
}
