package ir

// Slot names a single parameter or local, paired with its byte size.
type Slot struct {
	Name string
	Size uint64
}

// Function is a named unit with typed parameters, locals, return slots, and
// a named set of basic blocks plus a designated entry block. Function
// exclusively owns its blocks.
type Function struct {
	name string

	paramOrder []string
	paramSize  map[string]uint64

	localOrder []string
	localSize  map[string]uint64

	returns []uint64 // ordered sequence of return slot byte sizes

	blockOrder []string
	blocks     map[string]*BasicBlock

	entry *string
}

// NewFunction builds a Function from its name, ordered params, ordered
// locals, and ordered return slot sizes. It fails with InvalidLayout if any
// size is zero, and with DuplicateName if params or locals repeat a name
// within their own namespace.
func NewFunction(name string, params, locals []Slot, returns []uint64) (*Function, error) {
	f := &Function{
		name:      name,
		paramSize: make(map[string]uint64),
		localSize: make(map[string]uint64),
		blocks:    make(map[string]*BasicBlock),
	}
	for _, p := range params {
		if p.Size == 0 {
			return nil, newErr(InvalidLayout, p.Name, "param size must be > 0")
		}
		if _, exists := f.paramSize[p.Name]; exists {
			return nil, newErr(DuplicateName, p.Name, "duplicate param name")
		}
		f.paramSize[p.Name] = p.Size
		f.paramOrder = append(f.paramOrder, p.Name)
	}
	for _, l := range locals {
		if l.Size == 0 {
			return nil, newErr(InvalidLayout, l.Name, "local size must be > 0")
		}
		if _, exists := f.localSize[l.Name]; exists {
			return nil, newErr(DuplicateName, l.Name, "duplicate local name")
		}
		f.localSize[l.Name] = l.Size
		f.localOrder = append(f.localOrder, l.Name)
	}
	for _, r := range returns {
		if r == 0 {
			return nil, newErr(InvalidLayout, "", "return slot size must be > 0")
		}
	}
	f.returns = append([]uint64(nil), returns...)
	return f, nil
}

// Name returns the function's name.
func (f *Function) Name() string { return f.name }

// Params returns the function's parameters in insertion order.
func (f *Function) Params() []Slot {
	out := make([]Slot, len(f.paramOrder))
	for i, name := range f.paramOrder {
		out[i] = Slot{Name: name, Size: f.paramSize[name]}
	}
	return out
}

// Locals returns the function's locals in insertion order.
func (f *Function) Locals() []Slot {
	out := make([]Slot, len(f.localOrder))
	for i, name := range f.localOrder {
		out[i] = Slot{Name: name, Size: f.localSize[name]}
	}
	return out
}

// Returns returns the ordered sequence of return slot byte sizes.
func (f *Function) Returns() []uint64 {
	return append([]uint64(nil), f.returns...)
}

// IsProcedure reports whether the function returns no values.
func (f *Function) IsProcedure() bool {
	var total uint64
	for _, r := range f.returns {
		total += r
	}
	return total == 0
}

// AddBasicBlock registers a named basic block. It fails with DuplicateName
// if a block of that name is already registered.
func (f *Function) AddBasicBlock(name string, block *BasicBlock) error {
	if _, exists := f.blocks[name]; exists {
		return newErr(DuplicateName, name, "duplicate basic block name")
	}
	f.blocks[name] = block
	f.blockOrder = append(f.blockOrder, name)
	return nil
}

// SetEntry designates the function's entry block. It fails with
// UnknownBlock if no block of that name is registered.
func (f *Function) SetEntry(name string) error {
	if _, exists := f.blocks[name]; !exists {
		return newErr(UnknownBlock, name, "set_entry refers to an unknown basic block")
	}
	f.entry = &name
	return nil
}

// Entry returns the entry block name and whether it has been set.
func (f *Function) Entry() (string, bool) {
	if f.entry == nil {
		return "", false
	}
	return *f.entry, true
}

// BasicBlockNames returns the function's basic block names in insertion
// order.
func (f *Function) BasicBlockNames() []string {
	return append([]string(nil), f.blockOrder...)
}

// BasicBlock returns the named block and whether it exists.
func (f *Function) BasicBlock(name string) (*BasicBlock, bool) {
	b, ok := f.blocks[name]
	return b, ok
}

// ContainsNonTerminatedBasicBlock reports whether any registered block
// lacks a terminator.
func (f *Function) ContainsNonTerminatedBasicBlock() bool {
	for _, name := range f.blockOrder {
		if !f.blocks[name].IsTerminated() {
			return true
		}
	}
	return false
}

// Validate checks the emission-time invariants: an entry must be set, the
// entry must refer to an existing block (always true here since SetEntry
// already checked it, but re-checked for defense against future mutation
// paths), and every block must be terminated.
func (f *Function) Validate() error {
	if f.entry == nil {
		return newErr(MissingEntry, f.name, "function has no entry block set")
	}
	if _, ok := f.blocks[*f.entry]; !ok {
		return newErr(UnknownBlock, *f.entry, "function entry refers to an unknown basic block")
	}
	if f.ContainsNonTerminatedBasicBlock() {
		for _, name := range f.blockOrder {
			if !f.blocks[name].IsTerminated() {
				return newErr(NonTerminatedBlock, name, "basic block is not terminated")
			}
		}
	}
	return nil
}
