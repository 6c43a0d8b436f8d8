package ir

// SLASMVersion is the IR version string emitted into the XML schema's
// slasm_version attribute and the NASM visitor's version comment.
const SLASMVersion = "1.0.0"

// Program is a named collection of global data blobs and functions plus a
// designated entry function. Program exclusively owns its functions.
type Program struct {
	name string

	globalOrder []string
	globals     map[string][]byte

	funcOrder []string
	functions map[string]*Function

	entry *string
}

// NewProgram returns an empty program with the given name.
func NewProgram(name string) *Program {
	return &Program{
		name:      name,
		globals:   make(map[string][]byte),
		functions: make(map[string]*Function),
	}
}

// Name returns the program's name.
func (p *Program) Name() string { return p.name }

// AddFunction registers a function under its own name. It fails with
// DuplicateName if a function of that name is already registered.
func (p *Program) AddFunction(f *Function) error {
	if _, exists := p.functions[f.name]; exists {
		return newErr(DuplicateName, f.name, "duplicate function name")
	}
	p.functions[f.name] = f
	p.funcOrder = append(p.funcOrder, f.name)
	return nil
}

// AddGlobal registers a named global data blob, stored verbatim (no
// padding). It fails with DuplicateName if the label is already registered.
func (p *Program) AddGlobal(label string, data []byte) error {
	if _, exists := p.globals[label]; exists {
		return newErr(DuplicateName, label, "duplicate global label")
	}
	stored := append([]byte(nil), data...)
	p.globals[label] = stored
	p.globalOrder = append(p.globalOrder, label)
	return nil
}

// SetEntry designates the program's entry function. It fails with
// UnknownFunction if no function of that name is registered.
func (p *Program) SetEntry(name string) error {
	if _, exists := p.functions[name]; !exists {
		return newErr(UnknownFunction, name, "set_entry refers to an unknown function")
	}
	p.entry = &name
	return nil
}

// Entry returns the entry function name and whether it has been set.
func (p *Program) Entry() (string, bool) {
	if p.entry == nil {
		return "", false
	}
	return *p.entry, true
}

// FunctionNames returns the program's function names in insertion order.
func (p *Program) FunctionNames() []string {
	return append([]string(nil), p.funcOrder...)
}

// Function returns the named function and whether it exists.
func (p *Program) Function(name string) (*Function, bool) {
	f, ok := p.functions[name]
	return f, ok
}

// GlobalNames returns the program's global labels in insertion order.
func (p *Program) GlobalNames() []string {
	return append([]string(nil), p.globalOrder...)
}

// Global returns the named global's bytes and whether it exists.
func (p *Program) Global(label string) ([]byte, bool) {
	b, ok := p.globals[label]
	return b, ok
}

// Validate checks the emission-time invariants: an entry must be set and
// refer to a registered function, and every function must itself validate
// (entry set, every block terminated).
func (p *Program) Validate() error {
	if p.entry == nil {
		return newErr(MissingEntry, p.name, "program has no entry function set")
	}
	if _, ok := p.functions[*p.entry]; !ok {
		return newErr(UnknownFunction, *p.entry, "program entry refers to an unknown function")
	}
	for _, name := range p.funcOrder {
		if err := p.functions[name].Validate(); err != nil {
			return err
		}
	}
	return nil
}
