package main

import (
	"slasm.dev/slasm/ir"
)

// buildDemoProgram constructs a small two-function program exercising a
// typed addition, the stack calling convention's post-call adjustment,
// and the overlay-in-place return path: Main pushes two word literals,
// calls Add, and stores the sum to a global.
func buildDemoProgram() (*ir.Program, error) {
	p := ir.NewProgram("demo")

	if err := p.AddGlobal("result", make([]byte, 8)); err != nil {
		return nil, err
	}

	add, err := ir.NewFunction("Add", []ir.Slot{{Name: "a", Size: 8}, {Name: "b", Size: 8}}, nil, []uint64{8})
	if err != nil {
		return nil, err
	}
	addBody := ir.NewBasicBlock()
	for _, inst := range []ir.Instruction{
		ir.LoadParam("a"),
		ir.LoadParam("b"),
		ir.Add(ir.I64),
		ir.Ret(),
	} {
		if err := addBody.Append(inst); err != nil {
			return nil, err
		}
	}
	if err := add.AddBasicBlock("entry", addBody); err != nil {
		return nil, err
	}
	if err := add.SetEntry("entry"); err != nil {
		return nil, err
	}
	if err := p.AddFunction(add); err != nil {
		return nil, err
	}

	main, err := ir.NewFunction("Main", nil, nil, nil)
	if err != nil {
		return nil, err
	}
	two := ir.WordFromI64(2).Bytes()
	three := ir.WordFromI64(3).Bytes()
	mainBody := ir.NewBasicBlock()
	for _, inst := range []ir.Instruction{
		ir.Push(two[:]),
		ir.Push(three[:]),
		ir.Call("Add"),
		ir.StoreGlobal("result"),
		ir.Ret(),
	} {
		if err := mainBody.Append(inst); err != nil {
			return nil, err
		}
	}
	if err := main.AddBasicBlock("entry", mainBody); err != nil {
		return nil, err
	}
	if err := main.SetEntry("entry"); err != nil {
		return nil, err
	}
	if err := p.AddFunction(main); err != nil {
		return nil, err
	}

	if err := p.SetEntry("Main"); err != nil {
		return nil, err
	}
	return p, nil
}
