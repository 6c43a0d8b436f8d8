package ir_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"slasm.dev/slasm/ir"
)

func terminatedBlock(t *testing.T, insts ...ir.Instruction) *ir.BasicBlock {
	t.Helper()
	b := ir.NewBasicBlock()
	for _, inst := range insts {
		require.NoError(t, b.Append(inst))
	}
	return b
}

func TestNewFunctionRejectsZeroSizedSlots(t *testing.T) {
	_, err := ir.NewFunction("F", []ir.Slot{{Name: "a", Size: 0}}, nil, nil)
	require.Error(t, err)
	var irErr *ir.Error
	require.True(t, errors.As(err, &irErr))
	require.Equal(t, ir.InvalidLayout, irErr.Kind)

	_, err = ir.NewFunction("F", nil, nil, []uint64{0})
	require.Error(t, err)
	require.True(t, errors.As(err, &irErr))
	require.Equal(t, ir.InvalidLayout, irErr.Kind)
}

func TestNewFunctionRejectsDuplicateNames(t *testing.T) {
	_, err := ir.NewFunction("F", []ir.Slot{{Name: "a", Size: 8}, {Name: "a", Size: 8}}, nil, nil)
	require.Error(t, err)
	var irErr *ir.Error
	require.True(t, errors.As(err, &irErr))
	require.Equal(t, ir.DuplicateName, irErr.Kind)
}

func TestFunctionAddBasicBlockDuplicate(t *testing.T) {
	f, err := ir.NewFunction("F", nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, f.AddBasicBlock("entry", terminatedBlock(t, ir.Ret())))

	err = f.AddBasicBlock("entry", ir.NewBasicBlock())
	require.Error(t, err)
	var irErr *ir.Error
	require.True(t, errors.As(err, &irErr))
	require.Equal(t, ir.DuplicateName, irErr.Kind)
}

func TestFunctionSetEntryUnknownBlock(t *testing.T) {
	f, err := ir.NewFunction("F", nil, nil, nil)
	require.NoError(t, err)
	err = f.SetEntry("nope")
	require.Error(t, err)
	var irErr *ir.Error
	require.True(t, errors.As(err, &irErr))
	require.Equal(t, ir.UnknownBlock, irErr.Kind)
}

func TestFunctionIsProcedure(t *testing.T) {
	f, err := ir.NewFunction("Callee", []ir.Slot{{Name: "a", Size: 8}, {Name: "b", Size: 16}}, nil, nil)
	require.NoError(t, err)
	require.True(t, f.IsProcedure())

	g, err := ir.NewFunction("F", nil, nil, []uint64{2, 7})
	require.NoError(t, err)
	require.False(t, g.IsProcedure())
}

func TestFunctionValidateRequiresEntryAndTermination(t *testing.T) {
	f, err := ir.NewFunction("F", nil, nil, nil)
	require.NoError(t, err)
	err = f.Validate()
	require.Error(t, err)
	var irErr *ir.Error
	require.True(t, errors.As(err, &irErr))
	require.Equal(t, ir.MissingEntry, irErr.Kind)

	require.NoError(t, f.AddBasicBlock("entry", ir.NewBasicBlock()))
	require.NoError(t, f.SetEntry("entry"))
	err = f.Validate()
	require.Error(t, err)
	require.True(t, errors.As(err, &irErr))
	require.Equal(t, ir.NonTerminatedBlock, irErr.Kind)

	entry, _ := f.BasicBlock("entry")
	require.NoError(t, entry.Append(ir.Ret()))
	require.NoError(t, f.Validate())
}

func TestFunctionParamsPreserveInsertionOrder(t *testing.T) {
	f, err := ir.NewFunction("F",
		[]ir.Slot{{Name: "b", Size: 8}, {Name: "a", Size: 4}},
		nil, nil)
	require.NoError(t, err)
	params := f.Params()
	require.Equal(t, []ir.Slot{{Name: "b", Size: 8}, {Name: "a", Size: 4}}, params)
}
