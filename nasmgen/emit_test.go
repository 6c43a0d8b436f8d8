package nasmgen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"slasm.dev/slasm/ir"
	"slasm.dev/slasm/nasmgen"
)

func trivialProgram(t *testing.T) *ir.Program {
	t.Helper()
	p := ir.NewProgram("test")
	f, err := ir.NewFunction("Main", nil, nil, nil)
	require.NoError(t, err)
	b := ir.NewBasicBlock()
	require.NoError(t, b.Append(ir.Ret()))
	require.NoError(t, f.AddBasicBlock("entry", b))
	require.NoError(t, f.SetEntry("entry"))
	require.NoError(t, p.AddFunction(f))
	require.NoError(t, p.SetEntry("Main"))
	return p
}

func TestEmitProgramSubstitutesEntryPlaceholder(t *testing.T) {
	p := trivialProgram(t)
	var buf strings.Builder
	require.NoError(t, nasmgen.EmitProgram(p, "extern printf\nstart: jmp #ENTRY_FUNC_NAME#\n", &buf))
	out := buf.String()
	require.Contains(t, out, "jmp Main")
	require.NotContains(t, out, "#ENTRY_FUNC_NAME#")
}

func TestEmitProgramRejectsTemplateMissingPlaceholder(t *testing.T) {
	p := trivialProgram(t)
	var buf strings.Builder
	err := nasmgen.EmitProgram(p, "extern printf\n", &buf)
	require.Error(t, err)
	var irErr *ir.Error
	require.ErrorAs(t, err, &irErr)
	require.Equal(t, ir.MalformedTemplate, irErr.Kind)
}

func TestEmitProgramEmitsVersionAndSections(t *testing.T) {
	p := trivialProgram(t)
	var buf strings.Builder
	require.NoError(t, nasmgen.EmitProgram(p, "#ENTRY_FUNC_NAME#\n", &buf))
	out := buf.String()

	require.Contains(t, out, "; ==================== END OF HEADER ====================")
	require.Contains(t, out, "; GENERATED FROM SLASM VERSION "+ir.SLASMVersion)
	require.Contains(t, out, "section .data")
	require.Contains(t, out, "section .text")
	require.Contains(t, out, "global Main")
	require.Contains(t, out, "Main:")
	require.Contains(t, out, ".entry:")
}

func TestEmitProgramGlobalsAsByteDirectives(t *testing.T) {
	p := trivialProgram(t)
	require.NoError(t, p.AddGlobal("msg", []byte{72, 73}))
	var buf strings.Builder
	require.NoError(t, nasmgen.EmitProgram(p, "#ENTRY_FUNC_NAME#\n", &buf))
	require.Contains(t, buf.String(), "msg: db 72, 73\n")
}

func TestEmitProgramEmptyGlobalIsZeroByte(t *testing.T) {
	p := trivialProgram(t)
	require.NoError(t, p.AddGlobal("empty", nil))
	var buf strings.Builder
	require.NoError(t, nasmgen.EmitProgram(p, "#ENTRY_FUNC_NAME#\n", &buf))
	require.Contains(t, buf.String(), "empty: db 0\n")
}

// Document generation is a pure function of the program and header: calling
// it twice on the same inputs produces byte-identical output, since
// function/global/block iteration always follows insertion order.
func TestEmitProgramDeterministic(t *testing.T) {
	p := ir.NewProgram("test")
	require.NoError(t, p.AddGlobal("b", []byte{1}))
	require.NoError(t, p.AddGlobal("a", []byte{2}))

	f1, err := ir.NewFunction("Second", nil, nil, nil)
	require.NoError(t, err)
	b1 := ir.NewBasicBlock()
	require.NoError(t, b1.Append(ir.Ret()))
	require.NoError(t, f1.AddBasicBlock("entry", b1))
	require.NoError(t, f1.SetEntry("entry"))
	require.NoError(t, p.AddFunction(f1))

	f2, err := ir.NewFunction("First", nil, nil, nil)
	require.NoError(t, err)
	b2 := ir.NewBasicBlock()
	require.NoError(t, b2.Append(ir.Ret()))
	require.NoError(t, f2.AddBasicBlock("entry", b2))
	require.NoError(t, f2.SetEntry("entry"))
	require.NoError(t, p.AddFunction(f2))

	require.NoError(t, p.SetEntry("First"))

	var buf1, buf2 strings.Builder
	require.NoError(t, nasmgen.EmitProgram(p, "#ENTRY_FUNC_NAME#\n", &buf1))
	require.NoError(t, nasmgen.EmitProgram(p, "#ENTRY_FUNC_NAME#\n", &buf2))

	require.Equal(t, buf1.String(), buf2.String())
	// Globals and functions keep insertion order, not alphabetical order.
	out := buf1.String()
	require.Less(t, strings.Index(out, "b: db 1"), strings.Index(out, "a: db 2"))
	require.Less(t, strings.Index(out, "Second:"), strings.Index(out, "First:"))
}
