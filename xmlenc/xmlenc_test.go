package xmlenc_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"slasm.dev/slasm/ir"
	"slasm.dev/slasm/xmlenc"
)

// S6 — XML emission.
func TestEmitProgramBasic(t *testing.T) {
	p := ir.NewProgram("test")
	require.NoError(t, p.AddGlobal("my_string", []byte("Hello, World!\x00")))

	f, err := ir.NewFunction("Main", nil, nil, nil)
	require.NoError(t, err)
	block := ir.NewBasicBlock()
	require.NoError(t, block.Append(ir.Noop()))
	require.NoError(t, block.Append(ir.Ret()))
	require.NoError(t, f.AddBasicBlock("entry", block))
	require.NoError(t, f.SetEntry("entry"))
	require.NoError(t, p.AddFunction(f))
	require.NoError(t, p.SetEntry("Main"))

	var buf strings.Builder
	require.NoError(t, xmlenc.EmitProgram(p, &buf))
	out := buf.String()

	require.Contains(t, out, `<program slasm_version="1.0.0" entry="Main">`)
	require.Contains(t, out, `<global name="my_string" data="48:65:6C:6C:6F:2C:20:57:6F:72:6C:64:21:00"/>`)
	require.Contains(t, out, `<function name="Main" entry="entry">`)
	require.Contains(t, out, `<basic_block label="entry">`)
	require.Contains(t, out, "<NOOP/>")
	require.Contains(t, out, "<RET/>")
}

func TestEmitProgramFunctionReturnsAsSequence(t *testing.T) {
	p := ir.NewProgram("test")
	f, err := ir.NewFunction("F", []ir.Slot{{Name: "a", Size: 8}}, nil, []uint64{2, 7})
	require.NoError(t, err)
	b := ir.NewBasicBlock()
	require.NoError(t, b.Append(ir.Ret()))
	require.NoError(t, f.AddBasicBlock("entry", b))
	require.NoError(t, f.SetEntry("entry"))
	require.NoError(t, p.AddFunction(f))
	require.NoError(t, p.SetEntry("F"))

	var buf strings.Builder
	require.NoError(t, xmlenc.EmitProgram(p, &buf))
	out := buf.String()

	require.Contains(t, out, `<param name="a" size="8"/>`)
	require.Contains(t, out, `<return size="2"/>`)
	require.Contains(t, out, `<return size="7"/>`)
}

func TestEmitProgramInstructionAttributes(t *testing.T) {
	p := ir.NewProgram("test")
	f, err := ir.NewFunction("F", nil, nil, nil)
	require.NoError(t, err)
	b := ir.NewBasicBlock()
	require.NoError(t, b.Append(ir.Push([]byte{1, 2})))
	require.NoError(t, b.Append(ir.Add(ir.I64)))
	require.NoError(t, b.Append(ir.Convert(ir.I32, ir.F64)))
	require.NoError(t, b.Append(ir.CondJump("t", "f")))
	require.NoError(t, f.AddBasicBlock("entry", b))
	require.NoError(t, f.SetEntry("entry"))
	require.NoError(t, p.AddFunction(f))
	require.NoError(t, p.SetEntry("F"))

	var buf strings.Builder
	require.NoError(t, xmlenc.EmitProgram(p, &buf))
	out := buf.String()

	require.Contains(t, out, `<PUSH data="01:02"/>`)
	require.Contains(t, out, `<ADD data_type="I64"/>`)
	require.Contains(t, out, `<CONVERT from="I32" to="F64"/>`)
	require.Contains(t, out, `<COND_JUMP true_target="t" false_target="f"/>`)
}

func TestEmitProgramEscapesAttributeValues(t *testing.T) {
	p := ir.NewProgram("test")
	require.NoError(t, p.AddGlobal(`a"b`, nil))
	var buf strings.Builder
	require.NoError(t, xmlenc.EmitProgram(p, &buf))
	require.Contains(t, buf.String(), `name="a&#34;b"`)
}
