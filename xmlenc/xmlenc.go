// Package xmlenc is the XML visitor: a pure, read-only traversal of an
// ir.Program that writes the debug/tooling XML schema described in the
// specification. It performs no semantic checks beyond those the ir package
// already enforces during construction.
package xmlenc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"slasm.dev/slasm/ir"
)

// EmitProgram writes program as a single <program> XML document to w. It
// never mutates program and never validates it beyond what ir already
// guarantees on construction (an unset entry is rendered as an empty
// attribute rather than rejected — validation is the caller's job, via
// ir.Program.Validate, before handing the program to a visitor).
//
// The schema hand-writes self-closing empty elements
// (<NOOP/>, <global .../>) rather than going through encoding/xml's
// struct-tag Marshal, because Go's xml.Encoder always renders an empty
// element as <tag></tag>, never as a self-closed <tag/>; see DESIGN.md.
func EmitProgram(program *ir.Program, w io.Writer) error {
	var sb strings.Builder

	entry, _ := program.Entry()
	sb.WriteString("<program ")
	writeAttr(&sb, "slasm_version", ir.SLASMVersion)
	sb.WriteByte(' ')
	writeAttr(&sb, "entry", entry)
	sb.WriteString(">\n")

	for _, label := range program.GlobalNames() {
		data, _ := program.Global(label)
		sb.WriteString("  <global ")
		writeAttr(&sb, "name", label)
		sb.WriteByte(' ')
		writeAttr(&sb, "data", hexColon(data))
		sb.WriteString("/>\n")
	}

	for _, name := range program.FunctionNames() {
		f, _ := program.Function(name)
		writeFunction(&sb, f)
	}

	sb.WriteString("</program>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeFunction(sb *strings.Builder, f *ir.Function) {
	entry, _ := f.Entry()
	sb.WriteString("  <function ")
	writeAttr(sb, "name", f.Name())
	sb.WriteByte(' ')
	writeAttr(sb, "entry", entry)
	sb.WriteString(">\n")

	for _, p := range f.Params() {
		sb.WriteString("    <param ")
		writeAttr(sb, "name", p.Name)
		sb.WriteByte(' ')
		writeAttr(sb, "size", fmt.Sprintf("%d", p.Size))
		sb.WriteString("/>\n")
	}
	for _, l := range f.Locals() {
		sb.WriteString("    <local ")
		writeAttr(sb, "name", l.Name)
		sb.WriteByte(' ')
		writeAttr(sb, "size", fmt.Sprintf("%d", l.Size))
		sb.WriteString("/>\n")
	}
	for _, size := range f.Returns() {
		sb.WriteString("    <return ")
		writeAttr(sb, "size", fmt.Sprintf("%d", size))
		sb.WriteString("/>\n")
	}

	for _, blockName := range f.BasicBlockNames() {
		block, _ := f.BasicBlock(blockName)
		sb.WriteString("    <basic_block ")
		writeAttr(sb, "label", blockName)
		sb.WriteString(">\n")
		for _, inst := range block.Iterate() {
			writeInstruction(sb, inst)
		}
		sb.WriteString("    </basic_block>\n")
	}

	sb.WriteString("  </function>\n")
}

func writeInstruction(sb *strings.Builder, inst ir.Instruction) {
	tag := inst.Op.String()
	attrs := instructionAttrs(inst)
	sb.WriteString("      <")
	sb.WriteString(tag)
	for _, kv := range attrs {
		sb.WriteByte(' ')
		writeAttr(sb, kv[0], kv[1])
	}
	sb.WriteString("/>\n")
}

// instructionAttrs returns the ordered (name, value) attribute pairs for an
// instruction, mirroring the operand table in the specification exactly.
func instructionAttrs(inst ir.Instruction) [][2]string {
	switch inst.Op {
	case ir.OpPush:
		return [][2]string{{"data", hexColon(inst.Data)}}
	case ir.OpPop, ir.OpAllocate:
		return [][2]string{{"amt", fmt.Sprintf("%d", inst.Amt)}}
	case ir.OpLoadLocal, ir.OpStoreLocal, ir.OpLoadParam, ir.OpStoreParam,
		ir.OpLoadGlobal, ir.OpStoreGlobal,
		ir.OpLoadLocalAddr, ir.OpLoadParamAddr, ir.OpLoadGlobalAddr, ir.OpLoadFuncAddr:
		return [][2]string{{"name", inst.Name}}
	case ir.OpLoadMem, ir.OpStoreMem:
		return [][2]string{{"offset", fmt.Sprintf("%d", inst.Offset)}}
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod, ir.OpInc, ir.OpDec,
		ir.OpEq, ir.OpNeq, ir.OpGt, ir.OpLt, ir.OpGtEq, ir.OpLtEq, ir.OpNeg:
		return [][2]string{{"data_type", inst.DataType.String()}}
	case ir.OpConvert:
		return [][2]string{{"from", inst.From.String()}, {"to", inst.To.String()}}
	case ir.OpJump:
		return [][2]string{{"target", inst.Target}}
	case ir.OpCondJump:
		return [][2]string{{"true_target", inst.TrueTarget}, {"false_target", inst.FalseTarget}}
	case ir.OpCall:
		return [][2]string{{"target", inst.Target}}
	case ir.OpIndirectCall:
		return [][2]string{
			{"param_buffer_size", fmt.Sprintf("%d", inst.ParamBufferSize)},
			{"ret_buffer_size", fmt.Sprintf("%d", inst.RetBufferSize)},
		}
	default: // Noop, Ret, Or, And, Xor, Not, Shl, Shr
		return nil
	}
}

// writeAttr writes name="value" with value XML-escaped.
func writeAttr(sb *strings.Builder, name, value string) {
	sb.WriteString(name)
	sb.WriteString(`="`)
	sb.WriteString(escapeAttr(value))
	sb.WriteByte('"')
}

func escapeAttr(s string) string {
	var buf bytes.Buffer
	// xml.EscapeText escapes the handful of characters ("&<>'\"" and
	// invalid runes) that matter inside an attribute value; it also
	// escapes newlines/tabs, which is what we want for single-line
	// attributes.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// hexColon renders bytes as colon-separated upper-case hex pairs, e.g.
// "48:65:6C:6C:6F".
func hexColon(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var sb strings.Builder
	const hexDigits = "0123456789ABCDEF"
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(':')
		}
		sb.WriteByte(hexDigits[b>>4])
		sb.WriteByte(hexDigits[b&0x0f])
	}
	return sb.String()
}
