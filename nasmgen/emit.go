package nasmgen

import (
	"fmt"
	"io"
	"strings"

	"slasm.dev/slasm/ir"
)

// headerMarker separates a platform header template from the generated
// document body. EmitProgram rejects a header with no #ENTRY_FUNC_NAME#
// placeholder and replaces every occurrence it finds.
const headerMarker = "; ==================== END OF HEADER ===================="

const entryPlaceholder = "#ENTRY_FUNC_NAME#"

// EmitProgram renders program as a complete NASM source document: the
// caller-supplied header (with #ENTRY_FUNC_NAME# substituted for the
// program's entry function), a version comment, a data section built from
// the program's globals, and a text section holding every function's
// lowered blocks in insertion order.
//
// EmitProgram does not call program.Validate: callers are expected to
// validate before reaching the code generator, same as xmlenc.
func EmitProgram(program *ir.Program, header string, w io.Writer) error {
	if !strings.Contains(header, entryPlaceholder) {
		return &ir.Error{Kind: ir.MalformedTemplate, Name: entryPlaceholder}
	}

	entry, _ := program.Entry()
	resolvedHeader := strings.ReplaceAll(header, entryPlaceholder, entry)

	var sb strings.Builder
	sb.WriteString(resolvedHeader)
	if !strings.HasSuffix(resolvedHeader, "\n") {
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "%s\n", headerMarker)
	fmt.Fprintf(&sb, "; GENERATED FROM SLASM VERSION %s\n\n", ir.SLASMVersion)

	writeDataSection(&sb, program)

	ctx := BuildGlobalContext(program)
	if err := writeTextSection(&sb, program, ctx); err != nil {
		return err
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeDataSection(sb *strings.Builder, program *ir.Program) {
	sb.WriteString("section .data\n")
	for _, label := range program.GlobalNames() {
		data, _ := program.Global(label)
		if len(data) == 0 {
			fmt.Fprintf(sb, "%s: db 0\n", label)
			continue
		}
		parts := make([]string, len(data))
		for i, b := range data {
			parts[i] = fmt.Sprintf("%d", b)
		}
		fmt.Fprintf(sb, "%s: db %s\n", label, strings.Join(parts, ", "))
	}
	sb.WriteByte('\n')
}

func writeTextSection(sb *strings.Builder, program *ir.Program, ctx GlobalContext) error {
	sb.WriteString("section .text\n")
	entry, _ := program.Entry()
	fmt.Fprintf(sb, "global %s\n\n", entry)

	for _, name := range program.FunctionNames() {
		f, _ := program.Function(name)
		if err := writeFunction(sb, f, ctx); err != nil {
			return err
		}
	}
	return nil
}

func writeFunction(sb *strings.Builder, f *ir.Function, ctx GlobalContext) error {
	info := ctx[f.Name()]
	fmt.Fprintf(sb, "%s:\n", f.Name())
	sb.WriteString("    push rbp\n")
	sb.WriteString("    mov rbp, rsp\n")
	if info.LocalsFrameSize > 0 {
		fmt.Fprintf(sb, "    sub rsp, %d\n", info.LocalsFrameSize)
	}

	lw := newLowerer(ctx, f)
	for _, blockName := range f.BasicBlockNames() {
		block, _ := f.BasicBlock(blockName)
		fmt.Fprintf(sb, ".%s:\n", blockName)
		for _, inst := range block.Iterate() {
			if err := lw.lowerInstruction(sb, "    ", inst); err != nil {
				return err
			}
		}
	}
	sb.WriteByte('\n')
	return nil
}
