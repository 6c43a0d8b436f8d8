package nasmgen

import (
	"fmt"
	"strings"

	"slasm.dev/slasm/ir"
)

// paramBase is the byte offset from rbp at which the caller-reserved
// parameter/return buffer begins: +8 past the saved rbp, +8 past the
// return address pushed by call.
const paramBase = 16

// localSlotSize is the width this visitor gives every named local and
// param slot on the operand stack: the IR's only scalar is an 8-byte Word
// (see DESIGN.md), so Load/Store of a named slot always moves one Word
// regardless of that slot's declared byte size.
const localSlotSize = 8

// lowerer lowers a single function's instructions to NASM text, given the
// GlobalContext built for the whole program.
type lowerer struct {
	ctx  GlobalContext
	fn   *ir.Function
	info FunctionInfo
}

func newLowerer(ctx GlobalContext, fn *ir.Function) *lowerer {
	return &lowerer{ctx: ctx, fn: fn, info: ctx[fn.Name()]}
}

func (lw *lowerer) line(sb *strings.Builder, indent string, format string, args ...any) {
	sb.WriteString(indent)
	fmt.Fprintf(sb, format, args...)
	sb.WriteByte('\n')
}

func (lw *lowerer) comment(sb *strings.Builder, indent string, inst ir.Instruction) {
	lw.line(sb, indent, "; %s", describeInstruction(inst))
}

// describeInstruction renders a short human-readable comment for an
// instruction, used as the lowering's leading comment line.
func describeInstruction(inst ir.Instruction) string {
	switch inst.Op {
	case ir.OpPush:
		return fmt.Sprintf("push %d byte(s)", len(inst.Data))
	case ir.OpPop:
		return fmt.Sprintf("pop %d byte(s)", inst.Amt)
	case ir.OpAllocate:
		return fmt.Sprintf("allocate %d byte(s)", inst.Amt)
	case ir.OpCall:
		return fmt.Sprintf("call %s", inst.Target)
	case ir.OpIndirectCall:
		return fmt.Sprintf("indirect call (params=%d, rets=%d)", inst.ParamBufferSize, inst.RetBufferSize)
	case ir.OpJump:
		return fmt.Sprintf("jump %s", inst.Target)
	case ir.OpCondJump:
		return fmt.Sprintf("cond jump %s/%s", inst.TrueTarget, inst.FalseTarget)
	default:
		return strings.ToLower(inst.Op.String())
	}
}

// lowerInstruction appends the NASM lowering of inst to sb, indented by
// indent. It returns an error if inst references an unknown callee.
func (lw *lowerer) lowerInstruction(sb *strings.Builder, indent string, inst ir.Instruction) error {
	lw.comment(sb, indent, inst)
	switch inst.Op {
	case ir.OpNoop:
		lw.line(sb, indent, "nop")

	case ir.OpPush:
		lw.lowerPush(sb, indent, inst.Data)

	case ir.OpPop:
		lw.line(sb, indent, "add rsp, %d", inst.Amt)

	case ir.OpAllocate:
		lw.line(sb, indent, "mov rax, rsp")
		lw.line(sb, indent, "sub rsp, %d", inst.Amt)
		lw.line(sb, indent, "push rax")

	case ir.OpLoadLocal:
		lw.line(sb, indent, "mov rax, [rbp - %d]", lw.localAddrOffset(inst.Name))
		lw.line(sb, indent, "push rax")
	case ir.OpStoreLocal:
		lw.line(sb, indent, "pop rax")
		lw.line(sb, indent, "mov [rbp - %d], rax", lw.localAddrOffset(inst.Name))

	case ir.OpLoadParam:
		lw.line(sb, indent, "mov rax, [rbp + %d]", lw.paramAddrOffset(inst.Name))
		lw.line(sb, indent, "push rax")
	case ir.OpStoreParam:
		lw.line(sb, indent, "pop rax")
		lw.line(sb, indent, "mov [rbp + %d], rax", lw.paramAddrOffset(inst.Name))

	case ir.OpLoadGlobal:
		lw.line(sb, indent, "mov rax, [%s]", inst.Name)
		lw.line(sb, indent, "push rax")
	case ir.OpStoreGlobal:
		lw.line(sb, indent, "pop rax")
		lw.line(sb, indent, "mov [%s], rax", inst.Name)

	case ir.OpLoadMem:
		lw.line(sb, indent, "pop rax")
		lw.line(sb, indent, "mov rax, [rax + %d]", inst.Offset)
		lw.line(sb, indent, "push rax")
	case ir.OpStoreMem:
		lw.line(sb, indent, "pop rbx")
		lw.line(sb, indent, "pop rax")
		lw.line(sb, indent, "mov [rax + %d], rbx", inst.Offset)

	case ir.OpLoadLocalAddr:
		lw.line(sb, indent, "lea rax, [rbp - %d]", lw.localAddrOffset(inst.Name))
		lw.line(sb, indent, "push rax")
	case ir.OpLoadParamAddr:
		lw.line(sb, indent, "lea rax, [rbp + %d]", lw.paramAddrOffset(inst.Name))
		lw.line(sb, indent, "push rax")
	case ir.OpLoadGlobalAddr:
		lw.line(sb, indent, "lea rax, [%s]", inst.Name)
		lw.line(sb, indent, "push rax")
	case ir.OpLoadFuncAddr:
		lw.line(sb, indent, "lea rax, [%s]", inst.Name)
		lw.line(sb, indent, "push rax")

	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod,
		ir.OpEq, ir.OpNeq, ir.OpGt, ir.OpLt, ir.OpGtEq, ir.OpLtEq:
		lw.lowerBinary(sb, indent, inst)
	case ir.OpInc, ir.OpDec, ir.OpNeg:
		lw.lowerUnary(sb, indent, inst)

	case ir.OpOr:
		lw.lowerBitwiseBinary(sb, indent, "or")
	case ir.OpAnd:
		lw.lowerBitwiseBinary(sb, indent, "and")
	case ir.OpXor:
		lw.lowerBitwiseBinary(sb, indent, "xor")
	case ir.OpNot:
		lw.line(sb, indent, "pop rax")
		lw.line(sb, indent, "not rax")
		lw.line(sb, indent, "push rax")
	case ir.OpShl:
		lw.lowerShift(sb, indent, "shl")
	case ir.OpShr:
		lw.lowerShift(sb, indent, "shr")

	case ir.OpConvert:
		lw.lowerConvert(sb, indent, inst.From, inst.To)

	case ir.OpJump:
		lw.line(sb, indent, "jmp .%s", inst.Target)
	case ir.OpCondJump:
		lw.line(sb, indent, "pop rax")
		lw.line(sb, indent, "cmp rax, 0")
		lw.line(sb, indent, "jne .%s", inst.TrueTarget)
		lw.line(sb, indent, "jmp .%s", inst.FalseTarget)

	case ir.OpCall:
		callee, ok := lw.ctx[inst.Target]
		if !ok {
			return &ir.Error{Kind: ir.UnknownFunction, Name: inst.Target}
		}
		if callee.PreCallPadding > 0 {
			lw.line(sb, indent, "sub rsp, %d", callee.PreCallPadding)
		}
		lw.line(sb, indent, "call %s", inst.Target)
		if callee.PostCallPop > 0 {
			lw.line(sb, indent, "add rsp, %d", callee.PostCallPop)
		}

	case ir.OpIndirectCall:
		lw.lowerIndirectCall(sb, indent, inst)

	case ir.OpRet:
		lw.lowerRet(sb, indent)

	default:
		return &ir.Error{Kind: ir.InvalidLayout, Name: inst.Op.String()}
	}
	return nil
}

func (lw *lowerer) localAddrOffset(name string) uint64 {
	return lw.info.LocalOffset[name] + localSlotSize
}

// paramAddrOffset finds a param's rbp-relative offset. The caller's param
// buffer sits at the high end of the reserved region, above any pre-call
// padding Call inserted below it (lower.go's Call case subtracts rsp for
// padding after the params are already pushed, so the padding occupies the
// low addresses of the buffer and the params the high ones); skipping
// PreCallPadding here would index into that padding instead of the params.
func (lw *lowerer) paramAddrOffset(name string) uint64 {
	return paramBase + lw.info.PreCallPadding + lw.info.ParamOffset[name]
}

// lowerPush splits data into 8-byte chunks from the start and materializes
// each with a single immediate load, per the specification's chunking
// rule: full 8-byte chunks are a plain mov+push; a trailing partial chunk
// of k<8 bytes is shifted into the high k bytes of the immediate so that
// the subsequent `add rsp, 8-k` discards exactly the zero low bytes,
// leaving the chunk's own first byte at the new top of stack.
func (lw *lowerer) lowerPush(sb *strings.Builder, indent string, data []byte) {
	for start := 0; start < len(data); start += 8 {
		end := start + 8
		if end > len(data) {
			end = len(data)
		}
		chunk := data[start:end]
		k := len(chunk)
		var imm uint64
		for i, b := range chunk {
			imm |= uint64(b) << (8 * uint(i))
		}
		if k == 8 {
			lw.line(sb, indent, "mov rax, 0x%016X", imm)
			lw.line(sb, indent, "push rax")
			continue
		}
		shifted := imm << (8 * uint(8-k))
		lw.line(sb, indent, "mov rax, 0x%016X", shifted)
		lw.line(sb, indent, "push rax")
		lw.line(sb, indent, "add rsp, %d", 8-k)
	}
}

func regForWidth(base string, size int) string {
	switch base {
	case "a":
		switch size {
		case 1:
			return "al"
		case 2:
			return "ax"
		case 4:
			return "eax"
		default:
			return "rax"
		}
	case "b":
		switch size {
		case 1:
			return "bl"
		case 2:
			return "bx"
		case 4:
			return "ebx"
		default:
			return "rbx"
		}
	}
	return base
}

func (lw *lowerer) lowerBinary(sb *strings.Builder, indent string, inst ir.Instruction) {
	dt := inst.DataType
	if dt.IsFloat() {
		lw.lowerFloatBinary(sb, indent, inst.Op, dt)
		return
	}
	size := dt.Size()
	a := regForWidth("a", size)
	b := regForWidth("b", size)
	lw.line(sb, indent, "pop rbx")
	lw.line(sb, indent, "pop rax")
	switch inst.Op {
	case ir.OpAdd:
		lw.line(sb, indent, "add %s, %s", a, b)
	case ir.OpSub:
		lw.line(sb, indent, "sub %s, %s", a, b)
	case ir.OpMul:
		if dt.IsSigned() {
			lw.line(sb, indent, "imul %s, %s", a, b)
		} else {
			lw.line(sb, indent, "mul %s", b)
		}
	case ir.OpDiv, ir.OpMod:
		if dt.IsSigned() {
			lw.line(sb, indent, "cqo")
			lw.line(sb, indent, "idiv rbx")
		} else {
			lw.line(sb, indent, "xor rdx, rdx")
			lw.line(sb, indent, "div rbx")
		}
		if inst.Op == ir.OpMod {
			lw.line(sb, indent, "mov rax, rdx")
		}
	case ir.OpEq, ir.OpNeq, ir.OpGt, ir.OpLt, ir.OpGtEq, ir.OpLtEq:
		lw.line(sb, indent, "cmp %s, %s", a, b)
		lw.line(sb, indent, "%s al", setccFor(inst.Op, dt.IsSigned()))
		lw.line(sb, indent, "movzx rax, al")
	}
	lw.line(sb, indent, "push rax")
}

func setccFor(op ir.Opcode, signed bool) string {
	switch op {
	case ir.OpEq:
		return "sete"
	case ir.OpNeq:
		return "setne"
	case ir.OpGt:
		if signed {
			return "setg"
		}
		return "seta"
	case ir.OpLt:
		if signed {
			return "setl"
		}
		return "setb"
	case ir.OpGtEq:
		if signed {
			return "setge"
		}
		return "setae"
	case ir.OpLtEq:
		if signed {
			return "setle"
		}
		return "setbe"
	default:
		return "sete"
	}
}

func (lw *lowerer) lowerFloatBinary(sb *strings.Builder, indent string, op ir.Opcode, dt ir.DataType) {
	suffix := "sd"
	if dt == ir.F32 {
		suffix = "ss"
	}
	lw.line(sb, indent, "movq xmm1, [rsp]")
	lw.line(sb, indent, "add rsp, 8")
	lw.line(sb, indent, "movq xmm0, [rsp]")
	lw.line(sb, indent, "add rsp, 8")
	switch op {
	case ir.OpAdd:
		lw.line(sb, indent, "add%s xmm0, xmm1", suffix)
	case ir.OpSub:
		lw.line(sb, indent, "sub%s xmm0, xmm1", suffix)
	case ir.OpMul:
		lw.line(sb, indent, "mul%s xmm0, xmm1", suffix)
	case ir.OpDiv, ir.OpMod:
		lw.line(sb, indent, "div%s xmm0, xmm1", suffix)
	case ir.OpEq, ir.OpNeq, ir.OpGt, ir.OpLt, ir.OpGtEq, ir.OpLtEq:
		lw.line(sb, indent, "ucomi%s xmm0, xmm1", suffix)
		lw.line(sb, indent, "%s al", setccFor(op, false))
		lw.line(sb, indent, "movzx rax, al")
		lw.line(sb, indent, "push rax")
		return
	}
	lw.line(sb, indent, "sub rsp, 8")
	lw.line(sb, indent, "movq [rsp], xmm0")
}

func (lw *lowerer) lowerUnary(sb *strings.Builder, indent string, inst ir.Instruction) {
	dt := inst.DataType
	if dt.IsFloat() {
		suffix := "sd"
		if dt == ir.F32 {
			suffix = "ss"
		}
		lw.line(sb, indent, "movq xmm0, [rsp]")
		switch inst.Op {
		case ir.OpInc:
			lw.line(sb, indent, "mov rax, 1")
			lw.line(sb, indent, "cvtsi2%s xmm1, rax", suffix)
			lw.line(sb, indent, "add%s xmm0, xmm1", suffix)
		case ir.OpDec:
			lw.line(sb, indent, "mov rax, 1")
			lw.line(sb, indent, "cvtsi2%s xmm1, rax", suffix)
			lw.line(sb, indent, "sub%s xmm0, xmm1", suffix)
		case ir.OpNeg:
			lw.line(sb, indent, "xorps xmm1, xmm1")
			lw.line(sb, indent, "sub%s xmm1, xmm0", suffix)
			lw.line(sb, indent, "movq xmm0, xmm1")
		}
		lw.line(sb, indent, "movq [rsp], xmm0")
		return
	}
	size := dt.Size()
	a := regForWidth("a", size)
	lw.line(sb, indent, "pop rax")
	switch inst.Op {
	case ir.OpInc:
		lw.line(sb, indent, "inc %s", a)
	case ir.OpDec:
		lw.line(sb, indent, "dec %s", a)
	case ir.OpNeg:
		lw.line(sb, indent, "neg %s", a)
	}
	lw.line(sb, indent, "push rax")
}

func (lw *lowerer) lowerBitwiseBinary(sb *strings.Builder, indent string, mnemonic string) {
	lw.line(sb, indent, "pop rbx")
	lw.line(sb, indent, "pop rax")
	lw.line(sb, indent, "%s rax, rbx", mnemonic)
	lw.line(sb, indent, "push rax")
}

func (lw *lowerer) lowerShift(sb *strings.Builder, indent string, mnemonic string) {
	lw.line(sb, indent, "pop rcx")
	lw.line(sb, indent, "pop rax")
	lw.line(sb, indent, "%s rax, cl", mnemonic)
	lw.line(sb, indent, "push rax")
}

func (lw *lowerer) lowerConvert(sb *strings.Builder, indent string, from, to ir.DataType) {
	switch {
	case from.IsFloat() && to.IsFloat():
		if from == to {
			return
		}
		lw.line(sb, indent, "movq xmm0, [rsp]")
		if from == ir.F64 {
			lw.line(sb, indent, "cvtsd2ss xmm0, xmm0")
		} else {
			lw.line(sb, indent, "cvtss2sd xmm0, xmm0")
		}
		lw.line(sb, indent, "movq [rsp], xmm0")
	case from.IsFloat() && !to.IsFloat():
		lw.line(sb, indent, "movq xmm0, [rsp]")
		if from == ir.F64 {
			lw.line(sb, indent, "cvttsd2si rax, xmm0")
		} else {
			lw.line(sb, indent, "cvttss2si rax, xmm0")
		}
		lw.line(sb, indent, "mov [rsp], rax")
	case !from.IsFloat() && to.IsFloat():
		lw.line(sb, indent, "mov rax, [rsp]")
		if to == ir.F64 {
			lw.line(sb, indent, "cvtsi2sd xmm0, rax")
		} else {
			lw.line(sb, indent, "cvtsi2ss xmm0, rax")
		}
		lw.line(sb, indent, "movq [rsp], xmm0")
	default:
		lw.lowerIntConvert(sb, indent, from, to)
	}
}

func (lw *lowerer) lowerIntConvert(sb *strings.Builder, indent string, from, to ir.DataType) {
	lw.line(sb, indent, "pop rax")
	size := to.Size()
	switch {
	case size >= 8:
		// already a full word; nothing further to mask.
	case to.IsSigned():
		lw.line(sb, indent, "movsx rax, %s", regForWidth("a", size))
	default:
		lw.line(sb, indent, "movzx rax, %s", regForWidth("a", size))
	}
	lw.line(sb, indent, "push rax")
}

func (lw *lowerer) lowerIndirectCall(sb *strings.Builder, indent string, inst ir.Instruction) {
	p := inst.ParamBufferSize
	r := inst.RetBufferSize
	rPad := (Word - r%Word) % Word
	rPrime := r + rPad
	var preCallPadding uint64
	if rPrime > p {
		preCallPadding = rPrime - p
	}
	preCallAllocated := p + preCallPadding
	postCallPop := preCallAllocated - r

	lw.line(sb, indent, "pop r11") // callee address
	if preCallPadding > 0 {
		lw.line(sb, indent, "sub rsp, %d", preCallPadding)
	}
	lw.line(sb, indent, "call r11")
	if postCallPop > 0 {
		lw.line(sb, indent, "add rsp, %d", postCallPop)
	}
}

// lowerRet implements the two return paths from the specification: a bare
// frame restore for procedures (R == 0), and the word-by-word buffer
// relocation for functions that return values.
//
// The caller-reserved buffer begins at rbp+paramBase (see paramAddrOffset)
// and is PreCallAllocated bytes wide; the R' padded return bytes are
// written flush against the END of that region (bufEnd down to
// bufEnd-R'), so that after post_call_pop the caller's rsp lands exactly
// on the first of the R meaningful bytes. This is the concrete addressing
// this visitor resolves the specification's rbp-relative Ret algorithm to
// (see DESIGN.md).
func (lw *lowerer) lowerRet(sb *strings.Builder, indent string) {
	if lw.info.ReturnBufferSize == 0 {
		lw.line(sb, indent, "mov rsp, rbp")
		lw.line(sb, indent, "pop rbp")
		lw.line(sb, indent, "ret")
		return
	}
	if lw.info.ReturnPadding > 0 {
		lw.line(sb, indent, "sub rsp, %d", lw.info.ReturnPadding)
	}
	lw.line(sb, indent, "lea rax, [rbp + %d]", paramBase+lw.info.PreCallAllocated)
	words := lw.info.PaddedReturnSize / Word
	for i := uint64(0); i < words; i++ {
		lw.line(sb, indent, "pop r10")
		lw.line(sb, indent, "sub rax, %d", Word)
		lw.line(sb, indent, "mov [rax], r10")
	}
	lw.line(sb, indent, "mov rsp, rbp")
	lw.line(sb, indent, "pop rbp")
	lw.line(sb, indent, "ret")
}
