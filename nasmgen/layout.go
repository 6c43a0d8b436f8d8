// Package nasmgen is the NASM visitor: it computes a per-function stack
// calling-convention layout, lowers each instruction to NASM text, and
// stitches the result into a single assembly document using a
// platform-specific header template.
package nasmgen

import (
	"github.com/samber/lo"

	"slasm.dev/slasm/ir"
)

// Word is the machine word size in bytes the calling convention pads
// return buffers to.
const Word = 8

// FunctionInfo holds the derived per-function layout facts the code
// generator needs to emit correct pre-call and post-call stack
// adjustments, and to address parameters and locals relative to rbp.
type FunctionInfo struct {
	ParamBufferSize  uint64 // P: sum of param sizes
	ReturnBufferSize uint64 // R: sum of return sizes
	ReturnPadding    uint64 // R_pad
	PaddedReturnSize uint64 // R' = R + R_pad, a multiple of Word
	PreCallPadding   uint64 // max(0, R' - P)
	PreCallAllocated uint64 // P + PreCallPadding
	PostCallPop      uint64 // PreCallAllocated - R

	ParamOffset map[string]uint64 // ascending offsets in insertion order
	LocalOffset map[string]uint64 // ascending offsets in insertion order

	LocalsFrameSize uint64 // sum of local sizes, aligned up to 16
}

// alignUp rounds v up to the next multiple of align.
func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) / align * align
}

// computeFunctionInfo derives a FunctionInfo from a function's params,
// locals, and returns, per the specification's calling-convention
// arithmetic (§4.5.1) and per-function layout rules (§4.5.2).
func computeFunctionInfo(f *ir.Function) FunctionInfo {
	params := f.Params()
	locals := f.Locals()
	returns := f.Returns()

	paramOffset := make(map[string]uint64, len(params))
	var p uint64
	for _, s := range params {
		paramOffset[s.Name] = p
		p += s.Size
	}

	localOffset := make(map[string]uint64, len(locals))
	var localBytes uint64
	for _, s := range locals {
		localOffset[s.Name] = localBytes
		localBytes += s.Size
	}

	r := lo.SumBy(returns, func(sz uint64) uint64 { return sz })

	rPad := (Word - r%Word) % Word
	rPrime := r + rPad

	var preCallPadding uint64
	if rPrime > p {
		preCallPadding = rPrime - p
	}
	preCallAllocated := p + preCallPadding
	postCallPop := preCallAllocated - r

	return FunctionInfo{
		ParamBufferSize:  p,
		ReturnBufferSize: r,
		ReturnPadding:    rPad,
		PaddedReturnSize: rPrime,
		PreCallPadding:   preCallPadding,
		PreCallAllocated: preCallAllocated,
		PostCallPop:      postCallPop,
		ParamOffset:      paramOffset,
		LocalOffset:      localOffset,
		LocalsFrameSize:  alignUp(localBytes, 16),
	}
}

// GlobalContext maps every function name in a program to its FunctionInfo.
// It is built once, before lowering, so that Call lowering can be a pure
// lookup against the current instruction and this context.
type GlobalContext map[string]FunctionInfo

// BuildGlobalContext computes the FunctionInfo for every function in the
// program.
func BuildGlobalContext(program *ir.Program) GlobalContext {
	ctx := make(GlobalContext, len(program.FunctionNames()))
	for _, name := range program.FunctionNames() {
		f, _ := program.Function(name)
		ctx[name] = computeFunctionInfo(f)
	}
	return ctx
}
