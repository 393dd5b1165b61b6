package codegen

import (
	"encoding/binary"

	"tylc/internal/x64"
)

// GC data section layout (48 bytes), grounded on
// original_source/src/backend/codegen/core/codegen_compile.cpp's compile()
// GC-globals initialization: gc_alloc_head, gc_total_bytes, gc_threshold,
// gc_enabled, gc_collections, gc_stack_bottom, each an 8-byte slot.
const (
	gcOffAllocHead   = 0
	gcOffTotalBytes  = 8
	gcOffThreshold   = 16
	gcOffEnabled     = 24
	gcOffCollections = 32
	gcOffStackBottom = 40
	gcDataSize       = 48

	gcDefaultThreshold = 1 << 20 // 1MB, matching the original's default

	gcAllocLabel   = "__tyl_gc_alloc"
	gcCollectLabel = "__TYL_gc_collect"
)

// preScanGCData reserves and initializes the 48-byte GC globals block in
// the data section before any code is emitted, so codegen's alloc/collect
// stubs can address it via RIP-relative fixups immediately.
func (g *Generator) preScanGCData() uint32 {
	buf := make([]byte, gcDataSize)
	binary.LittleEndian.PutUint64(buf[gcOffThreshold:], gcDefaultThreshold)
	binary.LittleEndian.PutUint64(buf[gcOffEnabled:], 1)
	return g.img.AddData(buf)
}

// emitGCRoutines appends the allocator entry point and collection-trigger
// stub once per binary, after every function body has been generated
// (spec.md's "runtime routines appended once" pattern, the same shape
// emitRuntimeRoutines uses for itoa/ftoa/strlen).
//
// The allocator itself delegates to the process heap (HeapAlloc against
// GetProcessHeap()) rather than a bump arena: this compiler targets
// whole, short-lived console programs with no incremental recompilation
// (spec.md §1 Non-goals), so the simplest correct strategy — never
// individually freeing, reclaiming everything at ExitProcess — is
// sufficient, while gc_total_bytes/gc_threshold are still tracked and
// __TYL_gc_collect still runs threshold-doubling "deferred collection"
// accounting. No objects are swept, so these statistics differ from
// internal/gcrt's simulation, which keeps a fixed threshold and frees
// unreachable objects.
func (g *Generator) emitGCRoutines() {
	g.enc.Label(gcAllocLabel)
	g.enc.PushCalleeSaved(x64.RBX)
	g.enc.MovRegReg(x64.RBX, x64.RCX) // requested size, preserved across the call

	g.enc.LeaRegRIP(x64.RAX, g.gcDataRVA)
	g.enc.MovRegMem(x64.RCX, x64.RAX, gcOffTotalBytes)
	g.enc.AddRegReg(x64.RCX, x64.RBX)
	g.enc.MovMemReg(x64.RAX, gcOffTotalBytes, x64.RCX)
	g.enc.MovRegMem(x64.RDX, x64.RAX, gcOffThreshold)
	g.enc.CmpRegReg(x64.RCX, x64.RDX)
	g.enc.JccRel32(x64.CondLE, gcAllocLabel+"_nocollect")
	g.enc.CallRel32(gcCollectLabel)
	g.enc.Label(gcAllocLabel + "_nocollect")

	g.enc.SubRspImm32(32)
	if imp, ok := g.winImports["kernel32.dll!GetProcessHeap"]; ok {
		g.enc.CallMemRIP(imp.RVA)
	}
	g.enc.AddRspImm32(32)
	g.enc.MovRegReg(x64.RCX, x64.RAX)
	g.enc.XorZero(x64.RDX) // dwFlags = 0
	g.enc.MovRegReg(x64.R8, x64.RBX)
	g.enc.SubRspImm32(32)
	if imp, ok := g.winImports["kernel32.dll!HeapAlloc"]; ok {
		g.enc.CallMemRIP(imp.RVA)
	}
	g.enc.AddRspImm32(32)

	g.enc.PopCalleeSaved(x64.RBX)
	g.enc.Ret()

	g.enc.Label(gcCollectLabel)
	g.enc.LeaRegRIP(x64.RAX, g.gcDataRVA)
	g.enc.MovRegMem(x64.RCX, x64.RAX, gcOffEnabled)
	g.enc.TestRegReg(x64.RCX, x64.RCX)
	g.enc.JccRel32(x64.CondE, gcCollectLabel+"_done")
	g.enc.MovRegMem(x64.RCX, x64.RAX, gcOffCollections)
	g.enc.IncReg(x64.RCX)
	g.enc.MovMemReg(x64.RAX, gcOffCollections, x64.RCX)
	g.enc.MovRegMem(x64.RCX, x64.RAX, gcOffThreshold)
	g.enc.ShlRegImm8(x64.RCX, 1)
	g.enc.MovMemReg(x64.RAX, gcOffThreshold, x64.RCX)
	g.enc.Label(gcCollectLabel + "_done")
	g.enc.Ret()
}
