// package x64 provides a minimal x86-64 instruction encoder: an in-memory
// assembler that appends bytes for a small, fixed set of instruction forms,
// tracks labels and relocations against those labels, and links the
// result into executable memory.
//
// usage example:
//
// 	package example
//
// 	import (
// 		"fmt"
// 		"os"
//
// 		"golang.org/x/sys/unix"
//
// 		x64 "github.com/MasterTaffer/x86-64-encoder"
// 	)
//
// 	func CompileFactorial() (func(int64) int64, error) {
// 		enc := x64.NewEncoder()
//
// 		start := enc.AddLabel()
// 		end := enc.AddLabel()
//
// 		// Go passes n in RAX; the loop expects it in RDI.
// 		enc.EmitArithRR(x64.MOV, x64.W64, x64.RDI, x64.RAX)
// 		enc.EmitArithRR(x64.XOR, x64.W64, x64.RAX, x64.RAX)
// 		enc.EmitMovRI8(x64.RAX, 1)
// 		enc.EmitArithRR(x64.MOV, x64.W64, x64.R8, x64.RAX)
//
// 		enc.MoveLabel(start)
// 		enc.EmitArithRR(x64.XOR, x64.W64, x64.RDX, x64.RDX)
// 		enc.EmitArithRR(x64.CMP, x64.W64, x64.RDI, x64.RDX)
// 		enc.EmitJmpCond(x64.CCLessOrEqual, end)
// 		enc.EmitUnary(x64.IMUL, x64.RDI)
// 		enc.EmitArithRR(x64.SUB, x64.W64, x64.RDI, x64.R8)
// 		enc.EmitJmp(false, start)
// 		enc.MoveLabel(end)
// 		enc.EmitRet()
//
// 		mem, err := unix.Mmap(-1, 0, os.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
// 		if err != nil {
// 			return nil, fmt.Errorf("mmap: %w", err)
// 		}
// 		if err := enc.LinkTo(mem); err != nil {
// 			_ = unix.Munmap(mem)
// 			return nil, err
// 		}
// 		if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
// 			_ = unix.Munmap(mem)
// 			return nil, fmt.Errorf("mprotect: %w", err)
// 		}
//
// 		fact := (func(int64) int64)(nil) // placeholder value
// 		if err := x64.SetFunctionCode(&fact, mem); err != nil {
// 			_ = unix.Munmap(mem)
// 			return nil, err
// 		}
//
// 		return fact, nil
// 	}
package x64
