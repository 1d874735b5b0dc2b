package x64

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestSetFunctionCode(t *testing.T) {
	mem, err := unix.Mmap(-1, 0, os.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		t.Fatalf("sys/unix.Mmap failed: %v", err)
	}
	defer unix.Munmap(mem)

	// sum(a, b int64) int64, args in RAX/RBX and result in RAX (Go's
	// register-based calling convention on amd64, used for func value calls)
	enc := NewEncoder()
	enc.EmitArithRR(ADD, W64, RAX, RBX)
	enc.EmitRet()

	if err := enc.LinkTo(mem); err != nil {
		t.Fatal(err)
	}

	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		t.Fatalf("sys/unix.Mprotect failed: %v", err)
	}

	sum := (func(a, b int64) int64)(nil)
	if err := SetFunctionCode(&sum, mem); err != nil {
		t.Fatal(err)
	}

	for i := int64(-5); i <= 5; i++ {
		for j := int64(-5); j <= 5; j++ {
			s := sum(i, j)
			if s != i+j {
				t.Fatalf("sum(%v, %v) = %v", i, j, s)
			}
		}
	}
}
