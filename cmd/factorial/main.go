// Command factorial assembles a loop-based factorial function at runtime,
// links it into executable memory, and calls it over a range of inputs.
// It doubles as a worked example of driving the x64 encoder and the ir
// liveness analyzer together: the assembled function's three-address form
// is analysed before being encoded, purely to demonstrate the analysis
// contract against a real function body.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	x64 "github.com/MasterTaffer/x86-64-encoder"
	"github.com/MasterTaffer/x86-64-encoder/ir"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var from, to int64
	var dumpPath string

	cmd := &cobra.Command{
		Use:   "factorial",
		Short: "assemble and run a loop-based factorial function",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), from, to, dumpPath)
		},
	}

	cmd.Flags().Int64Var(&from, "from", 0, "first n to evaluate")
	cmd.Flags().Int64Var(&to, "to", 14, "last n to evaluate")
	cmd.Flags().StringVar(&dumpPath, "dump", "", "write the linked machine code to this path")

	return cmd
}

func run(ctx context.Context, from, to int64, dumpPath string) (err error) {
	span, _ := tlog.SpawnFromContextAndWrap(ctx, "factorial", "from", from, "to", to)
	defer span.Finish("err", &err)

	if from > to {
		return errors.New("--from (%d) must not exceed --to (%d)", from, to)
	}

	if _, err := ir.Analyse(factorialIR()); err != nil {
		return errors.Wrap(err, "analyse factorial IR")
	}
	span.Printw("analysed reference IR")

	enc := assembleFactorial()
	span.Printw("assembled", "bytes", enc.Len())

	mem, err := unix.Mmap(-1, 0, os.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return errors.Wrap(err, "mmap")
	}
	defer unix.Munmap(mem)

	if err := enc.LinkTo(mem); err != nil {
		return errors.Wrap(err, "link")
	}

	if dumpPath != "" {
		if err := os.WriteFile(dumpPath, mem[:enc.Len()], 0o644); err != nil {
			return errors.Wrap(err, "dump %v", dumpPath)
		}
		span.Printw("dumped", "path", dumpPath)
	}

	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return errors.Wrap(err, "mprotect")
	}

	fact := (func(int64) int64)(nil)
	if err := x64.SetFunctionCode(&fact, mem); err != nil {
		return errors.Wrap(err, "bind function code")
	}

	for n := from; n <= to; n++ {
		fmt.Printf("%d! = %d\n", n, fact(n))
	}

	return nil
}

// assembleFactorial builds the loop-based factorial function from the
// worked example: a decrementing multiply loop guarded by a CMP/JNG pair.
func assembleFactorial() *x64.Encoder {
	enc := x64.NewEncoder()

	start := enc.AddLabel()
	end := enc.AddLabel()

	// Go passes the first integer argument of a func value call in RAX; the
	// loop below expects n in RDI.
	enc.EmitArithRR(x64.MOV, x64.W64, x64.RDI, x64.RAX)
	enc.EmitArithRR(x64.XOR, x64.W64, x64.RAX, x64.RAX)
	enc.EmitMovRI8(x64.RAX, 1)
	enc.EmitArithRR(x64.MOV, x64.W64, x64.R8, x64.RAX)

	enc.MoveLabel(start)
	enc.EmitArithRR(x64.XOR, x64.W64, x64.RDX, x64.RDX)
	enc.EmitArithRR(x64.CMP, x64.W64, x64.RDI, x64.RDX)
	enc.EmitJmpCond(x64.CCLessOrEqual, end)
	enc.EmitUnary(x64.IMUL, x64.RDI)
	enc.EmitArithRR(x64.SUB, x64.W64, x64.RDI, x64.R8)
	enc.EmitJmp(false, start)
	enc.MoveLabel(end)
	enc.EmitRet()

	return enc
}

// factorialIR builds the three-address form of the same loop, purely so
// the demo can show the ir package's Analyse contract on a realistic
// function: a decrementing multiply loop with one backward jump.
func factorialIR() *ir.Function {
	arg := ir.Operand{Kind: ir.Argument, RefID: 0, Type: ir.TypeInfo{Kind: ir.I64}}
	result := ir.Operand{Kind: ir.VariableOperand, RefID: 0}
	n := ir.Operand{Kind: ir.VariableOperand, RefID: 1}
	one := ir.Operand{Kind: ir.Immediate, Imm: ir.Imm{I64: 1}, Type: ir.TypeInfo{Kind: ir.I64}}
	zero := ir.Operand{Kind: ir.Immediate, Imm: ir.Imm{I64: 0}, Type: ir.TypeInfo{Kind: ir.I64}}

	loopStart := 2

	return &ir.Function{
		Arguments:  []ir.TypeInfo{{Kind: ir.I64}},
		ReturnType: ir.TypeInfo{Kind: ir.I64},
		Variables:  []ir.Variable{{Type: ir.TypeInfo{Kind: ir.I64}}, {Type: ir.TypeInfo{Kind: ir.I64}}},
		Opcodes: []ir.Opcode{
			{Type: ir.COPY, Target: result, Primary1: one},
			{Type: ir.COPY, Target: n, Primary1: arg},
			{Type: ir.GotoCond(ir.LEqual), Target: ir.Operand{RefID: 6}, Primary1: n, Primary2: zero},
			{Type: ir.MUL, Target: result, Primary1: result, Primary2: n},
			{Type: ir.SUB, Target: n, Primary1: n, Primary2: one},
			{Type: ir.GotoCond(ir.Always), Target: ir.Operand{RefID: loopStart}},
			{Type: ir.Return, Primary1: result},
		},
	}
}
