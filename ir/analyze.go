package ir

import "tlog.app/go/errors"

func opcodeIsJump(op *Opcode) bool {
	return op.Type >= gotoBase && op.Type < gotoBase+8
}

func opcodeIsPureAssignment(op *Opcode) bool {
	return op.Type == COPY || op.Type == Call
}

func opcodeModifiesTargetOperand(op *Opcode) bool {
	if op.Type >= 1 && op.Type <= 15 {
		return true
	}
	if op.Type >= compareBase && op.Type < compareBase+8 {
		return true
	}
	return op.Type == Call
}

// readsPrimary1 implements the readership rule verbatim from the source
// this analysis was ported from: only the base COMPARE and GOTO opcodes (the
// "always" variant of each, not the whole comparison band) are excluded.
func readsPrimary1(op *Opcode) bool {
	if op.Type == compareBase || op.Type == gotoBase {
		return false
	}
	if op.Type == NOP {
		return false
	}
	return true
}

func readsPrimary2(op *Opcode) bool {
	if !readsPrimary1(op) {
		return false
	}
	switch op.Type {
	case Return, Call, SetArgument, BitNeg, NOT, COPY:
		return false
	}
	return true
}

func isVariableAddressLoad(o *Operand) bool {
	return o.IsVariable() && o.Flags&Address != 0
}

// Analyse computes per-instruction jump/label information and per-variable
// liveness for fn. fn is not modified.
func Analyse(fn *Function) (*FunctionAnalysis, error) {
	if err := validate(fn); err != nil {
		return nil, err
	}

	a := &FunctionAnalysis{
		Infos:     make([]OpcodeInfo, len(fn.Opcodes)),
		Variables: make([]VariableInfo, len(fn.Variables)),
	}

	for i := range a.Infos {
		a.Infos[i].JumpFrom = -1
		a.Infos[i].PreviousLabel = -1
	}
	for i := range a.Variables {
		a.Variables[i].LifetimeStart = -1
		a.Variables[i].LifetimeEnd = -1
	}

	// Pass 1: jump-source discovery, right to left. The rightmost (latest)
	// jump into a given target wins, since the loop runs backwards and
	// jump_from is only ever set once per target.
	for i := len(fn.Opcodes) - 1; i >= 0; i-- {
		op := &fn.Opcodes[i]
		if !opcodeIsJump(op) {
			continue
		}
		label := op.Target.RefID
		if a.Infos[label].JumpFrom >= 0 {
			continue
		}
		a.Infos[label].JumpFrom = i
	}

	// Pass 2: previous-label chain, left to right.
	previousLabel := -1
	for i := range fn.Opcodes {
		a.Infos[i].PreviousLabel = previousLabel
		if a.Infos[i].JumpFrom >= 0 {
			previousLabel = i
		}
	}

	// Pass 3: variable lifetimes, left to right.
	for i := range fn.Opcodes {
		op := &fn.Opcodes[i]
		pureAssign := opcodeIsPureAssignment(op)

		if op.Target.IsVariable() && (pureAssign || opcodeModifiesTargetOperand(op)) {
			extend(a, &a.Variables[op.Target.RefID], i, pureAssign)
		}

		if isVariableAddressLoad(&op.Primary1) {
			a.Variables[op.Primary1.RefID].Flags |= Eternal
		} else if op.Primary1.IsVariable() && readsPrimary1(op) {
			extend(a, &a.Variables[op.Primary1.RefID], i, false)
		}

		if isVariableAddressLoad(&op.Primary2) {
			a.Variables[op.Primary2.RefID].Flags |= Eternal
		} else if op.Primary2.IsVariable() && readsPrimary2(op) {
			extend(a, &a.Variables[op.Primary2.RefID], i, false)
		}
	}

	return a, nil
}

// extend grows v's live range to cover index, then applies the backward-jump
// closure: if an instruction inside the range is the target of a jump from
// a later instruction, the range is extended through that jump, repeating
// until no farther jump source is found.
func extend(a *FunctionAnalysis, v *VariableInfo, index int, pureAssignment bool) {
	if v.LifetimeEnd >= index || v.Flags&Eternal != 0 || v.Flags&Uninitialized != 0 {
		return
	}

	if v.LifetimeStart == -1 {
		if pureAssignment {
			v.LifetimeStart = index
			v.LifetimeEnd = index + 1
			v.Flags |= Unused
			return
		}
		v.Flags |= Eternal | Uninitialized
		return
	}

	if pureAssignment {
		v.Flags |= Unused
	} else {
		v.Flags &^= Unused
	}

	minimum := v.LifetimeEnd
	if minimum < v.LifetimeStart {
		minimum = v.LifetimeStart
	}

	maxJmpPos := index
	var maximum int
	for {
		maximum = maxJmpPos + 1
		pos := maxJmpPos
		for pos >= minimum {
			if a.Infos[pos].JumpFrom > maxJmpPos {
				maxJmpPos = a.Infos[pos].JumpFrom
			}
			pos = a.Infos[pos].PreviousLabel
		}
		minimum = maximum
		if maxJmpPos < maximum {
			break
		}
	}

	v.LifetimeEnd = maximum
}

func validate(fn *Function) error {
	n := len(fn.Opcodes)
	nv := len(fn.Variables)
	for i := range fn.Opcodes {
		op := &fn.Opcodes[i]
		if opcodeIsJump(op) {
			label := op.Target.RefID
			if label < 0 || label >= n {
				return errors.Wrap(ErrMalformedFunction, "opcode %d: jump target %d out of range [0,%d)", i, label, n)
			}
		}
		for _, o := range [...]*Operand{&op.Target, &op.Primary1, &op.Primary2} {
			if o.IsVariable() && (o.RefID < 0 || o.RefID >= nv) {
				return errors.Wrap(ErrMalformedFunction, "opcode %d: variable reference %d out of range [0,%d)", i, o.RefID, nv)
			}
			if o.Kind == Argument && (o.RefID < 0 || o.RefID >= len(fn.Arguments)) {
				return errors.Wrap(ErrMalformedFunction, "opcode %d: argument reference %d out of range [0,%d)", i, o.RefID, len(fn.Arguments))
			}
		}
	}
	return nil
}
