package x64

import (
	"math"
	"unsafe"

	"tlog.app/go/errors"
)

// LabelID identifies a label created by Encoder.AddLabel. Ids are dense and
// monotonically increasing from zero.
type LabelID int

type label struct {
	offset int
}

type reloc struct {
	patchOffset int
	labelID     LabelID
	relative    bool
}

// Encoder is an in-memory x86-64 assembler. It appends bytes for one
// instruction at a time, tracks labels and relocations against those
// labels, and can later patch the relocations either into its own buffer
// or into a caller-supplied destination (LinkTo).
//
// An Encoder is owned by exactly one goroutine; there is no internal
// synchronization.
type Encoder struct {
	buf    *buffer
	labels []label
	relocs []reloc
}

// NewEncoder creates an empty Encoder ready to accept emit calls.
func NewEncoder() *Encoder {
	return &Encoder{buf: newBuffer(256)}
}

// Bytes returns the encoder's current byte buffer. The returned slice is
// only valid until the next Emit* call.
func (e *Encoder) Bytes() []byte { return e.buf.Get() }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return e.buf.Len() }

// AddLabel reserves a fresh label id at the current write position and
// returns it.
func (e *Encoder) AddLabel() LabelID {
	id := LabelID(len(e.labels))
	e.labels = append(e.labels, label{offset: e.buf.Len()})
	return id
}

// MoveLabel overwrites the label's offset with the current write position.
// It panics if id was never returned by AddLabel: an unknown label id at
// this call site is a programming error in the caller, not a runtime
// condition to recover from.
func (e *Encoder) MoveLabel(id LabelID) {
	e.labels[int(id)].offset = e.buf.Len()
}

func (e *Encoder) addReloc(labelID LabelID, patchOffset int, relative bool) {
	e.relocs = append(e.relocs, reloc{patchOffset: patchOffset, labelID: labelID, relative: relative})
}

// ApplyRelocations patches every recorded relocation directly into the
// encoder's own buffer, resolving absolute relocations against base.
// Relative relocations are unaffected by base.
func (e *Encoder) ApplyRelocations(base uint64) error {
	return e.applyRelocationsTo(e.buf.b, base)
}

func (e *Encoder) applyRelocationsTo(dst []byte, base uint64) error {
	// Check every label reference before patching anything, so an unknown
	// label leaves dst without partially applied relocations.
	for _, r := range e.relocs {
		if int(r.labelID) < 0 || int(r.labelID) >= len(e.labels) {
			return errors.Wrap(ErrUnknownLabel, "relocation at offset %d references label %d", r.patchOffset, r.labelID)
		}
	}

	for _, r := range e.relocs {
		target := e.labels[r.labelID].offset

		if r.relative {
			disp := int64(target) - int64(r.patchOffset+4)
			if disp > math.MaxInt32 || disp < math.MinInt32 {
				return errors.Wrap(ErrDisplacementOverflow, "relocation at offset %d to label %d: displacement %d", r.patchOffset, r.labelID, disp)
			}
			patchInt32(dst, r.patchOffset, int32(disp))
			continue
		}

		patchUint64(dst, r.patchOffset, base+uint64(target))
	}
	return nil
}

// LinkTo copies the encoder's byte buffer into dest and resolves every
// relocation against dest's own bytes, using dest's address as the base
// for absolute relocations. The encoder's internal buffer, label table, and
// relocation table are left untouched, so LinkTo may be called any number
// of times against different destinations with identical results (each
// call is independent of the others).
//
// dest must be at least Len() bytes long, and must already be mapped
// read/write (and, before the linked code is executed, executable).
func (e *Encoder) LinkTo(dest []byte) error {
	n := copy(dest, e.buf.Get())
	base := uint64(uintptr(unsafe.Pointer(unsafe.SliceData(dest))))
	return e.applyRelocationsTo(dest[:n], base)
}
