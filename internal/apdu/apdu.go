// Package apdu builds ISO-7816 extended-length APDUs for the U2F raw
// message protocol. It is a thin byte-packing helper: callers choose the
// instruction and parameter bytes, the builder only handles layout and
// capacity bookkeeping. Ported from libfido2's iso7816 builder (u2f.c).
package apdu

import (
	"encoding/binary"
	"fmt"
)

// Builder accumulates an APDU payload up to a fixed, declared capacity.
// It is not safe for concurrent use.
type Builder struct {
	ins, p1  byte
	capacity int
	payload  []byte
}

// New starts an APDU with instruction ins, parameter p1, and a payload
// capacity declared up front. Exceeding capacity in Write is an error.
func New(ins, p1 byte, capacity int) *Builder {
	return &Builder{
		ins:      ins,
		p1:       p1,
		capacity: capacity,
		payload:  make([]byte, 0, capacity),
	}
}

// Write appends p to the APDU payload. It fails if doing so would
// exceed the capacity declared in New.
func (b *Builder) Write(p []byte) error {
	if len(b.payload)+len(p) > b.capacity {
		return fmt.Errorf("apdu: payload overflow: %d+%d > capacity %d",
			len(b.payload), len(p), b.capacity)
	}
	b.payload = append(b.payload, p...)
	return nil
}

// Bytes serializes the APDU in ISO-7816 extended-length form:
// CLA INS P1 P2 | 00 LenHi LenLo | payload | Le(00 00).
// CLA and P2 are always zero for the U2F raw message profile; Le is
// the wildcard (max response length), also zero.
func (b *Builder) Bytes() []byte {
	out := make([]byte, 0, 7+len(b.payload))
	out = append(out, 0x00, b.ins, b.p1, 0x00) // CLA INS P1 P2
	out = append(out, 0x00)                    // extended-length marker
	lenBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBuf, uint16(len(b.payload)))
	out = append(out, lenBuf...)
	out = append(out, b.payload...)
	out = append(out, 0x00, 0x00) // Le wildcard
	return out
}

// Len reports the current payload length, excluding the APDU header
// and trailer.
func (b *Builder) Len() int {
	return len(b.payload)
}
