package vm

import (
	"fmt"

	"github.com/vybium/starkvm/internal/starkvm/core"
)

// MinProgramLength is the shortest program the trace builder accepts.
const MinProgramLength = 16

// Program is the ordered sequence of field elements the VM executes:
// opcodes interleaved with the rare PUSH immediate.
type Program struct {
	Elements []*core.FieldElement
}

// NewProgram validates shape and decodes every non-immediate slot,
// returning ErrProgramMalformed (wrapped with detail) on any violation.
// Per spec.md §3 a program's length must be a power of two of at least
// MinProgramLength and must end in NOOP, the sentinel cycle loop dispatch
// never itself executes (see Build).
func NewProgram(elements []*core.FieldElement) (*Program, error) {
	n := len(elements)
	if n < MinProgramLength || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: length %d is not a power of two of at least %d", ErrProgramMalformed, n, MinProgramLength)
	}

	last, ok := elementToOpcode(elements[n-1])
	if !ok || last != Noop {
		return nil, fmt.Errorf("%w: program must end with NOOP", ErrProgramMalformed)
	}

	skip := false
	for i := 0; i < n-1; i++ {
		if skip {
			skip = false
			continue
		}
		op, ok := elementToOpcode(elements[i])
		if !ok {
			return nil, fmt.Errorf("%w: slot %d does not decode to a valid opcode", ErrProgramMalformed, i)
		}
		if op.HasImmediate() {
			if i+1 >= n-1 {
				return nil, fmt.Errorf("%w: PUSH at slot %d has no immediate slot before the trailing NOOP", ErrProgramMalformed, i)
			}
			skip = true
		}
	}

	return &Program{Elements: elements}, nil
}

// Len returns the number of program slots, which is also the number of
// trace rows the program executes to.
func (p *Program) Len() int { return len(p.Elements) }

// Digest runs the program's elements (excluding the trailing NOOP
// sentinel, which the trace never dispatches) through the same
// one-round-per-cycle rolling sponge the trace's Sponge column runs, the
// value every proof is bound to (spec.md §3/§6: "program digest").
func (p *Program) Digest() core.Digest {
	return core.RollingHash(p.Elements[:len(p.Elements)-1])
}

func elementToOpcode(e *core.FieldElement) (Opcode, bool) {
	b := e.Bytes()
	// program elements representing opcodes always fit in the low byte;
	// anything with higher bytes set cannot be a valid opcode.
	for _, hi := range b[1:] {
		if hi != 0 {
			return 0, false
		}
	}
	return ParseOpcode(b[0])
}
