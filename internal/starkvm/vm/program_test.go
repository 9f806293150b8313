package vm

import (
	"errors"
	"testing"

	"github.com/vybium/starkvm/internal/starkvm/core"
)

func opElem(op Opcode) *core.FieldElement {
	return core.F128.NewElementFromUint64(uint64(op))
}

func intElem(v int64) *core.FieldElement {
	return core.F128.NewElementFromInt64(v)
}

// paddedProgram builds a valid MinProgramLength-or-longer program from ops,
// padding with trailing NOOPs up to the next power of two at least
// MinProgramLength.
func paddedProgram(t *testing.T, ops ...*core.FieldElement) []*core.FieldElement {
	t.Helper()
	n := MinProgramLength
	for n < len(ops) {
		n *= 2
	}
	out := make([]*core.FieldElement, n)
	copy(out, ops)
	for i := len(ops); i < n; i++ {
		out[i] = opElem(Noop)
	}
	return out
}

func TestNewProgramRejectsNonPowerOfTwoLength(t *testing.T) {
	elements := make([]*core.FieldElement, 17)
	for i := range elements {
		elements[i] = opElem(Noop)
	}
	if _, err := NewProgram(elements); !errors.Is(err, ErrProgramMalformed) {
		t.Errorf("expected ErrProgramMalformed, got %v", err)
	}
}

func TestNewProgramRejectsTooShort(t *testing.T) {
	elements := make([]*core.FieldElement, 8)
	for i := range elements {
		elements[i] = opElem(Noop)
	}
	if _, err := NewProgram(elements); !errors.Is(err, ErrProgramMalformed) {
		t.Errorf("expected ErrProgramMalformed for a too-short program, got %v", err)
	}
}

func TestNewProgramRequiresTrailingNoop(t *testing.T) {
	elements := make([]*core.FieldElement, MinProgramLength)
	for i := range elements {
		elements[i] = opElem(Noop)
	}
	elements[len(elements)-1] = opElem(Add)
	if _, err := NewProgram(elements); !errors.Is(err, ErrProgramMalformed) {
		t.Errorf("expected ErrProgramMalformed for a program not ending in NOOP, got %v", err)
	}
}

func TestNewProgramRejectsInvalidOpcodeByte(t *testing.T) {
	elements := make([]*core.FieldElement, MinProgramLength)
	for i := range elements {
		elements[i] = opElem(Noop)
	}
	elements[0] = core.F128.NewElementFromUint64(200) // not a valid opcode byte
	if _, err := NewProgram(elements); !errors.Is(err, ErrProgramMalformed) {
		t.Errorf("expected ErrProgramMalformed for an unassigned opcode byte, got %v", err)
	}
}

func TestNewProgramRejectsDanglingPush(t *testing.T) {
	elements := make([]*core.FieldElement, MinProgramLength)
	for i := range elements {
		elements[i] = opElem(Noop)
	}
	elements[len(elements)-2] = opElem(Push) // immediate would have to be the trailing NOOP slot
	if _, err := NewProgram(elements); !errors.Is(err, ErrProgramMalformed) {
		t.Errorf("expected ErrProgramMalformed for PUSH with no immediate slot, got %v", err)
	}
}

func TestProgramDigestDeterministicAndOrderSensitive(t *testing.T) {
	p1, err := NewProgram(paddedProgram(t, opElem(Add), opElem(Mul)))
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	p2, err := NewProgram(paddedProgram(t, opElem(Mul), opElem(Add)))
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	if !p1.Digest().Equal(p1.Digest()) {
		t.Error("Digest is not deterministic")
	}
	if p1.Digest().Equal(p2.Digest()) {
		t.Error("Digest should differ when instruction order differs")
	}
}
