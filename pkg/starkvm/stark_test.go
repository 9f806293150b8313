package starkvm

import (
	"errors"
	"testing"

	"github.com/vybium/starkvm/internal/starkvm/core"
	"github.com/vybium/starkvm/internal/starkvm/vm"
)

func opElem(op vm.Opcode) *FieldElement {
	return core.F128.NewElementFromUint64(uint64(op))
}

func intElem(v int64) *FieldElement {
	return core.F128.NewElementFromInt64(v)
}

func swapDup2DropAddProgram(t *testing.T) *Program {
	t.Helper()
	var elements []*FieldElement
	for i := 0; i < 3; i++ {
		elements = append(elements, opElem(vm.Swap), opElem(vm.Dup2), opElem(vm.Drop), opElem(vm.Add))
	}
	for i := 0; i < 4; i++ {
		elements = append(elements, opElem(vm.Noop))
	}
	program, err := NewProgram(elements)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	return program
}

func TestExecuteAndVerifyRoundTrip(t *testing.T) {
	program := swapDup2DropAddProgram(t)
	inputs := NewInputs([]*FieldElement{intElem(1), intElem(0)}, nil, nil)
	opts := DefaultOptions()

	outputs, digest, proof, err := Execute(program, inputs, 1, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !outputs[0].Equal(intElem(3)) {
		t.Fatalf("output = %v, want 3", outputs[0])
	}

	ok, err := Verify(digest, inputs.Public, outputs, proof, program.Len(), opts)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("Verify should accept a proof of its own honestly-generated execution")
	}
}

func TestVerifyRejectsTamperedOutputs(t *testing.T) {
	program := swapDup2DropAddProgram(t)
	publicInputs := []*FieldElement{intElem(1), intElem(0)}
	inputs := NewInputs(publicInputs, nil, nil)
	opts := DefaultOptions()

	_, digest, proof, err := Execute(program, inputs, 1, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	ok, err := Verify(digest, publicInputs, []*FieldElement{intElem(4)}, proof, program.Len(), opts)
	if ok {
		t.Fatal("Verify should reject a proof checked against the wrong claimed output")
	}
	if err == nil {
		t.Fatal("Verify should return a non-nil error on rejection")
	}
	var vmErr *VMError
	if !errors.As(err, &vmErr) {
		t.Fatalf("error = %v, want a *VMError", err)
	}
	if vmErr.Code != ErrProofVerification {
		t.Errorf("Code = %v, want ErrProofVerification", vmErr.Code)
	}
}

func TestNewProgramRejectsMalformedElements(t *testing.T) {
	elements := []*FieldElement{intElem(250)}
	for len(elements) < vm.MinProgramLength {
		elements = append(elements, opElem(vm.Noop))
	}
	_, err := NewProgram(elements)
	if err == nil {
		t.Fatal("NewProgram should reject an unknown opcode byte")
	}
	var vmErr *VMError
	if !errors.As(err, &vmErr) {
		t.Fatalf("error = %v, want a *VMError", err)
	}
	if vmErr.Code != ErrProgramMalformed {
		t.Errorf("Code = %v, want ErrProgramMalformed", vmErr.Code)
	}
}

func TestExecuteAndProveValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumOutputs = -1

	elements := make([]*FieldElement, vm.MinProgramLength)
	for i := range elements {
		elements[i] = opElem(vm.Noop)
	}
	program, err := NewProgram(elements)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	inputs := NewInputs(nil, nil, nil)

	_, _, _, err = ExecuteAndProve(program, inputs, cfg)
	if err == nil {
		t.Fatal("ExecuteAndProve should reject a config with a negative NumOutputs")
	}
	var vmErr *VMError
	if !errors.As(err, &vmErr) {
		t.Fatalf("error = %v, want a *VMError", err)
	}
	if vmErr.Code != ErrInvalidConfig {
		t.Errorf("Code = %v, want ErrInvalidConfig", vmErr.Code)
	}
}
