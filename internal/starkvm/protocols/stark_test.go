package protocols

import (
	"testing"

	"github.com/vybium/starkvm/internal/starkvm/core"
	"github.com/vybium/starkvm/internal/starkvm/vm"
)

func swapDup2DropAddProgram(t *testing.T) *vm.Program {
	t.Helper()
	var elements []*core.FieldElement
	for i := 0; i < 3; i++ {
		elements = append(elements,
			core.F128.NewElementFromUint64(uint64(vm.Swap)),
			core.F128.NewElementFromUint64(uint64(vm.Dup2)),
			core.F128.NewElementFromUint64(uint64(vm.Drop)),
			core.F128.NewElementFromUint64(uint64(vm.Add)),
		)
	}
	for i := 0; i < 4; i++ {
		elements = append(elements, core.F128.NewElementFromUint64(uint64(vm.Noop)))
	}
	program, err := vm.NewProgram(elements)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	return program
}

// TestExecuteVerify is spec.md §8's S1 (execute_verify): a proof of the
// SWAP/DUP2/DROP/ADD program over public inputs [1, 0] should verify
// against its own digest, inputs and claimed output.
func TestExecuteVerify(t *testing.T) {
	program := swapDup2DropAddProgram(t)
	inputs := vm.NewInputs([]*core.FieldElement{core.F128.NewElementFromInt64(1), core.F128.NewElementFromInt64(0)}, nil, nil)
	opts := DefaultOptions()

	outputs, digest, proof, err := Execute(program, inputs, 1, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !outputs[0].Equal(core.F128.NewElementFromInt64(3)) {
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

// TestExecuteVerifyFailsOnTamperedOutputs is spec.md §8's S2
// (execute_verify_fail): verification against a wrong claimed output
// must fail, because the recomputed out-of-domain challenge no longer
// matches the one baked into the proof.
func TestExecuteVerifyFailsOnTamperedOutputs(t *testing.T) {
	program := swapDup2DropAddProgram(t)
	publicInputs := []*core.FieldElement{core.F128.NewElementFromInt64(1), core.F128.NewElementFromInt64(0)}
	inputs := vm.NewInputs(publicInputs, nil, nil)
	opts := DefaultOptions()

	_, digest, proof, err := Execute(program, inputs, 1, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wrongOutputs := []*core.FieldElement{core.F128.NewElementFromInt64(4)}
	ok, err := Verify(digest, publicInputs, wrongOutputs, proof, program.Len(), opts)
	if ok {
		t.Fatal("Verify should reject a proof checked against the wrong claimed output")
	}
	if err == nil {
		t.Error("Verify should return an error explaining the rejection")
	}
}

// TestExecuteVerifyFailsOnTamperedPublicInputs covers the other half of
// S2: changing the public inputs after the fact must also be caught.
func TestExecuteVerifyFailsOnTamperedPublicInputs(t *testing.T) {
	program := swapDup2DropAddProgram(t)
	inputs := vm.NewInputs([]*core.FieldElement{core.F128.NewElementFromInt64(1), core.F128.NewElementFromInt64(0)}, nil, nil)
	opts := DefaultOptions()

	outputs, digest, proof, err := Execute(program, inputs, 1, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wrongPublicInputs := []*core.FieldElement{core.F128.NewElementFromInt64(2), core.F128.NewElementFromInt64(0)}
	ok, err := Verify(digest, wrongPublicInputs, outputs, proof, program.Len(), opts)
	if ok {
		t.Fatal("Verify should reject a proof checked against tampered public inputs")
	}
	if err == nil {
		t.Error("Verify should return an error explaining the rejection")
	}
}

// TestExecuteVerifyFailsOnTamperedDigest covers the program-hash leg of
// S2: binding the wrong program digest must also be caught.
func TestExecuteVerifyFailsOnTamperedDigest(t *testing.T) {
	program := swapDup2DropAddProgram(t)
	inputs := vm.NewInputs([]*core.FieldElement{core.F128.NewElementFromInt64(1), core.F128.NewElementFromInt64(0)}, nil, nil)
	opts := DefaultOptions()

	outputs, _, proof, err := Execute(program, inputs, 1, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wrongDigest := core.HashElements([]*core.FieldElement{core.F128.NewElementFromInt64(0)})
	ok, err := Verify(wrongDigest, inputs.Public, outputs, proof, program.Len(), opts)
	if ok {
		t.Fatal("Verify should reject a proof checked against the wrong program digest")
	}
	if err == nil {
		t.Error("Verify should return an error explaining the rejection")
	}
}
