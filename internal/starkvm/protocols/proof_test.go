package protocols

import (
	"testing"

	"github.com/vybium/starkvm/internal/starkvm/core"
)

func TestProofMarshalUnmarshalRoundTrip(t *testing.T) {
	domain, err := core.NewDomain(64)
	if err != nil {
		t.Fatalf("NewDomain: %v", err)
	}
	codeword := lowDegreeCodeword(t, domain, 1, 2, 3, 4)
	friProof, _, nonce, err := Prove(codeword, domain, 8, 4, NewChannel())
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	var constraintRoot []byte
	if len(friProof.Roots) > 0 {
		constraintRoot = friProof.Roots[0]
	}

	proof := &Proof{
		TraceRoot:      []byte{1, 2, 3, 4},
		ConstraintRoot: constraintRoot,
		OodZ:           core.F128.NewElementFromInt64(42),
		OodCur:         []*core.FieldElement{core.F128.NewElementFromInt64(1), core.F128.NewElementFromInt64(2)},
		OodNext:        []*core.FieldElement{core.F128.NewElementFromInt64(3), core.F128.NewElementFromInt64(4)},
		TraceOpenings:  nil,
		FRI:            friProof,
		GrindingNonce:  nonce,
	}

	data, err := proof.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	got := &Proof{}
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}

	if string(got.TraceRoot) != string(proof.TraceRoot) {
		t.Errorf("TraceRoot = %v, want %v", got.TraceRoot, proof.TraceRoot)
	}
	if string(got.ConstraintRoot) != string(proof.ConstraintRoot) {
		t.Errorf("ConstraintRoot = %v, want %v", got.ConstraintRoot, proof.ConstraintRoot)
	}
	if !got.OodZ.Equal(proof.OodZ) {
		t.Errorf("OodZ = %v, want %v", got.OodZ, proof.OodZ)
	}
	for i := range proof.OodCur {
		if !got.OodCur[i].Equal(proof.OodCur[i]) {
			t.Errorf("OodCur[%d] = %v, want %v", i, got.OodCur[i], proof.OodCur[i])
		}
	}
	if got.GrindingNonce != proof.GrindingNonce {
		t.Errorf("GrindingNonce = %d, want %d", got.GrindingNonce, proof.GrindingNonce)
	}
	if _, err := VerifyFRI(got.FRI, domain, 8, 4, nonce, NewChannel()); err != nil {
		t.Errorf("round-tripped FRI proof failed verification: %v", err)
	}
}

func TestUnmarshalBinaryRejectsWrongVersion(t *testing.T) {
	buf := appendUint32(nil, ProofSchemaVersion+1)
	p := &Proof{}
	if err := p.UnmarshalBinary(buf); err == nil {
		t.Error("UnmarshalBinary should reject an unrecognized schema version")
	}
}

func TestUnmarshalBinaryRejectsTruncatedData(t *testing.T) {
	p := &Proof{}
	if err := p.UnmarshalBinary([]byte{1, 2}); err == nil {
		t.Error("UnmarshalBinary should reject truncated data")
	}
}
