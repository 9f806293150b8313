package protocols

import (
	"bytes"
	"fmt"

	"github.com/vybium/starkvm/internal/starkvm/air"
	"github.com/vybium/starkvm/internal/starkvm/core"
)

// Verify checks proof against the claimed program digest, public inputs
// and outputs, replaying the same Fiat-Shamir transcript the prover built
// (spec.md §6's verify()). Any mismatch in digest/inputs/outputs changes
// the recomputed out-of-domain challenge, which is caught by comparing it
// to the value baked into the proof. Beyond that first check, Verify
// authenticates every opened trace leaf against TraceRoot, recomputes the
// DEEP-composed value at each FRI query position from those leaves using
// the same boundary/transition constraint relation the air package
// defines, and checks it against FRI's own opened layer-0 value — so a
// prover that sends inconsistent out-of-domain evaluations, an
// unopened/tampered trace commitment, or a trace that simply fails a
// boundary or transition constraint is rejected, not just one whose
// low-degree codeword fails to fold.
func Verify(digest core.Digest, publicInputs, claimedOutputs []*core.FieldElement, proof *Proof, traceLength int, opts Options) (bool, error) {
	channel := NewChannel()
	channel.Send(digest.Bytes())
	for _, v := range publicInputs {
		channel.Send(v.Bytes())
	}
	for _, v := range claimedOutputs {
		channel.Send(v.Bytes())
	}
	channel.Send(proof.TraceRoot)

	z := channel.ReceiveRandomFieldElement()
	if !z.Equal(proof.OodZ) {
		return false, fmt.Errorf("verification of low-degree proof failed: evaluations did not match column value at depth 0")
	}

	for _, v := range proof.OodCur {
		channel.Send(v.Bytes())
	}
	for _, v := range proof.OodNext {
		channel.Send(v.Bytes())
	}

	numPolys := len(proof.OodCur)
	cc := make([]*core.FieldElement, 2*numPolys)
	for i := range cc {
		cc[i] = channel.ReceiveRandomFieldElement()
	}
	boundaryCoeffs := make([]*core.FieldElement, len(publicInputs)+len(claimedOutputs))
	for i := range boundaryCoeffs {
		boundaryCoeffs[i] = channel.ReceiveRandomFieldElement()
	}
	transCoeffs := make([]*core.FieldElement, air.TransitionWidth)
	for i := range transCoeffs {
		transCoeffs[i] = channel.ReceiveRandomFieldElement()
	}

	domains, err := NewProverDomains(traceLength, opts.ExtensionFactor)
	if err != nil {
		return false, fmt.Errorf("rebuilding domains: %w", err)
	}

	if len(proof.FRI.Roots) > 0 && !bytes.Equal(proof.ConstraintRoot, proof.FRI.Roots[0]) {
		return false, fmt.Errorf("verification of low-degree proof failed: constraint root does not match FRI's first layer")
	}

	positions, err := VerifyFRI(proof.FRI, domains.LDE, opts.NumQueries, opts.GrindingFactor, proof.GrindingNonce, channel)
	if err != nil {
		return false, err
	}

	if len(proof.TraceOpenings) != len(positions) {
		return false, fmt.Errorf("verification of low-degree proof failed: expected %d trace openings, got %d", len(positions), len(proof.TraceOpenings))
	}
	if len(proof.FRI.Roots) == 0 {
		return true, nil
	}

	params := NewCompositionParams(domains, &OutOfDomainEvaluations{Z: z, Cur: proof.OodCur, Next: proof.OodNext}, publicInputs, claimedOutputs, cc, boundaryCoeffs, transCoeffs)

	ldeSize := domains.LDE.Size
	half := ldeSize / foldingFactor
	for i, pos := range positions {
		opening := proof.TraceOpenings[i]
		if opening.Index != pos {
			return false, fmt.Errorf("verification of low-degree proof failed: trace opening %d is for position %d, expected %d", i, opening.Index, pos)
		}
		expectedNext := (pos + opts.ExtensionFactor) % ldeSize
		if opening.NextIndex != expectedNext {
			return false, fmt.Errorf("verification of low-degree proof failed: trace opening %d has next-row index %d, expected %d", i, opening.NextIndex, expectedNext)
		}
		if !core.VerifyPath(proof.TraceRoot, rowLeafBytes(opening.CurValues), opening.CurPath, opening.Index) {
			return false, fmt.Errorf("verification of low-degree proof failed: trace opening %d did not authenticate against the trace root", i)
		}
		if !core.VerifyPath(proof.TraceRoot, rowLeafBytes(opening.NextValues), opening.NextPath, opening.NextIndex) {
			return false, fmt.Errorf("verification of low-degree proof failed: next-row trace opening %d did not authenticate against the trace root", i)
		}

		x := domains.LDE.Offset.Mul(domains.LDE.Generator.ExpInt(uint64(pos)))
		composite, err := EvaluateComposition(x, opening.CurValues, opening.NextValues, params)
		if err != nil {
			return false, fmt.Errorf("recomputing composed value at query %d: %w", i, err)
		}

		layer0 := proof.FRI.QueryOpenings[0][i]
		base := pos % half
		k := pos / half
		if layer0.FoldedIndex != base || k >= foldingFactor {
			return false, fmt.Errorf("verification of low-degree proof failed: inconsistent layer-0 coset indexing at query %d", i)
		}
		if !composite.Equal(layer0.Values[k]) {
			return false, fmt.Errorf("verification of low-degree proof failed: recomputed composed value did not match the committed codeword at query %d", i)
		}
	}

	return true, nil
}
