package protocols

import (
	"fmt"

	"github.com/vybium/starkvm/internal/starkvm/air"
	"github.com/vybium/starkvm/internal/starkvm/core"
	"github.com/vybium/starkvm/internal/starkvm/vm"
)

// Options controls the STARK's security/performance tradeoffs (spec.md
// §5/§6).
type Options struct {
	ExtensionFactor int
	NumQueries      int
	GrindingFactor  int
}

// DefaultOptions mirrors the teacher's DefaultConfig-style constructor:
// reasonable defaults a caller rarely needs to override.
func DefaultOptions() Options {
	return Options{ExtensionFactor: DefaultExtensionFactor, NumQueries: 48, GrindingFactor: 16}
}

// commitTraceColumns builds a Merkle tree whose leaf at LDE index i is the
// hash of every column's value at i, so a single root binds the whole
// extended trace.
func commitTraceColumns(ldeColumns [][]*core.FieldElement) (*core.MerkleTree, error) {
	size := len(ldeColumns[0])
	leaves := make([][]byte, size)
	for i := 0; i < size; i++ {
		leaves[i] = traceLeaf(ldeColumns, i)
	}
	return core.NewMerkleTree(leaves)
}

// traceLeaf concatenates every column's value at LDE index i in column
// order, the exact byte layout both the Merkle commitment and every
// TraceOpening verification must agree on.
func traceLeaf(ldeColumns [][]*core.FieldElement, i int) []byte {
	return rowLeafBytes(columnValuesAt(ldeColumns, i))
}

// rowLeafBytes concatenates one row's worth of column values in order;
// shared by the prover's Merkle-leaf construction and the verifier's
// reconstruction of the same leaf from an opened TraceOpening.
func rowLeafBytes(values []*core.FieldElement) []byte {
	var row []byte
	for _, v := range values {
		row = append(row, v.Bytes()...)
	}
	return row
}

func columnValuesAt(ldeColumns [][]*core.FieldElement, i int) []*core.FieldElement {
	values := make([]*core.FieldElement, len(ldeColumns))
	for c, col := range ldeColumns {
		values[c] = col[i]
	}
	return values
}

// Execute runs program to completion and produces a proof of the
// resulting execution, the Go-level shape of spec.md §6's execute().
func Execute(program *vm.Program, inputs *vm.Inputs, numOutputs int, opts Options) ([]*core.FieldElement, core.Digest, *Proof, error) {
	trace, err := vm.Build(program, inputs)
	if err != nil {
		return nil, core.Digest{}, nil, fmt.Errorf("executing program: %w", err)
	}

	final := trace.Final()
	outputs := make([]*core.FieldElement, numOutputs)
	for i := 0; i < numOutputs; i++ {
		outputs[i] = final.Stack.Get(i)
	}
	digest := program.Digest()

	domains, err := NewProverDomains(trace.Len(), opts.ExtensionFactor)
	if err != nil {
		return nil, core.Digest{}, nil, fmt.Errorf("building domains: %w", err)
	}

	columns := trace.Columns()
	ldeColumns := make([][]*core.FieldElement, len(columns))
	for i, col := range columns {
		lde, err := domains.LowDegreeExtendColumn(col)
		if err != nil {
			return nil, core.Digest{}, nil, fmt.Errorf("extending column %d: %w", i, err)
		}
		ldeColumns[i] = lde
	}
	traceTree, err := commitTraceColumns(ldeColumns)
	if err != nil {
		return nil, core.Digest{}, nil, fmt.Errorf("committing extended trace: %w", err)
	}
	traceRoot := traceTree.Root()

	channel := NewChannel()
	channel.Send(digest.Bytes())
	for _, v := range inputs.Public {
		channel.Send(v.Bytes())
	}
	for _, v := range outputs {
		channel.Send(v.Bytes())
	}
	channel.Send(traceRoot)

	z := channel.ReceiveRandomFieldElement()

	polys, err := TraceColumnPolynomials(domains, columns)
	if err != nil {
		return nil, core.Digest{}, nil, fmt.Errorf("interpolating trace columns: %w", err)
	}
	ood := EvaluateOutOfDomain(domains, polys, z)
	for _, v := range ood.Cur {
		channel.Send(v.Bytes())
	}
	for _, v := range ood.Next {
		channel.Send(v.Bytes())
	}

	cc := make([]*core.FieldElement, 2*len(polys))
	for i := range cc {
		cc[i] = channel.ReceiveRandomFieldElement()
	}
	boundaryCoeffs := make([]*core.FieldElement, len(inputs.Public)+len(outputs))
	for i := range boundaryCoeffs {
		boundaryCoeffs[i] = channel.ReceiveRandomFieldElement()
	}
	transCoeffs := make([]*core.FieldElement, air.TransitionWidth)
	for i := range transCoeffs {
		transCoeffs[i] = channel.ReceiveRandomFieldElement()
	}

	params := NewCompositionParams(domains, ood, inputs.Public, outputs, cc, boundaryCoeffs, transCoeffs)
	deepCodeword, err := ComposeDeepPolynomial(domains, ldeColumns, params)
	if err != nil {
		return nil, core.Digest{}, nil, fmt.Errorf("composing deep codeword: %w", err)
	}

	friProof, positions, nonce, err := Prove(deepCodeword, domains.LDE, opts.NumQueries, opts.GrindingFactor, channel)
	if err != nil {
		return nil, core.Digest{}, nil, fmt.Errorf("running FRI: %w", err)
	}

	ldeSize := domains.LDE.Size
	traceOpenings := make([]TraceOpening, len(positions))
	for i, pos := range positions {
		nextIdx := (pos + opts.ExtensionFactor) % ldeSize
		curPath, err := traceTree.Open(pos)
		if err != nil {
			return nil, core.Digest{}, nil, fmt.Errorf("opening trace at %d: %w", pos, err)
		}
		nextPath, err := traceTree.Open(nextIdx)
		if err != nil {
			return nil, core.Digest{}, nil, fmt.Errorf("opening trace at %d: %w", nextIdx, err)
		}
		traceOpenings[i] = TraceOpening{
			Index:      pos,
			NextIndex:  nextIdx,
			CurValues:  columnValuesAt(ldeColumns, pos),
			CurPath:    curPath,
			NextValues: columnValuesAt(ldeColumns, nextIdx),
			NextPath:   nextPath,
		}
	}

	var constraintRoot []byte
	if len(friProof.Roots) > 0 {
		constraintRoot = friProof.Roots[0]
	}

	proof := &Proof{
		TraceRoot:      traceRoot,
		ConstraintRoot: constraintRoot,
		OodZ:           z,
		OodCur:         ood.Cur,
		OodNext:        ood.Next,
		TraceOpenings:  traceOpenings,
		FRI:            friProof,
		GrindingNonce:  nonce,
	}
	return outputs, digest, proof, nil
}
