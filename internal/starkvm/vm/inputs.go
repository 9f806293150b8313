package vm

import "github.com/vybium/starkvm/internal/starkvm/core"

// Inputs bundles a program's public inputs (which seed the initial
// user stack, in order, top of stack first) with the two secret input
// tapes consumed by READ, READ2 and CMP.
//
// Secret inputs are supplied in the order a human would write them down,
// but are consumed LIFO by the VM (spec.md §3): the queue is reversed
// once up front so that popping from the back of the slice gives the
// correct consumption order without repeated slice-shifting.
type Inputs struct {
	Public   []*core.FieldElement
	secretA  []*core.FieldElement
	secretB  []*core.FieldElement
	posA     int
	posB     int
}

// NewInputs builds an Inputs, pre-reversing the secret tapes into pop
// order.
func NewInputs(public, secretA, secretB []*core.FieldElement) *Inputs {
	in := &Inputs{Public: public}
	in.secretA = reversed(secretA)
	in.secretB = reversed(secretB)
	return in
}

func reversed(in []*core.FieldElement) []*core.FieldElement {
	out := make([]*core.FieldElement, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// popA consumes the next secret_a value in the VM's LIFO order.
func (in *Inputs) popA() (*core.FieldElement, error) {
	if in.posA >= len(in.secretA) {
		return nil, ErrMissingSecretInput
	}
	v := in.secretA[len(in.secretA)-1-in.posA]
	in.posA++
	return v, nil
}

// popB consumes the next secret_b value in the VM's LIFO order.
func (in *Inputs) popB() (*core.FieldElement, error) {
	if in.posB >= len(in.secretB) {
		return nil, ErrMissingSecretInput
	}
	v := in.secretB[len(in.secretB)-1-in.posB]
	in.posB++
	return v, nil
}

// Exhausted reports whether both secret tapes were fully consumed, the
// final-assertion check execution must make before declaring success.
func (in *Inputs) Exhausted() bool {
	return in.posA == len(in.secretA) && in.posB == len(in.secretB)
}
