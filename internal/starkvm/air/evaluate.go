package air

import (
	"github.com/vybium/starkvm/internal/starkvm/core"
	"github.com/vybium/starkvm/internal/starkvm/vm"
)

// TransitionWidth bounds the residual count any single OpConstraint in
// AllTransitionConstraints can return (the widest is NOT/CHOOSE's full
// stack-shift residual plus one binary check); AggregateTransition pads
// every opcode's contribution to this width so the aggregate is a
// fixed-size vector regardless of which opcode a row actually decodes.
const TransitionWidth = vm.AuxWidth + vm.MaxUserStackDepth

// AllTransitionConstraints is every per-opcode transition constraint this
// instruction set defines: the stack-arithmetic family plus the
// BEGIN/TEND/FEND block-boundary family (spec.md §4.3/§4.4 — the AIR's
// full transition relation, not just the stack-op subset).
func AllTransitionConstraints() []OpConstraint {
	return append(StackOpConstraints(), FlowConstraints()...)
}

// RowFromColumns reconstructs the algebraic Row view from one row's worth
// of flattened trace columns, in exactly the column order vm.Trace.Columns
// produces (spec.md §3's column layout: sponge, op-bits, context
// hash+depth, loop hash+depth, aux, user stack). Used by the prover and
// verifier alike so that both evaluate constraints against identically
// laid out rows whether the source is a freshly built Trace or a set of
// opened Merkle leaves.
func RowFromColumns(values []*core.FieldElement) *Row {
	r := &Row{}
	i := 0
	for j := 0; j < core.SpongeWidth; j++ {
		r.Sponge[j] = values[i]
		i++
	}
	for j := 0; j < vm.NumOpBits; j++ {
		r.OpBits[j] = values[i]
		i++
	}
	for j := 0; j < core.SpongeWidth; j++ {
		r.CtxHash[j] = values[i]
		i++
	}
	r.CtxDepth = values[i]
	i++
	for j := 0; j < core.SpongeWidth; j++ {
		r.LoopHash[j] = values[i]
		i++
	}
	r.LoopDepth = values[i]
	i++
	for j := 0; j < vm.AuxWidth; j++ {
		r.Aux[j] = values[i]
		i++
	}
	for j := 0; j < vm.MaxUserStackDepth; j++ {
		r.User[j] = values[i]
		i++
	}
	return r
}
