package air

import (
	"testing"

	"github.com/vybium/starkvm/internal/starkvm/core"
	"github.com/vybium/starkvm/internal/starkvm/vm"
)

func zeroRow() *Row {
	r := &Row{}
	for i := range r.Sponge {
		r.Sponge[i] = core.F128.Zero()
		r.CtxHash[i] = core.F128.Zero()
		r.LoopHash[i] = core.F128.Zero()
	}
	for i := range r.OpBits {
		r.OpBits[i] = core.F128.Zero()
	}
	for i := range r.Aux {
		r.Aux[i] = core.F128.Zero()
	}
	for i := range r.User {
		r.User[i] = core.F128.Zero()
	}
	r.CtxDepth = core.F128.Zero()
	r.LoopDepth = core.F128.Zero()
	return r
}

func setOpBits(r *Row, op vm.Opcode) {
	v := byte(op)
	for i := 0; i < vm.NumOpBits; i++ {
		if v&1 == 1 {
			r.OpBits[i] = core.F128.One()
		} else {
			r.OpBits[i] = core.F128.Zero()
		}
		v >>= 1
	}
}

func setCell(r *Row, i int, v int64) {
	if i < vm.AuxWidth {
		r.Aux[i] = core.F128.NewElementFromInt64(v)
		return
	}
	r.User[i-vm.AuxWidth] = core.F128.NewElementFromInt64(v)
}

func TestOpFlagSelectsOnlyMatchingOpcode(t *testing.T) {
	row := zeroRow()
	setOpBits(row, vm.Add)

	if got := opFlag(row, vm.Add); !got.IsOne() {
		t.Errorf("opFlag(ADD row, ADD) = %v, want 1", got)
	}
	if got := opFlag(row, vm.Mul); !got.IsZero() {
		t.Errorf("opFlag(ADD row, MUL) = %v, want 0", got)
	}
}

func TestAddConstraintSatisfiedOnCorrectTransition(t *testing.T) {
	cur := zeroRow()
	setOpBits(cur, vm.Add)
	setCell(cur, vm.AuxWidth, 3)
	setCell(cur, vm.AuxWidth+1, 4)

	next := zeroRow()
	setCell(next, vm.AuxWidth, 7)

	constraints := StackOpConstraints()
	var addConstraint OpConstraint
	for _, c := range constraints {
		if c.Op == vm.Add {
			addConstraint = c
		}
	}
	for i, r := range addConstraint.Residuals(cur, next) {
		if !r.IsZero() {
			t.Errorf("ADD residual %d = %v, want 0 for a correct transition", i, r)
		}
	}
}

func TestAddConstraintViolatedOnWrongSum(t *testing.T) {
	cur := zeroRow()
	setOpBits(cur, vm.Add)
	setCell(cur, vm.AuxWidth, 3)
	setCell(cur, vm.AuxWidth+1, 4)

	next := zeroRow()
	setCell(next, vm.AuxWidth, 8) // wrong: should be 7

	constraints := StackOpConstraints()
	var addConstraint OpConstraint
	for _, c := range constraints {
		if c.Op == vm.Add {
			addConstraint = c
		}
	}
	residuals := addConstraint.Residuals(cur, next)
	allZero := true
	for _, r := range residuals {
		if !r.IsZero() {
			allZero = false
		}
	}
	if allZero {
		t.Error("ADD residuals should be nonzero for an incorrect transition")
	}
}

func TestAggregateTransitionIgnoresNonMatchingOpcodes(t *testing.T) {
	cur := zeroRow()
	setOpBits(cur, vm.Mul) // MUL, not ADD
	setCell(cur, vm.AuxWidth, 3)
	setCell(cur, vm.AuxWidth+1, 4)

	next := zeroRow()
	setCell(next, vm.AuxWidth, 12) // correct for MUL (3*4) but would violate ADD's contract (3+4=7); ADD's flag is 0 here

	acc := AggregateTransition(cur, next, 4, StackOpConstraints())
	for i, v := range acc {
		if !v.IsZero() {
			t.Errorf("aggregate residual %d = %v, want 0 (ADD's flag should be zero on a MUL row)", i, v)
		}
	}
}

func TestFlowConstraintsBegin(t *testing.T) {
	cur := zeroRow()
	setOpBits(cur, vm.Begin)
	cur.Sponge = [core.SpongeWidth]*core.FieldElement{
		core.F128.NewElementFromInt64(1), core.F128.NewElementFromInt64(2),
		core.F128.NewElementFromInt64(3), core.F128.NewElementFromInt64(4),
	}

	next := zeroRow()
	next.CtxHash = cur.Sponge
	// next.Sponge left zero, matching BEGIN's reset contract

	var beginConstraint OpConstraint
	for _, c := range FlowConstraints() {
		if c.Op == vm.Begin {
			beginConstraint = c
		}
	}
	for i, r := range beginConstraint.Residuals(cur, next) {
		if !r.IsZero() {
			t.Errorf("BEGIN residual %d = %v, want 0", i, r)
		}
	}
}

func TestFlowConstraintsTendRejectsWrongHash(t *testing.T) {
	cur := zeroRow()
	setOpBits(cur, vm.Tend)

	next := zeroRow()
	next.Sponge = [core.SpongeWidth]*core.FieldElement{
		core.F128.One(), core.F128.Zero(), core.F128.Zero(), core.F128.Zero(),
	}

	var tendConstraint OpConstraint
	for _, c := range FlowConstraints() {
		if c.Op == vm.Tend {
			tendConstraint = c
		}
	}
	residuals := tendConstraint.Residuals(cur, next)
	allZero := true
	for _, r := range residuals {
		if !r.IsZero() {
			allZero = false
		}
	}
	if allZero {
		t.Error("TEND residuals should be nonzero when next.Sponge doesn't match the domain-separated hash")
	}
}

func TestBoundaryConstraints(t *testing.T) {
	first := zeroRow()
	setCell(first, vm.AuxWidth, 1)
	setCell(first, vm.AuxWidth+1, 0)

	last := zeroRow()
	setCell(last, vm.AuxWidth, 3)

	publicInputs := []*core.FieldElement{core.F128.NewElementFromInt64(1), core.F128.NewElementFromInt64(0)}
	claimedOutputs := []*core.FieldElement{core.F128.NewElementFromInt64(3)}

	residuals := BoundaryConstraints(first, last, publicInputs, claimedOutputs)
	for i, r := range residuals {
		if !r.IsZero() {
			t.Errorf("boundary residual %d = %v, want 0 for matching inputs/outputs", i, r)
		}
	}
}

func TestBoundaryConstraintsRejectWrongOutput(t *testing.T) {
	first := zeroRow()
	last := zeroRow()
	setCell(last, vm.AuxWidth, 3)

	claimedOutputs := []*core.FieldElement{core.F128.NewElementFromInt64(4)} // wrong

	residuals := BoundaryConstraints(first, last, nil, claimedOutputs)
	if len(residuals) != 1 || residuals[0].IsZero() {
		t.Error("boundary residual should be nonzero when the claimed output doesn't match the trace")
	}
}
