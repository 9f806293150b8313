package vm

import (
	"errors"
	"testing"

	"github.com/vybium/starkvm/internal/starkvm/core"
)

func freshRow(values ...int64) *Row {
	r := &Row{Stack: NewStack()}
	for i := range r.Sponge {
		r.Sponge[i] = core.F128.Zero()
	}
	for i := range r.CtxHash {
		r.CtxHash[i] = core.F128.Zero()
	}
	for i := range r.LoopHash {
		r.LoopHash[i] = core.F128.Zero()
	}
	for i, v := range values {
		r.Stack.Set(i, intElem(v))
	}
	r.Stack.Depth = len(values)
	return r
}

func TestApplyTransitionAdd(t *testing.T) {
	row := freshRow(3, 4)
	next, err := applyTransition(row, 0, Add, nil, NewInputs(nil, nil, nil))
	if err != nil {
		t.Fatalf("applyTransition: %v", err)
	}
	if got := next.Stack.Get(0); !got.Equal(intElem(7)) {
		t.Errorf("ADD result = %v, want 7", got)
	}
	if next.Stack.Depth != 1 {
		t.Errorf("depth after ADD = %d, want 1", next.Stack.Depth)
	}
}

func TestApplyTransitionEqEqualCase(t *testing.T) {
	row := freshRow(5, 5)
	next, err := applyTransition(row, 0, Eq, nil, NewInputs(nil, nil, nil))
	if err != nil {
		t.Fatalf("applyTransition: %v", err)
	}
	if got := next.Stack.Get(0); !got.IsOne() {
		t.Errorf("EQ of equal operands = %v, want 1", got)
	}
	if !next.Stack.Aux[0].IsZero() {
		t.Errorf("EQ equality witness should be 0 when operands are equal, got %v", next.Stack.Aux[0])
	}
}

func TestApplyTransitionEqUnequalCaseWitnessIsInverse(t *testing.T) {
	row := freshRow(5, 2)
	next, err := applyTransition(row, 0, Eq, nil, NewInputs(nil, nil, nil))
	if err != nil {
		t.Fatalf("applyTransition: %v", err)
	}
	if got := next.Stack.Get(0); !got.IsZero() {
		t.Errorf("EQ of unequal operands = %v, want 0", got)
	}
	diff := intElem(5).Sub(intElem(2))
	wantInv, err := diff.Inv()
	if err != nil {
		t.Fatalf("Inv: %v", err)
	}
	if !next.Stack.Aux[0].Equal(wantInv) {
		t.Errorf("EQ witness = %v, want inverse of the difference %v", next.Stack.Aux[0], wantInv)
	}
}

func TestApplyTransitionNotRejectsNonBinary(t *testing.T) {
	row := freshRow(5)
	if _, err := applyTransition(row, 0, Not, nil, NewInputs(nil, nil, nil)); !errors.Is(err, ErrNonBinary) {
		t.Errorf("expected ErrNonBinary, got %v", err)
	}
}

func TestApplyTransitionInvRejectsZero(t *testing.T) {
	row := freshRow(0)
	if _, err := applyTransition(row, 0, Inv, nil, NewInputs(nil, nil, nil)); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestApplyTransitionCmpSetsGreaterThanLatch(t *testing.T) {
	row := freshRow(0, 0, 0, 0, 0, 0, 0, 0) // 8 stack cells, all zero
	inputs := NewInputs(nil, []*core.FieldElement{intElem(1)}, []*core.FieldElement{intElem(0)})
	next, err := applyTransition(row, 0, Cmp, nil, inputs)
	if err != nil {
		t.Fatalf("applyTransition: %v", err)
	}
	if got := next.Stack.Get(0); !got.IsOne() {
		t.Errorf("CMP greater-than latch = %v, want 1 after seeing bitA=1, bitB=0", got)
	}
	if got := next.Stack.Get(1); !got.IsZero() {
		t.Errorf("CMP less-than latch = %v, want 0", got)
	}
}

func TestApplyTransitionCmpRejectsNonBinaryBits(t *testing.T) {
	row := freshRow(0, 0, 0, 0, 0, 0, 0, 0)
	inputs := NewInputs(nil, []*core.FieldElement{intElem(2)}, []*core.FieldElement{intElem(0)})
	if _, err := applyTransition(row, 0, Cmp, nil, inputs); !errors.Is(err, ErrNonBinary) {
		t.Errorf("expected ErrNonBinary, got %v", err)
	}
}

func TestApplyTransitionHashrPermutesTopSixCells(t *testing.T) {
	row := freshRow(1, 2, 3, 4, 5, 6)
	next, err := applyTransition(row, 0, Hashr, nil, NewInputs(nil, nil, nil))
	if err != nil {
		t.Fatalf("applyTransition: %v", err)
	}
	allUnchanged := true
	for i := 0; i < core.HashStateWidth; i++ {
		if !next.Stack.Get(i).Equal(row.Stack.Get(i)) {
			allUnchanged = false
		}
	}
	if allUnchanged {
		t.Error("HASHR should change the top six stack cells via the permutation round")
	}
}

func TestApplyTransitionBeginOpensContextAndResetsSponge(t *testing.T) {
	row := freshRow()
	row.Sponge = [core.SpongeWidth]*core.FieldElement{intElem(1), intElem(2), intElem(3), intElem(4)}
	startDepth := row.CtxDepth

	next, err := applyTransition(row, 0, Begin, nil, NewInputs(nil, nil, nil))
	if err != nil {
		t.Fatalf("applyTransition: %v", err)
	}
	if next.CtxDepth != startDepth+1 {
		t.Errorf("CtxDepth = %d, want %d", next.CtxDepth, startDepth+1)
	}
	for i, v := range next.Sponge {
		if !v.IsZero() {
			t.Errorf("BEGIN should reset the sponge to zero, lane %d = %v", i, v)
		}
	}
}
