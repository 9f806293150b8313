// Package air implements the Algebraic Intermediate Representation: the
// polynomial constraints that a trace row transition must satisfy,
// following the teacher's protocols.AIRConstraints split into initial,
// consistency, transition and terminal constraints, but expressed over
// this module's own core.FieldElement rather than an external field
// package.
package air

import (
	"github.com/vybium/starkvm/internal/starkvm/core"
	"github.com/vybium/starkvm/internal/starkvm/vm"
)

// Row is the algebraic view of one trace row a constraint evaluator reads:
// the same layout vm.Row exposes, re-declared here so this package has no
// hard dependency on the trace builder's internal state representation.
type Row struct {
	Sponge    [core.SpongeWidth]*core.FieldElement
	OpBits    [vm.NumOpBits]*core.FieldElement
	CtxHash   [core.SpongeWidth]*core.FieldElement
	CtxDepth  *core.FieldElement
	LoopHash  [core.SpongeWidth]*core.FieldElement
	LoopDepth *core.FieldElement
	Aux       [vm.AuxWidth]*core.FieldElement
	User      [vm.MaxUserStackDepth]*core.FieldElement
}

// Cell returns the logical stack cell at index i (0, 1 = aux; 2.. = user),
// matching the "old[i]"/"new[i]" numbering spec.md's opcode contracts use.
func (r *Row) Cell(i int) *core.FieldElement {
	if i < vm.AuxWidth {
		return r.Aux[i]
	}
	i -= vm.AuxWidth
	if i < 0 || i >= vm.MaxUserStackDepth {
		return core.F128.Zero()
	}
	return r.User[i]
}

// AggConstraint folds value into acc, weighted by flag — the
// flag-selection aggregation every per-opcode constraint uses so that
// only the row's actual opcode contributes a nonzero term (spec.md §4.3:
// "agg_constraint(i, flag, value)").
func AggConstraint(acc, flag, value *core.FieldElement) *core.FieldElement {
	return acc.Add(flag.Mul(value))
}

// opFlag returns 1 if row's op-bits equal op's binary encoding, 0
// otherwise, as a product of bit-selector terms (degree NumOpBits): each
// bit contributes b_i if op's bit is 1, or (1 - b_i) if op's bit is 0.
func opFlag(row *Row, op vm.Opcode) *core.FieldElement {
	one := core.F128.One()
	flag := one
	v := byte(op)
	for i := 0; i < vm.NumOpBits; i++ {
		bit := row.OpBits[i]
		if v&1 == 1 {
			flag = flag.Mul(bit)
		} else {
			flag = flag.Mul(one.Sub(bit))
		}
		v >>= 1
	}
	return flag
}

// shiftResidual returns, for every logical cell i from startCell up to the
// full stack width, the value that must be zero if the opcode shifts the
// remainder of the stack by `shift` positions (negative shift = cells
// move away from the top, as with a push; positive = cells move toward
// the top, as with a pop). Cells whose source index falls past the real
// stack width are compared against zero, the same zero-padding convention
// vm.Stack uses.
func shiftResidual(cur, next *Row, startCell, shift int) []*core.FieldElement {
	total := vm.AuxWidth + vm.MaxUserStackDepth
	out := make([]*core.FieldElement, 0, total-startCell)
	for i := startCell; i < total; i++ {
		src := i + shift
		var want *core.FieldElement
		if src < vm.AuxWidth || src >= total {
			want = core.F128.Zero()
		} else {
			want = cur.Cell(src)
		}
		out = append(out, next.Cell(i).Sub(want))
	}
	return out
}

// OpConstraint evaluates the full set of residuals an opcode's contract
// implies for a (cur, next) row pair; every residual must be zero for the
// transition to be valid when this op is the one actually decoded.
type OpConstraint struct {
	Op        vm.Opcode
	Residuals func(cur, next *Row) []*core.FieldElement
}

func topResidual(cur, next *Row, writes map[int]*core.FieldElement, shift int) []*core.FieldElement {
	startCell := vm.AuxWidth // every opcode here only ever touches user-stack cells directly, never aux, except EQ
	out := make([]*core.FieldElement, 0)
	maxWrite := -1
	for i := range writes {
		if i > maxWrite {
			maxWrite = i
		}
	}
	for i := startCell; i <= startCell+maxWrite; i++ {
		if w, ok := writes[i-startCell]; ok {
			out = append(out, next.Cell(i).Sub(w))
		}
	}
	out = append(out, shiftResidual(cur, next, startCell+maxWrite+1, shift)...)
	return out
}

// StackOpConstraints builds the per-opcode residual checks for the
// arithmetic, stack-shuffling and conditional opcodes, the algebraic
// mirror of vm.applyTransition's stack effects.
func StackOpConstraints() []OpConstraint {
	return []OpConstraint{
		{vm.Add, func(cur, next *Row) []*core.FieldElement {
			sum := cur.Cell(vm.AuxWidth).Add(cur.Cell(vm.AuxWidth + 1))
			return topResidual(cur, next, map[int]*core.FieldElement{0: sum}, 1)
		}},
		{vm.Sub, func(cur, next *Row) []*core.FieldElement {
			diff := cur.Cell(vm.AuxWidth + 1).Sub(cur.Cell(vm.AuxWidth))
			return topResidual(cur, next, map[int]*core.FieldElement{0: diff}, 1)
		}},
		{vm.Mul, func(cur, next *Row) []*core.FieldElement {
			prod := cur.Cell(vm.AuxWidth).Mul(cur.Cell(vm.AuxWidth + 1))
			return topResidual(cur, next, map[int]*core.FieldElement{0: prod}, 1)
		}},
		{vm.Neg, func(cur, next *Row) []*core.FieldElement {
			neg := cur.Cell(vm.AuxWidth).Neg()
			return topResidual(cur, next, map[int]*core.FieldElement{0: neg}, 0)
		}},
		{vm.Not, func(cur, next *Row) []*core.FieldElement {
			top := cur.Cell(vm.AuxWidth)
			notV := core.F128.One().Sub(top)
			binary := top.Mul(core.F128.One().Sub(top))
			return append(topResidual(cur, next, map[int]*core.FieldElement{0: notV}, 0), binary)
		}},
		{vm.Drop, func(cur, next *Row) []*core.FieldElement {
			return topResidual(cur, next, map[int]*core.FieldElement{}, 1)
		}},
		{vm.Drop4, func(cur, next *Row) []*core.FieldElement {
			return topResidual(cur, next, map[int]*core.FieldElement{}, 4)
		}},
		{vm.Dup, func(cur, next *Row) []*core.FieldElement {
			top := cur.Cell(vm.AuxWidth)
			return topResidual(cur, next, map[int]*core.FieldElement{0: top}, -1)
		}},
		{vm.Dup2, func(cur, next *Row) []*core.FieldElement {
			a, b := cur.Cell(vm.AuxWidth), cur.Cell(vm.AuxWidth+1)
			return topResidual(cur, next, map[int]*core.FieldElement{0: a, 1: b}, -2)
		}},
		{vm.Dup4, func(cur, next *Row) []*core.FieldElement {
			writes := map[int]*core.FieldElement{}
			for i := 0; i < 4; i++ {
				writes[i] = cur.Cell(vm.AuxWidth + i)
			}
			return topResidual(cur, next, writes, -4)
		}},
		{vm.Swap, func(cur, next *Row) []*core.FieldElement {
			a, b := cur.Cell(vm.AuxWidth), cur.Cell(vm.AuxWidth+1)
			return topResidual(cur, next, map[int]*core.FieldElement{0: b, 1: a}, 0)
		}},
		{vm.Choose, func(cur, next *Row) []*core.FieldElement {
			a, b, cond := cur.Cell(vm.AuxWidth), cur.Cell(vm.AuxWidth+1), cur.Cell(vm.AuxWidth+2)
			// chosen = cond*a + (1-cond)*b, valid only alongside the binary check on cond
			chosen := cond.Mul(a).Add(core.F128.One().Sub(cond).Mul(b))
			binary := cond.Mul(core.F128.One().Sub(cond))
			return append(topResidual(cur, next, map[int]*core.FieldElement{0: chosen}, 2), binary)
		}},
	}
}

// FlowConstraints evaluates the BEGIN/TEND/FEND block-boundary relations
// (spec.md §4.3: "enforce_begin, enforce_tend, enforce_fend"). BEGIN
// requires the new context hash to snapshot the parent sponge and the
// sponge to reset to zero; TEND/FEND require the new sponge to equal the
// domain-separated hash of parent and child.
func FlowConstraints() []OpConstraint {
	return []OpConstraint{
		{vm.Begin, func(cur, next *Row) []*core.FieldElement {
			out := make([]*core.FieldElement, 0, 2*core.SpongeWidth)
			for i := 0; i < core.SpongeWidth; i++ {
				out = append(out, next.CtxHash[i].Sub(cur.Sponge[i]))
				out = append(out, next.Sponge[i].Sub(core.F128.Zero()))
			}
			return out
		}},
		{vm.Tend, func(cur, next *Row) []*core.FieldElement {
			return blockCloseResidual(cur, next, core.F128.Zero())
		}},
		{vm.Fend, func(cur, next *Row) []*core.FieldElement {
			return blockCloseResidual(cur, next, core.F128.One())
		}},
	}
}

func blockCloseResidual(cur, next *Row, tag *core.FieldElement) []*core.FieldElement {
	tagged := append([]*core.FieldElement{tag}, append(cur.CtxHash[:], cur.Sponge[:]...)...)
	want := core.HashElements(tagged)
	out := make([]*core.FieldElement, core.SpongeWidth)
	for i := range out {
		out[i] = next.Sponge[i].Sub(want[i])
	}
	return out
}

// AggregateTransition folds every OpConstraint's residuals (weighted by
// whether the row's op-bits select that opcode) into one zero-or-not
// accumulator, padded to a uniform width so the result is degree-uniform
// across opcodes with differing residual counts.
func AggregateTransition(cur, next *Row, width int, constraints []OpConstraint) []*core.FieldElement {
	acc := make([]*core.FieldElement, width)
	for i := range acc {
		acc[i] = core.F128.Zero()
	}
	for _, c := range constraints {
		flag := opFlag(cur, c.Op)
		residuals := c.Residuals(cur, next)
		for i, r := range residuals {
			if i >= width {
				break
			}
			acc[i] = AggConstraint(acc[i], flag, r)
		}
	}
	return acc
}

// BoundaryConstraints checks row 0 against the public inputs and the
// final row's first numOutputs user cells against the claimed outputs
// (spec.md §4.4: "row 0 ... row N-1 ...").
func BoundaryConstraints(first, last *Row, publicInputs, claimedOutputs []*core.FieldElement) []*core.FieldElement {
	out := make([]*core.FieldElement, 0, len(publicInputs)+len(claimedOutputs))
	for i, v := range publicInputs {
		out = append(out, first.Cell(vm.AuxWidth+i).Sub(v))
	}
	for i, v := range claimedOutputs {
		out = append(out, last.Cell(vm.AuxWidth+i).Sub(v))
	}
	return out
}
