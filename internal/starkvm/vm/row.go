package vm

import "github.com/vybium/starkvm/internal/starkvm/core"

// Row is one execution-trace row. The context "stack" is modeled as its current top digest plus a depth
// counter rather than a full column per level: the flow constraints
// (enforce_begin/enforce_tend/enforce_fend, spec.md §4.3) only ever need
// the top, never elements further down.
type Row struct {
	Cycle int

	Sponge [core.SpongeWidth]*core.FieldElement
	Op     Opcode

	CtxHash  [core.SpongeWidth]*core.FieldElement
	CtxDepth int
	// LoopHash/LoopDepth are carried unchanged by every opcode in this
	// instruction set (none of it opens or closes a loop block); the
	// column keeps the row layout uniform with CtxHash. The air package
	// places no constraint on it.
	LoopHash  [core.SpongeWidth]*core.FieldElement
	LoopDepth int

	Stack *Stack
}

// newInitialRow seeds row 0 from the program's public inputs, in order,
// top of stack first (spec.md §6: "public inputs occupy the first
// user-stack cells").
func newInitialRow(public []*core.FieldElement) *Row {
	r := &Row{Stack: NewStack()}
	zero := core.F128.Zero()
	for i := range r.Sponge {
		r.Sponge[i] = zero
	}
	for i := range r.CtxHash {
		r.CtxHash[i] = zero
	}
	for i := range r.LoopHash {
		r.LoopHash[i] = zero
	}
	for i, v := range public {
		if i >= MaxUserStackDepth {
			break
		}
		r.Stack.Set(i, v)
	}
	if len(public) > 0 {
		r.Stack.Depth = len(public)
		if r.Stack.Depth > MaxUserStackDepth {
			r.Stack.Depth = MaxUserStackDepth
		}
	}
	return r
}

// clone starts the next row from the current one's stack/context/loop
// state; the opcode transition then overwrites whatever it changes.
func (r *Row) clone() *Row {
	next := &Row{
		Stack:     r.Stack.Clone(),
		CtxDepth:  r.CtxDepth,
		LoopDepth: r.LoopDepth,
	}
	next.Sponge = r.Sponge
	next.CtxHash = r.CtxHash
	next.LoopHash = r.LoopHash
	return next
}
