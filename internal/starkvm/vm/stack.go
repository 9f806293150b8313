package vm

import "github.com/vybium/starkvm/internal/starkvm/core"

// AuxWidth is the number of scratch columns reserved for EQ's one-cycle
// equality witness (spec.md §3: "AUX_WIDTH auxiliary columns").
const AuxWidth = 2

// MaxStackDepth is the total width of the combined aux+user stack columns.
const MaxStackDepth = 32

// MaxUserStackDepth is how deep a program's visible operand stack may grow.
const MaxUserStackDepth = MaxStackDepth - AuxWidth

// Stack is the per-row aux+user column state. User cells beyond the
// current depth are always zero, which gives every row a fixed width
// without needing incremental column growth: the "on-demand, zero-filled"
// growth spec.md §3 describes and this fixed-capacity, always-zero-padded
// representation are observationally identical to the constraint system.
type Stack struct {
	Aux   [AuxWidth]*core.FieldElement
	User  [MaxUserStackDepth]*core.FieldElement
	Depth int
}

// NewStack builds an all-zero stack.
func NewStack() *Stack {
	s := &Stack{}
	zero := core.F128.Zero()
	for i := range s.Aux {
		s.Aux[i] = zero
	}
	for i := range s.User {
		s.User[i] = zero
	}
	return s
}

// Clone returns a deep-enough copy (FieldElements are immutable, so copying
// the arrays is sufficient) to serve as the next row's starting point.
func (s *Stack) Clone() *Stack {
	out := &Stack{Depth: s.Depth}
	out.Aux = s.Aux
	out.User = s.User
	return out
}

// Get returns the user-stack cell at logical index i (0 = top), zero if i
// is beyond the current depth.
func (s *Stack) Get(i int) *core.FieldElement {
	if i < 0 || i >= MaxUserStackDepth {
		return core.F128.Zero()
	}
	return s.User[i]
}

// Set writes the user-stack cell at logical index i.
func (s *Stack) Set(i int, v *core.FieldElement) {
	s.User[i] = v
}

// ShiftLeft drops n cells off the top: cell i becomes old cell i+n, and the
// n cells vacated at the bottom of the occupied range are zero-filled. Used
// by every opcode that nets a depth decrease (ADD, MUL, DROP, ...).
func (s *Stack) ShiftLeft(n int) {
	zero := core.F128.Zero()
	for i := 0; i < MaxUserStackDepth; i++ {
		if i+n < MaxUserStackDepth {
			s.User[i] = s.User[i+n]
		} else {
			s.User[i] = zero
		}
	}
	s.Depth -= n
	if s.Depth < 0 {
		s.Depth = 0
	}
}

// ShiftRight makes room for n new cells at the top, shifting existing
// cells down by n. Callers must Set the n freed top cells afterward. Used
// by every opcode that nets a depth increase (DUP, DUP2, DUP4, PUSH, PAD2).
func (s *Stack) ShiftRight(n int) {
	for i := MaxUserStackDepth - 1; i >= n; i-- {
		s.User[i] = s.User[i-n]
	}
	s.Depth += n
}
