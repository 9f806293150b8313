package vm

import "github.com/vybium/starkvm/internal/starkvm/core"

// cmpBitPeriod is how many cycles a single CMP comparison is decomposed
// over: spec.md §4.1's weight is 2^(127 - (cycle mod 128)), i.e. a
// 128-bit operand compared one bit per cycle.
const cmpBitPeriod = 128

// applyTransition advances prev by one cycle executing op (with immediate
// set only when op is PUSH), returning the row that follows. Every opcode
// here mirrors its contract in spec.md §4.1; stack effects were
// cross-checked against the worked scenarios in spec.md §8.
func applyTransition(prev *Row, cycle int, op Opcode, immediate *core.FieldElement, inputs *Inputs) (*Row, error) {
	next := prev.clone()
	next.Cycle = prev.Cycle + 1
	next.Op = op

	opVal := core.F128.NewElementFromUint64(uint64(op))
	absorb := opVal
	if op == Push {
		absorb = opVal.Add(immediate)
	}
	sponge := make([]*core.FieldElement, core.SpongeWidth)
	copy(sponge, prev.Sponge[:])
	sponge[0] = sponge[0].Add(absorb)
	rounded := core.DefaultSpongePermutation.ApplyRound(sponge, cycle)
	copy(next.Sponge[:], rounded)

	s := next.Stack
	depth := s.Depth

	requireDepth := func(n int) error {
		if depth < n {
			return ErrStackUnderflow
		}
		return nil
	}
	requireRoom := func(n int) error {
		if depth+n > MaxUserStackDepth {
			return ErrStackOverflow
		}
		return nil
	}

	switch op {
	case Begin:
		next.CtxHash = prev.Sponge
		next.CtxDepth = prev.CtxDepth + 1
		var zero [core.SpongeWidth]*core.FieldElement
		for i := range zero {
			zero[i] = core.F128.Zero()
		}
		next.Sponge = zero

	case Noop:
		// no stack or sponge effect beyond the absorption already applied above.

	case Assert:
		if err := requireDepth(1); err != nil {
			return nil, err
		}
		top := s.Get(0)
		if !top.IsOne() {
			return nil, ErrAssertionFailed
		}
		s.ShiftLeft(1)

	case Tend:
		tagged := append([]*core.FieldElement{core.F128.Zero()}, append(prev.CtxHash[:], prev.Sponge[:]...)...)
		combined := core.HashElements(tagged)
		next.Sponge = [core.SpongeWidth]*core.FieldElement(combined)
		if next.CtxDepth > 0 {
			next.CtxDepth--
		}

	case Fend:
		tagged := append([]*core.FieldElement{core.F128.One()}, append(prev.CtxHash[:], prev.Sponge[:]...)...)
		combined := core.HashElements(tagged)
		next.Sponge = [core.SpongeWidth]*core.FieldElement(combined)
		if next.CtxDepth > 0 {
			next.CtxDepth--
		}

	case Push:
		if err := requireRoom(1); err != nil {
			return nil, err
		}
		s.ShiftRight(1)
		s.Set(0, immediate)

	case Dup:
		if err := requireDepth(1); err != nil {
			return nil, err
		}
		if err := requireRoom(1); err != nil {
			return nil, err
		}
		top := s.Get(0)
		s.ShiftRight(1)
		s.Set(0, top)

	case Dup2:
		if err := requireDepth(2); err != nil {
			return nil, err
		}
		if err := requireRoom(2); err != nil {
			return nil, err
		}
		a, b := s.Get(0), s.Get(1)
		s.ShiftRight(2)
		s.Set(0, a)
		s.Set(1, b)

	case Dup4:
		if err := requireDepth(4); err != nil {
			return nil, err
		}
		if err := requireRoom(4); err != nil {
			return nil, err
		}
		var top [4]*core.FieldElement
		for i := range top {
			top[i] = s.Get(i)
		}
		s.ShiftRight(4)
		for i, v := range top {
			s.Set(i, v)
		}

	case Drop:
		if err := requireDepth(1); err != nil {
			return nil, err
		}
		s.ShiftLeft(1)

	case Drop4:
		if err := requireDepth(4); err != nil {
			return nil, err
		}
		s.ShiftLeft(4)

	case Swap:
		if err := requireDepth(2); err != nil {
			return nil, err
		}
		a, b := s.Get(0), s.Get(1)
		s.Set(0, b)
		s.Set(1, a)

	case Swap2:
		if err := requireDepth(4); err != nil {
			return nil, err
		}
		var old [4]*core.FieldElement
		for i := range old {
			old[i] = s.Get(i)
		}
		s.Set(0, old[2])
		s.Set(1, old[3])
		s.Set(2, old[0])
		s.Set(3, old[1])

	case Swap4:
		if err := requireDepth(8); err != nil {
			return nil, err
		}
		var old [8]*core.FieldElement
		for i := range old {
			old[i] = s.Get(i)
		}
		for i := 0; i < 4; i++ {
			s.Set(i, old[i+4])
			s.Set(i+4, old[i])
		}

	case Roll4:
		if err := requireDepth(4); err != nil {
			return nil, err
		}
		var old [4]*core.FieldElement
		for i := range old {
			old[i] = s.Get(i)
		}
		s.Set(0, old[3])
		s.Set(1, old[0])
		s.Set(2, old[1])
		s.Set(3, old[2])

	case Roll8:
		if err := requireDepth(8); err != nil {
			return nil, err
		}
		var old [8]*core.FieldElement
		for i := range old {
			old[i] = s.Get(i)
		}
		s.Set(0, old[7])
		for i := 1; i < 8; i++ {
			s.Set(i, old[i-1])
		}

	case Choose:
		if err := requireDepth(3); err != nil {
			return nil, err
		}
		cond := s.Get(2)
		if !cond.IsBinary() {
			return nil, ErrNonBinary
		}
		var chosen *core.FieldElement
		if cond.IsOne() {
			chosen = s.Get(0)
		} else {
			chosen = s.Get(1)
		}
		s.ShiftLeft(2)
		s.Set(0, chosen)

	case Choose2:
		if err := requireDepth(5); err != nil {
			return nil, err
		}
		cond := s.Get(4)
		if !cond.IsBinary() {
			return nil, ErrNonBinary
		}
		a0, a1, b0, b1 := s.Get(0), s.Get(1), s.Get(2), s.Get(3)
		s.ShiftLeft(3)
		if cond.IsOne() {
			s.Set(0, a0)
			s.Set(1, a1)
		} else {
			s.Set(0, b0)
			s.Set(1, b1)
		}

	case Pad2:
		if err := requireRoom(2); err != nil {
			return nil, err
		}
		s.ShiftRight(2)
		s.Set(0, core.F128.Zero())
		s.Set(1, core.F128.Zero())

	case Read:
		if err := requireRoom(1); err != nil {
			return nil, err
		}
		v, err := inputs.popA()
		if err != nil {
			return nil, err
		}
		s.ShiftRight(1)
		s.Set(0, v)

	case Read2:
		if err := requireRoom(2); err != nil {
			return nil, err
		}
		a, err := inputs.popA()
		if err != nil {
			return nil, err
		}
		b, err := inputs.popB()
		if err != nil {
			return nil, err
		}
		s.ShiftRight(2)
		s.Set(0, a)
		s.Set(1, b)

	case Add:
		if err := requireDepth(2); err != nil {
			return nil, err
		}
		sum := s.Get(0).Add(s.Get(1))
		s.ShiftLeft(1)
		s.Set(0, sum)

	case Sub:
		if err := requireDepth(2); err != nil {
			return nil, err
		}
		diff := s.Get(1).Sub(s.Get(0))
		s.ShiftLeft(1)
		s.Set(0, diff)

	case Mul:
		if err := requireDepth(2); err != nil {
			return nil, err
		}
		prod := s.Get(0).Mul(s.Get(1))
		s.ShiftLeft(1)
		s.Set(0, prod)

	case Inv:
		if err := requireDepth(1); err != nil {
			return nil, err
		}
		inv, err := s.Get(0).Inv()
		if err != nil {
			return nil, ErrDivisionByZero
		}
		s.Set(0, inv)

	case Neg:
		if err := requireDepth(1); err != nil {
			return nil, err
		}
		s.Set(0, s.Get(0).Neg())

	case Not:
		if err := requireDepth(1); err != nil {
			return nil, err
		}
		top := s.Get(0)
		if !top.IsBinary() {
			return nil, ErrNonBinary
		}
		s.Set(0, core.F128.One().Sub(top))

	case Eq:
		if err := requireDepth(2); err != nil {
			return nil, err
		}
		a, b := s.Get(0), s.Get(1)
		var result *core.FieldElement
		if a.Equal(b) {
			result = core.F128.One()
			next.Stack.Aux[0] = core.F128.Zero()
		} else {
			diff := a.Sub(b)
			invDiff, err := diff.Inv()
			if err != nil {
				return nil, ErrDivisionByZero
			}
			result = core.F128.Zero()
			next.Stack.Aux[0] = invDiff
		}
		s.ShiftLeft(1)
		s.Set(0, result)

	case Cmp:
		if err := requireDepth(8); err != nil {
			return nil, err
		}
		bitA, err := inputs.popA()
		if err != nil {
			return nil, err
		}
		bitB, err := inputs.popB()
		if err != nil {
			return nil, err
		}
		if !bitA.IsBinary() || !bitB.IsBinary() {
			return nil, ErrNonBinary
		}
		shift := uint64(127 - (cycle % cmpBitPeriod))
		weight := core.F128.NewElementFromUint64(2).ExpInt(shift)

		gt, lt := s.Get(0), s.Get(1)
		accA, accB := s.Get(4), s.Get(5)

		s.Set(2, bitA)
		s.Set(3, bitB)
		s.Set(4, accA.Add(bitA.Mul(weight)))
		s.Set(5, accB.Add(bitB.Mul(weight)))

		if gt.IsZero() && bitA.IsOne() && bitB.IsZero() {
			s.Set(0, core.F128.One())
		}
		if lt.IsZero() && bitA.IsZero() && bitB.IsOne() {
			s.Set(1, core.F128.One())
		}

	case Hashr:
		if err := requireDepth(core.HashStateWidth); err != nil {
			return nil, err
		}
		state := make([]*core.FieldElement, core.HashStateWidth)
		for i := range state {
			state[i] = s.Get(i)
		}
		out := core.DefaultHashrPermutation.ApplyRound(state, cycle)
		for i, v := range out {
			s.Set(i, v)
		}

	default:
		return nil, ErrProgramMalformed
	}

	return next, nil
}
