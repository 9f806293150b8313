package vm

import (
	"fmt"

	"github.com/vybium/starkvm/internal/starkvm/core"
)

// Trace is the full execution table: one Row per program cycle (spec.md
// §3: "Trace ... rows = program length (cycle count)").
type Trace struct {
	Rows []*Row
}

// Len returns the number of rows, equal to the program's length.
func (t *Trace) Len() int { return len(t.Rows) }

// Final returns the last row, the one boundary constraints check claimed
// outputs against.
func (t *Trace) Final() *Row { return t.Rows[len(t.Rows)-1] }

// ColumnWidth is the number of flattened field-element columns a Trace
// expands into: 4 sponge lanes, 5 op-decoder bits, a context
// hash+depth (5), a loop hash+depth (5, always copied forward unchanged —
// this instruction set has no loop-opening opcode), 2 aux cells and
// MaxUserStackDepth user cells.
const ColumnWidth = core.SpongeWidth + NumOpBits + (core.SpongeWidth + 1) + (core.SpongeWidth + 1) + AuxWidth + MaxUserStackDepth

// Columns flattens the trace into column-major field-element matrices,
// one column per []*.FieldElement, the shape core.Domain.Interpolate and
// the LDE step expect.
func (t *Trace) Columns() [][]*core.FieldElement {
	cols := make([][]*core.FieldElement, ColumnWidth)
	for c := range cols {
		cols[c] = make([]*core.FieldElement, len(t.Rows))
	}
	for r, row := range t.Rows {
		col := 0
		for i := 0; i < core.SpongeWidth; i++ {
			cols[col][r] = row.Sponge[i]
			col++
		}
		bits := row.Op.opBits()
		for i := 0; i < NumOpBits; i++ {
			cols[col][r] = boolElement(bits[i])
			col++
		}
		for i := 0; i < core.SpongeWidth; i++ {
			cols[col][r] = row.CtxHash[i]
			col++
		}
		cols[col][r] = core.F128.NewElementFromUint64(uint64(row.CtxDepth))
		col++
		for i := 0; i < core.SpongeWidth; i++ {
			cols[col][r] = row.LoopHash[i]
			col++
		}
		cols[col][r] = core.F128.NewElementFromUint64(uint64(row.LoopDepth))
		col++
		for i := 0; i < AuxWidth; i++ {
			cols[col][r] = row.Stack.Aux[i]
			col++
		}
		for i := 0; i < MaxUserStackDepth; i++ {
			cols[col][r] = row.Stack.Get(i)
			col++
		}
	}
	return cols
}

func boolElement(b bool) *core.FieldElement {
	if b {
		return core.F128.One()
	}
	return core.F128.Zero()
}

// Build executes program against inputs, producing the full trace.
// Dispatch follows spec.md §4.1/§9: cycle i decodes program[i] unless the
// previous cycle was PUSH (in which case program[i] holds PUSH's
// immediate and this cycle is a forced NOOP); transitions run for cycles
// 0..program.Len()-2, producing rows 1..program.Len()-1, so that row
// program.Len()-1 (the final row) lines up with the trailing NOOP
// sentinel never itself being dispatched.
func Build(program *Program, inputs *Inputs) (*Trace, error) {
	n := program.Len()
	rows := make([]*Row, n)
	rows[0] = newInitialRow(inputs.Public)

	skipNext := false
	for cycle := 0; cycle < n-1; cycle++ {
		var op Opcode
		var immediate *core.FieldElement

		if skipNext {
			op = Noop
			skipNext = false
		} else {
			decoded, ok := elementToOpcode(program.Elements[cycle])
			if !ok {
				return nil, fmt.Errorf("%w: cycle %d does not decode to a valid opcode", ErrProgramMalformed, cycle)
			}
			op = decoded
			if op.HasImmediate() {
				immediate = program.Elements[cycle+1]
				skipNext = true
			}
		}

		next, err := applyTransition(rows[cycle], cycle, op, immediate, inputs)
		if err != nil {
			return nil, fmt.Errorf("cycle %d (%s): %w", cycle, op, err)
		}
		rows[cycle+1] = next
	}

	if !inputs.Exhausted() {
		return nil, ErrExtraSecretInputs
	}

	return &Trace{Rows: rows}, nil
}
