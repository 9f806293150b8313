package protocols

import (
	"fmt"

	"github.com/vybium/starkvm/internal/starkvm/air"
	"github.com/vybium/starkvm/internal/starkvm/core"
	"github.com/vybium/starkvm/internal/starkvm/vm"
)

// TraceColumnPolynomials interpolates every trace column (evaluations on
// the trace domain) into its unique low-degree polynomial.
func TraceColumnPolynomials(domains *ProverDomains, columns [][]*core.FieldElement) ([]*core.Polynomial, error) {
	polys := make([]*core.Polynomial, len(columns))
	for i, col := range columns {
		p, err := domains.Trace.Interpolate(col)
		if err != nil {
			return nil, fmt.Errorf("interpolating column %d: %w", i, err)
		}
		polys[i] = p
	}
	return polys, nil
}

// OutOfDomainEvaluations evaluates every column polynomial at z and at
// g*z (g the trace domain's generator), the two out-of-domain points the
// DEEP method needs to tie the composition polynomial to the actual
// trace transition relation (spec.md §4.4: "out-of-domain evaluation at
// z and g·z").
type OutOfDomainEvaluations struct {
	Z    *core.FieldElement
	Cur  []*core.FieldElement
	Next []*core.FieldElement
}

// EvaluateOutOfDomain evaluates every polynomial in polys at z and g*z.
func EvaluateOutOfDomain(domains *ProverDomains, polys []*core.Polynomial, z *core.FieldElement) *OutOfDomainEvaluations {
	gz := z.Mul(domains.Trace.Generator)
	cur := make([]*core.FieldElement, len(polys))
	next := make([]*core.FieldElement, len(polys))
	for i, p := range polys {
		cur[i] = p.Eval(z)
		next[i] = p.Eval(gz)
	}
	return &OutOfDomainEvaluations{Z: z, Cur: cur, Next: next}
}

// deepQuotient returns (poly(x) - poly(point)) / (x - point) via
// synthetic division, the DEEP-ALI trick that turns an out-of-domain
// equality claim into a low-degree divisibility claim FRI can test.
func deepQuotient(poly *core.Polynomial, point, value *core.FieldElement) (*core.Polynomial, error) {
	shifted, err := poly.Sub(constantPoly(value))
	if err != nil {
		return nil, err
	}
	return shifted.SyntheticDivide(point)
}

func constantPoly(v *core.FieldElement) *core.Polynomial {
	p, _ := core.NewPolynomial([]*core.FieldElement{v})
	return p
}

// pointwiseQuotient evaluates the same DEEP quotient deepQuotient builds
// symbolically, but at a single point x given only the column's value at
// x — no interpolated polynomial required. This is exact: if
// Q(t) = (P(t)-value)/(t-point) as polynomials, then Q(x) =
// (P(x)-value)/(x-point) for any x != point, which is how both the
// prover's full-codeword sweep and the verifier's single-position
// recomputation evaluate every DEEP and boundary quotient.
func pointwiseQuotient(x, point, value, claimedValue *core.FieldElement) (*core.FieldElement, error) {
	denom := x.Sub(point)
	if denom.IsZero() {
		return nil, fmt.Errorf("evaluation point coincides with the out-of-domain point")
	}
	return value.Sub(claimedValue).Div(denom)
}

// CompositionParams bundles every challenge and boundary value spec.md
// §4.4's composition polynomial combines: the column DEEP-quotient
// coefficients (two per column, at z and at g*z), the boundary-quotient
// coefficients (one per public input, one per claimed output), and the
// transition-quotient coefficients (one per AggregateTransition residual
// slot), plus the out-of-domain data and domain landmarks needed to
// evaluate any of them pointwise.
type CompositionParams struct {
	TraceSize      int
	Z              *core.FieldElement
	GZ             *core.FieldElement
	OodCur         []*core.FieldElement
	OodNext        []*core.FieldElement
	BoundaryFirst  *core.FieldElement
	BoundaryLast   *core.FieldElement
	PublicInputs   []*core.FieldElement
	ClaimedOutputs []*core.FieldElement
	ColumnCoeffs   []*core.FieldElement
	BoundaryCoeffs []*core.FieldElement
	TransCoeffs    []*core.FieldElement
}

// NewCompositionParams derives the boundary landmarks (the trace domain's
// first and last elements) from domains and packages every challenge the
// prover drew from channel into one CompositionParams both the prover's
// codeword sweep and the verifier's per-query recomputation can share.
func NewCompositionParams(
	domains *ProverDomains,
	ood *OutOfDomainEvaluations,
	publicInputs, claimedOutputs []*core.FieldElement,
	columnCoeffs, boundaryCoeffs, transCoeffs []*core.FieldElement,
) *CompositionParams {
	traceElements := domains.Trace.Elements()
	return &CompositionParams{
		TraceSize:      domains.Trace.Size,
		Z:              ood.Z,
		GZ:             ood.Z.Mul(domains.Trace.Generator),
		OodCur:         ood.Cur,
		OodNext:        ood.Next,
		BoundaryFirst:  traceElements[0],
		BoundaryLast:   traceElements[len(traceElements)-1],
		PublicInputs:   publicInputs,
		ClaimedOutputs: claimedOutputs,
		ColumnCoeffs:   columnCoeffs,
		BoundaryCoeffs: boundaryCoeffs,
		TransCoeffs:    transCoeffs,
	}
}

// EvaluateComposition recomputes, at a single evaluation point x, the
// scalar spec.md §4.4's composition polynomial holds there: the
// cc-weighted sum of every column's DEEP quotient at z and at g*z
// (closing the gap where only the z-quotient was ever composed in), the
// boundary-coefficient-weighted quotient binding row 0 to publicInputs
// and the last row to claimedOutputs (§8.3), and the transition quotient
// — AggregateTransition's residual vector, weighted by TransCoeffs and
// divided by the domain's vanishing polynomial x^N-1 (§8.4) — folded in
// through the same g*z-aware, flag-selected opcode relation the air
// package defines. curValues/nextValues are one row's worth (and the
// following row's worth) of raw, unweighted trace columns at x, in
// exactly vm.Trace.Columns' layout; the prover supplies them from its LDE
// columns, the verifier from opened trace leaves.
func EvaluateComposition(x *core.FieldElement, curValues, nextValues []*core.FieldElement, p *CompositionParams) (*core.FieldElement, error) {
	if len(p.ColumnCoeffs) < 2*len(curValues) {
		return nil, fmt.Errorf("need %d column composition coefficients, got %d", 2*len(curValues), len(p.ColumnCoeffs))
	}

	total := core.F128.Zero()
	for i, v := range curValues {
		qz, err := pointwiseQuotient(x, p.Z, v, p.OodCur[i])
		if err != nil {
			return nil, fmt.Errorf("deep quotient at z for column %d: %w", i, err)
		}
		total = total.Add(qz.Mul(p.ColumnCoeffs[2*i]))

		qgz, err := pointwiseQuotient(x, p.GZ, nextValues[i], p.OodNext[i])
		if err != nil {
			return nil, fmt.Errorf("deep quotient at g*z for column %d: %w", i, err)
		}
		total = total.Add(qgz.Mul(p.ColumnCoeffs[2*i+1]))
	}

	curRow := air.RowFromColumns(curValues)
	nextRow := air.RowFromColumns(nextValues)

	needBoundary := len(p.PublicInputs) + len(p.ClaimedOutputs)
	if len(p.BoundaryCoeffs) < needBoundary {
		return nil, fmt.Errorf("need %d boundary composition coefficients, got %d", needBoundary, len(p.BoundaryCoeffs))
	}
	bi := 0
	for i, v := range p.PublicInputs {
		q, err := pointwiseQuotient(x, p.BoundaryFirst, curRow.Cell(vm.AuxWidth+i), v)
		if err != nil {
			return nil, fmt.Errorf("boundary quotient for public input %d: %w", i, err)
		}
		total = total.Add(q.Mul(p.BoundaryCoeffs[bi]))
		bi++
	}
	for i, v := range p.ClaimedOutputs {
		q, err := pointwiseQuotient(x, p.BoundaryLast, curRow.Cell(vm.AuxWidth+i), v)
		if err != nil {
			return nil, fmt.Errorf("boundary quotient for claimed output %d: %w", i, err)
		}
		total = total.Add(q.Mul(p.BoundaryCoeffs[bi]))
		bi++
	}
	residuals := air.AggregateTransition(curRow, nextRow, air.TransitionWidth, air.AllTransitionConstraints())
	transAcc := core.F128.Zero()
	for i, r := range residuals {
		if i >= len(p.TransCoeffs) {
			break
		}
		transAcc = transAcc.Add(r.Mul(p.TransCoeffs[i]))
	}
	vanishing := x.ExpInt(uint64(p.TraceSize)).Sub(core.F128.One())
	vanishingInv, err := vanishing.Inv()
	if err != nil {
		return nil, fmt.Errorf("vanishing polynomial is zero at %s: evaluation point lies in the trace domain", x.String())
	}
	total = total.Add(transAcc.Mul(vanishingInv))

	return total, nil
}

// ComposeDeepPolynomial builds the full composed codeword on the LDE
// domain by evaluating EvaluateComposition at every point: the single
// low-degree codeword FRI commits to and queries, certifying every trace
// column, every boundary invariant, and the full opcode transition
// relation at once (spec.md §4.4).
func ComposeDeepPolynomial(domains *ProverDomains, ldeColumns [][]*core.FieldElement, params *CompositionParams) ([]*core.FieldElement, error) {
	ldeSize := domains.LDE.Size
	extensionFactor := ldeSize / domains.Trace.Size
	elements := domains.LDE.Elements()

	out := make([]*core.FieldElement, ldeSize)
	curValues := make([]*core.FieldElement, len(ldeColumns))
	nextValues := make([]*core.FieldElement, len(ldeColumns))
	for i := 0; i < ldeSize; i++ {
		nextIdx := (i + extensionFactor) % ldeSize
		for c := range ldeColumns {
			curValues[c] = ldeColumns[c][i]
			nextValues[c] = ldeColumns[c][nextIdx]
		}
		v, err := EvaluateComposition(elements[i], curValues, nextValues, params)
		if err != nil {
			return nil, fmt.Errorf("composing at LDE index %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
