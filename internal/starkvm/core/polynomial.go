package core

import (
	"fmt"
)

// Polynomial is a dense coefficient-form polynomial over a Field. Index i
// holds the coefficient of x^i.
type Polynomial struct {
	coeffs []*FieldElement
	field  *Field
}

// NewPolynomial builds a polynomial from its coefficients (low-to-high
// degree). Trailing zero coefficients are trimmed, matching how the
// constraint/composition code expects Degree() to behave.
func NewPolynomial(coeffs []*FieldElement) (*Polynomial, error) {
	if len(coeffs) == 0 {
		return nil, fmt.Errorf("polynomial must have at least one coefficient")
	}
	field := coeffs[0].Field()
	for i, c := range coeffs {
		if !c.Field().Equals(field) {
			return nil, fmt.Errorf("coefficient %d is from a different field", i)
		}
	}
	last := 0
	for i := len(coeffs) - 1; i >= 0; i-- {
		if !coeffs[i].IsZero() {
			last = i
			break
		}
	}
	trimmed := make([]*FieldElement, last+1)
	copy(trimmed, coeffs[:last+1])
	return &Polynomial{coeffs: trimmed, field: field}, nil
}

// Degree returns the polynomial's degree (0 for the zero polynomial).
func (p *Polynomial) Degree() int { return len(p.coeffs) - 1 }

// Field returns the field the polynomial is defined over.
func (p *Polynomial) Field() *Field { return p.field }

// Coefficient returns the coefficient of x^degree, zero if out of range.
func (p *Polynomial) Coefficient(degree int) *FieldElement {
	if degree < 0 || degree >= len(p.coeffs) {
		return p.field.Zero()
	}
	return p.coeffs[degree]
}

// Coefficients returns a defensive copy of the coefficient vector.
func (p *Polynomial) Coefficients() []*FieldElement {
	out := make([]*FieldElement, len(p.coeffs))
	copy(out, p.coeffs)
	return out
}

// Eval evaluates the polynomial at x by Horner's method.
func (p *Polynomial) Eval(x *FieldElement) *FieldElement {
	result := p.field.Zero()
	for i := len(p.coeffs) - 1; i >= 0; i-- {
		result = result.Mul(x).Add(p.coeffs[i])
	}
	return result
}

// Add returns p + other.
func (p *Polynomial) Add(other *Polynomial) (*Polynomial, error) {
	if !p.field.Equals(other.field) {
		return nil, fmt.Errorf("cannot add polynomials from different fields")
	}
	n := max(len(p.coeffs), len(other.coeffs))
	out := make([]*FieldElement, n)
	for i := 0; i < n; i++ {
		out[i] = p.Coefficient(i).Add(other.Coefficient(i))
	}
	return NewPolynomial(out)
}

// Sub returns p - other.
func (p *Polynomial) Sub(other *Polynomial) (*Polynomial, error) {
	if !p.field.Equals(other.field) {
		return nil, fmt.Errorf("cannot subtract polynomials from different fields")
	}
	n := max(len(p.coeffs), len(other.coeffs))
	out := make([]*FieldElement, n)
	for i := 0; i < n; i++ {
		out[i] = p.Coefficient(i).Sub(other.Coefficient(i))
	}
	return NewPolynomial(out)
}

// MulScalar returns p scaled by a constant.
func (p *Polynomial) MulScalar(scalar *FieldElement) (*Polynomial, error) {
	out := make([]*FieldElement, len(p.coeffs))
	for i, c := range p.coeffs {
		out[i] = c.Mul(scalar)
	}
	return NewPolynomial(out)
}

// Mul multiplies two polynomials by schoolbook convolution; only used for
// the small-degree opcode-flag products in the constraint system, never on
// full trace-length polynomials.
func (p *Polynomial) Mul(other *Polynomial) (*Polynomial, error) {
	if !p.field.Equals(other.field) {
		return nil, fmt.Errorf("cannot multiply polynomials from different fields")
	}
	out := make([]*FieldElement, p.Degree()+other.Degree()+2)
	for i := range out {
		out[i] = p.field.Zero()
	}
	for i, a := range p.coeffs {
		for j, b := range other.coeffs {
			out[i+j] = out[i+j].Add(a.Mul(b))
		}
	}
	return NewPolynomial(out)
}

// SyntheticDivide divides P(x) by (x - z) via synthetic division (Ruffini's
// rule) and returns the quotient as a new polynomial. It returns an error
// when the remainder is nonzero, i.e. when z is not a root of P; callers
// building a DEEP quotient subtract P(z) first (see deepQuotient in
// protocols/composition.go).
func (p *Polynomial) SyntheticDivide(z *FieldElement) (*Polynomial, error) {
	n := len(p.coeffs)
	if n == 1 {
		if !p.coeffs[0].IsZero() {
			return nil, fmt.Errorf("division by (x - z) left a nonzero remainder: z is not a root")
		}
		return NewPolynomial([]*FieldElement{p.field.Zero()})
	}
	b := make([]*FieldElement, n-1)
	b[n-2] = p.coeffs[n-1]
	for i := n - 2; i >= 1; i-- {
		b[i-1] = p.coeffs[i].Add(z.Mul(b[i]))
	}
	remainder := p.coeffs[0].Add(z.Mul(b[0]))
	if !remainder.IsZero() {
		return nil, fmt.Errorf("division by (x - z) left a nonzero remainder: z is not a root")
	}
	return NewPolynomial(b)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
