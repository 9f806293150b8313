package core

import "fmt"

// Domain is a coset of a power-of-two multiplicative subgroup of F128:
// { offset * generator^i : i = 0..size-1 }. Trace, LDE and FRI domains are
// all instances of this type at different sizes/offsets.
type Domain struct {
	Size      int
	Offset    *FieldElement
	Generator *FieldElement
	twiddles  []*FieldElement // generator^i for i = 0..size-1, precomputed once
}

// NewDomain builds the canonical (unshifted) domain of the given power-of-two
// size. Use WithOffset to build a coset of it.
func NewDomain(size int) (*Domain, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("domain size must be a power of two, got %d", size)
	}
	gen, err := PrimitiveRootOfUnity(uint64(size))
	if err != nil {
		return nil, err
	}
	return &Domain{
		Size:      size,
		Offset:    F128.One(),
		Generator: gen,
		twiddles:  precomputeTwiddles(gen, size),
	}, nil
}

// WithOffset returns a coset of d shifted by offset.
func (d *Domain) WithOffset(offset *FieldElement) *Domain {
	return &Domain{Size: d.Size, Offset: offset, Generator: d.Generator, twiddles: d.twiddles}
}

// precomputeTwiddles builds the natural-order table of powers of the
// generator (generator^0 .. generator^(size-1)) used by the iterative
// Cooley-Tukey butterfly network below.
func precomputeTwiddles(generator *FieldElement, size int) []*FieldElement {
	twiddles := make([]*FieldElement, size)
	cur := generator.Field().One()
	for i := 0; i < size; i++ {
		twiddles[i] = cur
		cur = cur.Mul(generator)
	}
	return twiddles
}

func bitReverse(x, logN int) int {
	r := 0
	for i := 0; i < logN; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}

func log2(n int) int {
	l := 0
	for 1<<l < n {
		l++
	}
	return l
}

// Elements returns every point of the domain, offset * generator^i.
func (d *Domain) Elements() []*FieldElement {
	out := make([]*FieldElement, d.Size)
	cur := d.Offset
	for i := 0; i < d.Size; i++ {
		out[i] = cur
		cur = cur.Mul(d.Generator)
	}
	return out
}

// fft runs an in-place iterative radix-2 decimation-in-time transform of
// values (length must equal len(twiddles)) using the given twiddle table,
// which must hold generator^0..generator^(n-1) for the domain's generator.
func fft(values []*FieldElement, twiddles []*FieldElement) {
	n := len(values)
	logN := log2(n)

	// bit-reversal permutation
	for i := 0; i < n; i++ {
		j := bitReverse(i, logN)
		if j > i {
			values[i], values[j] = values[j], values[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		stride := n / size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				w := twiddles[k*stride]
				u := values[start+k]
				v := values[start+k+half].Mul(w)
				values[start+k] = u.Add(v)
				values[start+k+half] = u.Sub(v)
			}
		}
	}
}

// Evaluate performs a forward FFT: coefficients (length == d.Size) are
// interpreted as a polynomial and evaluated on every point of the domain.
// A nontrivial offset is handled by the standard coset trick: scale
// coefficient i by offset^i before running the FFT over the unshifted
// generator subgroup.
func (d *Domain) Evaluate(poly *Polynomial) ([]*FieldElement, error) {
	coeffs := poly.Coefficients()
	if len(coeffs) > d.Size {
		return nil, fmt.Errorf("polynomial of degree %d does not fit in domain of size %d", poly.Degree(), d.Size)
	}
	values := make([]*FieldElement, d.Size)
	offsetPower := F128.One()
	for i := 0; i < d.Size; i++ {
		if i < len(coeffs) {
			values[i] = coeffs[i].Mul(offsetPower)
		} else {
			values[i] = F128.Zero()
		}
		offsetPower = offsetPower.Mul(d.Offset)
	}
	fft(values, d.twiddles)
	return values, nil
}

// Interpolate performs the inverse transform: domain evaluations (length ==
// d.Size) are converted back to coefficient form via an inverse FFT over the
// generator subgroup followed by un-scaling by the coset offset.
func (d *Domain) Interpolate(values []*FieldElement) (*Polynomial, error) {
	if len(values) != d.Size {
		return nil, fmt.Errorf("expected %d values, got %d", d.Size, len(values))
	}
	work := make([]*FieldElement, d.Size)
	copy(work, values)

	invTwiddles := make([]*FieldElement, d.Size)
	genInv, err := d.Generator.Inv()
	if err != nil {
		return nil, err
	}
	invTwiddles = precomputeTwiddles(genInv, d.Size)
	fft(work, invTwiddles)

	nInv, err := F128.NewElementFromUint64(uint64(d.Size)).Inv()
	if err != nil {
		return nil, err
	}
	offsetInv, err := d.Offset.Inv()
	if err != nil {
		return nil, err
	}
	offsetPower := F128.One()
	for i := range work {
		work[i] = work[i].Mul(nInv).Mul(offsetPower)
		offsetPower = offsetPower.Mul(offsetInv)
	}
	return NewPolynomial(work)
}

// LowDegreeExtend takes trace-domain evaluations (length == traceDomain.Size)
// and re-evaluates the same polynomial on a larger domain (size ==
// traceDomain.Size * extensionFactor) via an inverse FFT into coefficient
// form followed by a forward FFT on the bigger domain, exactly the data
// flow spec.md describes for building the LDE.
func LowDegreeExtend(traceDomain *Domain, values []*FieldElement, lde *Domain) ([]*FieldElement, error) {
	poly, err := traceDomain.Interpolate(values)
	if err != nil {
		return nil, fmt.Errorf("failed to interpolate trace values: %w", err)
	}
	return lde.Evaluate(poly)
}
