// Package core implements the finite-field, polynomial, hashing and Merkle
// primitives the STARK prover and verifier are built on. Everything here is
// self-contained: no external field or polynomial library is assumed.
package core

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math/big"
)

// Field represents a prime field F_p.
type Field struct {
	modulus *big.Int
}

// FieldElement is a value in a Field, always kept reduced mod p.
type FieldElement struct {
	field *Field
	value *big.Int
}

// Modulus128 is the 128-bit prime used throughout this module. Its
// multiplicative group has 2-adicity 32 (p-1 = 2^32 * m), the same
// structure the original distaff/Vybium VM's field used, which gives
// enough power-of-two roots of unity for any program length times
// extension factor this implementation will realistically see.
var Modulus128, _ = new(big.Int).SetString("340282366920938463463374607393113505793", 10)

// F128 is the default field the VM and STARK operate over.
var F128, _ = NewField(Modulus128)

// Generator128 has multiplicative order 2^32 in F128 and is the root from
// which every smaller power-of-two subgroup generator is derived.
var Generator128 = func() *FieldElement {
	v, _ := new(big.Int).SetString("16233777346252436484685755432349885146", 10)
	return F128.NewElement(v)
}()

// NewField builds a prime field from its modulus.
func NewField(modulus *big.Int) (*Field, error) {
	if modulus.Cmp(big.NewInt(2)) <= 0 {
		return nil, fmt.Errorf("modulus must be greater than 2")
	}
	return &Field{modulus: new(big.Int).Set(modulus)}, nil
}

// Modulus returns a copy of the field's modulus.
func (f *Field) Modulus() *big.Int {
	return new(big.Int).Set(f.modulus)
}

// Equals reports whether two fields share a modulus.
func (f *Field) Equals(other *Field) bool {
	return f.modulus.Cmp(other.modulus) == 0
}

// NewElement reduces value mod p and returns the resulting element.
func (f *Field) NewElement(value *big.Int) *FieldElement {
	normalized := new(big.Int).Mod(value, f.modulus)
	return &FieldElement{field: f, value: normalized}
}

// NewElementFromInt64 builds an element from a signed 64-bit integer.
func (f *Field) NewElementFromInt64(value int64) *FieldElement {
	return f.NewElement(big.NewInt(value))
}

// NewElementFromUint64 builds an element from an unsigned 64-bit integer.
func (f *Field) NewElementFromUint64(value uint64) *FieldElement {
	return f.NewElement(new(big.Int).SetUint64(value))
}

// NewElementFromBytes decodes a little-endian byte slice into an element.
func (f *Field) NewElementFromBytes(b []byte) *FieldElement {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return f.NewElement(new(big.Int).SetBytes(be))
}

// RandomElement draws a uniformly random element of the field.
func (f *Field) RandomElement() (*FieldElement, error) {
	value, err := rand.Int(rand.Reader, f.modulus)
	if err != nil {
		return nil, fmt.Errorf("failed to generate random element: %w", err)
	}
	return f.NewElement(value), nil
}

// Zero returns the additive identity.
func (f *Field) Zero() *FieldElement { return f.NewElementFromInt64(0) }

// One returns the multiplicative identity.
func (f *Field) One() *FieldElement { return f.NewElementFromInt64(1) }

// Field returns the field this element belongs to.
func (fe *FieldElement) Field() *Field { return fe.field }

// Big returns a copy of the element's underlying integer value.
func (fe *FieldElement) Big() *big.Int { return new(big.Int).Set(fe.value) }

// Add returns fe + other.
func (fe *FieldElement) Add(other *FieldElement) *FieldElement {
	return fe.field.NewElement(new(big.Int).Add(fe.value, other.value))
}

// Sub returns fe - other.
func (fe *FieldElement) Sub(other *FieldElement) *FieldElement {
	return fe.field.NewElement(new(big.Int).Sub(fe.value, other.value))
}

// Neg returns the additive inverse of fe.
func (fe *FieldElement) Neg() *FieldElement {
	return fe.field.NewElement(new(big.Int).Neg(fe.value))
}

// Mul returns fe * other.
func (fe *FieldElement) Mul(other *FieldElement) *FieldElement {
	return fe.field.NewElement(new(big.Int).Mul(fe.value, other.value))
}

// Square returns fe * fe.
func (fe *FieldElement) Square() *FieldElement { return fe.Mul(fe) }

// Inv returns the multiplicative inverse of fe, or an error if fe is zero.
func (fe *FieldElement) Inv() (*FieldElement, error) {
	if fe.IsZero() {
		return nil, fmt.Errorf("cannot invert zero")
	}
	inv := new(big.Int).ModInverse(fe.value, fe.field.modulus)
	if inv == nil {
		return nil, fmt.Errorf("inverse does not exist")
	}
	return fe.field.NewElement(inv), nil
}

// Div returns fe / other.
func (fe *FieldElement) Div(other *FieldElement) (*FieldElement, error) {
	inv, err := other.Inv()
	if err != nil {
		return nil, fmt.Errorf("division failed: %w", err)
	}
	return fe.Mul(inv), nil
}

// Exp returns fe raised to the given non-negative exponent.
func (fe *FieldElement) Exp(exponent *big.Int) *FieldElement {
	return fe.field.NewElement(new(big.Int).Exp(fe.value, exponent, fe.field.modulus))
}

// ExpInt is a convenience wrapper over Exp for small exponents.
func (fe *FieldElement) ExpInt(exponent uint64) *FieldElement {
	return fe.Exp(new(big.Int).SetUint64(exponent))
}

// Equal reports whether two elements of the same field hold equal values.
func (fe *FieldElement) Equal(other *FieldElement) bool {
	if other == nil {
		return false
	}
	return fe.value.Cmp(other.value) == 0
}

// IsZero reports whether fe is the additive identity.
func (fe *FieldElement) IsZero() bool { return fe.value.Sign() == 0 }

// IsOne reports whether fe is the multiplicative identity.
func (fe *FieldElement) IsOne() bool { return fe.value.Cmp(big.NewInt(1)) == 0 }

// IsBinary reports whether fe is 0 or 1, the invariant every op-bit column
// must satisfy on every row.
func (fe *FieldElement) IsBinary() bool { return fe.IsZero() || fe.IsOne() }

// String renders the element's decimal value.
func (fe *FieldElement) String() string { return fe.value.String() }

// FieldWidth is the fixed little-endian byte width used for wire encoding.
const FieldWidth = 17 // ceil(128/8) + 1 guard byte keeps every 128-bit value unambiguous

// Bytes returns a fixed-width little-endian encoding of fe.
func (fe *FieldElement) Bytes() []byte {
	be := fe.value.Bytes()
	out := make([]byte, FieldWidth)
	for i, v := range be {
		out[len(be)-1-i] = v
	}
	return out
}

// PrimitiveRootOfUnity returns a generator of the unique multiplicative
// subgroup of order n (n must be a power of two dividing 2^32).
func PrimitiveRootOfUnity(n uint64) (*FieldElement, error) {
	if n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("order must be a power of two, got %d", n)
	}
	if n > 1<<32 {
		return nil, fmt.Errorf("field only has 2-adicity 32, cannot build a root of unity of order %d", n)
	}
	// Generator128 has order 2^32; raising it to 2^32/n yields an order-n root.
	power := (uint64(1) << 32) / n
	return Generator128.ExpInt(power), nil
}

// LittleEndianUint64 reinterprets the low 8 bytes of b as a uint64; used
// only for deriving indices/challenges, never for arithmetic.
func LittleEndianUint64(b []byte) uint64 {
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:])
}
