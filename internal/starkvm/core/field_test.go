package core

import (
	"math/big"
	"testing"
)

func TestFieldArithmetic(t *testing.T) {
	a := F128.NewElementFromInt64(5)
	b := F128.NewElementFromInt64(7)

	t.Run("Add", func(t *testing.T) {
		if got := a.Add(b); !got.Equal(F128.NewElementFromInt64(12)) {
			t.Errorf("5+7 = %v, want 12", got)
		}
	})

	t.Run("Sub", func(t *testing.T) {
		if got := a.Sub(b); !got.Equal(F128.NewElementFromInt64(-2)) {
			t.Errorf("5-7 = %v, want -2 mod p", got)
		}
	})

	t.Run("Mul", func(t *testing.T) {
		if got := a.Mul(b); !got.Equal(F128.NewElementFromInt64(35)) {
			t.Errorf("5*7 = %v, want 35", got)
		}
	})

	t.Run("Neg", func(t *testing.T) {
		if got := a.Neg().Add(a); !got.IsZero() {
			t.Errorf("a + (-a) = %v, want 0", got)
		}
	})

	t.Run("Inv", func(t *testing.T) {
		inv, err := a.Inv()
		if err != nil {
			t.Fatalf("Inv: %v", err)
		}
		if got := a.Mul(inv); !got.IsOne() {
			t.Errorf("a * a^-1 = %v, want 1", got)
		}
	})

	t.Run("InvZeroFails", func(t *testing.T) {
		if _, err := F128.Zero().Inv(); err == nil {
			t.Error("Inv of zero should fail")
		}
	})

	t.Run("ExpInt", func(t *testing.T) {
		got := a.ExpInt(3)
		want := a.Mul(a).Mul(a)
		if !got.Equal(want) {
			t.Errorf("a^3 = %v, want %v", got, want)
		}
	})
}

func TestFieldElementRoundTrip(t *testing.T) {
	v := F128.NewElement(big.NewInt(123456789))
	b := v.Bytes()
	got := F128.NewElementFromBytes(b)
	if !got.Equal(v) {
		t.Errorf("round trip through Bytes/NewElementFromBytes changed value: got %v, want %v", got, v)
	}
}

func TestGenerator128Order(t *testing.T) {
	// Generator128 must have multiplicative order exactly 2^32: squaring
	// it 32 times reaches 1, but 31 times does not.
	g := Generator128
	for i := 0; i < 31; i++ {
		g = g.Square()
	}
	if g.IsOne() {
		t.Fatal("Generator128 has order dividing 2^31, expected exactly 2^32")
	}
	if got := g.Square(); !got.IsOne() {
		t.Errorf("Generator128^(2^32) = %v, want 1", got)
	}
}

func TestPrimitiveRootOfUnity(t *testing.T) {
	root, err := PrimitiveRootOfUnity(16)
	if err != nil {
		t.Fatalf("PrimitiveRootOfUnity(16): %v", err)
	}
	pow := root
	for i := 0; i < 3; i++ {
		if pow.IsOne() {
			t.Fatalf("root of unity for n=16 has order dividing %d", 1<<uint(i+1))
		}
		pow = pow.Square()
	}
	if got := pow.Square(); !got.IsOne() {
		t.Errorf("root^16 = %v, want 1", got)
	}
}
