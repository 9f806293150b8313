package protocols

import (
	"math/big"
	"testing"
)

func TestChannelDeterministic(t *testing.T) {
	c1 := NewChannel()
	c1.Send([]byte("hello"))
	z1 := c1.ReceiveRandomFieldElement()

	c2 := NewChannel()
	c2.Send([]byte("hello"))
	z2 := c2.ReceiveRandomFieldElement()

	if !z1.Equal(z2) {
		t.Error("two channels fed identical data should derive identical challenges")
	}
}

func TestChannelSensitiveToSentData(t *testing.T) {
	c1 := NewChannel()
	c1.Send([]byte("hello"))
	z1 := c1.ReceiveRandomFieldElement()

	c2 := NewChannel()
	c2.Send([]byte("goodbye"))
	z2 := c2.ReceiveRandomFieldElement()

	if z1.Equal(z2) {
		t.Error("channels fed different data should derive different challenges")
	}
}

func TestChannelSuccessiveChallengesDiffer(t *testing.T) {
	c := NewChannel()
	c.Send([]byte("seed"))
	a := c.ReceiveRandomFieldElement()
	b := c.ReceiveRandomFieldElement()
	if a.Equal(b) {
		t.Error("two successive ReceiveRandomFieldElement calls should not collide")
	}
}

func TestChannelReceiveIndicesInRange(t *testing.T) {
	c := NewChannel()
	c.Send([]byte("domain"))
	indices, err := c.ReceiveIndices(20, 64)
	if err != nil {
		t.Fatalf("ReceiveIndices: %v", err)
	}
	for _, idx := range indices {
		if idx < 0 || idx >= 64 {
			t.Errorf("index %d out of range [0, 64)", idx)
		}
	}
}

func TestChannelReceiveRandomIntRejectsInvertedRange(t *testing.T) {
	c := NewChannel()
	if _, err := c.ReceiveRandomInt(big.NewInt(10), big.NewInt(5)); err == nil {
		t.Error("ReceiveRandomInt should reject min > max")
	}
}
