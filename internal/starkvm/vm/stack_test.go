package vm

import "testing"

func TestStackShiftLeft(t *testing.T) {
	s := NewStack()
	for i := 0; i < 4; i++ {
		s.Set(i, intElem(int64(i+1)))
	}
	s.Depth = 4

	s.ShiftLeft(1)

	if s.Depth != 3 {
		t.Errorf("Depth = %d, want 3", s.Depth)
	}
	want := []int64{2, 3, 4, 0}
	for i, w := range want {
		if !s.Get(i).Equal(intElem(w)) {
			t.Errorf("cell %d = %v, want %d", i, s.Get(i), w)
		}
	}
}

func TestStackShiftRight(t *testing.T) {
	s := NewStack()
	for i := 0; i < 3; i++ {
		s.Set(i, intElem(int64(i+1)))
	}
	s.Depth = 3

	s.ShiftRight(2)
	s.Set(0, intElem(100))
	s.Set(1, intElem(200))

	if s.Depth != 5 {
		t.Errorf("Depth = %d, want 5", s.Depth)
	}
	want := []int64{100, 200, 1, 2, 3}
	for i, w := range want {
		if !s.Get(i).Equal(intElem(w)) {
			t.Errorf("cell %d = %v, want %d", i, s.Get(i), w)
		}
	}
}

func TestStackShiftLeftFloorsDepthAtZero(t *testing.T) {
	s := NewStack()
	s.Depth = 1
	s.ShiftLeft(3)
	if s.Depth != 0 {
		t.Errorf("Depth = %d, want 0 (floored)", s.Depth)
	}
}

func TestStackCloneIsIndependent(t *testing.T) {
	s := NewStack()
	s.Set(0, intElem(1))
	s.Depth = 1

	clone := s.Clone()
	clone.Set(0, intElem(2))
	clone.Depth = 2

	if !s.Get(0).Equal(intElem(1)) {
		t.Error("mutating a clone's cell mutated the original stack")
	}
	if s.Depth != 1 {
		t.Error("mutating a clone's depth mutated the original stack's depth")
	}
}

func TestStackGetOutOfRangeIsZero(t *testing.T) {
	s := NewStack()
	if !s.Get(-1).IsZero() {
		t.Error("Get(-1) should return zero")
	}
	if !s.Get(MaxUserStackDepth).IsZero() {
		t.Error("Get(MaxUserStackDepth) should return zero")
	}
}
