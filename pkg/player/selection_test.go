// ABOUTME: Tests for the loop selection range type
package player

import "testing"

func TestNewSelectionSwapsReversedEndpoints(t *testing.T) {
	s := NewSelection(5, 2)
	if s.Start != 2 || s.End != 5 {
		t.Errorf("expected normalized [2,5], got [%v,%v]", s.Start, s.End)
	}
}

func TestSelectionIsEmpty(t *testing.T) {
	if !(Selection{}).IsEmpty() {
		t.Error("zero value should be empty")
	}
	if NewSelection(0, 1).IsEmpty() {
		t.Error("[0,1] should not be empty")
	}
	// A degenerate non-zero point is still a selection.
	if NewSelection(3, 3).IsEmpty() {
		t.Error("[3,3] should not be empty")
	}
}

func TestSelectionContains(t *testing.T) {
	s := NewSelection(1, 4)
	for _, tc := range []struct {
		t    float64
		want bool
	}{
		{1, true}, {4, true}, {2.5, true}, {0.99, false}, {4.01, false},
	} {
		if got := s.Contains(tc.t); got != tc.want {
			t.Errorf("Contains(%v): expected %v, got %v", tc.t, tc.want, got)
		}
	}
}

func TestSelectionDuration(t *testing.T) {
	if got := NewSelection(1.5, 4).Duration(); got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}
}
