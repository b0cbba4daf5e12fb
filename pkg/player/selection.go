// ABOUTME: Loop region over the current media's timeline
package player

// Selection is a time range in seconds used for loop playback. The zero
// value is the empty selection. Start <= End holds for any non-empty
// selection produced by NewSelection.
type Selection struct {
	Start float64
	End   float64
}

// NewSelection builds a selection, swapping endpoints when given in
// reverse order.
func NewSelection(start, end float64) Selection {
	if end < start {
		start, end = end, start
	}
	return Selection{Start: start, End: end}
}

// IsEmpty reports whether the selection is the empty sentinel.
func (s Selection) IsEmpty() bool {
	return s == Selection{}
}

// Contains reports whether t lies inside the selection.
func (s Selection) Contains(t float64) bool {
	return t >= s.Start && t <= s.End
}

// Duration returns the selection length in seconds.
func (s Selection) Duration() float64 {
	return s.End - s.Start
}
