package appstate

// pageSize is the number of rows a page-up/page-down jump moves by.
const pageSize = 10

// MoveUp moves the selection up by one, wrapping from position 0 to the last row.
func (s *State) MoveUp() {
	n := len(s.Filtered)
	if n == 0 {
		return
	}
	if s.Selected == 0 {
		s.Selected = n - 1
		return
	}
	s.Selected--
}

// MoveDown moves the selection down by one, wrapping from the last row to position 0.
func (s *State) MoveDown() {
	n := len(s.Filtered)
	if n == 0 {
		return
	}
	s.Selected = (s.Selected + 1) % n
}

// PageUp moves the selection up by pageSize, clamping then wrapping:
// a page move that would cross position 0 stops at 0, and a page move
// made from position 0 wraps to the last row (spec.md §4.7, property P6).
func (s *State) PageUp() {
	n := len(s.Filtered)
	if n == 0 {
		return
	}
	if s.Selected == 0 {
		s.Selected = n - 1
		return
	}
	s.Selected = max(s.Selected-pageSize, 0)
}

// PageDown is PageUp's mirror: it stops at the last row, and wraps to
// position 0 when made from the last row.
func (s *State) PageDown() {
	n := len(s.Filtered)
	if n == 0 {
		return
	}
	if s.Selected == n-1 {
		s.Selected = 0
		return
	}
	s.Selected = min(s.Selected+pageSize, n-1)
}

// Home moves the selection to the first row.
func (s *State) Home() {
	if len(s.Filtered) == 0 {
		return
	}
	s.Selected = 0
}

// End moves the selection to the last row.
func (s *State) End() {
	n := len(s.Filtered)
	if n == 0 {
		return
	}
	s.Selected = n - 1
}
