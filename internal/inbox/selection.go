package inbox

import "sort"

// Selection tracks the thread ids selected for batch operations. The set is
// scoped to the active view; the engine clears it on every view switch.
type Selection struct {
	ids map[int64]bool
}

func newSelection() Selection {
	return Selection{ids: make(map[int64]bool)}
}

// Toggle flips membership for a thread id.
func (s *Selection) Toggle(id int64) {
	if s.ids[id] {
		delete(s.ids, id)
		return
	}
	s.ids[id] = true
}

// ToggleAll selects every visible id unless all of them are already
// selected, in which case it clears the selection.
func (s *Selection) ToggleAll(visible []int64) {
	all := len(visible) > 0
	for _, id := range visible {
		if !s.ids[id] {
			all = false
			break
		}
	}
	if all {
		s.Clear()
		return
	}
	for _, id := range visible {
		s.ids[id] = true
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = make(map[int64]bool)
}

// Has reports whether the thread id is selected.
func (s *Selection) Has(id int64) bool {
	return s.ids[id]
}

// Count returns the number of selected threads.
func (s *Selection) Count() int {
	return len(s.ids)
}

// IDs returns the selected thread ids in ascending order.
func (s *Selection) IDs() []int64 {
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
