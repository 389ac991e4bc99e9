package tui

import "testing"

func TestCalculateScrollOffset(t *testing.T) {
	tests := []struct {
		name          string
		cursor        int
		currentOffset int
		pageSize      int
		want          int
	}{
		{"cursor within window", 5, 0, 10, 0},
		{"cursor above window", 2, 5, 10, 2},
		{"cursor below window", 15, 0, 10, 6},
		{"cursor at window bottom edge", 9, 0, 10, 0},
		{"cursor just past bottom", 10, 0, 10, 1},
		{"cursor at offset", 5, 5, 10, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateScrollOffset(tt.cursor, tt.currentOffset, tt.pageSize)
			if got != tt.want {
				t.Errorf("calculateScrollOffset(%d, %d, %d) = %d, want %d",
					tt.cursor, tt.currentOffset, tt.pageSize, got, tt.want)
			}
		})
	}
}

func TestNavigateList(t *testing.T) {
	m := Model{pageSize: 5}

	if !m.navigateList("j", 10) {
		t.Fatal("j not treated as navigation")
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}

	m.navigateList("G", 10)
	if m.cursor != 9 {
		t.Errorf("cursor after G = %d, want 9", m.cursor)
	}
	if m.scrollOffset != 5 {
		t.Errorf("scrollOffset after G = %d, want 5", m.scrollOffset)
	}

	m.navigateList("g", 10)
	if m.cursor != 0 || m.scrollOffset != 0 {
		t.Errorf("after g: cursor=%d offset=%d, want 0,0", m.cursor, m.scrollOffset)
	}

	m.navigateList("k", 10)
	if m.cursor != 0 {
		t.Errorf("k at top moved cursor to %d", m.cursor)
	}

	if m.navigateList("x", 10) {
		t.Error("x treated as navigation key")
	}
}

func TestNavigateListEmpty(t *testing.T) {
	m := Model{pageSize: 5}
	m.navigateList("j", 0)
	m.navigateList("G", 0)
	if m.cursor != 0 {
		t.Errorf("cursor on empty list = %d, want 0", m.cursor)
	}
}
