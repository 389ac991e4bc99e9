package tui

// calculateScrollOffset computes the new scroll offset to keep the cursor
// visible within pageSize.
func calculateScrollOffset(cursor, currentOffset, pageSize int) int {
	if cursor < currentOffset {
		return cursor
	}
	if cursor >= currentOffset+pageSize {
		return cursor - pageSize + 1
	}
	return currentOffset
}

func (m *Model) ensureCursorVisible() {
	m.scrollOffset = calculateScrollOffset(m.cursor, m.scrollOffset, m.pageSize)
}

// navigateList handles cursor movement keys for the thread list. Returns
// true if the key was a navigation key.
func (m *Model) navigateList(key string, itemCount int) bool {
	changed := false

	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			changed = true
		}
	case "down", "j":
		if m.cursor < itemCount-1 {
			m.cursor++
			changed = true
		}
	case "pgup", "ctrl+u":
		m.cursor -= m.pageSize
		if m.cursor < 0 {
			m.cursor = 0
		}
		changed = true
	case "pgdown", "ctrl+d":
		m.cursor += m.pageSize
		if m.cursor >= itemCount {
			m.cursor = itemCount - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		changed = true
	case "home", "g":
		m.cursor = 0
		m.scrollOffset = 0
		return true
	case "end", "G":
		m.cursor = itemCount - 1
		if m.cursor < 0 {
			m.cursor = 0
		}
		changed = true
	default:
		return false
	}

	if changed {
		m.ensureCursorVisible()
	}
	return true
}
