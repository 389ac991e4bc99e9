package inbox

// deltaNotifier tracks successive unread-count observations and decides
// when a notification should fire. Only a strict increase fires, so neither
// the initial load nor reading messages ever notifies.
type deltaNotifier struct {
	last   int
	primed bool
}

// observe records a new unread count. It returns the positive delta and
// whether a notification should fire. The first observation after
// (re)initialization never fires; there is no baseline to diff against.
func (n *deltaNotifier) observe(count int) (delta int, fire bool) {
	if !n.primed {
		n.primed = true
		n.last = count
		return 0, false
	}

	prev := n.last
	n.last = count
	if count > prev {
		return count - prev, true
	}
	return 0, false
}

// reset clears the baseline, as on logout or reconnect.
func (n *deltaNotifier) reset() {
	n.primed = false
	n.last = 0
}
