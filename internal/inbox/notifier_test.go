package inbox

import "testing"

func TestNotifierFiresOnlyOnIncrease(t *testing.T) {
	var n deltaNotifier

	observations := []int{5, 5, 8, 3, 3, 9}
	var deltas []int
	for _, count := range observations {
		if delta, fire := n.observe(count); fire {
			deltas = append(deltas, delta)
		}
	}

	if len(deltas) != 2 {
		t.Fatalf("got %d events (%v), want 2", len(deltas), deltas)
	}
	if deltas[0] != 3 || deltas[1] != 6 {
		t.Errorf("got deltas %v, want [3 6]", deltas)
	}
}

func TestNotifierFirstObservationPrimes(t *testing.T) {
	var n deltaNotifier
	if _, fire := n.observe(42); fire {
		t.Error("first observation fired")
	}
	if _, fire := n.observe(42); fire {
		t.Error("unchanged count fired")
	}
}

func TestNotifierReset(t *testing.T) {
	var n deltaNotifier
	n.observe(10)
	n.reset()
	if _, fire := n.observe(50); fire {
		t.Error("first observation after reset fired")
	}
	if delta, fire := n.observe(51); !fire || delta != 1 {
		t.Errorf("got (%d, %v), want (1, true)", delta, fire)
	}
}
