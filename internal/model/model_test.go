package model

import "testing"

func TestPriorityDefaultsToLow(t *testing.T) {
	cases := map[Priority]Priority{
		"":        PriorityLow,
		"urgent":  PriorityLow,
		"HIGH":    PriorityHigh,
		" medium": PriorityMedium,
	}
	for input, want := range cases {
		if got := input.OrDefault(); got != want {
			t.Fatalf("OrDefault(%q): expected %q, got %q", input, want, got)
		}
	}
}

func TestPriorityCycleWraps(t *testing.T) {
	if got := PriorityHigh.Next(); got != PriorityLow {
		t.Fatalf("expected high.Next() to wrap to low, got %q", got)
	}
	if got := PriorityLow.Prev(); got != PriorityHigh {
		t.Fatalf("expected low.Prev() to wrap to high, got %q", got)
	}
	if got := PriorityLow.Next(); got != PriorityMedium {
		t.Fatalf("expected low.Next() to be medium, got %q", got)
	}
}

func TestParsePriorityRejectsUnknown(t *testing.T) {
	if _, ok := ParsePriority("critical"); ok {
		t.Fatalf("expected critical to be rejected")
	}
	if p, ok := ParsePriority("Low"); !ok || p != PriorityLow {
		t.Fatalf("expected Low to parse as low, got %q %v", p, ok)
	}
}
