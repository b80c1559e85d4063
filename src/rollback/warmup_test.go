package rollback

import "testing"

func TestEnableAfter(t *testing.T) {
	gate := NewEnableAfter(0, 60)

	if !gate.IsEnabled(0) {
		t.Fatal("the start frame itself counts as enabled")
	}
	if gate.IsEnabled(1) {
		t.Fatal("frame 1 is inside the warm-up window")
	}
	if gate.IsEnabled(59) {
		t.Fatal("frame 59 is inside the warm-up window")
	}
	if !gate.IsEnabled(60) {
		t.Fatal("the end frame counts as enabled")
	}
	if !gate.IsEnabled(300) {
		t.Fatal("frames past the window are enabled")
	}
}

func TestEnableAfterOffset(t *testing.T) {
	gate := NewEnableAfter(100, 60)

	if gate.Start != 100 || gate.End != 160 {
		t.Fatalf("unexpected window: %+v", gate)
	}
	if !gate.IsEnabled(99) {
		t.Fatal("frames before the window are enabled")
	}
	if gate.IsEnabled(130) {
		t.Fatal("frame 130 is inside the warm-up window")
	}
}
