package frame

import "testing"

func TestWindowIsConfirmed(t *testing.T) {
	w := NewWindow(10, 8)

	if !w.IsConfirmed(10) {
		t.Fatal("frame 10 should be confirmed")
	}
	if !w.IsConfirmed(0) {
		t.Fatal("frame 0 should be confirmed")
	}
	if w.IsConfirmed(11) {
		t.Fatal("frame 11 should not be confirmed")
	}
}

func TestWindowIsReportable(t *testing.T) {
	w := NewWindow(20, 8)

	// 20 - 8 = 12 is the first frame still at risk of being rolled back.
	if w.IsReportable(12) {
		t.Fatal("frame 12 is inside the prediction window")
	}
	if !w.IsReportable(11) {
		t.Fatal("frame 11 should be reportable")
	}
	if w.IsReportable(20) {
		t.Fatal("the confirmed frame itself is never reportable")
	}
}

func TestWindowZero(t *testing.T) {
	// The no-op frame: nothing is reportable at the start of a session.
	w := NewWindow(0, 8)

	if w.IsReportable(0) {
		t.Fatal("frame 0 should not be reportable at confirmed=0")
	}
	if !w.IsConfirmed(0) {
		t.Fatal("frame 0 should be confirmed at confirmed=0")
	}
}
