package help

import (
	"strings"
	"testing"
)

func TestHelpDescribesToggleOnlyWhenAllowed(t *testing.T) {
	on := New(true).View(100, 40)
	if !strings.Contains(on, "toggle complete") {
		t.Error("expected toggle binding when allowed")
	}

	off := New(false).View(100, 40)
	if strings.Contains(off, "toggle complete") {
		t.Error("toggle binding should be hidden when disabled")
	}
	if !strings.Contains(off, "only way to complete") {
		t.Error("expected policy note when toggling is disabled")
	}
}

func TestHelpShowsPassThreshold(t *testing.T) {
	if !strings.Contains(New(true).View(100, 40), "Score 8 or more") {
		t.Error("expected pass threshold")
	}
}
