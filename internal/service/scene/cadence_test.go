package scene

import "testing"

func TestCadenceDue(t *testing.T) {
	tests := []struct {
		userTurnCount int
		want          bool
	}{
		{0, false},
		{1, false},
		{2, false},
		{3, false},
		{4, false},
		{5, true},
		{6, false},
		{9, false},
		{10, true},
		{15, true},
		{-5, false},
	}

	for _, tt := range tests {
		if got := CadenceDue(tt.userTurnCount); got != tt.want {
			t.Errorf("CadenceDue(%d) = %v, want %v", tt.userTurnCount, got, tt.want)
		}
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		userTurnCount int
		want          int
	}{
		{1, 1},
		{4, 1},
		{5, 1},
		{6, 2},
		{10, 2},
		{11, 3},
		{15, 3},
	}

	for _, tt := range tests {
		if got := Number(tt.userTurnCount); got != tt.want {
			t.Errorf("Number(%d) = %d, want %d", tt.userTurnCount, got, tt.want)
		}
	}
}

func TestRotationPlaceholder(t *testing.T) {
	// Scene 1 maps to index 0 and the rotation wraps.
	if got := RotationPlaceholder(1); got != "/globe.svg" {
		t.Errorf("RotationPlaceholder(1) = %q, want /globe.svg", got)
	}
	if got := RotationPlaceholder(6); got != "/globe.svg" {
		t.Errorf("RotationPlaceholder(6) = %q, want /globe.svg", got)
	}
	if got := RotationPlaceholder(3); got != "/window.svg" {
		t.Errorf("RotationPlaceholder(3) = %q, want /window.svg", got)
	}

	// Deterministic across calls.
	for n := 1; n <= 10; n++ {
		if RotationPlaceholder(n) != RotationPlaceholder(n) {
			t.Fatalf("RotationPlaceholder(%d) not deterministic", n)
		}
	}
}
