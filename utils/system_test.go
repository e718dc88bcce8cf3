package utils

import "testing"

func TestGetOptimalWorkerCount(t *testing.T) {
	if got := GetOptimalWorkerCount("4"); got != 4 {
		t.Errorf("manual override = %d, want 4", got)
	}
	if got := GetOptimalWorkerCount("0"); got < 1 || got > 16 {
		t.Errorf("invalid override fell outside [1, 16]: %d", got)
	}
	if got := GetOptimalWorkerCount("auto"); got < 1 || got > 16 {
		t.Errorf("auto sizing fell outside [1, 16]: %d", got)
	}
}
