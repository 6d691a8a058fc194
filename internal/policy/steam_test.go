package policy

import (
	"testing"
)

func TestSteamProfile_ID(t *testing.T) {
	p := NewSteamProfile()
	if p.ID() != "steam" {
		t.Errorf("expected ID 'steam', got '%s'", p.ID())
	}
}

func TestSteamProfile_Name(t *testing.T) {
	p := NewSteamProfile()
	if p.Name() != "Steam" {
		t.Errorf("expected Name 'Steam', got '%s'", p.Name())
	}
}

func TestSteamProfile_ProcessPatterns(t *testing.T) {
	p := NewSteamProfile()
	patterns := p.ProcessPatterns()

	if len(patterns) == 0 {
		t.Error("expected at least one process pattern")
	}

	expectedPatterns := map[string]bool{
		"steam_osx":      false,
		"steamwebhelper": false,
	}

	for _, pattern := range patterns {
		if _, ok := expectedPatterns[pattern]; ok {
			expectedPatterns[pattern] = true
		}
	}

	for pattern, found := range expectedPatterns {
		if !found {
			t.Errorf("expected pattern '%s' not found", pattern)
		}
	}
}
