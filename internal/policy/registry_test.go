package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_Patterns(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name  string
		token string
		want  []string
	}{
		{name: "known profile", token: "steam", want: NewSteamProfile().ProcessPatterns()},
		{name: "known profile is case-insensitive", token: "EPIC", want: NewEpicProfile().ProcessPatterns()},
		{name: "unknown token has no patterns", token: "sh", want: nil},
		{name: "empty token matches nothing", token: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Patterns(tt.token))
		})
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"epic", "steam"}, r.List())
}

func TestRegistry_DisplayName(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "Steam", r.DisplayName("steam"))
	assert.Equal(t, "Amazon", r.DisplayName("Amazon"))
}
