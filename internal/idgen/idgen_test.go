package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	id := NewEvent()
	require.True(t, strings.HasPrefix(id, PrefixEvent))
	_, err := uuid.Parse(strings.TrimPrefix(id, PrefixEvent))
	assert.NoError(t, err)
}

func TestNewWindow_Unique(t *testing.T) {
	a, b := NewWindow(), NewWindow()
	assert.True(t, strings.HasPrefix(a, PrefixWindow))
	assert.NotEqual(t, a, b)
}
