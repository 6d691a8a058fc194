package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitorArgs(t *testing.T) {
	assert.Equal(t, []string{"monitor"}, MonitorArgs(""))
	assert.Equal(t, []string{"monitor", "--config", "/etc/appgate.yaml"}, MonitorArgs("/etc/appgate.yaml"))
}

// TestStartDetachedWithPath_MissingBinary verifies spawn errors surface.
func TestStartDetachedWithPath_MissingBinary(t *testing.T) {
	err := StartDetachedWithPath("/nonexistent/appgate", "")
	assert.Error(t, err)
}
