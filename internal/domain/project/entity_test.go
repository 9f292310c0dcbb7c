package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProject_IsAssigned(t *testing.T) {
	p := Project{
		AssignedWorkers: []string{"w1", "w2"},
		AssignedDrivers: []string{"d1"},
	}

	assert.True(t, p.IsAssigned("w1"))
	assert.True(t, p.IsAssigned("d1"))
	assert.False(t, p.IsAssigned("e1"))
	assert.True(t, p.HasDriver("d1"))
	assert.False(t, p.HasDriver("w1"))
}
