package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeploymentConfig_Complete(t *testing.T) {
	var missing *DeploymentConfig
	assert.False(t, missing.Complete())
	assert.False(t, (&DeploymentConfig{ProjectID: "p1"}).Complete())
	assert.False(t, (&DeploymentConfig{ServiceID: "s1"}).Complete())
	assert.True(t, (&DeploymentConfig{ProjectID: "p1", ServiceID: "s1"}).Complete())
}
