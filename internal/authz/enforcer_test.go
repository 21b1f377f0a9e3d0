package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amparo/internal/models"
)

func TestEnforcerPolicy(t *testing.T) {
	e, err := NewEnforcer()
	require.NoError(t, err)

	tests := []struct {
		role     models.Role
		resource string
		action   string
		want     bool
	}{
		{models.RolePatient, ResourceOwnRequests, ActionWrite, true},
		{models.RolePatient, ResourceOwnRequests, ActionRead, true},
		{models.RolePatient, ResourceAllRequests, ActionRead, false},
		{models.RoleCaregiver, ResourceAllRequests, ActionRead, true},
		{models.RoleCaregiver, ResourceOwnRequests, ActionWrite, false},
		{models.RoleCaregiver, ResourceAllRequests, ActionWrite, false},
		{models.RoleCaregiver, ResourceProfile, ActionWrite, true},
		{models.Role("admin"), ResourceProfile, ActionRead, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Allowed(tt.role, tt.resource, tt.action), "%s %s %s", tt.role, tt.resource, tt.action)
	}
}

func TestLoadPolicyRejectsMalformedLine(t *testing.T) {
	e, err := NewEnforcer()
	require.NoError(t, err)
	assert.Error(t, loadPolicy(e.enforcer, "p, patient, profile"))
}
