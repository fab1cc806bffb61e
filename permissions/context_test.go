package permissions_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookery/permissions"
	"bookery/shared/constant"
)

func TestFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")
	ctx = context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleAgent)

	principal := permissions.FromContext(ctx)

	assert.Equal(t, "user-1", principal.ID)
	assert.Equal(t, constant.RoleAgent, principal.Role)
}

func TestFromContext_Anonymous(t *testing.T) {
	principal := permissions.FromContext(context.Background())

	assert.Empty(t, principal.ID)
	assert.Empty(t, principal.Role)

	gate, err := permissions.NewGate()
	require.NoError(t, err)

	decision := gate.Check(principal, permissions.Resource{Kind: permissions.ResourceBooking}, permissions.ActionRead)

	assert.Equal(t, permissions.DecisionDeny, decision)
}
