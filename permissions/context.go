package permissions

import (
	"context"

	"bookery/shared/constant"
)

// FromContext rebuilds the principal stamped by the auth middleware. A missing
// or anonymous context yields a zero principal, which the gate denies.
func FromContext(ctx context.Context) Principal {
	id, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	return Principal{
		ID:   id,
		Role: role,
	}
}
