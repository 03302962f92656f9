package auth

import (
	"context"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/rbac"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/user"
)

// Identity is the caller as established by a verified token.
type Identity struct {
	UserID   int64     `json:"id"`
	Username string    `json:"username"`
	Role     user.Role `json:"role"`
}

type ctxKey struct{}

// WithIdentity stores the caller and exposes its role to rbac.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, ctxKey{}, id)
	return rbac.WithRole(ctx, string(id.Role))
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
