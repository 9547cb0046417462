package auth

import (
	"context"

	"github.com/sebuszqo/FinanceTracker/internal/user"
)

type contextKey int

const (
	userContextKey contextKey = iota
	identitySlotKey
)

// ContextWithUser attaches the authenticated user. Only the access-token
// middleware should call it outside of tests.
func ContextWithUser(ctx context.Context, u *user.User) context.Context {
	if slot, ok := ctx.Value(identitySlotKey).(*IdentitySlot); ok {
		slot.UserID = u.ID
	}
	return context.WithValue(ctx, userContextKey, u)
}

func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userContextKey).(*user.User)
	return u, ok && u != nil
}

// IdentitySlot lets an outer middleware see who the inner auth middleware
// authenticated, since context values only flow inward.
type IdentitySlot struct {
	UserID int64
}

func WithIdentitySlot(ctx context.Context) (context.Context, *IdentitySlot) {
	slot := &IdentitySlot{}
	return context.WithValue(ctx, identitySlotKey, slot), slot
}
