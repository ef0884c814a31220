package userctx

import (
	"context"
	"strings"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// DefaultOwnerID owns every snapshot when authentication is disabled.
const DefaultOwnerID = "default"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok
}

// OwnerID returns the authenticated user or DefaultOwnerID for anonymous requests.
func OwnerID(ctx context.Context) string {
	userID, ok := GetUserID(ctx)
	if !ok || strings.TrimSpace(userID) == "" {
		return DefaultOwnerID
	}
	return strings.TrimSpace(userID)
}
