package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepos-backend/internal/catalog"
	"github.com/angelmondragon/storepos-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxUsername  contextKey = "username"
	ctxRole      contextKey = "actor_role"
	ctxStoreID   contextKey = "store_id"
	ctxStoreName contextKey = "store_name"
	ctxAccessID  contextKey = "access_id"
)

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func UserIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxUserID)
}

func RoleFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxRole)
}

func StoreIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxStoreID)
}

// AccessIDFromContext returns the jti of the token that authenticated the request.
func AccessIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxAccessID)
}

// ViewerFromContext rebuilds the session the auth middleware attached.
// ok is false for unauthenticated requests.
func ViewerFromContext(ctx context.Context) (catalog.Viewer, bool) {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return catalog.Viewer{}, false
	}
	viewer := catalog.Viewer{
		UserID:    userID,
		Username:  stringValue(ctx, ctxUsername),
		Role:      enums.Role(RoleFromContext(ctx)),
		StoreName: stringValue(ctx, ctxStoreName),
	}
	if raw := StoreIDFromContext(ctx); raw != "" {
		if storeID, err := uuid.Parse(raw); err == nil {
			viewer.StoreID = &storeID
		}
	}
	return viewer, true
}

// WithViewer injects an authenticated session into the context.
func WithViewer(ctx context.Context, viewer catalog.Viewer) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, viewer.UserID.String())
	ctx = context.WithValue(ctx, ctxUsername, viewer.Username)
	ctx = context.WithValue(ctx, ctxRole, string(viewer.Role))
	if viewer.StoreID != nil {
		ctx = context.WithValue(ctx, ctxStoreID, viewer.StoreID.String())
		ctx = context.WithValue(ctx, ctxStoreName, viewer.StoreName)
	}
	return ctx
}

func withAccessID(ctx context.Context, accessID string) context.Context {
	return context.WithValue(ctx, ctxAccessID, accessID)
}
