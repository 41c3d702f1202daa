package ctxutil

import (
	"context"
)

type ctxKey string

const (
	tenantIDKey  ctxKey = "tenant_id"
	roleKey      ctxKey = "role"
	requestIDKey ctxKey = "request_id"
)

const (
	roleAdmin     = "admin"
	roleModerator = "moderator"
)

// WithTenantID stores the caller's tenant ID in the context.
func WithTenantID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tenantIDKey, id)
}

// TenantIDFromCtx extracts the tenant ID from the context.
// Returns "" and false if the value is missing, empty, or wrong type.
func TenantIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tenantIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// WithRole stores the caller's role in the context.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

// RoleFromCtx extracts the caller's role. Returns "" if absent.
func RoleFromCtx(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

// IsAdminCtx reports whether the caller has the admin role.
func IsAdminCtx(ctx context.Context) bool {
	return RoleFromCtx(ctx) == roleAdmin
}

// IsModeratorCtx reports whether the caller may moderate any tenant's
// submissions. Admins are moderators too.
func IsModeratorCtx(ctx context.Context) bool {
	role := RoleFromCtx(ctx)
	return role == roleModerator || role == roleAdmin
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
