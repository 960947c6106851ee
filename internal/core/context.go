package core

import (
	"context"
	"strings"
)

// Permissions checked by the HTTP layer.
const (
	PermManage   = "i18n.manage"
	PermUpload   = "i18n.upload"
	PermModerate = "i18n.moderate"
)

const permWildcard = "*"

// Identity is the caller as resolved by the authentication layer.
// The zero Identity is anonymous.
type Identity struct {
	UserID      string
	Permissions []string
}

// Authenticated reports whether the caller is a known user.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// HasPermission reports whether any granted permission matches name.
// Grants match exactly, "*" matches everything, and "i18n.*" matches any
// permission under the i18n. namespace.
func (i Identity) HasPermission(name string) bool {
	for _, granted := range i.Permissions {
		if permissionMatches(name, granted) {
			return true
		}
	}
	return false
}

func permissionMatches(name, pattern string) bool {
	if name == pattern || pattern == permWildcard {
		return true
	}
	if strings.HasSuffix(pattern, "."+permWildcard) {
		prefix := strings.TrimSuffix(pattern, permWildcard)
		return strings.HasPrefix(name, prefix)
	}
	return false
}

type contextKey string

const ctxKeyIdentity contextKey = "identity"

// ContextWithIdentity attaches the caller identity to ctx.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFromContext returns the caller identity, or the anonymous
// identity when none was attached.
func IdentityFromContext(ctx context.Context) Identity {
	if v, ok := ctx.Value(ctxKeyIdentity).(Identity); ok {
		return v
	}
	return Identity{}
}
