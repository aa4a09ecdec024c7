// Package identity carries the authenticated caller through a request.
// Authentication itself happens upstream; this package only records who the
// caller is and whether they hold the admin role.
package identity

import (
	"context"
	"strings"

	"exam-prep-service/internal/domain"
)

type ctxKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller identity, if any.
func FromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(domain.Identity)
	if !ok || id.UID == "" {
		return domain.Identity{}, false
	}
	return id, true
}

// RequireAdmin returns the caller when it is an admin.
func RequireAdmin(ctx context.Context) (domain.Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	if !id.Admin {
		return id, domain.ErrForbidden
	}
	return id, nil
}

// AllowList grants the admin role by user id or email.
type AllowList struct {
	uids   map[string]struct{}
	emails map[string]struct{}
}

func NewAllowList(uids, emails []string) AllowList {
	a := AllowList{
		uids:   make(map[string]struct{}, len(uids)),
		emails: make(map[string]struct{}, len(emails)),
	}
	for _, uid := range uids {
		if uid = strings.TrimSpace(uid); uid != "" {
			a.uids[uid] = struct{}{}
		}
	}
	for _, email := range emails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			a.emails[email] = struct{}{}
		}
	}
	return a
}

// Resolve builds the identity for uid/email, marking it admin when allowed.
func (a AllowList) Resolve(uid, email string) domain.Identity {
	id := domain.Identity{UID: strings.TrimSpace(uid), Email: strings.TrimSpace(email)}
	if id.UID == "" {
		return id
	}
	_, byUID := a.uids[id.UID]
	_, byEmail := a.emails[strings.ToLower(id.Email)]
	id.Admin = byUID || byEmail
	return id
}
