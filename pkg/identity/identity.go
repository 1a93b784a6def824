// Package identity turns bearer credentials into a single normalized
// requester identity.
package identity

import "context"

type Kind string

const (
	KindFirebase Kind = "firebase"
	KindSession  Kind = "session"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the requester as seen by every handler, whichever scheme
// authenticated it.
type Identity struct {
	UserID string
	Kind   Kind
	Role   Role
	Email  string
	Name   string
	Phone  string
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok && id != nil
}
