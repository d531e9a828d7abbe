// Package authz is the single decision point in front of every protected
// operation. A route declares what it needs; the gate resolves the session
// and checks the requirements in order, stopping at the first failure.
package authz

import (
	"context"
	"errors"

	"github.com/Jackrayallday/uniproj/internal/model"
	"github.com/Jackrayallday/uniproj/internal/session"
	"github.com/Jackrayallday/uniproj/internal/store"
)

var (
	// ErrUnauthenticated means no valid, unexpired session backed the request.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the session is valid but a role or ACL check failed.
	ErrForbidden = errors.New("access denied")
)

// Requirement is one condition a route demands. Login alone requires only a
// valid session; a role requirement matches exactly (an admin does not pass
// an instructor gate); a permission requirement consults the caller's ACL.
type Requirement struct {
	role     model.Role
	resource string
	action   string
}

func Login() Requirement {
	return Requirement{}
}

func Role(role model.Role) Requirement {
	return Requirement{role: role}
}

func Permission(resource, action string) Requirement {
	return Requirement{resource: resource, action: action}
}

type Gate struct {
	sessions *session.Manager
	acl      store.ACLStore
}

func NewGate(sessions *session.Manager, acl store.ACLStore) *Gate {
	return &Gate{sessions: sessions, acl: acl}
}

// Authorize evaluates the requirements in order against the session behind
// token. With no requirements the request is allowed without a session.
// Role and permission checks are independent; composing both means both
// must pass.
func (g *Gate) Authorize(ctx context.Context, token string, reqs ...Requirement) (session.Identity, error) {
	if len(reqs) == 0 {
		return session.Identity{}, nil
	}

	ident, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return session.Identity{}, ErrUnauthenticated
		}
		return session.Identity{}, err
	}

	for _, req := range reqs {
		if req.role != "" && ident.Role != req.role {
			return ident, ErrForbidden
		}
		if req.resource != "" {
			entry, err := g.acl.Get(ctx, ident.Email)
			if err != nil {
				return ident, err
			}
			if !entry.Has(req.resource, req.action) {
				return ident, ErrForbidden
			}
		}
	}
	return ident, nil
}
