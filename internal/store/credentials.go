package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jackrayallday/uniproj/internal/crypto"
	"github.com/Jackrayallday/uniproj/internal/model"
)

// Credentials verifies logins and registers users against a UserStore,
// installing the role-derived default ACL entry alongside each new account.
type Credentials struct {
	users      UserStore
	acl        ACLStore
	bcryptCost int
}

func NewCredentials(users UserStore, acl ACLStore, bcryptCost int) *Credentials {
	return &Credentials{users: users, acl: acl, bcryptCost: bcryptCost}
}

// VerifyLogin resolves email and checks password. Unknown email and wrong
// password both come back as ErrInvalidCredentials; a user record with no
// stored hash is ErrDataIntegrity.
func (c *Credentials) VerifyLogin(ctx context.Context, email, password string) (model.User, error) {
	user, err := c.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}
	if user.PasswordHash == "" {
		return model.User{}, fmt.Errorf("%w: user %s has no password hash", ErrDataIntegrity, email)
	}
	if err := crypto.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, crypto.ErrMismatch) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}
	return user, nil
}

// Register creates the user and its default ACL entry. The identity is
// all-or-nothing: if the ACL write fails the user record is removed so a
// half-created account never becomes loginable.
func (c *Credentials) Register(ctx context.Context, email, password string, role model.Role) error {
	hash, err := crypto.HashPassword(password, c.bcryptCost)
	if err != nil {
		return err
	}
	user := model.User{Email: email, PasswordHash: hash, Role: role}
	if err := c.users.Create(ctx, user); err != nil {
		return err
	}
	if err := c.acl.Put(ctx, email, model.DefaultACL(role)); err != nil {
		_ = c.users.Delete(ctx, email)
		return err
	}
	return nil
}
