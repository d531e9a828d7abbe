package store_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Jackrayallday/uniproj/internal/model"
	"github.com/Jackrayallday/uniproj/internal/store"
	"github.com/Jackrayallday/uniproj/internal/store/jsonfile"
)

func newCredentials(t *testing.T) (*store.Credentials, *jsonfile.Store) {
	t.Helper()
	files, err := jsonfile.New(t.TempDir())
	if err != nil {
		t.Fatalf("jsonfile.New: %v", err)
	}
	return store.NewCredentials(files, files, bcrypt.MinCost), files
}

func TestVerifyLoginRoundTrip(t *testing.T) {
	creds, _ := newCredentials(t)
	ctx := context.Background()

	if err := creds.Register(ctx, "tiger.woods@golf.com", "woods123", model.RoleStudent); err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := creds.VerifyLogin(ctx, "tiger.woods@golf.com", "woods123")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.Role != model.RoleStudent {
		t.Fatalf("role = %q, want student", user.Role)
	}
}

func TestVerifyLoginFailuresAreIndistinguishable(t *testing.T) {
	creds, _ := newCredentials(t)
	ctx := context.Background()

	if err := creds.Register(ctx, "babe.ruth@mlb.com", "ruth456", model.RoleInstructor); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, unknownErr := creds.VerifyLogin(ctx, "nobody@example.com", "anything")
	_, wrongErr := creds.VerifyLogin(ctx, "babe.ruth@mlb.com", "wrong")

	if !errors.Is(unknownErr, store.ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v, want ErrInvalidCredentials", unknownErr)
	}
	if !errors.Is(wrongErr, store.ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v, want ErrInvalidCredentials", wrongErr)
	}
}

func TestVerifyLoginEmptyHashIsIntegrityError(t *testing.T) {
	creds, files := newCredentials(t)
	ctx := context.Background()

	if err := files.Create(ctx, model.User{
		Email: "broken@example.com", PasswordHash: "", Role: model.RoleStudent,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := creds.VerifyLogin(ctx, "broken@example.com", "anything")
	if !errors.Is(err, store.ErrDataIntegrity) {
		t.Fatalf("got %v, want ErrDataIntegrity", err)
	}
}

func TestRegisterSeedsDefaultPermissions(t *testing.T) {
	creds, files := newCredentials(t)
	ctx := context.Background()

	if err := creds.Register(ctx, "babe.ruth@mlb.com", "ruth456", model.RoleInstructor); err != nil {
		t.Fatalf("register: %v", err)
	}

	entry, err := files.Get(ctx, "babe.ruth@mlb.com")
	if err != nil {
		t.Fatalf("acl get: %v", err)
	}
	if !entry.Has("courses", "write") {
		t.Fatalf("instructor should get course write, got %v", entry)
	}
	if !entry.Has("grades", "read") {
		t.Fatalf("instructor should get grade read, got %v", entry)
	}
}

type failingACL struct {
	store.ACLStore
}

func (failingACL) Put(context.Context, string, model.ACLEntry) error {
	return errors.New("disk full")
}

func TestRegisterRollsBackUserOnACLFailure(t *testing.T) {
	files, err := jsonfile.New(t.TempDir())
	if err != nil {
		t.Fatalf("jsonfile.New: %v", err)
	}
	creds := store.NewCredentials(files, failingACL{files}, bcrypt.MinCost)
	ctx := context.Background()

	if err := creds.Register(ctx, "tiger.woods@golf.com", "woods123", model.RoleStudent); err == nil {
		t.Fatal("expected registration to fail")
	}

	if _, err := files.GetByEmail(ctx, "tiger.woods@golf.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("user should not survive a failed registration, got %v", err)
	}
}
