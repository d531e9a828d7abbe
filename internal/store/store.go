package store

import (
	"context"
	"errors"

	"github.com/Jackrayallday/uniproj/internal/model"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrConflict           = errors.New("already exists")
	// ErrDataIntegrity marks a corrupt backing record, e.g. a user with no
	// stored password hash. Surfaced as a server error, never as a login failure.
	ErrDataIntegrity = errors.New("corrupt record")
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, user model.User) error
	Delete(ctx context.Context, email string) error
}

type ACLStore interface {
	// Get returns the entry for email, which may be empty.
	Get(ctx context.Context, email string) (model.ACLEntry, error)
	Put(ctx context.Context, email string, entry model.ACLEntry) error
	// Grant is idempotent.
	Grant(ctx context.Context, email, resource, action string) error
	// Revoke is idempotent and removes the resource key once its action
	// set becomes empty.
	Revoke(ctx context.Context, email, resource, action string) error
}

type CourseStore interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	AddCourse(ctx context.Context, course model.Course) error
	Enroll(ctx context.Context, course, student string) error
	RemoveStudent(ctx context.Context, course, student string) error
}

type AssignmentStore interface {
	ListAssignments(ctx context.Context, course string) ([]model.Assignment, error)
	AddAssignment(ctx context.Context, assignment model.Assignment) error
	RemoveAssignment(ctx context.Context, course, title string) error
}

type GradeStore interface {
	// UpsertGrade replaces an existing grade for the same course,
	// assignment and student, otherwise appends.
	UpsertGrade(ctx context.Context, grade model.Grade) error
	ListGradesByStudent(ctx context.Context, student string) ([]model.Grade, error)
}

type MaterialStore interface {
	ListMaterials(ctx context.Context, course string) ([]model.Material, error)
	AddMaterial(ctx context.Context, material model.Material) error
}
