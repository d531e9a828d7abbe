package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Jackrayallday/uniproj/internal/model"
	"github.com/Jackrayallday/uniproj/internal/store"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	return s
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	user := model.User{Email: "tiger.woods@golf.com", PasswordHash: "x", Role: model.RoleStudent}
	if err := s.Create(ctx, user); err != nil {
		t.Fatalf("create error: %v", err)
	}
	if err := s.Create(ctx, user); !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	got, err := s.GetByEmail(ctx, "tiger.woods@golf.com")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got.Role != model.RoleStudent {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestEmailMatchIsCaseSensitive(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	user := model.User{Email: "Tiger.Woods@golf.com", PasswordHash: "x", Role: model.RoleStudent}
	if err := s.Create(ctx, user); err != nil {
		t.Fatalf("create error: %v", err)
	}
	if _, err := s.GetByEmail(ctx, "tiger.woods@golf.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for different casing, got %v", err)
	}
}

func TestRevokeCompactsEmptyResource(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	email := "babe.ruth@mlb.com"

	if err := s.Grant(ctx, email, "courses", "write"); err != nil {
		t.Fatalf("grant error: %v", err)
	}
	if err := s.Grant(ctx, email, "courses", "write"); err != nil {
		t.Fatalf("expected repeated grant to succeed, got %v", err)
	}
	entry, err := s.Get(ctx, email)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if len(entry["courses"]) != 1 {
		t.Fatalf("expected idempotent grant, got %v", entry["courses"])
	}

	if err := s.Revoke(ctx, email, "courses", "write"); err != nil {
		t.Fatalf("revoke error: %v", err)
	}
	entry, err = s.Get(ctx, email)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if _, ok := entry["courses"]; ok {
		t.Fatalf("expected resource key removed once empty, got %v", entry)
	}

	// Revoking what is already absent succeeds.
	if err := s.Revoke(ctx, email, "courses", "write"); err != nil {
		t.Fatalf("expected idempotent revoke, got %v", err)
	}
	if err := s.Revoke(ctx, "nobody@example.com", "courses", "write"); err != nil {
		t.Fatalf("expected revoke for unknown email to succeed, got %v", err)
	}
}

func TestConcurrentEnrollKeepsBothStudents(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.AddCourse(ctx, model.Course{Course: "Databases", Instructor: "babe.ruth@mlb.com"}); err != nil {
		t.Fatalf("add course error: %v", err)
	}

	var wg sync.WaitGroup
	students := []string{"tiger.woods@golf.com", "serena.williams@tennis.com"}
	errs := make([]error, len(students))
	for i, student := range students {
		wg.Add(1)
		go func(i int, student string) {
			defer wg.Done()
			errs[i] = s.Enroll(ctx, "Databases", student)
		}(i, student)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("enroll %d error: %v", i, err)
		}
	}

	courses, err := s.ListCourses(ctx)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(courses) != 1 || len(courses[0].Students) != 2 {
		t.Fatalf("expected both enrollments to persist, got %+v", courses)
	}
}

func TestGradeUpsert(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	grade := model.Grade{Course: "Databases", Assignment: "HW1", Student: "tiger.woods@golf.com", Grade: 70}
	if err := s.UpsertGrade(ctx, grade); err != nil {
		t.Fatalf("upsert error: %v", err)
	}
	grade.Grade = 85
	if err := s.UpsertGrade(ctx, grade); err != nil {
		t.Fatalf("upsert error: %v", err)
	}

	grades, err := s.ListGradesByStudent(ctx, "tiger.woods@golf.com")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(grades) != 1 || grades[0].Grade != 85 {
		t.Fatalf("expected single updated grade, got %+v", grades)
	}
}

func TestCorruptFileIsDataIntegrityError(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write error: %v", err)
	}
	if _, err := s.GetByEmail(context.Background(), "x@y.z"); !errors.Is(err, store.ErrDataIntegrity) {
		t.Fatalf("expected data integrity error, got %v", err)
	}
}

func TestSavedFilesAreValidJSON(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	ctx := context.Background()
	if err := s.AddMaterial(ctx, model.Material{Course: "Databases", Title: "Syllabus", Link: "https://example.com/syllabus"}); err != nil {
		t.Fatalf("add material error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "materials.json"))
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	var materials []model.Material
	if err := json.Unmarshal(data, &materials); err != nil {
		t.Fatalf("expected valid JSON on disk: %v", err)
	}
	if len(materials) != 1 || materials[0].Title != "Syllabus" {
		t.Fatalf("unexpected contents: %+v", materials)
	}
}
