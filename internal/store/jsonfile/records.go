package jsonfile

import (
	"context"

	"github.com/Jackrayallday/uniproj/internal/model"
	"github.com/Jackrayallday/uniproj/internal/store"
)

const (
	coursesCollection     = "courses"
	assignmentsCollection = "assignments"
	gradesCollection      = "grades"
	materialsCollection   = "materials"
)

func (s *Store) ListCourses(ctx context.Context) ([]model.Course, error) {
	lock := s.lock(coursesCollection)
	lock.Lock()
	defer lock.Unlock()

	var courses []model.Course
	if err := s.load(coursesCollection, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (s *Store) AddCourse(ctx context.Context, course model.Course) error {
	lock := s.lock(coursesCollection)
	lock.Lock()
	defer lock.Unlock()

	var courses []model.Course
	if err := s.load(coursesCollection, &courses); err != nil {
		return err
	}
	for _, existing := range courses {
		if existing.Course == course.Course {
			return store.ErrConflict
		}
	}
	if course.Students == nil {
		course.Students = []string{}
	}
	courses = append(courses, course)
	return s.save(coursesCollection, courses)
}

func (s *Store) Enroll(ctx context.Context, course, student string) error {
	lock := s.lock(coursesCollection)
	lock.Lock()
	defer lock.Unlock()

	var courses []model.Course
	if err := s.load(coursesCollection, &courses); err != nil {
		return err
	}
	for i := range courses {
		if courses[i].Course != course {
			continue
		}
		for _, enrolled := range courses[i].Students {
			if enrolled == student {
				return store.ErrConflict
			}
		}
		courses[i].Students = append(courses[i].Students, student)
		return s.save(coursesCollection, courses)
	}
	return store.ErrNotFound
}

func (s *Store) RemoveStudent(ctx context.Context, course, student string) error {
	lock := s.lock(coursesCollection)
	lock.Lock()
	defer lock.Unlock()

	var courses []model.Course
	if err := s.load(coursesCollection, &courses); err != nil {
		return err
	}
	for i := range courses {
		if courses[i].Course != course {
			continue
		}
		kept := courses[i].Students[:0]
		for _, enrolled := range courses[i].Students {
			if enrolled != student {
				kept = append(kept, enrolled)
			}
		}
		if len(kept) == len(courses[i].Students) {
			return store.ErrNotFound
		}
		courses[i].Students = kept
		return s.save(coursesCollection, courses)
	}
	return store.ErrNotFound
}

func (s *Store) ListAssignments(ctx context.Context, course string) ([]model.Assignment, error) {
	lock := s.lock(assignmentsCollection)
	lock.Lock()
	defer lock.Unlock()

	var assignments []model.Assignment
	if err := s.load(assignmentsCollection, &assignments); err != nil {
		return nil, err
	}
	matched := make([]model.Assignment, 0)
	for _, assignment := range assignments {
		if assignment.Course == course {
			matched = append(matched, assignment)
		}
	}
	return matched, nil
}

func (s *Store) AddAssignment(ctx context.Context, assignment model.Assignment) error {
	lock := s.lock(assignmentsCollection)
	lock.Lock()
	defer lock.Unlock()

	var assignments []model.Assignment
	if err := s.load(assignmentsCollection, &assignments); err != nil {
		return err
	}
	for _, existing := range assignments {
		if existing.Course == assignment.Course && existing.Title == assignment.Title {
			return store.ErrConflict
		}
	}
	assignments = append(assignments, assignment)
	return s.save(assignmentsCollection, assignments)
}

func (s *Store) RemoveAssignment(ctx context.Context, course, title string) error {
	lock := s.lock(assignmentsCollection)
	lock.Lock()
	defer lock.Unlock()

	var assignments []model.Assignment
	if err := s.load(assignmentsCollection, &assignments); err != nil {
		return err
	}
	kept := assignments[:0]
	for _, assignment := range assignments {
		if assignment.Course == course && assignment.Title == title {
			continue
		}
		kept = append(kept, assignment)
	}
	if len(kept) == len(assignments) {
		return store.ErrNotFound
	}
	return s.save(assignmentsCollection, kept)
}

func (s *Store) UpsertGrade(ctx context.Context, grade model.Grade) error {
	lock := s.lock(gradesCollection)
	lock.Lock()
	defer lock.Unlock()

	var grades []model.Grade
	if err := s.load(gradesCollection, &grades); err != nil {
		return err
	}
	for i := range grades {
		if grades[i].Course == grade.Course &&
			grades[i].Assignment == grade.Assignment &&
			grades[i].Student == grade.Student {
			grades[i] = grade
			return s.save(gradesCollection, grades)
		}
	}
	grades = append(grades, grade)
	return s.save(gradesCollection, grades)
}

func (s *Store) ListGradesByStudent(ctx context.Context, student string) ([]model.Grade, error) {
	lock := s.lock(gradesCollection)
	lock.Lock()
	defer lock.Unlock()

	var grades []model.Grade
	if err := s.load(gradesCollection, &grades); err != nil {
		return nil, err
	}
	matched := make([]model.Grade, 0)
	for _, grade := range grades {
		if grade.Student == student {
			matched = append(matched, grade)
		}
	}
	return matched, nil
}

func (s *Store) ListMaterials(ctx context.Context, course string) ([]model.Material, error) {
	lock := s.lock(materialsCollection)
	lock.Lock()
	defer lock.Unlock()

	var materials []model.Material
	if err := s.load(materialsCollection, &materials); err != nil {
		return nil, err
	}
	matched := make([]model.Material, 0)
	for _, material := range materials {
		if material.Course == course {
			matched = append(matched, material)
		}
	}
	return matched, nil
}

func (s *Store) AddMaterial(ctx context.Context, material model.Material) error {
	lock := s.lock(materialsCollection)
	lock.Lock()
	defer lock.Unlock()

	var materials []model.Material
	if err := s.load(materialsCollection, &materials); err != nil {
		return err
	}
	materials = append(materials, material)
	return s.save(materialsCollection, materials)
}
