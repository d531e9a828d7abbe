package jsonfile

import (
	"context"

	"github.com/Jackrayallday/uniproj/internal/model"
	"github.com/Jackrayallday/uniproj/internal/store"
)

const usersCollection = "users"

func (s *Store) GetByEmail(ctx context.Context, email string) (model.User, error) {
	lock := s.lock(usersCollection)
	lock.Lock()
	defer lock.Unlock()

	var users []model.User
	if err := s.load(usersCollection, &users); err != nil {
		return model.User{}, err
	}
	for _, user := range users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, store.ErrNotFound
}

func (s *Store) Create(ctx context.Context, user model.User) error {
	lock := s.lock(usersCollection)
	lock.Lock()
	defer lock.Unlock()

	var users []model.User
	if err := s.load(usersCollection, &users); err != nil {
		return err
	}
	for _, existing := range users {
		if existing.Email == user.Email {
			return store.ErrDuplicateEmail
		}
	}
	users = append(users, user)
	return s.save(usersCollection, users)
}

func (s *Store) Delete(ctx context.Context, email string) error {
	lock := s.lock(usersCollection)
	lock.Lock()
	defer lock.Unlock()

	var users []model.User
	if err := s.load(usersCollection, &users); err != nil {
		return err
	}
	kept := users[:0]
	for _, user := range users {
		if user.Email != email {
			kept = append(kept, user)
		}
	}
	if len(kept) == len(users) {
		return store.ErrNotFound
	}
	return s.save(usersCollection, kept)
}
