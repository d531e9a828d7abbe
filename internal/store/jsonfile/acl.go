package jsonfile

import (
	"context"

	"github.com/Jackrayallday/uniproj/internal/model"
)

const aclCollection = "acl"

func (s *Store) Get(ctx context.Context, email string) (model.ACLEntry, error) {
	lock := s.lock(aclCollection)
	lock.Lock()
	defer lock.Unlock()

	entries := make(map[string]model.ACLEntry)
	if err := s.load(aclCollection, &entries); err != nil {
		return nil, err
	}
	entry, ok := entries[email]
	if !ok {
		return model.ACLEntry{}, nil
	}
	return entry, nil
}

func (s *Store) Put(ctx context.Context, email string, entry model.ACLEntry) error {
	lock := s.lock(aclCollection)
	lock.Lock()
	defer lock.Unlock()

	entries := make(map[string]model.ACLEntry)
	if err := s.load(aclCollection, &entries); err != nil {
		return err
	}
	entries[email] = entry
	return s.save(aclCollection, entries)
}

func (s *Store) Grant(ctx context.Context, email, resource, action string) error {
	lock := s.lock(aclCollection)
	lock.Lock()
	defer lock.Unlock()

	entries := make(map[string]model.ACLEntry)
	if err := s.load(aclCollection, &entries); err != nil {
		return err
	}
	entry := entries[email]
	if entry == nil {
		entry = model.ACLEntry{}
	}
	if entry.Has(resource, action) {
		return nil
	}
	entry[resource] = append(entry[resource], action)
	entries[email] = entry
	return s.save(aclCollection, entries)
}

func (s *Store) Revoke(ctx context.Context, email, resource, action string) error {
	lock := s.lock(aclCollection)
	lock.Lock()
	defer lock.Unlock()

	entries := make(map[string]model.ACLEntry)
	if err := s.load(aclCollection, &entries); err != nil {
		return err
	}
	entry, ok := entries[email]
	if !ok {
		return nil
	}
	actions, ok := entry[resource]
	if !ok {
		return nil
	}
	kept := actions[:0]
	for _, granted := range actions {
		if granted != action {
			kept = append(kept, granted)
		}
	}
	if len(kept) == len(actions) {
		return nil
	}
	// Downstream checks treat a missing resource key as denied; keeping the
	// key with an empty set would behave the same but bloat the file.
	if len(kept) == 0 {
		delete(entry, resource)
	} else {
		entry[resource] = kept
	}
	entries[email] = entry
	return s.save(aclCollection, entries)
}
