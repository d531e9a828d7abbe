// Package postgres backs the user and ACL stores with Postgres for
// deployments that outgrow the JSON files. Resource collections stay on the
// file store; only identity data moves here.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jackrayallday/uniproj/internal/model"
	"github.com/Jackrayallday/uniproj/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT email, password_hash, role
		FROM users
		WHERE email = $1
	`, email)
	var role string
	err := row.Scan(&user.Email, &user.PasswordHash, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, store.ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	user.Role = model.Role(role)
	return user, nil
}

func (s *Store) Create(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
	`, user.Email, user.PasswordHash, string(user.Role))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrDuplicateEmail
	}
	return err
}

func (s *Store) Delete(ctx context.Context, email string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Get(ctx context.Context, email string) (model.ACLEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT resource, action
		FROM acl_grants
		WHERE email = $1
		ORDER BY resource, action
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entry := model.ACLEntry{}
	for rows.Next() {
		var resource, action string
		if err := rows.Scan(&resource, &action); err != nil {
			return nil, err
		}
		entry[resource] = append(entry[resource], action)
	}
	return entry, rows.Err()
}

func (s *Store) Put(ctx context.Context, email string, entry model.ACLEntry) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM acl_grants WHERE email = $1`, email); err != nil {
		return err
	}
	for resource, actions := range entry {
		for _, action := range actions {
			if _, err := tx.Exec(ctx, `
				INSERT INTO acl_grants (email, resource, action)
				VALUES ($1, $2, $3)
			`, email, resource, action); err != nil {
				return err
			}
		}
	}
	return tx.Commit(ctx)
}

func (s *Store) Grant(ctx context.Context, email, resource, action string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO acl_grants (email, resource, action)
		VALUES ($1, $2, $3)
		ON CONFLICT (email, resource, action) DO NOTHING
	`, email, resource, action)
	return err
}

func (s *Store) Revoke(ctx context.Context, email, resource, action string) error {
	// The row model has no empty action sets to compact: deleting the last
	// grant for a resource removes the resource implicitly.
	_, err := s.pool.Exec(ctx, `
		DELETE FROM acl_grants
		WHERE email = $1 AND resource = $2 AND action = $3
	`, email, resource, action)
	return err
}
