// Command seedusers writes the demo accounts into the data directory so a
// fresh checkout has something to log in with.
package main

import (
	"context"
	"errors"
	"log"

	"github.com/Jackrayallday/uniproj/internal/config"
	"github.com/Jackrayallday/uniproj/internal/model"
	"github.com/Jackrayallday/uniproj/internal/store"
	"github.com/Jackrayallday/uniproj/internal/store/jsonfile"
)

type seedUser struct {
	email    string
	password string
	role     model.Role
}

var seedUsers = []seedUser{
	{"tiger.woods@golf.com", "woods123", model.RoleStudent},
	{"babe.ruth@mlb.com", "ruth456", model.RoleInstructor},
	{"shohei.ohtani@mlb.com", "ohtani789", model.RoleAdmin},
}

func main() {
	cfg := config.Load()

	files, err := jsonfile.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("data dir init failed: %v", err)
	}

	creds := store.NewCredentials(files, files, cfg.BcryptCost)
	ctx := context.Background()

	for _, u := range seedUsers {
		err := creds.Register(ctx, u.email, u.password, u.role)
		switch {
		case err == nil:
			log.Printf("seeded %s (%s)", u.email, u.role)
		case errors.Is(err, store.ErrDuplicateEmail):
			log.Printf("skipping %s: already present", u.email)
		default:
			log.Fatalf("seeding %s failed: %v", u.email, err)
		}
	}
}
