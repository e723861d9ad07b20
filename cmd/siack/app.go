package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dakgu/siack"
	"github.com/dakgu/siack/config"
	"github.com/dakgu/siack/database"
	"github.com/dakgu/siack/keybackend"
	"github.com/dakgu/siack/storage"
)

// app holds the services shared by the server and the admin commands.
type app struct {
	repos   database.Repos
	storage siack.Storage
	files   *siack.FileService
	users   *siack.UserService
	tokens  *siack.TokenAuthenticator
}

// newTokens resolves the signing secret and builds the authenticator.
func newTokens(cfg *config.Config) (*siack.TokenAuthenticator, error) {
	secret, err := keybackend.ResolveSecret(cfg.Auth.SecretConfig)
	if err != nil {
		return nil, err
	}
	return siack.NewTokenAuthenticator(siack.TokenConfig{
		Secret: secret,
		TTL:    cfg.Auth.TokenTTL(),
	})
}

// openApp connects the database and, when withStorage is set, the storage
// backend. tokens may be nil for commands that never issue tokens.
func openApp(ctx context.Context, cfg *config.Config, tokens *siack.TokenAuthenticator, withStorage bool) (*app, func(), error) {
	repos, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	slog.Info("connected to database", "type", cfg.Database.Type)

	a := &app{
		repos:  repos,
		tokens: tokens,
		users:  siack.NewUserService(repos.Users, tokens, cfg.Auth.BcryptCost),
	}

	if !withStorage {
		return a, closeDB, nil
	}

	store, closeStorage, err := storage.Open(cfg.Storage)
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	a.storage = store
	a.files = siack.NewFileService(repos.Files, repos.Users, store, siack.ServiceConfig{
		CleanupTimeout: time.Duration(cfg.Service.CleanupTimeout) * time.Second,
	})

	cleanup := func() {
		closeStorage()
		closeDB()
	}
	return a, cleanup, nil
}
