// Package auth holds the signed-in user for the lifetime of the process.
package auth

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-thread/internal/config"
	"github.com/debemdeboas/the-thread/internal/model"
)

var authLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	authLogger = l
}

// Provider resolves the user a session starts with. A nil user and nil error
// mean nobody is signed in.
type Provider interface {
	CurrentUser(ctx context.Context) (*model.User, error)
}

// StaticProvider signs in a fixed user, typically read from configuration.
type StaticProvider struct { // implements Provider
	User *model.User
}

func NewStaticProvider(cfg config.AuthConfig) *StaticProvider {
	if cfg.UserID == "" {
		return &StaticProvider{}
	}

	username := cfg.Username
	if username == "" {
		username = cfg.UserID
	}
	return &StaticProvider{User: &model.User{ID: model.UserID(cfg.UserID), Username: username}}
}

func (p *StaticProvider) CurrentUser(context.Context) (*model.User, error) {
	if p.User == nil {
		return nil, nil
	}
	u := *p.User
	return &u, nil
}
