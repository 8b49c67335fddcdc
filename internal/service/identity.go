// Package service holds the core operations. Every operation takes the
// caller's identity as an explicit argument (nil = anonymous) and is a pure
// function of that identity, its arguments, and current storage state.
// Reads degrade to empty results for anonymous callers; writes fail.
package service

import (
	"context"
	"errors"

	"github.com/fathima-sithara/dm-service/internal/apperr"
	"github.com/fathima-sithara/dm-service/internal/auth"
	"github.com/fathima-sithara/dm-service/internal/events"
	"github.com/fathima-sithara/dm-service/internal/live"
	"github.com/fathima-sithara/dm-service/internal/models"
	"github.com/fathima-sithara/dm-service/internal/repository"
)

// IdentityService maps externally-verified identity claims onto local user
// records. Resolution never creates a user; creation happens only through
// the explicit SyncProfile path.
type IdentityService struct {
	users    repository.UserRepository
	notifier live.Notifier
	events   events.Emitter
}

func NewIdentityService(users repository.UserRepository, n live.Notifier, ev events.Emitter) *IdentityService {
	if ev == nil {
		ev = (*events.Publisher)(nil)
	}
	return &IdentityService{users: users, notifier: n, events: ev}
}

// ResolveCaller returns the user record for the identity, or nil for an
// anonymous caller or an identity that has not synced yet.
func (s *IdentityService) ResolveCaller(ctx context.Context, id *auth.Identity) (*models.User, error) {
	if id == nil {
		return nil, nil
	}
	u, err := s.users.BySubject(ctx, id.Subject)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// SyncProfile upserts the caller's profile from the identity provider.
// Existing users get name and image patched; email is never overwritten
// after the first sync. Idempotent per identity.
func (s *IdentityService) SyncProfile(ctx context.Context, id *auth.Identity, name, email, image string) (string, error) {
	if id == nil {
		return "", apperr.ErrUnauthenticated
	}

	u, err := s.users.BySubject(ctx, id.Subject)
	switch {
	case err == nil:
		if err := s.users.UpdateProfile(ctx, u.ID, name, image); err != nil {
			return "", err
		}
		s.notifier.Publish(ctx, live.TopicUsers())
		s.events.Publish(ctx, events.TypeProfileSynced, map[string]any{"user_id": u.ID})
		return u.ID, nil
	case errors.Is(err, apperr.ErrNotFound):
		userID, err := s.users.Insert(ctx, &models.User{
			Subject: id.Subject,
			Name:    name,
			Email:   email,
			Image:   image,
		})
		if err != nil {
			return "", err
		}
		s.notifier.Publish(ctx, live.TopicUsers())
		s.events.Publish(ctx, events.TypeProfileSynced, map[string]any{"user_id": userID})
		return userID, nil
	default:
		return "", err
	}
}
