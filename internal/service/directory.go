package service

import (
	"context"

	"github.com/fathima-sithara/dm-service/internal/auth"
	"github.com/fathima-sithara/dm-service/internal/models"
	"github.com/fathima-sithara/dm-service/internal/repository"
)

// DirectoryService answers profile searches for the new-conversation flow.
type DirectoryService struct {
	users repository.UserRepository
}

func NewDirectoryService(users repository.UserRepository) *DirectoryService {
	return &DirectoryService{users: users}
}

// SearchProfiles matches users by name; a blank term returns everyone. The
// caller is always excluded from the results. Anonymous callers get an
// empty slice, not an error.
func (s *DirectoryService) SearchProfiles(ctx context.Context, id *auth.Identity, term string) ([]*models.User, error) {
	if id == nil {
		return []*models.User{}, nil
	}
	matches, err := s.users.SearchByName(ctx, term)
	if err != nil {
		return nil, err
	}
	out := matches[:0]
	for _, u := range matches {
		if u.Subject != id.Subject {
			out = append(out, u)
		}
	}
	return out, nil
}
