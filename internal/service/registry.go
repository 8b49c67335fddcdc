package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/fathima-sithara/dm-service/internal/apperr"
	"github.com/fathima-sithara/dm-service/internal/auth"
	"github.com/fathima-sithara/dm-service/internal/events"
	"github.com/fathima-sithara/dm-service/internal/live"
	"github.com/fathima-sithara/dm-service/internal/metrics"
	"github.com/fathima-sithara/dm-service/internal/models"
	"github.com/fathima-sithara/dm-service/internal/repository"
)

// RegistryService owns conversation records: the unique-pair find-or-create
// and the enriched chat listing.
type RegistryService struct {
	users    repository.UserRepository
	convs    repository.ConversationRepository
	msgs     repository.MessageRepository
	notifier live.Notifier
	events   events.Emitter
}

func NewRegistryService(
	users repository.UserRepository,
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	n live.Notifier,
	ev events.Emitter,
) *RegistryService {
	if ev == nil {
		ev = (*events.Publisher)(nil)
	}
	return &RegistryService{users: users, convs: convs, msgs: msgs, notifier: n, events: ev}
}

// FindOrCreate locates the unique conversation between the caller and the
// target, creating it when absent. (A,B) and (B,A) are the same pair, and
// the invariant holds under concurrent callers: the repository upserts on
// the canonical pair key under a unique index. A caller targeting
// themselves gets ErrInvalidTarget.
func (s *RegistryService) FindOrCreate(ctx context.Context, id *auth.Identity, targetUserID string) (string, error) {
	if id == nil {
		return "", apperr.ErrUnauthenticated
	}
	caller, err := s.users.BySubject(ctx, id.Subject)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", apperr.ErrProfileMissing
	}
	if err != nil {
		return "", err
	}

	target, err := s.users.ByID(ctx, targetUserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", fmt.Errorf("user %q: %w", targetUserID, apperr.ErrInvalidTarget)
	}
	if err != nil {
		return "", err
	}
	if target.ID == caller.ID {
		return "", fmt.Errorf("cannot start a conversation with yourself: %w", apperr.ErrInvalidTarget)
	}

	conv, created, err := s.convs.FindOrCreate(ctx, caller.ID, target.ID)
	if err != nil {
		return "", err
	}
	if created {
		metrics.ConversationsCreated.Inc()
		s.notifier.Publish(ctx, live.TopicChats(caller.ID), live.TopicChats(target.ID))
		s.events.Publish(ctx, events.TypeConversationCreated, map[string]any{
			"conversation_id": conv.ID,
			"participant_one": conv.ParticipantOne,
			"participant_two": conv.ParticipantTwo,
		})
	}
	return conv.ID, nil
}

// GetUserChats lists every conversation the caller takes part in, enriched
// with the counterpart profile and the newest message. Sorted by recency:
// latest message time, falling back to conversation creation time. The sort
// is stable, so exact timestamp ties keep the storage order.
func (s *RegistryService) GetUserChats(ctx context.Context, id *auth.Identity) ([]*models.ChatPreview, error) {
	if id == nil {
		return []*models.ChatPreview{}, nil
	}
	caller, err := s.users.BySubject(ctx, id.Subject)
	if errors.Is(err, apperr.ErrNotFound) {
		return []*models.ChatPreview{}, nil
	}
	if err != nil {
		return nil, err
	}

	convs, err := s.convs.ByParticipant(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	previews := make([]*models.ChatPreview, 0, len(convs))
	for _, conv := range convs {
		other, err := s.users.ByID(ctx, conv.Other(caller.ID))
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		latest, err := s.msgs.Latest(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		previews = append(previews, &models.ChatPreview{
			Conversation: *conv,
			OtherUser:    other,
			LatestMsg:    latest,
		})
	}

	sort.SliceStable(previews, func(i, j int) bool {
		return previews[i].SortTime().After(previews[j].SortTime())
	})
	return previews, nil
}
