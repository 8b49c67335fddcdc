package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fathima-sithara/dm-service/internal/apperr"
	"github.com/fathima-sithara/dm-service/internal/auth"
	"github.com/fathima-sithara/dm-service/internal/events"
	"github.com/fathima-sithara/dm-service/internal/live"
	"github.com/fathima-sithara/dm-service/internal/metrics"
	"github.com/fathima-sithara/dm-service/internal/models"
	"github.com/fathima-sithara/dm-service/internal/repository"
)

// ChannelService appends to and reads conversation histories. Both paths
// require the caller to be a participant of the conversation: sends into a
// foreign conversation fail with ErrForbidden, reads of one come back empty
// (the same shape as an unknown id, so existence is not leaked).
type ChannelService struct {
	users    repository.UserRepository
	convs    repository.ConversationRepository
	msgs     repository.MessageRepository
	notifier live.Notifier
	events   events.Emitter
}

func NewChannelService(
	users repository.UserRepository,
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	n live.Notifier,
	ev events.Emitter,
) *ChannelService {
	if ev == nil {
		ev = (*events.Publisher)(nil)
	}
	return &ChannelService{users: users, convs: convs, msgs: msgs, notifier: n, events: ev}
}

// FetchByChatID returns the conversation's messages in ascending creation
// order. Anonymous callers, unknown ids and non-participants all get an
// empty slice, never an error.
func (s *ChannelService) FetchByChatID(ctx context.Context, id *auth.Identity, chatID string) ([]*models.Message, error) {
	empty := []*models.Message{}
	if id == nil {
		return empty, nil
	}
	caller, err := s.users.BySubject(ctx, id.Subject)
	if errors.Is(err, apperr.ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return nil, err
	}
	conv, err := s.convs.ByID(ctx, chatID)
	if errors.Is(err, apperr.ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return nil, err
	}
	if !conv.Has(caller.ID) {
		return empty, nil
	}
	return s.msgs.ByConversation(ctx, chatID)
}

// Send appends a message to the conversation. The text is trimmed before
// the empty check and stored trimmed.
func (s *ChannelService) Send(ctx context.Context, id *auth.Identity, chatID, text string) error {
	if id == nil {
		return apperr.ErrUnauthenticated
	}
	content := strings.TrimSpace(text)
	if content == "" {
		return apperr.ErrEmptyContent
	}
	caller, err := s.users.BySubject(ctx, id.Subject)
	if errors.Is(err, apperr.ErrNotFound) {
		// Send raced ahead of the profile sync; the client retries after syncing.
		return apperr.ErrProfileMissing
	}
	if err != nil {
		return err
	}
	conv, err := s.convs.ByID(ctx, chatID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.ErrForbidden
	}
	if err != nil {
		return err
	}
	if !conv.Has(caller.ID) {
		return apperr.ErrForbidden
	}

	msg, err := s.msgs.Insert(ctx, &models.Message{
		ConversationID: chatID,
		SenderID:       caller.ID,
		Content:        content,
	})
	if err != nil {
		return err
	}

	metrics.MessagesSent.Inc()
	s.notifier.Publish(ctx,
		live.TopicMessages(chatID),
		live.TopicChats(conv.ParticipantOne),
		live.TopicChats(conv.ParticipantTwo),
	)
	s.events.Publish(ctx, events.TypeMessageSent, map[string]any{
		"message_id":      msg.ID,
		"conversation_id": msg.ConversationID,
		"sender_id":       msg.SenderID,
		"created_at":      msg.CreatedAt,
	})
	return nil
}
