package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathima-sithara/dm-service/internal/apperr"
	"github.com/fathima-sithara/dm-service/internal/live"
)

// chatFixture wires two synced users with one conversation between them.
func chatFixture(t *testing.T) (fx *fixture, ana, bob, chatID string) {
	t.Helper()
	fx = newFixture(t)
	ana = fx.syncUser(t, "sub-1", "Ana")
	bob = fx.syncUser(t, "sub-2", "Bob")
	var err error
	chatID, err = fx.registry.FindOrCreate(context.Background(), ident("sub-1"), bob)
	require.NoError(t, err)
	return fx, ana, bob, chatID
}

func TestSendRequiresIdentity(t *testing.T) {
	fx, _, _, chatID := chatFixture(t)

	err := fx.channel.Send(context.Background(), nil, chatID, "hi")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestSendRejectsWhitespaceOnlyText(t *testing.T) {
	fx, _, _, chatID := chatFixture(t)

	err := fx.channel.Send(context.Background(), ident("sub-1"), chatID, "  ")
	assert.ErrorIs(t, err, apperr.ErrEmptyContent)
}

func TestSendStoresTrimmedContent(t *testing.T) {
	fx, ana, _, chatID := chatFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.channel.Send(ctx, ident("sub-1"), chatID, "  hi \n"))

	msgs, err := fx.channel.FetchByChatID(ctx, ident("sub-1"), chatID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, ana, msgs[0].SenderID)
	assert.Equal(t, chatID, msgs[0].ConversationID)
	assert.False(t, msgs[0].CreatedAt.IsZero(), "creation timestamp is storage-assigned")
}

func TestSendUnsyncedProfile(t *testing.T) {
	fx, _, _, chatID := chatFixture(t)

	err := fx.channel.Send(context.Background(), ident("never-synced"), chatID, "hi")
	assert.ErrorIs(t, err, apperr.ErrProfileMissing)
}

func TestSendIntoForeignConversationIsForbidden(t *testing.T) {
	fx, _, _, chatID := chatFixture(t)
	fx.syncUser(t, "sub-3", "Cara")

	err := fx.channel.Send(context.Background(), ident("sub-3"), chatID, "let me in")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	err = fx.channel.Send(context.Background(), ident("sub-3"), "no-such-chat", "hello?")
	assert.ErrorIs(t, err, apperr.ErrForbidden, "unknown chat looks the same as a foreign one")
}

func TestSendNotifiesChatAndBothPreviews(t *testing.T) {
	fx, ana, bob, chatID := chatFixture(t)

	before := len(fx.notifier.published())
	require.NoError(t, fx.channel.Send(context.Background(), ident("sub-1"), chatID, "hi"))

	published := fx.notifier.published()[before:]
	assert.Contains(t, published, live.TopicMessages(chatID))
	assert.Contains(t, published, live.TopicChats(ana))
	assert.Contains(t, published, live.TopicChats(bob))
}

func TestFetchByChatIDOrderedAscending(t *testing.T) {
	fx, _, _, chatID := chatFixture(t)
	ctx := context.Background()

	for i, text := range []string{"one", "two", "three"} {
		fx.clock.advance(time.Duration(i+1) * time.Second)
		require.NoError(t, fx.channel.Send(ctx, ident("sub-1"), chatID, text))
	}

	msgs, err := fx.channel.FetchByChatID(ctx, ident("sub-2"), chatID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)
	assert.Equal(t, "three", msgs[2].Content)
	assert.True(t, msgs[0].CreatedAt.Before(msgs[1].CreatedAt))
	assert.True(t, msgs[1].CreatedAt.Before(msgs[2].CreatedAt))
}

func TestFetchByChatIDDegradesToEmpty(t *testing.T) {
	fx, _, _, chatID := chatFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.channel.Send(ctx, ident("sub-1"), chatID, "secret"))

	// anonymous
	msgs, err := fx.channel.FetchByChatID(ctx, nil, chatID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// authenticated non-participant: same shape as an unknown id
	fx.syncUser(t, "sub-3", "Cara")
	msgs, err = fx.channel.FetchByChatID(ctx, ident("sub-3"), chatID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = fx.channel.FetchByChatID(ctx, ident("sub-3"), "no-such-chat")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
