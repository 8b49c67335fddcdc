package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fathima-sithara/dm-service/internal/auth"
	"github.com/fathima-sithara/dm-service/internal/live"
	"github.com/fathima-sithara/dm-service/internal/repository"
	"github.com/fathima-sithara/dm-service/internal/service"
	"github.com/fathima-sithara/dm-service/internal/ws"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	// empty key path = dev-mode verifier, tokens are parsed unverified
	verifier, err := auth.NewVerifier("")
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	notifier := live.NewLocalNotifier()
	users := store.Users()
	convs := store.Conversations()
	msgs := store.Messages()

	identity := service.NewIdentityService(users, notifier, nil)
	directory := service.NewDirectoryService(users)
	registry := service.NewRegistryService(users, convs, msgs, notifier, nil)
	channel := service.NewChannelService(users, convs, msgs, notifier, nil)

	hub := ws.NewHub(identity, directory, registry, channel, notifier, zap.NewNop().Sugar())
	t.Cleanup(hub.Close)

	return NewServer(verifier, identity, directory, registry, channel, hub, zap.NewNop().Sugar())
}

func token(t *testing.T, subject string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject}).
		SignedString([]byte("test-only"))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, app *fiber.App, method, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func syncProfile(t *testing.T, app *fiber.App, subject, name string) string {
	t.Helper()
	resp, body := do(t, app, http.MethodPost, "/v1/profile/sync", token(t, subject), map[string]string{
		"name": name, "email": subject + "@example.com", "image": "",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["user_id"].(string)
}

func TestUnauthenticatedReadsDegradeToEmpty(t *testing.T) {
	app := newTestApp(t)

	resp, body := do(t, app, http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, body["user"])

	resp, body = do(t, app, http.MethodGet, "/v1/chats", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["chats"])

	resp, body = do(t, app, http.MethodGet, "/v1/profiles?term=x", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["users"])

	resp, body = do(t, app, http.MethodGet, "/v1/chats/some-id/messages", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["messages"])
}

func TestUnauthenticatedWritesAreRejected(t *testing.T) {
	app := newTestApp(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/v1/profile/sync"},
		{http.MethodPost, "/v1/chats"},
		{http.MethodPost, "/v1/chats/some-id/messages"},
	} {
		resp, _ := do(t, app, tc.method, tc.path, "", map[string]string{})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestConversationAndMessageFlow(t *testing.T) {
	app := newTestApp(t)
	anaTok := token(t, "sub-1")
	bobTok := token(t, "sub-2")

	syncProfile(t, app, "sub-1", "Ana")
	bobID := syncProfile(t, app, "sub-2", "Bob")

	// directory search excludes the caller
	resp, body := do(t, app, http.MethodGet, "/v1/profiles?term=", anaTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := body["users"].([]any)
	require.Len(t, users, 1)

	// find-or-create is idempotent per pair
	resp, body = do(t, app, http.MethodPost, "/v1/chats", anaTok, map[string]string{"target_user_id": bobID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	chatID := body["conversation_id"].(string)

	resp, body = do(t, app, http.MethodPost, "/v1/chats", anaTok, map[string]string{"target_user_id": bobID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, chatID, body["conversation_id"])

	// whitespace-only text is a 400
	resp, _ = do(t, app, http.MethodPost, fmt.Sprintf("/v1/chats/%s/messages", chatID), anaTok, map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, fmt.Sprintf("/v1/chats/%s/messages", chatID), anaTok, map[string]string{"text": " hi "})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the counterpart reads it back, trimmed
	resp, body = do(t, app, http.MethodGet, fmt.Sprintf("/v1/chats/%s/messages", chatID), bobTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].(map[string]any)["content"])

	// and sees the conversation in the chat list with Ana as counterpart
	resp, body = do(t, app, http.MethodGet, "/v1/chats", bobTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	chats := body["chats"].([]any)
	require.Len(t, chats, 1)
	preview := chats[0].(map[string]any)
	assert.Equal(t, chatID, preview["id"])
	assert.Equal(t, "Ana", preview["other_user"].(map[string]any)["name"])
	assert.Equal(t, "hi", preview["latest_msg"].(map[string]any)["content"])
}

func TestWriteErrorStatuses(t *testing.T) {
	app := newTestApp(t)
	anaTok := token(t, "sub-1")
	caraTok := token(t, "sub-3")

	anaID := syncProfile(t, app, "sub-1", "Ana")
	bobID := syncProfile(t, app, "sub-2", "Bob")
	syncProfile(t, app, "sub-3", "Cara")

	// unknown target and self-target: 404
	resp, _ := do(t, app, http.MethodPost, "/v1/chats", anaTok, map[string]string{"target_user_id": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, app, http.MethodPost, "/v1/chats", anaTok, map[string]string{"target_user_id": anaID})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// synced caller, foreign conversation: 403
	resp, body := do(t, app, http.MethodPost, "/v1/chats", anaTok, map[string]string{"target_user_id": bobID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	chatID := body["conversation_id"].(string)

	resp, _ = do(t, app, http.MethodPost, fmt.Sprintf("/v1/chats/%s/messages", chatID), caraTok, map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// authenticated but never synced: 409
	resp, _ = do(t, app, http.MethodPost, fmt.Sprintf("/v1/chats/%s/messages", chatID), token(t, "sub-9"), map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// non-participant read degrades to empty, not 403
	resp, body = do(t, app, http.MethodGet, fmt.Sprintf("/v1/chats/%s/messages", chatID), caraTok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["messages"])
}
