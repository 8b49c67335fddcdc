// Package apperr holds the error taxonomy shared by all write operations.
// Read operations never return these: they degrade to empty results so that
// clients reacting to auth-loading states do not error transiently.
package apperr

import "errors"

var (
	// ErrUnauthenticated: no identity claim on a write path.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidTarget: target user id does not resolve to an existing user,
	// or the caller targets themselves.
	ErrInvalidTarget = errors.New("invalid target user")
	// ErrEmptyContent: message text is empty after trimming.
	ErrEmptyContent = errors.New("empty message content")
	// ErrProfileMissing: the identity is valid but has no synced user record.
	ErrProfileMissing = errors.New("profile not synced")
	// ErrForbidden: the caller is not a participant of the conversation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound: generic storage miss.
	ErrNotFound = errors.New("not found")
)
