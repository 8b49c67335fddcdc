package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/dm-service/internal/apperr"
)

func (s *Server) me(c *fiber.Ctx) error {
	u, err := s.identity.ResolveCaller(c.UserContext(), identityFrom(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"user": u})
}

func (s *Server) searchProfiles(c *fiber.Ctx) error {
	users, err := s.directory.SearchProfiles(c.UserContext(), identityFrom(c), c.Query("term"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

func (s *Server) getUserChats(c *fiber.Ctx) error {
	previews, err := s.registry.GetUserChats(c.UserContext(), identityFrom(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"chats": previews})
}

func (s *Server) fetchMessages(c *fiber.Ctx) error {
	msgs, err := s.channel.FetchByChatID(c.UserContext(), identityFrom(c), c.Params("chat_id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (s *Server) findOrCreate(c *fiber.Ctx) error {
	var body struct {
		TargetUserID string `json:"target_user_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.ErrBadRequest
	}
	convID, err := s.registry.FindOrCreate(c.UserContext(), identityFrom(c), body.TargetUserID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"conversation_id": convID})
}

func (s *Server) send(c *fiber.Ctx) error {
	var body struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.ErrBadRequest
	}
	if err := s.channel.Send(c.UserContext(), identityFrom(c), c.Params("chat_id"), body.Text); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "sent"})
}

func (s *Server) syncProfile(c *fiber.Ctx) error {
	var body struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Image string `json:"image"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.ErrBadRequest
	}
	userID, err := s.identity.SyncProfile(c.UserContext(), identityFrom(c), body.Name, body.Email, body.Image)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"user_id": userID})
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		status = fiber.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, apperr.ErrInvalidTarget), errors.Is(err, apperr.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apperr.ErrEmptyContent):
		status = fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrProfileMissing):
		status = fiber.StatusConflict
	}
	if status == fiber.StatusInternalServerError {
		s.log.Errorw("request failed", "path", c.Path(), "err", err)
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
