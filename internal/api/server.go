package api

import (
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/dm-service/internal/auth"
	"github.com/fathima-sithara/dm-service/internal/service"
	"github.com/fathima-sithara/dm-service/internal/ws"
)

type Server struct {
	identity  *service.IdentityService
	directory *service.DirectoryService
	registry  *service.RegistryService
	channel   *service.ChannelService
	hub       *ws.Hub
	log       *zap.SugaredLogger
}

func NewServer(
	verifier *auth.Verifier,
	identity *service.IdentityService,
	directory *service.DirectoryService,
	registry *service.RegistryService,
	channel *service.ChannelService,
	hub *ws.Hub,
	log *zap.SugaredLogger,
) *fiber.App {
	app := fiber.New()
	app.Use(fiberlogger.New())

	s := &Server{
		identity:  identity,
		directory: directory,
		registry:  registry,
		channel:   channel,
		hub:       hub,
		log:       log,
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/v1")

	// Reads degrade for anonymous callers; writes require a verified identity.
	optional := OptionalAuth(verifier)
	required := RequireAuth(verifier)

	v1.Get("/me", optional, s.me)
	v1.Get("/profiles", optional, s.searchProfiles)
	v1.Get("/chats", optional, s.getUserChats)
	v1.Get("/chats/:chat_id/messages", optional, s.fetchMessages)

	v1.Post("/profile/sync", required, s.syncProfile)
	v1.Post("/chats", required, s.findOrCreate)
	v1.Post("/chats/:chat_id/messages", required, s.send)

	v1.Use("/ws", SocketAuth(verifier), func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	v1.Get("/ws", websocket.New(s.liveSocket))

	return app
}

// liveSocket owns one live-query connection: a write pump per client, a read
// loop handling subscribe/unsubscribe frames, and teardown of every
// subscription on disconnect.
func (s *Server) liveSocket(conn *websocket.Conn) {
	id, _ := conn.Locals(identityKey).(*auth.Identity)

	client := ws.NewClient(conn)
	go client.WritePump()
	defer func() {
		s.hub.DropClient(client)
		client.Close()
	}()

	for {
		var req ws.SubscribeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		switch req.Action {
		case "subscribe":
			if _, err := s.hub.Subscribe(client, id, req); err != nil {
				client.Send(ws.Result{Type: "error", Query: req.Query, Error: err.Error()})
			}
		case "unsubscribe":
			s.hub.Unsubscribe(req.ID)
		default:
			client.Send(ws.Result{Type: "error", Error: "unknown action"})
		}
	}
}
