package stream

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Get("/ws/:sessionID", websocket.New(func(c *websocket.Conn) {
		sessionID := c.Params("sessionID")
		client, err := hub.Join(context.Background(), sessionID)
		if err != nil {
			reason := "unable to join session"
			if errors.Is(err, ErrUnknownSession) {
				reason = err.Error()
			} else {
				log.Printf("stream join %s: %v", sessionID, err)
			}
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
			return
		}
		defer hub.Unsubscribe(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unsubscribe(client)
		<-done
	}))
}
