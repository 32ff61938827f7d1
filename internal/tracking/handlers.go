package tracking

import (
	"errors"
	"strings"
	"time"

	"github.com/Rdeepthiacharya/HerShield/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

const defaultDurationMinutes = 30

// Links builds the public URLs handed out with a new session.
// DefaultDuration applies when a request omits duration_minutes: 0 means no
// expiry and a negative value selects the built-in 30 minutes.
type Links struct {
	BaseURL         string
	DefaultDuration int
}

func (l Links) TrackingURL(sessionID string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/track/" + sessionID
}

// StreamURL is the websocket address viewers use for live updates.
func (l Links) StreamURL(sessionID string) string {
	base := strings.TrimRight(l.BaseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/stream/ws/" + sessionID
}

type createSessionRequest struct {
	UserID          string   `json:"user_id"`
	UserName        string   `json:"user_name"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	DurationMinutes *int     `json:"duration_minutes"`
}

type locationRequest struct {
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Timestamp *time.Time `json:"timestamp"`
	Speed     float64    `json:"speed"`
	Accuracy  float64    `json:"accuracy"`
}

func RegisterRoutes(r fiber.Router, store *Store, links Links) {
	if links.DefaultDuration < 0 {
		links.DefaultDuration = defaultDurationMinutes
	}

	r.Post("/sessions", func(c *fiber.Ctx) error {
		var req createSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Latitude == nil || req.Longitude == nil {
			return fiber.NewError(fiber.StatusBadRequest, "latitude and longitude required")
		}
		duration := links.DefaultDuration
		if req.DurationMinutes != nil {
			duration = *req.DurationMinutes
		}

		session, err := store.Create(c.Context(), CreateInput{
			OwnerUserID:     req.UserID,
			DisplayName:     req.UserName,
			Location:        geo.Coordinate{Lat: *req.Latitude, Lng: *req.Longitude},
			DurationMinutes: duration,
		})
		if err != nil {
			return storeError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":      true,
			"session_id":   session.ID,
			"tracking_url": links.TrackingURL(session.ID),
			"expires_at":   session.ExpiresAt,
		})
	})

	r.Post("/sessions/:id/locations", func(c *fiber.Ctx) error {
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Latitude == nil || req.Longitude == nil {
			return fiber.NewError(fiber.StatusBadRequest, "latitude and longitude required")
		}
		sample := LocationSample{
			Lat:      *req.Latitude,
			Lng:      *req.Longitude,
			Speed:    req.Speed,
			Accuracy: req.Accuracy,
		}
		if req.Timestamp != nil {
			sample.Timestamp = *req.Timestamp
		}

		total, err := store.AppendLocation(c.Context(), c.Params("id"), sample)
		if err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{
			"success":       true,
			"total_updates": total,
			"timestamp":     time.Now().UTC(),
		})
	})

	r.Post("/sessions/:id/stop", func(c *fiber.Ctx) error {
		if err := store.Stop(c.Context(), c.Params("id")); err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{"success": true, "message": "tracking stopped"})
	})

	r.Get("/sessions/:id", func(c *fiber.Ctx) error {
		session, err := store.Get(c.Context(), c.Params("id"))
		if err != nil {
			return storeError(err)
		}
		return c.JSON(session)
	})

	r.Get("/sessions/:id/latest", func(c *fiber.Ctx) error {
		latest, err := store.Latest(c.Context(), c.Params("id"))
		if err != nil {
			return storeError(err)
		}
		return c.JSON(latest)
	})

	r.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		if err := store.Delete(c.Context(), c.Params("id")); err != nil {
			return storeError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/share-message", func(c *fiber.Ctx) error {
		var req ShareRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		msg, err := ShareMessage(req, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{"success": true, "message": msg})
	})
}

// RegisterViewer serves the page behind TrackingURL: the current snapshot of
// the session plus where to subscribe for live updates.
func RegisterViewer(r fiber.Router, store *Store, links Links) {
	r.Get("/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		session, err := store.Get(c.Context(), id)
		if err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{
			"session":    session,
			"stream_url": links.StreamURL(id),
		})
	})
}

func storeError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrExpired):
		return fiber.NewError(fiber.StatusGone, err.Error())
	case errors.Is(err, ErrStopped):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
