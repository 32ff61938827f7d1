package incident

import (
	"errors"

	"github.com/Rdeepthiacharya/HerShield/internal/db"

	"github.com/gofiber/fiber/v2"
)

type submitRequest struct {
	UserID       *string  `json:"user_id"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	IncidentType string   `json:"incident_type"`
	Severity     int      `json:"severity"`
	Description  string   `json:"description"`
	PlaceName    string   `json:"place_name"`
	LocationType string   `json:"location_type"`
}

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/", func(c *fiber.Ctx) error {
		var req submitRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Latitude == nil || req.Longitude == nil {
			return fiber.NewError(fiber.StatusBadRequest, ErrInvalidInput.Error())
		}

		report, err := svc.Submit(c.Context(), Report{
			UserID:       req.UserID,
			Lat:          *req.Latitude,
			Lng:          *req.Longitude,
			Severity:     req.Severity,
			IncidentType: req.IncidentType,
			Description:  req.Description,
			PlaceName:    req.PlaceName,
			LocationType: req.LocationType,
		})
		if err != nil {
			return serviceError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":  true,
			"message":  "Report submitted successfully",
			"incident": report,
		})
	})

	r.Get("/recent", func(c *fiber.Ctx) error {
		reports, err := svc.Recent(c.Context(), c.QueryInt("limit", RecentLimit))
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(fiber.Map{"success": true, "incidents": reports, "count": len(reports)})
	})

	r.Get("/user/:userID", func(c *fiber.Ctx) error {
		reports, err := svc.ByUser(c.Context(), c.Params("userID"))
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(fiber.Map{"success": true, "reports": reports, "count": len(reports)})
	})
}

func serviceError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, db.ErrUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
