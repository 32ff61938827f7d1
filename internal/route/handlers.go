package route

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/safe", func(c *fiber.Ctx) error {
		var req Request
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Mode == "" {
			req.Mode = ModeWalk
		}

		resp, err := svc.Plan(c.Context(), req)
		if errors.Is(err, ErrInvalidInput) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid coordinates")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		body := fiber.Map{"success": true, "route": resp.Route}
		if len(resp.Alternatives) > 0 {
			body["alternatives"] = resp.Alternatives
		}
		return c.JSON(body)
	})
}
