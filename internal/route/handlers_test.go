package route

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestSafeRouteHandler(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/routes"), NewService(&fakeIncidents{}, testRouteConfig()))

	body, _ := json.Marshal(fiber.Map{
		"start": fiber.Map{"lat": bangaloreStart.Lat, "lng": bangaloreStart.Lng},
		"end":   fiber.Map{"lat": bangaloreEnd.Lat, "lng": bangaloreEnd.Lng},
		"mode":  "vehicle",
	})
	req := httptest.NewRequest(http.MethodPost, "/routes/safe", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("safe route status: %v", err)
	}

	var out struct {
		Success bool   `json:"success"`
		Route   Result `json:"route"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || len(out.Route.Coords) < 2 || out.Route.SafetyScore != 100 {
		t.Fatalf("unexpected route: %+v", out)
	}
}

func TestSafeRouteHandlerMissingCoordinates(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/routes"), NewService(nil, testRouteConfig()))

	for _, raw := range []string{
		`{"start":{"lat":1,"lng":2}}`,
		`{"start":{},"end":{"lat":12.93,"lng":77.62}}`,
		`{"start":{"lat":1},"end":{"lat":12.93,"lng":77.62}}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/routes/safe", bytes.NewReader([]byte(raw)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		if err != nil || resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected bad request for %s", raw)
		}
	}
}

func TestSafeRouteHandlerParseError(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/routes"), NewService(nil, testRouteConfig()))

	req := httptest.NewRequest(http.MethodPost, "/routes/safe", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}
