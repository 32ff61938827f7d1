package server

import (
	"github.com/Rdeepthiacharya/HerShield/internal/config"
	"github.com/Rdeepthiacharya/HerShield/internal/db"
	"github.com/Rdeepthiacharya/HerShield/internal/geocode"
	"github.com/Rdeepthiacharya/HerShield/internal/incident"
	"github.com/Rdeepthiacharya/HerShield/internal/route"
	"github.com/Rdeepthiacharya/HerShield/internal/stream"
	"github.com/Rdeepthiacharya/HerShield/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App       *fiber.App
	Cfg       config.Config
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Stream    *stream.Hub
	Tracking  *tracking.Store
	Incidents *incident.Service
	Routes    *route.Service
}

func NewServer(cfg config.Config, pg *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	// A nil pool must stay a nil interface so services report ErrUnavailable.
	var querier db.Querier
	if pg != nil {
		querier = pg
	}

	hub := stream.NewHub(redisClient)
	store := tracking.NewStore(hub)
	hub.UseSnapshots(store)

	incidents := incident.NewService(querier, geocode.NewNominatim(cfg.GeocoderURL, cfg.GeocoderTimeout))

	s := &Server{
		App:       app,
		Cfg:       cfg,
		DB:        pg,
		Redis:     redisClient,
		Stream:    hub,
		Tracking:  store,
		Incidents: incidents,
		Routes:    route.NewService(incidents, cfg.Route),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.App.Get("/health/db", func(c *fiber.Ctx) error {
		var pinger db.Pinger
		if s.DB != nil {
			pinger = s.DB
		}
		if err := db.Healthy(c.Context(), pinger); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy", "database": "disconnected", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "healthy", "database": "connected"})
	})

	route.RegisterRoutes(s.App.Group("/routes"), s.Routes)
	links := tracking.Links{
		BaseURL:         s.Cfg.PublicBaseURL,
		DefaultDuration: s.Cfg.Tracking.DefaultDuration,
	}
	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Tracking, links)
	tracking.RegisterViewer(s.App.Group("/track"), s.Tracking, links)
	incident.RegisterRoutes(s.App.Group("/incidents"), s.Incidents)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
