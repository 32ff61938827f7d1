package route

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Rdeepthiacharya/HerShield/internal/config"
	"github.com/Rdeepthiacharya/HerShield/internal/risk"
	"github.com/Rdeepthiacharya/HerShield/internal/shared/geo"
)

var ErrInvalidInput = errors.New("start and end coordinates required")

// shortRouteKm is the direct distance under which no search is run.
const shortRouteKm = 0.1

// ghostSeverity is the penalty laid on points of already-found routes when
// searching for alternatives.
const ghostSeverity = 3.0

// IncidentSource supplies recent incidents inside a bounding box.
type IncidentSource interface {
	InBox(ctx context.Context, box geo.BoundingBox, since time.Time, limit int) ([]risk.Incident, error)
}

type Service struct {
	incidents IncidentSource
	engine    Engine
	scorer    Scorer
	cfg       config.RouteConfig
	now       func() time.Time
}

func NewService(incidents IncidentSource, cfg config.RouteConfig) *Service {
	params := DefaultSearchParams()
	if cfg.StepDeg > 0 {
		params.StepDeg = cfg.StepDeg
	}
	if cfg.MaxIterations > 0 {
		params.MaxIterations = cfg.MaxIterations
	}
	if cfg.TimeBudget > 0 {
		params.TimeBudget = cfg.TimeBudget
	}
	if cfg.RiskRadiusKm > 0 {
		params.RiskRadiusKm = cfg.RiskRadiusKm
	}
	if cfg.RiskMultiplier > 0 {
		params.RiskMultiplier = cfg.RiskMultiplier
	}
	if cfg.SafetyRadiusKm <= 0 {
		cfg.SafetyRadiusKm = 1.5
	}
	if cfg.BoxBufferDeg <= 0 {
		cfg.BoxBufferDeg = 0.03
	}
	if cfg.IncidentLimit <= 0 {
		cfg.IncidentLimit = 50
	}
	if cfg.IncidentWindow <= 0 {
		cfg.IncidentWindow = 180 * 24 * time.Hour
	}
	return &Service{
		incidents: incidents,
		engine:    NewEngine(params),
		scorer:    Scorer{SafetyRadiusKm: cfg.SafetyRadiusKm},
		cfg:       cfg,
		now:       time.Now,
	}
}

// Plan computes the safest route it can find within budget. Only invalid
// input is an error; search trouble and incident-store outages degrade the
// result instead.
func (s *Service) Plan(ctx context.Context, req Request) (Response, error) {
	start, okStart := req.Start.Coordinate()
	end, okEnd := req.End.Coordinate()
	if !okStart || !okEnd {
		return Response{}, ErrInvalidInput
	}

	if geo.Distance(start, end) < shortRouteKm {
		return Response{Route: s.scorer.Score(start, end, []geo.Coordinate{start, end}, nil, req.Mode)}, nil
	}

	box := geo.Around(start, end, s.cfg.BoxBufferDeg)
	incidents := s.loadIncidents(ctx, box)

	paths := s.searchAlternatives(start, end, incidents, s.alternativeCount(req.Alternatives))

	resp := Response{Route: s.scorer.Score(start, end, paths[0], incidents, req.Mode)}
	for _, p := range paths[1:] {
		resp.Alternatives = append(resp.Alternatives, s.scorer.Score(start, end, p, incidents, req.Mode))
	}
	return resp, nil
}

func (s *Service) alternativeCount(requested int) int {
	if requested < 1 {
		return 1
	}
	if limit := s.cfg.MaxAlternatives; limit > 0 && requested > limit {
		return limit
	}
	return requested
}

func (s *Service) loadIncidents(ctx context.Context, box geo.BoundingBox) []risk.Incident {
	if s.incidents == nil {
		return nil
	}
	since := s.now().Add(-s.cfg.IncidentWindow)
	incidents, err := s.incidents.InBox(ctx, box, since, s.cfg.IncidentLimit)
	if err != nil {
		log.Printf("route incidents unavailable, planning without them: %v", err)
		return nil
	}
	return risk.FilterBox(incidents, box)
}

// searchAlternatives returns k >= 1 distinct paths. Each later search sees
// the earlier paths as extra low-grade incidents so it bends away from them.
func (s *Service) searchAlternatives(start, end geo.Coordinate, incidents []risk.Incident, k int) [][]geo.Coordinate {
	paths := [][]geo.Coordinate{s.search(start, end, incidents)}
	penalised := append([]risk.Incident(nil), incidents...)
	for len(paths) < k {
		last := paths[len(paths)-1]
		for _, p := range interior(last) {
			penalised = append(penalised, risk.Incident{Lat: p.Lat, Lng: p.Lng, Severity: ghostSeverity, ReportedAt: s.now()})
		}
		next := s.search(start, end, penalised)
		if containsPath(paths, next) {
			break
		}
		paths = append(paths, next)
	}
	return paths
}

// search runs the engine on its own goroutine and waits for it. The engine
// enforces its own budget; the outer deadline only guards against a search
// that never reports back.
func (s *Service) search(start, end geo.Coordinate, incidents []risk.Incident) []geo.Coordinate {
	type outcome struct {
		path  []geo.Coordinate
		stats SearchStats
	}
	done := make(chan outcome, 1)
	go func() {
		path, stats := s.engine.Search(start, end, incidents)
		done <- outcome{path, stats}
	}()

	deadline := time.NewTimer(s.engine.Params.TimeBudget + time.Second)
	defer deadline.Stop()

	select {
	case out := <-done:
		if out.stats.Degraded != "" {
			log.Printf("route search degraded (%s) after %d iterations in %s", out.stats.Degraded, out.stats.Iterations, out.stats.Elapsed)
		}
		if len(out.path) < 2 {
			return []geo.Coordinate{start, end}
		}
		return out.path
	case <-deadline.C:
		log.Printf("route search missed its deadline, using direct path")
		return []geo.Coordinate{start, end}
	}
}

func interior(path []geo.Coordinate) []geo.Coordinate {
	if len(path) <= 2 {
		return nil
	}
	return path[1 : len(path)-1]
}

func containsPath(paths [][]geo.Coordinate, candidate []geo.Coordinate) bool {
	for _, p := range paths {
		if len(p) != len(candidate) {
			continue
		}
		same := true
		for i := range p {
			if p[i] != candidate[i] {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}
