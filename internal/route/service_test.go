package route

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rdeepthiacharya/HerShield/internal/config"
	"github.com/Rdeepthiacharya/HerShield/internal/risk"
	"github.com/Rdeepthiacharya/HerShield/internal/shared/geo"

	"github.com/stretchr/testify/require"
)

type fakeIncidents struct {
	incidents []risk.Incident
	err       error
	calls     int
	lastBox   geo.BoundingBox
	lastLimit int
}

func (f *fakeIncidents) InBox(_ context.Context, box geo.BoundingBox, _ time.Time, limit int) ([]risk.Incident, error) {
	f.calls++
	f.lastBox = box
	f.lastLimit = limit
	return f.incidents, f.err
}

var (
	bangaloreStart = geo.Coordinate{Lat: 12.9716, Lng: 77.5946}
	bangaloreEnd   = geo.Coordinate{Lat: 12.9760, Lng: 77.6090}
)

func testRouteConfig() config.RouteConfig {
	return config.RouteConfig{
		StepDeg:         0.004,
		MaxIterations:   500,
		TimeBudget:      2 * time.Second,
		RiskRadiusKm:    1.0,
		RiskMultiplier:  2.0,
		SafetyRadiusKm:  1.5,
		IncidentLimit:   50,
		IncidentWindow:  180 * 24 * time.Hour,
		BoxBufferDeg:    0.03,
		MaxAlternatives: 3,
	}
}

func TestPlanNoIncidents(t *testing.T) {
	src := &fakeIncidents{}
	svc := NewService(src, testRouteConfig())

	resp, err := svc.Plan(context.Background(), Request{Start: At(bangaloreStart), End: At(bangaloreEnd), Mode: ModeWalk})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(resp.Route.Coords), 2)
	require.Equal(t, 100, resp.Route.SafetyScore)
	require.Zero(t, resp.Route.IncidentCount)
	require.Equal(t, 1, src.calls)
	require.Equal(t, 50, src.lastLimit)
	require.True(t, src.lastBox.Contains(bangaloreStart))
	require.True(t, src.lastBox.Contains(bangaloreEnd))
}

func TestPlanIncidentAtMidpoint(t *testing.T) {
	mid := geo.Coordinate{Lat: (bangaloreStart.Lat + bangaloreEnd.Lat) / 2, Lng: (bangaloreStart.Lng + bangaloreEnd.Lng) / 2}
	src := &fakeIncidents{incidents: []risk.Incident{{Lat: mid.Lat, Lng: mid.Lng, Severity: 10, ReportedAt: time.Now().Add(-time.Hour)}}}
	svc := NewService(src, testRouteConfig())

	resp, err := svc.Plan(context.Background(), Request{Start: At(bangaloreStart), End: At(bangaloreEnd), Mode: ModeWalk})
	require.NoError(t, err)
	require.GreaterOrEqual(t, resp.Route.IncidentCount, 1)
	require.Less(t, resp.Route.SafetyScore, 100)
}

func TestPlanShortRouteSkipsSearch(t *testing.T) {
	src := &fakeIncidents{incidents: []risk.Incident{{Lat: bangaloreStart.Lat, Lng: bangaloreStart.Lng, Severity: 10, ReportedAt: time.Now()}}}
	svc := NewService(src, testRouteConfig())
	end := geo.Coordinate{Lat: bangaloreStart.Lat + 0.0005, Lng: bangaloreStart.Lng}

	resp, err := svc.Plan(context.Background(), Request{Start: At(bangaloreStart), End: At(end), Mode: ModeWalk})
	require.NoError(t, err)
	require.Equal(t, []geo.Coordinate{bangaloreStart, end}, resp.Route.Coords)
	require.Equal(t, 100, resp.Route.SafetyScore)
	require.Zero(t, resp.Route.IncidentCount)
	require.Zero(t, src.calls)
}

func TestPlanIncidentSourceFailureDegrades(t *testing.T) {
	src := &fakeIncidents{err: errors.New("db down")}
	svc := NewService(src, testRouteConfig())

	resp, err := svc.Plan(context.Background(), Request{Start: At(bangaloreStart), End: At(bangaloreEnd)})
	require.NoError(t, err)
	require.Equal(t, 100, resp.Route.SafetyScore)
	require.GreaterOrEqual(t, len(resp.Route.Coords), 2)
}

func TestPlanWithoutIncidentSource(t *testing.T) {
	svc := NewService(nil, config.RouteConfig{})
	resp, err := svc.Plan(context.Background(), Request{Start: At(bangaloreStart), End: At(bangaloreEnd)})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(resp.Route.Coords), 2)
}

func TestPlanInvalidInput(t *testing.T) {
	svc := NewService(&fakeIncidents{}, testRouteConfig())
	bad := geo.Coordinate{Lat: 120, Lng: 0}

	_, err := svc.Plan(context.Background(), Request{Start: At(bangaloreStart)})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Plan(context.Background(), Request{Start: At(bad), End: At(bangaloreEnd)})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Plan(context.Background(), Request{Start: &Point{}, End: At(bangaloreEnd)})
	require.ErrorIs(t, err, ErrInvalidInput)
	lat := 12.9
	_, err = svc.Plan(context.Background(), Request{Start: At(bangaloreStart), End: &Point{Lat: &lat}})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPlanAlternativesAreDistinct(t *testing.T) {
	start := geo.Coordinate{Lat: 0, Lng: 0}
	end := geo.Coordinate{Lat: 0, Lng: 0.04}
	src := &fakeIncidents{incidents: []risk.Incident{{Lat: 0, Lng: 0.02, Severity: 10, ReportedAt: time.Now()}}}
	svc := NewService(src, testRouteConfig())

	resp, err := svc.Plan(context.Background(), Request{Start: At(start), End: At(end), Alternatives: 10})
	require.NoError(t, err)
	require.LessOrEqual(t, len(resp.Alternatives), 2)
	all := append([]Result{resp.Route}, resp.Alternatives...)
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			require.NotEqual(t, all[i].Coords, all[j].Coords)
		}
	}
}

func TestAlternativeCount(t *testing.T) {
	svc := NewService(nil, testRouteConfig())
	require.Equal(t, 1, svc.alternativeCount(0))
	require.Equal(t, 2, svc.alternativeCount(2))
	require.Equal(t, 3, svc.alternativeCount(9))
}
