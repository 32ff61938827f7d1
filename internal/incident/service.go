package incident

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rdeepthiacharya/HerShield/internal/db"
	"github.com/Rdeepthiacharya/HerShield/internal/risk"
	"github.com/Rdeepthiacharya/HerShield/internal/shared/geo"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("latitude, longitude and incident_type required")

const (
	RecentLimit         = 100
	defaultSeverity     = 1
	defaultLocationType = "gps_auto"
)

// Geocoder resolves a coordinate to a place name; it returns "" on failure.
type Geocoder interface {
	Reverse(ctx context.Context, c geo.Coordinate) string
}

type Service struct {
	db       db.Querier
	geocoder Geocoder
	now      func() time.Time
}

func NewService(q db.Querier, geocoder Geocoder) *Service {
	return &Service{db: q, geocoder: geocoder, now: time.Now}
}

// Submit stores a report. A missing place name is filled in by the geocoder.
func (s *Service) Submit(ctx context.Context, in Report) (Report, error) {
	if s.db == nil {
		return Report{}, db.ErrUnavailable
	}
	if strings.TrimSpace(in.IncidentType) == "" || !(geo.Coordinate{Lat: in.Lat, Lng: in.Lng}).Valid() {
		return Report{}, ErrInvalidInput
	}
	if in.Severity <= 0 {
		in.Severity = defaultSeverity
	}
	if in.LocationType == "" {
		in.LocationType = defaultLocationType
	}
	if in.PlaceName == "" && s.geocoder != nil {
		in.PlaceName = s.geocoder.Reverse(ctx, geo.Coordinate{Lat: in.Lat, Lng: in.Lng})
	}

	in.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO incident_reports (id, user_id, latitude, longitude, severity, incident_type, description, place_name, location_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at
	`, in.ID, in.UserID, in.Lat, in.Lng, in.Severity, in.IncidentType, in.Description, in.PlaceName, in.LocationType)
	if err := row.Scan(&in.CreatedAt, &in.UpdatedAt); err != nil {
		return Report{}, fmt.Errorf("insert incident: %w", err)
	}
	in.RelativeTime = RelativeTime(in.CreatedAt, s.now())
	return in, nil
}

const reportColumns = `id, user_id, latitude, longitude, severity, incident_type,
		       COALESCE(description,''), COALESCE(place_name,''), location_type, is_verified, created_at, updated_at`

// Recent lists the newest reports, at most RecentLimit.
func (s *Service) Recent(ctx context.Context, limit int) ([]Report, error) {
	if limit <= 0 || limit > RecentLimit {
		limit = RecentLimit
	}
	return s.list(ctx, `
		SELECT `+reportColumns+`
		FROM incident_reports
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
}

func (s *Service) ByUser(ctx context.Context, userID string) ([]Report, error) {
	return s.list(ctx, `
		SELECT `+reportColumns+`
		FROM incident_reports
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
}

func (s *Service) list(ctx context.Context, sql string, args ...any) ([]Report, error) {
	if s.db == nil {
		return nil, db.ErrUnavailable
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := s.now()
	reports := []Report{}
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ID, &r.UserID, &r.Lat, &r.Lng, &r.Severity, &r.IncidentType,
			&r.Description, &r.PlaceName, &r.LocationType, &r.IsVerified, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.RelativeTime = RelativeTime(r.CreatedAt, now)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// InBox returns incidents inside box reported at or after since, newest
// first. Rows without a severity get risk.DefaultSeverity.
func (s *Service) InBox(ctx context.Context, box geo.BoundingBox, since time.Time, limit int) ([]risk.Incident, error) {
	if s.db == nil {
		return nil, db.ErrUnavailable
	}
	rows, err := s.db.Query(ctx, `
		SELECT latitude, longitude, COALESCE(severity, $6)::float8, created_at
		FROM incident_reports
		WHERE latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
		  AND created_at >= $5
		ORDER BY created_at DESC
		LIMIT $7
	`, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, since, risk.DefaultSeverity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []risk.Incident
	for rows.Next() {
		var i risk.Incident
		if err := rows.Scan(&i.Lat, &i.Lng, &i.Severity, &i.ReportedAt); err != nil {
			return nil, err
		}
		incidents = append(incidents, i)
	}
	return incidents, rows.Err()
}
