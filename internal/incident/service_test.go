package incident

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rdeepthiacharya/HerShield/internal/db"
	"github.com/Rdeepthiacharya/HerShield/internal/shared/geo"

	"github.com/pashagolub/pgxmock/v3"
)

type fakeGeocoder struct {
	name  string
	calls int
}

func (f *fakeGeocoder) Reverse(context.Context, geo.Coordinate) string {
	f.calls++
	return f.name
}

func strPtr(s string) *string { return &s }

var reportCols = []string{"id", "user_id", "latitude", "longitude", "severity", "incident_type", "description", "place_name", "location_type", "is_verified", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	return mock
}

func TestSubmitGeocodesMissingPlace(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	createdAt := time.Now()
	mock.ExpectQuery(`INSERT INTO incident_reports`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), 12.97, 77.59, 1, "harassment", "", "MG Road", "gps_auto").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(createdAt, createdAt))

	gc := &fakeGeocoder{name: "MG Road"}
	svc := NewService(mock, gc)
	svc.now = func() time.Time { return createdAt.Add(5 * time.Minute) }

	report, err := svc.Submit(context.Background(), Report{Lat: 12.97, Lng: 77.59, IncidentType: "harassment"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if report.ID == "" || report.PlaceName != "MG Road" || report.RelativeTime != "5 minutes ago" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if gc.calls != 1 {
		t.Fatalf("expected one geocoder call, got %d", gc.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmitKeepsGivenPlace(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO incident_reports`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), 12.97, 77.59, 4, "theft", "bag snatched", "Church Street", "manual").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	gc := &fakeGeocoder{name: "ignored"}
	_, err := NewService(mock, gc).Submit(context.Background(), Report{
		UserID:       strPtr("user-1"),
		Lat:          12.97,
		Lng:          77.59,
		Severity:     4,
		IncidentType: "theft",
		Description:  "bag snatched",
		PlaceName:    "Church Street",
		LocationType: "manual",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if gc.calls != 0 {
		t.Fatalf("geocoder should not be called")
	}
}

func TestSubmitValidation(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	svc := NewService(mock, nil)

	for _, r := range []Report{
		{Lat: 12.97, Lng: 77.59},
		{Lat: 95, Lng: 77.59, IncidentType: "theft"},
	} {
		if _, err := svc.Submit(context.Background(), r); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", r, err)
		}
	}
	if _, err := NewService(nil, nil).Submit(context.Background(), Report{}); !errors.Is(err, db.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSubmitInsertError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO incident_reports`).WillReturnError(errors.New("boom"))
	_, err := NewService(mock, nil).Submit(context.Background(), Report{Lat: 1, Lng: 1, IncidentType: "other", PlaceName: "x"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestRecentAndByUser(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM incident_reports\s+ORDER BY created_at DESC\s+LIMIT \$1`).
		WithArgs(RecentLimit).
		WillReturnRows(pgxmock.NewRows(reportCols).
			AddRow("a", strPtr("user-1"), 12.97, 77.59, 3, "theft", "", "MG Road", "gps_auto", false, now.Add(-2*time.Hour), now).
			AddRow("b", strPtr("user-2"), 12.98, 77.6, 5, "assault", "", "", "manual", true, now.Add(-24*time.Hour), now))

	svc := NewService(mock, nil)
	svc.now = func() time.Time { return now }

	recent, err := svc.Recent(context.Background(), 500)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].RelativeTime != "2 hours ago" || recent[1].RelativeTime != "Yesterday" {
		t.Fatalf("unexpected reports: %+v", recent)
	}

	mock.ExpectQuery(`WHERE user_id = \$1`).
		WithArgs("user-9").
		WillReturnRows(pgxmock.NewRows(reportCols))

	mine, err := svc.ByUser(context.Background(), "user-9")
	if err != nil {
		t.Fatalf("by user: %v", err)
	}
	if mine == nil || len(mine) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", mine)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInBox(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()

	box := geo.BoundingBox{MinLat: 12.9, MinLng: 77.5, MaxLat: 13.0, MaxLng: 77.7}
	since := time.Now().Add(-180 * 24 * time.Hour)
	reported := time.Now().Add(-time.Hour)

	mock.ExpectQuery(`WHERE latitude BETWEEN \$1 AND \$2`).
		WithArgs(12.9, 13.0, 77.5, 77.7, since, 5.0, 50).
		WillReturnRows(pgxmock.NewRows([]string{"latitude", "longitude", "severity", "created_at"}).
			AddRow(12.95, 77.6, 7.0, reported))

	incidents, err := NewService(mock, nil).InBox(context.Background(), box, since, 50)
	if err != nil {
		t.Fatalf("in box: %v", err)
	}
	if len(incidents) != 1 || incidents[0].Severity != 7 || !incidents[0].ReportedAt.Equal(reported) {
		t.Fatalf("unexpected incidents: %+v", incidents)
	}
}

func TestInBoxErrors(t *testing.T) {
	if _, err := NewService(nil, nil).InBox(context.Background(), geo.BoundingBox{}, time.Now(), 10); !errors.Is(err, db.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	mock := newMock(t)
	defer mock.Close()
	mock.ExpectQuery(`FROM incident_reports`).WillReturnError(errors.New("down"))
	if _, err := NewService(mock, nil).InBox(context.Background(), geo.BoundingBox{}, time.Now(), 10); err == nil {
		t.Fatalf("expected error")
	}
}
