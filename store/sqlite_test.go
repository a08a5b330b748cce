package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenfield/copx/classify"
	"github.com/ravenfield/copx/db"
	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/geo"
	"github.com/ravenfield/copx/intel"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenWithMigrations(filepath.Join(t.TempDir(), "copx.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// The reports table references users.
	_, err = conn.Exec(`INSERT INTO users (id, username, role, clearance) VALUES
		('u-analyst', 'vasquez', 'ANALYST_SIGINT', 2),
		('u-hq', 'okafor', 'HQ', 3)`)
	require.NoError(t, err)
	return conn
}

func testReport(id string) *intel.Report {
	return &intel.Report{
		ID:             id,
		Title:          "convoy sighting",
		Content:        "six vehicles heading north on route 9",
		Type:           intel.TypeSIGINT,
		Classification: classify.Secret,
		Location:       &geo.Point{Lat: 48.2, Lon: 37.1},
		EventTime:      time.Date(2026, 5, 2, 6, 15, 0, 0, time.UTC),
		Confidence:     0.55,
		SubmittedBy:    "u-analyst",
		SubmittedAt:    time.Date(2026, 5, 2, 7, 0, 0, 0, time.UTC),
		Status:         intel.ReportPending,
		Metadata:       map[string]string{"collection": "intercept-12"},
	}
}

func TestReportStoreRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	s := NewReportStore(conn)
	ctx := context.Background()

	r := testReport("r-1")
	require.NoError(t, s.Create(ctx, r))
	assert.Equal(t, int64(1), r.Version)

	got, err := s.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, r.Title, got.Title)
	assert.Equal(t, intel.TypeSIGINT, got.Type)
	assert.Equal(t, classify.Secret, got.Classification)
	require.NotNil(t, got.Location)
	assert.InDelta(t, 48.2, got.Location.Lat, 1e-9)
	assert.Equal(t, map[string]string{"collection": "intercept-12"}, got.Metadata)
	assert.Equal(t, int64(1), got.Version)
	assert.Nil(t, got.ReviewedAt)
}

func TestReportStoreGetMissing(t *testing.T) {
	conn := openTestDB(t)
	s := NewReportStore(conn)

	_, err := s.Get(context.Background(), "r-none")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestReportStoreOptimisticSave(t *testing.T) {
	conn := openTestDB(t)
	s := NewReportStore(conn)
	ctx := context.Background()

	r := testReport("r-1")
	require.NoError(t, s.Create(ctx, r))

	// Two readers load the same version.
	first, err := s.Get(ctx, "r-1")
	require.NoError(t, err)
	second, err := s.Get(ctx, "r-1")
	require.NoError(t, err)

	// First write wins and bumps the version.
	first.Status = intel.ReportApproved
	require.NoError(t, s.Save(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	// Second write carries the stale version and must conflict.
	second.Status = intel.ReportRejected
	err = s.Save(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.IsVersionConflict(err))

	// The record still reflects the winner.
	got, err := s.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, intel.ReportApproved, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestReportStoreDelete(t *testing.T) {
	conn := openTestDB(t)
	s := NewReportStore(conn)
	ctx := context.Background()

	r := testReport("r-1")
	require.NoError(t, s.Create(ctx, r))

	// Stale version cannot delete.
	err := s.Delete(ctx, "r-1", 99)
	require.Error(t, err)
	assert.True(t, errors.IsVersionConflict(err))

	require.NoError(t, s.Delete(ctx, "r-1", 1))

	_, err = s.Get(ctx, "r-1")
	assert.True(t, errors.IsNotFound(err))

	// Deleting a vanished row is NotFound, not a conflict.
	err = s.Delete(ctx, "r-1", 1)
	assert.True(t, errors.IsNotFound(err))
}

func TestReportStoreListFilters(t *testing.T) {
	conn := openTestDB(t)
	s := NewReportStore(conn)
	ctx := context.Background()

	a := testReport("r-a")
	a.Status = intel.ReportApproved
	b := testReport("r-b")
	b.Type = intel.TypeHUMINT
	b.SubmittedAt = a.SubmittedAt.Add(time.Hour)
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, b))

	approved, err := s.List(ctx, ReportFilter{Status: intel.ReportApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "r-a", approved[0].ID)

	humint, err := s.List(ctx, ReportFilter{Type: intel.TypeHUMINT})
	require.NoError(t, err)
	require.Len(t, humint, 1)
	assert.Equal(t, "r-b", humint[0].ID)

	all, err := s.List(ctx, ReportFilter{SubmittedBy: "u-analyst"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	later, err := s.List(ctx, ReportFilter{Since: a.SubmittedAt.Add(time.Minute)})
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, "r-b", later[0].ID)
}

func TestEventStoreRoundTripWithSources(t *testing.T) {
	conn := openTestDB(t)
	events := NewEventStore(conn)
	ctx := context.Background()

	end := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	e := &intel.Event{
		ID:             "e-1",
		Type:           "FUSED_INTELLIGENCE",
		Title:          "Fused Intelligence: SIGINT + HUMINT Correlation",
		Description:    "Fused from 2 reports",
		StartTime:      time.Date(2026, 5, 2, 6, 0, 0, 0, time.UTC),
		EndTime:        &end,
		Location:       &geo.Point{Lat: 48.2, Lon: 37.1},
		Confidence:     0.7,
		Classification: classify.TopSecret,
		Status:         intel.EventPending,
		SourceReports:  []string{"r-1", "r-2"},
		Fusion: &intel.FusionRecord{
			ReportIDs:     []string{"r-1", "r-2"},
			RadiusMeters:  5000,
			WindowSeconds: 86400,
		},
		CreatedAt: time.Date(2026, 5, 2, 9, 5, 0, 0, time.UTC),
	}
	require.NoError(t, events.Create(ctx, e))

	got, err := events.Get(ctx, "e-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r-1", "r-2"}, got.SourceReports)
	require.NotNil(t, got.Fusion)
	assert.Equal(t, 5000.0, got.Fusion.RadiusMeters)
	require.NotNil(t, got.EndTime)
	assert.True(t, got.EndTime.Equal(end))

	// Optimistic save on events.
	stale := *got
	got.Status = intel.EventApproved
	require.NoError(t, events.Save(ctx, got))
	err = events.Save(ctx, &stale)
	assert.True(t, errors.IsVersionConflict(err))
}

func TestEventStoreListActiveOnly(t *testing.T) {
	conn := openTestDB(t)
	events := NewEventStore(conn)
	ctx := context.Background()

	mk := func(id string, status intel.EventStatus) {
		require.NoError(t, events.Create(ctx, &intel.Event{
			ID: id, Type: "FUSED_INTELLIGENCE", StartTime: time.Now().UTC(),
			Status: status, CreatedAt: time.Now().UTC(),
		}))
	}
	mk("e-active", intel.EventPending)
	mk("e-archived", intel.EventArchived)
	mk("e-rejected", intel.EventRejected)

	active, err := events.List(ctx, EventFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "e-active", active[0].ID)
}

func TestDecisionStoreRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	decisions := NewDecisionStore(conn)
	ctx := context.Background()

	d := &intel.Decision{
		ID:             "d-1",
		AuthorID:       "u-hq",
		Type:           intel.DecisionMissionAuthorization,
		ApprovalStatus: intel.ApprovalPending,
		EventID:        "e-1",
		Priority:       2,
		Reasoning:      "three corroborating sources",
		RequiresAction: true,
		DecidedAt:      time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, decisions.Create(ctx, d))

	got, err := decisions.Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, intel.DecisionMissionAuthorization, got.Type)
	assert.Equal(t, "e-1", got.EventID)
	assert.Empty(t, got.ReportID)

	got.ApprovalStatus = intel.ApprovalApproved
	got.ActionTaken = "strike package authorized"
	require.NoError(t, decisions.Save(ctx, got))

	reloaded, err := decisions.Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, intel.ApprovalApproved, reloaded.ApprovalStatus)
	assert.Equal(t, "strike package authorized", reloaded.ActionTaken)
	assert.Equal(t, int64(2), reloaded.Version)

	byEvent, err := decisions.List(ctx, DecisionFilter{EventID: "e-1"})
	require.NoError(t, err)
	assert.Len(t, byEvent, 1)
}

func TestGeoIndexRadiusInclusive(t *testing.T) {
	conn := openTestDB(t)
	reports := NewReportStore(conn)
	events := NewEventStore(conn)
	idx := NewSQLGeoIndex(reports, events)
	ctx := context.Background()

	center := geo.Point{Lat: 50, Lon: 10}
	edge := geo.Point{Lat: 50, Lon: 10.1}
	radius := geo.Distance(center, edge)

	at := testReport("r-at")
	at.Location = &edge
	beyond := testReport("r-beyond")
	beyond.Location = &geo.Point{Lat: 50, Lon: 10.11}
	unlocated := testReport("r-nowhere")
	unlocated.Location = nil
	require.NoError(t, reports.Create(ctx, at))
	require.NoError(t, reports.Create(ctx, beyond))
	require.NoError(t, reports.Create(ctx, unlocated))

	got, err := idx.ReportsWithinRadius(ctx, center, radius)
	require.NoError(t, err)
	require.Len(t, got, 1, "exactly-at-radius point is included, beyond is not")
	assert.Equal(t, "r-at", got[0].ID)
}

func TestGeoIndexBounds(t *testing.T) {
	conn := openTestDB(t)
	reports := NewReportStore(conn)
	events := NewEventStore(conn)
	idx := NewSQLGeoIndex(reports, events)
	ctx := context.Background()

	in := testReport("r-in")
	in.Location = &geo.Point{Lat: 10, Lon: 20}
	out := testReport("r-out")
	out.Location = &geo.Point{Lat: 30, Lon: 20}
	require.NoError(t, reports.Create(ctx, in))
	require.NoError(t, reports.Create(ctx, out))

	got, err := idx.ReportsWithinBounds(ctx, geo.Bounds{MinLat: 5, MaxLat: 15, MinLon: 15, MaxLon: 25})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r-in", got[0].ID)
}
