package workflow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenfield/copx/audit"
	"github.com/ravenfield/copx/classify"
	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/geo"
	"github.com/ravenfield/copx/intel"
	"github.com/ravenfield/copx/store"
)

var testClock = time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	users := seedUsers()
	var seq int
	e := NewEngine(Deps{
		Reports:   mem.Reports(),
		Events:    mem.Events(),
		Decisions: mem.Decisions(),
		Geo:       mem,
		Users:     users,
		Now:       func() time.Time { return testClock },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		},
	})
	return e, mem
}

func seedUsers() *memoryUsers {
	return newMemoryUsers(
		&intel.User{ID: "hq", Username: "okafor", Role: intel.RoleHQ, Clearance: classify.TopSecret, Active: true},
		&intel.User{ID: "sigint", Username: "vasquez", Role: intel.RoleAnalystSIGINT, Clearance: classify.Secret, Active: true},
		&intel.User{ID: "humint", Username: "brandt", Role: intel.RoleAnalystHUMINT, Clearance: classify.Secret, Active: true},
		&intel.User{ID: "observer", Username: "liaison", Role: intel.RoleObserver, Clearance: classify.Unclassified, Active: true},
		&intel.User{ID: "retired", Username: "ghost", Role: intel.RoleHQ, Clearance: classify.TopSecret, Active: false},
	)
}

// memoryUsers is a tiny directory so the engine tests do not depend on the
// identity package.
type memoryUsers struct{ byID map[string]*intel.User }

func newMemoryUsers(us ...*intel.User) *memoryUsers {
	m := &memoryUsers{byID: make(map[string]*intel.User)}
	for _, u := range us {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memoryUsers) Lookup(_ context.Context, identifier string) (*intel.User, error) {
	if u, ok := m.byID[identifier]; ok {
		c := *u
		return &c, nil
	}
	for _, u := range m.byID {
		if u.Username == identifier {
			c := *u
			return &c, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "user %s", identifier)
}

// captureTrail keeps recorded entries so tests can assert on the trail.
type captureTrail struct{ entries []audit.Entry }

func (c *captureTrail) Record(_ context.Context, e audit.Entry) {
	c.entries = append(c.entries, e)
}

func sigintDraft() ReportDraft {
	return ReportDraft{
		Title:          "convoy sighting",
		Content:        "six vehicles heading north on route 9",
		Type:           intel.TypeSIGINT,
		Classification: classify.Secret,
		Location:       &geo.Point{Lat: 48.2, Lon: 37.1},
		EventTime:      testClock.Add(-2 * time.Hour),
		Confidence:     0.55,
	}
}

func TestSubmitReport(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	r, err := e.SubmitReport(ctx, "sigint", sigintDraft())
	require.NoError(t, err)
	assert.Equal(t, intel.ReportPending, r.Status)
	assert.Equal(t, "sigint", r.SubmittedBy)
	assert.Equal(t, testClock, r.SubmittedAt)
	assert.Equal(t, int64(1), r.Version)
	assert.NotEmpty(t, r.ID)
}

func TestSubmitReportDenials(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.SubmitReport(ctx, "observer", sigintDraft())
	assert.True(t, errors.IsAccessDenied(err), "observers hold no write capability")

	above := sigintDraft()
	above.Classification = classify.TopSecret
	_, err = e.SubmitReport(ctx, "sigint", above)
	assert.True(t, errors.IsAccessDenied(err), "cannot submit above own clearance")

	_, err = e.SubmitReport(ctx, "retired", sigintDraft())
	assert.True(t, errors.IsAccessDenied(err), "inactive users fail every gate")

	_, err = e.SubmitReport(ctx, "nobody", sigintDraft())
	assert.True(t, errors.IsAccessDenied(err), "unknown requester is a denial, not NotFound")
	assert.False(t, errors.IsNotFound(err))
}

func TestSubmitReportForeignDisciplineDenied(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	foreign := sigintDraft()
	foreign.Type = intel.TypeHUMINT
	_, err := e.SubmitReport(ctx, "sigint", foreign)
	assert.True(t, errors.IsAccessDenied(err), "analysts submit their own discipline only")

	_, err = e.SubmitReport(ctx, "humint", foreign)
	require.NoError(t, err)
}

func TestUpdateReportCannotRetypeAcrossDiscipline(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	r, err := e.SubmitReport(ctx, "sigint", sigintDraft())
	require.NoError(t, err)

	humint := intel.TypeHUMINT
	_, err = e.UpdateReport(ctx, "sigint", r.ID, ReportPatch{Type: &humint}, r.Version)
	assert.True(t, errors.IsAccessDenied(err))

	// Retyping within the editor's own discipline is a no-op grant.
	sigint := intel.TypeSIGINT
	updated, err := e.UpdateReport(ctx, "sigint", r.ID, ReportPatch{Type: &sigint}, r.Version)
	require.NoError(t, err)
	assert.Equal(t, intel.TypeSIGINT, updated.Type)
}

func TestSubmitReportValidation(t *testing.T) {
	e, _ := newTestEngine(t)

	bad := sigintDraft()
	bad.Title = ""
	_, err := e.SubmitReport(context.Background(), "sigint", bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	var verr *intel.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)
}

func TestReviewReportApprove(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	r, err := e.SubmitReport(ctx, "sigint", sigintDraft())
	require.NoError(t, err)

	reviewed, err := e.ReviewReport(ctx, "hq", r.ID, VerdictApprove, "confirmed by imagery", r.Version)
	require.NoError(t, err)
	assert.Equal(t, intel.ReportApproved, reviewed.Status)
	assert.Equal(t, "hq", reviewed.ReviewedBy)
	require.NotNil(t, reviewed.ReviewedAt)
	assert.Equal(t, testClock, *reviewed.ReviewedAt)
	assert.Equal(t, "confirmed by imagery", reviewed.ReviewComments)

	// Content edits are locked after a terminal status.
	newTitle := "amended title"
	_, err = e.UpdateReport(ctx, "sigint", r.ID, ReportPatch{Title: &newTitle}, reviewed.Version)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
	var terr *TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, string(intel.ReportApproved), terr.From)
}

func TestReviewReportDenials(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	r, err := e.SubmitReport(ctx, "sigint", sigintDraft())
	require.NoError(t, err)

	_, err = e.ReviewReport(ctx, "humint", r.ID, VerdictApprove, "", r.Version)
	assert.True(t, errors.IsAccessDenied(err), "analysts cannot review")

	_, err = e.ReviewReport(ctx, "observer", r.ID, VerdictApprove, "", r.Version)
	assert.True(t, errors.IsAccessDenied(err))
}

func TestReviewReportIllegalTransition(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	r, err := e.SubmitReport(ctx, "sigint", sigintDraft())
	require.NoError(t, err)
	approved, err := e.ReviewReport(ctx, "hq", r.ID, VerdictApprove, "", r.Version)
	require.NoError(t, err)

	_, err = e.ReviewReport(ctx, "hq", r.ID, VerdictReject, "", approved.Version)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))

	// The record is unchanged by the failed attempt.
	got, err := e.GetReport(ctx, "hq", r.ID)
	require.NoError(t, err)
	assert.Equal(t, intel.ReportApproved, got.Status)
	assert.Equal(t, approved.Version, got.Version)
}

func TestReviewReportRoundTripThroughRequiresMoreInfo(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	r, err := e.SubmitReport(ctx, "sigint", sigintDraft())
	require.NoError(t, err)

	info, err := e.ReviewReport(ctx, "hq", r.ID, VerdictRequestInfo, "need the intercept transcript", r.Version)
	require.NoError(t, err)
	assert.Equal(t, intel.ReportRequiresMoreInfo, info.Status)

	// Submitter may still edit while non-terminal.
	content := "six vehicles, transcript attached"
	updated, err := e.UpdateReport(ctx, "sigint", r.ID, ReportPatch{Content: &content}, info.Version)
	require.NoError(t, err)
	assert.Equal(t, content, updated.Content)

	_, err = e.ReviewReport(ctx, "hq", r.ID, VerdictApprove, "", updated.Version)
	require.NoError(t, err)
}

func TestConcurrentReviewsExactlyOneWins(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	r, err := e.SubmitReport(ctx, "sigint", sigintDraft())
	require.NoError(t, err)

	verdicts := []ReviewVerdict{VerdictApprove, VerdictReject}
	results := make(chan error, len(verdicts))
	var wg sync.WaitGroup
	for _, v := range verdicts {
		wg.Add(1)
		go func(v ReviewVerdict) {
			defer wg.Done()
			_, err := e.ReviewReport(ctx, "hq", r.ID, v, "", r.Version)
			results <- err
		}(v)
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		// The loser observes either the stale-version conflict or, if its
		// read landed after the winner's commit, the now-illegal
		// transition. Both leave the record exactly as the winner wrote it.
		case errors.IsVersionConflict(err), errors.Is(err, errors.ErrInvalidTransition):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	got, err := e.GetReport(ctx, "hq", r.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.IsTerminal())
}

func TestUpdateReportOnlySubmitter(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	r, err := e.SubmitReport(ctx, "sigint", sigintDraft())
	require.NoError(t, err)

	title := "someone else's edit"
	_, err = e.UpdateReport(ctx, "humint", r.ID, ReportPatch{Title: &title}, r.Version)
	assert.True(t, errors.IsAccessDenied(err))
}

func TestDeleteReport(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	r, err := e.SubmitReport(ctx, "sigint", sigintDraft())
	require.NoError(t, err)

	require.NoError(t, e.DeleteReport(ctx, "sigint", r.ID, r.Version))
	_, err = e.GetReport(ctx, "hq", r.ID)
	assert.True(t, errors.IsNotFound(err))

	// Reviewer-capable users may delete others' reports.
	r2, err := e.SubmitReport(ctx, "sigint", sigintDraft())
	require.NoError(t, err)
	require.NoError(t, e.DeleteReport(ctx, "hq", r2.ID, r2.Version))

	r3, err := e.SubmitReport(ctx, "sigint", sigintDraft())
	require.NoError(t, err)
	err = e.DeleteReport(ctx, "humint", r3.ID, r3.Version)
	assert.True(t, errors.IsAccessDenied(err), "unrelated analyst cannot delete")
}

func TestEventLifecycle(t *testing.T) {
	e, mem := newTestEngine(t)
	ctx := context.Background()

	ev := &intel.Event{
		ID: "e-1", Type: "FUSED_INTELLIGENCE", Title: "correlated activity",
		StartTime: testClock, Classification: classify.Secret,
		Status: intel.EventPending, CreatedAt: testClock,
	}
	require.NoError(t, mem.Events().Create(ctx, ev))

	approved, err := e.TransitionEvent(ctx, "hq", "e-1", intel.EventApproved, ev.Version)
	require.NoError(t, err)
	assert.Equal(t, intel.EventApproved, approved.Status)

	// Approved is active, so archiving is still legal.
	archived, err := e.ArchiveEvent(ctx, "hq", "e-1", approved.Version)
	require.NoError(t, err)
	assert.Equal(t, intel.EventArchived, archived.Status)
	assert.False(t, archived.Status.IsActive())

	// Archiving is one-way.
	_, err = e.TransitionEvent(ctx, "hq", "e-1", intel.EventPending, archived.Version)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
	_, err = e.ArchiveEvent(ctx, "hq", "e-1", archived.Version)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
}

func TestArchiveEventAuditsOnce(t *testing.T) {
	mem := store.NewMemoryStore()
	trail := &captureTrail{}
	e := NewEngine(Deps{
		Reports:   mem.Reports(),
		Events:    mem.Events(),
		Decisions: mem.Decisions(),
		Geo:       mem,
		Users:     seedUsers(),
		Trail:     trail,
		Now:       func() time.Time { return testClock },
	})
	ctx := context.Background()

	ev := &intel.Event{
		ID: "e-1", Type: "FUSED_INTELLIGENCE", StartTime: testClock,
		Classification: classify.Secret, Status: intel.EventPending, CreatedAt: testClock,
	}
	require.NoError(t, mem.Events().Create(ctx, ev))

	// Archive through a username: the trail still carries the user ID.
	_, err := e.ArchiveEvent(ctx, "okafor", "e-1", ev.Version)
	require.NoError(t, err)

	require.Len(t, trail.entries, 1)
	entry := trail.entries[0]
	assert.Equal(t, audit.ActionArchiveEvent, entry.Action)
	assert.Equal(t, "hq", entry.ActorID)
	assert.Equal(t, audit.OutcomeGranted, entry.Outcome)
	assert.Equal(t, string(intel.EventArchived), entry.Reason)
}

func TestEventTransitionDenied(t *testing.T) {
	e, mem := newTestEngine(t)
	ctx := context.Background()

	ev := &intel.Event{
		ID: "e-1", Type: "FUSED_INTELLIGENCE", StartTime: testClock,
		Classification: classify.Secret, Status: intel.EventPending, CreatedAt: testClock,
	}
	require.NoError(t, mem.Events().Create(ctx, ev))

	_, err := e.TransitionEvent(ctx, "sigint", "e-1", intel.EventApproved, ev.Version)
	assert.True(t, errors.IsAccessDenied(err), "analysts cannot approve events")
}

func TestRecordDecision(t *testing.T) {
	e, mem := newTestEngine(t)
	ctx := context.Background()

	ev := &intel.Event{
		ID: "e-1", Type: "FUSED_INTELLIGENCE", StartTime: testClock,
		Status: intel.EventPending, CreatedAt: testClock,
	}
	require.NoError(t, mem.Events().Create(ctx, ev))

	dec, err := e.RecordDecision(ctx, "hq", DecisionDraft{
		Type:      intel.DecisionMissionAuthorization,
		EventID:   "e-1",
		Priority:  1,
		Reasoning: "three corroborating sources, window closing",
	})
	require.NoError(t, err)
	assert.Equal(t, intel.ApprovalPending, dec.ApprovalStatus)
	assert.Equal(t, "hq", dec.AuthorID)
	assert.Equal(t, testClock, dec.DecidedAt)
}

func TestRecordDecisionRequiresJustification(t *testing.T) {
	e, mem := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, mem.Events().Create(ctx, &intel.Event{
		ID: "e-1", Type: "FUSED_INTELLIGENCE", StartTime: testClock,
		Status: intel.EventPending, CreatedAt: testClock,
	}))

	_, err := e.RecordDecision(ctx, "hq", DecisionDraft{
		Type:    intel.DecisionMissionAuthorization,
		EventID: "e-1",
	})
	require.Error(t, err)
	var verr *intel.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "reasoning", verr.Field)

	// Assessment types carry no such requirement.
	_, err = e.RecordDecision(ctx, "hq", DecisionDraft{
		Type:    intel.DecisionIntelligenceAssessment,
		EventID: "e-1",
	})
	assert.NoError(t, err)
}

func TestRecordDecisionDenials(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.RecordDecision(ctx, "sigint", DecisionDraft{
		Type: intel.DecisionOperational, ReportID: "r-1", Reasoning: "x",
	})
	assert.True(t, errors.IsAccessDenied(err), "analysts cannot make decisions")

	_, err = e.RecordDecision(ctx, "hq", DecisionDraft{
		Type: intel.DecisionEventApproval, EventID: "e-missing",
	})
	assert.True(t, errors.IsNotFound(err), "referenced event must exist")
}

func TestUpdateDecisionStatus(t *testing.T) {
	e, mem := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, mem.Events().Create(ctx, &intel.Event{
		ID: "e-1", Type: "FUSED_INTELLIGENCE", StartTime: testClock,
		Status: intel.EventPending, CreatedAt: testClock,
	}))

	dec, err := e.RecordDecision(ctx, "hq", DecisionDraft{
		Type: intel.DecisionEventApproval, EventID: "e-1",
	})
	require.NoError(t, err)

	cond, err := e.UpdateDecisionStatus(ctx, "hq", dec.ID, intel.ApprovalConditional, "pending weather window", dec.Version)
	require.NoError(t, err)
	assert.Equal(t, intel.ApprovalConditional, cond.ApprovalStatus)
	assert.Equal(t, "pending weather window", cond.ActionTaken)
	assert.False(t, cond.RequiresAction)

	final, err := e.UpdateDecisionStatus(ctx, "hq", dec.ID, intel.ApprovalApproved, "authorized", cond.Version)
	require.NoError(t, err)
	assert.Equal(t, intel.ApprovalApproved, final.ApprovalStatus)

	// Final statuses are irreversible.
	_, err = e.UpdateDecisionStatus(ctx, "hq", dec.ID, intel.ApprovalPending, "", final.Version)
	assert.True(t, errors.Is(err, errors.ErrInvalidTransition))
}

func TestRadiusQueryFiltersByAccess(t *testing.T) {
	e, mem := newTestEngine(t)
	ctx := context.Background()

	center := geo.Point{Lat: 50, Lon: 10}
	mk := func(id string, level classify.Level, status intel.ReportStatus) {
		require.NoError(t, mem.Create(ctx, &intel.Report{
			ID: id, Title: id, Content: "c", Type: intel.TypeSIGINT,
			Classification: level, Location: &geo.Point{Lat: 50.001, Lon: 10.001},
			EventTime: testClock, SubmittedBy: "sigint", SubmittedAt: testClock,
			Status: status,
		}))
	}
	mk("r-ts", classify.TopSecret, intel.ReportApproved)
	mk("r-unclass", classify.Unclassified, intel.ReportApproved)
	mk("r-unclass-pending", classify.Unclassified, intel.ReportPending)

	// The observer sees only approved unclassified material.
	got, err := e.ReportsWithinRadius(ctx, "observer", center, 5000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r-unclass", got[0].ID)

	// HQ sees everything in radius.
	got, err = e.ReportsWithinRadius(ctx, "hq", center, 5000)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// An empty radius excludes all of them.
	got, err = e.ReportsWithinRadius(ctx, "hq", geo.Point{Lat: -30, Lon: 100}, 1000)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetReportHidesExistenceAboveClearance(t *testing.T) {
	e, mem := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, mem.Create(ctx, &intel.Report{
		ID: "r-ts", Title: "t", Content: "c", Type: intel.TypeSIGINT,
		Classification: classify.TopSecret, EventTime: testClock,
		SubmittedBy: "hq", SubmittedAt: testClock, Status: intel.ReportApproved,
	}))

	_, err := e.GetReport(ctx, "observer", "r-ts")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err), "denied reads surface as NotFound")
	assert.False(t, errors.IsAccessDenied(err))
}
