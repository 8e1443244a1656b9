package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationDecisionIsFinal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.Moderation.Report(ctx, f.actor, ReportInput{
		ContentType: "member", ContentID: "12", Title: "Fake person", ReportReason: "misinformation",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ModerationPending, item.Status)

	flagged, err := f.svc.Moderation.Decide(ctx, f.actor, ModerationDecision{ID: item.ID, Status: "flagged"})
	require.NoError(t, err)
	assert.Equal(t, model.ModerationFlagged, flagged.Status)

	approved, err := f.svc.Moderation.Decide(ctx, f.actor, ModerationDecision{ID: item.ID, Status: "approved", ModeratorNotes: " looks fine "})
	require.NoError(t, err)
	assert.Equal(t, "looks fine", approved.ModeratorNotes)
	require.NotNil(t, approved.ModeratedBy)
	assert.Equal(t, f.actor.ID, *approved.ModeratedBy)
	assert.NotNil(t, approved.ModeratedAt)

	_, err = f.svc.Moderation.Decide(ctx, f.actor, ModerationDecision{ID: item.ID, Status: "rejected"})
	assert.EqualError(t, err, "Moderation item is already approved")

	_, err = f.svc.Moderation.Decide(ctx, f.actor, ModerationDecision{ID: 999, Status: "rejected"})
	assert.EqualError(t, err, "Moderation item not found")
}

func TestModerationReportValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Moderation.Report(ctx, f.actor, ReportInput{ContentType: "video", ContentID: "1", Title: "t", ReportReason: "spam"})
	asValidation(t, err)
	_, err = f.svc.Moderation.Report(ctx, f.actor, ReportInput{ContentType: "tree", ContentID: "1", Title: "t", ReportReason: "boring"})
	asValidation(t, err)
	_, err = f.svc.Moderation.Report(ctx, f.actor, ReportInput{ContentType: "tree"})
	assert.Equal(t, []string{"contentId", "title", "reportReason"}, asValidation(t, err).Missing)
}

func TestDashboardAndAnalytics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tree := f.tree(t, "Doe")
	f.member(t, tree.ID, "Ann", "female")
	f.member(t, tree.ID, "Bea", "female")
	f.member(t, tree.ID, "Cal", "male")
	newContact(t, f)

	for i, country := range []string{"NZ", "NZ", "FR"} {
		u := model.User{
			Email:         fmt.Sprintf("user%d@example.com", i),
			IsActive:      true,
			EmailVerified: country == "FR",
			Address:       model.Address{Country: country},
		}
		require.NoError(t, f.db.Create(&u).Error)
	}

	stats, err := f.svc.Dashboard.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{Users: 4, Trees: 1, Members: 3, Contacts: 1, PendingContacts: 1}, *stats)

	a, err := f.svc.Dashboard.Analytics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, a.UserStats.Total)
	assert.EqualValues(t, 1, a.UserStats.Verified)
	assert.EqualValues(t, 4, a.UserStats.NewThisMonth)
	assert.EqualValues(t, 1, a.TreeStats.Private)
	assert.Equal(t, []Bucket{{ID: "female", Count: 2}, {ID: "male", Count: 1}}, a.MemberStats.GenderDistribution)
	assert.Equal(t, []Bucket{{ID: "NZ", Count: 2}, {ID: "FR", Count: 1}}, a.UserLocations)
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tree := f.tree(t, "Doe")
	_, err := f.svc.Trees.Delete(ctx, f.actor, tree.ID)
	require.NoError(t, err)

	rows, pg, err := f.svc.Audit.List(ctx, AuditFilter{Entity: "tree"}, query.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, pg.Total)
	require.Len(t, rows, 2)
	assert.Equal(t, "delete", rows[0].Action)
	assert.Equal(t, f.actor.Email, rows[0].ActorEmail)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, "create", f.publisher.events[0].Action)
	assert.Equal(t, tree.ID, f.publisher.events[1].EntityID)

	rows, _, err = f.svc.Audit.List(ctx, AuditFilter{Entity: "contact"}, query.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
