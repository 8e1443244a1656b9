package service

import (
	"context"
	"time"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"gorm.io/gorm"
)

type DashboardStats struct {
	Users             int64 `json:"users"`
	Trees             int64 `json:"trees"`
	Members           int64 `json:"members"`
	Contacts          int64 `json:"contacts"`
	PendingContacts   int64 `json:"pendingContacts"`
	PendingModeration int64 `json:"pendingModeration"`
}

type UserStats struct {
	Total        int64 `json:"total"`
	Verified     int64 `json:"verified"`
	Onboarded    int64 `json:"onboarded"`
	Active       int64 `json:"active"`
	NewThisMonth int64 `json:"newThisMonth"`
}

type TreeStats struct {
	Total        int64 `json:"total"`
	Public       int64 `json:"public"`
	Private      int64 `json:"private"`
	NewThisMonth int64 `json:"newThisMonth"`
}

// Bucket is one group of a count-by aggregation
type Bucket struct {
	ID    string `json:"_id"`
	Count int64  `json:"count"`
}

type MemberStats struct {
	Total              int64    `json:"total"`
	GenderDistribution []Bucket `json:"genderDistribution"`
}

type Analytics struct {
	UserStats     UserStats   `json:"userStats"`
	TreeStats     TreeStats   `json:"treeStats"`
	MemberStats   MemberStats `json:"memberStats"`
	UserLocations []Bucket    `json:"userLocations"`
}

const recentWindow = 30 * 24 * time.Hour

type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, now: time.Now}
}

func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	defer prometheus.TrackDBOperation("dashboard_stats")(time.Now())

	var st DashboardStats
	counts := []struct {
		model interface{}
		where string
		args  []interface{}
		dest  *int64
	}{
		{&model.User{}, "", nil, &st.Users},
		{&model.FamilyTree{}, "", nil, &st.Trees},
		{&model.Member{}, "", nil, &st.Members},
		{&model.Contact{}, "", nil, &st.Contacts},
		{&model.Contact{}, "status = ?", []interface{}{model.ContactPending}, &st.PendingContacts},
		{&model.ModerationItem{}, "status = ?", []interface{}{model.ModerationPending}, &st.PendingModeration},
	}
	for _, c := range counts {
		if err := s.count(ctx, c.model, c.dest, c.where, c.args...); err != nil {
			return nil, err
		}
	}
	return &st, nil
}

// Analytics aggregates user, tree and member figures. "This month" is the
// trailing thirty days.
func (s *DashboardService) Analytics(ctx context.Context) (*Analytics, error) {
	defer prometheus.TrackDBOperation("analytics")(time.Now())

	since := s.now().UTC().Add(-recentWindow)
	var a Analytics

	counts := []struct {
		model interface{}
		where string
		args  []interface{}
		dest  *int64
	}{
		{&model.User{}, "", nil, &a.UserStats.Total},
		{&model.User{}, "email_verified = ?", []interface{}{true}, &a.UserStats.Verified},
		{&model.User{}, "onboarding_complete = ?", []interface{}{true}, &a.UserStats.Onboarded},
		{&model.User{}, "is_active = ?", []interface{}{true}, &a.UserStats.Active},
		{&model.User{}, "created_at >= ?", []interface{}{since}, &a.UserStats.NewThisMonth},
		{&model.FamilyTree{}, "", nil, &a.TreeStats.Total},
		{&model.FamilyTree{}, "is_public = ?", []interface{}{true}, &a.TreeStats.Public},
		{&model.FamilyTree{}, "created_at >= ?", []interface{}{since}, &a.TreeStats.NewThisMonth},
		{&model.Member{}, "", nil, &a.MemberStats.Total},
	}
	for _, c := range counts {
		if err := s.count(ctx, c.model, c.dest, c.where, c.args...); err != nil {
			return nil, err
		}
	}
	a.TreeStats.Private = a.TreeStats.Total - a.TreeStats.Public

	a.MemberStats.GenderDistribution = []Bucket{}
	if err := s.db.WithContext(ctx).Model(&model.Member{}).
		Select("gender AS id, COUNT(*) AS count").
		Group("gender").
		Order("count DESC, gender ASC").
		Scan(&a.MemberStats.GenderDistribution).Error; err != nil {
		return nil, err
	}

	a.UserLocations = []Bucket{}
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Select("address_country AS id, COUNT(*) AS count").
		Where("address_country IS NOT NULL AND address_country <> ''").
		Group("address_country").
		Order("count DESC, address_country ASC").
		Limit(10).
		Scan(&a.UserLocations).Error; err != nil {
		return nil, err
	}

	return &a, nil
}

func (s *DashboardService) count(ctx context.Context, m interface{}, dest *int64, where string, args ...interface{}) error {
	q := s.db.WithContext(ctx).Model(m)
	if where != "" {
		q = q.Where(where, args...)
	}
	return q.Count(dest).Error
}
