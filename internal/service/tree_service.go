package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/internal/query"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ref is the {_id, name} pair used wherever a record points at another
type Ref struct {
	ID   uint   `json:"_id"`
	Name string `json:"name"`
}

type Owner struct {
	ID    uint   `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type TreeView struct {
	model.FamilyTree
	Owner       *Owner `json:"owner"`
	MemberCount int64  `json:"memberCount"`
}

type TreeInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	UserID      uint   `json:"userId"`
	IsPublic    bool   `json:"isPublic"`
}

type TreeUpdate struct {
	ID          uint    `json:"_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}

type TreeFilter struct {
	Search   string
	IsPublic string
	Date     string
	UserID   string
}

type TreeService struct {
	db    *gorm.DB
	audit *Auditor
}

func NewTreeService(db *gorm.DB, audit *Auditor) *TreeService {
	return &TreeService{db: db, audit: audit}
}

func (s *TreeService) List(ctx context.Context, f TreeFilter, p query.Page) ([]TreeView, query.Pagination, error) {
	defer prometheus.TrackDBOperation("tree_list")(time.Now())

	q := s.db.WithContext(ctx).Model(&model.FamilyTree{})
	q = query.Search(q, f.Search, "name", "description")
	if v, ok := query.Bool(f.IsPublic); ok {
		q = q.Where("is_public = ?", v)
	}
	if id, ok := query.Uint(f.UserID); ok {
		q = q.Where("user_id = ?", id)
	}
	q, err := query.Within(q, "created_at", f.Date)
	if err != nil {
		return nil, query.Pagination{}, invalid("Invalid date filter: %v", err)
	}

	var trees []model.FamilyTree
	pg, err := query.Paginate(q, p, "updated_at DESC, id DESC", &trees)
	if err != nil {
		return nil, pg, err
	}
	views, err := s.views(ctx, trees)
	return views, pg, err
}

func (s *TreeService) Get(ctx context.Context, id uint) (*TreeView, error) {
	tree, err := s.find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []model.FamilyTree{*tree})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Options lists every tree as {_id, name}, sorted by name
func (s *TreeService) Options(ctx context.Context) ([]Ref, error) {
	defer prometheus.TrackDBOperation("tree_options")(time.Now())

	refs := []Ref{}
	err := s.db.WithContext(ctx).Model(&model.FamilyTree{}).
		Select("id, name").
		Order("name ASC, id ASC").
		Scan(&refs).Error
	return refs, err
}

func (s *TreeService) Create(ctx context.Context, actor Actor, in TreeInput) (*TreeView, error) {
	if err := requireFields(text("name", in.Name), ref("userId", in.UserID)); err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("tree_create")(time.Now())

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", in.UserID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, notFound("User not found")
	}

	tree := model.FamilyTree{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		UserID:      in.UserID,
		IsPublic:    in.IsPublic,
		ShareLink:   newShareLink(),
	}
	if err := s.db.WithContext(ctx).Create(&tree).Error; err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, "create", "tree", tree.ID, tree.Name)
	return s.Get(ctx, tree.ID)
}

func (s *TreeService) Update(ctx context.Context, actor Actor, in TreeUpdate) (*TreeView, error) {
	if err := requireFields(ref("_id", in.ID), text("name", in.Name)); err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("tree_update")(time.Now())

	tree, err := s.find(ctx, s.db, in.ID)
	if err != nil {
		return nil, err
	}
	tree.Name = strings.TrimSpace(in.Name)
	if in.Description != nil {
		tree.Description = strings.TrimSpace(*in.Description)
	}
	if in.IsPublic != nil {
		tree.IsPublic = *in.IsPublic
	}
	if err := s.db.WithContext(ctx).Save(tree).Error; err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, "update", "tree", tree.ID, tree.Name)
	return s.Get(ctx, tree.ID)
}

// Delete removes the tree with its members, their links and relationships in
// one transaction. It returns the number of members removed.
func (s *TreeService) Delete(ctx context.Context, actor Actor, id uint) (int64, error) {
	if err := requireFields(ref("id", id)); err != nil {
		return 0, err
	}

	defer prometheus.TrackDBOperation("tree_delete")(time.Now())

	var deleted int64
	var name string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tree, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		name = tree.Name

		members := tx.Model(&model.Member{}).Select("id").Where("family_tree_id = ?", id)

		if err := tx.Where("family_tree_id = ? OR member_id IN (?) OR related_id IN (?)", id, members, members).
			Delete(&model.MemberLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("family_tree_id = ? OR member1_id IN (?) OR member2_id IN (?)", id, members, members).
			Delete(&model.Relationship{}).Error; err != nil {
			return err
		}

		res := tx.Where("family_tree_id = ?", id).Delete(&model.Member{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected

		return tx.Delete(&model.FamilyTree{}, id).Error
	})
	if err != nil {
		return 0, err
	}

	s.audit.Record(ctx, actor, "delete", "tree", id, name)
	return deleted, nil
}

func (s *TreeService) find(ctx context.Context, db *gorm.DB, id uint) (*model.FamilyTree, error) {
	var tree model.FamilyTree
	if err := db.WithContext(ctx).First(&tree, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Tree not found")
		}
		return nil, err
	}
	return &tree, nil
}

// views attaches the owner and member count to each tree
func (s *TreeService) views(ctx context.Context, trees []model.FamilyTree) ([]TreeView, error) {
	views := make([]TreeView, 0, len(trees))
	if len(trees) == 0 {
		return views, nil
	}

	treeIDs := make([]uint, 0, len(trees))
	userIDs := make([]uint, 0, len(trees))
	for _, t := range trees {
		treeIDs = append(treeIDs, t.ID)
		userIDs = append(userIDs, t.UserID)
	}

	var users []model.User
	if err := s.db.WithContext(ctx).Select("id, email, display_name").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	owners := make(map[uint]*Owner, len(users))
	for _, u := range users {
		name := u.DisplayName
		if name == "" {
			name = u.Email
		}
		owners[u.ID] = &Owner{ID: u.ID, Name: name, Email: u.Email}
	}

	var counts []struct {
		FamilyTreeID uint
		Count        int64
	}
	if err := s.db.WithContext(ctx).Model(&model.Member{}).
		Select("family_tree_id, COUNT(*) AS count").
		Where("family_tree_id IN ?", treeIDs).
		Group("family_tree_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	memberCounts := make(map[uint]int64, len(counts))
	for _, c := range counts {
		memberCounts[c.FamilyTreeID] = c.Count
	}

	for _, t := range trees {
		views = append(views, TreeView{FamilyTree: t, Owner: owners[t.UserID], MemberCount: memberCounts[t.ID]})
	}
	return views, nil
}

func newShareLink() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
