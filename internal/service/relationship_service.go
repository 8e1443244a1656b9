package service

import (
	"context"
	"errors"
	"time"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/internal/query"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"gorm.io/gorm"
)

type RelationshipView struct {
	ID               uint                   `json:"_id"`
	Member1          Ref                    `json:"member1"`
	Member2          Ref                    `json:"member2"`
	FamilyTree       Ref                    `json:"familyTree"`
	RelationshipType model.RelationshipType `json:"relationshipType"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

type RelationshipInput struct {
	Member1ID        uint   `json:"member1Id"`
	Member2ID        uint   `json:"member2Id"`
	FamilyTreeID     uint   `json:"familyTreeId"`
	RelationshipType string `json:"relationshipType"`
}

type RelationshipUpdate struct {
	ID               uint    `json:"_id"`
	Member1ID        *uint   `json:"member1Id"`
	Member2ID        *uint   `json:"member2Id"`
	FamilyTreeID     *uint   `json:"familyTreeId"`
	RelationshipType *string `json:"relationshipType"`
}

type RelationshipFilter struct {
	Search           string
	RelationshipType string
	FamilyTreeID     string
}

type MemberOption struct {
	ID           uint   `json:"_id"`
	Name         string `json:"name"`
	FamilyTreeID uint   `json:"familyTreeId"`
}

type RelationshipOptions struct {
	Members []MemberOption `json:"members"`
	Trees   []Ref          `json:"trees"`
}

// RelationshipService manages free-form labelled member pairs. Pairs are not
// mirrored or inferred.
type RelationshipService struct {
	db    *gorm.DB
	audit *Auditor
}

func NewRelationshipService(db *gorm.DB, audit *Auditor) *RelationshipService {
	return &RelationshipService{db: db, audit: audit}
}

func (s *RelationshipService) List(ctx context.Context, f RelationshipFilter, p query.Page) ([]RelationshipView, query.Pagination, error) {
	defer prometheus.TrackDBOperation("relationship_list")(time.Now())

	q := s.db.WithContext(ctx).Model(&model.Relationship{}).
		Joins("LEFT JOIN members m1 ON m1.id = relationships.member1_id").
		Joins("LEFT JOIN members m2 ON m2.id = relationships.member2_id")
	q = query.Search(q, f.Search, "m1.first_name", "m1.last_name", "m2.first_name", "m2.last_name")
	if f.RelationshipType != "" {
		q = q.Where("relationships.relationship_type = ?", f.RelationshipType)
	}
	if id, ok := query.Uint(f.FamilyTreeID); ok {
		q = q.Where("relationships.family_tree_id = ?", id)
	}

	var rels []model.Relationship
	pg, err := query.Paginate(q, p, "relationships.created_at DESC, relationships.id DESC", &rels)
	if err != nil {
		return nil, pg, err
	}
	views, err := s.views(ctx, rels)
	return views, pg, err
}

func (s *RelationshipService) Get(ctx context.Context, id uint) (*RelationshipView, error) {
	rel, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []model.Relationship{*rel})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *RelationshipService) Options(ctx context.Context) (*RelationshipOptions, error) {
	defer prometheus.TrackDBOperation("relationship_options")(time.Now())

	var members []model.Member
	if err := s.db.WithContext(ctx).Select("id, first_name, last_name, family_tree_id").
		Order("first_name ASC, last_name ASC, id ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	opts := &RelationshipOptions{Members: make([]MemberOption, 0, len(members)), Trees: []Ref{}}
	for _, m := range members {
		opts.Members = append(opts.Members, MemberOption{ID: m.ID, Name: m.FullName(), FamilyTreeID: m.FamilyTreeID})
	}
	if err := s.db.WithContext(ctx).Model(&model.FamilyTree{}).Select("id, name").
		Order("name ASC, id ASC").Scan(&opts.Trees).Error; err != nil {
		return nil, err
	}
	return opts, nil
}

func (s *RelationshipService) Create(ctx context.Context, actor Actor, in RelationshipInput) (*RelationshipView, error) {
	if err := requireFields(
		ref("member1Id", in.Member1ID),
		ref("member2Id", in.Member2ID),
		ref("familyTreeId", in.FamilyTreeID),
		text("relationshipType", in.RelationshipType),
	); err != nil {
		return nil, err
	}

	rel := model.Relationship{
		Member1ID:        in.Member1ID,
		Member2ID:        in.Member2ID,
		FamilyTreeID:     in.FamilyTreeID,
		RelationshipType: model.RelationshipType(in.RelationshipType),
	}
	if err := s.check(ctx, &rel); err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("relationship_create")(time.Now())
	if err := s.db.WithContext(ctx).Create(&rel).Error; err != nil {
		return nil, uniqueViolation(err, "Relationship already exists")
	}

	s.audit.Record(ctx, actor, "create", "relationship", rel.ID, string(rel.RelationshipType))
	return s.Get(ctx, rel.ID)
}

func (s *RelationshipService) Update(ctx context.Context, actor Actor, in RelationshipUpdate) (*RelationshipView, error) {
	if err := requireFields(ref("_id", in.ID)); err != nil {
		return nil, err
	}

	rel, err := s.find(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if in.Member1ID != nil {
		rel.Member1ID = *in.Member1ID
	}
	if in.Member2ID != nil {
		rel.Member2ID = *in.Member2ID
	}
	if in.FamilyTreeID != nil {
		rel.FamilyTreeID = *in.FamilyTreeID
	}
	if in.RelationshipType != nil {
		rel.RelationshipType = model.RelationshipType(*in.RelationshipType)
	}
	if err := s.check(ctx, rel); err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("relationship_update")(time.Now())
	if err := s.db.WithContext(ctx).Save(rel).Error; err != nil {
		return nil, uniqueViolation(err, "Relationship already exists")
	}

	s.audit.Record(ctx, actor, "update", "relationship", rel.ID, string(rel.RelationshipType))
	return s.Get(ctx, rel.ID)
}

func (s *RelationshipService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := requireFields(ref("id", id)); err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("relationship_delete")(time.Now())

	res := s.db.WithContext(ctx).Delete(&model.Relationship{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Relationship not found")
	}

	s.audit.Record(ctx, actor, "delete", "relationship", id, "")
	return nil
}

// check validates a relationship about to be written
func (s *RelationshipService) check(ctx context.Context, rel *model.Relationship) error {
	if !rel.RelationshipType.Valid() {
		return invalid("Invalid relationship type %q", rel.RelationshipType)
	}
	if rel.Member1ID == rel.Member2ID {
		return invalid("A member cannot have a relationship with itself")
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&model.FamilyTree{}).Where("id = ?", rel.FamilyTreeID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound("Family tree not found")
	}

	if err := db.Model(&model.Member{}).
		Where("id IN ? AND family_tree_id = ?", []uint{rel.Member1ID, rel.Member2ID}, rel.FamilyTreeID).
		Count(&count).Error; err != nil {
		return err
	}
	if count != 2 {
		return invalid("Both members must belong to the selected family tree")
	}

	dup := db.Model(&model.Relationship{}).Where("member1_id = ? AND member2_id = ? AND relationship_type = ?",
		rel.Member1ID, rel.Member2ID, rel.RelationshipType)
	if rel.ID != 0 {
		dup = dup.Where("id <> ?", rel.ID)
	}
	if err := dup.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &DuplicateError{Message: "Relationship already exists"}
	}
	return nil
}

func (s *RelationshipService) find(ctx context.Context, id uint) (*model.Relationship, error) {
	var rel model.Relationship
	if err := s.db.WithContext(ctx).First(&rel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Relationship not found")
		}
		return nil, err
	}
	return &rel, nil
}

// views reloads the page with its members and tree attached, keeping order
func (s *RelationshipService) views(ctx context.Context, rels []model.Relationship) ([]RelationshipView, error) {
	views := make([]RelationshipView, 0, len(rels))
	if len(rels) == 0 {
		return views, nil
	}

	ids := make([]uint, 0, len(rels))
	for _, r := range rels {
		ids = append(ids, r.ID)
	}
	var loaded []model.Relationship
	if err := s.db.WithContext(ctx).
		Preload("Member1").
		Preload("Member2").
		Preload("FamilyTree").
		Where("id IN ?", ids).
		Find(&loaded).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Relationship, len(loaded))
	for _, r := range loaded {
		byID[r.ID] = r
	}

	for _, r := range rels {
		full := byID[r.ID]
		v := RelationshipView{
			ID:               r.ID,
			Member1:          Ref{ID: r.Member1ID},
			Member2:          Ref{ID: r.Member2ID},
			FamilyTree:       Ref{ID: r.FamilyTreeID, Name: unknownTree},
			RelationshipType: r.RelationshipType,
			CreatedAt:        r.CreatedAt,
			UpdatedAt:        r.UpdatedAt,
		}
		if full.Member1 != nil {
			v.Member1.Name = full.Member1.FullName()
		}
		if full.Member2 != nil {
			v.Member2.Name = full.Member2.FullName()
		}
		if full.FamilyTree != nil {
			v.FamilyTree.Name = full.FamilyTree.Name
		}
		views = append(views, v)
	}
	return views, nil
}
