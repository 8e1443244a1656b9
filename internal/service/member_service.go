package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Rashmi7205/admin-fam-tree/internal/integrity"
	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/internal/query"
	"github.com/Rashmi7205/admin-fam-tree/pkg/logger"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const unknownTree = "Unknown Tree"

// MemberView is a member with its tree and declared links expanded to names
type MemberView struct {
	ID              uint       `json:"_id"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Gender          string     `json:"gender"`
	BirthDate       *time.Time `json:"birthDate"`
	DeathDate       *time.Time `json:"deathDate"`
	Bio             string     `json:"bio"`
	ProfileImageURL string     `json:"profileImageUrl"`
	TreeID          Ref        `json:"treeId"`
	Parents         []Ref      `json:"parents"`
	Children        []Ref      `json:"children"`
	Spouse          *Ref       `json:"spouse"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// MemberInput holds the submitted member fields. Nil fields are left as they
// are on update. Spouse pointing at 0 clears the spouse.
type MemberInput struct {
	FirstName    *string
	LastName     *string
	Gender       *string
	FamilyTreeID *uint
	BirthDate    *string
	DeathDate    *string
	Bio          *string
	Parents      *[]uint
	Children     *[]uint
	Spouse       *uint
	Image        *ImageUpload
}

type MemberFilter struct {
	Search       string
	FamilyTreeID string
	Gender       string
	BirthDate    string
	DeathDate    string
	CreatedAt    string
	UpdatedAt    string
	SortField    string
	SortOrder    string
}

// CandidateQuery asks for the selectable links of an existing member, or of a
// new one when MemberID is zero. Nil selections default to the declared links.
type CandidateQuery struct {
	MemberID     uint
	FamilyTreeID uint
	Gender       string
	Parents      *[]uint
	Children     *[]uint
}

var memberSortFields = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
	"gender":    "gender",
	"birthDate": "birth_date",
	"deathDate": "death_date",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type MemberService struct {
	db      *gorm.DB
	uploads *UploadService
	audit   *Auditor
}

func NewMemberService(db *gorm.DB, uploads *UploadService, audit *Auditor) *MemberService {
	return &MemberService{db: db, uploads: uploads, audit: audit}
}

func (s *MemberService) List(ctx context.Context, f MemberFilter, p query.Page) ([]MemberView, query.Pagination, error) {
	defer prometheus.TrackDBOperation("member_list")(time.Now())

	q := s.db.WithContext(ctx).Model(&model.Member{})
	q = query.Search(q, f.Search, "first_name", "last_name")
	if id, ok := query.Uint(f.FamilyTreeID); ok {
		q = q.Where("family_tree_id = ?", id)
	}
	if f.Gender != "" {
		q = q.Where("gender = ?", f.Gender)
	}

	var err error
	dates := []struct{ column, value string }{
		{"birth_date", f.BirthDate},
		{"death_date", f.DeathDate},
		{"created_at", f.CreatedAt},
		{"updated_at", f.UpdatedAt},
	}
	for _, d := range dates {
		if q, err = query.Within(q, d.column, d.value); err != nil {
			return nil, query.Pagination{}, invalid("Invalid %s filter: %v", d.column, err)
		}
	}

	order := query.Order(f.SortField, f.SortOrder, memberSortFields, "created_at DESC") + ", id DESC"

	var members []model.Member
	pg, err := query.Paginate(q, p, order, &members)
	if err != nil {
		return nil, pg, err
	}
	views, err := s.views(ctx, s.db, members)
	return views, pg, err
}

func (s *MemberService) Get(ctx context.Context, id uint) (*MemberView, error) {
	member, err := s.find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, s.db, []model.Member{*member})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *MemberService) Create(ctx context.Context, actor Actor, in MemberInput) (*MemberView, error) {
	if err := requireFields(
		text("firstName", deref(in.FirstName)),
		text("lastName", deref(in.LastName)),
		text("gender", deref(in.Gender)),
		ref("familyTreeId", derefID(in.FamilyTreeID)),
	); err != nil {
		return nil, err
	}

	member := model.Member{FamilyTreeID: *in.FamilyTreeID}
	if err := applyMemberFields(&member, in); err != nil {
		return nil, err
	}
	change := integrity.Change{
		Gender:   member.Gender,
		Parents:  uniqueIDs(derefIDs(in.Parents)),
		Children: uniqueIDs(derefIDs(in.Children)),
		Spouse:   spouseOf(in.Spouse),
	}

	if err := s.requireTree(ctx, s.db, member.FamilyTreeID); err != nil {
		return nil, err
	}
	if in.Image != nil {
		// links are checked before the image leaves the process
		if err := s.check(ctx, s.db.WithContext(ctx), member.FamilyTreeID, change); err != nil {
			return nil, err
		}
		path, err := s.uploads.Upload(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		member.ProfileImageURL = path
	}

	defer prometheus.TrackDBOperation("member_create")(time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTrees(tx, member.FamilyTreeID); err != nil {
			return err
		}
		if err := s.check(ctx, tx, member.FamilyTreeID, change); err != nil {
			return err
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		return writeLinks(tx, member.ID, member.FamilyTreeID, change)
	})
	if err != nil {
		unusedUpload(ctx, member.ProfileImageURL, err)
		return nil, err
	}

	s.audit.Record(ctx, actor, "create", "member", member.ID, member.FullName())
	return s.Get(ctx, member.ID)
}

// Update changes the member fields and replaces its declared links after the
// integrity check, all in one transaction.
func (s *MemberService) Update(ctx context.Context, actor Actor, memberID uint, in MemberInput) (*MemberView, error) {
	if err := requireFields(ref("_id", memberID)); err != nil {
		return nil, err
	}
	for _, f := range []field{
		{"firstName", in.FirstName == nil || strings.TrimSpace(*in.FirstName) != ""},
		{"lastName", in.LastName == nil || strings.TrimSpace(*in.LastName) != ""},
		{"gender", in.Gender == nil || strings.TrimSpace(*in.Gender) != ""},
	} {
		if !f.present {
			return nil, invalid("%s cannot be empty", f.name)
		}
	}

	if _, err := s.find(ctx, s.db, memberID); err != nil {
		return nil, err
	}

	var imagePath string
	if in.Image != nil {
		if _, _, err := s.prepareUpdate(ctx, s.db.WithContext(ctx), memberID, in); err != nil {
			return nil, err
		}
		path, err := s.uploads.Upload(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		imagePath = path
	}

	defer prometheus.TrackDBOperation("member_update")(time.Now())

	var member *model.Member
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockMember(ctx, tx, memberID, derefID(in.FamilyTreeID)); err != nil {
			return err
		}
		m, change, err := s.prepareUpdate(ctx, tx, memberID, in)
		if err != nil {
			return err
		}
		if imagePath != "" {
			m.ProfileImageURL = imagePath
		}
		if err := tx.Save(m).Error; err != nil {
			return err
		}
		member = m
		return writeLinks(tx, m.ID, m.FamilyTreeID, change)
	})
	if err != nil {
		unusedUpload(ctx, imagePath, err)
		return nil, err
	}

	s.audit.Record(ctx, actor, "update", "member", member.ID, member.FullName())
	return s.Get(ctx, member.ID)
}

// prepareUpdate loads the member, applies in to it and checks the links it
// would end up with. Nothing is written.
func (s *MemberService) prepareUpdate(ctx context.Context, tx *gorm.DB, memberID uint, in MemberInput) (*model.Member, integrity.Change, error) {
	member, err := s.find(ctx, tx, memberID)
	if err != nil {
		return nil, integrity.Change{}, err
	}
	oldTree := member.FamilyTreeID
	if err := applyMemberFields(member, in); err != nil {
		return nil, integrity.Change{}, err
	}
	if in.FamilyTreeID != nil && *in.FamilyTreeID != 0 {
		member.FamilyTreeID = *in.FamilyTreeID
	}

	if member.FamilyTreeID != oldTree {
		if err := s.requireTree(ctx, tx, member.FamilyTreeID); err != nil {
			return nil, integrity.Change{}, err
		}
		deps, err := dependencies(tx, member.ID)
		if err != nil {
			return nil, integrity.Change{}, err
		}
		if len(deps) > 0 {
			return nil, integrity.Change{}, invalid("Member is referenced by other members and cannot move to another tree")
		}
	}

	var own []model.MemberLink
	if err := tx.Where("member_id = ?", member.ID).Find(&own).Error; err != nil {
		return nil, integrity.Change{}, err
	}
	parents, children, spouse := integrity.NewGraph(nil, own).Declared(member.ID)

	change := integrity.Change{MemberID: member.ID, Gender: member.Gender, Parents: parents, Children: children, Spouse: spouse}
	if in.Parents != nil {
		change.Parents = uniqueIDs(*in.Parents)
	}
	if in.Children != nil {
		change.Children = uniqueIDs(*in.Children)
	}
	if in.Spouse != nil {
		change.Spouse = spouseOf(in.Spouse)
	}

	if err := s.check(ctx, tx, member.FamilyTreeID, change); err != nil {
		return nil, integrity.Change{}, err
	}
	return member, change, nil
}

// Delete removes a member nobody else links to, along with its own links and
// any relationship rows naming it.
func (s *MemberService) Delete(ctx context.Context, actor Actor, memberID uint) error {
	if err := requireFields(ref("id", memberID)); err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("member_delete")(time.Now())

	var name string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := s.lockMember(ctx, tx, memberID, 0)
		if err != nil {
			return err
		}
		name = member.FullName()

		deps, err := dependencies(tx, member.ID)
		if err != nil {
			return err
		}
		if len(deps) > 0 {
			return dependencyError(deps)
		}

		if err := tx.Where("member_id = ?", member.ID).Delete(&model.MemberLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("member1_id = ? OR member2_id = ?", member.ID, member.ID).Delete(&model.Relationship{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Member{}, member.ID).Error
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, actor, "delete", "member", memberID, name)
	return nil
}

// Candidates returns the members that may be selected as parent, child or spouse
func (s *MemberService) Candidates(ctx context.Context, cq CandidateQuery) (*integrity.Candidates, error) {
	defer prometheus.TrackDBOperation("member_candidates")(time.Now())

	treeID, gender := cq.FamilyTreeID, cq.Gender
	var parents, children []uint

	if cq.MemberID != 0 {
		member, err := s.find(ctx, s.db, cq.MemberID)
		if err != nil {
			return nil, err
		}
		if treeID == 0 {
			treeID = member.FamilyTreeID
		}
		if gender == "" {
			gender = member.Gender
		}
	} else if err := requireFields(ref("familyTreeId", treeID)); err != nil {
		return nil, err
	}

	g, err := s.snapshot(s.db.WithContext(ctx), treeID)
	if err != nil {
		return nil, err
	}
	if cq.MemberID != 0 {
		parents, children, _ = g.Declared(cq.MemberID)
	}
	if cq.Parents != nil {
		parents = uniqueIDs(*cq.Parents)
	}
	if cq.Children != nil {
		children = uniqueIDs(*cq.Children)
	}

	c := g.Candidates(cq.MemberID, gender, parents, children)
	return &c, nil
}

func (s *MemberService) validate(ctx context.Context, g *integrity.Graph, ch integrity.Change) error {
	err := g.Validate(ch)
	var ierr *integrity.Error
	if errors.As(err, &ierr) {
		for _, v := range ierr.Violations {
			prometheus.RecordIntegrityViolation(v.Rule)
		}
		logger.Ctx(ctx).Info("Member links rejected", zap.Uint("member_id", ch.MemberID), zap.String("violations", ierr.Error()))
	}
	return err
}

// check validates ch against the tree as db currently sees it
func (s *MemberService) check(ctx context.Context, db *gorm.DB, treeID uint, ch integrity.Change) error {
	g, err := s.snapshot(db, treeID)
	if err != nil {
		return err
	}
	return s.validate(ctx, g, ch)
}

func (s *MemberService) snapshot(db *gorm.DB, treeID uint) (*integrity.Graph, error) {
	var members []model.Member
	if err := db.Select("id, first_name, last_name, gender, family_tree_id").
		Where("family_tree_id = ?", treeID).Find(&members).Error; err != nil {
		return nil, err
	}
	var links []model.MemberLink
	if err := db.Where("family_tree_id = ?", treeID).Find(&links).Error; err != nil {
		return nil, err
	}
	return integrity.NewGraph(members, links), nil
}

func (s *MemberService) requireTree(ctx context.Context, db *gorm.DB, treeID uint) error {
	var count int64
	if err := db.WithContext(ctx).Model(&model.FamilyTree{}).Where("id = ?", treeID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound("Family tree not found")
	}
	return nil
}

// lockTrees takes row locks on the given trees in id order, skipping zeros.
// Member writes hold the lock of every tree they touch until commit.
func lockTrees(tx *gorm.DB, treeIDs ...uint) error {
	for _, id := range uniqueIDs(treeIDs) {
		var tree model.FamilyTree
		err := forUpdate(tx).Select("id").First(&tree, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Family tree not found")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

// lockMember locks the member's tree, and extraTree when set, then returns the
// member as read under the lock.
func (s *MemberService) lockMember(ctx context.Context, tx *gorm.DB, memberID, extraTree uint) (*model.Member, error) {
	for attempt := 0; attempt < 3; attempt++ {
		member, err := s.find(ctx, tx, memberID)
		if err != nil {
			return nil, err
		}
		if err := lockTrees(tx, member.FamilyTreeID, extraTree); err != nil {
			return nil, err
		}
		locked, err := s.find(ctx, tx, memberID)
		if err != nil {
			return nil, err
		}
		if locked.FamilyTreeID == member.FamilyTreeID {
			return locked, nil
		}
	}
	return nil, fmt.Errorf("member %d kept moving between trees", memberID)
}

// unusedUpload logs an image stored for a write that did not commit
func unusedUpload(ctx context.Context, path string, err error) {
	if path == "" {
		return
	}
	logger.Ctx(ctx).Warn("Uploaded image left unused", zap.String("path", path), zap.Error(err))
}

func (s *MemberService) find(ctx context.Context, db *gorm.DB, memberID uint) (*model.Member, error) {
	var member model.Member
	if err := db.WithContext(ctx).First(&member, memberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Member not found")
		}
		return nil, err
	}
	return &member, nil
}

// views expands tree names and declared links for a page of members
func (s *MemberService) views(ctx context.Context, db *gorm.DB, members []model.Member) ([]MemberView, error) {
	views := make([]MemberView, 0, len(members))
	if len(members) == 0 {
		return views, nil
	}

	memberIDs := make([]uint, 0, len(members))
	treeIDs := make([]uint, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
		treeIDs = append(treeIDs, m.FamilyTreeID)
	}

	var trees []Ref
	if err := db.WithContext(ctx).Model(&model.FamilyTree{}).Select("id, name").Where("id IN ?", treeIDs).Scan(&trees).Error; err != nil {
		return nil, err
	}
	treeNames := make(map[uint]string, len(trees))
	for _, t := range trees {
		treeNames[t.ID] = t.Name
	}

	var links []model.MemberLink
	if err := db.WithContext(ctx).Where("member_id IN ?", memberIDs).Order("id").Find(&links).Error; err != nil {
		return nil, err
	}
	relatedIDs := make([]uint, 0, len(links))
	for _, l := range links {
		relatedIDs = append(relatedIDs, l.RelatedID)
	}
	names := map[uint]string{}
	if len(relatedIDs) > 0 {
		var related []model.Member
		if err := db.WithContext(ctx).Select("id, first_name, last_name").Where("id IN ?", relatedIDs).Find(&related).Error; err != nil {
			return nil, err
		}
		for _, r := range related {
			names[r.ID] = r.FullName()
		}
	}

	byMember := make(map[uint][]model.MemberLink, len(members))
	for _, l := range links {
		byMember[l.MemberID] = append(byMember[l.MemberID], l)
	}

	for _, m := range members {
		v := MemberView{
			ID:              m.ID,
			FirstName:       m.FirstName,
			LastName:        m.LastName,
			Gender:          m.Gender,
			BirthDate:       m.BirthDate,
			DeathDate:       m.DeathDate,
			Bio:             m.Bio,
			ProfileImageURL: m.ProfileImageURL,
			TreeID:          Ref{ID: m.FamilyTreeID, Name: unknownTree},
			Parents:         []Ref{},
			Children:        []Ref{},
			CreatedAt:       m.CreatedAt,
			UpdatedAt:       m.UpdatedAt,
		}
		if name, ok := treeNames[m.FamilyTreeID]; ok {
			v.TreeID.Name = name
		}
		for _, l := range byMember[m.ID] {
			r := Ref{ID: l.RelatedID, Name: names[l.RelatedID]}
			switch l.Kind {
			case model.LinkParent:
				v.Parents = append(v.Parents, r)
			case model.LinkChild:
				v.Children = append(v.Children, r)
			case model.LinkSpouse:
				v.Spouse = &r
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// dependencies lists the links other members declare towards memberID
func dependencies(tx *gorm.DB, memberID uint) ([]integrity.Dependency, error) {
	var links []model.MemberLink
	if err := tx.Where("related_id = ? AND member_id <> ?", memberID, memberID).Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}

	declarers := make([]uint, 0, len(links))
	for _, l := range links {
		declarers = append(declarers, l.MemberID)
	}
	var members []model.Member
	if err := tx.Select("id, first_name, last_name, gender").Where("id IN ?", declarers).Find(&members).Error; err != nil {
		return nil, err
	}
	return integrity.NewGraph(members, links).Dependencies(memberID), nil
}

func dependencyError(deps []integrity.Dependency) error {
	parts := make([]string, 0, len(deps))
	for _, d := range deps {
		parts = append(parts, fmt.Sprintf("%s (%s)", d.Name, d.Kind))
	}
	return &DependencyError{
		Message:      "Member is referenced by other members: " + strings.Join(parts, ", "),
		Dependencies: deps,
	}
}

func writeLinks(tx *gorm.DB, memberID, treeID uint, ch integrity.Change) error {
	if err := tx.Where("member_id = ?", memberID).Delete(&model.MemberLink{}).Error; err != nil {
		return err
	}

	var links []model.MemberLink
	add := func(related uint, kind model.LinkKind) {
		links = append(links, model.MemberLink{MemberID: memberID, RelatedID: related, Kind: kind, FamilyTreeID: treeID})
	}
	for _, p := range ch.Parents {
		add(p, model.LinkParent)
	}
	for _, c := range ch.Children {
		add(c, model.LinkChild)
	}
	if ch.Spouse != nil {
		add(*ch.Spouse, model.LinkSpouse)
	}
	if len(links) == 0 {
		return nil
	}
	return tx.Create(&links).Error
}

// applyMemberFields copies the submitted scalar fields onto m
func applyMemberFields(m *model.Member, in MemberInput) error {
	if in.FirstName != nil {
		m.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		m.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Gender != nil {
		g := strings.ToLower(strings.TrimSpace(*in.Gender))
		if !model.ValidGender(g) {
			return invalid("Invalid gender %q", *in.Gender)
		}
		m.Gender = g
	}
	if in.Bio != nil {
		m.Bio = strings.TrimSpace(*in.Bio)
	}

	var err error
	if in.BirthDate != nil {
		if m.BirthDate, err = optionalDate("birthDate", *in.BirthDate); err != nil {
			return err
		}
	}
	if in.DeathDate != nil {
		if m.DeathDate, err = optionalDate("deathDate", *in.DeathDate); err != nil {
			return err
		}
	}
	if m.BirthDate != nil && m.DeathDate != nil && m.DeathDate.Before(*m.BirthDate) {
		return invalid("Death date cannot be before birth date")
	}
	return nil
}

func optionalDate(name, v string) (*time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	t, err := query.ParseDay(v)
	if err != nil {
		return nil, invalid("Invalid %s", name)
	}
	return &t, nil
}

func spouseOf(v *uint) *uint {
	if v == nil || *v == 0 {
		return nil
	}
	s := *v
	return &s
}

func uniqueIDs(in []uint) []uint {
	seen := make(map[uint]bool, len(in))
	out := []uint{}
	for _, id := range in {
		if id != 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefID(v *uint) uint {
	if v == nil {
		return 0
	}
	return *v
}

func derefIDs(v *[]uint) []uint {
	if v == nil {
		return nil
	}
	return *v
}
