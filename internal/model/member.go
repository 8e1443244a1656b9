package model

import (
	"strings"
	"time"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// Member is a person node inside a family tree
type Member struct {
	ID              uint       `json:"_id" gorm:"primaryKey"`
	FirstName       string     `json:"firstName" gorm:"type:varchar(100);not null"`
	LastName        string     `json:"lastName" gorm:"type:varchar(100);not null"`
	Gender          string     `json:"gender" gorm:"type:varchar(10);not null;index"`
	BirthDate       *time.Time `json:"birthDate"`
	DeathDate       *time.Time `json:"deathDate"`
	Bio             string     `json:"bio" gorm:"type:text"`
	ProfileImageURL string     `json:"profileImageUrl"`
	FamilyTreeID    uint       `json:"familyTreeId" gorm:"not null;index"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// LinkKind tags a member-to-member edge
type LinkKind string

const (
	LinkParent LinkKind = "parent"
	LinkChild  LinkKind = "child"
	LinkSpouse LinkKind = "spouse"
)

// MemberLink is an edge declared by MemberID towards RelatedID.
// A member's parents, children and spouse are the links it declares.
type MemberLink struct {
	ID           uint      `json:"_id" gorm:"primaryKey"`
	MemberID     uint      `json:"memberId" gorm:"not null;uniqueIndex:idx_member_link"`
	RelatedID    uint      `json:"relatedId" gorm:"not null;uniqueIndex:idx_member_link;index"`
	Kind         LinkKind  `json:"kind" gorm:"type:varchar(10);not null;uniqueIndex:idx_member_link"`
	FamilyTreeID uint      `json:"familyTreeId" gorm:"not null;index"`
	CreatedAt    time.Time `json:"createdAt"`
}
