package model

import "time"

type RelationshipType string

const (
	RelParent      RelationshipType = "parent"
	RelChild       RelationshipType = "child"
	RelSpouse      RelationshipType = "spouse"
	RelSibling     RelationshipType = "sibling"
	RelGrandparent RelationshipType = "grandparent"
	RelGrandchild  RelationshipType = "grandchild"
	RelCousin      RelationshipType = "cousin"
)

var RelationshipTypes = []RelationshipType{
	RelParent, RelChild, RelSpouse, RelSibling, RelGrandparent, RelGrandchild, RelCousin,
}

func (t RelationshipType) Valid() bool {
	for _, v := range RelationshipTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Relationship is a free-form labelled pair of members. It is not kept
// symmetric or transitive.
type Relationship struct {
	ID               uint             `json:"_id" gorm:"primaryKey"`
	Member1ID        uint             `json:"member1Id" gorm:"not null;index;uniqueIndex:idx_relationship"`
	Member2ID        uint             `json:"member2Id" gorm:"not null;index;uniqueIndex:idx_relationship"`
	FamilyTreeID     uint             `json:"familyTreeId" gorm:"not null;index"`
	RelationshipType RelationshipType `json:"relationshipType" gorm:"type:varchar(20);not null;uniqueIndex:idx_relationship"`
	Member1          *Member          `json:"-" gorm:"foreignKey:Member1ID"`
	Member2          *Member          `json:"-" gorm:"foreignKey:Member2ID"`
	FamilyTree       *FamilyTree      `json:"-" gorm:"foreignKey:FamilyTreeID"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}
