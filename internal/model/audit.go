package model

import "time"

// AuditEvent records one admin mutation
type AuditEvent struct {
	ID         uint      `json:"_id" gorm:"primaryKey"`
	ActorID    uint      `json:"actorId" gorm:"index"`
	ActorEmail string    `json:"actorEmail" gorm:"type:varchar(255)"`
	Action     string    `json:"action" gorm:"type:varchar(50);not null;index"`
	Entity     string    `json:"entity" gorm:"type:varchar(50);not null;index"`
	EntityID   uint      `json:"entityId" gorm:"index"`
	Note       string    `json:"note,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// All returns every persisted model, in migration order
func All() []interface{} {
	return []interface{}{
		&Admin{},
		&User{},
		&FamilyTree{},
		&Member{},
		&MemberLink{},
		&Relationship{},
		&Contact{},
		&ModerationItem{},
		&AuditEvent{},
	}
}
