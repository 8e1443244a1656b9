package model

import "time"

// FamilyTree is a named collection of members owned by a user
type FamilyTree struct {
	ID          uint      `json:"_id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null;index"`
	Description string    `json:"description" gorm:"type:text"`
	UserID      uint      `json:"userId" gorm:"not null;index"`
	IsPublic    bool      `json:"isPublic" gorm:"index"`
	ShareLink   string    `json:"shareLink" gorm:"type:varchar(32);uniqueIndex"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
