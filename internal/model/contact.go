package model

import "time"

type ContactStatus string

const (
	ContactPending  ContactStatus = "pending"
	ContactRead     ContactStatus = "read"
	ContactReplied  ContactStatus = "replied"
	ContactArchived ContactStatus = "archived"
)

func (s ContactStatus) Valid() bool {
	switch s {
	case ContactPending, ContactRead, ContactReplied, ContactArchived:
		return true
	}
	return false
}

// Contact is a query submitted through the public contact form
type Contact struct {
	ID        uint          `json:"_id" gorm:"primaryKey"`
	FirstName string        `json:"firstName" gorm:"type:varchar(100);not null"`
	LastName  string        `json:"lastName" gorm:"type:varchar(100)"`
	Email     string        `json:"email" gorm:"type:varchar(255);not null;index"`
	Phone     string        `json:"phone" gorm:"type:varchar(50)"`
	Subject   string        `json:"subject" gorm:"type:varchar(255);not null"`
	Message   string        `json:"message" gorm:"type:text;not null"`
	Status    ContactStatus `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	RepliedAt *time.Time    `json:"repliedAt"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
