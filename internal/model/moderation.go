package model

import "time"

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
	ModerationFlagged  ModerationStatus = "flagged"
)

func (s ModerationStatus) Valid() bool {
	switch s {
	case ModerationPending, ModerationApproved, ModerationRejected, ModerationFlagged:
		return true
	}
	return false
}

// Final statuses cannot be changed again.
func (s ModerationStatus) Final() bool {
	return s == ModerationApproved || s == ModerationRejected
}

var (
	ContentTypes  = []string{"tree", "member", "profile", "comment"}
	ReportReasons = []string{"inappropriate_content", "misinformation", "spam", "harassment", "copyright", "other"}
)

func ValidContentType(v string) bool  { return contains(ContentTypes, v) }
func ValidReportReason(v string) bool { return contains(ReportReasons, v) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type Reporter struct {
	ID          *uint  `json:"_id"`
	DisplayName string `json:"displayName" gorm:"type:varchar(255)"`
	Email       string `json:"email" gorm:"type:varchar(255)"`
}

// ModerationItem is a user report about a piece of content
type ModerationItem struct {
	ID             uint             `json:"_id" gorm:"primaryKey"`
	ContentType    string           `json:"contentType" gorm:"type:varchar(20);not null;index"`
	ContentID      string           `json:"contentId" gorm:"type:varchar(64);not null"`
	Title          string           `json:"title" gorm:"type:varchar(255);not null"`
	Description    string           `json:"description" gorm:"type:text"`
	ReportedBy     Reporter         `json:"reportedBy" gorm:"embedded;embeddedPrefix:reported_by_"`
	ReportReason   string           `json:"reportReason" gorm:"type:varchar(40);not null;index"`
	Status         ModerationStatus `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	ModeratorNotes string           `json:"moderatorNotes" gorm:"type:text"`
	ModeratedBy    *uint            `json:"moderatedBy"`
	ModeratedAt    *time.Time       `json:"moderatedAt"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}
