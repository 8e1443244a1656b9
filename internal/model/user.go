package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ProviderEmail    = "email"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// Profile holds the optional personal details of a user
type Profile struct {
	Title         string `json:"title,omitempty"`
	FullName      string `json:"fullName,omitempty"`
	Gender        string `json:"gender,omitempty"`
	DateOfBirth   string `json:"dateOfBirth,omitempty"`
	BloodGroup    string `json:"bloodGroup,omitempty"`
	Education     string `json:"education,omitempty"`
	Occupation    string `json:"occupation,omitempty"`
	MaritalStatus string `json:"maritalStatus,omitempty"`
}

type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type Address struct {
	Street      string      `json:"street"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Country     string      `json:"country" gorm:"index"`
	PostalCode  string      `json:"postalCode"`
	Coordinates Coordinates `json:"coordinates" gorm:"embedded;embeddedPrefix:coordinates_"`
}

// User is an end-user account of the family tree application
type User struct {
	ID                 uint                        `json:"_id" gorm:"primaryKey"`
	Email              string                      `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	DisplayName        string                      `json:"displayName" gorm:"type:varchar(255)"`
	PhotoURL           string                      `json:"photoURL"`
	Provider           string                      `json:"provider" gorm:"type:varchar(20);index"`
	UID                string                      `json:"uid" gorm:"column:uid;type:varchar(128);index"`
	EmailVerified      bool                        `json:"emailVerified"`
	OnboardingComplete bool                        `json:"onboardingComplete"`
	ProfileComplete    bool                        `json:"profileComplete"`
	PhoneNumber        string                      `json:"phoneNumber"`
	Role               string                      `json:"role" gorm:"type:varchar(20);default:user"`
	IsActive           bool                        `json:"isActive" gorm:"index"`
	Profile            datatypes.JSONType[Profile] `json:"profile"`
	Address            Address                     `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	CreatedAt          time.Time                   `json:"createdAt"`
	UpdatedAt          time.Time                   `json:"updatedAt"`
}

func ValidProvider(p string) bool {
	return p == ProviderEmail || p == ProviderGoogle || p == ProviderFacebook
}
