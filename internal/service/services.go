// Package service implements the back-office operations on top of GORM.
// Services return the typed errors in errors.go and leave HTTP concerns to
// the handlers.
package service

import (
	"github.com/Rashmi7205/admin-fam-tree/pkg/events"
	"github.com/Rashmi7205/admin-fam-tree/pkg/identity"
	"github.com/Rashmi7205/admin-fam-tree/pkg/jwtutil"
	"github.com/Rashmi7205/admin-fam-tree/pkg/mailer"
	"github.com/Rashmi7205/admin-fam-tree/pkg/storage"
	"gorm.io/gorm"
)

// Deps are the collaborators the services are built from
type Deps struct {
	DB           *gorm.DB
	JWT          *jwtutil.JWTUtil
	Identity     identity.Provider
	Mailer       mailer.Mailer
	Uploader     storage.Uploader
	Publisher    events.Publisher
	UploadFolder string
	MaxUpload    int64
}

type Services struct {
	Audit         *Auditor
	Auth          *AuthService
	Admins        *AdminService
	Users         *UserService
	Trees         *TreeService
	Members       *MemberService
	Relationships *RelationshipService
	Contacts      *ContactService
	Moderation    *ModerationService
	Dashboard     *DashboardService
	Uploads       *UploadService
}

func New(d Deps) *Services {
	audit := NewAuditor(d.DB, d.Publisher)
	uploads := NewUploadService(d.Uploader, d.UploadFolder, d.MaxUpload)

	return &Services{
		Audit:         audit,
		Auth:          NewAuthService(d.DB, d.JWT),
		Admins:        NewAdminService(d.DB, audit),
		Users:         NewUserService(d.DB, d.Identity, audit),
		Trees:         NewTreeService(d.DB, audit),
		Members:       NewMemberService(d.DB, uploads, audit),
		Relationships: NewRelationshipService(d.DB, audit),
		Contacts:      NewContactService(d.DB, d.Mailer, audit),
		Moderation:    NewModerationService(d.DB, audit),
		Dashboard:     NewDashboardService(d.DB),
		Uploads:       uploads,
	}
}
