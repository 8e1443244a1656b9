package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/internal/query"
	"github.com/Rashmi7205/admin-fam-tree/pkg/identity"
	"github.com/Rashmi7205/admin-fam-tree/pkg/logger"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserInput struct {
	Email              string         `json:"email"`
	Password           string         `json:"password"`
	DisplayName        string         `json:"displayName"`
	PhotoURL           string         `json:"photoURL"`
	PhoneNumber        string         `json:"phoneNumber"`
	Role               string         `json:"role"`
	EmailVerified      bool           `json:"emailVerified"`
	OnboardingComplete bool           `json:"onboardingComplete"`
	ProfileComplete    bool           `json:"profileComplete"`
	IsActive           *bool          `json:"isActive"`
	Profile            *model.Profile `json:"profile"`
	Address            *model.Address `json:"address"`
}

type UserUpdate struct {
	UserID             uint           `json:"userId"`
	Email              *string        `json:"email"`
	DisplayName        *string        `json:"displayName"`
	PhotoURL           *string        `json:"photoURL"`
	PhoneNumber        *string        `json:"phoneNumber"`
	Role               *string        `json:"role"`
	EmailVerified      *bool          `json:"emailVerified"`
	OnboardingComplete *bool          `json:"onboardingComplete"`
	ProfileComplete    *bool          `json:"profileComplete"`
	IsActive           *bool          `json:"isActive"`
	Profile            *model.Profile `json:"profile"`
	Address            *model.Address `json:"address"`
}

type UserFilter struct {
	Search             string
	Provider           string
	EmailVerified      string
	OnboardingComplete string
	Role               string
	IsActive           string
}

// UserService keeps end-user rows and their identity provider accounts in step
type UserService struct {
	db       *gorm.DB
	identity identity.Provider
	audit    *Auditor
}

func NewUserService(db *gorm.DB, idp identity.Provider, audit *Auditor) *UserService {
	return &UserService{db: db, identity: idp, audit: audit}
}

func (s *UserService) List(ctx context.Context, f UserFilter, p query.Page) ([]model.User, query.Pagination, error) {
	defer prometheus.TrackDBOperation("user_list")(time.Now())

	q := s.db.WithContext(ctx).Model(&model.User{})
	q = query.Search(q, f.Search, "display_name", "email")
	if f.Provider != "" {
		q = q.Where("provider = ?", f.Provider)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if v, ok := query.Bool(f.EmailVerified); ok {
		q = q.Where("email_verified = ?", v)
	}
	if v, ok := query.Bool(f.OnboardingComplete); ok {
		q = q.Where("onboarding_complete = ?", v)
	}
	if v, ok := query.Bool(f.IsActive); ok {
		q = q.Where("is_active = ?", v)
	}

	users := []model.User{}
	pg, err := query.Paginate(q, p, "created_at DESC, id DESC", &users)
	return users, pg, err
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

// Create provisions the identity account first, then inserts the row. When
// the insert fails the account is removed again.
func (s *UserService) Create(ctx context.Context, actor Actor, in UserInput) (*model.User, error) {
	if err := requireFields(text("email", in.Email), text("password", in.Password)); err != nil {
		return nil, err
	}

	email := model.NormalizeEmail(in.Email)
	taken, err := s.emailTaken(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &DuplicateError{Message: "User with this email already exists"}
	}

	log := logger.Ctx(ctx)

	uid, err := s.identity.CreateAccount(ctx, identity.CreateAccountRequest{
		Email:         email,
		Password:      in.Password,
		DisplayName:   strings.TrimSpace(in.DisplayName),
		EmailVerified: in.EmailVerified,
	})
	if err != nil {
		log.Error("Failed to provision identity account", zap.String("email", email), zap.Error(err))
		return nil, &ExternalError{Message: "Failed to create user in identity provider", Err: err}
	}

	user := model.User{
		Email:              email,
		DisplayName:        strings.TrimSpace(in.DisplayName),
		PhotoURL:           in.PhotoURL,
		Provider:           model.ProviderEmail,
		UID:                uid,
		EmailVerified:      in.EmailVerified,
		OnboardingComplete: in.OnboardingComplete,
		ProfileComplete:    in.ProfileComplete,
		PhoneNumber:        in.PhoneNumber,
		Role:               in.Role,
		IsActive:           true,
	}
	if user.Role == "" {
		user.Role = "user"
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.Profile != nil {
		user.Profile = datatypes.NewJSONType(*in.Profile)
	}
	if in.Address != nil {
		user.Address = *in.Address
	}

	func() {
		defer prometheus.TrackDBOperation("user_create")(time.Now())
		err = s.db.WithContext(ctx).Create(&user).Error
	}()
	if err != nil {
		if derr := s.identity.DeleteAccount(ctx, uid); derr != nil && !errors.Is(derr, identity.ErrAccountNotFound) {
			log.Error("Failed to roll back identity account", zap.String("uid", uid), zap.Error(derr))
		}
		return nil, uniqueViolation(err, "User with this email already exists")
	}

	s.audit.Record(ctx, actor, "create", "user", user.ID, user.Email)
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, actor Actor, in UserUpdate) (*model.User, error) {
	if err := requireFields(ref("userId", in.UserID)); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("user_update")(time.Now())

	if in.Email != nil {
		email := model.NormalizeEmail(*in.Email)
		if email == "" {
			return nil, invalid("Email cannot be empty")
		}
		if email != user.Email {
			taken, err := s.emailTaken(ctx, email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, &DuplicateError{Message: "Another user with this email already exists"}
			}
			user.Email = email
		}
	}
	if in.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*in.DisplayName)
	}
	if in.PhotoURL != nil {
		user.PhotoURL = *in.PhotoURL
	}
	if in.PhoneNumber != nil {
		user.PhoneNumber = *in.PhoneNumber
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.EmailVerified != nil {
		user.EmailVerified = *in.EmailVerified
	}
	if in.OnboardingComplete != nil {
		user.OnboardingComplete = *in.OnboardingComplete
	}
	if in.ProfileComplete != nil {
		user.ProfileComplete = *in.ProfileComplete
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.Profile != nil {
		user.Profile = datatypes.NewJSONType(*in.Profile)
	}
	if in.Address != nil {
		user.Address = *in.Address
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, uniqueViolation(err, "Another user with this email already exists")
	}

	s.audit.Record(ctx, actor, "update", "user", user.ID, user.Email)
	return user, nil
}

// Delete removes the identity account before the row. If the provider call
// fails the row is kept so the delete can be retried.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := requireFields(ref("userId", id)); err != nil {
		return err
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if user.UID != "" {
		err := s.identity.DeleteAccount(ctx, user.UID)
		switch {
		case errors.Is(err, identity.ErrAccountNotFound):
			logger.Ctx(ctx).Warn("Identity account already gone", zap.String("uid", user.UID))
		case err != nil:
			logger.Ctx(ctx).Error("Failed to delete identity account", zap.String("uid", user.UID), zap.Error(err))
			return &ExternalError{Message: "Failed to delete user from identity provider", Err: err}
		}
	}

	defer prometheus.TrackDBOperation("user_delete")(time.Now())
	if err := s.db.WithContext(ctx).Delete(&model.User{}, user.ID).Error; err != nil {
		return err
	}

	s.audit.Record(ctx, actor, "delete", "user", user.ID, user.Email)
	return nil
}

func (s *UserService) emailTaken(ctx context.Context, email string, except uint) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email)
	if except != 0 {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
