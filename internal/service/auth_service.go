package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/pkg/jwtutil"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type AuthService struct {
	db  *gorm.DB
	jwt *jwtutil.JWTUtil
}

func NewAuthService(db *gorm.DB, jwt *jwtutil.JWTUtil) *AuthService {
	return &AuthService{db: db, jwt: jwt}
}

func (s *AuthService) TTL() time.Duration {
	return s.jwt.TTL()
}

// Login checks the credentials of an active admin, records the login time and
// issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Admin, string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, "", invalid("Email and password are required")
	}

	defer prometheus.TrackDBOperation("admin_login")(time.Now())

	var admin model.Admin
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", model.NormalizeEmail(email), true).
		First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&admin).UpdateColumn("last_login", now).Error; err != nil {
		return nil, "", err
	}
	admin.LastLogin = &now

	token, err := s.jwt.GenerateToken(admin.ID, admin.Email, admin.Role)
	if err != nil {
		return nil, "", err
	}
	return &admin, token, nil
}

// Authenticate validates a session token and reloads its admin. Tokens of
// deactivated or deleted admins are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Admin, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	var admin model.Admin
	err = s.db.WithContext(ctx).Where("id = ? AND is_active = ?", claims.AdminID, true).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// EnsureAdmin creates the admin, or resets its password, role and active flag
// when the email is already registered. It reports whether a row was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, in AdminInput) (*model.Admin, bool, error) {
	if err := requireFields(
		text("email", in.Email),
		text("password", in.Password),
		text("firstName", in.FirstName),
		text("lastName", in.LastName),
		text("role", in.Role),
	); err != nil {
		return nil, false, err
	}
	if !model.ValidAdminRole(in.Role) {
		return nil, false, invalid("Invalid role %q", in.Role)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, false, err
	}

	var admin model.Admin
	created := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", model.NormalizeEmail(in.Email)).First(&admin).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			admin = model.Admin{
				Email:        model.NormalizeEmail(in.Email),
				PasswordHash: hash,
				Role:         in.Role,
				FirstName:    strings.TrimSpace(in.FirstName),
				LastName:     strings.TrimSpace(in.LastName),
				IsActive:     true,
			}
			created = true
			return tx.Create(&admin).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&admin).Updates(map[string]interface{}{
			"password_hash": hash,
			"role":          in.Role,
			"is_active":     true,
		}).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &admin, created, nil
}
