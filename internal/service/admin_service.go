package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/internal/query"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"gorm.io/gorm"
)

type AdminInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// AdminUpdate carries the fields to change. Nil fields are left alone.
type AdminUpdate struct {
	AdminID   uint    `json:"adminId"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"isActive"`
}

type AdminFilter struct {
	Search   string
	Role     string
	IsActive string
}

type AdminService struct {
	db    *gorm.DB
	audit *Auditor
}

func NewAdminService(db *gorm.DB, audit *Auditor) *AdminService {
	return &AdminService{db: db, audit: audit}
}

func (s *AdminService) List(ctx context.Context, f AdminFilter, p query.Page) ([]model.Admin, query.Pagination, error) {
	defer prometheus.TrackDBOperation("admin_list")(time.Now())

	q := s.db.WithContext(ctx).Model(&model.Admin{})
	q = query.Search(q, f.Search, "first_name", "last_name", "email")
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if active, ok := query.Bool(f.IsActive); ok {
		q = q.Where("is_active = ?", active)
	}

	admins := []model.Admin{}
	pg, err := query.Paginate(q, p, "created_at DESC, id DESC", &admins)
	return admins, pg, err
}

func (s *AdminService) Create(ctx context.Context, actor Actor, in AdminInput) (*model.Admin, error) {
	if err := requireFields(
		text("email", in.Email),
		text("password", in.Password),
		text("firstName", in.FirstName),
		text("lastName", in.LastName),
		text("role", in.Role),
	); err != nil {
		return nil, err
	}
	if !model.ValidAdminRole(in.Role) {
		return nil, invalid("Invalid role %q", in.Role)
	}

	defer prometheus.TrackDBOperation("admin_create")(time.Now())

	email := model.NormalizeEmail(in.Email)
	taken, err := s.emailTaken(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &DuplicateError{Message: "Admin with this email already exists"}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	admin := model.Admin{
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return nil, uniqueViolation(err, "Admin with this email already exists")
	}

	s.audit.Record(ctx, actor, "create", "admin", admin.ID, admin.Email)
	return &admin, nil
}

func (s *AdminService) Update(ctx context.Context, actor Actor, in AdminUpdate) (*model.Admin, error) {
	if err := requireFields(ref("adminId", in.AdminID)); err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("admin_update")(time.Now())

	var admin model.Admin
	if err := s.db.WithContext(ctx).First(&admin, in.AdminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Admin not found")
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Email != nil {
		email := model.NormalizeEmail(*in.Email)
		if email == "" {
			return nil, invalid("Email cannot be empty")
		}
		if email != admin.Email {
			taken, err := s.emailTaken(ctx, email, admin.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, &DuplicateError{Message: "Another admin with this email already exists"}
			}
			updates["email"] = email
		}
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}
	if in.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Role != nil {
		if !model.ValidAdminRole(*in.Role) {
			return nil, invalid("Invalid role %q", *in.Role)
		}
		updates["role"] = *in.Role
	}
	if in.IsActive != nil {
		if !*in.IsActive && admin.ID == actor.ID {
			return nil, invalid("You cannot deactivate your own account")
		}
		updates["is_active"] = *in.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&admin).Updates(updates).Error; err != nil {
			return nil, uniqueViolation(err, "Another admin with this email already exists")
		}
		if err := s.db.WithContext(ctx).First(&admin, admin.ID).Error; err != nil {
			return nil, err
		}
	}

	s.audit.Record(ctx, actor, "update", "admin", admin.ID, admin.Email)
	return &admin, nil
}

// Deactivate soft-deletes an admin. Admins are never removed.
func (s *AdminService) Deactivate(ctx context.Context, actor Actor, id uint) error {
	if err := requireFields(ref("adminId", id)); err != nil {
		return err
	}
	if id == actor.ID {
		return invalid("You cannot deactivate your own account")
	}

	defer prometheus.TrackDBOperation("admin_deactivate")(time.Now())

	res := s.db.WithContext(ctx).Model(&model.Admin{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Admin not found")
	}

	s.audit.Record(ctx, actor, "deactivate", "admin", id, "")
	return nil
}

func (s *AdminService) emailTaken(ctx context.Context, email string, except uint) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&model.Admin{}).Where("email = ?", email)
	if except != 0 {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
