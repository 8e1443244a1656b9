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

type ReportInput struct {
	ContentType  string         `json:"contentType"`
	ContentID    string         `json:"contentId"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	ReportReason string         `json:"reportReason"`
	ReportedBy   model.Reporter `json:"reportedBy"`
}

type ModerationDecision struct {
	ID             uint   `json:"_id"`
	Status         string `json:"status"`
	ModeratorNotes string `json:"moderatorNotes"`
}

type ModerationFilter struct {
	Search       string
	Status       string
	ContentType  string
	ReportReason string
}

type ModerationService struct {
	db    *gorm.DB
	audit *Auditor
}

func NewModerationService(db *gorm.DB, audit *Auditor) *ModerationService {
	return &ModerationService{db: db, audit: audit}
}

func (s *ModerationService) List(ctx context.Context, f ModerationFilter, p query.Page) ([]model.ModerationItem, query.Pagination, error) {
	defer prometheus.TrackDBOperation("moderation_list")(time.Now())

	q := s.db.WithContext(ctx).Model(&model.ModerationItem{})
	q = query.Search(q, f.Search, "title", "description")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ContentType != "" {
		q = q.Where("content_type = ?", f.ContentType)
	}
	if f.ReportReason != "" {
		q = q.Where("report_reason = ?", f.ReportReason)
	}

	items := []model.ModerationItem{}
	pg, err := query.Paginate(q, p, "created_at DESC, id DESC", &items)
	return items, pg, err
}

func (s *ModerationService) Get(ctx context.Context, id uint) (*model.ModerationItem, error) {
	var item model.ModerationItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Moderation item not found")
		}
		return nil, err
	}
	return &item, nil
}

// Report files a new pending item
func (s *ModerationService) Report(ctx context.Context, actor Actor, in ReportInput) (*model.ModerationItem, error) {
	if err := requireFields(
		text("contentType", in.ContentType),
		text("contentId", in.ContentID),
		text("title", in.Title),
		text("reportReason", in.ReportReason),
	); err != nil {
		return nil, err
	}
	if !model.ValidContentType(in.ContentType) {
		return nil, invalid("Invalid content type %q", in.ContentType)
	}
	if !model.ValidReportReason(in.ReportReason) {
		return nil, invalid("Invalid report reason %q", in.ReportReason)
	}

	item := model.ModerationItem{
		ContentType:  in.ContentType,
		ContentID:    strings.TrimSpace(in.ContentID),
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		ReportedBy:   in.ReportedBy,
		ReportReason: in.ReportReason,
		Status:       model.ModerationPending,
	}

	defer prometheus.TrackDBOperation("moderation_create")(time.Now())
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, "report", "moderation", item.ID, item.ReportReason)
	return &item, nil
}

// Decide records a moderator decision. Approved and rejected items are final.
func (s *ModerationService) Decide(ctx context.Context, actor Actor, in ModerationDecision) (*model.ModerationItem, error) {
	if err := requireFields(ref("_id", in.ID), text("status", in.Status)); err != nil {
		return nil, err
	}
	status := model.ModerationStatus(in.Status)
	if !status.Valid() {
		return nil, invalid("Invalid status %q", in.Status)
	}

	defer prometheus.TrackDBOperation("moderation_update")(time.Now())

	var item *model.ModerationItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.ModerationItem
		if err := tx.First(&current, in.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Moderation item not found")
			}
			return err
		}
		if current.Status.Final() {
			return invalid("Moderation item is already %s", current.Status)
		}

		now := time.Now().UTC()
		moderator := actor.ID
		current.Status = status
		current.ModeratorNotes = strings.TrimSpace(in.ModeratorNotes)
		current.ModeratedBy = &moderator
		current.ModeratedAt = &now
		if err := tx.Save(&current).Error; err != nil {
			return err
		}
		item = &current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, "moderate", "moderation", item.ID, string(item.Status))
	return item, nil
}

func (s *ModerationService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := requireFields(ref("id", id)); err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("moderation_delete")(time.Now())

	res := s.db.WithContext(ctx).Delete(&model.ModerationItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Moderation item not found")
	}

	s.audit.Record(ctx, actor, "delete", "moderation", id, "")
	return nil
}
