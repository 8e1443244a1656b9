package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/internal/query"
	"github.com/Rashmi7205/admin-fam-tree/pkg/logger"
	"github.com/Rashmi7205/admin-fam-tree/pkg/mailer"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const signature = "Family Tree Team"

type ContactInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

type ContactFilter struct {
	Search string
	Status string
	Date   string
}

type ContactService struct {
	db     *gorm.DB
	mailer mailer.Mailer
	audit  *Auditor
}

func NewContactService(db *gorm.DB, m mailer.Mailer, audit *Auditor) *ContactService {
	return &ContactService{db: db, mailer: m, audit: audit}
}

func (s *ContactService) List(ctx context.Context, f ContactFilter, p query.Page) ([]model.Contact, query.Pagination, error) {
	defer prometheus.TrackDBOperation("contact_list")(time.Now())

	q := s.db.WithContext(ctx).Model(&model.Contact{})
	q = query.Search(q, f.Search, "first_name", "last_name", "email", "subject")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	q, err := query.Within(q, "created_at", f.Date)
	if err != nil {
		return nil, query.Pagination{}, invalid("Invalid date filter: %v", err)
	}

	contacts := []model.Contact{}
	pg, err := query.Paginate(q, p, "created_at DESC, id DESC", &contacts)
	return contacts, pg, err
}

func (s *ContactService) Get(ctx context.Context, id uint) (*model.Contact, error) {
	var contact model.Contact
	if err := s.db.WithContext(ctx).First(&contact, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Contact not found")
		}
		return nil, err
	}
	return &contact, nil
}

// Create stores a contact form submission as pending. actor is empty for
// public submissions.
func (s *ContactService) Create(ctx context.Context, actor Actor, in ContactInput) (*model.Contact, error) {
	if err := requireFields(
		text("firstName", in.FirstName),
		text("email", in.Email),
		text("subject", in.Subject),
		text("message", in.Message),
	); err != nil {
		return nil, err
	}

	contact := model.Contact{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     model.NormalizeEmail(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   strings.TrimSpace(in.Message),
		Status:    model.ContactPending,
	}

	defer prometheus.TrackDBOperation("contact_create")(time.Now())
	if err := s.db.WithContext(ctx).Create(&contact).Error; err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, "create", "contact", contact.ID, contact.Subject)
	return &contact, nil
}

func (s *ContactService) UpdateStatus(ctx context.Context, actor Actor, id uint, status string) (*model.Contact, error) {
	if id == 0 || status == "" {
		return nil, invalid("Missing contactId or status")
	}
	st := model.ContactStatus(status)
	if !st.Valid() {
		return nil, invalid("Invalid status %q", status)
	}

	contact, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("contact_update")(time.Now())

	updates := map[string]interface{}{"status": st}
	if st == model.ContactReplied && contact.RepliedAt == nil {
		updates["replied_at"] = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Model(contact).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, "update", "contact", contact.ID, status)
	return s.Get(ctx, contact.ID)
}

func (s *ContactService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := requireFields(ref("contactId", id)); err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("contact_delete")(time.Now())

	res := s.db.WithContext(ctx).Delete(&model.Contact{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Contact not found")
	}

	s.audit.Record(ctx, actor, "delete", "contact", id, "")
	return nil
}

// Reply mails the answer to the submitter and then marks the contact replied.
// The two steps are not atomic: a failed status update after a successful
// send is reported, not retried.
func (s *ContactService) Reply(ctx context.Context, actor Actor, id uint, message string) (*model.Contact, error) {
	if id == 0 || strings.TrimSpace(message) == "" {
		return nil, invalid("Missing contactId or message")
	}

	contact, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	log := logger.Ctx(ctx).With(zap.Uint("contact_id", contact.ID))

	err = s.mailer.Send(ctx, replyMessage(contact, message))
	prometheus.RecordEmail(s.mailer.Provider(), err)
	if err != nil {
		log.Error("Failed to send contact reply", zap.Error(err))
		return nil, &ExternalError{Message: "Failed to send reply", Err: err}
	}

	now := time.Now().UTC()
	err = func() error {
		defer prometheus.TrackDBOperation("contact_reply")(time.Now())
		return s.db.WithContext(ctx).Model(contact).Updates(map[string]interface{}{
			"status":     model.ContactReplied,
			"replied_at": now,
		}).Error
	}()
	if err != nil {
		log.Error("Reply sent but status update failed", zap.Error(err))
		return nil, &ExternalError{Message: "Reply sent but status update failed", Err: err}
	}
	contact.Status = model.ContactReplied
	contact.RepliedAt = &now

	s.audit.Record(ctx, actor, "reply", "contact", contact.ID, contact.Subject)
	return contact, nil
}

func replyMessage(c *model.Contact, message string) mailer.Message {
	name := oneLine(c.FirstName + " " + c.LastName)
	body := strings.ReplaceAll(html.EscapeString(strings.TrimSpace(message)), "\n", "<br/>")

	return mailer.Message{
		To:      c.Email,
		ToName:  name,
		Subject: "Resolved : " + oneLine(c.Subject),
		HTML: fmt.Sprintf("<p>Dear %s,</p><p>%s</p><p>Best regards,<br/>%s</p>",
			html.EscapeString(name), body, signature),
		Text: fmt.Sprintf("Dear %s,\n\n%s\n\nBest regards,\n%s\n", name, strings.TrimSpace(message), signature),
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
