package service

import (
	"context"
	"time"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/internal/query"
	"github.com/Rashmi7205/admin-fam-tree/pkg/events"
	"github.com/Rashmi7205/admin-fam-tree/pkg/logger"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Actor is the admin performing an operation
type Actor struct {
	ID    uint
	Email string
	Role  string
}

func ActorFrom(a *model.Admin) Actor {
	if a == nil {
		return Actor{}
	}
	return Actor{ID: a.ID, Email: a.Email, Role: a.Role}
}

// Auditor stores an audit row for each mutation and mirrors it to the event
// stream. Failures are logged and never fail the operation.
type Auditor struct {
	db        *gorm.DB
	publisher events.Publisher
}

func NewAuditor(db *gorm.DB, publisher events.Publisher) *Auditor {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Auditor{db: db, publisher: publisher}
}

func (a *Auditor) Record(ctx context.Context, actor Actor, action, entity string, entityID uint, note string) {
	prometheus.RecordResourceOperation(entity, action)
	log := logger.Ctx(ctx)

	row := model.AuditEvent{
		ActorID:    actor.ID,
		ActorEmail: actor.Email,
		Action:     action,
		Entity:     entity,
		EntityID:   entityID,
		Note:       note,
	}
	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Error("Failed to store audit event", zap.String("action", action), zap.String("entity", entity), zap.Error(err))
	}

	err := a.publisher.Publish(ctx, events.Event{
		Action:     action,
		Entity:     entity,
		EntityID:   entityID,
		ActorID:    actor.ID,
		ActorEmail: actor.Email,
		Note:       note,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		log.Warn("Failed to publish audit event", zap.String("action", action), zap.String("entity", entity), zap.Error(err))
	}
}

type AuditFilter struct {
	Entity string
	Action string
	Actor  string
}

// List returns audit events, newest first
func (a *Auditor) List(ctx context.Context, f AuditFilter, p query.Page) ([]model.AuditEvent, query.Pagination, error) {
	defer prometheus.TrackDBOperation("audit_list")(time.Now())

	q := a.db.WithContext(ctx).Model(&model.AuditEvent{})
	if f.Entity != "" {
		q = q.Where("entity = ?", f.Entity)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if actorID, ok := query.Uint(f.Actor); ok {
		q = q.Where("actor_id = ?", actorID)
	}

	rows := []model.AuditEvent{}
	pg, err := query.Paginate(q, p, "created_at DESC, id DESC", &rows)
	return rows, pg, err
}
