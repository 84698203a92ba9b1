package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/parking-management/internal/metrics"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

// AuditService writes and reads the audit trail.
type AuditService struct {
	logs LogStore
	log  logrus.FieldLogger
	now  Clock
}

func NewAuditService(logs LogStore, log logrus.FieldLogger) *AuditService {
	return &AuditService{logs: logs, log: log, now: systemClock}
}

// auditWriteTimeout bounds one audit insert once it is detached from the
// request.
const auditWriteTimeout = 5 * time.Second

// Record stores an audit entry. A failed write is logged and counted but never
// propagated: the operation being audited has already happened. The write
// outlives a cancelled request context.
func (s *AuditService) Record(ctx context.Context, actorID, action string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	entry := &model.Log{UserID: actorID, Action: action, CreatedAt: s.now()}
	if err := s.logs.Create(ctx, entry); err != nil {
		metrics.AuditWriteFailed()
		s.log.WithError(err).WithFields(logrus.Fields{
			"actor_id": actorID,
			"action":   action,
		}).Error("audit write failed")
	}
}

// List returns a page of audit entries, newest first. Admin only.
func (s *AuditService) List(ctx context.Context, a Actor, p model.PageRequest) (model.Page[model.Log], error) {
	if err := requireRole(a, model.RoleAdmin); err != nil {
		return model.Page[model.Log]{}, err
	}
	p = p.Normalize()
	logs, total, err := s.logs.List(ctx, p)
	if err != nil {
		return model.Page[model.Log]{}, err
	}
	return model.NewPage(logs, total, p), nil
}
