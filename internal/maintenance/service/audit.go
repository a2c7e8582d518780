package service

import (
	"context"
	"encoding/json"

	"github.com/mkhaled501333/maintaince-management/internal/maintenance/entity"
	"github.com/mkhaled501333/maintaince-management/internal/maintenance/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequestMeta caller details attached to audit rows
type RequestMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}

type requestMetaKey struct{}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// AuditEntry one activity log row before encoding. Old and new values are
// marshalled to JSON.
type AuditEntry struct {
	UserID      string
	Action      string
	EntityType  string
	EntityID    string
	Description string
	OldValues   interface{}
	NewValues   interface{}
}

// AuditWriter appends activity log rows. Failures are logged and never
// returned to the caller.
type AuditWriter struct {
	repo   *repository.ActivityLogRepository
	logger *zap.Logger
}

func NewAuditWriter(repo *repository.ActivityLogRepository, logger *zap.Logger) *AuditWriter {
	return &AuditWriter{repo: repo, logger: logger}
}

// Record writes entry inside tx under a savepoint so a failed insert leaves
// the outer transaction usable. A nil tx writes outside any transaction.
func (w *AuditWriter) Record(ctx context.Context, tx *gorm.DB, entry AuditEntry) {
	meta := RequestMetaFrom(ctx)
	row := &entity.ActivityLog{
		UserID:      entry.UserID,
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		Description: entry.Description,
		OldValues:   w.encode(entry.OldValues),
		NewValues:   w.encode(entry.NewValues),
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
	}

	var err error
	if tx == nil {
		err = w.repo.Create(ctx, row)
	} else {
		err = tx.Transaction(func(sp *gorm.DB) error {
			return w.repo.WithTx(sp).Create(ctx, row)
		})
	}
	if err != nil {
		w.logger.Error("audit write failed",
			zap.String("action", entry.Action),
			zap.String("entity_type", entry.EntityType),
			zap.String("entity_id", entry.EntityID),
			zap.String("request_id", meta.RequestID),
			zap.Error(err),
		)
	}
}

func (w *AuditWriter) encode(v interface{}) string {
	if v == nil {
		return ""
	}
	raw, err := json.Marshal(v)
	if err != nil {
		w.logger.Warn("audit value not encodable", zap.Error(err))
		return ""
	}
	return string(raw)
}
