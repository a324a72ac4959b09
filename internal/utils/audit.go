package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"storefront_back_end/internal/models"
)

// Auditor persists audit entries.
type Auditor interface {
	Record(ctx context.Context, entry models.AuditLog) error
}

// ScyllaAuditor writes entries to the audit_logs table.
type ScyllaAuditor struct {
	session *gocql.Session
}

func NewScyllaAuditor(session *gocql.Session) *ScyllaAuditor {
	return &ScyllaAuditor{session: session}
}

const auditTableCQL = `
	CREATE TABLE IF NOT EXISTS audit_logs (
		id timeuuid PRIMARY KEY,
		user_id text, action text, resource text, resource_id text,
		old_value text, new_value text, ip_address text, user_agent text,
		success boolean, status int, error_msg text, timestamp timestamp
	)`

// EnsureSchema creates the audit table when it does not exist.
func (a *ScyllaAuditor) EnsureSchema(ctx context.Context) error {
	return a.session.Query(auditTableCQL).WithContext(ctx).Exec()
}

func (a *ScyllaAuditor) Record(ctx context.Context, e models.AuditLog) error {
	if e.ID == (gocql.UUID{}) {
		e.ID = gocql.TimeUUID()
	}
	const query = `
		INSERT INTO audit_logs (
			id, user_id, action, resource, resource_id, old_value, new_value,
			ip_address, user_agent, success, status, error_msg, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	err := a.session.Query(query,
		e.ID, e.UserID, e.Action, e.Resource, e.ResourceID, e.OldValue, e.NewValue,
		e.IPAddress, e.UserAgent, e.Success, e.Status, e.ErrorMsg, e.Timestamp,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// AuditQuery filters audit entries. Zero values are ignored.
type AuditQuery struct {
	UserID   string
	Action   string
	Resource string
	Limit    int
}

const (
	DefaultAuditLimit = 100
	MaxAuditLimit     = 500
)

// AuditReader lists recorded entries.
type AuditReader interface {
	List(ctx context.Context, q AuditQuery) ([]models.AuditLog, error)
}

func (a *ScyllaAuditor) List(ctx context.Context, q AuditQuery) ([]models.AuditLog, error) {
	stmt, args := q.cql()
	iter := a.session.Query(stmt, args...).WithContext(ctx).Iter()

	var (
		logs []models.AuditLog
		e    models.AuditLog
	)
	for iter.Scan(&e.ID, &e.UserID, &e.Action, &e.Resource, &e.ResourceID,
		&e.OldValue, &e.NewValue, &e.IPAddress, &e.UserAgent,
		&e.Success, &e.Status, &e.ErrorMsg, &e.Timestamp) {
		logs = append(logs, e)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

func (q AuditQuery) cql() (string, []interface{}) {
	stmt := `SELECT id, user_id, action, resource, resource_id, old_value, new_value,
		ip_address, user_agent, success, status, error_msg, timestamp FROM audit_logs`

	var (
		conditions []string
		args       []interface{}
	)
	if q.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, q.Action)
	}
	if q.Resource != "" {
		conditions = append(conditions, "resource = ?")
		args = append(args, q.Resource)
	}
	if len(conditions) > 0 {
		stmt += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}
	stmt += " LIMIT ?"
	args = append(args, limit)
	if len(conditions) > 0 {
		stmt += " ALLOW FILTERING"
	}
	return stmt, args
}

// LogAuditor writes entries to the application log when no audit store is configured.
type LogAuditor struct {
	log *zap.Logger
}

func NewLogAuditor(log *zap.Logger) *LogAuditor {
	return &LogAuditor{log: log.Named("audit")}
}

func (a *LogAuditor) Record(_ context.Context, e models.AuditLog) error {
	a.log.Info(e.Action,
		zap.String("user_id", e.UserID),
		zap.String("resource", e.Resource),
		zap.String("resource_id", e.ResourceID),
		zap.String("old_value", e.OldValue),
		zap.String("new_value", e.NewValue),
		zap.Bool("success", e.Success),
		zap.Int("status", e.Status),
		zap.String("error", e.ErrorMsg),
		zap.String("ip", e.IPAddress),
		zap.Time("timestamp", e.Timestamp),
	)
	return nil
}

// EncodeValue renders an audited value as JSON, or "" when it cannot be encoded.
func EncodeValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

const (
	ActionProductCreate      = "product.create"
	ActionProductDelete      = "product.delete"
	ActionProductPriceChange = "product.price_change"
	ActionStockUpdate        = "stock.update"
	ActionStockClear         = "stock.clear"
	ActionCollectionDelete   = "collection.delete"
	ActionOrderCreate        = "order.create"
	ActionOrderPayment       = "order.payment_status"
	ActionOrderCancel        = "order.cancel"
	ActionOrderDelete        = "order.delete"
	ActionCustomerMembership = "customer.membership"
	ActionCustomerDelete     = "customer.delete"
)

const (
	ResourceProduct    = "product"
	ResourceCollection = "collection"
	ResourceInventory  = "inventory"
	ResourceOrder      = "order"
	ResourceCustomer   = "customer"
)
