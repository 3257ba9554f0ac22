package scylla

import (
	"context"

	"github.com/gocql/gocql"

	"cedra_orders/internal/models"
)

// AuditLogs écrit dans la table audit_logs.
type AuditLogs struct {
	session *gocql.Session
}

func NewAuditLogs(session *gocql.Session) *AuditLogs {
	return &AuditLogs{session: session}
}

func (a *AuditLogs) Record(ctx context.Context, entry models.AuditLog) error {
	id, err := gocql.ParseUUID(entry.ID)
	if err != nil {
		id = gocql.TimeUUID()
	}

	return a.session.Query(`
		INSERT INTO audit_logs (
			id, user_id, user_email, action, resource, resource_id,
			new_value, ip_address, user_agent, success, error_msg, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, entry.UserID, entry.UserEmail, entry.Action, entry.Resource, entry.ResourceID,
		entry.NewValue, entry.IPAddress, entry.UserAgent, entry.Success, entry.ErrorMsg, entry.Timestamp,
	).WithContext(ctx).Exec()
}
