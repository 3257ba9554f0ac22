// Package audit trace les actions sensibles sur les commandes.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cedra_orders/internal/models"
)

const (
	ActionOrderCreate = "order.create"
	ActionOrderUpdate = "order.update"
	ActionOrderPay    = "order.pay"

	ResourceOrder = "order"

	// ResourceIDKey : clé gin où un handler dépose l'id créé.
	ResourceIDKey = "audit_resource_id"
	// ValueKey : clé gin de la nouvelle valeur à tracer.
	ValueKey = "audit_new_value"
	// SkipKey : posé à true par un handler dont la requête n'est pas une
	// action (événement ignoré), rien n'est tracé.
	SkipKey = "audit_skip"

	recordTimeout = 5 * time.Second
)

type Recorder interface {
	Record(ctx context.Context, entry models.AuditLog) error
}

type Logger struct {
	rec Recorder
	now func() time.Time
}

func NewLogger(rec Recorder) *Logger {
	return &Logger{rec: rec, now: time.Now}
}

// LogAction enregistre une action réussie.
func (l *Logger) LogAction(c *gin.Context, action, resourceID string, newValue any) {
	l.record(l.entry(c, action, resourceID, newValue, true, ""))
}

// LogFailedAction enregistre une action échouée.
func (l *Logger) LogFailedAction(c *gin.Context, action, resourceID, errorMsg string) {
	l.record(l.entry(c, action, resourceID, nil, false, errorMsg))
}

// entry lit le contexte gin avant de passer en arrière-plan : c est recyclé
// à la fin de la requête.
func (l *Logger) entry(c *gin.Context, action, resourceID string, newValue any, success bool, errorMsg string) models.AuditLog {
	var value string
	if newValue != nil {
		if b, err := json.Marshal(newValue); err == nil {
			value = string(b)
		}
	}

	return models.AuditLog{
		ID:         uuid.NewString(),
		UserID:     c.GetString("user_id"),
		UserEmail:  c.GetString("email"),
		Action:     action,
		Resource:   ResourceOrder,
		ResourceID: resourceID,
		NewValue:   value,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Success:    success,
		ErrorMsg:   errorMsg,
		Timestamp:  l.now(),
	}
}

func (l *Logger) record(entry models.AuditLog) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := l.rec.Record(ctx, entry); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}

// Middleware trace l'action après le handler : succès pour un statut 2xx ou
// 3xx, échec sinon.
func Middleware(l *Logger, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.GetBool(SkipKey) {
			return
		}

		resourceID := c.Param("id")
		if id := c.GetString(ResourceIDKey); id != "" {
			resourceID = id
		}

		status := c.Writer.Status()
		if status >= http.StatusOK && status < http.StatusBadRequest {
			value, _ := c.Get(ValueKey)
			l.LogAction(c, action, resourceID, value)
			return
		}
		l.LogFailedAction(c, action, resourceID, http.StatusText(status))
	}
}

// MemoryRecorder garde les entrées en mémoire (mode sans Scylla).
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (m *MemoryRecorder) Record(_ context.Context, entry models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemoryRecorder) Entries() []models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditLog(nil), m.entries...)
}
