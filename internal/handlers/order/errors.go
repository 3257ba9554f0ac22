package order

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"cedra_orders/internal/orders"
)

var statusByKind = map[orders.Kind]int{
	orders.KindValidation: http.StatusBadRequest,
	orders.KindNotFound:   http.StatusNotFound,
	orders.KindConflict:   http.StatusConflict,
	orders.KindForbidden:  http.StatusForbidden,
	orders.KindInternal:   http.StatusInternalServerError,
}

// respondError traduit une erreur du workflow en {"error", "kind"}.
func respondError(c *gin.Context, err error) {
	var oe *orders.Error
	if !errors.As(err, &oe) {
		oe = &orders.Error{Kind: orders.KindInternal, Message: orders.MsgInternal, Err: err}
	}
	if oe.Kind == orders.KindInternal {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}

	status, ok := statusByKind[oe.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, gin.H{"error": oe.Message, "kind": oe.Kind})
}
