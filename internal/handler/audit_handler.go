package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-console/internal/models"
	"github.com/noah-isme/student-console/pkg/response"
)

type auditReader interface {
	Recent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// AuditHandler lists recent console mutations.
type AuditHandler struct {
	audit auditReader
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(audit auditReader) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// Recent godoc
// @Summary Recent audit entries
// @Tags Audit
// @Produce json
// @Param limit query int false "Maximum entries (default 50)"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	response.JSON(c, http.StatusOK, logs, map[string]interface{}{"count": len(logs)})
}
