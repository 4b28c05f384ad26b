package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/middleware"
	"github.com/noah-isme/student-console/internal/service"
	"github.com/noah-isme/student-console/internal/web"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/observability"
)

const consolePath = "/"

// ConsoleHandler serves the HTML console. Every mutating route applies one
// action to the session's console and redirects back to the page.
type ConsoleHandler struct {
	console *service.ConsoleService
	logger  *zap.Logger
}

// NewConsoleHandler constructs a ConsoleHandler.
func NewConsoleHandler(console *service.ConsoleService, logger *zap.Logger) *ConsoleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleHandler{console: console, logger: logger}
}

// Register mounts the console routes.
func (h *ConsoleHandler) Register(r gin.IRoutes) {
	r.GET(consolePath, h.View)
	r.POST("/students/new", h.OpenCreate)
	r.POST("/students/:id/edit", h.OpenEdit)
	r.POST("/students/:id/delete", h.RequestDelete)
	r.POST("/form/cancel", h.CloseForm)
	r.POST("/form/submit", h.Submit)
	r.POST("/delete/confirm", h.ConfirmDelete)
	r.POST("/delete/cancel", h.CancelDelete)
	r.POST("/reload", h.Reload)
}

// View renders the console, re-reading the list unless it shows an action's outcome.
func (h *ConsoleHandler) View(c *gin.Context) {
	console, err := h.console.View(c.Request.Context(), middleware.SessionID(c))
	h.report(c, err)
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, web.ConsolePage, web.NewConsoleView(console))
}

// OpenCreate opens an empty form.
func (h *ConsoleHandler) OpenCreate(c *gin.Context) {
	h.apply(c, h.console.OpenCreate)
}

// OpenEdit opens the form for the record in the path.
func (h *ConsoleHandler) OpenEdit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.apply(c, func(ctx context.Context, sid string) (*service.Console, error) {
		return h.console.OpenEdit(ctx, sid, id)
	})
}

// CloseForm discards the open form.
func (h *ConsoleHandler) CloseForm(c *gin.Context) {
	h.apply(c, h.console.CloseForm)
}

// Submit validates and saves the posted form values.
func (h *ConsoleHandler) Submit(c *gin.Context) {
	var values service.FormValues
	if err := c.ShouldBind(&values); err != nil {
		c.String(http.StatusBadRequest, "invalid form submission")
		return
	}
	h.apply(c, func(ctx context.Context, sid string) (*service.Console, error) {
		return h.console.Submit(ctx, sid, values)
	})
}

// RequestDelete asks for confirmation before deleting the record in the path.
func (h *ConsoleHandler) RequestDelete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.apply(c, func(ctx context.Context, sid string) (*service.Console, error) {
		return h.console.RequestDelete(ctx, sid, id)
	})
}

// ConfirmDelete deletes the record awaiting confirmation.
func (h *ConsoleHandler) ConfirmDelete(c *gin.Context) {
	h.apply(c, h.console.ConfirmDelete)
}

// CancelDelete closes the confirmation.
func (h *ConsoleHandler) CancelDelete(c *gin.Context) {
	h.apply(c, h.console.CancelDelete)
}

// Reload re-fetches the list.
func (h *ConsoleHandler) Reload(c *gin.Context) {
	h.apply(c, h.console.Reload)
}

func (h *ConsoleHandler) apply(c *gin.Context, action func(context.Context, string) (*service.Console, error)) {
	_, err := action(c.Request.Context(), middleware.SessionID(c))
	h.report(c, err)
	c.Redirect(http.StatusSeeOther, consolePath)
}

// report records failures. Outcomes the user can act on already live in the
// console state; only server-side failures go to Sentry.
func (h *ConsoleHandler) report(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Warn("console action failed", zap.String("path", c.FullPath()), zap.String("code", appErr.Code), zap.Error(err))
		observability.CaptureErr(err)
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.String(http.StatusBadRequest, "invalid student id")
		return 0, false
	}
	return id, true
}
