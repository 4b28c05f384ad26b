package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-console/internal/models"
	"github.com/noah-isme/student-console/internal/service"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/response"
)

type studentReader interface {
	List(ctx context.Context) ([]models.Student, error)
	Get(ctx context.Context, id int64) (*models.Student, error)
}

type formValidator interface {
	Validate(values service.FormValues) map[string]string
}

// ValidationResult is returned by the validate endpoint.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// StudentAPIHandler exposes read-only student endpoints and form validation.
type StudentAPIHandler struct {
	students studentReader
	forms    formValidator
}

// NewStudentAPIHandler constructs StudentAPIHandler.
func NewStudentAPIHandler(students studentReader, forms formValidator) *StudentAPIHandler {
	return &StudentAPIHandler{students: students, forms: forms}
}

// List godoc
// @Summary List students as shown in the console
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentAPIHandler) List(c *gin.Context) {
	records, err := h.students.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	rows := make([]service.Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, service.FormatRow(record))
	}
	response.JSON(c, http.StatusOK, rows, map[string]interface{}{"count": len(rows)})
}

// Get godoc
// @Summary Get a student record
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentAPIHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "invalid student id"))
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Validate godoc
// @Summary Validate student form values without saving
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.FormValues true "Form values"
// @Success 200 {object} response.Envelope
// @Router /students/validate [post]
func (h *StudentAPIHandler) Validate(c *gin.Context) {
	var values service.FormValues
	if err := c.ShouldBindJSON(&values); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "invalid JSON body"))
		return
	}
	errs := h.forms.Validate(values)
	response.JSON(c, http.StatusOK, ValidationResult{Valid: len(errs) == 0, Errors: errs})
}
