package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-console/internal/service"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/observability"
	"github.com/noah-isme/student-console/pkg/response"
)

// Downloadable files, by base name.
const (
	exportStudents = "students"
	exportReport   = "report"
)

type exportGenerator interface {
	Supports(format string) bool
	Generate(ctx context.Context, format string) (*service.ExportResult, error)
}

type reportExporter interface {
	Export(ctx context.Context, format string) (*service.ExportResult, error)
}

// ExportHandler streams the student list, or its score report, as a file.
type ExportHandler struct {
	exports exportGenerator
	reports reportExporter
}

// NewExportHandler constructs an ExportHandler. reports may be nil, leaving
// only the student list downloadable.
func NewExportHandler(exports exportGenerator, reports reportExporter) *ExportHandler {
	return &ExportHandler{exports: exports, reports: reports}
}

// Download godoc
// @Summary Download the student list or score report
// @Tags Exports
// @Produce octet-stream
// @Param file path string true "students.csv, students.xlsx, students.pdf or report.csv"
// @Success 200 {file} file
// @Router /exports/{file} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	base, format, ok := strings.Cut(c.Param("file"), ".")
	if !ok || (base != exportStudents && (base != exportReport || h.reports == nil)) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown export"))
		return
	}
	if !h.exports.Supports(format) {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "unsupported export format"))
		return
	}

	var (
		result *service.ExportResult
		err    error
	)
	if base == exportReport {
		result, err = h.reports.Export(c.Request.Context(), format)
	} else {
		result, err = h.exports.Generate(c.Request.Context(), format)
	}
	if err != nil {
		if appErrors.FromError(err).Status >= 500 {
			observability.CaptureErr(err)
		}
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
