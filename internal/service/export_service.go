package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
	ExportFormatXLSX = "xlsx"
)

const exportTitle = "Students"

var exportColumns = []export.Column{
	{Key: "id", Title: "ID"},
	{Key: models.FieldStudentID, Title: "Student ID"},
	{Key: models.FieldFirstName, Title: "First name"},
	{Key: models.FieldLastName, Title: "Last name"},
	{Key: models.FieldEmail, Title: "Email"},
	{Key: models.FieldBirthDate, Title: "Birth date"},
	{Key: models.FieldHometown, Title: "Hometown"},
	{Key: models.FieldMath, Title: "Math"},
	{Key: models.FieldLiterature, Title: "Literature"},
	{Key: models.FieldEnglish, Title: "English"},
}

// ExportResult is a rendered document ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the current student list as a downloadable file.
type ExportService struct {
	students  studentLister
	renderers map[string]export.Renderer
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Renderers default to CSV, PDF
// and XLSX when none are given.
func NewExportService(students studentLister, metrics *MetricsService, logger *zap.Logger, renderers ...export.Renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(renderers) == 0 {
		renderers = []export.Renderer{export.NewCSVExporter(), export.NewPDFExporter(), export.NewXLSXExporter()}
	}
	byExt := make(map[string]export.Renderer, len(renderers))
	for _, r := range renderers {
		byExt[r.Extension()] = r
	}
	return &ExportService{students: students, renderers: byExt, metrics: metrics, logger: logger, now: time.Now}
}

// Supports reports whether format can be rendered.
func (s *ExportService) Supports(format string) bool {
	_, ok := s.renderers[strings.ToLower(format)]
	return ok
}

// Generate fetches the list and renders it in format.
func (s *ExportService) Generate(ctx context.Context, format string) (*ExportResult, error) {
	if !s.Supports(format) {
		return nil, unsupportedFormat(format)
	}
	records, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	return s.Render(BuildDataset(records, now), "students", format)
}

// Render renders data in format as a file named after base and the dataset's
// generation date.
func (s *ExportService) Render(data export.Dataset, base, format string) (*ExportResult, error) {
	format = strings.ToLower(format)
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, unsupportedFormat(format)
	}
	body, err := renderer.Render(data)
	if err != nil {
		s.logger.Error("render export", zap.String("export", base), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.metrics.RecordExport(format)
	return &ExportResult{
		Filename:    fmt.Sprintf("%s_%s.%s", base, data.GeneratedAt.Format("2006-01-02"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func unsupportedFormat(format string) error {
	return appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("unsupported export format %q", strings.ToLower(format)))
}

// BuildDataset formats records the same way the table shows them.
func BuildDataset(records []models.Student, generatedAt time.Time) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		row := FormatRow(record)
		rows = append(rows, map[string]string{
			"id":                   strconv.FormatInt(row.ID, 10),
			models.FieldStudentID:  row.StudentID,
			models.FieldFirstName:  row.FirstName,
			models.FieldLastName:   row.LastName,
			models.FieldEmail:      row.Email,
			models.FieldBirthDate:  row.BirthDate,
			models.FieldHometown:   row.Hometown,
			models.FieldMath:       row.Math,
			models.FieldLiterature: row.Literature,
			models.FieldEnglish:    row.English,
		})
	}
	return export.Dataset{Title: exportTitle, Columns: exportColumns, Rows: rows, GeneratedAt: generatedAt}
}
