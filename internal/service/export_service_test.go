package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/export"
)

func TestExportCSVUsesTableFormatting(t *testing.T) {
	backend := &fakeStudentBackend{students: []models.Student{nguyen()}}
	svc := NewExportService(backend, nil, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }

	result, err := svc.Generate(context.Background(), "CSV")
	require.NoError(t, err)

	assert.Equal(t, "students_2026-10-16.csv", result.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)
	lines := strings.Split(strings.TrimSpace(string(result.Body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Student ID,First name,Last name,Email,Birth date,Hometown,Math,Literature,English", lines[0])
	assert.Equal(t, "5,SV005,Nguyen,Van A,,,,7.00,-,-", lines[1])
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&fakeStudentBackend{}, nil, zap.NewNop())
	assert.False(t, svc.Supports("docx"))
	_, err := svc.Generate(context.Background(), "docx")
	assert.ErrorIs(t, err, appErrors.ErrBadRequest)
}

func TestExportPropagatesListFailure(t *testing.T) {
	svc := NewExportService(&fakeStudentBackend{listErr: errors.New("refused")}, nil, zap.NewNop(), export.NewXLSXExporter())
	assert.True(t, svc.Supports(ExportFormatXLSX))
	assert.False(t, svc.Supports(ExportFormatPDF))
	_, err := svc.Generate(context.Background(), ExportFormatXLSX)
	assert.Error(t, err)
}
