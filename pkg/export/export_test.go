package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Students",
		Columns: []Column{{Key: "student_id", Title: "Student ID"}, {Key: "name", Title: "Name"}, {Key: "math", Title: "Math"}},
		Rows: []map[string]string{
			{"student_id": "SV001", "name": "Nguyen Van A", "math": "7.00"},
			{"student_id": "SV002", "name": "Tran, B", "math": "-"},
		},
		GeneratedAt: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}
}

func TestCSVExporter(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student ID,Name,Math", lines[0])
	assert.Equal(t, "SV001,Nguyen Van A,7.00", lines[1])
	assert.Equal(t, `SV002,"Tran, B",-`, lines[2])
}

func TestPDFExporter(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporter(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Students", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Student ID", header)
	name, err := f.GetCellValue("Students", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Tran, B", name)
}

func TestRenderersRejectEmptyColumns(t *testing.T) {
	for _, r := range []Renderer{NewCSVExporter(), NewPDFExporter(), NewXLSXExporter()} {
		_, err := r.Render(Dataset{})
		assert.ErrorIs(t, err, ErrNoColumns, r.Extension())
	}
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Sheet1", sheetName(""))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), 31)
}
