package web

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-console/internal/models"
	"github.com/noah-isme/student-console/internal/service"
)

func render(t *testing.T, console *service.Console) string {
	t.Helper()
	tmpl, err := Templates()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, ConsolePage, NewConsoleView(console)))
	return buf.String()
}

func nguyen() models.Student {
	return models.Student{ID: 5, StudentID: "SV005", FirstName: "Nguyen", LastName: "Van A", Math: models.NewScore(7)}
}

func TestRenderTable(t *testing.T) {
	console := service.NewConsole()
	console.Table = service.TableState{Loaded: true, Records: []models.Student{nguyen()}}

	html := render(t, console)
	assert.Contains(t, html, "Students (1)")
	assert.Contains(t, html, "<td>7.00</td>")
	assert.Contains(t, html, "<td>-</td>")
	assert.Contains(t, html, `action="/students/5/delete"`)
	assert.NotContains(t, html, "student-form")
}

func TestRenderTableError(t *testing.T) {
	console := service.NewConsole()
	console.Table = service.TableState{Loaded: true, Error: service.MessageListFailed}

	html := render(t, console)
	assert.Contains(t, html, service.MessageListFailed)
	assert.NotContains(t, html, "<table>")
}

func TestRenderEditFormLocksStudentID(t *testing.T) {
	console := service.NewConsole()
	console.Table.Loaded = true
	console.Shell.OpenEdit(nguyen())
	console.Form = service.NewEditForm(nguyen())
	console.Form.Errors[models.FieldEmail] = "Email is required"
	console.Form.Banner = service.BannerReviewErrors

	view := NewConsoleView(console)
	require.NotNil(t, view.Form)
	assert.Equal(t, "Edit student", view.Form.Title)
	assert.True(t, view.Form.Fields[0].Disabled)
	assert.False(t, view.Form.Fields[1].Disabled)

	html := render(t, console)
	assert.Contains(t, html, `id="f-student_id" type="text" value="SV005" disabled`)
	assert.Contains(t, html, `<input type="hidden" name="student_id" value="SV005">`)
	assert.Contains(t, html, `data-for="email">Email is required`)
	assert.Contains(t, html, service.BannerReviewErrors)
}

func TestRenderCreateFormIsEditable(t *testing.T) {
	console := service.NewConsole()
	console.Shell.OpenCreate()
	console.Form = service.NewCreateForm()

	view := NewConsoleView(console)
	require.NotNil(t, view.Form)
	assert.Equal(t, "Add student", view.Form.Title)
	for _, f := range view.Form.Fields {
		assert.False(t, f.Disabled, f.Name)
	}
}

func TestRenderDeleteConfirmation(t *testing.T) {
	console := service.NewConsole()
	console.Table = service.TableState{Loaded: true, Records: []models.Student{nguyen()}}
	console.Table.RequestDelete(nguyen())
	console.Table.Confirm.Error = "student does not exist"

	html := render(t, console)
	assert.Contains(t, html, "<strong>Nguyen Van A</strong>")
	assert.Contains(t, html, "student does not exist")
}
