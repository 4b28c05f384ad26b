package web

import (
	"github.com/noah-isme/student-console/internal/models"
	"github.com/noah-isme/student-console/internal/service"
)

// FieldView is one form input.
type FieldView struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Error    string
	Disabled bool
	Optional bool
}

// FormView is the open form.
type FormView struct {
	Title      string
	SubmitText string
	Banner     string
	Fields     []FieldView
}

// ConsoleView is everything the console template renders.
type ConsoleView struct {
	Alert      string
	Loaded     bool
	TableError string
	Rows       []service.Row
	Count      int
	Form       *FormView
	Confirm    *service.DeleteConfirmation
	Refreshes  uint64
	Exports    []string
}

var fieldInputs = map[string]struct {
	label    string
	kind     string
	optional bool
}{
	models.FieldStudentID:  {"Student ID", "text", false},
	models.FieldFirstName:  {"First name", "text", false},
	models.FieldLastName:   {"Last name", "text", false},
	models.FieldEmail:      {"Email", "email", false},
	models.FieldBirthDate:  {"Birth date", "date", false},
	models.FieldHometown:   {"Hometown", "text", false},
	models.FieldMath:       {"Math", "number", true},
	models.FieldLiterature: {"Literature", "number", true},
	models.FieldEnglish:    {"English", "number", true},
}

// NewConsoleView builds the view for console.
func NewConsoleView(console *service.Console) ConsoleView {
	rows := console.Table.Rows()
	view := ConsoleView{
		Alert:      console.Alert,
		Loaded:     console.Table.Loaded,
		TableError: console.Table.Error,
		Rows:       rows,
		Count:      len(rows),
		Confirm:    console.Table.Confirm,
		Refreshes:  console.Shell.Refreshes,
		Exports:    []string{service.ExportFormatCSV, service.ExportFormatXLSX, service.ExportFormatPDF},
	}
	if console.Shell.FormOpen && console.Form != nil {
		view.Form = newFormView(console.Form)
	}
	return view
}

func newFormView(form *service.FormState) *FormView {
	fv := &FormView{Title: "Add student", SubmitText: "Add", Banner: form.Banner}
	if form.Editing() {
		fv.Title = "Edit student"
		fv.SubmitText = "Save"
	}
	for _, name := range models.StudentFields {
		input := fieldInputs[name]
		fv.Fields = append(fv.Fields, FieldView{
			Name:     name,
			Label:    input.label,
			Type:     input.kind,
			Value:    form.Values.Get(name),
			Error:    form.Errors[name],
			Disabled: name == models.FieldStudentID && form.StudentIDLocked(),
			Optional: input.optional,
		})
	}
	return fv
}
