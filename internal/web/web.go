// Package web holds the console's embedded HTML templates and the view model
// they render.
package web

import (
	"embed"
	"html/template"
)

// ConsolePage is the name of the console template.
const ConsolePage = "console.html"

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded templates.
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.html")
}
