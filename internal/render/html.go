package render

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// PageData feeds the index page shell.
type PageData struct {
	Title          string
	MapsAPIKey     string
	MinQueryLength int
}

// HTML writes the results container for v.
func HTML(w io.Writer, v View) error {
	return templates.ExecuteTemplate(w, "results.html", v)
}

// Page writes the index page.
func Page(w io.Writer, data PageData) error {
	return templates.ExecuteTemplate(w, "index.html", data)
}
