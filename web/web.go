// Package web holds the dashboard's templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates parses every page template once. Request data is only ever passed
// to Execute, never parsed.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"pct": formatPct,
	}).ParseFS(templateFS, "templates/*.html")
}

// Static returns the asset tree rooted at static/.
func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
