// Package page assembles rendered fragments into complete HTML documents.
package page

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
)

//go:embed assets/page.html.tmpl
var pageTemplate string

var tpl = template.Must(template.New("page").Option("missingkey=error").Parse(pageTemplate))

// Data is the input of a page. Navigation and Content are trusted HTML
// fragments produced by the markdown renderer; Title is escaped.
type Data struct {
	Title      string
	Navigation string
	Content    string
	Refresh    bool
}

// Assemble renders a complete HTML document. When Refresh is set the page
// subscribes to live reload notifications.
func Assemble(d Data) (string, error) {
	var buf bytes.Buffer
	err := tpl.Execute(&buf, struct {
		Title      string
		Navigation template.HTML
		Content    template.HTML
		Refresh    bool
	}{
		Title:      d.Title,
		Navigation: template.HTML(d.Navigation), //nolint:gosec // renderer output
		Content:    template.HTML(d.Content),    //nolint:gosec // renderer output
		Refresh:    d.Refresh,
	})
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return buf.String(), nil
}
