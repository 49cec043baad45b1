package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// templateContext is the shared render context for all notification templates.
type templateContext struct {
	RecipientName string
	Deed          DeedSummary
	SigningURL    string
	BorrowerNames []string
	FromName      string
	CurrentYear   int
}

// render executes the named embedded template and returns the HTML body.
func render(name string, ctx templateContext) (string, error) {
	if ctx.CurrentYear == 0 {
		ctx.CurrentYear = time.Now().Year()
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, ctx); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
