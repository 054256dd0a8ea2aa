// Package views renders the static HTML pages served by the API. Placeholders
// of the form {{NAME}} are replaced verbatim.
package views

import (
	"embed"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dvloznov/missing-receipts/internal/domain"
)

//go:embed templates/*.html
var templates embed.FS

// DateLayout is how {{DATE}} is written.
const DateLayout = "02.01.2006"

func load(name string) (string, error) {
	b, err := templates.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("views: %w", err)
	}
	return string(b), nil
}

// Index renders the landing page for token.
func Index(token string, now time.Time) (string, error) {
	page, err := load("index.html")
	if err != nil {
		return "", err
	}
	return strings.NewReplacer(
		"{{DATE}}", now.Format(DateLayout),
		"{{TOKEN}}", html.EscapeString(token),
	).Replace(page), nil
}

// Email renders draft as a standalone preview page. The body is inserted as
// HTML, the subject and token are escaped.
func Email(draft domain.EmailDraft, token string, now time.Time) (string, error) {
	page, err := load("email.html")
	if err != nil {
		return "", err
	}
	return strings.NewReplacer(
		"{{SUBJECT}}", html.EscapeString(draft.Subject),
		"{{BODY}}", draft.Body,
		"{{DATE}}", now.Format(DateLayout),
		"{{TOKEN}}", html.EscapeString(token),
	).Replace(page), nil
}
