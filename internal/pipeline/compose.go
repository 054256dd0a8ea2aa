package pipeline

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/dvloznov/missing-receipts/internal/llm"
	"github.com/rs/zerolog"
)

// Composer drafts the missing-receipts email.
type Composer struct {
	client    llm.Client
	maxTokens int
	log       zerolog.Logger
}

// NewComposer creates a Composer. maxTokens bounds the model answer.
func NewComposer(client llm.Client, maxTokens int, log zerolog.Logger) *Composer {
	return &Composer{client: client, maxTokens: maxTokens, log: log}
}

type emailResponse struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Compose asks the model for a subject and body covering the physical
// purchases, then appends RenderGuideHTML(guide) to the body. The guide is
// never sent to the model.
func (c *Composer) Compose(ctx context.Context, enriched domain.EnrichedResult, guide domain.ReceiptGuideResult) (domain.EmailDraft, error) {
	prompt, err := buildEmailPrompt(enriched.Physical, !guide.Empty())
	if err != nil {
		return domain.EmailDraft{}, err
	}

	log := loggerFrom(ctx, c.log)
	var parsed emailResponse
	req := llm.Request{Prompt: prompt, MaxTokens: c.maxTokens}
	raw, err := completeJSON(ctx, c.client, StageCompose, req, &parsed, log)
	if err != nil {
		return domain.EmailDraft{}, err
	}
	if parsed.Subject == "" && parsed.Body == "" {
		return domain.EmailDraft{}, parseFailure(StageCompose, raw, errors.New(`response has neither "subject" nor "body"`), log)
	}

	return domain.EmailDraft{
		Subject: parsed.Subject,
		Body:    parsed.Body + RenderGuideHTML(guide),
	}, nil
}

// RenderGuideHTML renders the receipt guide as the HTML block appended to the
// email body. It returns "" for an empty guide. Model-provided text is
// HTML-escaped.
func RenderGuideHTML(guide domain.ReceiptGuideResult) string {
	if guide.Empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n<h3 style=\"color: #2c3e50; margin-top: 30px;\">📋 Guide: Slik finner du kvitteringer for abonnementer</h3>\n")
	b.WriteString("<p>Her er instruksjoner for hvordan du finner kvitteringer for hver tjeneste:</p>\n")

	for _, g := range guide.Guides {
		b.WriteString("\n<div style=\"background: #f8f9fa; border-left: 4px solid #3498db; padding: 15px; margin: 15px 0; border-radius: 4px;\">\n")
		fmt.Fprintf(&b, "  <h4 style=\"color: #2980b9; margin-top: 0;\">%s</h4>\n", html.EscapeString(g.Service))
		fmt.Fprintf(&b, "  <p><strong>Beskrivelse:</strong> %s</p>\n", html.EscapeString(g.Description))
		fmt.Fprintf(&b, "  <p style=\"color: #7f8c8d; font-size: 0.9em;\">Transaksjon ID: %d</p>\n", g.TransactionID)
		b.WriteString("  <div style=\"line-height: 1.6; white-space: pre-wrap;\">\n")
		b.WriteString("    <strong>Slik finner du kvitteringen:</strong><br>\n")
		fmt.Fprintf(&b, "    %s\n", html.EscapeString(g.HowToGetReceipt))
		b.WriteString("  </div>\n")
		if isWebLink(g.DirectLink) {
			fmt.Fprintf(&b, "  <a href=\"%s\" style=\"display: inline-block; margin-top: 10px; padding: 10px 20px; background: #3498db; color: white; text-decoration: none; border-radius: 4px;\">🔗 Gå til fakturaside</a>\n", html.EscapeString(g.DirectLink))
		}
		b.WriteString("</div>\n")
	}

	if guide.GeneralInstructions != "" {
		b.WriteString("\n<div style=\"background: #e8f5e9; border-left: 4px solid #4caf50; padding: 15px; margin: 20px 0; border-radius: 4px;\">\n")
		b.WriteString("  <h4 style=\"color: #2e7d32; margin-top: 0;\">💡 Generelle tips</h4>\n")
		fmt.Fprintf(&b, "  <p>%s</p>\n", html.EscapeString(guide.GeneralInstructions))
		b.WriteString("</div>\n")
	}
	return b.String()
}

// isWebLink reports whether link is an absolute http or https URL.
func isWebLink(link string) bool {
	if link == "" {
		return false
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
