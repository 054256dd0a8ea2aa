package notionoutbox

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/dvloznov/missing-receipts/internal/jobs"
	"github.com/jomei/notionapi"
)

// Notion limits.
const (
	maxRichTextLength = 2000
	maxChildBlocks    = 100
)

// Property names of the drafts database.
const (
	propSubject       = "Subject"
	propJobID         = "Job ID"
	propCustomer      = "Customer"
	propPeriod        = "Period"
	propComposed      = "Composed"
	propSubscriptions = "Subscriptions"
	propPhysical      = "Physical"
	propStatus        = "Status"
)

// draftStatus is the initial review state of a published draft.
const draftStatus = "To review"

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

// JobToNotionProperties maps a completed job onto the drafts database columns.
func JobToNotionProperties(job *jobs.NotificationJob) notionapi.Properties {
	subject := ""
	if job.Draft != nil {
		subject = job.Draft.Subject
	}

	props := notionapi.Properties{
		propSubject: notionapi.TitleProperty{Title: richText(subject)},
		propJobID:   notionapi.RichTextProperty{RichText: richText(job.JobID)},
		propSubscriptions: notionapi.NumberProperty{
			Number: float64(job.Subscriptions),
		},
		propPhysical: notionapi.NumberProperty{
			Number: float64(job.Physical),
		},
		propStatus: notionapi.SelectProperty{
			Select: notionapi.Option{Name: draftStatus},
		},
	}

	if job.Customer != "" {
		props[propCustomer] = notionapi.RichTextProperty{RichText: richText(job.Customer)}
	}
	if period := period(job.From, job.To); period != "" {
		props[propPeriod] = notionapi.RichTextProperty{RichText: richText(period)}
	}
	composed := time.Now()
	if job.CompletedAt != nil {
		composed = *job.CompletedAt
	}
	d := notionapi.Date(composed)
	props[propComposed] = notionapi.DateProperty{
		Date: &notionapi.DateObject{Start: &d},
	}
	return props
}

// period formats the job's date range; open ends are written as "...".
func period(from, to string) string {
	if from == "" && to == "" {
		return ""
	}
	if from == "" {
		from = "..."
	}
	if to == "" {
		to = "..."
	}
	return from + " – " + to
}

var (
	lineBreak = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</h[1-6]>|</li>`)
	anyTag    = regexp.MustCompile(`<[^>]*>`)
)

// BodyToText turns the HTML email body into plain text, one line per <br> or
// closed block element.
func BodyToText(body string) string {
	text := lineBreak.ReplaceAllString(body, "\n")
	text = anyTag.ReplaceAllString(text, "")
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// BodyToBlocks converts the email body into paragraph blocks. Paragraphs are
// separated by blank lines and split to fit Notion's rich text limit.
func BodyToBlocks(body string) []notionapi.Block {
	var blocks []notionapi.Block
	for _, para := range strings.Split(BodyToText(body), "\n\n") {
		if para == "" {
			continue
		}
		for _, chunk := range splitRunes(para, maxRichTextLength) {
			if len(blocks) == maxChildBlocks {
				return blocks
			}
			blocks = append(blocks, &notionapi.ParagraphBlock{
				BasicBlock: notionapi.BasicBlock{
					Object: notionapi.ObjectTypeBlock,
					Type:   notionapi.BlockTypeParagraph,
				},
				Paragraph: notionapi.Paragraph{RichText: richText(chunk)},
			})
		}
	}
	return blocks
}

func splitRunes(s string, size int) []string {
	runes := []rune(s)
	if len(runes) <= size {
		return []string{s}
	}
	var out []string
	for len(runes) > 0 {
		n := size
		if len(runes) < n {
			n = len(runes)
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}

// extractJobID returns the Job ID property of a page, or "".
func extractJobID(page notionapi.Page) string {
	if prop, ok := page.Properties[propJobID]; ok {
		if rt, ok := prop.(*notionapi.RichTextProperty); ok && len(rt.RichText) > 0 {
			return rt.RichText[0].PlainText
		}
	}
	return ""
}
