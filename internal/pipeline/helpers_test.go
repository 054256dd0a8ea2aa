package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/dvloznov/missing-receipts/internal/llm"
	"github.com/shopspring/decimal"
)

// Markers that identify which prompt a request carries.
const (
	classifyMarker = "You are a financial assistant"
	guideMarker    = "abonnementstransaksjoner"
	emailMarker    = "Skriv en e-post"
)

const (
	githubID     = int64(1003)
	netflixID    = int64(1004)
	restaurantID = int64(1007)
)

func tx(id int64, code, desc, date, amount string) domain.Transaction {
	return domain.Transaction{
		ID:              id,
		TransactionCode: code,
		Description:     desc,
		BookingDate:     date,
		Amount:          decimal.RequireFromString(amount),
	}
}

// testBatch returns 20 transactions with a GitHub card subscription and a
// restaurant card purchase among salary, transfers and fees.
func testBatch() []domain.Transaction {
	return []domain.Transaction{
		tx(1001, "SALARY", "LØNN OKTOBER", "2025-11-01", "45000"),
		tx(1002, "TRANSFER", "OVERFØRING SPAREKONTO", "2025-11-01", "-5000"),
		tx(githubID, "CARD", "GITHUB.COM", "2025-11-02", "-389.5"),
		tx(netflixID, "CARD", "NETFLIX.COM", "2025-11-03", "-179"),
		tx(1005, "FEE", "GEBYR KONTOHOLD", "2025-11-03", "-25"),
		tx(1006, "GIRO", "HUSLEIE NOVEMBER", "2025-11-04", "-14500"),
		tx(restaurantID, "CARD", "RESTAURANT OSLO", "2025-11-05", "-612"),
		tx(1008, "TRANSFER", "VIPPS *KARI NORDMANN", "2025-11-06", "-250"),
		tx(1009, "GIRO", "STRØM HAFSLUND", "2025-11-07", "-1240"),
		tx(1010, "INTEREST", "RENTER", "2025-11-08", "12.4"),
		tx(1011, "TRANSFER", "INNBETALING KUNDE AS", "2025-11-09", "18750"),
		tx(1012, "GIRO", "SKATTEETATEN FORSKUDDSSKATT", "2025-11-10", "-9800"),
		tx(1013, "TRANSFER", "OVERFØRING EGEN KONTO", "2025-11-11", "-2000"),
		tx(1014, "GIRO", "FORSIKRING IF", "2025-11-12", "-890"),
		tx(1015, "FEE", "GEBYR UTLANDSBETALING", "2025-11-13", "-45"),
		tx(1016, "TRANSFER", "INNBETALING KUNDE AS", "2025-11-14", "9200"),
		tx(1017, "GIRO", "TELENOR MOBIL", "2025-11-15", "-449"),
		tx(1018, "TRANSFER", "VIPPS *OLA NORDMANN", "2025-11-16", "300"),
		tx(1019, "GIRO", "KOMMUNALE AVGIFTER", "2025-11-17", "-3100"),
		tx(1020, "SALARY", "FERIEPENGER", "2025-11-18", "5400"),
	}
}

const (
	classifyResponse = "Here is the result:\n```json\n" +
		`{"subscriptions": [1003, 1004], "physical": [1007]}` +
		"\n```\nLet me know if you need anything else."

	guideResponseText = `{
  "guides": [
    {"transactionId": 1003, "service": "GitHub", "description": "Abonnement på GitHub", "howToGetReceipt": "1. Logg inn\n2. Gå til Settings > Billing", "directLink": "https://github.com/settings/billing"},
    {"transactionId": 1004, "service": "Netflix", "description": "Strømmetjeneste", "howToGetReceipt": "Gå til Konto > Betalingshistorikk"}
  ],
  "generalInstructions": "Sjekk e-postinnboksen din for fakturaer."
}`

	emailResponseText = `Sure! {"subject": "Manglende kvitteringer", "body": "Hei!<br>Vi mangler kvittering for RESTAURANT OSLO 2025-11-05 (-612 kr).<br>Hilsen regnskapsfører"}`

	emailBody = "Hei!<br>Vi mangler kvittering for RESTAURANT OSLO 2025-11-05 (-612 kr).<br>Hilsen regnskapsfører"
)

// scriptedClient answers each kind of prompt with a fixed response.
func scriptedClient(t *testing.T, classify, guide, email string) *llm.MockClient {
	t.Helper()
	return &llm.MockClient{
		CompleteFunc: func(_ context.Context, req llm.Request) (llm.Response, error) {
			switch {
			case strings.Contains(req.Prompt, classifyMarker):
				return llm.Response{Text: classify}, nil
			case strings.Contains(req.Prompt, guideMarker):
				return llm.Response{Text: guide}, nil
			case strings.Contains(req.Prompt, emailMarker):
				return llm.Response{Text: email}, nil
			}
			t.Errorf("unexpected prompt: %s", req.Prompt)
			return llm.Response{}, nil
		},
	}
}

// promptsContaining returns the requests whose prompt contains marker.
func promptsContaining(client *llm.MockClient, marker string) []llm.Request {
	var out []llm.Request
	for _, req := range client.Requests() {
		if strings.Contains(req.Prompt, marker) {
			out = append(out, req)
		}
	}
	return out
}

func ids(txs []domain.Transaction) []int64 {
	out := make([]int64, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}
