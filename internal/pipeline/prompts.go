package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/shopspring/decimal"
)

// classificationRow is the JSON shape of one transaction in the
// classification prompt.
type classificationRow struct {
	ID              int64       `json:"id"`
	Description     string      `json:"description"`
	Amount          json.Number `json:"amount"`
	TransactionCode string      `json:"transactionCode"`
	BookingDate     string      `json:"bookingDate"`
}

// guideRow and emailRow use the Norwegian keys the prompts refer to.
type guideRow struct {
	ID          int64       `json:"id"`
	Date        string      `json:"dato"`
	Description string      `json:"beskrivelse"`
	Amount      json.Number `json:"beløp"`
}

type emailRow struct {
	Date        string      `json:"dato"`
	Description string      `json:"beskrivelse"`
	Amount      json.Number `json:"beløp"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// buildClassificationPrompt asks the model to find card payments and split them
// into subscriptions and physical purchases.
func buildClassificationPrompt(txs []domain.NormalizedTransaction) (string, error) {
	rows := make([]classificationRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, classificationRow{
			ID:              t.ID,
			Description:     t.Description,
			Amount:          number(t.Amount),
			TransactionCode: t.TransactionCode,
			BookingDate:     t.BookingDate,
		})
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("buildClassificationPrompt: marshal transactions: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a financial assistant. Analyze the following bank transactions.\n")
	b.WriteString("1. Identify which transactions are card payments (look for 'card' in transactionCode or typical card descriptions).\n")
	b.WriteString("2. Categorize these card transactions into two groups:\n")
	b.WriteString("   - \"subscriptions\": Recurring payments, online services, software (e.g., GitHub, Netflix, Adobe, ZTL Payment).\n")
	b.WriteString("   - \"physical\": In-store purchases, restaurants, travel, physical goods bought in person.\n")
	b.WriteString("3. Leave out every transaction that is not a card payment. Never put an id in both groups.\n\n")
	b.WriteString("Return ONLY a valid JSON object with this structure:\n")
	b.WriteString("{\n  \"subscriptions\": [list of transaction IDs],\n  \"physical\": [list of transaction IDs]\n}\n\n")
	b.WriteString("Transactions:\n")
	b.Write(data)
	b.WriteString("\n")
	return b.String(), nil
}

// buildGuidePrompt asks for per-subscription receipt retrieval instructions.
// Norwegian, since the guide is pasted verbatim into the customer email.
func buildGuidePrompt(subs []domain.Transaction) (string, error) {
	rows := make([]guideRow, 0, len(subs))
	for _, t := range subs {
		rows = append(rows, guideRow{
			ID:          t.ID,
			Date:        t.BookingDate,
			Description: t.Description,
			Amount:      number(t.Amount),
		})
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("buildGuidePrompt: marshal transactions: %w", err)
	}

	var b strings.Builder
	b.WriteString("Du er en regnskapsførerassistent. En kunde trenger hjelp med å finne kvitteringer for følgende abonnementstransaksjoner.\n\n")
	b.WriteString("For hver transaksjon, analyser beskrivelsen og identifiser tjenesten, og gi DETALJERTE instruksjoner om hvordan kunden kan finne/laste ned kvitteringen.\n\n")
	b.WriteString("Inkluder:\n")
	b.WriteString("1. Navnet på tjenesten/selskapet\n")
	b.WriteString("2. Steg-for-steg instruksjoner for å finne kvitteringen\n")
	b.WriteString("3. Direktelenke til fakturaside hvis mulig (for vanlige tjenester som GitHub, AWS, Adobe, etc.)\n\n")
	b.WriteString("Transaksjoner:\n")
	b.Write(data)
	b.WriteString("\n\n")
	b.WriteString("Returner et JSON-objekt med denne strukturen:\n")
	b.WriteString(`{
  "guides": [
    {
      "transactionId": number,
      "service": "Navn på tjenesten",
      "description": "Kort beskrivelse av hva dette er",
      "howToGetReceipt": "Detaljerte steg-for-steg instruksjoner",
      "directLink": "URL hvis tilgjengelig (valgfritt)"
    }
  ],
  "generalInstructions": "Generelle tips for å finne kvitteringer"
}`)
	b.WriteString("\n\n")
	b.WriteString("Bruk nøyaktig id-en fra transaksjonslisten som transactionId.\n")
	b.WriteString("Språk: Norsk. Vær spesifikk og hjelpsom.\n")
	return b.String(), nil
}

// buildEmailPrompt lists only the physical purchases. Subscription guidance is
// appended to the body afterwards and must not be generated here.
func buildEmailPrompt(physical []domain.Transaction, hasGuide bool) (string, error) {
	rows := make([]emailRow, 0, len(physical))
	for _, t := range physical {
		rows = append(rows, emailRow{
			Date:        t.BookingDate,
			Description: t.Description,
			Amount:      number(t.Amount),
		})
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("buildEmailPrompt: marshal transactions: %w", err)
	}

	var b strings.Builder
	b.WriteString("Du er en regnskapsførerassistent. Skriv en e-post til en kunde for å etterspørre manglende kvitteringer for følgende transaksjoner.\n\n")
	b.WriteString("Fysiske kjøp som mangler bilag:\n")
	b.Write(data)
	b.WriteString("\n\n")
	if hasGuide {
		b.WriteString("VIKTIG: Jeg har allerede generert en detaljert guide for abonnementene som vil bli inkludert i e-posten.\n")
		b.WriteString("Du trenger IKKE å lage instruksjoner for hvordan man finner kvitteringer for abonnementer - dette er allerede håndtert.\n\n")
	} else {
		b.WriteString("Ikke nevn abonnementer i e-posten.\n\n")
	}
	b.WriteString("Fokuser på:\n")
	b.WriteString("1. En vennlig introduksjon\n")
	b.WriteString("2. List opp de fysiske kjøpene som trenger kvitteringer, med dato og beløp\n")
	b.WriteString("3. Be kunden om å laste opp kvitteringene\n")
	b.WriteString("4. En avslutning\n\n")
	b.WriteString("Returner svaret som et JSON-objekt med feltene \"subject\" og \"body\".\n")
	b.WriteString("\"body\" skal være selve e-postteksten (i HTML-format, bruk <br> for linjeskift).\n")
	b.WriteString("Språk: Norsk.\n")
	return b.String(), nil
}
