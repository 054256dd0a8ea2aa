package domain

// ClassificationResult partitions transaction ids into the two buckets.
// Ids in neither bucket are not card payments and are dropped downstream.
type ClassificationResult struct {
	Subscriptions []int64 `json:"subscriptions"`
	Physical      []int64 `json:"physical"`
}

// EnrichedResult holds the full transactions for each bucket, in batch order.
type EnrichedResult struct {
	Subscriptions []Transaction `json:"subscriptions"`
	Physical      []Transaction `json:"physical"`
}

// ReceiptGuideItem tells the customer where to retrieve the receipt for one
// subscription payment.
type ReceiptGuideItem struct {
	TransactionID   int64  `json:"transactionId"`
	Service         string `json:"service"`
	Description     string `json:"description"`
	HowToGetReceipt string `json:"howToGetReceipt"`
	DirectLink      string `json:"directLink,omitempty"`
}

// ReceiptGuideResult is the guide for all subscription payments of a batch.
type ReceiptGuideResult struct {
	Guides              []ReceiptGuideItem `json:"guides"`
	GeneralInstructions string             `json:"generalInstructions"`
}

// Empty reports whether the result carries no guides and no general tips.
func (r ReceiptGuideResult) Empty() bool {
	return len(r.Guides) == 0 && r.GeneralInstructions == ""
}

// EmailDraft is the composed notification. Body is HTML using <br> line breaks.
type EmailDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
