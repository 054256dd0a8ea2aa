package views

import (
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/missing-receipts/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 11, 30, 9, 0, 0, 0, time.UTC)

func TestIndex(t *testing.T) {
	page, err := Index("tok-123", testNow)
	require.NoError(t, err)

	assert.Contains(t, page, `data-token="tok-123"`)
	assert.Contains(t, page, "30.11.2025")
	assert.NotContains(t, page, "{{")
}

func TestIndex_EscapesToken(t *testing.T) {
	page, err := Index(`"><script>alert(1)</script>`, testNow)
	require.NoError(t, err)

	assert.NotContains(t, page, "<script>alert(1)")
	assert.Contains(t, page, "&lt;script&gt;")
}

func TestEmail(t *testing.T) {
	draft := domain.EmailDraft{
		Subject: "Kvitteringer <november>",
		Body:    "Hei,<br>vi mangler kvitteringer.",
	}
	page, err := Email(draft, "tok-123", testNow)
	require.NoError(t, err)

	assert.Contains(t, page, "Kvitteringer &lt;november&gt;")
	assert.Contains(t, page, "Hei,<br>vi mangler kvitteringer.")
	assert.Contains(t, page, "tok-123")
	assert.Contains(t, page, "30.11.2025")
	assert.Equal(t, 0, strings.Count(page, "{{"))
}
