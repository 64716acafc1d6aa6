package pipeline

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/finance-intelligence/internal/logger"
	"github.com/insightdelivered/finance-intelligence/internal/models"
)

const statementText = `CIBC 2024
Your payments
Jan 02 Jan 03 PAYMENT THANK YOU -500.00
Your new charges and credits
Jan 05 Jan 07 STARBUCKS COFFEE TORONTO Restaurants 4.50
Jan 09 Jan 10 LOBLAWS #1024 TORONTO Grocery 87.12`

func testExtractor(texts map[string]string) TextExtractor {
	return func(path string) ([]string, error) {
		text, ok := texts[path]
		if !ok {
			return nil, fmt.Errorf("unreadable document: %s", path)
		}
		return []string{text}, nil
	}
}

func newTestExtractorPipeline(texts map[string]string) *Extractor {
	return &Extractor{
		ExtractText: testExtractor(texts),
		Now:         func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) },
		Log:         logger.NewWithWriter(io.Discard),
	}
}

func TestExtractAccumulatesAcrossDocuments(t *testing.T) {
	e := newTestExtractorPipeline(map[string]string{
		"a.pdf": statementText,
		"b.pdf": statementText,
	})

	res := e.Extract([]string{"a.pdf", "b.pdf"})

	require.Empty(t, res.Failed)
	assert.Len(t, res.Transactions, 4)
	assert.Len(t, res.Payments, 2)

	// Documents are independent: re-extraction yields identical row hashes.
	assert.Equal(t, res.Transactions[0].RowHash(), res.Transactions[2].RowHash())
	assert.Equal(t, res.Payments[0].RowHash(), res.Payments[1].RowHash())
}

func TestExtractSkipsFailedDocuments(t *testing.T) {
	e := newTestExtractorPipeline(map[string]string{
		"good.pdf": statementText,
	})

	res := e.Extract([]string{"bad.pdf", "good.pdf"})

	require.Len(t, res.Failed, 1)
	assert.Equal(t, "bad.pdf", res.Failed[0].Path)
	assert.Error(t, res.Failed[0].Err)
	assert.Len(t, res.Transactions, 2)
	assert.Len(t, res.Payments, 1)
}

func TestExtractUnsupportedBank(t *testing.T) {
	e := newTestExtractorPipeline(map[string]string{
		"rbc.pdf": "Royal Bank of Canada\nstatement text",
	})

	res := e.Extract([]string{"rbc.pdf"})

	require.Len(t, res.Failed, 1)
	assert.Empty(t, res.Transactions)
	assert.Empty(t, res.Payments)
}

func TestExtractBankOverride(t *testing.T) {
	e := newTestExtractorPipeline(map[string]string{
		// No issuer keyword anywhere in the text.
		"plain.pdf": statementTextWithoutIssuer(),
	})
	e.Bank = models.BankCIBC

	res := e.Extract([]string{"plain.pdf"})

	require.Empty(t, res.Failed)
	assert.Len(t, res.Transactions, 2)
}

func TestExtractNoRecognizableLinesIsNotAnError(t *testing.T) {
	e := newTestExtractorPipeline(map[string]string{
		"empty.pdf": "CIBC 2024\nnothing that looks like a data line",
	})

	res := e.Extract([]string{"empty.pdf"})

	assert.Empty(t, res.Failed)
	assert.Empty(t, res.Transactions)
	assert.Empty(t, res.Payments)
}

func statementTextWithoutIssuer() string {
	return `Statement 2024
Your new charges and credits
Jan 05 Jan 07 STARBUCKS COFFEE TORONTO Restaurants 4.50
Jan 09 Jan 10 LOBLAWS #1024 TORONTO Grocery 87.12`
}
